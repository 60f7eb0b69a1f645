package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/arnavshah/rotation-api-go/pkg/auth"
	"github.com/arnavshah/rotation-api-go/pkg/config"
	"github.com/arnavshah/rotation-api-go/pkg/database"
	"github.com/arnavshah/rotation-api-go/pkg/logger"
	"github.com/arnavshah/rotation-api-go/pkg/metrics"
	"github.com/arnavshah/rotation-api-go/pkg/models"
	"github.com/arnavshah/rotation-api-go/pkg/service"
)

type testServer struct {
	router *gin.Engine
	auth   *auth.Service
	apiKey string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)

	authSvc := auth.NewService(config.AuthConfig{
		JWTSecret:       "jwt-secret",
		APIMasterSecret: "master-secret",
		BcryptCost:      bcrypt.MinCost,
	})
	_, err = authSvc.EnsureAdminExists(db, "admin", "admin123")
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	recorder, err := metrics.NewPromRecorder(reg)
	require.NoError(t, err)

	sched := config.SchedulingConfig{}
	sched.SetDefaults()
	planner, err := service.NewPlanner(sched, recorder, nil)
	require.NoError(t, err)

	router := NewRouter(&Handler{DB: db, Auth: authSvc, Planner: planner, Gatherer: reg})
	return &testServer{router: router, auth: authSvc, apiKey: authSvc.GenerateKey("ops")}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func roster() []models.PersonInput {
	return []models.PersonInput{
		{ID: "raz", LastDuty: "2024-06-10"},
		{ID: "natan", LastDuty: "2024-06-11"},
		{ID: "cartman", LastDuty: "2024-06-09"},
		{ID: "eliyahu", LastDuty: "2024-06-08"},
		{ID: "biton", LastDuty: "2024-05-28"},
	}
}

func TestBanner(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), Version)
}

func TestAPIKeyRequired(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/plan", "", models.PlanRequest{Roster: roster()})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/plan", "ops.deadbeef", models.PlanRequest{Roster: roster()})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPlanJSON(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/plan", s.apiKey, models.PlanRequest{Roster: roster(), Date: "2024-06-12"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[models.PlanResponse](t, w)
	require.NotEmpty(t, resp.PlanID)
	require.Len(t, resp.Day, 8)
	require.Len(t, resp.Floor, 8)
	require.Len(t, resp.Night, 6)
	require.Equal(t, "biton", resp.Day[0].PersonID)
	require.Equal(t, []string{"biton", "eliyahu"}, resp.Night[0].PersonIDs)

	usage := decode[map[string]any](t, s.do(t, http.MethodGet, "/api/usage", s.apiKey, nil))
	totals := usage["totals"].(map[string]any)
	require.EqualValues(t, 1, totals["requests"])
	require.EqualValues(t, 22, totals["slots"])
	require.EqualValues(t, 5, totals["personnel"])
}

func TestPlanJSON_Errors(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/plan", s.apiKey, models.PlanRequest{
		Roster:       roster(),
		PresentToday: []string{"nobody"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode[map[string]string](t, w)
	require.Equal(t, "day", body["track"])

	w = s.do(t, http.MethodPost, "/api/plan", s.apiKey, models.PlanRequest{
		Roster: []models.PersonInput{{ID: "raz"}, {ID: "raz"}},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/plan", s.apiKey, models.PlanRequest{Roster: roster(), Policy: "lottery"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlanCSV(t *testing.T) {
	s := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	rf, err := mw.CreateFormFile("roster_file", "roster.csv")
	require.NoError(t, err)
	_, err = rf.Write([]byte("id,last_duty,present\nraz,2024-06-10,yes\nnatan,2024-06-11,no\nbiton,2024-05-28,yes\n"))
	require.NoError(t, err)
	of, err := mw.CreateFormFile("overrides_file", "overrides.csv")
	require.NoError(t, err)
	_, err = of.Write([]byte("track,start,end,person_ids\nday,06:00,08:00,biton\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/plan/csv", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	out := decode[map[string]any](t, w)
	lines := strings.Split(strings.TrimSpace(out["csv"].(string)), "\n")
	require.Equal(t, "track,start,end,seat,person_id,degraded", lines[0])
	// biton served the override, so raz leads every track
	require.Equal(t, "day,06:00,08:00,1,raz,false", lines[1])
	require.NotContains(t, out["csv"], "natan")
	// 8 day + 8 floor + 6 nights of 2 seats
	require.Len(t, lines, 1+8+8+12)
}

func TestRosterRoundTrip(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPut, "/api/roster", s.apiKey, gin.H{"roster": roster()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	stored := decode[map[string][]models.PersonInput](t, s.do(t, http.MethodGet, "/api/roster", s.apiKey, nil))
	require.Equal(t, roster(), stored["roster"])

	w = s.do(t, http.MethodPost, "/api/roster/plan", s.apiKey, gin.H{"date": "2024-06-12", "present_today": []string{"raz", "biton"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decode[models.PlanResponse](t, w)
	require.Equal(t, "biton", first.Day[0].PersonID)

	stored = decode[map[string][]models.PersonInput](t, s.do(t, http.MethodGet, "/api/roster", s.apiKey, nil))
	byID := make(map[string]models.PersonInput)
	for _, p := range stored["roster"] {
		byID[p.ID] = p
	}
	require.Equal(t, "2024-06-12", byID["biton"].LastDuty)
	require.Equal(t, "2024-06-11", byID["natan"].LastDuty)
	require.Equal(t, first.Ledger["biton"], byID["biton"].LastSlot)

	// everyone served 2024-06-12, stable ranking keeps roster order
	w = s.do(t, http.MethodPost, "/api/roster/plan", s.apiKey, gin.H{"date": "2024-06-13", "present_today": []string{"raz", "biton"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	second := decode[models.PlanResponse](t, w)
	require.Equal(t, []string{"raz", "biton"}, second.Ranking)
}

func TestRosterPlan_Empty(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/roster/plan", s.apiKey, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateAndCatalog(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/validate", s.apiKey, models.PlanRequest{
		Roster:       roster(),
		PresentToday: []string{"raz", "bitton"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	report := decode[service.ValidationReport](t, w)
	require.True(t, report.Valid)
	require.NotEmpty(t, report.Warnings)
	require.Contains(t, strings.Join(report.Warnings, "\n"), "biton")

	w = s.do(t, http.MethodGet, "/api/catalog", s.apiKey, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"track":"night"`)
}

func TestAdminFlow(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/admin/login", "", gin.H{"username": "admin", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/admin/login", "", gin.H{"username": "admin", "password": "admin123"})
	require.Equal(t, http.StatusOK, w.Code)
	token := decode[map[string]string](t, w)["access_token"]
	require.NotEmpty(t, token)

	w = s.do(t, http.MethodGet, "/admin/keys", s.apiKey, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/admin/keys", token, gin.H{"name": "night-desk"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	created := decode[map[string]any](t, w)
	key := created["key"].(string)
	owner, err := s.auth.VerifyKey(key)
	require.NoError(t, err)
	require.Equal(t, "night-desk", owner)
	id := int(created["id"].(float64))

	w = s.do(t, http.MethodPut, "/admin/keys/"+strconv.Itoa(id), token, gin.H{"rate_limit": 50})
	require.Equal(t, http.StatusOK, w.Code)

	keys := decode[map[string][]database.APIKey](t, s.do(t, http.MethodGet, "/admin/keys", token, nil))
	require.Len(t, keys["keys"], 1)
	require.Equal(t, 50, keys["keys"][0].RateLimit)
	require.NotContains(t, keys["keys"][0].KeyPreview, key)

	w = s.do(t, http.MethodPost, "/api/plan", key, models.PlanRequest{Roster: roster()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/admin/usage/"+strconv.Itoa(id), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodDelete, "/admin/keys/"+strconv.Itoa(id), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	keys = decode[map[string][]database.APIKey](t, s.do(t, http.MethodGet, "/admin/keys", token, nil))
	require.Empty(t, keys["keys"])

	// a revoked key keeps a valid signature but must not authenticate again
	for i := 0; i < 2; i++ {
		w = s.do(t, http.MethodPost, "/api/plan", key, models.PlanRequest{Roster: roster()})
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}
	keys = decode[map[string][]database.APIKey](t, s.do(t, http.MethodGet, "/admin/keys", token, nil))
	require.Empty(t, keys["keys"])

	w = s.do(t, http.MethodDelete, "/admin/keys/"+strconv.Itoa(id), token, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminInterfaceAndMetrics(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/admin", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Duty Rotation Admin")

	s.do(t, http.MethodPost, "/api/plan", s.apiKey, models.PlanRequest{Roster: roster()})
	w = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `rotation_plans_total{outcome="ok",policy="fifo-fairness"} 1`)
}

func serverConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Server:   config.ServerConfig{GinMode: gin.TestMode},
		Database: config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "server.db")},
		Auth:     config.AuthConfig{BcryptCost: bcrypt.MinCost},
	}
	cfg.SetDefaults()
	return cfg
}

func TestNewServer_RequiresSecrets(t *testing.T) {
	cfg := serverConfig(t)
	cfg.Auth.APIMasterSecret = "master-secret"

	_, err := NewServer(cfg, logger.Nop())
	require.ErrorContains(t, err, "jwt_secret")
	_, statErr := os.Stat(cfg.Database.Path)
	require.True(t, os.IsNotExist(statErr), "database must not be opened")

	cfg.Auth.JWTSecret = "jwt-secret"
	cfg.Auth.APIMasterSecret = ""
	_, err = NewServer(cfg, logger.Nop())
	require.ErrorContains(t, err, "api_master_secret")
}

func TestNewServer_AccessLog(t *testing.T) {
	cfg := serverConfig(t)
	cfg.Auth.JWTSecret = "jwt-secret"
	cfg.Auth.APIMasterSecret = "master-secret"

	var buf bytes.Buffer
	r, err := NewServer(cfg, logger.New("server", logger.Options{Out: &buf}))
	require.NoError(t, err)

	buf.Reset()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)

	line := strings.TrimSpace(buf.String())
	require.Equal(t, 1, strings.Count(line, `"component"`), line)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	require.Equal(t, "http", entry["component"])
	require.Equal(t, "request", entry["message"])
	require.Equal(t, "/", entry["path"])
	require.Equal(t, float64(http.StatusOK), entry["status"])
}
