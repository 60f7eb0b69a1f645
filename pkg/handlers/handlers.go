package handlers

import (
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/arnavshah/rotation-api-go/pkg/auth"
	"github.com/arnavshah/rotation-api-go/pkg/database"
	"github.com/arnavshah/rotation-api-go/pkg/logger"
	"github.com/arnavshah/rotation-api-go/pkg/scheduler"
	"github.com/arnavshah/rotation-api-go/pkg/service"
)

//go:embed static/*
var staticEmbed embed.FS

// Version is reported by the banner route
const Version = "3.0.0"

// Handler contains dependencies for the route handlers
type Handler struct {
	DB      *gorm.DB
	Auth    *auth.Service
	Planner *service.Planner
	Log     logger.Logger
	// AccessLog receives one entry per request
	AccessLog *zerolog.Logger
	Gatherer  prometheus.Gatherer
}

// NewRouter wires every route on a new gin engine
func NewRouter(h *Handler) *gin.Engine {
	if h.Log == nil {
		h.Log = logger.Nop()
	}
	if h.AccessLog == nil {
		nop := zerolog.Nop()
		h.AccessLog = &nop
	}
	if h.Gatherer == nil {
		h.Gatherer = prometheus.DefaultGatherer
	}

	r := gin.New()
	r.Use(RequestLogger(h.AccessLog), gin.Recovery())

	// Admin interface - serve static files from embedded FS
	r.StaticFS("/static", h.GetStaticFS())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Duty Rotation API",
			"version": Version,
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.Gatherer, promhttp.HandlerOpts{})))

	r.GET("/admin", h.AdminInterface)
	r.POST("/admin/login", h.Login)

	admin := r.Group("/admin")
	admin.Use(h.AuthMiddleware())
	{
		admin.POST("/keys", h.GenerateKey)
		admin.GET("/keys", h.ListKeys)
		admin.PUT("/keys/:id", h.UpdateKeyLimit)
		admin.DELETE("/keys/:id", h.RevokeKey)
		admin.GET("/usage/:id", h.GetUsage)
	}

	api := r.Group("/api")
	api.Use(h.APIKeyMiddleware())
	{
		api.POST("/plan", h.PlanJSON)
		api.POST("/plan/csv", h.PlanCSV)
		api.POST("/validate", h.ValidateInput)
		api.GET("/catalog", h.GetCatalog)
		api.GET("/roster", h.GetRoster)
		api.PUT("/roster", h.PutRoster)
		api.POST("/roster/plan", h.PlanStoredRoster)
		api.GET("/usage", h.GetMyUsage)
	}
	return r
}

// RequestLogger logs every request through zerolog
func RequestLogger(z *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		z.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

func bearer(c *gin.Context) string {
	return strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
}

// AuthMiddleware verifies the JWT token for admin routes
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		claims, err := h.Auth.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set("username", claims.Username)
		c.Next()
	}
}

// APIKeyMiddleware verifies the HMAC-signed API key for planning routes
func (h *Handler) APIKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := bearer(c)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API Key required"})
			return
		}

		owner, err := h.Auth.VerifyKey(key)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API Key signature"})
			return
		}

		// Fetch or create the key record to track usage
		apiKey, err := database.ResolveAPIKey(h.DB, key, owner, preview(key))
		if errors.Is(err, database.ErrKeyRevoked) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API Key revoked"})
			return
		}
		if err != nil {
			h.Log.Errorf("api key lookup: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Could not load API key"})
			return
		}

		c.Set("apiKey", apiKey)
		c.Set("userID", owner)
		c.Next()
	}
}

// planError maps scheduler errors to HTTP answers
func (h *Handler) planError(c *gin.Context, err error) {
	var cfgErr *scheduler.ConfigurationError
	switch {
	case errors.As(err, &cfgErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "track": cfgErr.Track})
	case errors.Is(err, scheduler.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.Log.Errorf("plan: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate plan"})
	}
}

// AdminInterface serves the admin web interface from embedded files
func (h *Handler) AdminInterface(c *gin.Context) {
	data, err := staticEmbed.ReadFile("static/index.html")
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "static/index.html not found in embedded FS"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", data)
}

// GetStaticFS returns the embedded filesystem for static assets
func (h *Handler) GetStaticFS() http.FileSystem {
	sub, err := fs.Sub(staticEmbed, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
