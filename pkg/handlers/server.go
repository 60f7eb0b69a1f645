package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/arnavshah/rotation-api-go/pkg/auth"
	"github.com/arnavshah/rotation-api-go/pkg/config"
	"github.com/arnavshah/rotation-api-go/pkg/database"
	"github.com/arnavshah/rotation-api-go/pkg/logger"
	"github.com/arnavshah/rotation-api-go/pkg/metrics"
	"github.com/arnavshah/rotation-api-go/pkg/service"
)

// NewServer opens the database, makes sure an admin exists and returns the
// router for the given configuration.
func NewServer(cfg *config.Config, log *logger.ZerologLogger) (*gin.Engine, error) {
	if err := cfg.Auth.RequireSecrets(); err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}

	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}

	authSvc := auth.NewService(cfg.Auth)
	created, err := authSvc.EnsureAdminExists(db, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword)
	if err != nil {
		return nil, fmt.Errorf("ensure admin: %w", err)
	}
	if created {
		log.Infof("created admin user %q", cfg.Auth.AdminUsername)
	}

	recorder, err := metrics.NewPromRecorder(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	planner, err := service.NewPlanner(cfg.Scheduling, recorder, log.With("planner"))
	if err != nil {
		return nil, fmt.Errorf("scheduling config: %w", err)
	}

	httpLog := log.With("http")
	return NewRouter(&Handler{
		DB:        db,
		Auth:      authSvc,
		Planner:   planner,
		Log:       httpLog,
		AccessLog: httpLog.Zerolog(),
		Gatherer:  prometheus.DefaultGatherer,
	}), nil
}
