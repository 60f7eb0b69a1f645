package main

import (
	"os"

	"github.com/arnavshah/rotation-api-go/pkg/config"
	"github.com/arnavshah/rotation-api-go/pkg/handlers"
	"github.com/arnavshah/rotation-api-go/pkg/logger"
)

func main() {
	// Load .env if it exists
	config.LoadDotEnv()

	cfg, err := config.Load(os.Getenv("ROTA_CONFIG"))
	if err != nil {
		logger.New("server", logger.Options{}).Errorf("could not load config: %v", err)
		os.Exit(1)
	}
	log := logger.New("server", logger.Options{Env: cfg.AppEnv, Level: cfg.Logging.Level})

	r, err := handlers.NewServer(cfg, log)
	if err != nil {
		log.Errorf("could not start: %v", err)
		os.Exit(1)
	}

	log.Infof("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Errorf("could not run server: %v", err)
		os.Exit(1)
	}
}
