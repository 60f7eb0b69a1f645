package handler

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/rotation-api-go/pkg/config"
	"github.com/arnavshah/rotation-api-go/pkg/handlers"
	"github.com/arnavshah/rotation-api-go/pkg/logger"
)

var r *gin.Engine

func init() {
	// Load .env if it exists (for local testing with vercel dev)
	config.LoadDotEnv()

	cfg, err := config.Load(os.Getenv("ROTA_CONFIG"))
	if err != nil {
		panic(err)
	}
	log := logger.New("serverless", logger.Options{Env: cfg.AppEnv, Level: cfg.Logging.Level})

	r, err = handlers.NewServer(cfg, log)
	if err != nil {
		panic(err)
	}
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, req *http.Request) {
	r.ServeHTTP(w, req)
}
