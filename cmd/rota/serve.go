package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/arnavshah/rotation-api-go/pkg/config"
	"github.com/arnavshah/rotation-api-go/pkg/handlers"
	"github.com/arnavshah/rotation-api-go/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			log := logger.New("server", logger.Options{Env: cfg.AppEnv, Level: cfg.Logging.Level})

			router, err := handlers.NewServer(cfg, log)
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: router}

			errCh := make(chan error, 1)
			go func() {
				log.Infof("Server starting on port %s", cfg.Server.Port)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			log.Infof("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
