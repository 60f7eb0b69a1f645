package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arnavshah/rotation-api-go/pkg/auth"
	"github.com/arnavshah/rotation-api-go/pkg/config"
)

func newKeygenCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "keygen <user>",
		Short: "Print a signed API key for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.Auth.APIMasterSecret == "" {
				return errors.New("auth.api_master_secret is not configured (set ROTA_AUTH__API_MASTER_SECRET)")
			}
			key := auth.NewService(cfg.Auth).GenerateKey(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Generated Key for %s:\n%s\n", args[0], key)
			return nil
		},
	}
}
