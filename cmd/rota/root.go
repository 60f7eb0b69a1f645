package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:           "rota",
		Short:         "Duty rotation planner",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")

	root.AddCommand(newPlanCmd(&cfgPath), newKeygenCmd(&cfgPath), newServeCmd(&cfgPath))
	return root
}
