package cmd

import (
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the supported queueing models",
	RunE: func(cmd *cobra.Command, args []string) error {
		return newOrchestrator().Models(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
