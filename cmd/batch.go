package cmd

import (
	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Evaluate every scenario in a JSON or YAML file",
	Long: `Reads a list of named scenarios and evaluates them concurrently. A scenario
that fails is reported with its error kind; the rest still run.

The file is either a bare list or an object with a "scenarios" key:

  scenarios:
    - name: checkout
      input: {model: mms, lambda: 40, mu: 12, servers: 4}
    - name: search
      input: {model: mg1, lambda: 3, mu: 5, stddev: 0.1}`,
	RunE: runBatch,
}

func init() {
	f := batchCmd.Flags()
	f.StringP("input", "i", "", "path to the scenario file (required)")
	f.Int("parallelism", 0, "concurrent evaluations (default from config)")

	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("input")
	if p, _ := cmd.Flags().GetInt("parallelism"); cmd.Flags().Changed("parallelism") && p > 0 {
		cfg.Batch.Parallelism = p
	}

	_, err := newOrchestrator().Batch(cmd.Context(), path)
	return err
}
