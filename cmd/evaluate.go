package cmd

import (
	"github.com/spf13/cobra"
)

var evaluateCmd = &cobra.Command{
	Use:     "evaluate",
	Aliases: []string{"eval"},
	Short:   "Evaluate a single queueing model",
	Long: `Computes the performance measures of one model from its arrival and service
rates. Two of --lambda, --mu and --rho are enough; the third is derived.

Examples:
  queuefit evaluate -m mm1 --lambda 2 --mu 5
  queuefit evaluate -m mms --lambda 4 --mu 2 -s 3 --wait-time 0.5
  queuefit evaluate -m mm1k --rho 0.8 --mu 1 -k 5 --state 0
  queuefit evaluate -m mg1 --lambda 1 --mu 2 --stddev 0.25`,
	RunE: runEvaluate,
}

func init() {
	f := evaluateCmd.Flags()
	f.Float64("lambda", 0, "arrival rate (per unit time)")
	f.Float64("mu", 0, "service rate per server")
	f.Float64("rho", 0, "utilization; derives lambda or mu")
	addRateFlags(f)

	_ = evaluateCmd.MarkFlagRequired("model")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	in, err := inputFromFlags(cmd)
	if err != nil {
		return err
	}

	_, err = newOrchestrator().Evaluate(cmd.Context(), in, "cli")
	return err
}
