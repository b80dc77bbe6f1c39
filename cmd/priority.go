package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guimove/queuefit/internal/model"
)

var priorityCmd = &cobra.Command{
	Use:   "priority",
	Short: "Evaluate an M/G/1 queue with priority classes",
	Long: `Evaluates a single server shared by several priority classes. Classes are
given highest priority first as lambda,mu[,variance]; without a variance the
class has exponential service.

Examples:
  queuefit priority --class 1,5 --class 2,4
  queuefit priority --preemptive --class 0.5,4,0.01 --class 1,2,0.25`,
	RunE: runPriority,
}

func init() {
	f := priorityCmd.Flags()
	f.StringArray("class", nil, "priority class as lambda,mu[,variance]; repeat, highest priority first")
	f.Bool("preemptive", false, "preemptive-resume discipline (default non-preemptive)")

	_ = priorityCmd.MarkFlagRequired("class")
	rootCmd.AddCommand(priorityCmd)
}

func runPriority(cmd *cobra.Command, args []string) error {
	specs, _ := cmd.Flags().GetStringArray("class")
	if len(specs) == 0 {
		return fmt.Errorf("at least one --class is required")
	}

	in := model.Input{Model: model.KindPriority}
	in.Preemptive, _ = cmd.Flags().GetBool("preemptive")
	for _, s := range specs {
		c, err := parseClass(s)
		if err != nil {
			return err
		}
		in.Classes = append(in.Classes, c)
	}

	_, err := newOrchestrator().Evaluate(cmd.Context(), in, "cli")
	return err
}
