package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guimove/queuefit/internal/model"
	"github.com/guimove/queuefit/internal/planning"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Find the cheapest number of servers",
	Long: `Evaluates a multi-server model for every server count in a range and ranks
the stable ones by total cost per unit time:

  servers * server-cost + L * waiting-cost [+ lambda * P(K) * loss-cost]

Counts that leave the queue unstable or miss --target-wq are listed as rejected.

Examples:
  queuefit plan --lambda 4 --mu 2 --server-cost 10 --waiting-cost 25
  queuefit plan -m mmsk --lambda 9 --mu 2 -k 12 --loss-cost 5 --max-servers 10`,
	RunE: runPlan,
}

func init() {
	f := planCmd.Flags()
	f.StringP("model", "m", "mms", "model to size: mms, mmsk, mmsn")
	f.Float64("lambda", 0, "arrival rate (required)")
	f.Float64("mu", 0, "service rate per server (required)")
	f.IntP("capacity", "k", 0, "system capacity K (mmsk)")
	f.IntP("population", "n", 0, "population size N (mmsn)")
	f.Int("min-servers", 1, "smallest server count to consider")
	f.Int("max-servers", 0, "largest server count to consider (default from config)")
	f.Float64("server-cost", 0, "cost per server per unit time")
	f.Float64("waiting-cost", 0, "cost per waiting customer per unit time")
	f.Float64("loss-cost", 0, "cost per blocked arrival (mmsk)")
	f.Float64("target-wq", 0, "reject counts whose Wq exceeds this")
	f.Int("top", 0, "number of ranked candidates to show")

	_ = planCmd.MarkFlagRequired("lambda")
	_ = planCmd.MarkFlagRequired("mu")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()

	name, _ := f.GetString("model")
	kind, err := model.ParseKind(name)
	if err != nil {
		return err
	}

	req := planning.Request{Model: kind}
	req.Lambda, _ = f.GetFloat64("lambda")
	req.Mu, _ = f.GetFloat64("mu")
	req.Capacity, _ = f.GetInt("capacity")
	req.Population, _ = f.GetInt("population")
	req.MinServers, _ = f.GetInt("min-servers")
	req.MaxServers, _ = f.GetInt("max-servers")
	req.TargetWq, _ = f.GetFloat64("target-wq")

	if v, _ := f.GetFloat64("server-cost"); f.Changed("server-cost") {
		cfg.Planning.ServerCost = v
	}
	if v, _ := f.GetFloat64("waiting-cost"); f.Changed("waiting-cost") {
		cfg.Planning.WaitingCost = v
	}
	if v, _ := f.GetFloat64("loss-cost"); f.Changed("loss-cost") {
		cfg.Planning.LossCost = v
	}
	if n, _ := f.GetInt("top"); f.Changed("top") {
		cfg.Planning.TopN = n
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid planning options: %w", err)
	}

	_, err = newOrchestrator().Plan(cmd.Context(), req)
	return err
}
