package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/guimove/queuefit/internal/model"
)

// addRateFlags registers the model parameters shared by evaluate and observe.
func addRateFlags(f *pflag.FlagSet) {
	f.StringP("model", "m", "", "model: mm1, mms, mminf, mm1k, mmsk, mm1n, mmsn, mg1 (or Kendall notation)")
	f.IntP("servers", "s", 0, "number of servers")
	f.IntP("capacity", "k", 0, "system capacity K (finite-capacity models)")
	f.IntP("population", "n", 0, "population size N (finite-source models)")
	f.Float64("variance", 0, "service-time variance (M/G/1)")
	f.Float64("stddev", 0, "service-time standard deviation (M/G/1)")
	f.Int("state", 0, "report P(n = state)")
	f.Int("tail-above", 0, "report P(n > tail-above)")
	f.Float64("wait-time", 0, "report P(W > t) and P(Wq > t)")
}

// inputFromFlags builds a model input from the flags set on cmd. Optional
// values are populated only when the flag was given.
func inputFromFlags(cmd *cobra.Command) (model.Input, error) {
	f := cmd.Flags()

	name, _ := f.GetString("model")
	if name == "" {
		return model.Input{}, fmt.Errorf("--model is required")
	}
	kind, err := model.ParseKind(name)
	if err != nil {
		return model.Input{}, err
	}

	in := model.Input{Model: kind}
	in.Servers, _ = f.GetInt("servers")
	in.Capacity, _ = f.GetInt("capacity")
	in.Population, _ = f.GetInt("population")
	if f.Lookup("lambda") != nil {
		in.Lambda, _ = f.GetFloat64("lambda")
		in.Mu, _ = f.GetFloat64("mu")
		in.Rho, _ = f.GetFloat64("rho")
	}

	if f.Changed("variance") {
		v, _ := f.GetFloat64("variance")
		in.Variance = model.Float(v)
	}
	if f.Changed("stddev") {
		v, _ := f.GetFloat64("stddev")
		in.StdDev = model.Float(v)
	}
	if f.Changed("state") {
		v, _ := f.GetInt("state")
		in.State = model.Int(v)
	}
	if f.Changed("tail-above") {
		v, _ := f.GetInt("tail-above")
		in.TailAbove = model.Int(v)
	}
	if f.Changed("wait-time") {
		v, _ := f.GetFloat64("wait-time")
		in.WaitTime = model.Float(v)
	}
	return in, nil
}

// parseClass reads a priority class written as "lambda,mu[,variance]".
// A missing variance means exponential service, 1/mu^2.
func parseClass(s string) (model.ClassInput, error) {
	parts := strings.Split(s, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return model.ClassInput{}, fmt.Errorf("class %q: expected lambda,mu[,variance]", s)
	}

	vals := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return model.ClassInput{}, fmt.Errorf("class %q: %w", s, err)
		}
		vals[i] = v
	}

	c := model.ClassInput{Lambda: vals[0], Mu: vals[1]}
	if len(vals) == 3 {
		c.Variance = vals[2]
	} else if c.Mu > 0 {
		c.Variance = 1 / (c.Mu * c.Mu)
	}
	return c, nil
}
