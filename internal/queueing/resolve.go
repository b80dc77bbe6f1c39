package queueing

import (
	"math"

	"github.com/guimove/queuefit/internal/model"
)

// Resolve validates an input and fills in derivable parameters before any
// arithmetic runs. Rates follow the precedence (lambda, mu) > (lambda, rho) >
// (mu, rho), where rho = lambda / (s*mu). Nothing else is defaulted.
func Resolve(in model.Input) (model.Input, error) {
	kind, err := model.ParseKind(string(in.Model))
	if err != nil {
		return in, &Error{Kind: ErrInvalidParameter, Message: err.Error()}
	}
	in.Model = kind

	if kind == model.KindPriority {
		if len(in.Classes) == 0 {
			return in, invalid(kind, "at least one priority class is required")
		}
		return in, resolveQueries(in)
	}

	servers := kind.Servers()
	switch kind {
	case model.KindMMS, model.KindMMSK, model.KindMMSN:
		if in.Servers < 1 {
			return in, invalid(kind, "servers must be >= 1, got %d", in.Servers)
		}
		servers = in.Servers
	case model.KindMMInf:
		in.Servers = 0
	default:
		in.Servers = servers
	}

	if err := resolveRates(&in, servers); err != nil {
		return in, err
	}

	switch kind {
	case model.KindMM1K, model.KindMMSK:
		if in.Capacity < servers {
			return in, invalid(kind, "capacity K must be >= servers (K %d, s %d)", in.Capacity, servers)
		}
	case model.KindMM1N, model.KindMMSN:
		if in.Population < servers {
			return in, invalid(kind, "population N must be >= servers (N %d, s %d)", in.Population, servers)
		}
	case model.KindMG1:
		v, err := resolveVariance(in)
		if err != nil {
			return in, err
		}
		in.Variance, in.StdDev = model.Float(v), nil
	}

	return in, resolveQueries(in)
}

func resolveRates(in *model.Input, servers int) error {
	k := in.Model
	if !finite(in.Lambda, in.Mu, in.Rho) {
		return invalid(k, "lambda, mu and rho must be finite numbers")
	}
	if in.Lambda < 0 || in.Mu < 0 || in.Rho < 0 {
		return invalid(k, "lambda, mu and rho must be positive (lambda %g, mu %g, rho %g)", in.Lambda, in.Mu, in.Rho)
	}

	s := float64(max(servers, 1))
	switch {
	case in.Lambda > 0 && in.Mu > 0:
	case in.Lambda > 0 && in.Rho > 0:
		in.Mu = in.Lambda / (s * in.Rho)
	case in.Mu > 0 && in.Rho > 0:
		in.Lambda = in.Rho * s * in.Mu
	default:
		return invalid(k, "need two of lambda, mu, rho")
	}
	in.Rho = in.Lambda / (s * in.Mu)
	return nil
}

func resolveVariance(in model.Input) (float64, error) {
	k := in.Model
	switch {
	case in.Variance != nil && in.StdDev != nil:
		return 0, invalid(k, "set either variance or stddev, not both")
	case in.Variance != nil:
		if !finite(*in.Variance) || *in.Variance < 0 {
			return 0, invalid(k, "variance must be >= 0, got %g", *in.Variance)
		}
		return *in.Variance, nil
	case in.StdDev != nil:
		if !finite(*in.StdDev) || *in.StdDev < 0 {
			return 0, invalid(k, "stddev must be >= 0, got %g", *in.StdDev)
		}
		return math.Pow(*in.StdDev, 2), nil
	}
	return 0, invalid(k, "service-time variance or stddev is required")
}

func resolveQueries(in model.Input) error {
	k := in.Model
	if in.State != nil && *in.State < 0 {
		return invalid(k, "state n must be >= 0, got %d", *in.State)
	}
	if in.WaitTime != nil && (!finite(*in.WaitTime) || *in.WaitTime < 0) {
		return invalid(k, "wait time t must be >= 0, got %g", *in.WaitTime)
	}
	return nil
}
