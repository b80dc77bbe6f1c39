package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/guimove/queuefit/internal/model"
)

var (
	ErrPrometheusUnreachable = errors.New("prometheus endpoint unreachable")
	ErrNoRates               = errors.New("no arrival or service rate found for the configured queries")
)

// RateSource abstracts where observed arrival and service rates come from.
type RateSource interface {
	// Rates returns the observed lambda, per-server mu and, when known, the
	// server count.
	Rates(ctx context.Context, opts RateOptions) (*model.ObservedRates, error)

	// Ping validates connectivity to the backend.
	Ping(ctx context.Context) error

	// BackendType returns the detected backend type.
	BackendType() string
}

// RateOptions configures a rate lookup.
type RateOptions struct {
	// At is the evaluation instant; zero means now.
	At time.Time
}

func (o RateOptions) at() time.Time {
	if o.At.IsZero() {
		return time.Now()
	}
	return o.At
}
