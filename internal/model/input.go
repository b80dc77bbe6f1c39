package model

import (
	"fmt"
	"strings"
)

// Kind identifies a queueing model variant.
type Kind string

const (
	KindMM1      Kind = "mm1"
	KindMMS      Kind = "mms"
	KindMMInf    Kind = "mminf"
	KindMM1K     Kind = "mm1k"
	KindMMSK     Kind = "mmsk"
	KindMM1N     Kind = "mm1n"
	KindMMSN     Kind = "mmsn"
	KindMG1      Kind = "mg1"
	KindPriority Kind = "priority"
)

// KindInfo describes a model variant for listings and validation.
type KindInfo struct {
	Kind        Kind
	Notation    string
	Description string
	Params      []string
}

var kinds = []KindInfo{
	{KindMM1, "M/M/1", "single server, infinite capacity", []string{"lambda", "mu"}},
	{KindMMS, "M/M/s", "s servers, infinite capacity (Erlang C)", []string{"lambda", "mu", "servers"}},
	{KindMMInf, "M/M/inf", "unlimited servers, no queue; rho is the offered load", []string{"lambda", "mu"}},
	{KindMM1K, "M/M/1/K", "single server, system capacity K", []string{"lambda", "mu", "capacity"}},
	{KindMMSK, "M/M/s/K", "s servers, system capacity K", []string{"lambda", "mu", "servers", "capacity"}},
	{KindMM1N, "M/M/1/N", "single server, finite population N", []string{"lambda", "mu", "population"}},
	{KindMMSN, "M/M/s/N", "s servers, finite population N", []string{"lambda", "mu", "servers", "population"}},
	{KindMG1, "M/G/1", "single server, general service (Pollaczek-Khinchine)", []string{"lambda", "mu", "variance|stddev"}},
	{KindPriority, "M/G/1 priority", "multi-class priority, preemptive-resume or non-preemptive", []string{"classes", "preemptive"}},
}

// Kinds returns every supported model variant in presentation order.
func Kinds() []KindInfo {
	out := make([]KindInfo, len(kinds))
	copy(out, kinds)
	return out
}

// ParseKind accepts a kind name or its Kendall notation, case-insensitively.
func ParseKind(s string) (Kind, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	for _, k := range kinds {
		if norm == string(k.Kind) || norm == strings.ToLower(k.Notation) {
			return k.Kind, nil
		}
	}
	switch norm {
	case "mmc", "m/m/c":
		return KindMMS, nil
	case "m/m/∞", "mm-inf", "mminfinity":
		return KindMMInf, nil
	case "prio", "m/g/1/priority":
		return KindPriority, nil
	}
	return "", fmt.Errorf("unknown model %q", s)
}

// Notation returns the Kendall notation for the kind.
func (k Kind) Notation() string {
	for _, info := range kinds {
		if info.Kind == k {
			return info.Notation
		}
	}
	return string(k)
}

// Servers returns the fixed server count implied by single-server kinds, or 0
// when the count comes from the input.
func (k Kind) Servers() int {
	switch k {
	case KindMM1, KindMM1K, KindMM1N, KindMG1, KindPriority, KindMMInf:
		return 1
	}
	return 0
}

// Input is the parameter set for one model evaluation. Zero rates and nil
// pointers mean "not supplied".
type Input struct {
	Model Kind `json:"model" yaml:"model" mapstructure:"model"`

	Lambda float64 `json:"lambda,omitempty" yaml:"lambda,omitempty" mapstructure:"lambda"`
	Mu     float64 `json:"mu,omitempty" yaml:"mu,omitempty" mapstructure:"mu"`
	Rho    float64 `json:"rho,omitempty" yaml:"rho,omitempty" mapstructure:"rho"`

	Servers    int `json:"servers,omitempty" yaml:"servers,omitempty" mapstructure:"servers"`
	Capacity   int `json:"capacity,omitempty" yaml:"capacity,omitempty" mapstructure:"capacity"`
	Population int `json:"population,omitempty" yaml:"population,omitempty" mapstructure:"population"`

	// Service-time spread for M/G/1; set at most one.
	Variance *float64 `json:"variance,omitempty" yaml:"variance,omitempty" mapstructure:"variance"`
	StdDev   *float64 `json:"stddev,omitempty" yaml:"stddev,omitempty" mapstructure:"stddev"`

	// Optional queries
	State     *int     `json:"state,omitempty" yaml:"state,omitempty" mapstructure:"state"`
	TailAbove *int     `json:"tail_above,omitempty" yaml:"tail_above,omitempty" mapstructure:"tail_above"`
	WaitTime  *float64 `json:"wait_time,omitempty" yaml:"wait_time,omitempty" mapstructure:"wait_time"`

	// Priority model
	Classes    []ClassInput `json:"classes,omitempty" yaml:"classes,omitempty" mapstructure:"classes"`
	Preemptive bool         `json:"preemptive,omitempty" yaml:"preemptive,omitempty" mapstructure:"preemptive"`
}

// ClassInput is one priority class, listed highest priority first.
type ClassInput struct {
	Lambda   float64 `json:"lambda" yaml:"lambda" mapstructure:"lambda"`
	Mu       float64 `json:"mu" yaml:"mu" mapstructure:"mu"`
	Variance float64 `json:"variance" yaml:"variance" mapstructure:"variance"`
}

// Float returns a pointer to v, for populating optional fields.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v, for populating optional fields.
func Int(v int) *int { return &v }
