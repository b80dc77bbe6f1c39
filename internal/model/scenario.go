package model

import "time"

// Scenario is one named evaluation in a batch file.
type Scenario struct {
	Name  string `json:"name" yaml:"name"`
	Input Input  `json:"input" yaml:"input"`
}

// Outcome is the result of one batch scenario: either Result or the error
// kind and message, never both.
type Outcome struct {
	Name      string  `json:"name"`
	Result    *Result `json:"result,omitempty"`
	ErrorKind string  `json:"error_kind,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// Failed reports whether the scenario errored.
func (o Outcome) Failed() bool {
	return o.Error != ""
}

// ObservedRates are arrival and service rates measured from live telemetry.
type ObservedRates struct {
	Lambda  float64 `json:"lambda" yaml:"lambda"`
	Mu      float64 `json:"mu" yaml:"mu"`
	Servers int     `json:"servers,omitempty" yaml:"servers,omitempty"`

	Source      string    `json:"source" yaml:"source"`
	CollectedAt time.Time `json:"collected_at" yaml:"collected_at"`
}
