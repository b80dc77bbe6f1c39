package cmd

import (
	"testing"

	"github.com/spf13/cobra"

	"github.com/guimove/queuefit/internal/model"
)

func newInputCommand(withRates bool) *cobra.Command {
	c := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	if withRates {
		c.Flags().Float64("lambda", 0, "")
		c.Flags().Float64("mu", 0, "")
		c.Flags().Float64("rho", 0, "")
	}
	addRateFlags(c.Flags())
	return c
}

func TestInputFromFlags(t *testing.T) {
	c := newInputCommand(true)
	if err := c.ParseFlags([]string{"-m", "M/M/s", "--lambda", "4", "--mu", "2", "-s", "3", "--state", "0", "--wait-time", "0.5"}); err != nil {
		t.Fatal(err)
	}

	in, err := inputFromFlags(c)
	if err != nil {
		t.Fatalf("inputFromFlags: %v", err)
	}
	if in.Model != model.KindMMS || in.Lambda != 4 || in.Mu != 2 || in.Servers != 3 {
		t.Errorf("unexpected input: %+v", in)
	}
	if in.State == nil || *in.State != 0 {
		t.Errorf("State = %v, want 0", in.State)
	}
	if in.WaitTime == nil || *in.WaitTime != 0.5 {
		t.Errorf("WaitTime = %v, want 0.5", in.WaitTime)
	}
	if in.TailAbove != nil || in.Variance != nil || in.StdDev != nil {
		t.Error("unset optional flags should stay nil")
	}
}

func TestInputFromFlags_WithoutRateFlags(t *testing.T) {
	c := newInputCommand(false)
	if err := c.ParseFlags([]string{"-m", "mg1", "--stddev", "0.25"}); err != nil {
		t.Fatal(err)
	}

	in, err := inputFromFlags(c)
	if err != nil {
		t.Fatalf("inputFromFlags: %v", err)
	}
	if in.Lambda != 0 || in.Mu != 0 {
		t.Errorf("rates should be left for the source, got %+v", in)
	}
	if in.StdDev == nil || *in.StdDev != 0.25 {
		t.Errorf("StdDev = %v, want 0.25", in.StdDev)
	}
}

func TestInputFromFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing model", []string{"--lambda", "1"}},
		{"unknown model", []string{"-m", "gg1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newInputCommand(true)
			if err := c.ParseFlags(tt.args); err != nil {
				t.Fatal(err)
			}
			if _, err := inputFromFlags(c); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseClass(t *testing.T) {
	tests := []struct {
		in      string
		want    model.ClassInput
		wantErr bool
	}{
		{"1,5,0.04", model.ClassInput{Lambda: 1, Mu: 5, Variance: 0.04}, false},
		{" 2 , 4 ", model.ClassInput{Lambda: 2, Mu: 4, Variance: 0.0625}, false},
		{"1", model.ClassInput{}, true},
		{"1,2,3,4", model.ClassInput{}, true},
		{"a,2", model.ClassInput{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseClass(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseClass(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("parseClass(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}
