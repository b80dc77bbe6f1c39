package model

import "fmt"

// Params echoes the resolved parameters an evaluation ran with.
type Params struct {
	Lambda     float64      `json:"lambda,omitempty"`
	Mu         float64      `json:"mu,omitempty"`
	Servers    int          `json:"servers,omitempty"`
	Capacity   int          `json:"capacity,omitempty"`
	Population int          `json:"population,omitempty"`
	Variance   *float64     `json:"variance,omitempty"`
	Classes    []ClassInput `json:"classes,omitempty"`
	Preemptive bool         `json:"preemptive,omitempty"`
}

// StateProb is the probability of exactly N customers in the system.
type StateProb struct {
	N int     `json:"n"`
	P float64 `json:"p"`
}

// TailProb is the probability of more than R customers in the system.
type TailProb struct {
	R int     `json:"r"`
	P float64 `json:"p"`
}

// WaitTail holds waiting-time tail probabilities at time T.
type WaitTail struct {
	T      float64 `json:"t"`
	System float64 `json:"p_w_gt_t"`  // P(W > t)
	Queue  float64 `json:"p_wq_gt_t"` // P(Wq > t)
	Approx bool    `json:"approximate"`
}

// Result is the outcome of one model evaluation.
type Result struct {
	Model  Kind   `json:"model"`
	Params Params `json:"params"`

	Rho         float64 `json:"rho"`
	OfferedLoad float64 `json:"offered_load"` // a = lambda/mu
	P0          float64 `json:"p0"`

	L  float64 `json:"l"`
	Lq float64 `json:"lq"`
	W  float64 `json:"w"`
	Wq float64 `json:"wq"`

	// Finite capacity / finite population
	LambdaEff float64 `json:"lambda_eff,omitempty"`
	Blocking  float64 `json:"blocking,omitempty"`

	// Erlang C: probability an arrival has to wait
	ProbWait float64 `json:"prob_wait,omitempty"`

	// M/G/1
	ServiceMean         float64 `json:"service_mean,omitempty"`
	ServiceSecondMoment float64 `json:"service_second_moment,omitempty"`

	// Full distribution P0..PM, only for finite state ranges.
	States []float64 `json:"states,omitempty"`

	State    *StateProb `json:"state,omitempty"`
	Tail     *TailProb  `json:"tail,omitempty"`
	WaitTail *WaitTail  `json:"wait_tail,omitempty"`

	Classes []ClassResult   `json:"classes,omitempty"`
	Totals  *PriorityTotals `json:"totals,omitempty"`

	// Advisory conditions; never errors.
	Notes []string `json:"notes,omitempty"`
	Exact bool     `json:"exact"`
}

// AddNote appends an advisory note.
func (r *Result) AddNote(note string) {
	r.Notes = append(r.Notes, note)
}

// ClassResult holds the metrics of one priority class.
type ClassResult struct {
	Class               int     `json:"class"` // 1 = highest priority
	Lambda              float64 `json:"lambda"`
	Mu                  float64 `json:"mu"`
	Variance            float64 `json:"variance"`
	Rho                 float64 `json:"rho"`
	ServiceMean         float64 `json:"service_mean"`
	ServiceSecondMoment float64 `json:"service_second_moment"`
	L                   float64 `json:"l"`
	Lq                  float64 `json:"lq"`
	W                   float64 `json:"w"`
	Wq                  float64 `json:"wq"`
}

// PriorityTotals aggregates class results: L and Lq are sums, W and Wq are
// arrival-rate weighted averages.
type PriorityTotals struct {
	Rho    float64 `json:"rho_total"`
	Lambda float64 `json:"lambda_total"`
	L      float64 `json:"l"`
	Lq     float64 `json:"lq"`
	W      float64 `json:"w"`
	Wq     float64 `json:"wq"`
}

// Label returns a short human-readable description of the configuration.
func (r *Result) Label() string {
	p := r.Params
	switch r.Model {
	case KindMMS:
		return fmt.Sprintf("%s s=%d", r.Model.Notation(), p.Servers)
	case KindMM1K:
		return fmt.Sprintf("%s K=%d", r.Model.Notation(), p.Capacity)
	case KindMMSK:
		return fmt.Sprintf("%s s=%d K=%d", r.Model.Notation(), p.Servers, p.Capacity)
	case KindMM1N:
		return fmt.Sprintf("%s N=%d", r.Model.Notation(), p.Population)
	case KindMMSN:
		return fmt.Sprintf("%s s=%d N=%d", r.Model.Notation(), p.Servers, p.Population)
	case KindPriority:
		discipline := "non-preemptive"
		if p.Preemptive {
			discipline = "preemptive"
		}
		return fmt.Sprintf("%s %d classes (%s)", r.Model.Notation(), len(p.Classes), discipline)
	}
	return r.Model.Notation()
}
