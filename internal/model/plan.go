package model

// CostRates prices one unit of each cost driver per unit time.
type CostRates struct {
	Server  float64 `json:"server" yaml:"server"`   // per server
	Waiting float64 `json:"waiting" yaml:"waiting"` // per customer in system
	Loss    float64 `json:"loss" yaml:"loss"`       // per blocked arrival
}

// Candidate is one server count evaluated by the planner.
type Candidate struct {
	Rank    int  `json:"rank,omitempty"`
	Servers int  `json:"servers"`
	Stable  bool `json:"stable"`

	// Reason explains why an unstable or rejected candidate was excluded.
	Reason string `json:"reason,omitempty"`

	ServerCost  float64 `json:"server_cost"`
	WaitingCost float64 `json:"waiting_cost"`
	LossCost    float64 `json:"loss_cost"`
	TotalCost   float64 `json:"total_cost"`

	// CostScore is 100 for the cheapest feasible candidate, 0 for the dearest.
	CostScore float64 `json:"cost_score"`
	// CostVsMinimal is the percentage cost difference against the smallest
	// feasible server count.
	CostVsMinimal float64 `json:"cost_vs_minimal"`

	Result *Result `json:"result,omitempty"`
}

// Feasible reports whether the candidate can be recommended.
func (c Candidate) Feasible() bool {
	return c.Stable && c.Reason == ""
}

// Plan is the outcome of a server-count sweep.
type Plan struct {
	Model    Kind      `json:"model"`
	Lambda   float64   `json:"lambda"`
	Mu       float64   `json:"mu"`
	Costs    CostRates `json:"costs"`
	TargetWq float64   `json:"target_wq,omitempty"`

	// Ranked holds the best feasible candidates, cheapest first.
	Ranked []Candidate `json:"ranked"`
	// Rejected holds unstable candidates and those missing the Wq target.
	Rejected []Candidate `json:"rejected,omitempty"`
}

// Best returns the top-ranked candidate, or nil when nothing is feasible.
func (p *Plan) Best() *Candidate {
	if len(p.Ranked) == 0 {
		return nil
	}
	return &p.Ranked[0]
}
