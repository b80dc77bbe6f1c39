package metrics

import (
	"fmt"
	"time"
)

// Queries holds the PromQL expressions behind an observation. Each must
// evaluate to an instant vector or scalar; vector samples are summed.
type Queries struct {
	Arrival string // arrivals per second across the system
	Service string // completions per second per busy server
	Servers string // optional: number of servers
}

// DefaultQueries returns expressions for the common request-counter and
// duration-histogram conventions, averaged over window.
//
// These queries are designed to work with:
//   - http_requests_total counters for arrivals
//   - http_request_duration_seconds histograms for mean service time
//   - up{} targets as the server count
func DefaultQueries(window time.Duration) Queries {
	w := formatDuration(window)
	if w == "" {
		w = "5m"
	}
	return Queries{
		Arrival: queryArrivalRate("http_requests_total", w),
		Service: queryServiceRate("http_request_duration_seconds", w),
		Servers: `count(up == 1)`,
	}
}

// WithDefaults fills empty arrival and service expressions from
// DefaultQueries. An empty server query stays empty.
func (q Queries) WithDefaults(window time.Duration) Queries {
	d := DefaultQueries(window)
	if q.Arrival == "" {
		q.Arrival = d.Arrival
	}
	if q.Service == "" {
		q.Service = d.Service
	}
	return q
}

// queryArrivalRate returns PromQL for the total per-second arrival rate.
func queryArrivalRate(counter, window string) string {
	return fmt.Sprintf(`sum(rate(%s[%s]))`, counter, window)
}

// queryServiceRate returns PromQL for mu = 1 / mean service time, taken
// from a duration histogram's _sum and _count series.
func queryServiceRate(histogram, window string) string {
	return fmt.Sprintf(`1 / (
  sum(rate(%[1]s_sum[%[2]s]))
  /
  sum(rate(%[1]s_count[%[2]s]))
)`, histogram, window)
}

// formatDuration formats a time.Duration to a Prometheus-compatible duration string.
func formatDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	hours := int(d.Hours())
	if hours >= 24 && hours%24 == 0 {
		return fmt.Sprintf("%dd", hours/24)
	}
	if hours > 0 && d%time.Hour == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	minutes := int(d.Minutes())
	if minutes > 0 && d%time.Minute == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%ds", int(d.Seconds()))
}
