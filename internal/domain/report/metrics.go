// Package report provides parsing of load tool report text into structured
// performance metrics.
package report

import "time"

// ParsedMetrics is the structured result extracted from one report text.
// It is derived entirely from the accumulated output buffer and immutable
// once constructed. Absent metrics hold their zero value.
type ParsedMetrics struct {
	RequestsPerSecond float64 `json:"requests_per_second"`
	TotalRequests     int64   `json:"total_requests"`
	FailedRequests    int64   `json:"failed_requests"`
	SuccessRate       float64 `json:"success_rate_percent"` // 0-100

	// Raw report text the metrics were derived from.
	RawOutput string `json:"raw_output,omitempty"`

	// Stamped by the owner once the run completed; Parse itself leaves it
	// zero so parsing stays idempotent.
	CompletedAt time.Time `json:"completed_at,omitzero"`

	// Optional detailed statistics, present when the report carried them.
	Details *DetailedStats `json:"details,omitempty"`
}

// DetailedStats holds optional latency and throughput detail. Any subset may
// be present; a zero field means the report did not carry that value.
// Latencies are in seconds, TransferRate in bytes per second.
type DetailedStats struct {
	LatencyP50 float64 `json:"latency_p50,omitempty"`
	LatencyP90 float64 `json:"latency_p90,omitempty"`
	LatencyP95 float64 `json:"latency_p95,omitempty"`
	LatencyP99 float64 `json:"latency_p99,omitempty"`

	LatencyAvg float64 `json:"latency_avg,omitempty"`
	LatencyMin float64 `json:"latency_min,omitempty"`
	LatencyMax float64 `json:"latency_max,omitempty"`

	TransferRate float64 `json:"transfer_rate,omitempty"`
}

// IsEmpty reports whether no detail field was extracted at all.
func (d *DetailedStats) IsEmpty() bool {
	return *d == DetailedStats{}
}
