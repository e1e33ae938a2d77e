package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestParseDetailedStats_UnitNormalization tests latency unit conversion to
// seconds.
func TestParseDetailedStats_UnitNormalization(t *testing.T) {
	tests := []struct {
		name string
		text string
		get  func(d *DetailedStats) float64
		want float64
	}{
		{"seconds", "50% in 0.5 secs\n", func(d *DetailedStats) float64 { return d.LatencyP50 }, 0.5},
		{"bare number", "p95: 0.25\n", func(d *DetailedStats) float64 { return d.LatencyP95 }, 0.25},
		{"milliseconds", "p99: 12 ms\n", func(d *DetailedStats) float64 { return d.LatencyP99 }, 0.012},
		{"microseconds", "p50: 500 us\n", func(d *DetailedStats) float64 { return d.LatencyP50 }, 0.0005},
		{"avg milliseconds", "avg: 3.5 ms\n", func(d *DetailedStats) float64 { return d.LatencyAvg }, 0.0035},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ParseDetailedStats(tt.text)
			assert.InDelta(t, tt.want, tt.get(d), 1e-9)
		})
	}
}

// TestParseDetailedStats_PercentileForms tests the alternative percentile
// spellings.
func TestParseDetailedStats_PercentileForms(t *testing.T) {
	d := ParseDetailedStats("90th percentile: 0.8\np95: 1.5\n99% in 2.0 secs\n")
	assert.InDelta(t, 0.8, d.LatencyP90, 1e-9)
	assert.InDelta(t, 1.5, d.LatencyP95, 1e-9)
	assert.InDelta(t, 2.0, d.LatencyP99, 1e-9)
	assert.Zero(t, d.LatencyP50)
}

// TestParseDetailedStats_TransferRateUnits tests byte-rate unit conversion.
func TestParseDetailedStats_TransferRateUnits(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"bytes", "Size/sec: 512 B\n", 512},
		{"kilobytes", "Size/sec: 2 KB\n", 2000},
		{"kibibytes", "Size/sec: 2 KiB\n", 2048},
		{"mebibytes", "Transfer/sec: 1.5 MiB\n", 1.5 * 1024 * 1024},
		{"gigabytes", "Data/sec: 1 GB\n", 1e9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ParseDetailedStats(tt.text)
			assert.InDelta(t, tt.want, d.TransferRate, 0.5)
		})
	}
}

// TestParseDetailedStats_SuccessRateNotMistakenForPercentile tests that a
// percentage outside the distribution section is not read as a latency.
func TestParseDetailedStats_SuccessRateNotMistakenForPercentile(t *testing.T) {
	d := ParseDetailedStats("Success rate: 99.00%\n")
	assert.Zero(t, d.LatencyP99)
	assert.True(t, d.IsEmpty())
}

// TestDetailedStats_IsEmpty tests empty detection.
func TestDetailedStats_IsEmpty(t *testing.T) {
	assert.True(t, (&DetailedStats{}).IsEmpty())
	assert.False(t, (&DetailedStats{LatencyP50: 0.1}).IsEmpty())
}
