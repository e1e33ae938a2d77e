package report

import (
	"regexp"
	"strconv"
	"strings"
)

// Latency extractors capture a number and an optional unit suffix. Values are
// normalized to seconds; a missing unit is interpreted as seconds, matching
// the driven tool's report format.

const latencyPat = `([0-9]+(?:\.[0-9]+)?)\s*(secs?|seconds?|ms|milliseconds?|us|µs)?`

var (
	percentileStrategies = map[string][]*regexp.Regexp{
		"50": percentilePatterns("50"),
		"90": percentilePatterns("90"),
		"95": percentilePatterns("95"),
		"99": percentilePatterns("99"),
	}

	avgStrategies = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\baverage\s*[.:=]?\s*` + latencyPat),
		regexp.MustCompile(`(?i)\bavg\s*[.:=]\s*` + latencyPat),
		regexp.MustCompile(`(?i)\bmean\s*[.:=]\s*` + latencyPat),
	}

	minStrategies = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bfastest\s*[.:=]?\s*` + latencyPat),
		regexp.MustCompile(`(?i)\bmin(?:imum)?\s*[.:=]\s*` + latencyPat),
	}

	maxStrategies = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bslowest\s*[.:=]?\s*` + latencyPat),
		regexp.MustCompile(`(?i)\bmax(?:imum)?\s*[.:=]\s*` + latencyPat),
	}

	transferStrategies = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:size|transfer|data)\s*/\s*sec(?:ond)?\s*[.:=]?\s*([0-9]+(?:\.[0-9]+)?)\s*(B|KB|KiB|MB|MiB|GB|GiB)?`),
	}
)

// percentilePatterns builds the strategy list for one percentile label.
// Recognized forms: "95% in 0.0123 secs", "p95: 12.3 ms",
// "95th percentile: 12.34".
func percentilePatterns(p string) []*regexp.Regexp {
	return []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b` + p + `(?:\.0+)?%\s+in\s+` + latencyPat),
		regexp.MustCompile(`(?i)\bp` + p + `\s*[.:=]?\s*` + latencyPat),
		regexp.MustCompile(`(?i)\b` + p + `th\s+percentile\s*[.:=]?\s*` + latencyPat),
	}
}

// ParseDetailedStats extracts the optional detailed statistics from the
// report text. Absence of any field is not an error; each extraction is
// independent of the others succeeding.
func ParseDetailedStats(text string) *DetailedStats {
	d := &DetailedStats{}

	if v, ok := firstLatency(text, percentileStrategies["50"]); ok {
		d.LatencyP50 = v
	}
	if v, ok := firstLatency(text, percentileStrategies["90"]); ok {
		d.LatencyP90 = v
	}
	if v, ok := firstLatency(text, percentileStrategies["95"]); ok {
		d.LatencyP95 = v
	}
	if v, ok := firstLatency(text, percentileStrategies["99"]); ok {
		d.LatencyP99 = v
	}

	if v, ok := firstLatency(text, avgStrategies); ok {
		d.LatencyAvg = v
	}
	if v, ok := firstLatency(text, minStrategies); ok {
		d.LatencyMin = v
	}
	if v, ok := firstLatency(text, maxStrategies); ok {
		d.LatencyMax = v
	}

	if v, ok := extractTransferRate(text); ok {
		d.TransferRate = v
	}

	return d
}

// firstLatency runs strategies in order and returns the first captured value
// normalized to seconds.
func firstLatency(text string, strategies []*regexp.Regexp) (float64, bool) {
	for _, re := range strategies {
		matches := re.FindStringSubmatch(text)
		if len(matches) < 2 {
			continue
		}
		val, err := strconv.ParseFloat(matches[1], 64)
		if err != nil {
			continue
		}
		unit := ""
		if len(matches) > 2 {
			unit = strings.ToLower(matches[2])
		}
		switch unit {
		case "ms", "millisecond", "milliseconds":
			val /= 1000
		case "us", "µs":
			val /= 1000000
		}
		return val, true
	}
	return 0, false
}

// extractTransferRate returns the data transfer rate in bytes per second.
func extractTransferRate(text string) (float64, bool) {
	for _, re := range transferStrategies {
		matches := re.FindStringSubmatch(text)
		if len(matches) < 2 {
			continue
		}
		val, err := strconv.ParseFloat(matches[1], 64)
		if err != nil {
			continue
		}
		unit := ""
		if len(matches) > 2 {
			unit = matches[2]
		}
		switch unit {
		case "KB":
			val *= 1000
		case "KiB":
			val *= 1024
		case "MB":
			val *= 1000 * 1000
		case "MiB":
			val *= 1024 * 1024
		case "GB":
			val *= 1000 * 1000 * 1000
		case "GiB":
			val *= 1024 * 1024 * 1024
		}
		return val, true
	}
	return 0, false
}
