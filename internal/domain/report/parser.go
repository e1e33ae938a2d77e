package report

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// A field is extracted by an ordered list of independent strategies; the
// first strategy whose pattern matches wins, and later passes never overwrite
// a value an earlier pass already set.

const numberPat = `([0-9]+(?:\.[0-9]+)?)`

// Primary extractors.
var (
	rpsStrategies = []*regexp.Regexp{
		regexp.MustCompile(`(?i)requests\s*/\s*sec(?:ond)?s?\s*[.:=]?\s*` + numberPat),
		regexp.MustCompile(`(?i)requests\s+per\s+sec(?:ond)?\s*[.:=]?\s*` + numberPat),
		regexp.MustCompile(`(?i)\breq/s\s*[.:=]?\s*` + numberPat),
	}

	successRateStrategies = []*regexp.Regexp{
		regexp.MustCompile(`(?i)success\s*rate\s*[.:=]?\s*` + numberPat + `\s*%?`),
	}

	// Status code distribution line: "[200] 950 responses"
	statusLinePattern = regexp.MustCompile(`\[([0-9]{3})\]\s+([0-9]+)\s+responses`)

	// Bare fallback: "1000 requests"
	bareRequestsPattern = regexp.MustCompile(`(?i)\b([0-9]+)\s+requests\b`)

	// Error distribution entry: "[50] connection refused". The bracketed
	// number is the count, the rest is descriptive text.
	errorLinePattern = regexp.MustCompile(`^\s*\[([0-9]+)\]\s+\S`)

	errorHeadingPattern = regexp.MustCompile(`(?i)error\s+distribution`)
)

// Secondary (looser) extractors, applied only to fields the primary pass
// left unset.
var (
	rpsFallbacks = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:rps|throughput)\s*[.:=]\s*` + numberPat),
	}

	totalFallbacks = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bcompleted\s*[.:=]?\s*([0-9]+)\s*requests\b`),
		regexp.MustCompile(`(?i)\btotal\s*[.:=]?\s*([0-9]+)\s*requests\b`),
	}

	failedFallbacks = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:failed|errors?|timeouts?)\s*[.:=]\s*([0-9]+)\b`),
	}
)

// Hallmark labels a genuine report is expected to contain at least one of.
var hallmarkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?mi)^\s*oha\s+v?[0-9]`), // version banner
	regexp.MustCompile(`(?i)requests\s*/\s*sec`),
	regexp.MustCompile(`(?i)success\s*rate`),
	regexp.MustCompile(`(?i)\bsummary\s*:`),
	regexp.MustCompile(`(?i)status\s+code\s+distribution`),
}

// Parse extracts structured metrics from the accumulated report text. It
// never fails: a metric the text does not carry stays at its zero value, so
// a caller can always render something even from a truncated report. Use
// IsValidReport to judge whether the buffer looks like a genuine report.
func Parse(text string) *ParsedMetrics {
	m := &ParsedMetrics{RawOutput: text}

	// Primary pass, each field independent of the others succeeding.
	rps, rpsFound := firstNumber(text, rpsStrategies)
	if rpsFound {
		m.RequestsPerSecond = rps
	}

	rate, rateFound := firstNumber(text, successRateStrategies)
	if rateFound {
		m.SuccessRate = rate
	}

	total, totalFound := extractTotalRequests(text)
	if totalFound {
		m.TotalRequests = total
	}

	failed, failedFound := extractFailedFromErrorSection(text)
	if !failedFound {
		failed, failedFound = extractFailedFromStatusSection(text)
	}
	switch {
	case failedFound:
		m.FailedRequests = failed
	case totalFound && rateFound:
		// Derive: failed = total - round(total * rate / 100), round half up.
		succeeded := int64(math.Floor(float64(m.TotalRequests)*m.SuccessRate/100 + 0.5))
		derived := m.TotalRequests - succeeded
		if derived < 0 {
			derived = 0
		}
		if derived > m.TotalRequests {
			derived = m.TotalRequests
		}
		m.FailedRequests = derived
		failedFound = true
	}

	// Secondary pass with looser synonyms. Fields already set are kept.
	if !rpsFound {
		if v, ok := firstNumber(text, rpsFallbacks); ok {
			m.RequestsPerSecond = v
		}
	}
	if !totalFound {
		if v, ok := firstNumber(text, totalFallbacks); ok {
			m.TotalRequests = int64(v)
		}
	}
	if !failedFound {
		if v, ok := firstNumber(text, failedFallbacks); ok {
			m.FailedRequests = int64(v)
		}
	}

	if d := ParseDetailedStats(text); !d.IsEmpty() {
		m.Details = d
	}

	return m
}

// IsValidReport reports whether the text contains at least one hallmark of a
// genuine load tool report. Advisory only: Parse does not call it, callers
// use it to warn that a buffer may not be a real report.
func IsValidReport(text string) bool {
	for _, p := range hallmarkPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// firstNumber runs strategies in order and returns the first captured number.
func firstNumber(text string, strategies []*regexp.Regexp) (float64, bool) {
	for _, re := range strategies {
		matches := re.FindStringSubmatch(text)
		if len(matches) < 2 {
			continue
		}
		val, err := strconv.ParseFloat(matches[1], 64)
		if err != nil {
			continue
		}
		return val, true
	}
	return 0, false
}

// extractTotalRequests sums the per-status-code response counts. When no
// status distribution section exists the first bare "<N> requests" occurrence
// is used instead. A non-zero status distribution sum is authoritative over
// the bare pattern when both are present.
func extractTotalRequests(text string) (int64, bool) {
	var sum int64
	found := false
	for _, matches := range statusLinePattern.FindAllStringSubmatch(text, -1) {
		count, err := strconv.ParseInt(matches[2], 10, 64)
		if err != nil {
			continue
		}
		sum += count
		found = true
	}
	if found && sum > 0 {
		return sum, true
	}

	if matches := bareRequestsPattern.FindStringSubmatch(text); len(matches) > 1 {
		if count, err := strconv.ParseInt(matches[1], 10, 64); err == nil {
			return count, true
		}
	}

	if found {
		return sum, true
	}
	return 0, false
}

// extractFailedFromStatusSection sums the response counts of error-class
// status codes (>= 400). Used when no error distribution section exists;
// reports "not found" when the distribution carries no error-class entries
// so the success-rate derivation can still run.
func extractFailedFromStatusSection(text string) (int64, bool) {
	var sum int64
	found := false
	for _, matches := range statusLinePattern.FindAllStringSubmatch(text, -1) {
		code, err := strconv.Atoi(matches[1])
		if err != nil || code < 400 {
			continue
		}
		count, err := strconv.ParseInt(matches[2], 10, 64)
		if err != nil {
			continue
		}
		sum += count
		found = true
	}
	return sum, found
}

// extractFailedFromErrorSection sums the counts in the block between an
// "Error distribution" heading and the next blank line.
func extractFailedFromErrorSection(text string) (int64, bool) {
	lines := strings.Split(text, "\n")
	inSection := false
	var sum int64
	found := false

	for _, line := range lines {
		if !inSection {
			if errorHeadingPattern.MatchString(line) {
				inSection = true
			}
			continue
		}

		if strings.TrimSpace(line) == "" {
			break
		}

		matches := errorLinePattern.FindStringSubmatch(line)
		if len(matches) < 2 {
			continue
		}
		count, err := strconv.ParseInt(matches[1], 10, 64)
		if err != nil {
			continue
		}
		sum += count
		found = true
	}

	return sum, found
}
