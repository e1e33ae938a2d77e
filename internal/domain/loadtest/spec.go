// Package loadtest provides the load test specification domain model.
package loadtest

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrInvalidSpecification is returned when a specification violates its invariants.
	ErrInvalidSpecification = errors.New("invalid specification")
)

// Supported HTTP methods for a test run.
var supportedMethods = map[string]bool{
	"GET":     true,
	"HEAD":    true,
	"POST":    true,
	"PUT":     true,
	"DELETE":  true,
	"PATCH":   true,
	"OPTIONS": true,
}

// TestSpecification describes one load test. It is treated as immutable input:
// callers construct it once and hand it to the command assembler.
type TestSpecification struct {
	// Target URL, must carry an explicit scheme.
	URL string `json:"url"`

	// HTTP method (GET, POST, ...).
	Method string `json:"method"`

	// Number of concurrent workers, >= 1.
	Concurrency int `json:"concurrency"`

	// Test duration in seconds, >= 1.
	Duration int `json:"duration"`

	// Per-request timeout in seconds. Keeping it <= Duration is recommended
	// but not enforced at this layer.
	Timeout int `json:"timeout"`

	// Request headers. Keys are case-sensitive; insertion order is irrelevant.
	Headers map[string]string `json:"headers,omitempty"`

	// Optional request body.
	Body string `json:"body,omitempty"`
}

// Validate checks the specification invariants.
func (s *TestSpecification) Validate() error {
	if strings.TrimSpace(s.URL) == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidSpecification)
	}

	u, err := url.Parse(s.URL)
	if err != nil {
		return fmt.Errorf("%w: parse url: %v", ErrInvalidSpecification, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: url must use http or https scheme, got %q", ErrInvalidSpecification, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: url has no host", ErrInvalidSpecification)
	}

	method := strings.ToUpper(s.Method)
	if !supportedMethods[method] {
		return fmt.Errorf("%w: unsupported method %q", ErrInvalidSpecification, s.Method)
	}

	if s.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency must be >= 1, got %d", ErrInvalidSpecification, s.Concurrency)
	}
	if s.Duration < 1 {
		return fmt.Errorf("%w: duration must be >= 1 second, got %d", ErrInvalidSpecification, s.Duration)
	}
	if s.Timeout < 0 {
		return fmt.Errorf("%w: timeout must not be negative, got %d", ErrInvalidSpecification, s.Timeout)
	}

	return nil
}

// NormalizedMethod returns the upper-cased HTTP method.
func (s *TestSpecification) NormalizedMethod() string {
	return strings.ToUpper(s.Method)
}
