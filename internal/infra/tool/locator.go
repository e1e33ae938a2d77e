// Package tool provides load tool binary location and version detection.
package tool

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

var (
	// ErrToolNotFound is returned when the load tool binary cannot be located.
	ErrToolNotFound = errors.New("tool not found")
)

// executableName is the name of the driven load generator.
const executableName = "oha"

// Locator finds the load tool binary for the current platform.
type Locator struct {
	// Path is an explicit path to the binary. If empty, PATH is searched.
	Path string
}

// NewLocator creates a locator that searches PATH.
func NewLocator() *Locator {
	return &Locator{}
}

// Locate returns the absolute path to the load tool executable.
// Returns ErrToolNotFound when no usable binary exists.
func (l *Locator) Locate() (string, error) {
	if l.Path != "" {
		info, err := os.Stat(l.Path)
		if err != nil || info.IsDir() {
			return "", fmt.Errorf("%w: no executable at %s", ErrToolNotFound, l.Path)
		}
		return l.Path, nil
	}

	path, err := exec.LookPath(executableName)
	if err != nil {
		return "", fmt.Errorf("%w: %s not found in PATH", ErrToolNotFound, executableName)
	}
	return path, nil
}

// Version runs the located binary's version command and parses its banner.
// Output looks like "oha 1.4.5".
func (l *Locator) Version(ctx context.Context) (string, error) {
	path, err := l.Locate()
	if err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, path, "--version")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("execute version command: %w", err)
	}

	version := parseVersion(string(output))
	if version == "" {
		return "", fmt.Errorf("failed to parse version from output: %s", string(output))
	}
	return version, nil
}

// parseVersion extracts the version token from the banner line.
func parseVersion(output string) string {
	parts := strings.Fields(output)
	if len(parts) >= 2 && strings.EqualFold(parts[0], executableName) {
		return parts[1]
	}
	return ""
}
