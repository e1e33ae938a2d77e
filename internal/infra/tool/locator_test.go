// Package tool provides unit tests for the binary locator.
package tool

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

// TestLocator_Locate_ExplicitPath tests the explicit path override.
func TestLocator_Locate_ExplicitPath(t *testing.T) {
	dir := t.TempDir()
	binary := filepath.Join(dir, "oha")
	if err := os.WriteFile(binary, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	loc := &Locator{Path: binary}
	path, err := loc.Locate()
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if path != binary {
		t.Errorf("Locate() = %q, want %q", path, binary)
	}
}

// TestLocator_Locate_MissingExplicitPath tests the not-found sentinel.
func TestLocator_Locate_MissingExplicitPath(t *testing.T) {
	loc := &Locator{Path: filepath.Join(t.TempDir(), "nope")}
	_, err := loc.Locate()
	if !errors.Is(err, ErrToolNotFound) {
		t.Errorf("Locate() error = %v, want ErrToolNotFound", err)
	}
}

// TestLocator_Locate_DirectoryRejected tests that a directory is not
// accepted as a binary.
func TestLocator_Locate_DirectoryRejected(t *testing.T) {
	loc := &Locator{Path: t.TempDir()}
	_, err := loc.Locate()
	if !errors.Is(err, ErrToolNotFound) {
		t.Errorf("Locate() error = %v, want ErrToolNotFound", err)
	}
}

// TestLocator_Version tests the version probe against a stub binary that
// prints the expected banner.
func TestLocator_Version(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("stub binary is a shell script")
	}

	binary := filepath.Join(t.TempDir(), "oha")
	script := "#!/bin/sh\necho 'oha 1.4.5'\n"
	if err := os.WriteFile(binary, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	loc := &Locator{Path: binary}
	version, err := loc.Version(ctx)
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if version != "1.4.5" {
		t.Errorf("Version() = %q, want %q", version, "1.4.5")
	}
}

// TestParseVersion tests version banner parsing.
func TestParseVersion(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   string
	}{
		{"plain banner", "oha 1.4.5\n", "1.4.5"},
		{"uppercase banner", "Oha 2.0.0\n", "2.0.0"},
		{"wrong tool", "hey 0.1.4\n", ""},
		{"empty output", "", ""},
		{"bare name", "oha\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseVersion(tt.output); got != tt.want {
				t.Errorf("parseVersion(%q) = %q, want %q", tt.output, got, tt.want)
			}
		})
	}
}
