package version

import (
	"strings"
	"testing"
)

func TestVersion_DefaultValues(t *testing.T) {
	if Version == "" {
		t.Error("Version should have a default value")
	}
	// GitCommit and BuildDate can be empty (optional)
	_ = GitCommit
	_ = BuildDate
}

func TestCurrent_TrimsAndDefaults(t *testing.T) {
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	t.Cleanup(func() {
		Version, GitCommit, BuildDate = origVersion, origCommit, origDate
	})

	Version = "  "
	GitCommit = " abc123 \n"
	BuildDate = "2024-01-15T10:30:00Z"

	info := Current()
	if info.Version != "dev" {
		t.Errorf("Version = %q, want dev", info.Version)
	}
	if info.GitCommit != "abc123" {
		t.Errorf("GitCommit = %q, want abc123", info.GitCommit)
	}
	if info.BuildDate != "2024-01-15T10:30:00Z" {
		t.Errorf("BuildDate = %q", info.BuildDate)
	}
}

func TestColored(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0.1.0-dev", "0.1.0-dev"},
		{"1.2.3", "1.2.3"},
		{"1.2.3-rc.1+build.123", "1.2.3-rc.1+build.123"},
		{"dev", "dev"},
		{"1.2", "1.2"},
	}
	for _, tt := range tests {
		if got := Colored(tt.in, false); got != tt.want {
			t.Errorf("Colored(%q, false) = %q, want %q", tt.in, got, tt.want)
		}
	}

	got := Colored("1.2.3", true)
	if !strings.Contains(got, "\x1b[") {
		t.Errorf("Colored(1.2.3, true) = %q, want escape sequences", got)
	}
	if Colored("dev", true) != "dev" {
		t.Error("non-semver input must not be colored")
	}
}
