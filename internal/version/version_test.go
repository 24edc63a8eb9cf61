package version

import (
	"strings"
	"testing"
)

func TestVersionContainsComponents(t *testing.T) {
	// Цветовые escape-последовательности не должны ломать сами числа.
	for _, part := range []string{"0", "1", "0", "-dev"} {
		if !strings.Contains(Version, part) {
			t.Errorf("Version %q missing component %q", Version, part)
		}
	}
}

func TestBuildTimeOverrides(t *testing.T) {
	origCommit, origDate := GitCommit, BuildDate
	defer func() { GitCommit, BuildDate = origCommit, origDate }()

	GitCommit = "a1b2c3d"
	BuildDate = "2026-08-30T10:30:00Z"

	if GitCommit != "a1b2c3d" {
		t.Errorf("GitCommit = %q", GitCommit)
	}
	if BuildDate != "2026-08-30T10:30:00Z" {
		t.Errorf("BuildDate = %q", BuildDate)
	}
}
