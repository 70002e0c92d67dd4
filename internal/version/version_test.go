package version

import (
	"strings"
	"testing"
)

func TestVersion(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if BuildTime == "" || GitCommit == "" {
		t.Error("build metadata should be initialized")
	}
}

func TestString(t *testing.T) {
	got := String()
	if !strings.HasPrefix(got, "moondial "+Version) {
		t.Errorf("String() = %q, want prefix %q", got, "moondial "+Version)
	}
	if !strings.Contains(got, GitCommit) {
		t.Errorf("String() = %q should mention commit %q", got, GitCommit)
	}
}
