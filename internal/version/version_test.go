package version

import "testing"

func TestFull(t *testing.T) {
	if got := Full(); got != "dev" {
		t.Errorf("Full() = %q, want dev", got)
	}

	Version, GitCommit, BuildDate = "1.2.0", "abc123", "2026-01-02"
	t.Cleanup(func() { Version, GitCommit, BuildDate = "dev", "unknown", "unknown" })
	if got, want := Full(), "1.2.0 (abc123, 2026-01-02)"; got != want {
		t.Errorf("Full() = %q, want %q", got, want)
	}
}
