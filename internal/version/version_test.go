package version

import (
	"testing"

	"github.com/fatih/color"
)

func override(t *testing.T, v, commit, date string) {
	t.Helper()
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	Version, GitCommit, BuildDate = v, commit, date
	t.Cleanup(func() {
		Version, GitCommit, BuildDate = origVersion, origCommit, origDate
	})
}

func TestString(t *testing.T) {
	tests := []struct {
		name           string
		v, commit, day string
		want           string
	}{
		{"bare", "1.2.3", "", "", "drai-expand 1.2.3"},
		{"commit shortened", "1.2.3", "abc123def456789", "", "drai-expand 1.2.3 (commit abc123def456)"},
		{"commit and date", "0.1.0-dev", "abc", "2026-01-15", "drai-expand 0.1.0-dev (commit abc, built 2026-01-15)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			override(t, tt.v, tt.commit, tt.day)
			if got := String(false); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestColoredKeepsText(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	for _, v := range []string{"1.2.3", "0.1.0-dev", "nightly"} {
		override(t, v, "", "")
		if got := Colored(); got != v {
			t.Errorf("Colored() = %q, want %q", got, v)
		}
	}
}

func TestCurrent(t *testing.T) {
	override(t, "2.0.0", "deadbeef", "")
	info := Current()
	if info.Version != "2.0.0" || info.GitCommit != "deadbeef" || info.BuildDate != "" {
		t.Errorf("Current() = %+v", info)
	}
}
