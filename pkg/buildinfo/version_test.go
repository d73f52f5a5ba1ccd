package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestFillFrom(t *testing.T) {
	saved := [3]string{Version, Commit, Date}
	defer func() { Version, Commit, Date = saved[0], saved[1], saved[2] }()

	Version, Commit, Date = "dev", "none", "unknown"
	fillFrom(&debug.BuildInfo{
		Main: debug.Module{Version: "v0.3.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2026-10-01T12:00:00Z"},
		},
	})
	if Version != "v0.3.1" || Commit != "abc123" || Date != "2026-10-01T12:00:00Z" {
		t.Errorf("got %q %q %q", Version, Commit, Date)
	}

	// Stamped values win.
	Version, Commit = "v1.0.0", "stamped"
	fillFrom(&debug.BuildInfo{
		Main:     debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "other"}},
	})
	if Version != "v1.0.0" || Commit != "stamped" {
		t.Errorf("stamped values replaced: %q %q", Version, Commit)
	}
}

func TestTemplate(t *testing.T) {
	got := Template()
	if !strings.HasPrefix(got, "{{.Name}} version: ") || !strings.HasSuffix(got, "\n") {
		t.Errorf("Template() = %q", got)
	}
	if !strings.Contains(got, "commit: "+Commit) {
		t.Errorf("Template() missing commit: %q", got)
	}
}
