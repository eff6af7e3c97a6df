package version

import (
	"runtime/debug"
	"strings"
	"testing"
	"time"
)

func withBuildInfo(t *testing.T, info *debug.BuildInfo) {
	t.Helper()
	old := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) { return info, info != nil }
	t.Cleanup(func() { readBuildInfo = old })
}

func TestCurrentPrefersBuildVersion(t *testing.T) {
	old := buildVersion
	buildVersion = "v1.2.3"
	t.Cleanup(func() { buildVersion = old })

	if got := Current(); got != "v1.2.3" {
		t.Fatalf("expected build version, got %q", got)
	}
}

func TestCurrentFromModuleVersion(t *testing.T) {
	withBuildInfo(t, &debug.BuildInfo{Main: debug.Module{Path: "github.com/javanhut/svte", Version: "v0.4.0"}})
	if got := Current(); got != "v0.4.0" {
		t.Fatalf("got %q", got)
	}
	if got := Module(); got != "github.com/javanhut/svte" {
		t.Fatalf("module = %q", got)
	}
}

func TestCurrentUnknown(t *testing.T) {
	withBuildInfo(t, nil)
	if got := Current(); got != "v0.0.0-unknown" {
		t.Fatalf("got %q", got)
	}
	if got := Module(); got != defaultModule {
		t.Fatalf("module = %q", got)
	}
}

func TestPseudoFromBuildInfo(t *testing.T) {
	ts := time.Date(2025, time.January, 2, 3, 4, 5, 0, time.UTC)
	info := &debug.BuildInfo{
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "1234567890abcdef"},
			{Key: "vcs.time", Value: ts.Format(time.RFC3339)},
			{Key: "vcs.modified", Value: "true"},
		},
	}
	got := pseudoFromBuildInfo(info)
	if !strings.HasPrefix(got, "v0.0.0-20250102030405-1234567890ab") {
		t.Fatalf("unexpected version prefix: %q", got)
	}
	if !strings.HasSuffix(got, "+dirty") {
		t.Fatalf("expected dirty suffix, got %q", got)
	}
	if pseudoFromBuildInfo(nil) != "" {
		t.Fatalf("expected empty version for nil build info")
	}
}

func TestDependency(t *testing.T) {
	withBuildInfo(t, &debug.BuildInfo{Deps: []*debug.Module{
		{Path: "github.com/go-gl/glfw/v3.3/glfw", Version: "v0.0.0-20250301202403-da16c1255728"},
		{Path: "github.com/danielgatis/go-headless-term", Version: "v0.1.0", Replace: &debug.Module{Version: "v0.1.1"}},
	}})

	if v, ok := Dependency("github.com/go-gl/glfw/v3.3/glfw"); !ok || v != "v0.0.0-20250301202403-da16c1255728" {
		t.Fatalf("glfw = %q %v", v, ok)
	}
	if v, ok := Dependency("github.com/danielgatis/go-headless-term"); !ok || v != "v0.1.1" {
		t.Fatalf("replaced = %q %v", v, ok)
	}
	if _, ok := Dependency("example.com/missing"); ok {
		t.Fatalf("missing module reported present")
	}
}
