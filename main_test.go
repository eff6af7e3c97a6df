package main

import (
	"strings"
	"testing"

	"github.com/javanhut/svte/theme"
)

func TestThemeFlagListsBuiltins(t *testing.T) {
	flag := newRootCmd().Flags().Lookup("theme")
	if flag == nil {
		t.Fatal("missing --theme flag")
	}
	for _, opt := range theme.Options() {
		if !strings.Contains(flag.Usage, opt.Name) || !strings.Contains(flag.Usage, opt.Label) {
			t.Errorf("--theme usage %q does not list %s (%s)", flag.Usage, opt.Name, opt.Label)
		}
	}
}
