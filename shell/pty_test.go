package shell

import (
	"io"
	"testing"
	"time"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		fallback string
		want     string
	}{
		{"from env", "/usr/bin/zsh", "/bin/bash", "/usr/bin/zsh"},
		{"unset", "", "/bin/bash", "/bin/bash"},
		{"blank", "   ", "/bin/sh", "/bin/sh"},
		{"no fallback", "", "", DefaultFallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SHELL", tt.env)
			if got := Resolve(tt.fallback); got != tt.want {
				t.Fatalf("Resolve(%q) = %q, want %q", tt.fallback, got, tt.want)
			}
		})
	}
}

func TestStartMissingShell(t *testing.T) {
	if _, err := Start("/nonexistent/svte-shell", 80, 24); err == nil {
		t.Fatalf("expected error for missing shell")
	}
	if _, err := Start("", 80, 24); err == nil {
		t.Fatalf("expected error for empty shell")
	}
}

func TestExitCode(t *testing.T) {
	p, err := Start("/bin/sh", 80, 24)
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	defer p.Close()

	go io.Copy(io.Discard, p.Reader())
	if _, err := p.Write([]byte("exit 3\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("shell did not exit")
	}
	if !p.HasExited() {
		t.Fatalf("HasExited = false after Done")
	}
	if code := p.ExitCode(); code != 3 {
		t.Fatalf("exit code = %d, want 3", code)
	}
}

func TestCloseKills(t *testing.T) {
	p, err := Start("/bin/sh", 80, 24)
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	go io.Copy(io.Discard, p.Reader())

	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("shell still running after Close")
	}
	if _, err := p.Write([]byte("echo\n")); err == nil {
		t.Fatalf("write after close should fail")
	}
	if err := p.Resize(100, 30); err == nil {
		t.Fatalf("resize after close should fail")
	}
}
