package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"

	"github.com/creack/pty"
)

// DefaultFallback is spawned when $SHELL is unset.
const DefaultFallback = "/bin/bash"

// Resolve returns $SHELL, or fallback when it is unset or blank. It reads
// the environment on every call so each tab sees the current value.
func Resolve(fallback string) string {
	if sh := strings.TrimSpace(os.Getenv("SHELL")); sh != "" {
		return sh
	}
	if fallback == "" {
		return DefaultFallback
	}
	return fallback
}

// PtySession manages a pseudo-terminal connection to a shell
type PtySession struct {
	cmd      *exec.Cmd
	pty      *os.File
	mu       sync.Mutex
	done     chan struct{}
	exitCode int
	closed   bool
}

// Start runs shell on a new pseudo-terminal of the given size. The child
// gets its own session and inherits the environment with TERM set.
func Start(shell string, cols, rows uint16) (*PtySession, error) {
	if shell == "" {
		return nil, errors.New("shell: empty program path")
	}
	cmd := exec.Command(shell)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}
	cmd.Env = append(os.Environ(),
		"TERM=xterm-256color",
		"COLORTERM=truecolor",
		"SVTE=1",
	)
	if home, err := os.UserHomeDir(); err == nil {
		cmd.Dir = home
	}

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Cols: cols,
		Rows: rows,
	})
	if err != nil {
		return nil, fmt.Errorf("shell: start %s: %w", shell, err)
	}

	session := &PtySession{
		cmd:  cmd,
		pty:  ptmx,
		done: make(chan struct{}),
	}

	// Monitor for process exit
	go func() {
		err := cmd.Wait()
		code := 0
		var exitErr *exec.ExitError
		switch {
		case errors.As(err, &exitErr):
			code = exitErr.ExitCode()
		case err != nil:
			code = -1
		}
		session.mu.Lock()
		session.exitCode = code
		session.mu.Unlock()
		close(session.done)
	}()

	return session, nil
}

// Read reads from the PTY
func (p *PtySession) Read(buf []byte) (int, error) {
	return p.pty.Read(buf)
}

// Write writes to the PTY
func (p *PtySession) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, os.ErrClosed
	}
	return p.pty.Write(data)
}

// Resize resizes the PTY
func (p *PtySession) Resize(cols, rows uint16) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return os.ErrClosed
	}
	return pty.Setsize(p.pty, &pty.Winsize{
		Cols: cols,
		Rows: rows,
	})
}

// Done is closed once the shell process has exited.
func (p *PtySession) Done() <-chan struct{} {
	return p.done
}

// ExitCode returns the exit status, valid after Done is closed. A process
// killed by a signal reports -1.
func (p *PtySession) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}

// HasExited returns true if the shell process has exited
func (p *PtySession) HasExited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Close kills the shell and closes the PTY.
func (p *PtySession) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.cmd.Process != nil && !p.HasExited() {
		p.cmd.Process.Kill()
	}
	return p.pty.Close()
}

// Reader returns an io.Reader for the PTY
func (p *PtySession) Reader() io.Reader {
	return p.pty
}
