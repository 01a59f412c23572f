// ABOUTME: ProcessTerminal implements Terminal on a real file using golang.org/x/term.
// ABOUTME: Keeps the original attributes so they can be mirrored and restored exactly once.

package terminal

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// ProcessTerminal is a real terminal backed by a file (normally os.Stdin).
type ProcessTerminal struct {
	mu       sync.Mutex
	f        *os.File
	oldState *term.State
	attrs    *unix.Termios
	raw      bool
}

// NewProcessTerminal returns a ProcessTerminal for f.
func NewProcessTerminal(f *os.File) *ProcessTerminal {
	return &ProcessTerminal{f: f}
}

func (t *ProcessTerminal) fd() int {
	return int(t.f.Fd())
}

// IsTerminal reports whether the file is an interactive terminal.
func (t *ProcessTerminal) IsTerminal() bool {
	return term.IsTerminal(t.fd())
}

// Save captures the current terminal attributes.
func (t *ProcessTerminal) Save() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.saveLocked()
}

func (t *ProcessTerminal) saveLocked() error {
	if t.oldState != nil {
		return nil
	}
	state, err := term.GetState(t.fd())
	if err != nil {
		return fmt.Errorf("saving terminal state: %w", err)
	}
	attrs, err := unix.IoctlGetTermios(t.fd(), ioctlReadTermios)
	if err != nil {
		return fmt.Errorf("reading terminal attributes: %w", err)
	}
	t.oldState = state
	t.attrs = attrs
	return nil
}

// EnterRawMode switches the terminal to raw mode.
func (t *ProcessTerminal) EnterRawMode() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.saveLocked(); err != nil {
		return err
	}
	if _, err := term.MakeRaw(t.fd()); err != nil {
		return fmt.Errorf("entering raw mode: %w", err)
	}
	t.raw = true
	return nil
}

// ExitRawMode restores the attributes captured by Save.
func (t *ProcessTerminal) ExitRawMode() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.oldState == nil {
		return nil
	}
	state := t.oldState
	t.oldState = nil
	t.raw = false
	if err := term.Restore(t.fd(), state); err != nil {
		return fmt.Errorf("exiting raw mode: %w", err)
	}
	return nil
}

// IsRawMode reports whether EnterRawMode is in effect.
func (t *ProcessTerminal) IsRawMode() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.raw
}

// MirrorTo applies the saved attributes to f so a child on the other side
// of a pty sees the same line discipline the operator had.
func (t *ProcessTerminal) MirrorTo(f *os.File) error {
	t.mu.Lock()
	attrs := t.attrs
	t.mu.Unlock()

	if attrs == nil {
		return errors.New("mirroring terminal attributes: nothing saved")
	}

	// SyscallConn keeps f in non-blocking mode, unlike Fd.
	conn, err := f.SyscallConn()
	if err != nil {
		return fmt.Errorf("mirroring terminal attributes: %w", err)
	}
	var ioctlErr error
	if err := conn.Control(func(fd uintptr) {
		ioctlErr = unix.IoctlSetTermios(int(fd), ioctlWriteTermios, attrs)
	}); err != nil {
		return fmt.Errorf("mirroring terminal attributes: %w", err)
	}
	if ioctlErr != nil {
		return fmt.Errorf("mirroring terminal attributes: %w", ioctlErr)
	}
	return nil
}

// Size returns the current terminal dimensions.
func (t *ProcessTerminal) Size() (width, height int, err error) {
	w, h, err := term.GetSize(t.fd())
	if err != nil {
		return 0, 0, fmt.Errorf("getting terminal size: %w", err)
	}
	return w, h, nil
}
