// ABOUTME: VirtualTerminal implements Terminal for testing without a real TTY.
// ABOUTME: Tracks save, raw-mode enter/exit, and mirror calls; simulates resizes.

package terminal

import (
	"errors"
	"os"
	"sync"
)

// VirtualTerminal is a fake Terminal for unit tests.
type VirtualTerminal struct {
	mu          sync.Mutex
	interactive bool
	width       int
	height      int
	saved       bool
	rawMode     bool
	resizeFn    func(width, height int)
	saveCount   int
	enterCount  int
	exitCount   int
	restores    int
	mirrored    []*os.File
	mirrorErr   error
}

// NewVirtualTerminal returns a VirtualTerminal with the given dimensions.
// interactive controls what IsTerminal reports.
func NewVirtualTerminal(interactive bool, width, height int) *VirtualTerminal {
	return &VirtualTerminal{
		interactive: interactive,
		width:       width,
		height:      height,
	}
}

// IsTerminal reports the configured interactivity.
func (v *VirtualTerminal) IsTerminal() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.interactive
}

// Save records a save.
func (v *VirtualTerminal) Save() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.saveCount++
	if !v.interactive {
		return errors.New("not a terminal")
	}
	v.saved = true
	return nil
}

// EnterRawMode records a raw-mode entry.
func (v *VirtualTerminal) EnterRawMode() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.interactive {
		return errors.New("not a terminal")
	}
	v.saved = true
	v.rawMode = true
	v.enterCount++
	return nil
}

// ExitRawMode records a raw-mode exit; only calls after a save restore.
func (v *VirtualTerminal) ExitRawMode() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.exitCount++
	if !v.saved {
		return nil
	}
	v.saved = false
	v.rawMode = false
	v.restores++
	return nil
}

// MirrorTo records the target file.
func (v *VirtualTerminal) MirrorTo(f *os.File) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.mirrorErr != nil {
		return v.mirrorErr
	}
	v.mirrored = append(v.mirrored, f)
	return nil
}

// Size returns the configured terminal dimensions.
func (v *VirtualTerminal) Size() (width, height int, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.width, v.height, nil
}

// OnResize stores the resize callback.
func (v *VirtualTerminal) OnResize(fn func(width, height int)) (stop func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.resizeFn = fn
	return func() {
		v.mu.Lock()
		v.resizeFn = nil
		v.mu.Unlock()
	}
}

// --- Test helpers (not part of Terminal interface) ---

// SetMirrorError makes subsequent MirrorTo calls fail with err.
func (v *VirtualTerminal) SetMirrorError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mirrorErr = err
}

// IsRawMode reports whether raw mode is currently active.
func (v *VirtualTerminal) IsRawMode() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.rawMode
}

// EnterCount returns how many times EnterRawMode succeeded.
func (v *VirtualTerminal) EnterCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.enterCount
}

// ExitCount returns how many times ExitRawMode was called.
func (v *VirtualTerminal) ExitCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.exitCount
}

// RestoreCount returns how many times saved attributes were restored.
func (v *VirtualTerminal) RestoreCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.restores
}

// MirrorCount returns how many times MirrorTo succeeded.
func (v *VirtualTerminal) MirrorCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.mirrored)
}

// SetSize updates the terminal dimensions and, if a resize callback
// is registered, invokes it with the new size.
func (v *VirtualTerminal) SetSize(width, height int) {
	v.mu.Lock()
	v.width = width
	v.height = height
	fn := v.resizeFn
	v.mu.Unlock()

	if fn != nil {
		fn(width, height)
	}
}
