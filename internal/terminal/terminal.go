// ABOUTME: Defines the Terminal interface for the real terminal the wrapper runs in.
// ABOUTME: Covers attribute save/restore, raw mode, size queries, and resize notifications.

package terminal

import "os"

// Terminal abstracts the operator's terminal: saving and restoring its
// attributes, raw mode, size queries, and resize notifications.
type Terminal interface {
	// IsTerminal reports whether the underlying file is an interactive terminal.
	IsTerminal() bool
	// Save captures the current attributes. Later calls are no-ops.
	Save() error
	// EnterRawMode switches to raw mode, saving attributes first if needed.
	EnterRawMode() error
	// ExitRawMode restores the saved attributes. Only the first call after
	// Save has any effect.
	ExitRawMode() error
	// MirrorTo copies the saved attributes onto another terminal, such as a
	// pty master.
	MirrorTo(f *os.File) error
	Size() (width, height int, err error)
	// OnResize registers fn for window-size changes. The returned func
	// stops delivery.
	OnResize(fn func(width, height int)) (stop func())
}
