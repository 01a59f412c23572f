// ABOUTME: Error types for session setup failures
// ABOUTME: SetupError wraps pty, spawn, and terminal-mode failures that abort a session

package session

import "fmt"

// SetupError reports a failure that prevents the session from starting.
type SetupError struct {
	Op  string
	Err error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }
