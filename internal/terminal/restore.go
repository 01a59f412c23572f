// ABOUTME: RestoreOnPanic recovers from panics, restores the terminal, and prints the stack trace.
// ABOUTME: Intended for use as a deferred call while the wrapped program owns the screen.

package terminal

import (
	"fmt"
	"os"
	"runtime/debug"
)

// showCursor undoes a hidden cursor left behind by the wrapped program.
const showCursor = "\033[?25h"

// RestoreOnPanic should be deferred at the top of main (or any goroutine
// that owns the terminal). On panic it shows the cursor, restores the saved
// attributes via t, prints the panic value and stack trace, then exits 1.
func RestoreOnPanic(t Terminal) {
	r := recover()
	if r == nil {
		return
	}

	_, _ = os.Stdout.Write([]byte(showCursor))
	_ = t.ExitRawMode()

	fmt.Fprintf(os.Stderr, "\nscreenhook: panic: %v\n\n%s\n", r, debug.Stack())
	os.Exit(1)
}

// RecoverGoroutine should be deferred at the top of background goroutines
// that run while the terminal is in raw mode. Unlike RestoreOnPanic it
// does NOT call os.Exit, allowing the main goroutine to handle shutdown.
func RecoverGoroutine(t Terminal) {
	r := recover()
	if r == nil {
		return
	}

	_, _ = os.Stdout.Write([]byte(showCursor))
	_ = t.ExitRawMode()

	fmt.Fprintf(os.Stderr, "\nscreenhook: goroutine panic: %v\n\n%s\n", r, debug.Stack())
}
