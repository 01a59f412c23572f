// ABOUTME: CLI entry point for screenhook with terminal crash recovery
// ABOUTME: Wraps a command on a pty and propagates its exit code

package main

import (
	"os"

	"github.com/mauromedda/screenhook/internal/log"
	"github.com/mauromedda/screenhook/internal/terminal"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

// run exists so deferred cleanup happens before os.Exit.
func run() int {
	term := terminal.NewProcessTerminal(os.Stdin)
	defer terminal.RestoreOnPanic(term)
	defer func() { _ = log.Close() }()

	return execute(os.Args[1:], streams{
		in:   os.Stdin,
		out:  os.Stdout,
		err:  os.Stderr,
		term: term,
	})
}
