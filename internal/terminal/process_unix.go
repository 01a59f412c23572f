// ABOUTME: Unix-specific SIGWINCH handling for ProcessTerminal resize events.
// ABOUTME: Spawns a goroutine that listens for SIGWINCH and invokes the resize callback.

//go:build unix

package terminal

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// OnResize sets up a SIGWINCH handler that calls fn with the new terminal
// dimensions until the returned stop func is called.
func (t *ProcessTerminal) OnResize(fn func(width, height int)) (stop func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGWINCH)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-done:
				return
			case <-sigCh:
				w, h, err := t.Size()
				if err != nil {
					continue
				}
				fn(w, h)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(sigCh)
			close(done)
		})
	}
}
