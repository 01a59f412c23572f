// ABOUTME: Bidirectional byte relay between the real terminal and the pty master
// ABOUTME: Output is copied to stdout verbatim and queued for the session loop

package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/mauromedda/screenhook/internal/log"
	"github.com/mauromedda/screenhook/internal/terminal"
)

const (
	// QueueSize bounds the number of output chunks waiting for the session loop.
	QueueSize = 100

	bufSize = 4096
)

// Error records which duty of the relay stopped and why.
type Error struct {
	Op  string // "read pty", "write stdout", "queue output", "read stdin", "write pty"
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("relay %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Relay copies child output to stdout and operator input to the child.
type Relay struct {
	pty    io.ReadWriter
	stdin  io.Reader
	stdout io.Writer
	term   terminal.Terminal

	out chan []byte
	g   *errgroup.Group
}

// New returns a relay between pty and the given stdin/stdout. term, if not
// nil, is restored when a relay goroutine panics.
func New(pty io.ReadWriter, stdin io.Reader, stdout io.Writer, term terminal.Terminal) *Relay {
	return &Relay{
		pty:    pty,
		stdin:  stdin,
		stdout: stdout,
		term:   term,
		out:    make(chan []byte, QueueSize),
	}
}

// Output returns the queue of output chunks, in pty order. It is closed when
// the output duty ends.
func (r *Relay) Output() <-chan []byte {
	return r.out
}

// Start launches both duties. A failing duty ends on its own; the other keeps
// running. Cancelling ctx stops the output duty from blocking on a full queue.
func (r *Relay) Start(ctx context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	r.g = g

	g.Go(func() error {
		defer close(r.out)
		if r.term != nil {
			defer terminal.RecoverGoroutine(r.term)
		}
		err := r.pumpOutput(ctx)
		logEnd(err)
		return nil
	})

	if r.stdin == nil {
		return
	}
	g.Go(func() error {
		if r.term != nil {
			defer terminal.RecoverGoroutine(r.term)
		}
		err := r.pumpInput()
		logEnd(err)
		return nil
	})
}

// Wait blocks until both duties have ended. The input duty ends only when
// stdin reaches EOF or fails, so callers usually wait on Output instead.
func (r *Relay) Wait() {
	if r.g != nil {
		_ = r.g.Wait()
	}
}

func (r *Relay) pumpOutput(ctx context.Context) error {
	buf := make([]byte, bufSize)
	for {
		n, err := r.pty.Read(buf)
		if n > 0 {
			if _, werr := r.stdout.Write(buf[:n]); werr != nil {
				return &Error{Op: "write stdout", Err: werr}
			}
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case r.out <- chunk:
			case <-ctx.Done():
				return &Error{Op: "queue output", Err: ctx.Err()}
			}
		}
		if err != nil {
			return &Error{Op: "read pty", Err: err}
		}
	}
}

func (r *Relay) pumpInput() error {
	buf := make([]byte, bufSize)
	for {
		n, err := r.stdin.Read(buf)
		if n > 0 {
			if _, werr := r.pty.Write(buf[:n]); werr != nil {
				return &Error{Op: "write pty", Err: werr}
			}
		}
		if err != nil {
			return &Error{Op: "read stdin", Err: err}
		}
	}
}

func logEnd(err error) {
	// EOF and EIO are how a pty master reports that the child side closed.
	if errors.Is(err, io.EOF) || errors.Is(err, syscall.EIO) || errors.Is(err, os.ErrClosed) {
		log.Debug("%v (end of stream)", err)
		return
	}
	log.Debug("relay stopped: %v", err)
}
