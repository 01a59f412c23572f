// ABOUTME: Session controller: spawns the wrapped command on a pty and runs the event loop
// ABOUTME: Feeds child output to the screen model and fires hooks on settled frames

package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/google/uuid"

	"github.com/mauromedda/screenhook/internal/config"
	"github.com/mauromedda/screenhook/internal/frame"
	"github.com/mauromedda/screenhook/internal/hooks"
	"github.com/mauromedda/screenhook/internal/log"
	"github.com/mauromedda/screenhook/internal/relay"
	"github.com/mauromedda/screenhook/internal/screen"
	"github.com/mauromedda/screenhook/internal/terminal"
)

const (
	// TickInterval paces frame checks and child-exit polling.
	TickInterval = 10 * time.Millisecond

	// DefaultDrainTimeout bounds how long output is still relayed after
	// the child has exited.
	DefaultDrainTimeout = 200 * time.Millisecond
)

// Options configures a session.
type Options struct {
	// Command is the program and its arguments.
	Command []string

	// Hooks are evaluated in order on every frame. Empty means passthrough.
	Hooks []config.HookDef

	// Stdin defaults to os.Stdin.
	Stdin io.Reader

	// Stdout defaults to os.Stdout.
	Stdout io.Writer

	// Terminal is the operator's terminal. When nil and Stdin is an
	// *os.File, a ProcessTerminal on Stdin is used.
	Terminal terminal.Terminal

	// Executor runs triggered commands. Defaults to a ShellExecutor that
	// exports the session ID.
	Executor hooks.Executor

	// SessionID defaults to a random UUID.
	SessionID string

	// DrainTimeout defaults to DefaultDrainTimeout.
	DrainTimeout time.Duration
}

func (o *Options) setDefaults() {
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Terminal == nil {
		if f, ok := o.Stdin.(*os.File); ok {
			o.Terminal = terminal.NewProcessTerminal(f)
		}
	}
	if o.SessionID == "" {
		o.SessionID = uuid.NewString()
	}
	if o.Executor == nil {
		o.Executor = hooks.NewShellExecutor(hooks.SessionIDEnv + "=" + o.SessionID)
	}
	if o.DrainTimeout <= 0 {
		o.DrainTimeout = DefaultDrainTimeout
	}
}

// Run wraps opts.Command until it exits and returns its exit code: the
// child's own code, or 128+signal when a signal killed it. A non-nil error
// means the session never started; the code is then 1.
//
// Cancelling ctx sends SIGHUP to the child once. Run still returns only
// after the child has exited.
func Run(ctx context.Context, opts Options) (int, error) {
	opts.setDefaults()

	engine, err := hooks.NewEngine(opts.Hooks)
	if err != nil {
		return 1, err
	}
	if len(opts.Command) == 0 {
		return 1, &SetupError{Op: "start", Err: errors.New("no command given")}
	}

	term := opts.Terminal
	interactive := term != nil && term.IsTerminal()
	if interactive {
		if err := term.Save(); err != nil {
			return 1, &SetupError{Op: "save terminal", Err: err}
		}
		// Restores at most once, whichever way Run exits.
		defer func() {
			if err := term.ExitRawMode(); err != nil {
				log.Warn("restoring terminal: %v", err)
			}
		}()
	}

	rows, cols := screen.DefaultRows, screen.DefaultCols
	if interactive {
		if w, h, err := term.Size(); err == nil && w > 0 && h > 0 {
			rows, cols = h, w
		}
	}

	cmd := exec.Command(opts.Command[0], opts.Command[1:]...)
	// StartWithSize makes the child a session leader with the pty slave as
	// its controlling terminal, and closes the slave in this process.
	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
	if err != nil {
		return 1, &SetupError{Op: "spawn " + opts.Command[0], Err: err}
	}
	defer ptmx.Close()

	pid := cmd.Process.Pid
	log.Info("session %s: started %q (pid %d, %dx%d)", opts.SessionID, opts.Command, pid, cols, rows)

	if interactive {
		if err := term.EnterRawMode(); err != nil {
			abandon(cmd)
			return 1, &SetupError{Op: "raw mode", Err: err}
		}
		if err := term.MirrorTo(ptmx); err != nil {
			abandon(cmd)
			return 1, &SetupError{Op: "mirror terminal attributes", Err: err}
		}
	}

	s := &session{
		opts:   opts,
		pid:    pid,
		proc:   cmd.Process,
		ptmx:   ptmx,
		screen: screen.New(rows, cols),
		frames: frame.NewDetector(),
		engine: engine,
	}
	return s.loop(ctx)
}

// abandon kills and reaps a child whose session could not be set up.
func abandon(cmd *exec.Cmd) {
	_ = cmd.Process.Kill()
	_ = cmd.Wait()
}

type session struct {
	opts   Options
	pid    int
	proc   *os.Process
	ptmx   *os.File
	screen *screen.Screen
	frames *frame.Detector
	engine *hooks.Engine

	// dirty is set when output arrived since the last snapshot.
	dirty bool
}

type size struct {
	width, height int
}

func (s *session) loop(ctx context.Context) (int, error) {
	relayCtx, stopRelay := context.WithCancel(context.Background())
	defer stopRelay()

	r := relay.New(s.ptmx, s.opts.Stdin, s.opts.Stdout, s.opts.Terminal)
	r.Start(relayCtx)
	output := r.Output()

	resized := make(chan size, 1)
	if s.opts.Terminal != nil && s.opts.Terminal.IsTerminal() {
		stop := s.opts.Terminal.OnResize(func(w, h int) {
			// Keep only the latest size if the loop is behind.
			select {
			case <-resized:
			default:
			}
			resized <- size{width: w, height: h}
		})
		defer stop()
	}

	var hangup sync.Once
	done := ctx.Done()

	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-output:
			if !ok {
				// Output ended; the child's exit is still detected on the tick.
				output = nil
				continue
			}
			s.feed(data)

		case sz := <-resized:
			s.resize(sz)

		case <-done:
			done = nil
			hangup.Do(func() {
				log.Info("session %s: context done, sending SIGHUP to pid %d", s.opts.SessionID, s.pid)
				_ = s.proc.Signal(syscall.SIGHUP)
			})

		case <-ticker.C:
			s.checkFrame()

			code, exited, err := pollExit(s.pid)
			if err != nil {
				return 1, fmt.Errorf("waiting for pid %d: %w", s.pid, err)
			}
			if !exited {
				continue
			}
			// The child was reaped by wait4; only release the handle.
			_ = s.proc.Release()
			log.Info("session %s: pid %d exited with code %d", s.opts.SessionID, s.pid, code)
			s.drain(output)
			return code, nil
		}
	}
}

func (s *session) feed(data []byte) {
	s.screen.Process(data)
	s.frames.OnData(data)
	s.dirty = true
}

func (s *session) checkFrame() {
	if !s.dirty || !s.frames.ShouldCaptureFrame() {
		return
	}
	prev, cur := s.screen.TakeSnapshot()
	s.dirty = false
	if cmds := s.engine.Evaluate(prev, cur); len(cmds) > 0 {
		s.opts.Executor.Execute(cmds)
	}
	s.frames.Reset()
}

func (s *session) resize(sz size) {
	if sz.width <= 0 || sz.height <= 0 {
		return
	}
	if err := pty.Setsize(s.ptmx, &pty.Winsize{Rows: uint16(sz.height), Cols: uint16(sz.width)}); err != nil {
		log.Warn("resizing pty: %v", err)
		return
	}
	// Not marked dirty: the next snapshot waits for the redraw, so text
	// that survives the resize is not seen as new.
	s.screen.Resize(sz.height, sz.width)
	log.Debug("session %s: resized to %dx%d", s.opts.SessionID, sz.width, sz.height)
}

// drain keeps consuming output that was still buffered in the pty when the
// child exited, so the tail reaches stdout. A grandchild holding the slave
// open would keep the stream alive forever, hence the timeout.
func (s *session) drain(output <-chan []byte) {
	if output == nil {
		return
	}
	timeout := time.NewTimer(s.opts.DrainTimeout)
	defer timeout.Stop()

	for {
		select {
		case data, ok := <-output:
			if !ok {
				return
			}
			s.feed(data)
		case <-timeout.C:
			log.Debug("session %s: output still open after %s, giving up", s.opts.SessionID, s.opts.DrainTimeout)
			return
		}
	}
}
