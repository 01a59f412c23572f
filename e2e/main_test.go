// ABOUTME: E2E harness: builds the screenhook binary once and drives it inside a pty
// ABOUTME: Helpers collect output, wait for exit, and inspect the outer terminal

package e2e

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

var binPath string

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "screenhook-e2e")
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating temp dir: %v\n", err)
		os.Exit(1)
	}
	binPath = filepath.Join(dir, "screenhook")

	build := exec.Command("go", "build", "-o", binPath, "../cmd/screenhook")
	build.Stdout = os.Stdout
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "building screenhook: %v\n", err)
		_ = os.RemoveAll(dir)
		os.Exit(1)
	}

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

// ptySession is a screenhook process whose stdio is the slave side of a pty,
// so it sees a real interactive terminal.
type ptySession struct {
	cmd  *exec.Cmd
	ptmx *os.File
	tty  *os.File

	// initial holds the outer terminal attributes before screenhook started.
	initial *unix.Termios

	mu  sync.Mutex
	out bytes.Buffer

	readDone chan struct{}
}

func startScreenhook(t *testing.T, args ...string) *ptySession {
	t.Helper()

	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	if err := pty.Setsize(ptmx, &pty.Winsize{Rows: 24, Cols: 80}); err != nil {
		t.Fatal(err)
	}

	initial, err := unix.IoctlGetTermios(int(tty.Fd()), ioctlReadTermios)
	if err != nil {
		t.Fatal(err)
	}

	home := t.TempDir()
	cmd := exec.Command(binPath, args...)
	cmd.Env = append(os.Environ(), "HOME="+home, "XDG_CONFIG_HOME="+home)
	cmd.Stdin = tty
	cmd.Stdout = tty
	cmd.Stderr = tty
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true, Setctty: true}
	if err := cmd.Start(); err != nil {
		_ = ptmx.Close()
		_ = tty.Close()
		t.Fatalf("starting screenhook: %v", err)
	}

	s := &ptySession{cmd: cmd, ptmx: ptmx, tty: tty, initial: initial, readDone: make(chan struct{})}
	go s.readLoop()
	t.Cleanup(s.close)
	return s
}

func (s *ptySession) readLoop() {
	defer close(s.readDone)
	buf := make([]byte, 4096)
	for {
		n, err := s.ptmx.Read(buf)
		if n > 0 {
			s.mu.Lock()
			s.out.Write(buf[:n])
			s.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

func (s *ptySession) output() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out.String()
}

func (s *ptySession) expectString(t *testing.T, want string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if strings.Contains(s.output(), want) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q; output so far:\n%q", want, s.output())
}

func (s *ptySession) send(t *testing.T, text string) {
	t.Helper()
	if _, err := s.ptmx.Write([]byte(text)); err != nil {
		t.Fatalf("writing to pty: %v", err)
	}
}

func (s *ptySession) resize(t *testing.T, rows, cols uint16) {
	t.Helper()
	if err := pty.Setsize(s.ptmx, &pty.Winsize{Rows: rows, Cols: cols}); err != nil {
		t.Fatalf("resizing pty: %v", err)
	}
}

// waitExit waits for screenhook to exit and returns its exit code.
func (s *ptySession) waitExit(t *testing.T, timeout time.Duration) int {
	t.Helper()

	done := make(chan error, 1)
	go func() { done <- s.cmd.Wait() }()

	select {
	case err := <-done:
		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			t.Fatalf("waiting for screenhook: %v", err)
		}
		return s.cmd.ProcessState.ExitCode()
	case <-time.After(timeout):
		_ = s.cmd.Process.Kill()
		t.Fatalf("screenhook did not exit within %s; output:\n%q", timeout, s.output())
		return -1
	}
}

func (s *ptySession) close() {
	if s.cmd.ProcessState == nil {
		_ = s.cmd.Process.Kill()
		_ = s.cmd.Wait()
	}
	_ = s.tty.Close()
	_ = s.ptmx.Close()
	<-s.readDone
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func waitForFile(t *testing.T, path string, timeout time.Duration) []byte {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if data, err := os.ReadFile(path); err == nil && len(data) > 0 {
			return data
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("%s was not written within %s", path, timeout)
	return nil
}
