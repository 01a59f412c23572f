// ABOUTME: Tests for the I/O relay: passthrough, queueing, independent duties
// ABOUTME: Uses in-memory pipes in place of the pty master and real terminal

package relay

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

// fakePTY reads child output from r and records what the relay writes to it.
type fakePTY struct {
	r io.Reader

	mu      sync.Mutex
	written bytes.Buffer
	werr    error
}

func (p *fakePTY) Read(b []byte) (int, error) { return p.r.Read(b) }

func (p *fakePTY) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.werr != nil {
		return 0, p.werr
	}
	return p.written.Write(b)
}

func (p *fakePTY) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.String()
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type errWriter struct{}

func (errWriter) Write([]byte) (int, error) { return 0, errors.New("stdout closed") }

func drain(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	var got []byte
	timeout := time.After(5 * time.Second)
	for {
		select {
		case chunk, ok := <-ch:
			if !ok {
				return got
			}
			got = append(got, chunk...)
		case <-timeout:
			t.Fatal("output queue was never closed")
		}
	}
}

func TestRelay_OutputPassthroughAndQueue(t *testing.T) {
	t.Parallel()

	pty := &fakePTY{r: bytes.NewReader([]byte("hello\r\nworld"))}
	var stdout syncBuffer

	r := New(pty, nil, &stdout, nil)
	r.Start(context.Background())

	got := drain(t, r.Output())
	r.Wait()

	if string(got) != "hello\r\nworld" {
		t.Errorf("queued = %q", got)
	}
	if stdout.String() != "hello\r\nworld" {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestRelay_InputForwarded(t *testing.T) {
	t.Parallel()

	pty := &fakePTY{r: bytes.NewReader(nil)}
	r := New(pty, bytes.NewReader([]byte("y\r")), io.Discard, nil)
	r.Start(context.Background())
	r.Wait()

	if got := pty.String(); got != "y\r" {
		t.Errorf("pty received %q, want %q", got, "y\r")
	}
}

func TestRelay_StdoutFailureEndsOnlyOutput(t *testing.T) {
	t.Parallel()

	pty := &fakePTY{r: bytes.NewReader([]byte("data"))}
	stdinR, stdinW := io.Pipe()

	r := New(pty, stdinR, errWriter{}, nil)
	r.Start(context.Background())

	if got := drain(t, r.Output()); len(got) != 0 {
		t.Errorf("queued %q after stdout failure, want nothing", got)
	}

	// The input duty is still alive.
	if _, err := stdinW.Write([]byte("still here")); err != nil {
		t.Fatal(err)
	}
	_ = stdinW.Close()
	r.Wait()

	if got := pty.String(); got != "still here" {
		t.Errorf("pty received %q", got)
	}
}

func TestRelay_PTYWriteFailureEndsOnlyInput(t *testing.T) {
	t.Parallel()

	outR, outW := io.Pipe()
	pty := &fakePTY{r: outR, werr: errors.New("pty gone")}

	r := New(pty, bytes.NewReader([]byte("typed")), io.Discard, nil)
	r.Start(context.Background())

	go func() {
		_, _ = outW.Write([]byte("after input failed"))
		_ = outW.Close()
	}()

	if got := drain(t, r.Output()); string(got) != "after input failed" {
		t.Errorf("queued = %q", got)
	}
	r.Wait()
}

func TestRelay_CancelUnblocksFullQueue(t *testing.T) {
	t.Parallel()

	// More chunks than the queue holds, and nobody consuming.
	outR, outW := io.Pipe()
	go func() {
		for range QueueSize + 10 {
			if _, err := outW.Write([]byte("x")); err != nil {
				return
			}
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	r := New(&fakePTY{r: outR}, nil, io.Discard, nil)
	r.Start(ctx)

	time.Sleep(50 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		r.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("relay did not stop after cancellation")
	}
	_ = outW.Close()
}

func TestError(t *testing.T) {
	t.Parallel()

	err := &Error{Op: "read pty", Err: io.EOF}
	if !errors.Is(err, io.EOF) {
		t.Error("Error should unwrap to its cause")
	}
	if got, want := err.Error(), "relay read pty: EOF"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
