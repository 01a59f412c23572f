// ABOUTME: Debounce heuristic deciding when terminal output has settled into a frame
// ABOUTME: Fires after a quiet window or when a long run arrives without a newline

package frame

import "time"

const (
	// DebounceWindow is how long the stream must stay quiet before a frame
	// is considered stable.
	DebounceWindow = 16 * time.Millisecond

	// MaxBytesWithoutNewline forces a frame for streams that keep redrawing
	// without ever emitting a newline.
	MaxBytesWithoutNewline = 4096
)

// Detector tracks output timing for frame-boundary decisions.
// It is not safe for concurrent use.
type Detector struct {
	now               func() time.Time
	lastData          time.Time
	bytesSinceNewline int
}

// NewDetector returns a Detector whose quiet window starts now.
func NewDetector() *Detector {
	return newDetectorWithClock(time.Now)
}

func newDetectorWithClock(now func() time.Time) *Detector {
	return &Detector{
		now:      now,
		lastData: now(),
	}
}

// OnData records the arrival of a chunk of output.
func (d *Detector) OnData(data []byte) {
	d.lastData = d.now()

	for _, b := range data {
		if b == '\n' {
			d.bytesSinceNewline = 0
		} else {
			d.bytesSinceNewline++
		}
	}
}

// ShouldCaptureFrame reports whether the stream has settled, or has run
// past MaxBytesWithoutNewline since the last newline.
func (d *Detector) ShouldCaptureFrame() bool {
	return d.now().Sub(d.lastData) >= DebounceWindow ||
		d.bytesSinceNewline > MaxBytesWithoutNewline
}

// Reset clears the newline-free byte count. The quiet-window clock is
// untouched; only OnData moves it.
func (d *Detector) Reset() {
	d.bytesSinceNewline = 0
}
