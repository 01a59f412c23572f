// ABOUTME: Virtual screen that turns a control-sequence byte stream into plaintext
// ABOUTME: Wraps a vt10x emulator; keeps the previous and current rendered snapshots

package screen

import (
	"io"
	"strings"
	"unicode/utf8"

	"github.com/tuzig/vt10x"
)

// Default grid dimensions used when no terminal size is known.
const (
	DefaultRows = 24
	DefaultCols = 80
)

// Screen is an incremental terminal emulator producing plaintext snapshots.
// It is not safe for concurrent use; the session loop owns it.
type Screen struct {
	vt      vt10x.Terminal
	rows    int
	cols    int
	pending []byte // incomplete trailing UTF-8 sequence from the last chunk

	previous string
	current  string
}

// New returns a screen of the given size. Non-positive dimensions fall back
// to the defaults.
func New(rows, cols int) *Screen {
	s := &Screen{}
	s.reset(rows, cols)
	return s
}

// Process feeds a chunk of terminal output into the emulator. Chunks may be
// split anywhere, including inside escape sequences and multi-byte runes.
func (s *Screen) Process(data []byte) {
	if len(data) == 0 {
		return
	}
	if len(s.pending) > 0 {
		data = append(s.pending, data...)
		s.pending = nil
	}

	// Escape-sequence state lives in the emulator, but a rune cut in half
	// would be decoded as garbage, so hold it back until the rest arrives.
	if k := incompleteTail(data); k > 0 {
		s.pending = append([]byte(nil), data[len(data)-k:]...)
		data = data[:len(data)-k]
	}
	if len(data) > 0 {
		_, _ = s.vt.Write(data)
	}
}

// Resize discards the grid and starts a fresh one. Nothing on screen
// survives a resize.
func (s *Screen) Resize(rows, cols int) {
	s.reset(rows, cols)
}

// Size returns the grid dimensions.
func (s *Screen) Size() (rows, cols int) {
	return s.rows, s.cols
}

// TakeSnapshot moves the current snapshot to previous, renders the grid
// into a new current snapshot, and returns both.
func (s *Screen) TakeSnapshot() (previous, current string) {
	s.previous = s.current
	s.current = s.render()
	return s.previous, s.current
}

// Snapshots returns the last pair produced by TakeSnapshot without
// re-rendering.
func (s *Screen) Snapshots() (previous, current string) {
	return s.previous, s.current
}

func (s *Screen) reset(rows, cols int) {
	if rows <= 0 {
		rows = DefaultRows
	}
	if cols <= 0 {
		cols = DefaultCols
	}
	s.rows, s.cols = rows, cols
	s.pending = nil
	// Replies to device queries are not needed; the real terminal answers them.
	s.vt = vt10x.New(vt10x.WithSize(cols, rows), vt10x.WithWriter(io.Discard))
}

// render produces the grid text: each row trimmed of trailing whitespace,
// trailing blank rows dropped.
func (s *Screen) render() string {
	s.vt.Lock()
	defer s.vt.Unlock()

	cols, rows := s.vt.Size()
	lines := make([]string, 0, rows)
	var b strings.Builder
	for y := range rows {
		b.Reset()
		for x := range cols {
			ch := s.vt.Cell(x, y).Char
			if ch == 0 || !utf8.ValidRune(ch) {
				ch = ' '
			}
			b.WriteRune(ch)
		}
		lines = append(lines, strings.TrimRight(b.String(), " \t"))
	}

	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// incompleteTail returns the length of a truncated UTF-8 sequence at the
// end of p, or 0 if p ends on a rune boundary.
func incompleteTail(p []byte) int {
	for k := 1; k <= utf8.UTFMax-1 && k <= len(p); k++ {
		c := p[len(p)-k]
		if utf8.RuneStart(c) {
			if c < utf8.RuneSelf {
				return 0
			}
			if !utf8.FullRune(p[len(p)-k:]) {
				return k
			}
			return 0
		}
	}
	return 0
}
