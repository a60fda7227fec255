package tui

import (
	"bufio"
	"io"
	"os"
)

const (
	cursorHome  = "\033[H"
	clearLine   = "\033[K"
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// DiffRenderer redraws a block of lines in place. It homes the cursor and
// overwrites line by line instead of clearing the screen, so the terminal
// never shows a blank frame. The diff is positional: every line is
// rewritten, and lines the previous frame had beyond the new one are
// erased.
type DiffRenderer struct {
	out       io.Writer
	lastLines []string
	enabled   bool
}

func NewDiffRenderer(out io.Writer) *DiffRenderer {
	if out == nil {
		out = os.Stdout
	}
	return &DiffRenderer{out: out, enabled: true}
}

// SetEnabled turns output on or off. A disabled renderer still tracks the
// previous frame.
func (r *DiffRenderer) SetEnabled(on bool) { r.enabled = on }

// Reset clears the whole screen and forgets the previous frame.
func (r *DiffRenderer) Reset() error {
	r.lastLines = nil
	if !r.enabled {
		return nil
	}
	_, err := io.WriteString(r.out, clearScreen)
	return err
}

func (r *DiffRenderer) Render(lines []string) error {
	prev := len(r.lastLines)
	r.lastLines = append(r.lastLines[:0:0], lines...)
	if !r.enabled {
		return nil
	}

	w := bufio.NewWriter(r.out)
	w.WriteString(cursorHome)
	for _, line := range lines {
		w.WriteString(clearLine)
		w.WriteString(line)
		w.WriteByte('\n')
	}
	for i := len(lines); i < prev; i++ {
		w.WriteString(clearLine)
		w.WriteByte('\n')
	}
	return w.Flush()
}

// LastLines returns a copy of the previously rendered frame.
func (r *DiffRenderer) LastLines() []string {
	return append([]string(nil), r.lastLines...)
}

func (r *DiffRenderer) Start() error {
	if !r.enabled {
		return nil
	}
	_, err := io.WriteString(r.out, hideCursor)
	return err
}

func (r *DiffRenderer) Stop() error {
	if !r.enabled {
		return nil
	}
	_, err := io.WriteString(r.out, showCursor)
	return err
}
