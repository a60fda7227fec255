// Package keys answers "is this key pressed" for the reader's poll loop.
package keys

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/x/term"
)

// Input is the key facade the reader polls once per cycle per key.
type Input interface {
	IsPressed(key string) bool
}

// Func adapts a function to Input.
type Func func(key string) bool

func (f Func) IsPressed(key string) bool { return f(key) }

var ErrNotTerminal = errors.New("keys: stdin is not a terminal")

const ctrlC = 0x03

// Terminal reads raw key bytes from stdin. Each byte read counts as one
// press, which IsPressed consumes.
type Terminal struct {
	mu        sync.Mutex
	pending   map[string]int
	fd        uintptr
	state     *term.State
	interrupt chan struct{}
	once      sync.Once
}

// OpenTerminal switches stdin to raw mode and starts reading keys.
func OpenTerminal() (*Terminal, error) {
	fd := os.Stdin.Fd()
	if !term.IsTerminal(fd) {
		return nil, ErrNotTerminal
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("raw mode: %w", err)
	}
	t := newTerminal()
	t.fd, t.state = fd, state
	go t.read(os.Stdin)
	return t, nil
}

func newTerminal() *Terminal {
	return &Terminal{
		pending:   make(map[string]int),
		interrupt: make(chan struct{}),
	}
}

func (t *Terminal) read(r io.Reader) {
	buf := make([]byte, 16)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			if b == ctrlC {
				t.once.Do(func() { close(t.interrupt) })
				continue
			}
			t.mu.Lock()
			t.pending[string(rune(b))]++
			t.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

func (t *Terminal) IsPressed(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending[key] == 0 {
		return false
	}
	t.pending[key]--
	return true
}

// Interrupted is closed when ctrl+c is read. Raw mode swallows the signal,
// so callers select on this instead.
func (t *Terminal) Interrupted() <-chan struct{} { return t.interrupt }

// Close restores the terminal mode.
func (t *Terminal) Close() error {
	if t.state == nil {
		return nil
	}
	return term.Restore(t.fd, t.state)
}

// Static is a fixed set of keys that always read as pressed.
type Static map[string]bool

func (s Static) IsPressed(key string) bool { return s[key] }
