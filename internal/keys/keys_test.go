package keys

import (
	"strings"
	"testing"
	"time"
)

func TestTerminalLatchesPresses(t *testing.T) {
	term := newTerminal()
	term.read(strings.NewReader("cce"))

	if !term.IsPressed("c") || !term.IsPressed("c") {
		t.Error("expected two presses of c")
	}
	if term.IsPressed("c") {
		t.Error("c presses should be consumed")
	}
	if !term.IsPressed("e") {
		t.Error("expected a press of e")
	}
	if term.IsPressed("x") {
		t.Error("x was never pressed")
	}
}

func TestTerminalInterrupt(t *testing.T) {
	term := newTerminal()
	term.read(strings.NewReader("a\x03\x03"))

	select {
	case <-term.Interrupted():
	case <-time.After(time.Second):
		t.Fatal("ctrl+c should close the interrupt channel")
	}
	if !term.IsPressed("a") {
		t.Error("expected a press of a")
	}
	if err := term.Close(); err != nil {
		t.Errorf("close without raw mode should be a no-op, got %v", err)
	}
}

func TestFunc(t *testing.T) {
	in := Func(func(k string) bool { return k == "c" })
	if !in.IsPressed("c") || in.IsPressed("e") {
		t.Error("unexpected Func result")
	}
}

func TestStatic(t *testing.T) {
	in := Static{"e": true}
	if !in.IsPressed("e") || !in.IsPressed("e") {
		t.Error("static keys stay pressed")
	}
	if in.IsPressed("c") {
		t.Error("c is not in the set")
	}
}
