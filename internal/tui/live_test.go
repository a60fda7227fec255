package tui

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderWritesFromOrigin(t *testing.T) {
	var buf bytes.Buffer
	r := NewDiffRenderer(&buf)

	if err := r.Render([]string{"a", "b"}); err != nil {
		t.Fatal(err)
	}
	want := cursorHome + clearLine + "a\n" + clearLine + "b\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestRenderShrinkClearsTrailingLines(t *testing.T) {
	var buf bytes.Buffer
	r := NewDiffRenderer(&buf)

	_ = r.Render([]string{"1", "2", "3", "4", "5"})
	buf.Reset()

	if err := r.Render([]string{"x", "y"}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	body := cursorHome + clearLine + "x\n" + clearLine + "y\n"
	if !strings.HasPrefix(out, body) {
		t.Fatalf("expected new lines first, got %q", out)
	}
	tail := strings.TrimPrefix(out, body)
	if tail != strings.Repeat(clearLine+"\n", 3) {
		t.Errorf("expected exactly 3 trailing clears, got %q", tail)
	}
	if n := strings.Count(out, clearLine); n != 5 {
		t.Errorf("expected 5 clear-line escapes in total, got %d", n)
	}
}

func TestRenderRewritesUnchangedLines(t *testing.T) {
	var buf bytes.Buffer
	r := NewDiffRenderer(&buf)

	_ = r.Render([]string{"same"})
	buf.Reset()
	_ = r.Render([]string{"same"})

	if !strings.Contains(buf.String(), "same") {
		t.Error("positional diff must rewrite every line")
	}
	if strings.Contains(buf.String(), clearScreen) {
		t.Error("render must not clear the screen")
	}
}

func TestReset(t *testing.T) {
	var buf bytes.Buffer
	r := NewDiffRenderer(&buf)
	_ = r.Render([]string{"1", "2", "3"})

	buf.Reset()
	if err := r.Reset(); err != nil {
		t.Fatal(err)
	}
	if buf.String() != clearScreen {
		t.Errorf("expected clear screen, got %q", buf.String())
	}
	if len(r.LastLines()) != 0 {
		t.Error("reset should forget the previous frame")
	}

	buf.Reset()
	_ = r.Render([]string{"only"})
	if strings.Count(buf.String(), clearLine) != 1 {
		t.Errorf("no trailing clears expected after reset, got %q", buf.String())
	}
}

func TestDisabledRendererTracksFrames(t *testing.T) {
	var buf bytes.Buffer
	r := NewDiffRenderer(&buf)
	r.SetEnabled(false)

	_ = r.Start()
	_ = r.Render([]string{"a", "b", "c"})
	_ = r.Stop()
	if buf.Len() != 0 {
		t.Errorf("disabled renderer wrote %q", buf.String())
	}
	if len(r.LastLines()) != 3 {
		t.Error("disabled renderer should still remember the frame")
	}
}

func TestRenderCopiesInput(t *testing.T) {
	r := NewDiffRenderer(&bytes.Buffer{})
	lines := []string{"a", "b"}
	_ = r.Render(lines)
	lines[0] = "mutated"
	if r.LastLines()[0] != "a" {
		t.Error("renderer must not alias the caller's slice")
	}
}

func TestReaderLines(t *testing.T) {
	spheres := [][3]string{{"+1234.56", "-6543.21", "+1112.22"}, {"+0000.00", "+0000.00", "+0000.00"}}
	lines := ReaderLines(spheres, Status{RecordKey: "c", ExportKey: "e", Recorded: 2})
	text := strings.Join(lines, "\n")

	for _, want := range []string{"NDI Transformation Reader", "Sphere 1:", "Sphere 2:", "+1234.56", "recorded: 2", "'c'", "'e'"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in screen:\n%s", want, text)
		}
	}
	if strings.Contains(text, "OOV") {
		t.Error("OOV warning shown without OutOfRange")
	}

	oov := strings.Join(ReaderLines(nil, Status{OutOfRange: true}), "\n")
	if !strings.Contains(oov, "OOV") || !strings.Contains(oov, "no markers") {
		t.Errorf("unexpected OOV screen:\n%s", oov)
	}
}

func TestExportLines(t *testing.T) {
	text := strings.Join(ExportLines("/tmp/Coordinates.txt", 3), "\n")
	if !strings.Contains(text, "/tmp/Coordinates.txt") || !strings.Contains(text, "total records: 3") {
		t.Errorf("unexpected export screen:\n%s", text)
	}
}
