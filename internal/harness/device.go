package harness

import (
	"context"
	"strings"
	"sync"

	"github.com/san-kum/ndisim/internal/codec"
	"github.com/san-kum/ndisim/internal/device"
	"github.com/san-kum/ndisim/internal/tracker"
)

// SimDevice answers tracker commands from a Simulator. TX polls get a fresh
// frame; every other command gets OK. With OOVEvery > 0 every Nth frame is
// flagged out of volume, keeping its coordinates.
type SimDevice struct {
	mu       sync.Mutex
	sim      *tracker.Simulator
	oovEvery int
	frames   int
	commands []string
}

func NewSimDevice(sim *tracker.Simulator, oovEvery int) *SimDevice {
	return &SimDevice{sim: sim, oovEvery: oovEvery}
}

func (d *SimDevice) Command(_ context.Context, _ device.Handle, cmd string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.commands = append(d.commands, cmd)
	if !strings.HasPrefix(cmd, device.TXPrefix) {
		return device.ReplyOK, nil
	}

	d.frames++
	points := d.sim.Positions()
	if d.oovEvery > 0 && d.frames%d.oovEvery == 0 {
		return d.sim.WireFrameStatus(points, codec.StatusOOV), nil
	}
	return d.sim.WireFrame(points), nil
}

// Frames is the number of TX polls answered.
func (d *SimDevice) Frames() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frames
}

// Commands returns every command received, in order.
func (d *SimDevice) Commands() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.commands))
	copy(out, d.commands)
	return out
}
