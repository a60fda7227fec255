package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/ndisim/internal/codec"
	"github.com/san-kum/ndisim/internal/tracker"
)

const (
	width           = 72
	height          = 22
	historyCapacity = 600
	trailLength     = 40
	// tracker units per millimetre of axis range
	unitsPerMM = 1000
)

var axisNames = [codec.Dims]string{"X", "Y", "Z"}

type TickMsg time.Time

// Model samples the simulator on every tick and draws the spheres inside
// the tracking volume, with a trail per sphere and a plot of one axis.
type Model struct {
	sim       *tracker.Simulator
	names     []string
	halfRange float64
	interval  time.Duration

	canvas *Canvas
	camera *Camera

	history  [][]codec.Point3
	frame    string
	frames   int
	selected int
	axis     int
	running  bool
	showHelp bool
}

// NewModel views sim. names label the spheres in order; axisRange is the
// half-width of the tracking volume in millimetres.
func NewModel(sim *tracker.Simulator, names []string, axisRange int, interval time.Duration) Model {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	labels := make([]string, sim.Len())
	for i := range labels {
		if i < len(names) && names[i] != "" {
			labels[i] = names[i]
		} else {
			labels[i] = fmt.Sprintf("Sphere %d", i+1)
		}
	}
	return Model{
		sim:       sim,
		names:     labels,
		halfRange: float64(axisRange) * unitsPerMM,
		interval:  interval,
		canvas:    NewCanvas(width, height),
		camera:    NewCamera(),
		history:   make([][]codec.Point3, 0, historyCapacity),
		running:   true,
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return m.tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.history = m.history[:0]
		case "tab":
			if n := len(m.names); n > 0 {
				m.selected = (m.selected + 1) % n
			}
		case "a":
			m.axis = (m.axis + 1) % codec.Dims
		case "t":
			nextTheme()
		case "?":
			m.showHelp = !m.showHelp
		case "x":
			m.camera.RotateX(0.1)
		case "X":
			m.camera.RotateX(-0.1)
		case "y":
			m.camera.RotateY(0.1)
		case "Y":
			m.camera.RotateY(-0.1)
		case "z":
			m.camera.RotateZ(0.1)
		case "Z":
			m.camera.RotateZ(-0.1)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, m.tick()
	}
	return m, nil
}

// step samples the simulator once and keeps the wire frame it would send.
func (m *Model) step() {
	points := m.sim.Positions()
	m.frame = m.sim.WireFrame(points)
	m.frames++
	m.history = append(m.history, points)
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
}

// Series returns the recorded values of one axis of one sphere.
func (m Model) Series(sphere, axis int) []float64 {
	out := make([]float64, 0, len(m.history))
	for _, pts := range m.history {
		if sphere >= len(pts) {
			continue
		}
		p := pts[sphere]
		out = append(out, float64([codec.Dims]int{p.X, p.Y, p.Z}[axis]))
	}
	return out
}

func (m *Model) draw() {
	m.canvas.Clear()
	drawBox(m.canvas, m.camera)
	if len(m.history) == 0 {
		return
	}

	sw, sh := m.canvas.PixelSize()
	start := max(0, len(m.history)-trailLength)
	for _, pts := range m.history[start : len(m.history)-1] {
		for _, p := range pts {
			if x, y, ok := m.camera.Project(worldVec(p, m.halfRange), sw, sh); ok {
				m.canvas.Set(x, y)
			}
		}
	}
	for _, p := range m.history[len(m.history)-1] {
		if x, y, ok := m.camera.Project(worldVec(p, m.halfRange), sw, sh); ok {
			m.canvas.Marker(x, y)
		}
	}
}

func (m Model) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle.Render("VIRTUAL NDI TRACKER") + "\n")
	status := "RUNNING"
	if !m.running {
		status = "PAUSED"
	}
	s.WriteString(fmt.Sprintf("%s  frames: %d\n\n", status, m.frames))

	var current []codec.Point3
	if len(m.history) > 0 {
		current = m.history[len(m.history)-1]
	}
	for i, name := range m.names {
		line := fmt.Sprintf("%-12s", truncate(name, 12))
		if i < len(current) {
			line += " " + strings.Join(codec.Encode(codec.Flatten(current[i:i+1]), m.sim.Width()), " ")
			if outside(current[i], m.halfRange) {
				line += warnStyle.Render(" !")
			}
		}
		if i == m.selected {
			s.WriteString(activeStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + valueStyle.Render(line) + "\n")
		}
	}

	series := m.Series(m.selected, m.axis)
	if len(series) > 1 {
		caption := fmt.Sprintf("%s %s", m.names[m.selected], axisNames[m.axis])
		chart := asciigraph.Plot(series, asciigraph.Height(5), asciigraph.Width(36), asciigraph.Caption(caption))
		s.WriteString(graphStyle.Render(chart) + "\n")
		s.WriteString(labelStyle.Render("recent") + valueStyle.Render(Sparkline(series, 30)) + "\n")
	}
	if m.frame != "" {
		s.WriteString(labelStyle.Render("wire") + valueStyle.Render(truncate(m.frame, 36)) + "\n")
	}

	s.WriteString(helpStyle.Render("SP:Pause TAB:Sphere A:Axis R:Reset\nxyz/XYZ:Rotate +/-:Zoom T:Theme Q:Quit"))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
  Space    pause or resume sampling
  Tab      select the next sphere
  A        plot the next axis
  R        clear trails and plot
  x/X y/Y z/Z  rotate the volume
  +/-      zoom
  T        cycle themes
  Q        quit`

func outside(p codec.Point3, halfRange float64) bool {
	for _, v := range []int{p.X, p.Y, p.Z} {
		if math.Abs(float64(v)) > halfRange {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

// Run shows the live view until the user quits.
func Run(sim *tracker.Simulator, names []string, axisRange int, interval time.Duration) error {
	_, err := tea.NewProgram(NewModel(sim, names, axisRange, interval), tea.WithAltScreen()).Run()
	return err
}
