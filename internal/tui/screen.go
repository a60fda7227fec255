package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const frameWidth = 60

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("240")).
			Width(frameWidth-2).
			Align(lipgloss.Center)
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("49"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
)

func rule() string { return strings.Repeat("─", frameWidth) }

// Title renders a boxed banner and splits it into screen lines.
func Title(text ...string) []string {
	return strings.Split(titleStyle.Render(strings.Join(text, "\n")), "\n")
}

// Status describes the reader for the live screen.
type Status struct {
	RecordKey  string
	ExportKey  string
	Recorded   int
	Tick       int
	Discarded  int
	DeviceInfo string
	OutOfRange bool
}

// ReaderLines formats the live screen: banner, key help, counters and one
// X/Y/Z line per sphere from already decoded tokens.
func ReaderLines(spheres [][3]string, st Status) []string {
	lines := Title("NDI Transformation Reader")
	lines = append(lines,
		"",
		hintStyle.Render(fmt.Sprintf("press '%s' to record | press '%s' to export and exit", st.RecordKey, st.ExportKey)),
		fmt.Sprintf("recorded: %d", st.Recorded),
	)
	if st.DeviceInfo != "" {
		lines = append(lines, hintStyle.Render(st.DeviceInfo))
	}
	if st.OutOfRange {
		lines = append(lines, warnStyle.Render("status: OOV (marker out of volume)"))
	}
	lines = append(lines, rule(), "", sectionStyle.Render("current coordinates"))

	for i, s := range spheres {
		lines = append(lines,
			fmt.Sprintf("  Sphere %d:", i+1),
			fmt.Sprintf("    X: %12s  Y: %12s  Z: %12s", s[0], s[1], s[2]),
		)
	}
	if len(spheres) == 0 {
		lines = append(lines, hintStyle.Render("  (no markers)"))
	}
	return append(lines, "", rule())
}

func StartupLines(info ...string) []string {
	lines := Title("NDI Transformation Reader", "flicker-free display")
	lines = append(lines, "")
	lines = append(lines, info...)
	return append(lines, "", "initializing tracker...")
}

func ExportLines(path string, records int) []string {
	lines := append([]string{""}, Title("Export complete")...)
	return append(lines,
		"",
		okStyle.Render("✓ coordinates exported to: "+path),
		okStyle.Render(fmt.Sprintf("✓ total records: %d", records)),
		"",
	)
}
