// Package export renders tracker data as standalone SVG documents: a braille
// canvas snapshot of the tracking volume, or the path one sphere took across
// the records of a run.
package export

import (
	"errors"
	"fmt"
	"strings"

	"github.com/san-kum/ndisim/internal/codec"
	"github.com/san-kum/ndisim/internal/store"
	"github.com/san-kum/ndisim/internal/viz"
)

var (
	ErrTooFewPoints = errors.New("export: need at least two points")
	ErrBadPlane     = errors.New("export: plane must be two of x, y, z")
	ErrNoSphere     = errors.New("export: sphere not present in every record")
)

// braille dot bits by [row][column] inside one cell
var pixelMap = [4][2]int{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// Point is a 2-D point in data units.
type Point struct{ X, Y float64 }

// CanvasToSVG draws every lit braille dot of canvas as a circle.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2
	height := float64(canvas.Height) * scale * 4

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="#00ff00">
`, width, height, width, height)

	dotRadius := scale * 0.4
	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			r := canvas.Grid[row][col]
			if r < 0x2800 {
				continue
			}
			pattern := int(r - 0x2800)
			baseX := float64(col) * scale * 2
			baseY := float64(row) * scale * 4

			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] == 0 {
						continue
					}
					cx := baseX + float64(dx)*scale + scale/2
					cy := baseY + float64(dy)*scale + scale/2
					fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
				}
			}
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// TrajectoryToSVG draws points as one polyline scaled into width x height
// with a 10% margin. Fewer than two points give an empty string.
func TrajectoryToSVG(points []Point, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor)

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)
		if i > 0 {
			sb.WriteString(" L")
		}
		fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
	}

	sb.WriteString("\"/>\n</svg>")
	return sb.String()
}

// SamplePath projects one sphere's recorded positions onto a plane such as
// "xy" or "xz". sphere is zero-based.
func SamplePath(samples []store.Sample, sphere int, plane string) ([]Point, error) {
	a, b, err := planeAxes(plane)
	if err != nil {
		return nil, err
	}

	out := make([]Point, 0, len(samples))
	for _, s := range samples {
		if sphere < 0 || sphere >= len(s.Spheres) {
			return nil, fmt.Errorf("%w: %d (record at tick %d has %d)", ErrNoSphere, sphere+1, s.Tick, len(s.Spheres))
		}
		x, err := codec.TokenFloat(s.Spheres[sphere][a])
		if err != nil {
			return nil, err
		}
		y, err := codec.TokenFloat(s.Spheres[sphere][b])
		if err != nil {
			return nil, err
		}
		out = append(out, Point{X: x, Y: y})
	}
	if len(out) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewPoints, len(out))
	}
	return out, nil
}

func planeAxes(plane string) (int, int, error) {
	plane = strings.ToLower(plane)
	if len(plane) != 2 || plane[0] == plane[1] {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadPlane, plane)
	}
	idx := func(c byte) int { return strings.IndexByte("xyz", c) }
	a, b := idx(plane[0]), idx(plane[1])
	if a < 0 || b < 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadPlane, plane)
	}
	return a, b, nil
}
