package viz

import (
	"math"

	"github.com/san-kum/ndisim/internal/codec"
)

type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// worldVec maps tracker coordinates into the unit cube given the half-width
// of the tracking volume in the same units.
func worldVec(p codec.Point3, halfRange float64) Vec3 {
	if halfRange <= 0 {
		halfRange = 1
	}
	return Vec3{float64(p.X), float64(p.Y), float64(p.Z)}.Scale(1 / halfRange)
}

// Camera is a rotate-then-perspective projection looking down -Z.
type Camera struct {
	Distance         float64
	Near             float64
	RotX, RotY, RotZ float64
	Zoom             float64
}

func NewCamera() *Camera {
	// a slight tilt so the Z axis is visible from the start
	return &Camera{Distance: 50, Near: 0.1, RotX: -0.5, RotY: 0.4, Zoom: 1.0}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }

func (c *Camera) RotateY(a float64) { c.RotY += a }

func (c *Camera) RotateZ(a float64) { c.RotZ += a }

func (c *Camera) ZoomIn() { c.Zoom = math.Min(10, c.Zoom*1.2) }

func (c *Camera) ZoomOut() { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

func (c *Camera) rotate(p Vec3) Vec3 {
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	p.X, p.Z = p.X*cy+p.Z*sy, -p.X*sy+p.Z*cy
	cz, sz := math.Cos(c.RotZ), math.Sin(c.RotZ)
	p.X, p.Y = p.X*cz-p.Y*sz, p.X*sz+p.Y*cz
	return p
}

// Project maps a point to pixel coordinates on a sw x sh surface and
// reports whether it lands on it.
func (c *Camera) Project(p Vec3, sw, sh int) (int, int, bool) {
	rot := c.rotate(p).Scale(c.Zoom)
	if rot.Z >= c.Distance-c.Near {
		return 0, 0, false
	}
	scale := c.Distance / (c.Distance - rot.Z)
	pScale := float64(min(sw, sh)) / 3.0
	sx := int(rot.X*scale*pScale) + sw/2
	sy := int(-rot.Y*scale*pScale) + sh/2
	return sx, sy, sx >= 0 && sx < sw && sy >= 0 && sy < sh
}

// drawBox outlines the unit tracking volume.
func drawBox(cv *Canvas, cam *Camera) {
	v := []Vec3{{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1}, {-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1}}
	edges := [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}, {4, 5}, {5, 6}, {6, 7}, {7, 4}, {0, 4}, {1, 5}, {2, 6}, {3, 7}}
	sw, sh := cv.PixelSize()
	for _, e := range edges {
		x1, y1, ok1 := cam.Project(v[e[0]], sw, sh)
		x2, y2, ok2 := cam.Project(v[e[1]], sw, sh)
		if ok1 || ok2 {
			cv.DrawLine(x1, y1, x2, y2)
		}
	}
}

// Snapshot draws the tracking volume and one marker per point on a fresh
// canvas of w x h cells. axisRange is the volume half-width in millimetres.
func Snapshot(points []codec.Point3, axisRange, w, h int) *Canvas {
	cv := NewCanvas(w, h)
	cam := NewCamera()
	drawBox(cv, cam)
	sw, sh := cv.PixelSize()
	half := float64(axisRange) * unitsPerMM
	for _, p := range points {
		if x, y, ok := cam.Project(worldVec(p, half), sw, sh); ok {
			cv.Marker(x, y)
		}
	}
	return cv
}
