// Package codec converts between the tracker's fixed-width signed decimal
// coordinate fields and integer point lists.
//
// A field is a sign character followed by exactly Width digits. The device
// sends fields back to back; the simulator wraps them in a pipe-delimited
// TXRESP envelope. Decode accepts both.
package codec

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultWidth is the digit count of a TX coordinate field.
const DefaultWidth = 6

// Dims is the number of fields per point.
const Dims = 3

// pointIndex is where Decode reinserts the fixed-point separator: after the
// sign and four integer digits.
const pointIndex = 5

const (
	FrameHeader = "TXRESP"
	FrameEnd    = "END"
	StatusOK    = "OK"
	StatusOOV   = "OOV"
	Delimiter   = "|"
)

var (
	ErrEmptyToken = errors.New("codec: empty token")
	ErrBadToken   = errors.New("codec: malformed token")
)

// Point3 is a position in device units.
type Point3 struct {
	X, Y, Z int
}

func (p Point3) Add(o Point3) Point3 {
	return Point3{X: p.X + o.X, Y: p.Y + o.Y, Z: p.Z + o.Z}
}

func (p Point3) String() string {
	return fmt.Sprintf("(%+d, %+d, %+d)", p.X, p.Y, p.Z)
}

// MaxMagnitude is the largest absolute value a field of the given width holds.
func MaxMagnitude(width int) int {
	m := 1
	for i := 0; i < width; i++ {
		m *= 10
	}
	return m - 1
}

// Overflows reports whether v needs more than width digits.
func Overflows(v, width int) bool {
	return abs(v) > MaxMagnitude(width)
}

// FormatToken renders v as a sign and width zero-padded digits. Magnitudes
// that do not fit are saturated to the largest representable value so the
// token length never changes.
func FormatToken(v, width int) string {
	sign := byte('+')
	if v < 0 {
		sign = '-'
	}
	mag := abs(v)
	if limit := MaxMagnitude(width); mag > limit {
		mag = limit
	}
	digits := strconv.Itoa(mag)

	var b strings.Builder
	b.Grow(width + 1)
	b.WriteByte(sign)
	for i := len(digits); i < width; i++ {
		b.WriteByte('0')
	}
	b.WriteString(digits)
	return b.String()
}

func Encode(values []int, width int) []string {
	tokens := make([]string, len(values))
	for i, v := range values {
		tokens[i] = FormatToken(v, width)
	}
	return tokens
}

// JoinNative joins tokens the way the device transmits them.
func JoinNative(tokens []string) string {
	return strings.Join(tokens, "")
}

// Flatten lays points out as x1,y1,z1,x2,...
func Flatten(points []Point3) []int {
	values := make([]int, 0, len(points)*Dims)
	for _, p := range points {
		values = append(values, p.X, p.Y, p.Z)
	}
	return values
}

// WireFrame builds the simulator envelope TXRESP|<status>|tok...|END.
func WireFrame(status string, points []Point3, width int) string {
	parts := make([]string, 0, len(points)*Dims+3)
	parts = append(parts, FrameHeader, status)
	parts = append(parts, Encode(Flatten(points), width)...)
	parts = append(parts, FrameEnd)
	return strings.Join(parts, Delimiter)
}

// Decode scans raw left to right. A sign character starts a token that
// spans the sign plus the next width characters; anything else is skipped.
// A trailing token cut short by the end of input is dropped. Tokens longer
// than five characters get a decimal point after the fifth.
func Decode(raw string, width int) []string {
	out := make([]string, 0, len(raw)/(width+1))
	for i := 0; i < len(raw); {
		c := raw[i]
		if c != '+' && c != '-' {
			i++
			continue
		}
		end := i + width + 1
		if end > len(raw) {
			break
		}
		out = append(out, insertPoint(raw[i:end]))
		i = end
	}
	return out
}

func insertPoint(tok string) string {
	if len(tok) <= pointIndex {
		return tok
	}
	return tok[:pointIndex] + "." + tok[pointIndex:]
}

// TokenValue recovers the transmitted integer from a decoded token.
func TokenValue(tok string) (int, error) {
	if tok == "" {
		return 0, ErrEmptyToken
	}
	v, err := strconv.Atoi(strings.Replace(tok, ".", "", 1))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadToken, tok)
	}
	return v, nil
}

// TokenFloat reads a decoded token as its fixed-point value.
func TokenFloat(tok string) (float64, error) {
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadToken, tok)
	}
	return f, nil
}

// Group splits tokens into triples. It returns false when the count is not
// a multiple of three; callers discard such frames.
func Group(tokens []string) ([][Dims]string, bool) {
	if len(tokens)%Dims != 0 {
		return nil, false
	}
	groups := make([][Dims]string, 0, len(tokens)/Dims)
	for i := 0; i < len(tokens); i += Dims {
		groups = append(groups, [Dims]string{tokens[i], tokens[i+1], tokens[i+2]})
	}
	return groups, true
}

// Points converts grouped tokens back to integer points.
func Points(groups [][Dims]string) ([]Point3, error) {
	points := make([]Point3, 0, len(groups))
	for _, g := range groups {
		var v [Dims]int
		for i, tok := range g {
			n, err := TokenValue(tok)
			if err != nil {
				return nil, err
			}
			v[i] = n
		}
		points = append(points, Point3{X: v[0], Y: v[1], Z: v[2]})
	}
	return points, nil
}

// Status returns the status token of a simulator envelope, or "" if raw is
// not one.
func Status(raw string) string {
	parts := strings.SplitN(raw, Delimiter, 3)
	if len(parts) < 2 || parts[0] != FrameHeader {
		return ""
	}
	return parts[1]
}

// abs saturates at math.MaxInt, since -math.MinInt overflows.
func abs(v int) int {
	if v == math.MinInt {
		return math.MaxInt
	}
	if v < 0 {
		return -v
	}
	return v
}
