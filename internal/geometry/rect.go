// internal/geometry/rect.go
package geometry

import (
	"fmt"
	"math"
)

// Rect is an axis-aligned rectangle described by its four edges.
//
// A Rect may be inverted: Right < Left or Bottom < Top. The selection
// rectangle is anchored where the drag started and follows the pointer, so
// inversion records the drag direction. Width and Height keep their sign;
// use Normalize before any containment or overlap test that expects
// ordered edges.
//
// All methods use value receivers and return new values.
type Rect struct {
	Top    float64
	Left   float64
	Bottom float64
	Right  float64
}

// New creates a Rect from its edges.
func New(top, left, bottom, right float64) Rect {
	return Rect{Top: top, Left: left, Bottom: bottom, Right: right}
}

// FromCorners builds the rectangle spanned by an anchor and a moving corner.
// The result is inverted whenever the moving corner lies above or left of
// the anchor.
func FromCorners(anchor, corner Point) Rect {
	return Rect{Top: anchor.Y, Left: anchor.X, Bottom: corner.Y, Right: corner.X}
}

// FromXYWH builds a rectangle from an origin and a size.
func FromXYWH(x, y, w, h float64) Rect {
	return Rect{Top: y, Left: x, Bottom: y + h, Right: x + w}
}

// Width is Right - Left and is negative for a horizontally inverted rect.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height is Bottom - Top and is negative for a vertically inverted rect.
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// IsInvertedX reports whether Right lies left of Left.
func (r Rect) IsInvertedX() bool { return r.Right < r.Left }

// IsInvertedY reports whether Bottom lies above Top.
func (r Rect) IsInvertedY() bool { return r.Bottom < r.Top }

// Normalize returns the equivalent rect with Top <= Bottom and Left <= Right.
func (r Rect) Normalize() Rect {
	return Rect{
		Top:    math.Min(r.Top, r.Bottom),
		Left:   math.Min(r.Left, r.Right),
		Bottom: math.Max(r.Top, r.Bottom),
		Right:  math.Max(r.Left, r.Right),
	}
}

// Offset translates every edge by (dx, dy).
func (r Rect) Offset(dx, dy float64) Rect {
	return Rect{Top: r.Top + dy, Left: r.Left + dx, Bottom: r.Bottom + dy, Right: r.Right + dx}
}

// OffsetPoint translates by p.
func (r Rect) OffsetPoint(p Point) Rect { return r.Offset(p.X, p.Y) }

// Scale multiplies horizontal edges by sx and vertical edges by sy. Used to
// move between CSS, device and UI pixels.
func (r Rect) Scale(sx, sy float64) Rect {
	return Rect{Top: r.Top * sy, Left: r.Left * sx, Bottom: r.Bottom * sy, Right: r.Right * sx}
}

// Empty reports whether the normalized rect has no area.
func (r Rect) Empty() bool {
	n := r.Normalize()
	return n.Right <= n.Left || n.Bottom <= n.Top
}

// Area of the normalized rect.
func (r Rect) Area() float64 {
	n := r.Normalize()
	return n.Width() * n.Height()
}

// Intersects reports whether the interiors of r and other overlap.
// Both rects are normalized first. Edges that merely touch do not count,
// so a zero-size rect never intersects anything.
func (r Rect) Intersects(other Rect) bool {
	a, b := r.Normalize(), other.Normalize()
	return a.Left < b.Right && b.Left < a.Right && a.Top < b.Bottom && b.Top < a.Bottom
}

// Intersect returns the overlapping region of r and other. ok is false when
// they do not overlap, in which case the returned Rect is the zero value.
func (r Rect) Intersect(other Rect) (Rect, bool) {
	if !r.Intersects(other) {
		return Rect{}, false
	}
	a, b := r.Normalize(), other.Normalize()
	return Rect{
		Top:    math.Max(a.Top, b.Top),
		Left:   math.Max(a.Left, b.Left),
		Bottom: math.Min(a.Bottom, b.Bottom),
		Right:  math.Min(a.Right, b.Right),
	}, true
}

// Contains reports whether p lies inside the normalized rect, edges included.
func (r Rect) Contains(p Point) bool {
	n := r.Normalize()
	return p.X >= n.Left && p.X <= n.Right && p.Y >= n.Top && p.Y <= n.Bottom
}

// Union returns the smallest normalized rect covering both.
func (r Rect) Union(other Rect) Rect {
	a, b := r.Normalize(), other.Normalize()
	return Rect{
		Top:    math.Min(a.Top, b.Top),
		Left:   math.Min(a.Left, b.Left),
		Bottom: math.Max(a.Bottom, b.Bottom),
		Right:  math.Max(a.Right, b.Right),
	}
}

// TopLeft returns the (Left, Top) corner.
func (r Rect) TopLeft() Point { return Point{X: r.Left, Y: r.Top} }

// BottomRight returns the (Right, Bottom) corner.
func (r Rect) BottomRight() Point { return Point{X: r.Right, Y: r.Bottom} }

func (r Rect) String() string {
	return fmt.Sprintf("[t=%g l=%g b=%g r=%g]", r.Top, r.Left, r.Bottom, r.Right)
}

// Insets holds a width for each side of a rect, such as border widths.
type Insets struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// Uniform returns Insets with every side set to w.
func Uniform(w float64) Insets {
	return Insets{Top: w, Right: w, Bottom: w, Left: w}
}
