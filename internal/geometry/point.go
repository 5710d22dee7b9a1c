// internal/geometry/point.go
package geometry

import "math"

// Point is a position in a 2D coordinate space. The space (screen, client,
// page) is implied by where the value comes from.
type Point struct {
	X float64
	Y float64
}

// Add returns p + other.
func (p Point) Add(other Point) Point {
	return Point{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns p - other.
func (p Point) Sub(other Point) Point {
	return Point{X: p.X - other.X, Y: p.Y - other.Y}
}

// Mul scales both components.
func (p Point) Mul(scalar float64) Point {
	return Point{X: p.X * scalar, Y: p.Y * scalar}
}

// Dist returns the Euclidean distance between p and other.
func (p Point) Dist(other Point) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// Clamp limits each component to the matching span of bounds.
func (p Point) Clamp(bounds Rect) Point {
	b := bounds.Normalize()
	return Point{
		X: math.Max(b.Left, math.Min(p.X, b.Right)),
		Y: math.Max(b.Top, math.Min(p.Y, b.Bottom)),
	}
}
