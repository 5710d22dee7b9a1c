package selection

import (
	"github.com/xkilldash9x/snaplinks/internal/browser/dom"
	"github.com/xkilldash9x/snaplinks/internal/geometry"
)

const (
	// scrollbarSize is taken off the pane for each visible scrollbar.
	scrollbarSize = 16
	// labelMargin separates the count label from the rectangle.
	labelMargin = 6
)

// Placement is where the selection rectangle is drawn, in chrome coordinates.
type Placement struct {
	Rect    geometry.Rect
	Borders geometry.Insets
	// Bounds is the visible part of the browser pane.
	Bounds geometry.Rect
}

// PaneBounds shrinks the browser pane by the scrollbars the top document shows.
func PaneBounds(pane geometry.Rect, vp dom.Viewport) geometry.Rect {
	b := pane.Normalize()
	if vp.ScrollMaxX != 0 {
		b.Bottom -= scrollbarSize
	}
	if vp.ScrollMaxY != 0 {
		b.Right -= scrollbarSize
	}
	return b
}

// Place converts the selection rectangle from top-document page coordinates
// to chrome coordinates and clips it to the pane. The conversion goes page
// to viewport, viewport to device pixels, device pixels to chrome pixels,
// then chrome pixels relative to the pane. ok is false when nothing of the
// rectangle is inside the pane.
//
// A border is dropped on a side where the rectangle was clipped at the pane
// edge and the document can still scroll further that way.
func Place(sel geometry.Rect, vp dom.Viewport, contentScale, chromeScale float64, pane geometry.Rect, border float64) (Placement, bool) {
	bounds := PaneBounds(pane, vp)
	pane = pane.Normalize()
	r := sel.Normalize().
		Offset(-vp.ScrollX, -vp.ScrollY).
		Scale(contentScale, contentScale).
		Scale(1/chromeScale, 1/chromeScale).
		Offset(pane.Left, pane.Top)

	clipped, ok := r.Intersect(bounds)
	if !ok {
		return Placement{Bounds: bounds}, false
	}

	borders := geometry.Uniform(border)
	if clipped.Top == bounds.Top && vp.ScrollY > 0 {
		borders.Top = 0
	}
	if clipped.Bottom == bounds.Bottom && vp.ScrollY < vp.ScrollMaxY {
		borders.Bottom = 0
	}
	if clipped.Left == bounds.Left && vp.ScrollX > 0 {
		borders.Left = 0
	}
	if clipped.Right == bounds.Right && vp.ScrollX < vp.ScrollMaxX {
		borders.Right = 0
	}
	return Placement{Rect: clipped, Borders: borders, Bounds: bounds}, true
}

// PlaceLabel positions a w x h count label next to the drawn rectangle, at
// the corner the pointer is dragging. The label goes outside the rectangle,
// left of it when the drag runs leftwards, and just above the moving edge.
// It is flipped back inside when it would leave bounds.
func PlaceLabel(sel, drawn geometry.Rect, w, h float64, bounds geometry.Rect) geometry.Rect {
	x := drawn.Right + labelMargin
	if sel.IsInvertedX() {
		x = drawn.Left - w - labelMargin
	}
	y := drawn.Bottom - h - labelMargin
	if sel.IsInvertedY() {
		y = drawn.Top - h - labelMargin
	}

	label := geometry.FromXYWH(x, y, w, h)
	if label.Right > bounds.Right {
		label = label.Offset(-(w + 2*labelMargin), 0)
	} else if label.Left < bounds.Left {
		label = label.Offset(w+2*labelMargin, 0)
	}
	if label.Top < bounds.Top {
		label = label.Offset(0, h+2*labelMargin)
	}
	return label
}
