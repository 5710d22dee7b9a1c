// internal/browser/dom/host.go
package dom

import (
	"errors"

	"github.com/xkilldash9x/snaplinks/internal/geometry"
)

var (
	// ErrNoLayout is returned by ClientRects when the element has no boxes
	// the host can measure (detached, display:none ancestors, SVG internals).
	ErrNoLayout = errors.New("dom: element has no layout")
	// ErrDetached is returned when the element's document has gone away.
	ErrDetached = errors.New("dom: element is detached")
)

// Viewport is the geometry of a window at one instant. All values are CSS
// pixels of that window.
type Viewport struct {
	InnerWidth  float64
	InnerHeight float64
	ScrollX     float64
	ScrollY     float64
	ScrollMaxX  float64
	ScrollMaxY  float64
	// ScreenX/ScreenY locate the top-left corner of the viewport in screen
	// CSS pixels of the top window.
	ScreenX float64
	ScreenY float64
}

// Rect is the visible viewport expressed in that window's document coordinates.
func (v Viewport) Rect() geometry.Rect {
	return geometry.FromXYWH(v.ScrollX, v.ScrollY, v.InnerWidth, v.InnerHeight)
}

// Screen returns the viewport origin in screen coordinates.
func (v Viewport) Screen() geometry.Point {
	return geometry.Point{X: v.ScreenX, Y: v.ScreenY}
}

// Scroll returns the current scroll offset.
func (v Viewport) Scroll() geometry.Point {
	return geometry.Point{X: v.ScrollX, Y: v.ScrollY}
}

// Window is a top-level page or a nested frame.
type Window interface {
	// FrameID is stable for the life of the frame and unique within a tab.
	FrameID() string
	Viewport() Viewport
	// Document returns nil when the frame has no loaded document.
	Document() Document
	// Parent returns nil for the top window.
	Parent() Window
	Frames() []Window
	ScrollBy(dx, dy float64)
}

// Document is the content loaded into a Window.
type Document interface {
	URL() string
	View() Window
	// Links returns a and area elements carrying an href, in document order.
	Links() []Element
	// ElementsByTag returns elements with the given lowercase tag, in document order.
	ElementsByTag(tag string) []Element
	// ElementByID returns nil when no element has the id.
	ElementByID(id string) Element
}

// Element is a node of a Document. Hosts hand out pointer types so that two
// Element values for the same node compare equal.
type Element interface {
	// Tag is the lowercase tag name.
	Tag() string
	Attr(name string) (string, bool)
	// Href is the resolved link target, empty when the element has none.
	Href() string
	// Parent returns nil at the document root.
	Parent() Element
	Children() []Element
	// ClientRects returns one rect per box fragment, relative to the viewport
	// of the element's own window.
	ClientRects() ([]geometry.Rect, error)
	ComputedStyle() (Style, error)
	// SetOutline sets the inline outline style. An empty value clears it.
	SetOutline(value string) error
}

// Top walks up the parent chain to the top window.
func Top(w Window) Window {
	for w != nil {
		p := w.Parent()
		if p == nil {
			return w
		}
		w = p
	}
	return nil
}

// ClosestAncestor returns the nearest strict ancestor of el accepted by match.
func ClosestAncestor(el Element, match func(Element) bool) Element {
	for p := el.Parent(); p != nil; p = p.Parent() {
		if match(p) {
			return p
		}
	}
	return nil
}
