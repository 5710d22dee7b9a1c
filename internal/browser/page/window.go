package page

import (
	"math"

	"github.com/xkilldash9x/snaplinks/internal/browser/dom"
	"github.com/xkilldash9x/snaplinks/internal/geometry"
)

// Window is a top-level page or a frame inside the tab.
type Window struct {
	id     string
	tab    *Tab
	parent *Window
	frames []*Window
	doc    *Document

	width, height     float64
	contentW, contentH float64
	scrollX, scrollY  float64
	// origin is where this frame's viewport sits in the parent's document
	// coordinates. Unused for the top window.
	origin geometry.Point

	// reflow re-runs layout after a resize. Nil for hand-built documents.
	reflow func(w *Window) error
}

func newWindow(tab *Tab, parent *Window, id string, width, height float64) *Window {
	return &Window{id: id, tab: tab, parent: parent, width: width, height: height, contentW: width, contentH: height}
}

func (w *Window) FrameID() string { return w.id }

// Viewport computes the live viewport, including the screen position
// derived from ancestor frames and their scroll offsets.
func (w *Window) Viewport() dom.Viewport {
	vp := dom.Viewport{
		InnerWidth:  w.width,
		InnerHeight: w.height,
		ScrollX:     w.scrollX,
		ScrollY:     w.scrollY,
		ScrollMaxX:  math.Max(0, w.contentW-w.width),
		ScrollMaxY:  math.Max(0, w.contentH-w.height),
	}
	if w.parent == nil {
		vp.ScreenX, vp.ScreenY = w.tab.opts.Screen.X, w.tab.opts.Screen.Y
		return vp
	}
	pv := w.parent.Viewport()
	vp.ScreenX = pv.ScreenX + w.origin.X - pv.ScrollX
	vp.ScreenY = pv.ScreenY + w.origin.Y - pv.ScrollY
	return vp
}

// Document returns nil once the window has been unloaded.
func (w *Window) Document() dom.Document {
	if w.doc == nil {
		return nil
	}
	return w.doc
}

// Doc returns the concrete document.
func (w *Window) Doc() *Document { return w.doc }

func (w *Window) Parent() dom.Window {
	if w.parent == nil {
		return nil
	}
	return w.parent
}

func (w *Window) Frames() []dom.Window {
	out := make([]dom.Window, len(w.frames))
	for i, f := range w.frames {
		out[i] = f
	}
	return out
}

// ScrollBy scrolls within [0, scrollMax] and mirrors the request through the
// tab's scroll hook.
func (w *Window) ScrollBy(dx, dy float64) {
	vp := w.Viewport()
	w.scrollX = math.Max(0, math.Min(w.scrollX+dx, vp.ScrollMaxX))
	w.scrollY = math.Max(0, math.Min(w.scrollY+dy, vp.ScrollMaxY))
	if h := w.tab.currentHooks(); h.Scroll != nil {
		_ = h.Scroll(w, dx, dy)
	}
}

// ScrollTo sets the scroll offset directly, clamped.
func (w *Window) ScrollTo(x, y float64) {
	vp := w.Viewport()
	w.scrollX = math.Max(0, math.Min(x, vp.ScrollMaxX))
	w.scrollY = math.Max(0, math.Min(y, vp.ScrollMaxY))
}

// SetContentSize sets the scrollable size. Values below the viewport are raised to it.
func (w *Window) SetContentSize(width, height float64) {
	w.contentW = math.Max(width, w.width)
	w.contentH = math.Max(height, w.height)
}

// Resize changes the viewport and reflows rendered content.
func (w *Window) Resize(width, height float64) error {
	w.width, w.height = width, height
	w.contentW = math.Max(w.contentW, width)
	w.contentH = math.Max(w.contentH, height)
	if w.reflow != nil {
		return w.reflow(w)
	}
	return nil
}

// AddFrame creates a child frame whose viewport origin sits at origin in this
// window's document coordinates.
func (w *Window) AddFrame(origin geometry.Point, width, height float64) *Window {
	f := newWindow(w.tab, w, w.tab.newFrameID(), width, height)
	f.origin = origin
	w.frames = append(w.frames, f)
	return f
}

// SetOrigin moves a frame within its parent document.
func (w *Window) SetOrigin(origin geometry.Point) { w.origin = origin }

// LoadDocument replaces the window's document with an empty one. A previous
// document is unloaded first. Load listeners run before the caller fills
// the new document in.
func (w *Window) LoadDocument(url string) *Document {
	w.Unload()
	w.doc = newDocument(w, url)
	w.tab.notify(&w.tab.loadListeners, w)
	return w.doc
}

// Unload detaches the document and the frames inside it. Unload listeners
// run first; the elements report ErrDetached afterwards.
func (w *Window) Unload() {
	if w.doc == nil && len(w.frames) == 0 {
		return
	}
	w.tab.notify(&w.tab.unloadListeners, w)
	w.detach()
}

func (w *Window) detach() {
	for _, f := range w.frames {
		f.detach()
	}
	if w.doc != nil {
		w.doc.unloaded = true
		w.doc = nil
	}
	w.frames = nil
}
