// internal/browser/page/tab.go
package page

import (
	"fmt"
	"slices"
	"sync"

	"github.com/xkilldash9x/snaplinks/internal/browser/dom"
	"github.com/xkilldash9x/snaplinks/internal/browser/style"
	"github.com/xkilldash9x/snaplinks/internal/geometry"
)

// Hooks mirror writes made against the in-memory model to another host.
type Hooks struct {
	Outline func(n *Node, value string) error
	Scroll  func(w *Window, dx, dy float64) error
}

// TabOptions describes the browser window around the content.
type TabOptions struct {
	Width  float64
	Height float64
	// Screen is the top viewport origin in screen CSS pixels.
	Screen geometry.Point
	// ContentScale is device pixels per CSS pixel of the content (zoom * DPR).
	ContentScale float64
	// ChromeScale is device pixels per CSS pixel of the browser UI.
	ChromeScale float64
	// Pane is the content area in chrome coordinates. Defaults to the
	// viewport placed at Screen.
	Pane geometry.Rect
}

// listenerSet keeps subscriptions in the order they were made.
type listenerSet struct {
	next int
	fns  map[int]func(dom.Window)
}

func (ls *listenerSet) add(fn func(dom.Window)) int {
	if ls.fns == nil {
		ls.fns = make(map[int]func(dom.Window))
	}
	ls.next++
	ls.fns[ls.next] = fn
	return ls.next
}

func (ls *listenerSet) snapshot() []func(dom.Window) {
	ids := make([]int, 0, len(ls.fns))
	for id := range ls.fns {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]func(dom.Window), len(ids))
	for i, id := range ids {
		out[i] = ls.fns[id]
	}
	return out
}

// OverlayState is what the overlay currently shows.
type OverlayState struct {
	Visible      bool
	Rect         geometry.Rect
	Borders      geometry.Insets
	LabelVisible bool
	Label        geometry.Rect
	LabelText    string
}

// Tab is an in-memory browser tab. It plays the browser chrome for the
// selection controller: it owns the top window, reports pixel scales and the
// content pane, records overlay drawing and status text.
type Tab struct {
	mu      sync.Mutex
	opts    TabOptions
	top     *Window
	hooks   Hooks
	overlay OverlayState
	status  string
	nextID  int

	loadListeners   listenerSet
	unloadListeners listenerSet
}

// NewTab creates a tab with an empty top window.
func NewTab(opts TabOptions) *Tab {
	if opts.ContentScale <= 0 {
		opts.ContentScale = 1
	}
	if opts.ChromeScale <= 0 {
		opts.ChromeScale = 1
	}
	if opts.Pane == (geometry.Rect{}) {
		opts.Pane = geometry.FromXYWH(opts.Screen.X, opts.Screen.Y, opts.Width, opts.Height)
	}
	t := &Tab{opts: opts}
	t.top = newWindow(t, nil, t.newFrameID(), opts.Width, opts.Height)
	return t
}

func (t *Tab) newFrameID() string {
	t.nextID++
	return fmt.Sprintf("frame-%d", t.nextID)
}

// TopWindow returns the concrete top window.
func (t *Tab) TopWindow() *Window { return t.top }

// Top implements the chrome collaborator.
func (t *Tab) Top() dom.Window { return t.top }

func (t *Tab) ContentScale() float64 { return t.opts.ContentScale }

func (t *Tab) ChromeScale() float64 { return t.opts.ChromeScale }

// BrowserPane is the content area in chrome coordinates.
func (t *Tab) BrowserPane() geometry.Rect { return t.opts.Pane }

// SetHooks installs write-through hooks.
func (t *Tab) SetHooks(h Hooks) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hooks = h
}

func (t *Tab) currentHooks() Hooks {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hooks
}

// OnDocumentLoad calls fn whenever a window of the tab gets a new document,
// before its content is built. The returned function unsubscribes.
func (t *Tab) OnDocumentLoad(fn func(dom.Window)) (cancel func()) {
	return t.subscribe(&t.loadListeners, fn)
}

// OnDocumentUnload calls fn when a window's document is about to go away.
// Elements of the document are still attached while fn runs. Nested frames
// go away with their parent and are not reported separately.
func (t *Tab) OnDocumentUnload(fn func(dom.Window)) (cancel func()) {
	return t.subscribe(&t.unloadListeners, fn)
}

// DocumentListeners is the number of installed load and unload listeners.
func (t *Tab) DocumentListeners() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.loadListeners.fns) + len(t.unloadListeners.fns)
}

func (t *Tab) subscribe(ls *listenerSet, fn func(dom.Window)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := ls.add(fn)
	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			delete(ls.fns, id)
		})
	}
}

// notify runs the listeners outside the lock so they may unsubscribe.
func (t *Tab) notify(ls *listenerSet, w *Window) {
	t.mu.Lock()
	fns := ls.snapshot()
	t.mu.Unlock()
	for _, fn := range fns {
		fn(w)
	}
}

// ShowRect draws the selection rectangle.
func (t *Tab) ShowRect(r geometry.Rect, borders geometry.Insets) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.overlay.Visible = true
	t.overlay.Rect = r
	t.overlay.Borders = borders
	return nil
}

// HideRect hides the selection rectangle.
func (t *Tab) HideRect() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.overlay.Visible = false
	return nil
}

// MeasureLabel returns the size the count label needs for text.
func (t *Tab) MeasureLabel(text string) (float64, float64, error) {
	return style.MeasureText(text, 12) + 8, 18, nil
}

// ShowLabel draws the count label.
func (t *Tab) ShowLabel(r geometry.Rect, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.overlay.LabelVisible = true
	t.overlay.Label = r
	t.overlay.LabelText = text
	return nil
}

// HideLabel hides the count label.
func (t *Tab) HideLabel() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.overlay.LabelVisible = false
	return nil
}

// SetStatus records status-bar text.
func (t *Tab) SetStatus(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = text
}

// Overlay returns the current overlay state.
func (t *Tab) Overlay() OverlayState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.overlay
}

// Status returns the last status text.
func (t *Tab) Status() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Windows lists the top window and every descendant frame, depth first.
func (t *Tab) Windows() []*Window {
	var out []*Window
	var walk func(*Window)
	walk = func(w *Window) {
		out = append(out, w)
		for _, f := range w.frames {
			walk(f)
		}
	}
	walk(t.top)
	return out
}
