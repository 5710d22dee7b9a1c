package selection

import (
	"math/bits"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/snaplinks/internal/browser/dom"
	"github.com/xkilldash9x/snaplinks/internal/geometry"
	"github.com/xkilldash9x/snaplinks/internal/loop"
)

// Chrome is the browser window that hosts the content.
type Chrome interface {
	Top() dom.Window
	// ContentScale is device pixels per CSS pixel of the content.
	ContentScale() float64
	// ChromeScale is device pixels per CSS pixel of the browser UI.
	ChromeScale() float64
	// BrowserPane is the content area in chrome coordinates.
	BrowserPane() geometry.Rect
}

// Overlay draws the selection rectangle and the floating count label.
// Positions are chrome coordinates.
type Overlay interface {
	ShowRect(r geometry.Rect, borders geometry.Insets) error
	HideRect() error
	MeasureLabel(text string) (w, h float64, err error)
	ShowLabel(r geometry.Rect, text string) error
	HideLabel() error
}

// StatusSink receives the status-bar text. An empty string clears it.
type StatusSink interface {
	SetStatus(text string)
}

// DocumentEvents reports documents coming and going inside the tab. Unload
// listeners must run while the document's elements are still attached.
// Listeners are called on the controller's goroutine.
type DocumentEvents interface {
	OnDocumentLoad(fn func(dom.Window)) (cancel func())
	OnDocumentUnload(fn func(dom.Window)) (cancel func())
}

// Host is everything the controller needs from the browser.
type Host interface {
	Chrome
	Overlay
	StatusSink
	DocumentEvents
}

// Modifiers are the modifier keys held during a pointer event.
type Modifiers struct {
	Shift bool
	Ctrl  bool
	Alt   bool
}

// PointerEvent is a pointer event as delivered to the browser UI.
type PointerEvent struct {
	// Screen is the pointer position in screen pixels of the browser UI.
	Screen geometry.Point
	// Target is the element under the pointer, if the host knows it.
	Target dom.Element
	Modifiers
}

// Key names the keys the controller reacts to.
type Key string

const (
	KeyShift  Key = "Shift"
	KeyEscape Key = "Escape"
)

// Completion is handed to the action executor when a gesture ends with a
// visible selection.
type Completion struct {
	GestureID string
	Snapshot  Snapshot
	// MenuRequested is set when Ctrl was held on release: the user wants to
	// pick the action instead of running the default one.
	MenuRequested bool
}

// listener is a set of event subscriptions installed for one gesture.
type listener uint8

const (
	listenMove listener = 1 << iota
	listenUp
	listenKeys
	listenLoad
	listenUnload

	listenAll = listenMove | listenUp | listenKeys | listenLoad | listenUnload
)

// Controller turns pointer and keyboard events into a live selection.
//
// A Controller is not safe for concurrent use. All calls, including the
// scheduler's callbacks, must come from one goroutine, normally a loop.Loop.
type Controller struct {
	host   Host
	sched  loop.Scheduler
	opts   Options
	logger *zap.Logger

	g *gesture
}

// gesture is the state of one drag, from pointer-down to pointer-up.
type gesture struct {
	id     string
	opts   Options
	logger *zap.Logger

	calc     *Calculator
	engine   *Engine
	renderer *Renderer
	status   *StatusFormatter

	top          dom.Window
	contentScale float64
	chromeScale  float64
	table        *DocumentTable

	// sel is anchored at Top/Left; Bottom/Right follow the pointer.
	sel         geometry.Rect
	largestFont bool
	pinnedFont  float64
	lastMove    PointerEvent
	listeners   listener
	unsubscribe []func()

	visible    bool
	leftPage   bool
	drawn      Placement
	drawnOK    bool
	snapshot   Snapshot
	statusText string

	recompute  *loop.Throttle
	autoscroll *loop.Task
	reload     *loop.Task
}

// NewController creates an idle Controller.
func NewController(host Host, sched loop.Scheduler, opts Options, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{host: host, sched: sched, opts: opts, logger: logger.Named("selection")}
}

// SetOptions replaces the options used by the next gesture.
func (c *Controller) SetOptions(opts Options) { c.opts = opts }

// Active reports whether a gesture is in progress.
func (c *Controller) Active() bool { return c.g != nil }

// GestureID identifies the running gesture, empty when idle.
func (c *Controller) GestureID() string {
	if c.g == nil {
		return ""
	}
	return c.g.id
}

// Selection returns the raw selection rectangle in top-document page
// coordinates. It may be inverted.
func (c *Controller) Selection() geometry.Rect {
	if c.g == nil {
		return geometry.Rect{}
	}
	return c.g.sel
}

// Visible reports whether the selection rectangle is shown.
func (c *Controller) Visible() bool { return c.g != nil && c.g.visible }

// Snapshot is the current selected set.
func (c *Controller) Snapshot() Snapshot {
	if c.g == nil {
		return Snapshot{}
	}
	return c.g.snapshot
}

// Documents returns the document table of the running gesture, or nil.
func (c *Controller) Documents() *DocumentTable {
	if c.g == nil {
		return nil
	}
	return c.g.table
}

// ActiveListeners is the number of event subscriptions currently installed.
func (c *Controller) ActiveListeners() int {
	if c.g == nil {
		return 0
	}
	return bits.OnesCount8(uint8(c.g.listeners))
}

// PendingTimers is the number of scheduled callbacks owned by the gesture.
func (c *Controller) PendingTimers() int {
	g := c.g
	if g == nil {
		return 0
	}
	n := 0
	for _, pending := range []bool{g.recompute.Pending(), g.autoscroll.Pending(), g.reload.Pending()} {
		if pending {
			n++
		}
	}
	return n
}

// PointerDown starts a gesture at the pointer. Whether the button and
// modifiers qualify is for the caller to decide. It returns false when the
// tab has no document to select in.
func (c *Controller) PointerDown(ev PointerEvent) bool {
	if c.g != nil {
		c.teardown()
	}
	top := c.host.Top()
	if top == nil || top.Document() == nil {
		return false
	}

	opts := c.opts
	g := &gesture{
		id:           uuid.NewString(),
		opts:         opts,
		top:          top,
		contentScale: positive(c.host.ContentScale()),
		chromeScale:  positive(c.host.ChromeScale()),
		largestFont:  !ev.Shift,
		listeners:    listenAll,
	}
	g.logger = c.logger.With(zap.String("gesture", g.id))
	g.calc = NewCalculator(opts, g.logger)
	g.engine = NewEngine(g.logger)
	g.renderer = NewRenderer(opts.OutlineStyle(), g.logger)
	g.status = NewStatusFormatter(opts.Locale)
	g.recompute = loop.NewThrottle(c.sched, opts.RecomputeInterval, func() { c.recompute(g) })
	g.autoscroll = loop.NewTask(c.sched, func() { c.autoscrollTick(g) })
	g.reload = loop.NewTask(c.sched, func() { c.reloadDocuments(g) })
	g.unsubscribe = []func(){
		c.host.OnDocumentLoad(c.DocumentLoaded),
		c.host.OnDocumentUnload(c.DocumentUnloaded),
	}

	// 1. Index every reachable document and build its candidates.
	g.table = Index(top)
	g.calc.CalculateAll(g.table)

	// 2. Anchor the rectangle in top-document page coordinates.
	client, vp := g.clientPoint(ev.Screen)
	anchor := client.Add(vp.Scroll())
	g.sel = geometry.FromCorners(anchor, anchor)

	// 3. Starting on a link pins the font size that wins.
	if ev.Target != nil && ev.Target.Tag() == "a" {
		if style, err := ev.Target.ComputedStyle(); err == nil {
			if px, ok := style.FontSizePx(); ok {
				g.pinnedFont = px
			}
		}
	}

	c.g = g
	g.logger.Debug("Gesture started.",
		zap.Int("documents", g.table.Len()),
		zap.Stringer("anchor", g.sel),
		zap.Float64("pinned_font_size", g.pinnedFont),
	)
	return true
}

// PointerMove moves the dragged corner. Outside the top viewport it either
// hides the rectangle or scrolls the page and keeps repeating the move on
// the autoscroll interval until the pointer is back or released.
func (c *Controller) PointerMove(ev PointerEvent) {
	g := c.g
	if g == nil || g.listeners&listenMove == 0 {
		return
	}
	g.autoscroll.Cancel()
	g.lastMove = ev
	g.largestFont = !ev.Shift

	client, vp := g.clientPoint(ev.Screen)
	if client.X < 0 || client.Y < 0 || client.X > vp.InnerWidth || client.Y > vp.InnerHeight {
		if g.opts.HideOnMouseLeave {
			g.leftPage = true
			c.hide(g)
			return
		}
		g.top.ScrollBy(outside(client.X, vp.InnerWidth), outside(client.Y, vp.InnerHeight))
		g.autoscroll.Schedule(g.opts.AutoscrollInterval)
		client, vp = g.clientPoint(ev.Screen)
	}
	g.leftPage = false

	page := client.Add(vp.Scroll())
	if g.opts.AltMovesSelection && ev.Alt {
		g.sel = g.sel.OffsetPoint(page.Sub(g.sel.BottomRight()))
	} else {
		corner := page.Clamp(geometry.New(0, 0, vp.InnerHeight+vp.ScrollMaxY, vp.InnerWidth+vp.ScrollMaxX))
		g.sel.Right, g.sel.Bottom = corner.X, corner.Y
	}
	c.update(g)
}

// PointerUp ends the gesture. Pending work is flushed first so the final
// pointer position is always reflected. ok is false when the rectangle never
// grew past the minimum drag size or was hidden, in which case the host
// should fall back to its native behaviour.
func (c *Controller) PointerUp(ev PointerEvent) (Completion, bool) {
	g := c.g
	if g == nil || g.listeners&listenUp == 0 {
		return Completion{}, false
	}
	g.recompute.Flush()
	visible, snap := g.visible, g.snapshot
	c.teardown()

	if !visible {
		g.logger.Debug("Gesture ended without a selection.")
		return Completion{}, false
	}
	g.logger.Debug("Gesture completed.", zap.Stringer("type", snap.Type), zap.Int("selected", snap.Len()), zap.Bool("menu", ev.Ctrl))
	return Completion{GestureID: g.id, Snapshot: snap, MenuRequested: ev.Ctrl}, true
}

// KeyDown handles Escape, which cancels the gesture, and Shift, which
// selects links of every font size while held.
func (c *Controller) KeyDown(key Key) {
	g := c.g
	if g == nil || g.listeners&listenKeys == 0 {
		return
	}
	switch key {
	case KeyEscape:
		g.logger.Debug("Gesture cancelled.")
		c.teardown()
	case KeyShift:
		c.setLargestFont(g, false)
	}
}

// KeyUp restores largest-font grouping when Shift is released.
func (c *Controller) KeyUp(key Key) {
	g := c.g
	if g == nil || g.listeners&listenKeys == 0 {
		return
	}
	if key == KeyShift {
		c.setLargestFont(g, true)
	}
}

// DocumentLoaded re-indexes on the next scheduler tick, once layout settled.
func (c *Controller) DocumentLoaded(w dom.Window) {
	g := c.g
	if g == nil || w == nil || g.listeners&listenLoad == 0 {
		return
	}
	g.reload.Schedule(0)
}

// DocumentUnloaded drops state that refers to the unloaded document. When the
// top document goes away the selection is hidden and pointer moves are
// ignored until it loads again.
func (c *Controller) DocumentUnloaded(w dom.Window) {
	g := c.g
	if g == nil || w == nil || g.listeners&listenUnload == 0 {
		return
	}
	if w.FrameID() == g.top.FrameID() {
		g.listeners &^= listenMove
		g.autoscroll.Cancel()
		c.hide(g)
		g.table.Clear()
		g.logger.Debug("Top document unloaded.")
		return
	}
	if !g.table.Forget(w.FrameID()) {
		return
	}
	// Recompute now, while the leaving elements can still be cleared.
	if g.visible {
		g.recompute.Cancel()
		c.recompute(g)
	}
}

func (c *Controller) reloadDocuments(g *gesture) {
	if c.g != g {
		return
	}
	g.table.Clear()
	g.table = Index(g.top)
	g.calc.CalculateAll(g.table)
	g.listeners |= listenMove
	g.logger.Debug("Documents re-indexed.", zap.Int("documents", g.table.Len()))
	c.update(g)
}

func (c *Controller) autoscrollTick(g *gesture) {
	if c.g != g {
		return
	}
	c.PointerMove(g.lastMove)
}

func (c *Controller) setLargestFont(g *gesture, on bool) {
	if g.largestFont == on {
		return
	}
	g.largestFont = on
	g.recompute.Cancel()
	c.recompute(g)
}

// update redraws the rectangle and requests a recompute.
func (c *Controller) update(g *gesture) {
	n := g.sel.Normalize()
	if g.leftPage || !(n.Width() > g.opts.MinDragSize || n.Height() > g.opts.MinDragSize) {
		c.hide(g)
		return
	}
	g.visible = true

	place, ok := Place(g.sel, g.top.Viewport(), g.contentScale, g.chromeScale, c.host.BrowserPane(), g.opts.BorderWidth)
	g.drawn, g.drawnOK = place, ok
	if ok {
		if err := c.host.ShowRect(place.Rect, place.Borders); err != nil {
			g.logger.Debug("Selection rectangle not drawn.", zap.Error(err))
		}
	} else if err := c.host.HideRect(); err != nil {
		g.logger.Debug("Selection rectangle not hidden.", zap.Error(err))
	}
	c.placeLabel(g)
	g.recompute.Trigger()
}

func (c *Controller) recompute(g *gesture) {
	if c.g != g || !g.visible {
		return
	}
	// Documents whose width changed since the last pass are rebuilt.
	g.calc.CalculateAll(g.table)
	snap := g.engine.Classify(g.table, Query{
		Selection:           g.sel,
		LargestFontWins:     g.largestFont,
		PinnedFontSize:      g.pinnedFont,
		RemoveDuplicateURLs: g.opts.RemoveDuplicateURLs,
	})
	g.renderer.Apply(g.snapshot, snap)
	g.snapshot = snap
	g.statusText = g.status.Snapshot(snap)
	c.host.SetStatus(g.statusText)
	c.placeLabel(g)
}

func (c *Controller) placeLabel(g *gesture) {
	if !g.opts.countOnHover() {
		return
	}
	if !g.visible || !g.drawnOK || g.statusText == "" {
		if err := c.host.HideLabel(); err != nil {
			g.logger.Debug("Count label not hidden.", zap.Error(err))
		}
		return
	}
	w, h, err := c.host.MeasureLabel(g.statusText)
	if err != nil {
		g.logger.Debug("Count label not measured.", zap.Error(err))
		return
	}
	r := PlaceLabel(g.sel, g.drawn.Rect, w, h, g.drawn.Bounds)
	if err := c.host.ShowLabel(r, g.statusText); err != nil {
		g.logger.Debug("Count label not drawn.", zap.Error(err))
	}
}

// hide takes the rectangle off screen and clears the selection.
func (c *Controller) hide(g *gesture) {
	g.recompute.Cancel()
	if !g.visible {
		return
	}
	g.visible = false
	g.renderer.Clear(g.snapshot)
	g.snapshot = Snapshot{}
	g.statusText = ""
	c.clearVisuals(g)
}

func (c *Controller) clearVisuals(g *gesture) {
	if err := c.host.HideRect(); err != nil {
		g.logger.Debug("Selection rectangle not hidden.", zap.Error(err))
	}
	if err := c.host.HideLabel(); err != nil {
		g.logger.Debug("Count label not hidden.", zap.Error(err))
	}
	c.host.SetStatus("")
}

// teardown returns to idle: timers are cancelled, listeners removed,
// outlines cleared and the document caches dropped.
func (c *Controller) teardown() {
	g := c.g
	if g == nil {
		return
	}
	g.recompute.Cancel()
	g.autoscroll.Cancel()
	g.reload.Cancel()
	for _, cancel := range g.unsubscribe {
		cancel()
	}
	g.unsubscribe = nil
	g.listeners = 0

	g.renderer.Clear(g.snapshot)
	c.clearVisuals(g)
	g.table.Clear()
	c.g = nil
}

// clientPoint converts a screen position of the browser UI to client
// coordinates of the top viewport.
func (g *gesture) clientPoint(screen geometry.Point) (geometry.Point, dom.Viewport) {
	vp := g.top.Viewport()
	inner := screen.Mul(g.chromeScale / g.contentScale)
	return inner.Sub(vp.Screen()), vp
}

// outside returns how far v lies outside [0, size], signed.
func outside(v, size float64) float64 {
	switch {
	case v < 0:
		return v
	case v > size:
		return v - size
	}
	return 0
}

func positive(f float64) float64 {
	if f <= 0 {
		return 1
	}
	return f
}
