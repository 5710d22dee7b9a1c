// internal/browser/cdp/host.go
package cdp

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	cdppage "github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/snaplinks/internal/browser/dom"
	"github.com/xkilldash9x/snaplinks/internal/browser/page"
	"github.com/xkilldash9x/snaplinks/internal/geometry"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNoRegistry means the page no longer has the collected registry, which
// happens once the tab navigates away.
var ErrNoRegistry = errors.New("cdp: element registry missing from page")

type elementRef struct {
	window int
	index  int
}

// Host is a live Chrome tab mirrored into the in-memory page model. The
// selection engine works against Tab(); outline and scroll writes made
// there are replayed in the browser.
type Host struct {
	ctx    context.Context
	exec   Executor
	logger *zap.Logger

	tab     *page.Tab
	windows map[*page.Window]int
	nodes   map[*page.Node]elementRef

	refreshPending atomic.Bool
}

// Snapshot collects the current page of the tab behind ctx. ctx stays in
// use for write-back until the Host is dropped.
func Snapshot(ctx context.Context, exec Executor, logger *zap.Logger) (*Host, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	snap, err := collect(ctx, exec)
	if err != nil {
		return nil, err
	}

	h := &Host{
		ctx:    ctx,
		exec:   exec,
		logger: logger.Named("cdp"),
	}
	h.build(snap)
	h.tab.SetHooks(page.Hooks{Outline: h.writeOutline, Scroll: h.writeScroll})
	h.logger.Debug("Page collected.", zap.Int("windows", len(h.windows)), zap.Int("elements", len(h.nodes)))
	return h, nil
}

func collect(ctx context.Context, exec Executor) (snapshot, error) {
	var snap snapshot
	raw, err := exec.Evaluate(ctx, collectScript)
	if err != nil {
		return snap, fmt.Errorf("failed to collect page: %w", err)
	}
	if err := json.Unmarshal(raw, &snap); err != nil {
		return snap, fmt.Errorf("failed to decode page snapshot: %w", err)
	}
	if len(snap.Windows) == 0 || snap.Windows[0].Parent >= 0 {
		return snap, fmt.Errorf("page snapshot has no top window")
	}
	return snap, nil
}

// Refresh collects the page again into the same tab. The old documents are
// unloaded first, while their outlines can still be written back, so tab
// listeners see an unload followed by loads. When collecting fails the tab
// is left without a document until the next refresh.
func (h *Host) Refresh() error {
	h.tab.TopWindow().Unload()
	snap, err := collect(h.ctx, h.exec)
	if err != nil {
		return err
	}
	h.build(snap)
	h.logger.Debug("Page re-collected.", zap.Int("windows", len(h.windows)), zap.Int("elements", len(h.nodes)))
	return nil
}

// Watch follows navigations in the tab behind ctx, a chromedp tab context,
// and refreshes the tab after each one. post must run its argument on the
// goroutine that owns the tab, e.g. loop.Loop.Post.
func (h *Host) Watch(ctx context.Context, post func(func()) bool) {
	chromedp.ListenTarget(ctx, func(ev any) { h.handleEvent(ev, post) })
}

func (h *Host) handleEvent(ev any, post func(func()) bool) {
	switch ev.(type) {
	case *cdppage.EventFrameNavigated, *cdppage.EventFrameDetached,
		*cdppage.EventFrameStoppedLoading, *cdppage.EventLoadEventFired:
	default:
		return
	}
	// Bursts of events collapse into one refresh.
	if !h.refreshPending.CompareAndSwap(false, true) {
		return
	}
	run := func() {
		h.refreshPending.Store(false)
		if err := h.Refresh(); err != nil {
			h.logger.Debug("Page not re-collected.", zap.Error(err))
		}
	}
	// Listeners must not block the target's event loop.
	go func() {
		if !post(run) {
			h.refreshPending.Store(false)
		}
	}()
}

// Tab is the mirrored page.
func (h *Host) Tab() *page.Tab { return h.tab }

func (h *Host) build(snap snapshot) {
	top := snap.Windows[0].Viewport
	if h.tab == nil {
		h.tab = page.NewTab(page.TabOptions{
			Width:        top.Width,
			Height:       top.Height,
			Screen:       geometry.Point{X: top.ScreenX, Y: top.ScreenY},
			ContentScale: snap.DevicePixelRatio,
		})
	} else if err := h.tab.TopWindow().Resize(top.Width, top.Height); err != nil {
		h.logger.Debug("Top window not resized.", zap.Error(err))
	}
	h.windows = make(map[*page.Window]int, len(snap.Windows))
	h.nodes = make(map[*page.Node]elementRef)

	built := make(map[int]*page.Window, len(snap.Windows))
	for _, ws := range snap.Windows {
		vp := ws.Viewport
		var w *page.Window
		if ws.Parent < 0 {
			w = h.tab.TopWindow()
		} else {
			parent, ok := built[ws.Parent]
			if !ok {
				h.logger.Debug("Frame without a collected parent skipped.", zap.String("url", ws.URL))
				continue
			}
			pvp := parent.Viewport()
			origin := geometry.Point{X: ws.Origin.X + pvp.ScrollX, Y: ws.Origin.Y + pvp.ScrollY}
			w = parent.AddFrame(origin, vp.Width, vp.Height)
		}
		built[ws.ID] = w
		h.windows[w] = ws.ID

		w.SetContentSize(vp.ContentWidth, vp.ContentHeight)
		w.ScrollTo(vp.ScrollX, vp.ScrollY)
		h.buildDocument(w.LoadDocument(ws.URL), ws)
	}
}

// buildDocument recreates the element tree. Client rects are shifted by the
// window scroll into document coordinates.
func (h *Host) buildDocument(doc *page.Document, ws windowSnapshot) {
	nodes := make([]*page.Node, len(ws.Elements))
	for i, es := range ws.Elements {
		rects := make([]geometry.Rect, len(es.Rects))
		for j, r := range es.Rects {
			rects[j] = geometry.New(r.Top, r.Left, r.Bottom, r.Right).Offset(ws.Viewport.ScrollX, ws.Viewport.ScrollY)
		}

		var n *page.Node
		switch {
		case i == 0 && es.Parent < 0:
			n = doc.Root()
		case es.Parent >= 0 && es.Parent < i && nodes[es.Parent] != nil:
			n = nodes[es.Parent].Append(es.Tag, page.Attrs(es.Attrs))
		default:
			n = doc.Root().Append(es.Tag, page.Attrs(es.Attrs))
		}
		n.WithRects(rects...).WithStyle(dom.Style(es.Style))
		nodes[i] = n
		h.nodes[n] = elementRef{window: ws.ID, index: i}
	}
}

func (h *Host) writeOutline(n *page.Node, value string) error {
	ref, ok := h.nodes[n]
	if !ok {
		return nil
	}
	quoted, err := json.MarshalToString(value)
	if err != nil {
		return err
	}
	script := fmt.Sprintf("window.%[1]s ? window.%[1]s.outline(%d, %d, %s) : null", registryName, ref.window, ref.index, quoted)
	return h.write(script)
}

func (h *Host) writeScroll(w *page.Window, dx, dy float64) error {
	id, ok := h.windows[w]
	if !ok {
		return nil
	}
	script := fmt.Sprintf("window.%[1]s ? window.%[1]s.scroll(%d, %g, %g) : null", registryName, id, dx, dy)
	return h.write(script)
}

// write runs a registry call. The call returns null without a registry and
// false when its target is gone.
func (h *Host) write(script string) error {
	raw, err := h.exec.Evaluate(h.ctx, script)
	if err != nil {
		return err
	}
	var ok *bool
	if err := json.Unmarshal(raw, &ok); err != nil {
		return fmt.Errorf("unexpected registry result %q: %w", raw, err)
	}
	switch {
	case ok == nil:
		return ErrNoRegistry
	case !*ok:
		return dom.ErrDetached
	}
	return nil
}
