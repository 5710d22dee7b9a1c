package selection

import (
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/snaplinks/internal/browser/dom"
	"github.com/xkilldash9x/snaplinks/internal/geometry"
)

// Query is the input of one classification pass.
type Query struct {
	// Selection is the selection rectangle in top-document page coordinates.
	// It may be inverted.
	Selection geometry.Rect
	// LargestFontWins keeps only the links with the largest font size.
	LargestFontWins bool
	// PinnedFontSize, when positive, replaces the largest observed size.
	PinnedFontSize      float64
	RemoveDuplicateURLs bool
}

// Engine intersects the selection rectangle with the indexed documents and
// classifies the hits. It only reads the table.
type Engine struct {
	logger   *zap.Logger
	failures rate.Sometimes
}

// NewEngine creates an Engine.
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{
		logger:   logger.Named("engine"),
		failures: rate.Sometimes{First: 5, Interval: time.Second},
	}
}

// Classify returns the selected set for q.
func (e *Engine) Classify(table *DocumentTable, q Query) Snapshot {
	var (
		snap     Snapshot
		hits     []*Candidate
		fontSize = make(map[*Candidate]float64)
		maxFont  = map[ElementType]float64{}
		sel      = q.Selection.Normalize()
		rects    = newDocumentRects()
	)

	for _, entry := range table.Entries() {
		docRect, ok := rects.of(entry.Window)
		if !ok {
			continue
		}
		area, ok := sel.Intersect(docRect)
		if !ok {
			continue
		}
		local := rects.toLocal(entry.Window, area)

		for _, cand := range entry.cache.candidates {
			for _, r := range cand.rects {
				if !r.Intersects(local) {
					continue
				}
				style, err := cand.element.ComputedStyle()
				if err != nil {
					e.failures.Do(func() {
						e.logger.Debug("Style lookup failed, element ignored.", zap.String("element", dom.XPath(cand.element)), zap.Error(err))
					})
					break
				}
				if style.Hidden() {
					break
				}
				if cand.typ.IsLink() && q.LargestFontWins {
					if px, ok := style.FontSizePx(); ok {
						fontSize[cand] = px
						if px > maxFont[cand.typ] {
							maxFont[cand.typ] = px
						}
					}
				}
				snap.Counts[cand.typ]++
				hits = append(hits, cand)
				break
			}
		}
	}

	snap.Type = DominantType(snap.Counts)
	want := q.PinnedFontSize
	if want <= 0 {
		want = maxFont[snap.Type]
	}
	for _, h := range hits {
		if h.typ != snap.Type {
			continue
		}
		if h.typ.IsLink() && q.LargestFontWins && fontSize[h] != want {
			continue
		}
		snap.Elements = append(snap.Elements, h)
	}
	if q.RemoveDuplicateURLs && snap.Type.IsLink() {
		snap.Elements = DedupeByURL(snap.Elements)
	}
	return snap
}

// DominantType picks the type with the highest count. Ties go to the type
// that comes first in TypesInPriorityOrder.
func DominantType(counts [len(typeNames)]int) ElementType {
	best := TypesInPriorityOrder[0]
	for _, t := range TypesInPriorityOrder[1:] {
		if counts[t] > counts[best] {
			best = t
		}
	}
	return best
}

// documentRects computes, once per pass, where each window's document can
// be hit in top-document page coordinates.
type documentRects struct {
	top   dom.Viewport
	byID  map[string]geometry.Rect
	empty map[string]bool
}

func newDocumentRects() *documentRects {
	return &documentRects{byID: make(map[string]geometry.Rect), empty: make(map[string]bool)}
}

// of returns the hit region of w. The top document spans its whole
// scrollable area. A frame spans its viewport, clipped by the region of its
// parent, so it can never reach outside of it.
func (d *documentRects) of(w dom.Window) (geometry.Rect, bool) {
	id := w.FrameID()
	if r, ok := d.byID[id]; ok {
		return r, true
	}
	if d.empty[id] {
		return geometry.Rect{}, false
	}

	parent := w.Parent()
	if parent == nil {
		vp := w.Viewport()
		d.top = vp
		r := geometry.New(0, 0, vp.InnerHeight+vp.ScrollMaxY, vp.InnerWidth+vp.ScrollMaxX)
		d.byID[id] = r
		return r, true
	}

	clip, ok := d.of(parent)
	if !ok {
		d.empty[id] = true
		return geometry.Rect{}, false
	}
	vp := w.Viewport()
	r := geometry.FromXYWH(
		vp.ScreenX-d.top.ScreenX+d.top.ScrollX,
		vp.ScreenY-d.top.ScreenY+d.top.ScrollY,
		vp.InnerWidth, vp.InnerHeight,
	)
	r, ok = r.Intersect(clip)
	if !ok {
		d.empty[id] = true
		return geometry.Rect{}, false
	}
	d.byID[id] = r
	return r, true
}

// toLocal moves a region given in top-document page coordinates into the
// scrolled document coordinates of w.
func (d *documentRects) toLocal(w dom.Window, r geometry.Rect) geometry.Rect {
	if w.Parent() == nil {
		return r
	}
	vp := w.Viewport()
	return r.Offset(
		-(vp.ScreenX-d.top.ScreenX)-d.top.ScrollX+vp.ScrollX,
		-(vp.ScreenY-d.top.ScreenY)-d.top.ScrollY+vp.ScrollY,
	)
}
