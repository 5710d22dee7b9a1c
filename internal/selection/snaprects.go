package selection

import (
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/snaplinks/internal/browser/dom"
	"github.com/xkilldash9x/snaplinks/internal/geometry"
)

// Calculator builds the candidate list of a document.
type Calculator struct {
	opts   Options
	logger *zap.Logger
	// failures samples per-element errors so a broken page cannot flood the log.
	failures rate.Sometimes
}

// NewCalculator creates a Calculator for the element categories enabled in opts.
func NewCalculator(opts Options, logger *zap.Logger) *Calculator {
	return &Calculator{
		opts:     opts,
		logger:   logger.Named("snaprects"),
		failures: rate.Sometimes{First: 5, Interval: time.Second},
	}
}

// CalculateAll runs Calculate for every entry of the table.
func (c *Calculator) CalculateAll(t *DocumentTable) {
	for _, e := range t.Entries() {
		c.Calculate(e)
	}
}

// Calculate rebuilds the candidates of e unless they were already built at
// the window's current inner width. It reports whether it rebuilt them.
//
// Candidates are collected in a fixed order: anchors, form inputs, labels
// pointing at checkboxes, then generic clickable elements.
func (c *Calculator) Calculate(e *DocumentEntry) bool {
	if e == nil || e.Document == nil {
		return false
	}
	vp := e.Window.Viewport()
	if e.cache.calculated && e.cache.calculatedWindowWidth == vp.InnerWidth {
		return false
	}
	if e.cache.clickable == nil {
		e.cache.clickable = make(map[dom.Element]bool)
	}

	offset := vp.Scroll()
	doc := e.Document
	start := time.Now()

	var out []*Candidate
	for _, link := range doc.Links() {
		href := link.Href()
		typ := Links
		if isJsLink(href) {
			if !c.opts.JsLinks {
				continue
			}
			typ = JsLinks
		}
		out = append(out, &Candidate{
			element:  link,
			typ:      typ,
			rects:    c.snapRects(link, offset),
			outlines: []dom.Element{link},
			href:     href,
		})
	}
	links := time.Now()

	checkboxes := make(map[dom.Element]*Candidate)
	for _, input := range doc.ElementsByTag("input") {
		typ, ok := c.inputType(input)
		if !ok {
			continue
		}
		measured, outline := input, input
		if typ == Checkboxes || typ == RadioButtons {
			if label := dom.ClosestAncestor(input, isTag("label")); label != nil {
				measured, outline = label, label
			}
		}
		cand := &Candidate{
			element:  input,
			typ:      typ,
			rects:    c.snapRects(measured, offset),
			outlines: []dom.Element{outline},
		}
		if typ == Checkboxes {
			checkboxes[input] = cand
		}
		out = append(out, cand)
	}
	inputs := time.Now()

	for _, label := range doc.ElementsByTag("label") {
		forID, _ := label.Attr("for")
		if forID == "" {
			continue
		}
		cand := checkboxes[doc.ElementByID(forID)]
		if cand == nil {
			continue
		}
		cand.rects = append(cand.rects, c.snapRects(label, offset)...)
		cand.outlines = []dom.Element{cand.element, label}
	}
	labels := time.Now()

	for _, el := range elementsInOrder(doc, "img", "span", "div") {
		if dom.ClosestAncestor(el, isAnchorWithHref) != nil {
			continue
		}
		if !e.cache.clickable[el] {
			style, err := el.ComputedStyle()
			if err != nil {
				c.logFailure("computed style", el, err)
				continue
			}
			if style.Cursor() != "pointer" {
				continue
			}
			e.cache.clickable[el] = true
		}
		out = append(out, &Candidate{
			element:  el,
			typ:      Clickable,
			rects:    c.snapRects(el, offset),
			outlines: []dom.Element{el},
		})
	}
	end := time.Now()

	e.cache.candidates = out
	e.cache.calculated = true
	e.cache.calculatedWindowWidth = vp.InnerWidth

	c.logger.Debug("Calculated snap rects.",
		zap.String("url", e.URL),
		zap.Int("candidates", len(out)),
		zap.Duration("links", links.Sub(start)),
		zap.Duration("inputs", inputs.Sub(links)),
		zap.Duration("labels", labels.Sub(inputs)),
		zap.Duration("clickable", end.Sub(labels)),
		zap.Duration("total", end.Sub(start)),
	)
	return true
}

// inputType maps an input element to its category, honouring the enabled
// categories.
func (c *Calculator) inputType(input dom.Element) (ElementType, bool) {
	t, _ := input.Attr("type")
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "submit", "button", "reset":
		return Buttons, c.opts.Buttons
	case "radio":
		return RadioButtons, c.opts.RadioButtons
	case "checkbox":
		return Checkboxes, c.opts.Checkboxes
	}
	return 0, false
}

// snapRects returns el's client rects moved into document coordinates.
// Unmeasurable elements get a single zero rect, which never intersects.
func (c *Calculator) snapRects(el dom.Element, offset geometry.Point) []geometry.Rect {
	rects, err := el.ClientRects()
	if err != nil {
		c.logFailure("client rects", el, err)
		return []geometry.Rect{{}}
	}
	if len(rects) == 0 {
		return []geometry.Rect{{}}
	}
	out := make([]geometry.Rect, len(rects))
	for i, r := range rects {
		out[i] = r.OffsetPoint(offset)
	}
	return out
}

func (c *Calculator) logFailure(what string, el dom.Element, err error) {
	c.failures.Do(func() {
		c.logger.Debug("Element skipped.", zap.String("query", what), zap.String("element", dom.XPath(el)), zap.Error(err))
	})
}

func isJsLink(href string) bool {
	return len(href) >= len("javascript:") && strings.EqualFold(href[:len("javascript:")], "javascript:")
}

func isTag(tag string) func(dom.Element) bool {
	return func(el dom.Element) bool { return el.Tag() == tag }
}

func isAnchorWithHref(el dom.Element) bool {
	if el.Tag() != "a" {
		return false
	}
	_, ok := el.Attr("href")
	return ok
}

// elementsInOrder returns the elements with any of tags in document order.
// It walks from the document element when the host exposes one and falls
// back to per-tag lists otherwise.
func elementsInOrder(doc dom.Document, tags ...string) []dom.Element {
	want := make(map[string]bool, len(tags))
	for _, t := range tags {
		want[t] = true
	}
	roots := doc.ElementsByTag("html")
	if len(roots) == 0 {
		var out []dom.Element
		for _, t := range tags {
			out = append(out, doc.ElementsByTag(t)...)
		}
		return out
	}
	var out []dom.Element
	var walk func(dom.Element)
	walk = func(el dom.Element) {
		if want[el.Tag()] {
			out = append(out, el)
		}
		for _, child := range el.Children() {
			walk(child)
		}
	}
	walk(roots[0])
	return out
}
