package selection

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/snaplinks/internal/browser/dom"
	"github.com/xkilldash9x/snaplinks/internal/browser/page"
	"github.com/xkilldash9x/snaplinks/internal/geometry"
)

const testURL = "https://example.test/"

// newTestTab returns an 800x600 tab with an empty top document.
func newTestTab(t *testing.T) (*page.Tab, *page.Document) {
	t.Helper()
	tab := page.NewTab(page.TabOptions{Width: 800, Height: 600})
	return tab, tab.TopWindow().LoadDocument(testURL)
}

func testLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))
}

func addLink(parent *page.Node, href string, r geometry.Rect) *page.Node {
	return parent.Append("a", page.Attrs{"href": href}).WithRects(r)
}

func addInput(parent *page.Node, typ string, r geometry.Rect) *page.Node {
	return parent.Append("input", page.Attrs{"type": typ}).WithRects(r)
}

// indexed indexes the tab and calculates every document with opts.
func indexed(t *testing.T, tab *page.Tab, opts Options) *DocumentTable {
	t.Helper()
	table := Index(tab.Top())
	NewCalculator(opts, testLogger(t)).CalculateAll(table)
	return table
}

func elementsOf(s Snapshot) []dom.Element {
	out := make([]dom.Element, len(s.Elements))
	for i, c := range s.Elements {
		out[i] = c.Element()
	}
	return out
}

func typesOf(cs []*Candidate) []ElementType {
	out := make([]ElementType, len(cs))
	for i, c := range cs {
		out[i] = c.Type()
	}
	return out
}
