package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/snaplinks/internal/browser/dom"
	"github.com/xkilldash9x/snaplinks/internal/browser/page"
	"github.com/xkilldash9x/snaplinks/internal/geometry"
)

func classify(t *testing.T, tab *page.Tab, q Query) Snapshot {
	t.Helper()
	return NewEngine(testLogger(t)).Classify(indexed(t, tab, DefaultOptions()), q)
}

func TestClassify_SimpleLinks(t *testing.T) {
	tab, doc := newTestTab(t)
	root := doc.Root()
	first := addLink(root, "/1", geometry.New(0, 0, 10, 50))
	second := addLink(root, "/2", geometry.New(20, 0, 30, 50))
	addLink(root, "/3", geometry.New(100, 0, 110, 50))

	snap := classify(t, tab, Query{Selection: geometry.New(0, 0, 35, 200), LargestFontWins: true})

	assert.Equal(t, Links, snap.Type)
	assert.Equal(t, []dom.Element{first, second}, elementsOf(snap))
	assert.Equal(t, []string{"https://example.test/1", "https://example.test/2"}, snap.URLs())
	assert.Equal(t, 2, snap.Counts[Links])
}

func TestClassify_InvertedSelection(t *testing.T) {
	tab, doc := newTestTab(t)
	addLink(doc.Root(), "/1", geometry.New(0, 0, 10, 50))

	snap := classify(t, tab, Query{Selection: geometry.New(35, 200, 0, 0)})
	assert.Equal(t, 1, snap.Len())
}

func TestClassify_TieGoesToPriority(t *testing.T) {
	tab, doc := newTestTab(t)
	root := doc.Root()
	for i := 0.0; i < 3; i++ {
		addInput(root, "checkbox", geometry.New(i*20, 0, i*20+13, 13))
		addLink(root, "/l", geometry.New(i*20, 100, i*20+10, 150))
	}

	for i := 0; i < 10; i++ {
		snap := classify(t, tab, Query{Selection: geometry.New(0, 0, 100, 300)})
		require.Equal(t, Links, snap.Type)
		assert.Equal(t, 3, snap.Counts[Checkboxes])
		assert.Equal(t, 3, snap.Len())
	}
}

func TestDominantType(t *testing.T) {
	var counts [len(typeNames)]int
	assert.Equal(t, Links, DominantType(counts), "empty counts fall back to links")
	counts[Buttons], counts[Clickable] = 2, 2
	assert.Equal(t, Buttons, DominantType(counts))
	counts[Clickable] = 3
	assert.Equal(t, Clickable, DominantType(counts))
}

func TestClassify_LargestFontWins(t *testing.T) {
	tab, doc := newTestTab(t)
	root := doc.Root()
	small := addLink(root, "/small", geometry.New(0, 0, 10, 50)).WithStyle(dom.Style{"font-size": "10px"})
	large := addLink(root, "/large", geometry.New(0, 0, 10, 50)).WithStyle(dom.Style{"font-size": "20px"})
	sel := geometry.New(0, 0, 35, 200)

	snap := classify(t, tab, Query{Selection: sel, LargestFontWins: true})
	assert.Equal(t, []dom.Element{large}, elementsOf(snap))

	snap = classify(t, tab, Query{Selection: sel, LargestFontWins: false})
	assert.Equal(t, []dom.Element{small, large}, elementsOf(snap), "the equalizing modifier selects every size")

	snap = classify(t, tab, Query{Selection: sel, LargestFontWins: true, PinnedFontSize: 10})
	assert.Equal(t, []dom.Element{small}, elementsOf(snap), "a size pinned at drag start wins over the largest")
}

func TestClassify_FontSizeTrackedPerLinkKind(t *testing.T) {
	tab, doc := newTestTab(t)
	root := doc.Root()
	addLink(root, "javascript:big()", geometry.New(0, 0, 10, 50)).WithStyle(dom.Style{"font-size": "30px"})
	plain := addLink(root, "/a", geometry.New(20, 0, 30, 50)).WithStyle(dom.Style{"font-size": "12px"})
	addLink(root, "/b", geometry.New(40, 0, 50, 50)).WithStyle(dom.Style{"font-size": "12px"})

	snap := classify(t, tab, Query{Selection: geometry.New(0, 0, 100, 100), LargestFontWins: true})
	assert.Equal(t, Links, snap.Type)
	assert.Equal(t, 2, snap.Len(), "a larger script link does not filter plain links")
	assert.Equal(t, dom.Element(plain), snap.Elements[0].Element())
}

func TestClassify_HiddenElements(t *testing.T) {
	tab, doc := newTestTab(t)
	root := doc.Root()
	addLink(root, "/none", geometry.New(0, 0, 10, 50)).WithStyle(dom.Style{"display": "none"})
	addLink(root, "/hidden", geometry.New(20, 0, 30, 50)).WithStyle(dom.Style{"visibility": "hidden"})
	visible := addLink(root, "/shown", geometry.New(40, 0, 50, 50))

	snap := classify(t, tab, Query{Selection: geometry.New(0, 0, 100, 100), LargestFontWins: true})
	assert.Equal(t, []dom.Element{visible}, elementsOf(snap))
	assert.Equal(t, 1, snap.Counts[Links])
}

func TestClassify_RemoveDuplicateURLs(t *testing.T) {
	tab, doc := newTestTab(t)
	root := doc.Root()
	addLink(root, "/same", geometry.New(0, 0, 10, 50))
	addLink(root, "/same", geometry.New(20, 0, 30, 50))
	addLink(root, "/other", geometry.New(40, 0, 50, 50))
	sel := geometry.New(0, 0, 100, 100)

	assert.Equal(t, 3, classify(t, tab, Query{Selection: sel}).Len())
	deduped := classify(t, tab, Query{Selection: sel, RemoveDuplicateURLs: true})
	assert.Equal(t, 2, deduped.Len())
	assert.Equal(t, deduped.Elements, DedupeByURL(deduped.Elements), "dedup is idempotent")
}

func TestClassify_NestedFrameIsPruned(t *testing.T) {
	tab, _ := newTestTab(t)
	frame := tab.TopWindow().AddFrame(geometry.Point{X: 50, Y: 50}, 100, 100)
	inner := addLink(frame.LoadDocument("https://example.test/frame").Root(), "/inner", geometry.New(0, 0, 10, 10))

	snap := classify(t, tab, Query{Selection: geometry.New(0, 0, 40, 40)})
	assert.Zero(t, snap.Len())

	snap = classify(t, tab, Query{Selection: geometry.New(50, 50, 60, 60)})
	assert.Equal(t, []dom.Element{inner}, elementsOf(snap))
}

func TestClassify_FrameClippedByParent(t *testing.T) {
	tab, _ := newTestTab(t)
	outer := tab.TopWindow().AddFrame(geometry.Point{}, 100, 100)
	outer.LoadDocument("https://example.test/outer")
	nested := outer.AddFrame(geometry.Point{X: 80, Y: 80}, 100, 100)
	root := nested.LoadDocument("https://example.test/nested").Root()
	visible := addLink(root, "/visible", geometry.New(5, 5, 15, 15))
	addLink(root, "/clipped", geometry.New(50, 50, 60, 60))

	snap := classify(t, tab, Query{Selection: geometry.New(0, 0, 400, 400)})
	assert.Equal(t, []dom.Element{visible}, elementsOf(snap), "a frame never reaches beyond its parent")
}

func TestClassify_ScrolledDocuments(t *testing.T) {
	tab, _ := newTestTab(t)
	top := tab.TopWindow()
	top.SetContentSize(800, 2000)
	frame := top.AddFrame(geometry.Point{X: 0, Y: 600}, 100, 100)
	frame.SetContentSize(100, 500)
	root := frame.LoadDocument("https://example.test/frame").Root()
	target := addLink(root, "/target", geometry.New(100, 0, 110, 10))
	addLink(root, "/above", geometry.New(0, 0, 10, 10))

	top.ScrollTo(0, 500)
	frame.ScrollTo(0, 100)

	// The frame's viewport starts at page y=600 and shows its document from y=100.
	snap := classify(t, tab, Query{Selection: geometry.New(595, 0, 615, 20)})
	assert.Equal(t, []dom.Element{target}, elementsOf(snap))
}

func TestSnapshot_URLs(t *testing.T) {
	links := []*Candidate{{href: "a"}, {href: ""}, {href: "b"}, {href: "a"}}
	assert.Equal(t, []string{"a", "b", "a"}, Snapshot{Type: Links, Elements: links}.URLs())
	assert.Equal(t, []string{"a", "b"}, Snapshot{Type: Links, Elements: DedupeByURL(links)}.URLs())
	assert.Nil(t, Snapshot{Type: Buttons, Elements: links}.URLs())

	once := DedupeByURL(links)
	assert.Len(t, once, 3)
	assert.Equal(t, once, DedupeByURL(once))
	assert.Len(t, links, 4, "input is not modified")
}
