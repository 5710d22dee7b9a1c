package action

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/snaplinks/internal/browser/page"
	"github.com/xkilldash9x/snaplinks/internal/geometry"
	"github.com/xkilldash9x/snaplinks/internal/selection"
)

// snapshotOf selects everything in the top 100 pixels of the tab.
func snapshotOf(t *testing.T, tab *page.Tab) selection.Snapshot {
	return selectTop(t, tab, true)
}

func selectTop(t *testing.T, tab *page.Tab, dedupe bool) selection.Snapshot {
	t.Helper()
	logger := zaptest.NewLogger(t)
	table := selection.Index(tab.Top())
	selection.NewCalculator(selection.DefaultOptions(), logger).CalculateAll(table)
	return selection.NewEngine(logger).Classify(table, selection.Query{
		Selection:           geometry.New(0, 0, 100, 800),
		RemoveDuplicateURLs: dedupe,
	})
}

func linkTab(t *testing.T) *page.Tab {
	tab := page.NewTab(page.TabOptions{Width: 800, Height: 600})
	root := tab.TopWindow().LoadDocument("https://example.test/").Root()
	root.Append("a", page.Attrs{"href": "/one", "id": "one"}).WithRects(geometry.New(0, 0, 10, 50))
	root.Append("a", page.Attrs{"href": "/two"}).WithRects(geometry.New(20, 0, 30, 50))
	root.Append("a", page.Attrs{"href": "/one"}).WithRects(geometry.New(40, 0, 50, 50))
	return tab
}

func TestParse(t *testing.T) {
	for _, name := range []string{"tabs", "windows", "window", "clipboard", "bookmark", "download", "menu"} {
		a, err := Parse(name)
		require.NoError(t, err)
		assert.Equal(t, Action(name), a)
	}
	a, err := Parse("Clipboard")
	require.NoError(t, err)
	assert.Equal(t, Clipboard, a)

	_, err = Parse("print")
	assert.Error(t, err)
	assert.False(t, Menu.NeedsURLs())
	assert.True(t, Download.NeedsURLs())
}

func TestNewRequest_Links(t *testing.T) {
	snap := snapshotOf(t, linkTab(t))
	req := NewRequest(selection.Completion{GestureID: "g1", Snapshot: snap}, OpenTabs)

	assert.Equal(t, "g1", req.GestureID)
	assert.Equal(t, OpenTabs, req.Action)
	assert.Equal(t, selection.Links, req.Type)
	assert.Equal(t, 2, req.Count, "duplicate URLs are removed")
	assert.Equal(t, []string{"https://example.test/one", "https://example.test/two"}, req.URLs)
	require.Len(t, req.Elements, 2)
	assert.Equal(t, Element{Tag: "a", XPath: "//*[@id='one']", Href: "https://example.test/one"}, req.Elements[0])
	assert.Equal(t, "a", req.Elements[1].Tag)
}

func TestNewRequest_KeepsRepeatedURLsWithoutDedupe(t *testing.T) {
	snap := selectTop(t, linkTab(t), false)
	require.Equal(t, 3, snap.Len())

	req := NewRequest(selection.Completion{Snapshot: snap}, Clipboard)
	assert.Equal(t, 3, req.Count)
	assert.Equal(t, []string{
		"https://example.test/one",
		"https://example.test/two",
		"https://example.test/one",
	}, req.URLs)
}

func TestNewRequest_MenuAndCheckboxes(t *testing.T) {
	tab := page.NewTab(page.TabOptions{Width: 800, Height: 600})
	root := tab.TopWindow().LoadDocument("https://example.test/").Root()
	root.Append("input", page.Attrs{"type": "checkbox"}).WithRects(geometry.New(0, 0, 13, 13))
	root.Append("input", page.Attrs{"type": "checkbox"}).WithRects(geometry.New(20, 0, 33, 13))

	req := NewRequest(selection.Completion{Snapshot: snapshotOf(t, tab), MenuRequested: true}, OpenTabs)
	assert.Equal(t, Menu, req.Action)
	assert.Equal(t, selection.Checkboxes, req.Type)
	assert.Equal(t, 2, req.Count)
	assert.Empty(t, req.URLs)
}

func TestPrintExecutor(t *testing.T) {
	req := NewRequest(selection.Completion{GestureID: "g1", Snapshot: snapshotOf(t, linkTab(t))}, Clipboard)

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		p, err := NewPrintExecutor(&buf, "text")
		require.NoError(t, err)
		require.NoError(t, p.Execute(context.Background(), req))
		assert.Contains(t, buf.String(), "clipboard: 2 Links\n")
		assert.Contains(t, buf.String(), "  //*[@id='one'] https://example.test/one\n")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		p, err := NewPrintExecutor(&buf, "json")
		require.NoError(t, err)
		require.NoError(t, p.Execute(context.Background(), req))

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, "Links", decoded["type"])
		assert.Equal(t, "clipboard", decoded["action"])
		assert.Len(t, decoded["urls"], 2)
	})

	_, err := NewPrintExecutor(nil, "sarif")
	assert.Error(t, err)
}

func TestClipboardExecutor(t *testing.T) {
	var copied string
	c := NewClipboardExecutor(func(text string) error { copied = text; return nil }, zaptest.NewLogger(t))

	req := Request{URLs: []string{"https://a.test/", "https://b.test/"}}
	require.NoError(t, c.Execute(context.Background(), req))
	assert.Equal(t, "https://a.test/\nhttps://b.test/", copied)

	assert.ErrorIs(t, c.Execute(context.Background(), Request{}), ErrNothingToCopy)

	failing := NewClipboardExecutor(func(string) error { return errors.New("no display") }, nil)
	assert.ErrorContains(t, failing.Execute(context.Background(), req), "no display")
}

func TestChain_StopsAtFirstError(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewPrintExecutor(&buf, "text")
	require.NoError(t, err)
	c := NewClipboardExecutor(func(string) error { return nil }, nil)

	err = Chain{c, p}.Execute(context.Background(), Request{Action: Menu})
	assert.ErrorIs(t, err, ErrNothingToCopy)
	assert.Empty(t, buf.String())
}
