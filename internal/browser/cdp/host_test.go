package cdp

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	cdppage "github.com/chromedp/cdproto/page"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/snaplinks/internal/browser/dom"
	"github.com/xkilldash9x/snaplinks/internal/browser/page"
	"github.com/xkilldash9x/snaplinks/internal/config"
	"github.com/xkilldash9x/snaplinks/internal/geometry"
	"github.com/xkilldash9x/snaplinks/internal/loop"
	"github.com/xkilldash9x/snaplinks/internal/selection"
)

type mockExecutor struct {
	mock.Mock
}

func (m *mockExecutor) Navigate(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

func (m *mockExecutor) Evaluate(ctx context.Context, script string) ([]byte, error) {
	args := m.Called(ctx, script)
	raw, _ := args.Get(0).([]byte)
	return raw, args.Error(1)
}

func (m *mockExecutor) SetViewport(ctx context.Context, width, height int64) error {
	return m.Called(ctx, width, height).Error(0)
}

const linkStyle = `{"display":"inline","visibility":"visible","cursor":"pointer","font-size":"16px"}`

var pageJSON = `{"devicePixelRatio":1,"windows":[
 {"id":0,"parent":-1,"url":"https://example.test/","origin":{"x":0,"y":0},
  "viewport":{"width":800,"height":600,"scrollX":0,"scrollY":100,"contentWidth":800,"contentHeight":2000,"screenX":0,"screenY":0},
  "elements":[
   {"tag":"html","parent":-1,"attrs":{},"style":{"display":"block"},"rects":[]},
   {"tag":"body","parent":0,"attrs":{},"style":{"display":"block"},"rects":[]},
   {"tag":"a","parent":1,"attrs":{"href":"/one","id":"one"},"style":` + linkStyle + `,"rects":[{"top":10,"left":10,"bottom":30,"right":60}]},
   {"tag":"iframe","parent":1,"attrs":{"src":"/frame"},"style":{"display":"inline-block"},"rects":[{"top":200,"left":0,"bottom":300,"right":200}]}
  ]},
 {"id":1,"parent":0,"url":"https://example.test/frame","origin":{"x":0,"y":200},
  "viewport":{"width":200,"height":100,"scrollX":0,"scrollY":0,"contentWidth":200,"contentHeight":100,"screenX":0,"screenY":0},
  "elements":[
   {"tag":"html","parent":-1,"attrs":{},"style":{"display":"block"},"rects":[]},
   {"tag":"a","parent":0,"attrs":{"href":"inner"},"style":` + linkStyle + `,"rects":[{"top":5,"left":5,"bottom":15,"right":50}]}
  ]}
]}`

// nextJSON is the page after navigating away: one link, no frames.
var nextJSON = `{"devicePixelRatio":1,"windows":[
 {"id":0,"parent":-1,"url":"https://example.test/next","origin":{"x":0,"y":0},
  "viewport":{"width":800,"height":600,"scrollX":0,"scrollY":0,"contentWidth":800,"contentHeight":2000,"screenX":0,"screenY":0},
  "elements":[
   {"tag":"html","parent":-1,"attrs":{},"style":{"display":"block"},"rects":[]},
   {"tag":"a","parent":0,"attrs":{"href":"/next"},"style":` + linkStyle + `,"rects":[{"top":150,"left":10,"bottom":170,"right":60}]}
  ]}
]}`

func isCollect(script string) bool { return script == collectScript }

func isOutline(script string) bool { return strings.Contains(script, ".outline(") }

func collected(t *testing.T) (*Host, *mockExecutor) {
	t.Helper()
	exec := new(mockExecutor)
	exec.On("Evaluate", mock.Anything, mock.MatchedBy(isCollect)).Return([]byte(pageJSON), nil).Once()
	h, err := Snapshot(context.Background(), exec, zaptest.NewLogger(t))
	require.NoError(t, err)
	return h, exec
}

func TestSnapshot_BuildsTab(t *testing.T) {
	h, exec := collected(t)
	tab := h.Tab()

	top := tab.TopWindow()
	vp := top.Viewport()
	assert.Equal(t, 800.0, vp.InnerWidth)
	assert.Equal(t, 100.0, vp.ScrollY)
	assert.Equal(t, 1400.0, vp.ScrollMaxY)

	one := top.Doc().NodeByID("one")
	require.NotNil(t, one)
	assert.Equal(t, "https://example.test/one", one.Href())
	rects, err := one.ClientRects()
	require.NoError(t, err)
	assert.Equal(t, []geometry.Rect{geometry.New(10, 10, 30, 60)}, rects, "client rects survive the round trip")

	windows := tab.Windows()
	require.Len(t, windows, 2)
	frame := windows[1]
	assert.Equal(t, 200.0, frame.Viewport().ScreenY, "frame sits where its iframe was on screen")
	links := frame.Doc().Links()
	require.Len(t, links, 1)
	assert.Equal(t, "https://example.test/inner", links[0].Href())

	exec.AssertExpectations(t)
}

func TestSnapshot_Selection(t *testing.T) {
	h, _ := collected(t)
	logger := zaptest.NewLogger(t)

	table := selection.Index(h.Tab().Top())
	require.Equal(t, 2, table.Len())
	selection.NewCalculator(selection.DefaultOptions(), logger).CalculateAll(table)
	snap := selection.NewEngine(logger).Classify(table, selection.Query{Selection: geometry.New(100, 0, 400, 400), LargestFontWins: true})

	assert.Equal(t, selection.Links, snap.Type)
	assert.Equal(t, []string{"https://example.test/one", "https://example.test/inner"}, snap.URLs())
}

func TestSnapshot_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		err  error
		want string
	}{
		{"evaluation fails", "", errors.New("target closed"), "target closed"},
		{"not json", "{", nil, "decode"},
		{"no windows", `{"windows":[]}`, nil, "no top window"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			exec := new(mockExecutor)
			exec.On("Evaluate", mock.Anything, mock.Anything).Return([]byte(tc.raw), tc.err)
			_, err := Snapshot(context.Background(), exec, nil)
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestHost_OutlineWriteBack(t *testing.T) {
	h, exec := collected(t)
	one := h.Tab().TopWindow().Doc().NodeByID("one")

	call := `window.__snapsel ? window.__snapsel.outline(0, 2, "1px solid #FF0000") : null`
	exec.On("Evaluate", mock.Anything, call).Return([]byte("true"), nil).Once()
	require.NoError(t, one.SetOutline("1px solid #FF0000"))
	assert.Equal(t, "1px solid #FF0000", one.Outline())

	exec.On("Evaluate", mock.Anything, mock.MatchedBy(func(s string) bool {
		return strings.Contains(s, "outline(0, 2, \"\")")
	})).Return([]byte("null"), nil).Once()
	assert.ErrorIs(t, one.SetOutline(""), ErrNoRegistry)

	inner := h.Tab().Windows()[1].Doc().Links()[0].(*page.Node)
	exec.On("Evaluate", mock.Anything, mock.MatchedBy(func(s string) bool {
		return strings.Contains(s, "outline(1, 1, ")
	})).Return([]byte("false"), nil).Once()
	assert.ErrorIs(t, inner.SetOutline("x"), dom.ErrDetached)

	exec.AssertExpectations(t)
}

func TestHost_ScrollWriteBack(t *testing.T) {
	h, exec := collected(t)
	exec.On("Evaluate", mock.Anything, `window.__snapsel ? window.__snapsel.scroll(0, 0, -5) : null`).Return([]byte("true"), nil).Once()

	h.Tab().TopWindow().ScrollBy(0, -5)
	assert.Equal(t, 95.0, h.Tab().TopWindow().Viewport().ScrollY)
	exec.AssertExpectations(t)
}

func TestOpen(t *testing.T) {
	exec := new(mockExecutor)
	cfg := config.NewDefaultConfig().Browser()
	exec.On("SetViewport", mock.Anything, int64(1280), int64(800)).Return(nil).Once()
	exec.On("Navigate", mock.Anything, "https://example.test/").Return(nil).Once()
	exec.On("Evaluate", mock.Anything, mock.MatchedBy(isCollect)).Return([]byte(pageJSON), nil).Once()

	h, err := Open(context.Background(), exec, "https://example.test/", cfg, nil)
	require.NoError(t, err)
	assert.NotNil(t, h.Tab().TopWindow().Doc())
	exec.AssertExpectations(t)

	failing := new(mockExecutor)
	failing.On("SetViewport", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	failing.On("Navigate", mock.Anything, mock.Anything).Return(errors.New("net::ERR_NAME_NOT_RESOLVED"))
	_, err = Open(context.Background(), failing, "https://nowhere.test/", cfg, nil)
	assert.ErrorContains(t, err, "ERR_NAME_NOT_RESOLVED")
	failing.AssertNotCalled(t, "Evaluate", mock.Anything, mock.Anything)
}

func TestAllocatorOptions(t *testing.T) {
	cfg := config.BrowserConfig{WindowWidth: 1024, WindowHeight: 768}
	base := len(AllocatorOptions(cfg))

	cfg.Headless = true
	cfg.ExecPath = "/usr/bin/chromium"
	cfg.Args = []string{"--no-sandbox", "--lang=fr"}
	assert.Len(t, AllocatorOptions(cfg), base+4)
}

func TestHost_RefreshFollowsNavigation(t *testing.T) {
	h, exec := collected(t)
	exec.On("Evaluate", mock.Anything, mock.MatchedBy(isOutline)).Return([]byte("true"), nil)
	exec.On("Evaluate", mock.Anything, mock.MatchedBy(isCollect)).Return([]byte(nextJSON), nil).Once()

	clock := loop.NewManual(time.Unix(0, 0))
	ctrl := selection.NewController(h.Tab(), clock, selection.DefaultOptions(), zaptest.NewLogger(t))
	require.True(t, ctrl.PointerDown(selection.PointerEvent{Screen: geometry.Point{X: 1, Y: 1}}))
	ctrl.PointerMove(selection.PointerEvent{Screen: geometry.Point{X: 300, Y: 250}})
	require.Equal(t, 2, ctrl.Documents().Len())
	require.Equal(t, 2, ctrl.Snapshot().Len())
	one := h.Tab().TopWindow().Doc().NodeByID("one")
	require.NotEmpty(t, one.Outline())

	require.NoError(t, h.Refresh())
	assert.Empty(t, one.Outline(), "outlines of the old page are cleared")
	assert.Zero(t, ctrl.Documents().Len())
	assert.Equal(t, "https://example.test/next", h.Tab().TopWindow().Doc().URL())
	assert.Len(t, h.Tab().Windows(), 1)

	clock.Advance(0)
	assert.Equal(t, 1, ctrl.Documents().Len())
	clock.Advance(101 * time.Millisecond)
	assert.Equal(t, []string{"https://example.test/next"}, ctrl.Snapshot().URLs())

	_, ok := ctrl.PointerUp(selection.PointerEvent{})
	assert.True(t, ok)
	assert.Zero(t, h.Tab().DocumentListeners())
	exec.AssertExpectations(t)
}

func TestHost_NavigationEventsRefreshOnce(t *testing.T) {
	h, exec := collected(t)
	exec.On("Evaluate", mock.Anything, mock.MatchedBy(isCollect)).Return([]byte(nextJSON), nil).Once()

	posted := make(chan func(), 4)
	post := func(f func()) bool {
		posted <- f
		return true
	}
	next := func() func() {
		t.Helper()
		select {
		case f := <-posted:
			return f
		case <-time.After(time.Second):
			t.Fatal("no refresh was posted")
			return nil
		}
	}

	h.handleEvent(&cdppage.EventDomContentEventFired{}, post)
	h.handleEvent(&cdppage.EventFrameNavigated{}, post)
	h.handleEvent(&cdppage.EventFrameStoppedLoading{}, post)
	h.handleEvent(&cdppage.EventLoadEventFired{}, post)

	next()()
	assert.Empty(t, posted, "a burst of events refreshes once")
	assert.Equal(t, "https://example.test/next", h.Tab().TopWindow().Doc().URL())

	h.handleEvent(&cdppage.EventFrameDetached{}, post)
	assert.NotNil(t, next(), "events after a refresh schedule another one")
	exec.AssertExpectations(t)
}
