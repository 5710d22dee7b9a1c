package dom_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/snaplinks/internal/browser/dom"
	"github.com/xkilldash9x/snaplinks/internal/geometry"
)

// node is a minimal Element for exercising the tree helpers.
type node struct {
	tag      string
	attrs    map[string]string
	parent   *node
	children []*node
}

func el(tag string, attrs map[string]string, children ...*node) *node {
	n := &node{tag: tag, attrs: attrs, children: children}
	for _, c := range children {
		c.parent = n
	}
	return n
}

func (n *node) Tag() string { return n.tag }
func (n *node) Attr(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}
func (n *node) Href() string { return n.attrs["href"] }
func (n *node) Parent() dom.Element {
	if n.parent == nil {
		return nil
	}
	return n.parent
}
func (n *node) Children() []dom.Element {
	out := make([]dom.Element, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}
func (n *node) ClientRects() ([]geometry.Rect, error) { return nil, dom.ErrNoLayout }
func (n *node) ComputedStyle() (dom.Style, error)    { return dom.Style{}, nil }
func (n *node) SetOutline(string) error              { return nil }

func TestXPath(t *testing.T) {
	h1 := el("h1", nil)
	p2 := el("p", nil)
	li2 := el("li", nil)
	special := el("li", map[string]string{"id": "special"})
	p3 := el("p", nil)
	body := el("body", nil,
		el("div", map[string]string{"id": "header"}, h1),
		el("div", nil, el("p", nil), p2, el("ul", nil, el("li", nil), li2, special)),
		el("div", nil, p3),
	)
	html := el("html", nil, body)

	tests := []struct {
		name   string
		target dom.Element
		want   string
	}{
		{"body", body, "/html[1]/body[1]"},
		{"child of id element", h1, `//*[@id='header']/h1[1]`},
		{"specific index", p2, "/html[1]/body[1]/div[2]/p[2]"},
		{"later sibling div", p3, "/html[1]/body[1]/div[3]/p[1]"},
		{"list item", li2, "/html[1]/body[1]/div[2]/ul[1]/li[2]"},
		{"element with id", special, `//*[@id='special']`},
		{"root", html, "/html[1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dom.XPath(tt.target))
		})
	}
	assert.Equal(t, "", dom.XPath(nil))
}

func TestClosestAncestor(t *testing.T) {
	img := el("img", nil)
	a := el("a", map[string]string{"href": "https://example.test/"}, el("span", nil, img))
	el("body", nil, a)

	isLink := func(e dom.Element) bool {
		_, ok := e.Attr("href")
		return e.Tag() == "a" && ok
	}
	assert.Equal(t, dom.Element(a), dom.ClosestAncestor(img, isLink))
	assert.Nil(t, dom.ClosestAncestor(a, isLink), "the element itself is not its own ancestor")
}

func TestStyle(t *testing.T) {
	tests := []struct {
		name     string
		style    dom.Style
		hidden   bool
		fontSize float64
		hasFont  bool
	}{
		{"visible", dom.Style{"display": "inline", "font-size": "16px"}, false, 16, true},
		{"display none", dom.Style{"display": "NONE"}, true, 0, false},
		{"visibility hidden", dom.Style{"visibility": "hidden", "font-size": "12.5px"}, true, 12.5, true},
		{"collapse", dom.Style{"visibility": "collapse"}, true, 0, false},
		{"relative size is not computed", dom.Style{"font-size": "2em"}, false, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.hidden, tt.style.Hidden())
			size, ok := tt.style.FontSizePx()
			assert.Equal(t, tt.hasFont, ok)
			assert.Equal(t, tt.fontSize, size)
		})
	}
	assert.Equal(t, "pointer", dom.Style{"cursor": " Pointer "}.Cursor())
}

func TestViewport(t *testing.T) {
	vp := dom.Viewport{InnerWidth: 800, InnerHeight: 600, ScrollX: 10, ScrollY: 200, ScreenX: 5, ScreenY: 90}
	assert.Equal(t, geometry.New(200, 10, 800, 810), vp.Rect())
	assert.Equal(t, geometry.Point{X: 5, Y: 90}, vp.Screen())
}
