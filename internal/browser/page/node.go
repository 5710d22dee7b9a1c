package page

import (
	"strings"

	"github.com/xkilldash9x/snaplinks/internal/browser/dom"
	"github.com/xkilldash9x/snaplinks/internal/geometry"
)

// Attrs is an attribute map for building nodes.
type Attrs map[string]string

// Node is an element of a Document.
type Node struct {
	tag      string
	attrs    map[string]string
	doc      *Document
	parent   *Node
	children []*Node

	// rects are border-box fragments in document coordinates.
	rects     []geometry.Rect
	layoutErr error
	style     dom.Style
	outline   string
}

func defaultStyle(tag string) dom.Style {
	s := dom.Style{"display": "inline", "visibility": "visible", "cursor": "auto", "font-size": "16px"}
	switch tag {
	case "html", "body", "div", "p", "ul", "li":
		s["display"] = "block"
	case "input", "img", "button", "iframe":
		s["display"] = "inline-block"
	}
	return s
}

// Append creates a child element.
func (n *Node) Append(tag string, attrs Attrs) *Node {
	tag = strings.ToLower(tag)
	c := &Node{tag: tag, attrs: map[string]string{}, doc: n.doc, parent: n, style: defaultStyle(tag)}
	for k, v := range attrs {
		c.attrs[strings.ToLower(k)] = v
	}
	if tag == "a" || tag == "area" {
		if _, ok := c.attrs["href"]; ok {
			c.style["cursor"] = "pointer"
		}
	}
	n.children = append(n.children, c)
	return c
}

// WithRects sets the fragments in document coordinates.
func (n *Node) WithRects(rects ...geometry.Rect) *Node {
	n.rects = append([]geometry.Rect(nil), rects...)
	return n
}

// WithStyle merges computed properties over the defaults.
func (n *Node) WithStyle(s dom.Style) *Node {
	for k, v := range s {
		n.style[strings.ToLower(k)] = v
	}
	return n
}

// WithLayoutError makes ClientRects fail with err.
func (n *Node) WithLayoutError(err error) *Node {
	n.layoutErr = err
	return n
}

func (n *Node) Tag() string { return n.tag }

func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.attrs[strings.ToLower(name)]
	return v, ok
}

// Href resolves the href attribute against the document URL.
func (n *Node) Href() string {
	v, ok := n.attrs["href"]
	if !ok {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(v)), "javascript:") {
		return strings.TrimSpace(v)
	}
	return n.doc.resolve(v)
}

func (n *Node) Parent() dom.Element {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *Node) Children() []dom.Element {
	out := make([]dom.Element, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

// ClientRects returns the fragments relative to the window's viewport.
func (n *Node) ClientRects() ([]geometry.Rect, error) {
	if n.doc.unloaded {
		return nil, dom.ErrDetached
	}
	if n.layoutErr != nil {
		return nil, n.layoutErr
	}
	w := n.doc.win
	out := make([]geometry.Rect, len(n.rects))
	for i, r := range n.rects {
		out[i] = r.Offset(-w.scrollX, -w.scrollY)
	}
	return out, nil
}

func (n *Node) ComputedStyle() (dom.Style, error) {
	if n.doc.unloaded {
		return nil, dom.ErrDetached
	}
	out := make(dom.Style, len(n.style))
	for k, v := range n.style {
		out[k] = v
	}
	return out, nil
}

// SetOutline stores the outline and mirrors it through the outline hook.
func (n *Node) SetOutline(value string) error {
	if n.doc.unloaded {
		return dom.ErrDetached
	}
	n.outline = value
	if h := n.doc.win.tab.currentHooks(); h.Outline != nil {
		return h.Outline(n, value)
	}
	return nil
}

// Outline returns the current outline value.
func (n *Node) Outline() string { return n.outline }

// Document returns the owning document.
func (n *Node) Document() *Document { return n.doc }
