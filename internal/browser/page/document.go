package page

import (
	"net/url"
	"strings"

	"github.com/xkilldash9x/snaplinks/internal/browser/dom"
)

// Document is an in-memory document. Nodes are kept in document order.
type Document struct {
	url      string
	base     *url.URL
	win      *Window
	root     *Node
	unloaded bool
}

func newDocument(w *Window, rawURL string) *Document {
	d := &Document{url: rawURL, win: w}
	d.base, _ = url.Parse(rawURL)
	d.root = &Node{tag: "html", doc: d, attrs: map[string]string{}, style: defaultStyle("html")}
	return d
}

func (d *Document) URL() string { return d.url }

func (d *Document) View() dom.Window {
	if d.unloaded || d.win == nil {
		return nil
	}
	return d.win
}

// Root returns the document element.
func (d *Document) Root() *Node { return d.root }

// Links returns a and area elements with an href attribute.
func (d *Document) Links() []dom.Element {
	var out []dom.Element
	d.walk(func(n *Node) {
		if n.tag != "a" && n.tag != "area" {
			return
		}
		if _, ok := n.attrs["href"]; ok {
			out = append(out, n)
		}
	})
	return out
}

func (d *Document) ElementsByTag(tag string) []dom.Element {
	tag = strings.ToLower(tag)
	var out []dom.Element
	d.walk(func(n *Node) {
		if n.tag == tag {
			out = append(out, n)
		}
	})
	return out
}

func (d *Document) ElementByID(id string) dom.Element {
	if n := d.NodeByID(id); n != nil {
		return n
	}
	return nil
}

// NodeByID returns the first node with the id, or nil.
func (d *Document) NodeByID(id string) *Node {
	var found *Node
	d.walk(func(n *Node) {
		if found == nil && n.attrs["id"] == id {
			found = n
		}
	})
	return found
}

// Nodes lists every node in document order.
func (d *Document) Nodes() []*Node {
	var out []*Node
	d.walk(func(n *Node) { out = append(out, n) })
	return out
}

func (d *Document) walk(fn func(*Node)) {
	var visit func(*Node)
	visit = func(n *Node) {
		fn(n)
		for _, c := range n.children {
			visit(c)
		}
	}
	visit(d.root)
}

func (d *Document) resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if d.base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return d.base.ResolveReference(u).String()
}
