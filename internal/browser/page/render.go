// internal/browser/page/render.go
package page

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/net/html"

	"github.com/xkilldash9x/snaplinks/internal/browser/dom"
	"github.com/xkilldash9x/snaplinks/internal/browser/layout"
	"github.com/xkilldash9x/snaplinks/internal/browser/style"
	"github.com/xkilldash9x/snaplinks/internal/geometry"
)

// Render builds a tab whose top window shows source laid out at the tab size.
func Render(rawURL, source string, opts TabOptions) (*Tab, error) {
	tab := NewTab(opts)
	if _, err := tab.top.RenderHTML(rawURL, source); err != nil {
		return nil, err
	}
	return tab, nil
}

// rendered keeps the parsed tree so the window can reflow without changing
// node identity.
type rendered struct {
	source  *html.Node
	nodes   map[*html.Node]*Node
	iframes []*html.Node
	frames  map[*html.Node]*Window
}

// RenderHTML parses source into a new document for w, lays it out at the
// window's size and creates frames for its iframes. srcdoc content is
// rendered; other frames get an empty document at their src URL.
func (w *Window) RenderHTML(rawURL, source string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("page: parse %s: %w", rawURL, err)
	}
	doc := w.LoadDocument(rawURL)
	w.scrollX, w.scrollY = 0, 0

	r := &rendered{source: root, nodes: make(map[*html.Node]*Node), frames: make(map[*html.Node]*Window)}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			r.nodes[c] = doc.root
			copyAttrs(doc.root, c)
			r.build(c, doc.root)
			break
		}
	}
	w.reflow = r.layout
	if err := r.layout(w); err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *rendered) build(src *html.Node, parent *Node) {
	for c := src.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		n := parent.Append(c.Data, nil)
		copyAttrs(n, c)
		r.nodes[c] = n
		if c.Data == "iframe" {
			r.iframes = append(r.iframes, c)
			continue
		}
		r.build(c, n)
	}
}

func copyAttrs(n *Node, src *html.Node) {
	for _, a := range src.Attr {
		n.attrs[strings.ToLower(a.Key)] = a.Val
	}
}

// layout runs the cascade and flow layout at the window's current size and
// updates nodes and frames in place.
func (r *rendered) layout(w *Window) error {
	styles := style.NewEngine()
	styles.SetViewport(w.width, w.height)
	styles.CollectStyleSheets(r.source)
	styled := styles.BuildTree(r.source)
	tree := layout.NewEngine(styles, w.width, w.height).Layout(styled)

	var apply func(*style.StyledNode)
	apply = func(sn *style.StyledNode) {
		if n, ok := r.nodes[sn.Node]; ok {
			n.style = dom.Style(sn.Snapshot())
			n.rects = tree.Fragments[sn.Node]
		}
		for _, c := range sn.Children {
			apply(c)
		}
	}
	apply(styled)

	w.contentW = math.Max(tree.Width, w.width)
	w.contentH = math.Max(tree.Height, w.height)
	w.ScrollTo(w.scrollX, w.scrollY)

	for _, src := range r.iframes {
		box := geometry.Rect{}
		if frags := tree.Fragments[src]; len(frags) > 0 {
			box = frags[0]
		}
		frame, ok := r.frames[src]
		if !ok {
			frame = w.AddFrame(box.TopLeft(), box.Width(), box.Height())
			r.frames[src] = frame
			if err := r.loadFrame(w, frame, r.nodes[src]); err != nil {
				return err
			}
			continue
		}
		frame.SetOrigin(box.TopLeft())
		if err := frame.Resize(box.Width(), box.Height()); err != nil {
			return err
		}
	}
	return nil
}

func (r *rendered) loadFrame(parent, frame *Window, iframe *Node) error {
	frameURL := "about:blank"
	if src, ok := iframe.Attr("src"); ok && strings.TrimSpace(src) != "" {
		frameURL = parent.doc.resolve(src)
	}
	srcdoc, ok := iframe.Attr("srcdoc")
	if !ok {
		frame.LoadDocument(frameURL)
		return nil
	}
	if _, hasSrc := iframe.Attr("src"); !hasSrc {
		frameURL = "about:srcdoc"
	}
	if _, err := frame.RenderHTML(frameURL, srcdoc); err != nil {
		return fmt.Errorf("page: render frame %s: %w", frame.id, err)
	}
	return nil
}
