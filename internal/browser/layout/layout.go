// internal/browser/layout/layout.go
package layout

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/xkilldash9x/snaplinks/internal/browser/style"
	"github.com/xkilldash9x/snaplinks/internal/geometry"
)

// Tree is the result of laying out one document.
type Tree struct {
	// Fragments holds the border-box rects of every element that generated
	// boxes, in document coordinates. Inline elements get one rect per line.
	Fragments map[*html.Node][]geometry.Rect
	// Width and Height are the scrollable content size, never smaller than
	// the viewport.
	Width  float64
	Height float64
}

// Edges holds the four sides of a margin or padding.
type Edges struct {
	Top, Right, Bottom, Left float64
}

// Horizontal is Left + Right.
func (e Edges) Horizontal() float64 { return e.Left + e.Right }

// Vertical is Top + Bottom.
func (e Edges) Vertical() float64 { return e.Top + e.Bottom }

// Engine performs a simplified block/inline flow layout.
type Engine struct {
	styles         *style.Engine
	viewportWidth  float64
	viewportHeight float64
}

// NewEngine creates a layout engine for a viewport. styles resolves lengths.
func NewEngine(styles *style.Engine, viewportWidth, viewportHeight float64) *Engine {
	return &Engine{styles: styles, viewportWidth: viewportWidth, viewportHeight: viewportHeight}
}

// Layout flows the styled tree into the viewport width.
func (e *Engine) Layout(root *style.StyledNode) *Tree {
	s := &state{e: e, frags: make(map[*html.Node][]geometry.Rect), record: true}
	height := s.flow(root.Children, 0, 0, e.viewportWidth)
	return &Tree{
		Fragments: s.frags,
		Width:     math.Max(e.viewportWidth, s.maxX),
		Height:    math.Max(e.viewportHeight, math.Max(height, s.maxY)),
	}
}

type state struct {
	e      *Engine
	frags  map[*html.Node][]geometry.Rect
	record bool
	maxX   float64
	maxY   float64
}

func (s *state) add(n *html.Node, r geometry.Rect) {
	if !s.record || n.Type != html.ElementNode {
		return
	}
	s.frags[n] = append(s.frags[n], r)
	s.maxX = math.Max(s.maxX, r.Right)
	s.maxY = math.Max(s.maxY, r.Bottom)
}

func (s *state) edges(sn *style.StyledNode, prefix string, reference float64) Edges {
	fs := sn.FontSize()
	get := func(side string) float64 {
		return s.e.styles.Length(sn.Lookup(prefix+"-"+side, "0"), fs, reference)
	}
	return Edges{Top: get("top"), Right: get("right"), Bottom: get("bottom"), Left: get("left")}
}

// explicit returns a non-auto length property.
func (s *state) explicit(sn *style.StyledNode, prop string, reference float64) (float64, bool) {
	v := strings.TrimSpace(sn.Lookup(prop, ""))
	if v == "" || v == "auto" {
		return 0, false
	}
	return s.e.styles.Length(v, sn.FontSize(), reference), true
}

// block lays out a block-level box whose margin box starts at (x, y) and is
// avail wide. It returns the margin-box height.
func (s *state) block(sn *style.StyledNode, x, y, avail float64) float64 {
	m := s.edges(sn, "margin", avail)
	p := s.edges(sn, "padding", avail)
	width := math.Max(0, avail-m.Horizontal()-p.Horizontal())
	if w, ok := s.explicit(sn, "width", avail); ok {
		width = w
	}
	height := s.flow(sn.Children, x+m.Left+p.Left, y+m.Top+p.Top, width)
	if h, ok := s.explicit(sn, "height", s.e.viewportHeight); ok {
		height = h
	}
	s.add(sn.Node, geometry.FromXYWH(x+m.Left, y+m.Top, width+p.Horizontal(), height+p.Vertical()))
	return m.Vertical() + p.Vertical() + height
}

// flow stacks block children and groups inline runs into line boxes.
func (s *state) flow(children []*style.StyledNode, x, y, width float64) float64 {
	cursor := y
	var run []*style.StyledNode
	flush := func() {
		if len(run) > 0 && !blankRun(run) {
			ic := &inline{s: s, left: x, right: x + width, x: x, y: cursor}
			for _, c := range run {
				ic.place(c)
			}
			cursor = ic.finish()
		}
		run = run[:0]
	}
	for _, c := range children {
		switch c.Display() {
		case style.DisplayNone:
			continue
		case style.DisplayBlock:
			flush()
			cursor += s.block(c, x, cursor, width)
		default:
			run = append(run, c)
		}
	}
	flush()
	return cursor - y
}

func blankRun(run []*style.StyledNode) bool {
	for _, c := range run {
		if c.Node.Type != html.TextNode || strings.TrimSpace(c.Node.Data) != "" {
			return false
		}
	}
	return true
}

// inline is an inline formatting context.
type inline struct {
	s           *state
	left, right float64
	x, y        float64
	lineHeight  float64
	open        []*openBox
}

// openBox accumulates the fragment of an inline element on the current line.
type openBox struct {
	node *html.Node
	cur  geometry.Rect
	has  bool
}

// finish closes the last line and returns the y below it.
func (ic *inline) finish() float64 {
	if ic.x > ic.left || ic.lineHeight > 0 {
		ic.newline(0)
	}
	return ic.y
}

func (ic *inline) newline(minHeight float64) {
	for _, b := range ic.open {
		if b.has {
			ic.s.add(b.node, b.cur)
			b.has = false
		}
	}
	ic.y += math.Max(ic.lineHeight, minHeight)
	ic.x = ic.left
	ic.lineHeight = 0
}

// item places an atomic run of width w and height h, wrapping first if needed.
func (ic *inline) item(w, h float64) geometry.Rect {
	if ic.x+w > ic.right && ic.x > ic.left {
		ic.newline(0)
	}
	r := geometry.FromXYWH(ic.x, ic.y, w, h)
	for _, b := range ic.open {
		if b.has {
			b.cur = b.cur.Union(r)
		} else {
			b.cur, b.has = r, true
		}
	}
	ic.x += w
	ic.lineHeight = math.Max(ic.lineHeight, h)
	return r
}

func (ic *inline) place(sn *style.StyledNode) {
	switch sn.Node.Type {
	case html.TextNode:
		ic.text(sn)
		return
	case html.ElementNode:
	default:
		return
	}
	switch sn.Display() {
	case style.DisplayNone:
		return
	case style.DisplayInlineBlock:
		ic.atomic(sn)
		return
	case style.DisplayBlock:
		// A block inside an inline run ends the line and stacks. Open inline
		// ancestors get a fragment covering it.
		ic.newline(0)
		top := ic.y
		ic.y += ic.s.block(sn, ic.left, top, ic.right-ic.left)
		for _, b := range ic.open {
			ic.s.add(b.node, geometry.New(top, ic.left, ic.y, ic.right))
		}
		return
	}
	if sn.Node.Data == "br" {
		ic.newline(sn.FontSize() * style.LineHeightFactor)
		return
	}
	box := &openBox{node: sn.Node}
	ic.open = append(ic.open, box)
	for _, c := range sn.Children {
		ic.place(c)
	}
	ic.open = ic.open[:len(ic.open)-1]
	if box.has {
		ic.s.add(box.node, box.cur)
	}
}

func (ic *inline) text(sn *style.StyledNode) {
	fs := sn.FontSize()
	lineH := fs * style.LineHeightFactor
	space := style.MeasureText(" ", fs)
	data := sn.Node.Data
	if data != "" && isSpace(data[0]) && ic.x > ic.left {
		ic.x += space
	}
	words := strings.Fields(data)
	for i, w := range words {
		ic.item(style.MeasureText(w, fs), lineH)
		if i < len(words)-1 || (data != "" && isSpace(data[len(data)-1])) {
			ic.x += space
		}
	}
}

// atomic places an inline-block or replaced element as a single item.
func (ic *inline) atomic(sn *style.StyledNode) {
	avail := ic.right - ic.left
	m := ic.s.edges(sn, "margin", avail)
	p := ic.s.edges(sn, "padding", avail)

	w, h, replaced := ic.intrinsic(sn)
	if !replaced {
		inner := math.Min(textWidth(sn), math.Max(0, avail-m.Horizontal()-p.Horizontal()))
		if ew, ok := ic.s.explicit(sn, "width", avail); ok {
			inner = ew
		}
		outer := inner + m.Horizontal() + p.Horizontal()
		dry := &state{e: ic.s.e, frags: nil, record: false}
		height := dry.block(sn, 0, 0, outer)
		r := ic.item(outer, height)
		ic.s.block(sn, r.Left, r.Top, outer)
		return
	}

	if ew, ok := ic.s.explicit(sn, "width", avail); ok {
		w = ew
	}
	if eh, ok := ic.s.explicit(sn, "height", ic.s.e.viewportHeight); ok {
		h = eh
	}
	outer := ic.item(w+p.Horizontal()+m.Horizontal(), h+p.Vertical()+m.Vertical())
	ic.s.add(sn.Node, geometry.FromXYWH(outer.Left+m.Left, outer.Top+m.Top, w+p.Horizontal(), h+p.Vertical()))
}

// intrinsic returns the content size of replaced and form elements.
func (ic *inline) intrinsic(sn *style.StyledNode) (w, h float64, replaced bool) {
	fs := sn.FontSize()
	control := fs*style.LineHeightFactor + 4
	switch sn.Node.Data {
	case "img":
		w, h = attrLength(sn.Node, "width"), attrLength(sn.Node, "height")
		switch {
		case w == 0 && h == 0:
			w, h = 16, 16
		case w == 0:
			w = h
		case h == 0:
			h = w
		}
		return w, h, true
	case "iframe":
		w, h = 300, 150
		if v := attrLength(sn.Node, "width"); v > 0 {
			w = v
		}
		if v := attrLength(sn.Node, "height"); v > 0 {
			h = v
		}
		return w, h, true
	case "input":
		switch strings.ToLower(attrValue(sn.Node, "type")) {
		case "checkbox", "radio":
			return 13, 13, true
		case "submit", "button", "reset":
			label := attrValue(sn.Node, "value")
			if label == "" {
				label = "Submit"
			}
			return style.MeasureText(label, fs) + 4, control, true
		default:
			return 150, control, true
		}
	case "button":
		return textWidth(sn) + 4, control, true
	case "select":
		return 150, control, true
	case "textarea":
		return 200, 2 * control, true
	}
	return 0, 0, false
}

// textWidth is the unwrapped width of all descendant text.
func textWidth(sn *style.StyledNode) float64 {
	if sn.Node.Type == html.TextNode {
		return style.MeasureText(strings.Join(strings.Fields(sn.Node.Data), " "), sn.FontSize())
	}
	total := 0.0
	for _, c := range sn.Children {
		if c.Display() != style.DisplayNone {
			total += textWidth(c)
		}
	}
	return total
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r' || b == '\f'
}

func attrValue(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func attrLength(n *html.Node, name string) float64 {
	v := strings.TrimSuffix(strings.TrimSpace(attrValue(n, name)), "px")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}
