// internal/browser/style/style.go
package style

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/xkilldash9x/snaplinks/internal/browser/parser"
)

const (
	// BaseFontSize is the medium font size in px.
	BaseFontSize = 16.0
	// LineHeightFactor approximates line-height: normal.
	LineHeightFactor = 1.2
)

// userAgentCSS covers the defaults that affect geometry, visibility and cursor.
const userAgentCSS = `
head, script, style, title, meta, link, template, noscript, [hidden] { display: none }
html, body, div, p, h1, h2, h3, h4, h5, h6, ul, ol, li, form, header, footer,
section, article, nav, main, aside, blockquote, pre, table, tr, fieldset, hr, dl, dt, dd { display: block }
input, button, img, select, textarea, iframe { display: inline-block }
body { margin: 8px }
p, ul, ol, blockquote { margin-top: 16px; margin-bottom: 16px }
ul, ol { padding-left: 40px }
h1 { font-size: 2em; margin-top: 0.67em; margin-bottom: 0.67em }
h2 { font-size: 1.5em; margin-top: 0.83em; margin-bottom: 0.83em }
h3 { font-size: 1.17em; margin-top: 1em; margin-bottom: 1em }
small { font-size: smaller }
big { font-size: larger }
a[href] { cursor: pointer }
input[type="checkbox"], input[type="radio"] { width: 13px; height: 13px; margin: 3px }
input[type="hidden"] { display: none }
button, input[type="submit"], input[type="button"], input[type="reset"] { padding-left: 6px; padding-right: 6px }
`

// inherited lists the properties that flow from parent to child when unset.
var inherited = []string{
	"color", "cursor", "font-family", "font-size", "font-weight",
	"line-height", "text-align", "visibility", "white-space",
}

// StyledNode is an html.Node paired with its computed style.
type StyledNode struct {
	Node     *html.Node
	Parent   *StyledNode
	Children []*StyledNode
	Computed map[string]string
}

// Engine runs the cascade over a parsed document.
type Engine struct {
	userAgent      parser.StyleSheet
	author         []parser.StyleSheet
	viewportWidth  float64
	viewportHeight float64
}

// NewEngine creates an engine loaded with the user-agent sheet.
func NewEngine() *Engine {
	return &Engine{userAgent: parser.Parse(userAgentCSS)}
}

// AddAuthorSheet appends a page style sheet. Later sheets win ties.
func (e *Engine) AddAuthorSheet(sheet parser.StyleSheet) {
	e.author = append(e.author, sheet)
}

// SetViewport sets the size used for vw/vh units.
func (e *Engine) SetViewport(width, height float64) {
	e.viewportWidth = width
	e.viewportHeight = height
}

// CollectStyleSheets parses every <style> element under root as an author sheet.
func (e *Engine) CollectStyleSheets(root *html.Node) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "style" {
			var b strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					b.WriteString(c.Data)
				}
			}
			e.AddAuthorSheet(parser.Parse(b.String()))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
}

// BuildTree styles the element and text nodes under root. Comments and
// doctype nodes are dropped.
func (e *Engine) BuildTree(root *html.Node) *StyledNode {
	return e.build(root, nil)
}

func (e *Engine) build(n *html.Node, parent *StyledNode) *StyledNode {
	sn := &StyledNode{Node: n, Parent: parent}
	switch n.Type {
	case html.ElementNode:
		sn.Computed = e.cascade(n)
		e.inherit(sn)
		e.resolveFontSize(sn)
	case html.TextNode:
		if parent == nil {
			sn.Computed = map[string]string{"font-size": formatPx(BaseFontSize)}
		} else {
			sn.Computed = parent.Computed
		}
		return sn
	case html.DocumentNode:
		sn.Computed = map[string]string{"font-size": formatPx(BaseFontSize)}
	default:
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if child := e.build(c, sn); child != nil {
			sn.Children = append(sn.Children, child)
		}
	}
	return sn
}

type matchedDeclaration struct {
	decl        parser.Declaration
	rank        int
	specificity [3]int
	inline      bool
	order       int
}

// cascade resolves the winning declaration per property.
func (e *Engine) cascade(n *html.Node) map[string]string {
	var matched []matchedDeclaration
	order := 0
	add := func(sheet parser.StyleSheet, author bool) {
		for _, rule := range sheet.Rules {
			spec, ok := bestMatch(n, rule.Selectors)
			if !ok {
				continue
			}
			for _, d := range rule.Declarations {
				order++
				matched = append(matched, matchedDeclaration{decl: d, rank: rank(d.Important, author), specificity: spec, order: order})
			}
		}
	}
	add(e.userAgent, false)
	for _, sheet := range e.author {
		add(sheet, true)
	}
	if inline, ok := attr(n, "style"); ok {
		for _, d := range parser.ParseDeclarations(inline) {
			order++
			matched = append(matched, matchedDeclaration{decl: d, rank: rank(d.Important, true), inline: true, order: order})
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.rank != b.rank {
			return a.rank < b.rank
		}
		if a.inline != b.inline {
			return !a.inline
		}
		if a.specificity != b.specificity {
			return lessSpecificity(a.specificity, b.specificity)
		}
		return a.order < b.order
	})

	computed := make(map[string]string)
	for _, m := range matched {
		expand(computed, m.decl.Property, m.decl.Value)
	}
	return computed
}

// rank orders origins: UA normal, author normal, author important, UA important.
func rank(important, author bool) int {
	switch {
	case !important && !author:
		return 0
	case !important:
		return 1
	case author:
		return 2
	default:
		return 3
	}
}

func lessSpecificity(a, b [3]int) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// expand writes a declaration, splitting the box shorthands.
func expand(computed map[string]string, prop, value string) {
	switch prop {
	case "margin", "padding":
		parts := strings.Fields(value)
		var top, right, bottom, left string
		switch len(parts) {
		case 1:
			top, right, bottom, left = parts[0], parts[0], parts[0], parts[0]
		case 2:
			top, right, bottom, left = parts[0], parts[1], parts[0], parts[1]
		case 3:
			top, right, bottom, left = parts[0], parts[1], parts[2], parts[1]
		case 4:
			top, right, bottom, left = parts[0], parts[1], parts[2], parts[3]
		default:
			return
		}
		computed[prop+"-top"] = top
		computed[prop+"-right"] = right
		computed[prop+"-bottom"] = bottom
		computed[prop+"-left"] = left
	default:
		computed[prop] = value
	}
}

func (e *Engine) inherit(sn *StyledNode) {
	if sn.Parent == nil || sn.Parent.Computed == nil {
		return
	}
	for prop, val := range sn.Computed {
		if val == "inherit" {
			if pv, ok := sn.Parent.Computed[prop]; ok {
				sn.Computed[prop] = pv
			} else {
				delete(sn.Computed, prop)
			}
		}
	}
	for _, prop := range inherited {
		if _, ok := sn.Computed[prop]; ok {
			continue
		}
		if pv, ok := sn.Parent.Computed[prop]; ok {
			sn.Computed[prop] = pv
		}
	}
}

// resolveFontSize turns the cascaded font-size into an absolute px value.
func (e *Engine) resolveFontSize(sn *StyledNode) {
	parentSize := BaseFontSize
	if sn.Parent != nil {
		parentSize = sn.Parent.FontSize()
	}
	value, ok := sn.Computed["font-size"]
	if !ok {
		sn.Computed["font-size"] = formatPx(parentSize)
		return
	}
	size := e.fontSizeFrom(strings.ToLower(strings.TrimSpace(value)), parentSize)
	if size <= 0 {
		size = parentSize
	}
	sn.Computed["font-size"] = formatPx(size)
}

var keywordSizes = map[string]float64{
	"xx-small": 9, "x-small": 10, "small": 13, "medium": 16,
	"large": 18, "x-large": 24, "xx-large": 32,
}

func (e *Engine) fontSizeFrom(value string, parentSize float64) float64 {
	if px, ok := keywordSizes[value]; ok {
		return px
	}
	switch value {
	case "smaller":
		return parentSize / 1.2
	case "larger":
		return parentSize * 1.2
	}
	return e.Length(value, parentSize, parentSize)
}

// Length resolves a CSS length. Percentages use reference; em uses fontSize.
func (e *Engine) Length(value string, fontSize, reference float64) float64 {
	value = strings.ToLower(strings.TrimSpace(value))
	num := func(suffix string) (float64, bool) {
		f, err := strconv.ParseFloat(strings.TrimSuffix(value, suffix), 64)
		return f, err == nil
	}
	switch {
	case value == "" || value == "auto" || value == "normal":
		return 0
	case strings.HasSuffix(value, "px"):
		f, _ := num("px")
		return f
	case strings.HasSuffix(value, "%"):
		f, _ := num("%")
		return reference * f / 100
	case strings.HasSuffix(value, "rem"):
		f, _ := num("rem")
		return f * BaseFontSize
	case strings.HasSuffix(value, "em"):
		f, _ := num("em")
		return f * fontSize
	case strings.HasSuffix(value, "vw"):
		f, _ := num("vw")
		return e.viewportWidth * f / 100
	case strings.HasSuffix(value, "vh"):
		f, _ := num("vh")
		return e.viewportHeight * f / 100
	case strings.HasSuffix(value, "pt"):
		f, _ := num("pt")
		return f * 4 / 3
	}
	f, _ := num("")
	return f
}

// Lookup returns a computed property or fallback.
func (sn *StyledNode) Lookup(property, fallback string) string {
	if v, ok := sn.Computed[property]; ok {
		return v
	}
	return fallback
}

// FontSize returns the resolved font size in px.
func (sn *StyledNode) FontSize() float64 {
	if sn == nil {
		return BaseFontSize
	}
	v := strings.TrimSuffix(sn.Lookup("font-size", ""), "px")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return BaseFontSize
	}
	return f
}

// Tag is the element name, empty for non-elements.
func (sn *StyledNode) Tag() string {
	if sn.Node.Type != html.ElementNode {
		return ""
	}
	return sn.Node.Data
}

// DisplayType is the outer display type used by layout.
type DisplayType int

const (
	DisplayInline DisplayType = iota
	DisplayBlock
	DisplayInlineBlock
	DisplayNone
)

// Display maps the computed display value onto the supported flow types.
func (sn *StyledNode) Display() DisplayType {
	switch sn.Node.Type {
	case html.TextNode:
		return DisplayInline
	case html.DocumentNode:
		return DisplayBlock
	}
	switch sn.Lookup("display", "inline") {
	case "none":
		return DisplayNone
	case "block", "flex", "grid", "list-item", "table", "table-row", "flow-root":
		return DisplayBlock
	case "inline-block", "inline-flex", "inline-grid", "inline-table", "table-cell":
		return DisplayInlineBlock
	default:
		return DisplayInline
	}
}

// IsVisible reports whether the node paints.
func (sn *StyledNode) IsVisible() bool {
	if sn.Display() == DisplayNone {
		return false
	}
	switch sn.Lookup("visibility", "visible") {
	case "hidden", "collapse":
		return false
	}
	return true
}

// Snapshot copies the computed map with display and visibility filled in.
func (sn *StyledNode) Snapshot() map[string]string {
	out := make(map[string]string, len(sn.Computed)+2)
	for k, v := range sn.Computed {
		out[k] = v
	}
	if _, ok := out["display"]; !ok {
		out["display"] = "inline"
	}
	if _, ok := out["visibility"]; !ok {
		out["visibility"] = "visible"
	}
	if _, ok := out["cursor"]; !ok {
		out["cursor"] = "auto"
	}
	return out
}

// MeasureText estimates the advance width of s at fontSize.
func MeasureText(s string, fontSize float64) float64 {
	return float64(len([]rune(s))) * fontSize * 0.6
}

func formatPx(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}
