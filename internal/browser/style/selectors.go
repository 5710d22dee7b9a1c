package style

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/xkilldash9x/snaplinks/internal/browser/parser"
)

// bestMatch returns the highest specificity among the selectors that match n.
func bestMatch(n *html.Node, selectors []parser.Selector) ([3]int, bool) {
	var best [3]int
	found := false
	for _, sel := range selectors {
		if !matches(n, sel.Compounds, len(sel.Compounds)-1) {
			continue
		}
		spec := sel.Specificity()
		if !found || lessSpecificity(best, spec) {
			best = spec
		}
		found = true
	}
	return best, found
}

// matches checks compounds[:i+1] right to left, starting at n.
func matches(n *html.Node, compounds []parser.Compound, i int) bool {
	if i < 0 {
		return true
	}
	c := compounds[i]
	if !matchesCompound(n, c) {
		return false
	}
	if i == 0 {
		return true
	}
	switch c.Combinator {
	case parser.CombinatorChild:
		p := elementParent(n)
		return p != nil && matches(p, compounds, i-1)
	default:
		for p := elementParent(n); p != nil; p = elementParent(p) {
			if matches(p, compounds, i-1) {
				return true
			}
		}
		return false
	}
}

func elementParent(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			return p
		}
	}
	return nil
}

func matchesCompound(n *html.Node, c parser.Compound) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if c.Tag != "" && c.Tag != "*" && c.Tag != n.Data {
		return false
	}
	if c.ID != "" {
		if id, _ := attr(n, "id"); id != c.ID {
			return false
		}
	}
	if len(c.Classes) > 0 {
		class, _ := attr(n, "class")
		have := strings.Fields(class)
		for _, want := range c.Classes {
			if !contains(have, want) {
				return false
			}
		}
	}
	for _, a := range c.Attributes {
		if !matchesAttribute(n, a) {
			return false
		}
	}
	for _, pseudo := range c.Pseudo {
		switch pseudo {
		case "link", "any-link":
			if _, ok := attr(n, "href"); !ok || (n.Data != "a" && n.Data != "area") {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func matchesAttribute(n *html.Node, sel parser.AttributeSelector) bool {
	val, ok := attr(n, sel.Name)
	if !ok {
		return false
	}
	switch sel.Operator {
	case "":
		return true
	case "=":
		return val == sel.Value
	case "~=":
		return contains(strings.Fields(val), sel.Value)
	case "|=":
		return val == sel.Value || strings.HasPrefix(val, sel.Value+"-")
	case "^=":
		return sel.Value != "" && strings.HasPrefix(val, sel.Value)
	case "$=":
		return sel.Value != "" && strings.HasSuffix(val, sel.Value)
	case "*=":
		return sel.Value != "" && strings.Contains(val, sel.Value)
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
