// internal/selection/types.go
package selection

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/snaplinks/internal/browser/dom"
	"github.com/xkilldash9x/snaplinks/internal/geometry"
)

// ElementType is the category a selectable element is counted under.
type ElementType int

const (
	Links ElementType = iota
	JsLinks
	Checkboxes
	Buttons
	RadioButtons
	Clickable
)

// TypesInPriorityOrder decides the dominant type when counts tie: the earlier
// entry wins.
var TypesInPriorityOrder = []ElementType{Links, JsLinks, Checkboxes, Buttons, RadioButtons, Clickable}

var typeNames = [...]string{"Links", "JsLinks", "Checkboxes", "Buttons", "RadioButtons", "Clickable"}

func (t ElementType) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("ElementType(%d)", int(t))
	}
	return typeNames[t]
}

// IsLink reports whether t is one of the anchor types.
func (t ElementType) IsLink() bool { return t == Links || t == JsLinks }

// MarshalText renders the type name, so types read well in JSON output.
func (t ElementType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// ParseElementType is the inverse of String. It ignores case.
func ParseElementType(s string) (ElementType, error) {
	for i, name := range typeNames {
		if strings.EqualFold(name, s) {
			return ElementType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown element type %q", s)
}

// Candidate is one selectable element of a document together with the
// geometry used to hit-test it. It refers to the host element but never owns it.
type Candidate struct {
	element  dom.Element
	typ      ElementType
	rects    []geometry.Rect
	outlines []dom.Element
	href     string
}

// Element returns the host element this candidate stands for.
func (c *Candidate) Element() dom.Element { return c.element }

// Type returns the category of the candidate.
func (c *Candidate) Type() ElementType { return c.typ }

// Geometry returns the snap rects in document coordinates. There is always
// at least one; a zero rect means the host could not measure the element.
func (c *Candidate) Geometry() []geometry.Rect { return c.rects }

// OutlineTargets returns the elements whose outline marks the candidate
// as selected. There is always at least one.
func (c *Candidate) OutlineTargets() []dom.Element { return c.outlines }

// Href is the resolved link target of anchors, empty for other types.
func (c *Candidate) Href() string { return c.href }

// Snapshot is the selected set produced by one classification pass. All
// elements share Type.
type Snapshot struct {
	Type     ElementType
	Elements []*Candidate
	// Counts holds the number of visible intersected elements per type,
	// indexed by ElementType.
	Counts [len(typeNames)]int
}

// Len is the number of selected elements.
func (s Snapshot) Len() int { return len(s.Elements) }

// Contains reports whether el is part of the snapshot.
func (s Snapshot) Contains(el dom.Element) bool {
	for _, c := range s.Elements {
		if c.element == el {
			return true
		}
	}
	return false
}

// URLs returns the non-empty link targets of a link snapshot, in selection
// order. Repeats are kept; Classify removes them when asked to. Other types
// carry no URLs.
func (s Snapshot) URLs() []string {
	if !s.Type.IsLink() {
		return nil
	}
	var out []string
	for _, c := range s.Elements {
		if c.href != "" {
			out = append(out, c.href)
		}
	}
	return out
}

// DedupeByURL drops candidates whose href already appeared earlier in the
// list. Candidates without an href are kept. The input is not modified.
func DedupeByURL(cs []*Candidate) []*Candidate {
	seen := make(map[string]struct{}, len(cs))
	out := make([]*Candidate, 0, len(cs))
	for _, c := range cs {
		if c.href != "" {
			if _, dup := seen[c.href]; dup {
				continue
			}
			seen[c.href] = struct{}{}
		}
		out = append(out, c)
	}
	return out
}
