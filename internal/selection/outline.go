package selection

import (
	"go.uber.org/zap"

	"github.com/xkilldash9x/snaplinks/internal/browser/dom"
)

// Renderer applies the selected outline to the outline targets of a snapshot.
// It keeps no state of its own; callers pass the previous and the new snapshot.
type Renderer struct {
	style  string
	logger *zap.Logger
}

// NewRenderer creates a Renderer that applies style, e.g. "1px solid #FF0000".
func NewRenderer(style string, logger *zap.Logger) *Renderer {
	return &Renderer{style: style, logger: logger.Named("outline")}
}

// Apply clears the outline of elements that left the selection and sets it on
// elements that entered. Elements present in both are left alone.
func (r *Renderer) Apply(prev, next Snapshot) {
	before := make(map[dom.Element]bool, len(prev.Elements))
	for _, c := range prev.Elements {
		before[c.element] = true
	}
	after := make(map[dom.Element]bool, len(next.Elements))
	for _, c := range next.Elements {
		after[c.element] = true
	}

	for _, c := range prev.Elements {
		if !after[c.element] {
			r.set(c, "")
		}
	}
	for _, c := range next.Elements {
		if !before[c.element] {
			r.set(c, r.style)
		}
	}
}

// Clear removes the outline from every element of s.
func (r *Renderer) Clear(s Snapshot) {
	for _, c := range s.Elements {
		r.set(c, "")
	}
}

func (r *Renderer) set(c *Candidate, value string) {
	for _, target := range c.outlines {
		if err := target.SetOutline(value); err != nil {
			r.logger.Debug("Could not set outline.", zap.String("element", dom.XPath(target)), zap.Error(err))
		}
	}
}
