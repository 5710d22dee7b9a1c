package dom

import (
	"strconv"
	"strings"
)

// Style is a computed style snapshot keyed by lowercase CSS property name.
type Style map[string]string

// Get returns the trimmed lowercase value of a property.
func (s Style) Get(property string) string {
	return strings.ToLower(strings.TrimSpace(s[property]))
}

// Hidden reports display:none or visibility hidden/collapse.
func (s Style) Hidden() bool {
	if s.Get("display") == "none" {
		return true
	}
	switch s.Get("visibility") {
	case "hidden", "collapse":
		return true
	}
	return false
}

// Cursor is the computed cursor keyword.
func (s Style) Cursor() string { return s.Get("cursor") }

// FontSizePx parses a computed font-size. Computed sizes are always absolute,
// so only px values are accepted.
func (s Style) FontSizePx() (float64, bool) {
	v := s.Get("font-size")
	if !strings.HasSuffix(v, "px") {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(v, "px")), 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return f, true
}
