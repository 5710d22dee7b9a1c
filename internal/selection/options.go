package selection

import (
	"fmt"
	"time"

	"github.com/xkilldash9x/snaplinks/internal/config"
)

// Options is the preference set read once per gesture.
type Options struct {
	// Selection rectangle.
	BorderWidth       float64
	BorderColor       string
	ShowCount         bool
	ShowCountWhere    string
	HideOnMouseLeave  bool
	AltMovesSelection bool
	Locale            string

	// Outline drawn on selected elements.
	OutlineWidth int
	OutlineColor string

	// Element categories. Links are always collected.
	JsLinks             bool
	Buttons             bool
	Checkboxes          bool
	RadioButtons        bool
	RemoveDuplicateURLs bool

	RecomputeInterval  time.Duration
	AutoscrollInterval time.Duration
	MinDragSize        float64
}

// OptionsFromConfig copies the selection-related preferences out of cfg.
func OptionsFromConfig(cfg config.Interface) Options {
	sel, out, el, timing := cfg.Selection(), cfg.SelectedElements(), cfg.Elements(), cfg.Timing()
	return Options{
		BorderWidth:         float64(sel.BorderWidth),
		BorderColor:         sel.BorderColor,
		ShowCount:           sel.ShowCount,
		ShowCountWhere:      sel.ShowCountWhere,
		HideOnMouseLeave:    sel.HideOnMouseLeave,
		AltMovesSelection:   sel.AltMovesSelection,
		Locale:              sel.Locale,
		OutlineWidth:        out.BorderWidth,
		OutlineColor:        out.BorderColor,
		JsLinks:             el.JsLinks.Highlight,
		Buttons:             el.Buttons.Highlight,
		Checkboxes:          el.Checkboxes.Highlight,
		RadioButtons:        el.RadioButtons.Highlight,
		RemoveDuplicateURLs: el.Anchors.RemoveDuplicateURLs,
		RecomputeInterval:   timing.RecomputeInterval,
		AutoscrollInterval:  timing.AutoscrollInterval,
		MinDragSize:         timing.MinDragSize,
	}
}

// DefaultOptions returns the options of a default configuration.
func DefaultOptions() Options {
	return OptionsFromConfig(config.NewDefaultConfig())
}

// OutlineStyle is the inline outline value applied to selected elements.
func (o Options) OutlineStyle() string {
	return fmt.Sprintf("%dpx solid %s", o.OutlineWidth, o.OutlineColor)
}

// countOnHover reports whether the floating count label is shown.
func (o Options) countOnHover() bool {
	return o.ShowCount && o.ShowCountWhere == config.CountOnHover
}
