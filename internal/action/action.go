// internal/action/action.go
package action

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/snaplinks/internal/browser/dom"
	"github.com/xkilldash9x/snaplinks/internal/selection"
)

// Action is what happens to the selected elements once a gesture completes.
type Action string

const (
	OpenTabs    Action = "tabs"
	OpenWindows Action = "windows"
	OpenWindow  Action = "window"
	Clipboard   Action = "clipboard"
	Bookmark    Action = "bookmark"
	Download    Action = "download"
	Menu        Action = "menu"
)

var all = []Action{OpenTabs, OpenWindows, OpenWindow, Clipboard, Bookmark, Download, Menu}

// Parse maps a configured action name to an Action.
func Parse(name string) (Action, error) {
	for _, a := range all {
		if strings.EqualFold(string(a), name) {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown action %q", name)
}

// NeedsURLs reports whether the action only makes sense for link selections.
func (a Action) NeedsURLs() bool {
	switch a {
	case OpenTabs, OpenWindows, OpenWindow, Clipboard, Bookmark, Download:
		return true
	}
	return false
}

// Request is the completed gesture as handed to an Executor.
type Request struct {
	GestureID string                `json:"gesture_id"`
	Action    Action                `json:"action"`
	Type      selection.ElementType `json:"type"`
	Count     int                   `json:"count"`
	URLs      []string              `json:"urls,omitempty"`
	Elements  []Element             `json:"elements"`
}

// Element describes one selected element for reporting.
type Element struct {
	Tag   string `json:"tag"`
	XPath string `json:"xpath"`
	Href  string `json:"href,omitempty"`
}

// NewRequest builds the request for a completed gesture. A completion that
// asked for the menu always yields a Menu request. Non-link selections
// (checkboxes, buttons, ...) carry no URLs and are reported element by
// element so the caller can click or toggle them.
func NewRequest(c selection.Completion, def Action) Request {
	a := def
	if c.MenuRequested {
		a = Menu
	}
	snap := c.Snapshot
	req := Request{
		GestureID: c.GestureID,
		Action:    a,
		Type:      snap.Type,
		Count:     snap.Len(),
		Elements:  make([]Element, 0, snap.Len()),
	}
	if snap.Type.IsLink() {
		req.URLs = snap.URLs()
	}
	for _, cand := range snap.Elements {
		el := cand.Element()
		req.Elements = append(req.Elements, Element{Tag: el.Tag(), XPath: dom.XPath(el), Href: cand.Href()})
	}
	return req
}
