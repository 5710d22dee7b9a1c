package selection

import (
	"slices"
	"strings"

	"github.com/xkilldash9x/snaplinks/internal/browser/dom"
)

// DocumentEntry is one indexed document and the cache the calculator keeps
// for it.
type DocumentEntry struct {
	Window   dom.Window
	Document dom.Document
	URL      string

	cache entryCache
}

// entryCache is valid for the life of one gesture.
type entryCache struct {
	calculated bool
	// calculatedWindowWidth is the inner width the candidates were built at.
	calculatedWindowWidth float64
	candidates            []*Candidate
	// clickable remembers elements once seen with a pointer cursor.
	clickable map[dom.Element]bool
}

// Candidates returns the selectable elements computed for the document.
func (e *DocumentEntry) Candidates() []*Candidate { return e.cache.candidates }

// CalculatedWindowWidth is the inner width of the last calculation.
func (e *DocumentEntry) CalculatedWindowWidth() float64 { return e.cache.calculatedWindowWidth }

func (e *DocumentEntry) isTop() bool { return e.Window.Parent() == nil }

// DocumentTable holds every document reachable from a top window, in
// discovery order.
type DocumentTable struct {
	entries []*DocumentEntry
	byFrame map[string]*DocumentEntry
}

// Index walks the frame tree below top depth first. Every frame is visited
// at most once, keyed by its frame identity. A frame whose URL repeats the
// URL of one of its ancestors is skipped together with its subtree, except
// for about: documents, which legitimately share a URL.
func Index(top dom.Window) *DocumentTable {
	t := &DocumentTable{byFrame: make(map[string]*DocumentEntry)}
	if top == nil {
		return t
	}
	doc := top.Document()
	if doc == nil {
		return t
	}
	t.add(top, doc)

	var walk func(w dom.Window, ancestors []string)
	walk = func(w dom.Window, ancestors []string) {
		for _, f := range w.Frames() {
			if _, seen := t.byFrame[f.FrameID()]; seen {
				continue
			}
			d := f.Document()
			if d == nil {
				continue
			}
			url := d.URL()
			if !strings.HasPrefix(url, "about:") && slices.Contains(ancestors, url) {
				continue
			}
			t.add(f, d)
			walk(f, append(ancestors[:len(ancestors):len(ancestors)], url))
		}
	}
	walk(top, []string{doc.URL()})
	return t
}

func (t *DocumentTable) add(w dom.Window, d dom.Document) {
	e := &DocumentEntry{
		Window:   w,
		Document: d,
		URL:      d.URL(),
		cache:    entryCache{clickable: make(map[dom.Element]bool)},
	}
	t.entries = append(t.entries, e)
	t.byFrame[w.FrameID()] = e
}

// Entries lists the documents in discovery order, top first.
func (t *DocumentTable) Entries() []*DocumentEntry { return t.entries }

// Len is the number of indexed documents.
func (t *DocumentTable) Len() int { return len(t.entries) }

// Lookup returns the first entry whose document has url, or nil.
func (t *DocumentTable) Lookup(url string) *DocumentEntry {
	for _, e := range t.entries {
		if e.URL == url {
			return e
		}
	}
	return nil
}

// Frame returns the entry of a frame, or nil.
func (t *DocumentTable) Frame(frameID string) *DocumentEntry { return t.byFrame[frameID] }

// Forget drops the entry of a frame and of every frame nested in it.
// It reports whether anything was removed.
func (t *DocumentTable) Forget(frameID string) bool {
	kept := t.entries[:0]
	removed := false
	for _, e := range t.entries {
		if within(e.Window, frameID) {
			delete(t.byFrame, e.Window.FrameID())
			e.cache = entryCache{}
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(t.entries); i++ {
		t.entries[i] = nil
	}
	t.entries = kept
	return removed
}

// Clear drops every entry and its cache.
func (t *DocumentTable) Clear() {
	for _, e := range t.entries {
		e.cache = entryCache{}
	}
	t.entries = nil
	t.byFrame = make(map[string]*DocumentEntry)
}

// within reports whether w is the frame frameID or nested inside it.
func within(w dom.Window, frameID string) bool {
	for ; w != nil; w = w.Parent() {
		if w.FrameID() == frameID {
			return true
		}
	}
	return false
}
