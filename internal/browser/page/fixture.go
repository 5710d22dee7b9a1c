package page

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/snaplinks/internal/browser/dom"
	"github.com/xkilldash9x/snaplinks/internal/geometry"
)

// Fixture is the YAML form of a tab with explicit geometry. Rects are
// [top, left, bottom, right] in document coordinates of their window.
type Fixture struct {
	ContentScale float64       `yaml:"content_scale"`
	ChromeScale  float64       `yaml:"chrome_scale"`
	Screen       [2]float64    `yaml:"screen"`
	Pane         []float64     `yaml:"pane"`
	Window       FixtureWindow `yaml:",inline"`
}

// FixtureWindow describes a window, its document and its frames.
type FixtureWindow struct {
	URL      string           `yaml:"url"`
	Viewport [2]float64       `yaml:"viewport"`
	Content  [2]float64       `yaml:"content"`
	Scroll   [2]float64       `yaml:"scroll"`
	Origin   [2]float64       `yaml:"origin"`
	HTML     string           `yaml:"html"`
	Elements []FixtureElement `yaml:"elements"`
	Frames   []FixtureWindow  `yaml:"frames"`
}

// FixtureElement describes one element and its subtree.
type FixtureElement struct {
	Tag         string            `yaml:"tag"`
	Attrs       map[string]string `yaml:"attrs"`
	Rects       [][4]float64      `yaml:"rects"`
	Style       map[string]string `yaml:"style"`
	LayoutError bool              `yaml:"layout_error"`
	Children    []FixtureElement  `yaml:"children"`
}

// LoadFixture decodes a YAML fixture and builds the tab it describes. A
// window with an html field is rendered instead of built from elements.
func LoadFixture(r io.Reader) (*Tab, error) {
	var fx Fixture
	if err := yaml.NewDecoder(r).Decode(&fx); err != nil {
		return nil, fmt.Errorf("page: decode fixture: %w", err)
	}
	if fx.Window.Viewport[0] <= 0 || fx.Window.Viewport[1] <= 0 {
		return nil, fmt.Errorf("page: fixture viewport must be positive, got %v", fx.Window.Viewport)
	}
	opts := TabOptions{
		Width:        fx.Window.Viewport[0],
		Height:       fx.Window.Viewport[1],
		Screen:       geometry.Point{X: fx.Screen[0], Y: fx.Screen[1]},
		ContentScale: fx.ContentScale,
		ChromeScale:  fx.ChromeScale,
	}
	if len(fx.Pane) == 4 {
		opts.Pane = geometry.New(fx.Pane[0], fx.Pane[1], fx.Pane[2], fx.Pane[3])
	} else if len(fx.Pane) != 0 {
		return nil, fmt.Errorf("page: pane needs 4 values, got %d", len(fx.Pane))
	}
	tab := NewTab(opts)
	if err := fx.Window.apply(tab.top); err != nil {
		return nil, err
	}
	return tab, nil
}

func (fw FixtureWindow) apply(w *Window) error {
	if fw.HTML != "" {
		if _, err := w.RenderHTML(fw.URL, fw.HTML); err != nil {
			return err
		}
	} else {
		doc := w.LoadDocument(fw.URL)
		for _, el := range fw.Elements {
			el.build(doc.root)
		}
		w.SetContentSize(fw.Content[0], fw.Content[1])
	}
	w.ScrollTo(fw.Scroll[0], fw.Scroll[1])

	for _, child := range fw.Frames {
		if child.Viewport[0] <= 0 || child.Viewport[1] <= 0 {
			return fmt.Errorf("page: frame %q viewport must be positive", child.URL)
		}
		f := w.AddFrame(geometry.Point{X: child.Origin[0], Y: child.Origin[1]}, child.Viewport[0], child.Viewport[1])
		if err := child.apply(f); err != nil {
			return err
		}
	}
	return nil
}

func (fe FixtureElement) build(parent *Node) {
	n := parent.Append(fe.Tag, fe.Attrs)
	rects := make([]geometry.Rect, len(fe.Rects))
	for i, r := range fe.Rects {
		rects[i] = geometry.New(r[0], r[1], r[2], r[3])
	}
	n.WithRects(rects...).WithStyle(dom.Style(fe.Style))
	if fe.LayoutError {
		n.WithLayoutError(dom.ErrNoLayout)
	}
	for _, c := range fe.Children {
		c.build(n)
	}
}
