// internal/browser/cdp/collector.go
package cdp

// registryName is the page-side global that keeps the collected windows and
// elements so later writes can address them by index.
const registryName = "__snapsel"

// collectScript walks the top window and every same-origin frame, depth
// first, and registers each element. Cross-origin frames are skipped since
// their documents are not reachable from the page.
const collectScript = `(() => {
  const reg = { windows: [], elements: [] };
  const out = { devicePixelRatio: window.devicePixelRatio || 1, windows: [] };
  const props = ['display', 'visibility', 'cursor', 'font-size'];

  const collect = (win, parent, frameEl) => {
    let doc;
    try { doc = win.document; } catch (e) { return; }
    if (!doc || !doc.documentElement) { return; }
    const w = reg.windows.length;
    reg.windows.push(win);
    const els = [];
    reg.elements.push(els);

    const origin = { x: 0, y: 0 };
    if (frameEl) {
      const r = frameEl.getBoundingClientRect();
      origin.x = r.left + frameEl.clientLeft;
      origin.y = r.top + frameEl.clientTop;
    }
    const root = doc.documentElement;
    const entry = {
      id: w, parent: parent, url: doc.URL, origin: origin,
      viewport: {
        width: win.innerWidth, height: win.innerHeight,
        scrollX: win.scrollX, scrollY: win.scrollY,
        contentWidth: Math.max(root.scrollWidth, win.innerWidth),
        contentHeight: Math.max(root.scrollHeight, win.innerHeight),
        screenX: win.mozInnerScreenX || 0, screenY: win.mozInnerScreenY || 0
      },
      elements: []
    };
    out.windows.push(entry);

    const index = new Map();
    const frames = [];
    for (const el of doc.querySelectorAll('*')) {
      const i = els.length;
      els.push(el);
      index.set(el, i);
      const attrs = {};
      for (const a of el.attributes) { attrs[a.name] = a.value; }
      const cs = win.getComputedStyle(el);
      const style = {};
      for (const p of props) { style[p] = cs.getPropertyValue(p); }
      const rects = [];
      for (const r of el.getClientRects()) {
        rects.push({ top: r.top, left: r.left, bottom: r.bottom, right: r.right });
      }
      const p = el.parentElement;
      entry.elements.push({
        tag: el.localName, attrs: attrs, style: style, rects: rects,
        parent: p && index.has(p) ? index.get(p) : -1
      });
      if (el.localName === 'iframe' || el.localName === 'frame') { frames.push(el); }
    }
    for (const f of frames) {
      if (f.contentWindow) { collect(f.contentWindow, w, f); }
    }
  };
  collect(window, -1, null);

  reg.outline = (w, i, value) => {
    const el = (reg.elements[w] || [])[i];
    if (!el || !el.isConnected) { return false; }
    el.style.outline = value;
    return true;
  };
  reg.scroll = (w, dx, dy) => {
    const win = reg.windows[w];
    if (!win) { return false; }
    win.scrollBy(dx, dy);
    return true;
  };
  window.` + registryName + ` = reg;
  return out;
})()`

// snapshot is the decoded result of collectScript.
type snapshot struct {
	DevicePixelRatio float64          `json:"devicePixelRatio"`
	Windows          []windowSnapshot `json:"windows"`
}

type windowSnapshot struct {
	ID       int               `json:"id"`
	Parent   int               `json:"parent"`
	URL      string            `json:"url"`
	Origin   point             `json:"origin"`
	Viewport viewportSnapshot  `json:"viewport"`
	Elements []elementSnapshot `json:"elements"`
}

type point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type viewportSnapshot struct {
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
	ScrollX       float64 `json:"scrollX"`
	ScrollY       float64 `json:"scrollY"`
	ContentWidth  float64 `json:"contentWidth"`
	ContentHeight float64 `json:"contentHeight"`
	ScreenX       float64 `json:"screenX"`
	ScreenY       float64 `json:"screenY"`
}

type elementSnapshot struct {
	Tag    string            `json:"tag"`
	Parent int               `json:"parent"`
	Attrs  map[string]string `json:"attrs"`
	Style  map[string]string `json:"style"`
	Rects  []rectSnapshot    `json:"rects"`
}

type rectSnapshot struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Bottom float64 `json:"bottom"`
	Right  float64 `json:"right"`
}
