package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/snaplinks/internal/geometry"
)

const fixture = `
url: https://example.test/
viewport: [800, 600]
elements:
  - tag: a
    attrs: {href: /one, id: one}
    rects: [[10, 10, 20, 60]]
  - tag: a
    attrs: {href: /two}
    rects: [[10, 100, 20, 150]]
  - tag: a
    attrs: {href: /one}
    rects: [[30, 10, 40, 60]]
  - tag: input
    attrs: {type: checkbox}
    rects: [[300, 10, 313, 23]]
`

// writeFile writes content into the test's temp dir.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// run executes the CLI with a quiet config file plus extra config lines.
func run(t *testing.T, extraConfig string, args ...string) (string, error) {
	t.Helper()
	cfgPath := writeFile(t, "snaplinks.yaml", "logger:\n  level: error\n"+extraConfig)

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

type printed struct {
	Action string   `json:"action"`
	Type   string   `json:"type"`
	Count  int      `json:"count"`
	URLs   []string `json:"urls"`
}

func decode(t *testing.T, out string) printed {
	t.Helper()
	var p printed
	require.NoError(t, json.Unmarshal([]byte(out), &p), out)
	return p
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "snaplinks "+Version+"\n", out)
}

func TestSelect_Fixture(t *testing.T) {
	page := writeFile(t, "page.yaml", fixture)

	out, err := run(t, "", "select", "--page", page, "--from", "1,1", "--to", "200,50", "--steps", "4", "--format", "json")
	require.NoError(t, err)
	p := decode(t, out)
	assert.Equal(t, "tabs", p.Action)
	assert.Equal(t, "Links", p.Type)
	assert.Equal(t, 2, p.Count, "duplicate URLs are removed")
	assert.Equal(t, []string{"https://example.test/one", "https://example.test/two"}, p.URLs)
}

func TestSelect_KeepsDuplicateURLs(t *testing.T) {
	page := writeFile(t, "page.yaml", fixture)

	out, err := run(t, "elements:\n  anchors:\n    remove_duplicate_urls: false\n",
		"select", "--page", page, "--from", "1,1", "--to", "200,50", "--format", "json")
	require.NoError(t, err)
	p := decode(t, out)
	assert.Equal(t, 3, p.Count)
	assert.Equal(t, []string{"https://example.test/one", "https://example.test/two", "https://example.test/one"}, p.URLs)
}

func TestSelect_TextOutput(t *testing.T) {
	page := writeFile(t, "page.yaml", fixture)

	out, err := run(t, "", "select", "-p", page, "--from", "1,1", "--to", "200,50")
	require.NoError(t, err)
	assert.Contains(t, out, "tabs: 2 Links\n")
	assert.Contains(t, out, "//*[@id='one'] https://example.test/one\n")
}

func TestSelect_Checkboxes(t *testing.T) {
	page := writeFile(t, "page.yaml", fixture)

	out, err := run(t, "", "select", "-p", page, "--from", "1,290", "--to", "100,320", "-f", "json")
	require.NoError(t, err)
	p := decode(t, out)
	assert.Equal(t, "Checkboxes", p.Type)
	assert.Equal(t, 1, p.Count)
	assert.Empty(t, p.URLs)
}

func TestSelect_ActionFromConfigAndEnv(t *testing.T) {
	page := writeFile(t, "page.yaml", fixture)
	args := []string{"select", "-p", page, "--from", "1,1", "--to", "200,50", "-f", "json"}

	out, err := run(t, "action:\n  default: bookmark\n", args...)
	require.NoError(t, err)
	assert.Equal(t, "bookmark", decode(t, out).Action)

	t.Setenv("SNAPLINKS_ACTION_DEFAULT", "window")
	out, err = run(t, "action:\n  default: bookmark\n", args...)
	require.NoError(t, err)
	assert.Equal(t, "window", decode(t, out).Action, "environment overrides the file")

	out, err = run(t, "", append(args, "--action", "download")...)
	require.NoError(t, err)
	assert.Equal(t, "download", decode(t, out).Action, "the flag overrides both")

	out, err = run(t, "", append(args, "--menu")...)
	require.NoError(t, err)
	assert.Equal(t, "menu", decode(t, out).Action)
}

func TestSelect_Copy(t *testing.T) {
	var copied string
	clipboardWrite = func(text string) error { copied = text; return nil }
	t.Cleanup(func() { clipboardWrite = nil })
	page := writeFile(t, "page.yaml", fixture)

	_, err := run(t, "", "select", "-p", page, "--from", "1,1", "--to", "200,50", "--action", "clipboard", "--copy")
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/one\nhttps://example.test/two", copied)
}

func TestSelect_NoSelection(t *testing.T) {
	page := writeFile(t, "page.yaml", fixture)

	out, err := run(t, "", "select", "-p", page, "--from", "1,1", "--to", "3,3")
	require.NoError(t, err)
	assert.Equal(t, "No selection.\n", out)

	out, err = run(t, "", "select", "-p", page, "--from", "1,1", "--to", "200,50", "--button", "left")
	require.NoError(t, err)
	assert.Equal(t, "Button does not start a gesture.\n", out)
}

func TestSelect_HTMLPage(t *testing.T) {
	page := writeFile(t, "page.html", `<html><body style="margin:0">
		<a href="/a">first</a> <a href="b.html">second</a>
	</body></html>`)

	out, err := run(t, "", "select", "-p", page, "--url", "https://example.test/dir/", "--width", "800", "--height", "600",
		"--from", "0,0", "--to", "400,40", "-f", "json")
	require.NoError(t, err)
	p := decode(t, out)
	assert.Equal(t, "Links", p.Type)
	assert.Equal(t, []string{"https://example.test/a", "https://example.test/dir/b.html"}, p.URLs)
}

func TestSelect_Errors(t *testing.T) {
	page := writeFile(t, "page.yaml", fixture)

	tests := []struct {
		name   string
		config string
		args   []string
		want   string
	}{
		{"missing page", "", []string{"select", "--from", "1,1", "--to", "2,2"}, `required flag(s) "page"`},
		{"unreadable page", "", []string{"select", "-p", filepath.Join(t.TempDir(), "nope.html"), "--from", "1,1", "--to", "2,2"}, "failed to read page"},
		{"bad point", "", []string{"select", "-p", page, "--from", "1;1", "--to", "2,2"}, "invalid --from"},
		{"bad action", "", []string{"select", "-p", page, "--from", "1,1", "--to", "2,2", "--action", "print"}, `unknown action "print"`},
		{"bad format", "", []string{"select", "-p", page, "--from", "1,1", "--to", "200,50", "-f", "xml"}, "unsupported output format"},
		{"invalid config", "timing:\n  recompute_interval: 0s\n", []string{"version"}, "timing.recompute_interval"},
		{"live needs a url", "", []string{"live", "--from", "1,1", "--to", "2,2"}, `required flag(s) "url"`},
		{"live checks points first", "", []string{"live", "--url", "https://example.test/", "--from", "x", "--to", "2,2"}, "invalid --from"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := run(t, tc.config, tc.args...)
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestGestureFlags_Path(t *testing.T) {
	g := gestureFlags{from: "0,0", to: "100, 50", steps: 4}
	pts, err := g.path()
	require.NoError(t, err)
	assert.Equal(t, []geometry.Point{{X: 0, Y: 0}, {X: 25, Y: 12.5}, {X: 50, Y: 25}, {X: 75, Y: 37.5}, {X: 100, Y: 50}}, pts)

	g.steps = 0
	pts, err = g.path()
	require.NoError(t, err)
	assert.Len(t, pts, 2)

	_, err = parsePoint("1,y")
	assert.Error(t, err)
}
