// cmd/select.go
package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/snaplinks/internal/action"
	"github.com/xkilldash9x/snaplinks/internal/browser/page"
	"github.com/xkilldash9x/snaplinks/internal/loop"
	"github.com/xkilldash9x/snaplinks/internal/observability"
	"github.com/xkilldash9x/snaplinks/internal/selection"
)

// clipboardWrite is replaced in tests; nil means the system clipboard.
var clipboardWrite action.ClipboardWriter

func newSelectCmd() *cobra.Command {
	var (
		g             gestureFlags
		pagePath      string
		pageURL       string
		width, height float64
	)

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Drag a selection rectangle over an offline page",
		Long: `Loads an HTML page (laid out offline) or a YAML fixture with explicit
geometry, simulates a drag from --from to --to and prints the selection.
Time is simulated, so throttling and autoscroll behave as in a browser
without waiting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			if err := g.apply(cmd, cfg); err != nil {
				return err
			}
			logger := observability.Component("select")

			tab, err := loadPage(pagePath, pageURL, width, height)
			if err != nil {
				return err
			}
			if !g.activates(cfg) {
				cmd.Println("Button does not start a gesture.")
				return nil
			}

			opts := selection.OptionsFromConfig(cfg)
			clock := loop.NewManual(time.Now())
			ctrl := selection.NewController(tab, clock, opts, logger)
			d := driver{
				run:  func(f func()) error { f(); return nil },
				wait: func(d time.Duration) error { clock.Advance(d); return nil },
			}
			done, ok, err := g.drag(ctrl, d, opts.RecomputeInterval)
			if err != nil {
				return err
			}
			logger.Debug("Gesture finished.", zap.Bool("completed", ok), zap.Int("pending_timers", clock.Pending()))
			return g.finish(ctx, cmd, cfg, done, ok, clipboardWrite)
		},
	}
	g.register(cmd)
	fl := cmd.Flags()
	fl.StringVarP(&pagePath, "page", "p", "", "page to load: .html or .yaml fixture (required)")
	fl.StringVar(&pageURL, "url", "", "document URL used to resolve relative links (default is the file URL)")
	fl.Float64Var(&width, "width", 1280, "viewport width for HTML pages")
	fl.Float64Var(&height, "height", 800, "viewport height for HTML pages")
	_ = cmd.MarkFlagRequired("page")
	return cmd
}

// loadPage builds the offline tab for an HTML page or a YAML fixture.
func loadPage(path, url string, width, height float64) (*page.Tab, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return page.LoadFixture(bytes.NewReader(src))
	}

	if url == "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		url = "file://" + filepath.ToSlash(abs)
	}
	return page.Render(url, string(src), page.TabOptions{Width: width, Height: height})
}
