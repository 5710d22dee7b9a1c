// internal/browser/cdp/browser.go
package cdp

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/snaplinks/internal/config"
)

// Browser is a Chrome process with a single tab.
type Browser struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	logger      *zap.Logger
}

// AllocatorOptions builds the Chrome flags for cfg. Entries of cfg.Args are
// flag names, optionally with =value.
func AllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	}
	if cfg.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	for _, arg := range cfg.Args {
		key, value, found := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if found {
			opts = append(opts, chromedp.Flag(key, value))
		} else {
			opts = append(opts, chromedp.Flag(key, true))
		}
	}
	return opts
}

// Launch starts Chrome and opens a tab. The browser lives until Close or
// until ctx is cancelled.
func Launch(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Browser, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("browser")

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, AllocatorOptions(cfg)...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(logger.Sugar().Debugf))

	// The first Run starts the browser process.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("browser failed to start: %w", err)
	}
	logger.Info("Browser launched.", zap.Bool("headless", cfg.Headless))
	return &Browser{ctx: tabCtx, cancelTab: cancelTab, cancelAlloc: cancelAlloc, logger: logger}, nil
}

// Context is the chromedp context of the tab, for use with an Executor.
func (b *Browser) Context() context.Context { return b.ctx }

// Close shuts the tab and the browser down.
func (b *Browser) Close() {
	b.cancelTab()
	b.cancelAlloc()
	b.logger.Debug("Browser closed.")
}

// Open navigates the browser tab to url with the configured viewport and
// collects the page.
func Open(ctx context.Context, exec Executor, url string, cfg config.BrowserConfig, logger *zap.Logger) (*Host, error) {
	if err := exec.SetViewport(ctx, int64(cfg.WindowWidth), int64(cfg.WindowHeight)); err != nil {
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}
	navCtx := ctx
	if cfg.NavigationTimeout > 0 {
		var cancel context.CancelFunc
		navCtx, cancel = context.WithTimeout(ctx, cfg.NavigationTimeout)
		defer cancel()
	}
	if err := exec.Navigate(navCtx, url); err != nil {
		return nil, err
	}
	return Snapshot(ctx, exec, logger)
}
