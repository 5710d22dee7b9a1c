// cmd/live.go
package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/snaplinks/internal/browser/cdp"
	"github.com/xkilldash9x/snaplinks/internal/loop"
	"github.com/xkilldash9x/snaplinks/internal/observability"
	"github.com/xkilldash9x/snaplinks/internal/selection"
)

func newLiveCmd() *cobra.Command {
	var (
		g        gestureFlags
		url      string
		headless bool
	)

	cmd := &cobra.Command{
		Use:   "live",
		Short: "Drag a selection rectangle over a page in Chrome",
		Long: `Opens --url in Chrome, mirrors the page into the selection engine and
simulates a drag in real time. Outlines and autoscroll are applied to the
live page while the gesture runs.`,
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
			if cmd.Flags().Changed("headless") {
				cfg.SetBrowserHeadless(headless)
			}
			if !g.activates(cfg) {
				cmd.Println("Button does not start a gesture.")
				return nil
			}
			if _, err := g.path(); err != nil {
				return err
			}
			logger := observability.Component("live")

			browser, err := cdp.Launch(ctx, cfg.Browser(), logger)
			if err != nil {
				return err
			}
			defer browser.Close()

			host, err := cdp.Open(browser.Context(), cdp.NewCDPExecutor(), url, cfg.Browser(), logger)
			if err != nil {
				return err
			}

			opts := selection.OptionsFromConfig(cfg)
			l := loop.New(logger)
			ctrl := selection.NewController(host.Tab(), l, opts, logger)
			host.Watch(browser.Context(), l.Post)

			var (
				done selection.Completion
				ok   bool
			)
			eg, egCtx := errgroup.WithContext(ctx)
			loopCtx, stopLoop := context.WithCancel(egCtx)
			eg.Go(func() error {
				if err := l.Run(loopCtx); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})
			eg.Go(func() error {
				defer stopLoop()
				d := driver{
					run:  func(f func()) error { return l.Do(egCtx, f) },
					wait: func(d time.Duration) error { return sleep(egCtx, d) },
				}
				var err error
				done, ok, err = g.drag(ctrl, d, opts.RecomputeInterval)
				return err
			})
			if err := eg.Wait(); err != nil {
				return err
			}
			logger.Debug("Gesture finished.", zap.Bool("completed", ok))
			return g.finish(ctx, cmd, cfg, done, ok, clipboardWrite)
		},
	}
	g.register(cmd)
	fl := cmd.Flags()
	fl.StringVar(&url, "url", "", "page to open (required)")
	fl.BoolVar(&headless, "headless", true, "run Chrome without a window")
	fl.DurationVar(&g.hold, "hold", 0, "keep the button down this long before releasing, to watch the outlines")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
