// internal/browser/cdp/executor.go
package cdp

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// Executor is the slice of the DevTools protocol the live host needs. It
// exists so the host can be tested without a browser.
type Executor interface {
	// Navigate loads url in the tab and waits for the load event.
	Navigate(ctx context.Context, url string) error
	// Evaluate runs script in the top frame and returns its JSON-encoded value.
	Evaluate(ctx context.Context, script string) ([]byte, error)
	// SetViewport resizes the tab's layout viewport.
	SetViewport(ctx context.Context, width, height int64) error
}

// CDPExecutor is the production Executor. The context passed to each call
// must be a chromedp tab context.
type CDPExecutor struct{}

// NewCDPExecutor creates a chromedp-backed executor.
func NewCDPExecutor() *CDPExecutor {
	return &CDPExecutor{}
}

func (e *CDPExecutor) Navigate(ctx context.Context, url string) error {
	if err := chromedp.Run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (e *CDPExecutor) Evaluate(ctx context.Context, script string) ([]byte, error) {
	var res []byte
	err := chromedp.Run(ctx,
		chromedp.Evaluate(script, &res, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithReturnByValue(true).WithAwaitPromise(true).WithSilent(true)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed script evaluation: %w", err)
	}
	return res, nil
}

func (e *CDPExecutor) SetViewport(ctx context.Context, width, height int64) error {
	return chromedp.Run(ctx, chromedp.EmulateViewport(width, height))
}
