// internal/action/executor.go
package action

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNothingToCopy is returned by the clipboard executor for selections
// without URLs.
var ErrNothingToCopy = errors.New("selection has no URLs to copy")

// Executor performs a completed gesture's action.
type Executor interface {
	Execute(ctx context.Context, req Request) error
}

// PrintExecutor writes the request to an output. The CLI uses it in place
// of a browser, which would open tabs or start downloads.
type PrintExecutor struct {
	w      io.Writer
	format string
}

// NewPrintExecutor creates an executor that writes text or json to w.
func NewPrintExecutor(w io.Writer, format string) (*PrintExecutor, error) {
	switch format {
	case "text", "json":
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
	if w == nil {
		w = os.Stdout
	}
	return &PrintExecutor{w: w, format: format}, nil
}

func (p *PrintExecutor) Execute(_ context.Context, req Request) error {
	if p.format == "json" {
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(req); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d %s\n", req.Action, req.Count, req.Type)
	for _, el := range req.Elements {
		if el.Href != "" {
			fmt.Fprintf(&b, "  %s %s\n", el.XPath, el.Href)
			continue
		}
		fmt.Fprintf(&b, "  %s\n", el.XPath)
	}
	_, err := io.WriteString(p.w, b.String())
	return err
}

// ClipboardWriter is the system clipboard.
type ClipboardWriter func(text string) error

// ClipboardExecutor copies the selected URLs, one per line.
type ClipboardExecutor struct {
	write  ClipboardWriter
	logger *zap.Logger
}

// NewClipboardExecutor uses the system clipboard when write is nil.
func NewClipboardExecutor(write ClipboardWriter, logger *zap.Logger) *ClipboardExecutor {
	if write == nil {
		write = clipboard.WriteAll
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClipboardExecutor{write: write, logger: logger.Named("clipboard")}
}

func (c *ClipboardExecutor) Execute(_ context.Context, req Request) error {
	if len(req.URLs) == 0 {
		return ErrNothingToCopy
	}
	if err := c.write(strings.Join(req.URLs, "\n")); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	c.logger.Info("Copied URLs to the clipboard.", zap.Int("count", len(req.URLs)))
	return nil
}

// Chain runs every executor in order and stops at the first error.
type Chain []Executor

func (ch Chain) Execute(ctx context.Context, req Request) error {
	for _, e := range ch {
		if err := e.Execute(ctx, req); err != nil {
			return err
		}
	}
	return nil
}
