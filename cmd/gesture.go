// cmd/gesture.go
package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/snaplinks/internal/action"
	"github.com/xkilldash9x/snaplinks/internal/config"
	"github.com/xkilldash9x/snaplinks/internal/geometry"
	"github.com/xkilldash9x/snaplinks/internal/observability"
	"github.com/xkilldash9x/snaplinks/internal/selection"
)

// frameInterval is the time between simulated pointer moves.
const frameInterval = 16 * time.Millisecond

// gestureFlags describe a simulated drag shared by select and live.
type gestureFlags struct {
	from, to string
	steps    int
	shift    bool
	alt      bool
	menu     bool
	button   string
	action   string
	format   string
	copy     bool
	hide     bool
	// hold delays the release; only live sets it.
	hold time.Duration
}

func (f *gestureFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.from, "from", "", "drag start as X,Y in screen pixels (required)")
	fl.StringVar(&f.to, "to", "", "drag end as X,Y in screen pixels (required)")
	fl.IntVar(&f.steps, "steps", 8, "number of pointer moves between start and end")
	fl.BoolVar(&f.shift, "shift", false, "hold Shift while dragging: select links of every font size")
	fl.BoolVar(&f.alt, "alt", false, "hold Alt on the last move: move the rectangle instead of resizing it")
	fl.BoolVar(&f.menu, "menu", false, "hold Ctrl on release: request the action menu")
	fl.StringVar(&f.button, "button", "", "pointer button used for the drag (default is activation.button)")
	fl.StringVar(&f.action, "action", "", "action run on the selection (default is action.default)")
	fl.StringVarP(&f.format, "format", "f", "text", "output format: text or json")
	fl.BoolVar(&f.copy, "copy", false, "also copy the selected URLs to the clipboard")
	fl.BoolVar(&f.hide, "hide-on-leave", false, "hide the rectangle when the pointer leaves the page")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
}

// apply folds command-line overrides into cfg.
func (f *gestureFlags) apply(cmd *cobra.Command, cfg config.Interface) error {
	if f.action != "" {
		a, err := action.Parse(f.action)
		if err != nil {
			return err
		}
		cfg.SetDefaultAction(string(a))
	}
	if cmd.Flags().Changed("hide-on-leave") {
		cfg.SetHideOnMouseLeave(f.hide)
	}
	return nil
}

// path returns the pointer positions of the drag, start first.
func (f *gestureFlags) path() ([]geometry.Point, error) {
	from, err := parsePoint(f.from)
	if err != nil {
		return nil, fmt.Errorf("invalid --from: %w", err)
	}
	to, err := parsePoint(f.to)
	if err != nil {
		return nil, fmt.Errorf("invalid --to: %w", err)
	}
	steps := max(f.steps, 1)
	pts := make([]geometry.Point, 0, steps+1)
	pts = append(pts, from)
	delta := to.Sub(from)
	for i := 1; i <= steps; i++ {
		pts = append(pts, from.Add(delta.Mul(float64(i)/float64(steps))))
	}
	return pts, nil
}

func parsePoint(s string) (geometry.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return geometry.Point{}, fmt.Errorf("expected X,Y, got %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return geometry.Point{}, fmt.Errorf("bad x in %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return geometry.Point{}, fmt.Errorf("bad y in %q: %w", s, err)
	}
	return geometry.Point{X: x, Y: y}, nil
}

// driver runs controller calls on the controller's goroutine and lets time pass.
type driver struct {
	run  func(func()) error
	wait func(time.Duration) error
}

// drag performs the gesture and returns the completion, if the release
// completed a selection.
func (f *gestureFlags) drag(ctrl *selection.Controller, d driver, recompute time.Duration) (selection.Completion, bool, error) {
	pts, err := f.path()
	if err != nil {
		return selection.Completion{}, false, err
	}

	var started bool
	if err := d.run(func() {
		started = ctrl.PointerDown(selection.PointerEvent{Screen: pts[0], Modifiers: selection.Modifiers{Shift: f.shift}})
	}); err != nil {
		return selection.Completion{}, false, err
	}
	if !started {
		return selection.Completion{}, false, fmt.Errorf("the page has no document to select in")
	}

	for i, p := range pts[1:] {
		if err := d.wait(frameInterval); err != nil {
			return selection.Completion{}, false, err
		}
		ev := selection.PointerEvent{Screen: p, Modifiers: selection.Modifiers{Shift: f.shift, Alt: f.alt && i == len(pts)-2}}
		if err := d.run(func() { ctrl.PointerMove(ev) }); err != nil {
			return selection.Completion{}, false, err
		}
	}
	// Let a trailing recompute land before releasing.
	if err := d.wait(recompute + time.Millisecond + f.hold); err != nil {
		return selection.Completion{}, false, err
	}

	var (
		done selection.Completion
		ok   bool
	)
	err = d.run(func() {
		done, ok = ctrl.PointerUp(selection.PointerEvent{Screen: pts[len(pts)-1], Modifiers: selection.Modifiers{Ctrl: f.menu}})
	})
	return done, ok, err
}

// activates reports whether the drag button starts a gesture.
func (f *gestureFlags) activates(cfg config.Interface) bool {
	return f.button == "" || strings.EqualFold(f.button, cfg.Activation().Button)
}

// finish turns a completion into a request and runs the executors.
func (f *gestureFlags) finish(ctx context.Context, cmd *cobra.Command, cfg config.Interface, done selection.Completion, ok bool, clip action.ClipboardWriter) error {
	if !ok {
		cmd.Println("No selection.")
		return nil
	}
	def, err := action.Parse(cfg.Action().Default)
	if err != nil {
		return err
	}
	req := action.NewRequest(done, def)

	printer, err := action.NewPrintExecutor(cmd.OutOrStdout(), f.format)
	if err != nil {
		return err
	}
	chain := action.Chain{printer}
	if f.copy {
		chain = append(chain, action.NewClipboardExecutor(clip, observability.Component("action")))
	}
	return chain.Execute(ctx, req)
}
