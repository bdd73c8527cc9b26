package driver

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/devicelab-dev/bochi/pkg/core"
	"github.com/devicelab-dev/bochi/pkg/resolve"
)

// Wait

func (d *Driver) waitFor(ctx context.Context, cmd Command) *core.CommandResult {
	m, err := d.resolver.Resolve(ctx, cmd.Selector, cmd.Timeout)
	if err != nil {
		return errorResult(err, fmt.Sprintf("Element not found: %s", cmd.Selector))
	}

	result := successResult(fmt.Sprintf("Found element: %s", m.Tree.Describe(m.Node)), m.Element)
	if cmd.Dump {
		data, err := m.Tree.DumpString(m.Node, cmd.DumpFormat)
		if err != nil {
			return errorResult(&ActionError{Action: "dump", Err: err}, "Failed to dump element")
		}
		result.Data = data
	}
	return result
}

// Tap commands

func (d *Driver) tap(ctx context.Context, cmd Command) *core.CommandResult {
	m, x, y, res := d.findTappable(ctx, cmd, "tap")
	if res != nil {
		return res
	}

	if err := d.device.Tap(ctx, x, y); err != nil {
		return errorResult(&ActionError{Action: "tap", Err: err}, "Failed to tap")
	}
	return successResult(fmt.Sprintf("Tapped on element at (%d, %d)", x, y), m.Element)
}

func (d *Driver) doubleTap(ctx context.Context, cmd Command) *core.CommandResult {
	m, x, y, res := d.findTappable(ctx, cmd, "double tap")
	if res != nil {
		return res
	}

	if err := d.device.DoubleTap(ctx, x, y); err != nil {
		return errorResult(&ActionError{Action: "double tap", Err: err}, "Failed to double tap")
	}
	return successResult(fmt.Sprintf("Double tapped on element at (%d, %d)", x, y), m.Element)
}

func (d *Driver) longTap(ctx context.Context, cmd Command) *core.CommandResult {
	m, x, y, res := d.findTappable(ctx, cmd, "long press")
	if res != nil {
		return res
	}

	if err := d.device.LongPress(ctx, x, y, LongPressDuration); err != nil {
		return errorResult(&ActionError{Action: "long press", Err: err}, "Failed to long press")
	}
	return successResult(fmt.Sprintf("Long pressed on element at (%d, %d) for %dms", x, y, LongPressDuration), m.Element)
}

// findTappable resolves cmd.Selector and returns the element center. A
// non-nil result means the caller should return it as is.
func (d *Driver) findTappable(ctx context.Context, cmd Command, action string) (*resolve.Match, int, int, *core.CommandResult) {
	m, err := d.resolver.Resolve(ctx, cmd.Selector, cmd.Timeout)
	if err != nil {
		return nil, 0, 0, errorResult(err, fmt.Sprintf("Element not found: %s", cmd.Selector))
	}

	x, y, ok := m.TapPoint()
	if !ok {
		return nil, 0, 0, errorResult(
			&ActionError{Action: action, Err: ErrNoBounds},
			fmt.Sprintf("Cannot %s %s", action, m.Tree.Describe(m.Node)))
	}
	return m, x, y, nil
}

// Text input

func (d *Driver) inputText(ctx context.Context, cmd Command) *core.CommandResult {
	if cmd.Text == "" {
		return errorResult(fmt.Errorf("no text specified"), "inputText requires --text")
	}

	m, x, y, res := d.findTappable(ctx, cmd, "input text")
	if res != nil {
		return res
	}
	if !m.Element.Enabled {
		return errorResult(
			&ActionError{Action: "input text", Err: ErrDisabled},
			fmt.Sprintf("Cannot type into %s", m.Tree.Describe(m.Node)))
	}

	if err := d.device.Tap(ctx, x, y); err != nil {
		return errorResult(&ActionError{Action: "focus", Err: err}, "Failed to focus element")
	}
	if err := d.device.InputText(ctx, cmd.Text); err != nil {
		return errorResult(&ActionError{Action: "input text", Err: err}, "Failed to input text")
	}
	return successResult(fmt.Sprintf("Input text: %s", cmd.Text), m.Element)
}

// Scroll

// scrollUntilVisible scrolls inside the element matched by cmd.Selector
// until cmd.Target appears or cmd.Timeout runs out. Each step is one
// gesture, a settle pause, then exactly one snapshot, so the number of
// gestures follows the number of snapshots sampled, not wall time.
func (d *Driver) scrollUntilVisible(ctx context.Context, cmd Command, dir core.Direction) *core.CommandResult {
	if cmd.Target == nil || len(cmd.Target.Selectors) == 0 {
		return errorResult(fmt.Errorf("no target selector specified"), fmt.Sprintf("scroll%s requires --target", title(dir)))
	}
	target := *cmd.Target

	timeout := cmd.Timeout
	if timeout < 0 {
		timeout = 0
	}
	deadline := d.resolver.Now().Add(timeout)

	container, err := d.resolver.ResolveUntil(ctx, cmd.Selector, deadline)
	if err != nil {
		return errorResult(err, fmt.Sprintf("Scroll container not found: %s", cmd.Selector))
	}
	area, ok := container.Tree.Bounds(container.Node)
	if !ok || area.Empty() {
		return errorResult(
			&ActionError{Action: "scroll", Err: ErrNoBounds},
			fmt.Sprintf("Cannot scroll %s", container.Tree.Describe(container.Node)))
	}

	scrolls, attempts := 0, 0
	for {
		if err := d.device.Scroll(ctx, area, dir); err != nil {
			return errorResult(&ActionError{Action: "scroll", Err: err}, "Failed to scroll")
		}
		scrolls++

		pause := d.settle
		if remaining := deadline.Sub(d.resolver.Now()); remaining < pause {
			pause = remaining
		}
		d.resolver.Sleep(pause)

		m, err := d.resolver.Sample(ctx, target)
		if err == nil {
			return successResult(fmt.Sprintf("Found %s after %d scrolls", m.Tree.Describe(m.Node), scrolls), m.Element)
		}

		var nf *resolve.NotFoundError
		if !errors.As(err, &nf) {
			return errorResult(err, "Scroll interrupted")
		}
		attempts += nf.Attempts
		d.log.Debug("target not visible after scroll",
			zap.Int("scrolls", scrolls),
			zap.Stringer("target", target))

		if !d.resolver.Now().Before(deadline) {
			return errorResult(&resolve.NotFoundError{
				Selector: target.String(),
				Timeout:  timeout,
				Attempts: attempts,
				LastErr:  nf.LastErr,
			}, fmt.Sprintf("Element not found after %d scrolls: %s", scrolls, target))
		}
	}
}

func title(dir core.Direction) string {
	if dir == core.DirectionUp {
		return "Up"
	}
	return "Down"
}
