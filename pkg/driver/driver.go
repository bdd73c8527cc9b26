// Package driver executes bochi commands against a device: it resolves the
// command's selector and performs the action at the matched element.
package driver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/devicelab-dev/bochi/pkg/core"
	"github.com/devicelab-dev/bochi/pkg/hierarchy"
	"github.com/devicelab-dev/bochi/pkg/resolve"
	"github.com/devicelab-dev/bochi/pkg/selector"
)

// Command names accepted by Execute.
const (
	CmdWaitFor    = "waitFor"
	CmdTap        = "tap"
	CmdDoubleTap  = "doubleTap"
	CmdLongTap    = "longTap"
	CmdInputText  = "inputText"
	CmdScrollUp   = "scrollUp"
	CmdScrollDown = "scrollDown"
)

// Commands lists every supported command name.
var Commands = []string{
	CmdWaitFor, CmdTap, CmdDoubleTap, CmdLongTap, CmdInputText, CmdScrollUp, CmdScrollDown,
}

// LongPressDuration is how long longTap holds, in milliseconds.
const LongPressDuration = 1000

// DefaultScrollSettle is the pause after each scroll gesture before the
// single snapshot that checks for the target.
const DefaultScrollSettle = 500 * time.Millisecond

var (
	// ErrUnknownCommand is returned for command names not in Commands.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrNoBounds means the matched element has no usable bounds attribute.
	ErrNoBounds = errors.New("element has no bounds")
	// ErrDisabled means inputText matched an element with enabled="false".
	ErrDisabled = errors.New("element is disabled")
)

// Device is the set of primitives a backend must provide.
type Device interface {
	Hierarchy(ctx context.Context) (*hierarchy.Tree, error)
	Tap(ctx context.Context, x, y int) error
	DoubleTap(ctx context.Context, x, y int) error
	LongPress(ctx context.Context, x, y, durationMs int) error
	Scroll(ctx context.Context, area core.Bounds, dir core.Direction) error
	InputText(ctx context.Context, text string) error
}

// Command is one action to run.
type Command struct {
	Name     string
	Selector selector.List
	// Target is the element scrolled into view by scrollUp and scrollDown.
	Target     *selector.List
	Text       string
	Timeout    time.Duration
	Dump       bool
	DumpFormat hierarchy.Format
}

// ActionError wraps a failure that happened after the element was found.
type ActionError struct {
	Action string
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Action, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }

// IsCommand reports whether name is a supported command.
func IsCommand(name string) bool {
	for _, c := range Commands {
		if c == name {
			return true
		}
	}
	return false
}

// Driver runs commands on a single device.
type Driver struct {
	device   Device
	resolver *resolve.Resolver
	settle   time.Duration
	log      *zap.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithScrollSettle sets the pause between a scroll gesture and the
// snapshot taken after it. Zero samples immediately.
func WithScrollSettle(d time.Duration) Option {
	return func(drv *Driver) {
		if d >= 0 {
			drv.settle = d
		}
	}
}

// WithLogger sets the driver logger.
func WithLogger(l *zap.Logger) Option {
	return func(drv *Driver) {
		if l != nil {
			drv.log = l
		}
	}
}

// New creates a Driver. The resolver must read snapshots from device.
func New(device Device, resolver *resolve.Resolver, opts ...Option) *Driver {
	d := &Driver{
		device:   device,
		resolver: resolver,
		settle:   DefaultScrollSettle,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Execute runs cmd and reports the outcome. It never returns nil.
func (d *Driver) Execute(ctx context.Context, cmd Command) *core.CommandResult {
	start := time.Now()
	d.log.Debug("executing command",
		zap.String("command", cmd.Name),
		zap.Stringer("selector", cmd.Selector),
		zap.Duration("timeout", cmd.Timeout))

	var result *core.CommandResult
	switch cmd.Name {
	case CmdWaitFor:
		result = d.waitFor(ctx, cmd)
	case CmdTap:
		result = d.tap(ctx, cmd)
	case CmdDoubleTap:
		result = d.doubleTap(ctx, cmd)
	case CmdLongTap:
		result = d.longTap(ctx, cmd)
	case CmdInputText:
		result = d.inputText(ctx, cmd)
	case CmdScrollUp:
		result = d.scrollUntilVisible(ctx, cmd, core.DirectionUp)
	case CmdScrollDown:
		result = d.scrollUntilVisible(ctx, cmd, core.DirectionDown)
	default:
		result = errorResult(
			fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Name),
			fmt.Sprintf("Supported commands: %s", strings.Join(Commands, ", ")))
	}

	result.Duration = time.Since(start)
	if result.Success {
		d.log.Debug(result.Message, zap.String("command", cmd.Name), zap.Duration("duration", result.Duration))
	} else {
		d.log.Debug("command failed", zap.String("command", cmd.Name), zap.Error(result.Error))
	}
	return result
}

func successResult(msg string, info *core.ElementInfo) *core.CommandResult {
	return &core.CommandResult{
		Success: true,
		Message: msg,
		Element: info,
	}
}

func errorResult(err error, msg string) *core.CommandResult {
	return &core.CommandResult{
		Success: false,
		Error:   err,
		Message: msg,
	}
}
