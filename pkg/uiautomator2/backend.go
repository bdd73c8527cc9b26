package uiautomator2

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/devicelab-dev/bochi/pkg/core"
	"github.com/devicelab-dev/bochi/pkg/hierarchy"
)

// ScrollPercent is the share of the scroll area covered by one gesture.
const ScrollPercent = 0.5

// Device runs device primitives through a UIAutomator2 session.
type Device struct {
	client *Client
	log    *zap.Logger
}

// Connect opens a session on the server forwarded to the given host port.
func Connect(ctx context.Context, port int, log *zap.Logger) (*Device, error) {
	return connect(ctx, NewClientTCP(port), log)
}

func connect(ctx context.Context, client *Client, log *zap.Logger) (*Device, error) {
	if log == nil {
		log = zap.NewNop()
	}

	ready, err := client.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("uiautomator2 server at %s: %w", client.baseURL, err)
	}
	if !ready {
		return nil, fmt.Errorf("uiautomator2 server at %s is not ready", client.baseURL)
	}

	caps := Capabilities{PlatformName: "Android", AutomationName: "UiAutomator2"}
	if err := client.CreateSession(ctx, caps); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	log.Debug("uiautomator2 session created", zap.String("session", client.SessionID()))

	return &Device{client: client, log: log}, nil
}

// Hierarchy fetches and parses the page source.
func (d *Device) Hierarchy(ctx context.Context) (*hierarchy.Tree, error) {
	src, err := d.client.Source(ctx)
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}
	return hierarchy.ParseString(src)
}

func (d *Device) Tap(ctx context.Context, x, y int) error {
	return d.client.Click(ctx, x, y)
}

func (d *Device) DoubleTap(ctx context.Context, x, y int) error {
	return d.client.DoubleClick(ctx, x, y)
}

func (d *Device) LongPress(ctx context.Context, x, y, durationMs int) error {
	return d.client.LongClick(ctx, x, y, durationMs)
}

// Scroll scrolls the content of area in dir.
func (d *Device) Scroll(ctx context.Context, area core.Bounds, dir core.Direction) error {
	rect := RectModel{Left: area.X, Top: area.Y, Width: area.Width, Height: area.Height}
	return d.client.ScrollInArea(ctx, rect, string(dir), ScrollPercent, 0)
}

func (d *Device) InputText(ctx context.Context, text string) error {
	return d.client.SendKeys(ctx, text)
}

// Close deletes the session.
func (d *Device) Close() error {
	d.log.Debug("closing uiautomator2 session", zap.String("session", d.client.SessionID()))
	return d.client.Close()
}
