package uiautomator2

import "context"

// Click performs a tap at coordinates.
func (c *Client) Click(ctx context.Context, x, y int) error {
	req := ClickRequest{
		Offset: &PointModel{X: x, Y: y},
	}
	_, err := c.sessionRequest(ctx, "POST", "/appium/gestures/click", req)
	return err
}

// LongClick performs a long press at coordinates.
func (c *Client) LongClick(ctx context.Context, x, y, durationMs int) error {
	req := LongClickRequest{
		Offset:   &PointModel{X: x, Y: y},
		Duration: durationMs,
	}
	_, err := c.sessionRequest(ctx, "POST", "/appium/gestures/long_click", req)
	return err
}

// DoubleClick performs a double tap at coordinates.
func (c *Client) DoubleClick(ctx context.Context, x, y int) error {
	req := ClickRequest{
		Offset: &PointModel{X: x, Y: y},
	}
	_, err := c.sessionRequest(ctx, "POST", "/appium/gestures/double_click", req)
	return err
}

// ScrollInArea performs a scroll gesture in a rectangular area.
func (c *Client) ScrollInArea(ctx context.Context, area RectModel, direction string, percent float64, speed int) error {
	req := ScrollRequest{
		Area:      &area,
		Direction: direction,
		Percent:   percent,
		Speed:     speed,
	}
	_, err := c.sessionRequest(ctx, "POST", "/appium/gestures/scroll", req)
	return err
}
