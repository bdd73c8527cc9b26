package uiautomator2

// Response is the generic W3C response envelope.
type Response struct {
	SessionID string      `json:"sessionId,omitempty"`
	Value     interface{} `json:"value"`
}

// Capabilities requested when creating a session.
type Capabilities struct {
	PlatformName   string `json:"platformName"`
	DeviceName     string `json:"deviceName,omitempty"`
	AutomationName string `json:"automationName,omitempty"`
}

// SessionRequest is the body of POST /session.
type SessionRequest struct {
	Capabilities Capabilities `json:"capabilities"`
}

// PointModel is a screen coordinate.
type PointModel struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// RectModel is a screen rectangle.
type RectModel struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ClickRequest is used for click and double click gestures.
type ClickRequest struct {
	Offset *PointModel `json:"offset,omitempty"`
}

// LongClickRequest holds a point for Duration milliseconds.
type LongClickRequest struct {
	Offset   *PointModel `json:"offset,omitempty"`
	Duration int         `json:"duration,omitempty"`
}

// ScrollRequest scrolls inside Area.
type ScrollRequest struct {
	Area      *RectModel `json:"area,omitempty"`
	Direction string     `json:"direction"`
	Percent   float64    `json:"percent"`
	Speed     int        `json:"speed,omitempty"`
}

// KeysRequest types text into the focused element.
type KeysRequest struct {
	Text  string   `json:"text"`
	Value []string `json:"value"`
}
