// Package core holds the value types shared by the selector engine,
// the resolver and the action driver.
package core

import (
	"fmt"
	"time"
)

// Bounds is an element rectangle in screen pixels.
type Bounds struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// BoundsFromCorners builds Bounds from left, top, right, bottom.
func BoundsFromCorners(left, top, right, bottom int) Bounds {
	return Bounds{X: left, Y: top, Width: right - left, Height: bottom - top}
}

// Center returns the tap-point of the rectangle.
func (b Bounds) Center() (int, int) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Right returns the x coordinate of the right edge.
func (b Bounds) Right() int { return b.X + b.Width }

// Bottom returns the y coordinate of the bottom edge.
func (b Bounds) Bottom() int { return b.Y + b.Height }

// Empty reports whether the rectangle has no area.
func (b Bounds) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// String renders the bounds in uiautomator's packed form.
func (b Bounds) String() string {
	return fmt.Sprintf("[%d,%d][%d,%d]", b.X, b.Y, b.Right(), b.Bottom())
}

// Direction is a scroll direction. Down reveals content below the
// current viewport, Up reveals content above it.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// ElementInfo describes a matched element.
type ElementInfo struct {
	Text        string `json:"text,omitempty" yaml:"text,omitempty"`
	ResourceID  string `json:"resourceId,omitempty" yaml:"resourceId,omitempty"`
	ContentDesc string `json:"contentDescription,omitempty" yaml:"contentDescription,omitempty"`
	Class       string `json:"class,omitempty" yaml:"class,omitempty"`
	Bounds      Bounds `json:"bounds" yaml:"bounds"`
	HasBounds   bool   `json:"-" yaml:"-"`
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	Focusable   bool   `json:"focusable" yaml:"focusable"`
}

// CommandResult is the outcome of executing one command.
type CommandResult struct {
	Success  bool
	Error    error
	Message  string
	Element  *ElementInfo
	Data     string // serialized subtree for waitFor --dump
	Duration time.Duration
}
