// Package device talks to Android devices through the adb command line tool.
package device

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/devicelab-dev/bochi/pkg/core"
	"github.com/devicelab-dev/bochi/pkg/hierarchy"
)

// ErrADBNotFound is returned when no adb binary can be located.
var ErrADBNotFound = errors.New("adb is not available in the $PATH directories")

// DumpPath is where uiautomator writes the window dump on the device.
const DumpPath = "/sdcard/window_dump.xml"

// ScrollDuration is the swipe duration used for scroll gestures, in ms.
const ScrollDuration = 500

// runFunc executes a host command and returns its stdout.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// AndroidDevice drives one device (or the adb default device when the
// serial is empty) with adb shell commands.
type AndroidDevice struct {
	serial  string
	adbPath string
	run     runFunc
	log     *zap.Logger
}

// Option configures an AndroidDevice.
type Option func(*AndroidDevice)

// WithADBPath uses the given adb binary instead of searching for one.
func WithADBPath(path string) Option {
	return func(d *AndroidDevice) {
		d.adbPath = path
	}
}

// WithLogger sets the logger for adb invocations.
func WithLogger(l *zap.Logger) Option {
	return func(d *AndroidDevice) {
		if l != nil {
			d.log = l
		}
	}
}

// New returns a device for serial. An empty serial leaves device selection
// to adb.
func New(serial string, opts ...Option) (*AndroidDevice, error) {
	d := &AndroidDevice{
		serial: serial,
		run:    runCommand,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}

	path, err := findADB(d.adbPath)
	if err != nil {
		return nil, err
	}
	d.adbPath = path
	return d, nil
}

// Serial returns the device serial, which may be empty.
func (d *AndroidDevice) Serial() string { return d.serial }

// Shell runs cmd through "adb shell" and returns its output.
func (d *AndroidDevice) Shell(ctx context.Context, cmd string) (string, error) {
	args := make([]string, 0, 4)
	if d.serial != "" {
		args = append(args, "-s", d.serial)
	}
	args = append(args, "shell", cmd)

	d.log.Debug("adb shell", zap.String("serial", d.serial), zap.String("cmd", cmd))
	out, err := d.run(ctx, d.adbPath, args...)
	if err != nil {
		return "", fmt.Errorf("adb shell %q: %w", cmd, err)
	}
	return string(out), nil
}

// Hierarchy dumps the current window with uiautomator and parses it.
func (d *AndroidDevice) Hierarchy(ctx context.Context) (*hierarchy.Tree, error) {
	out, err := d.Shell(ctx, fmt.Sprintf("uiautomator dump %s && cat %s", DumpPath, DumpPath))
	if err != nil {
		return nil, err
	}
	return hierarchy.Parse([]byte(out))
}

// Tap taps at (x, y).
func (d *AndroidDevice) Tap(ctx context.Context, x, y int) error {
	_, err := d.Shell(ctx, fmt.Sprintf("input tap %d %d", x, y))
	return err
}

// DoubleTap sends two taps in a single shell invocation to keep them close.
func (d *AndroidDevice) DoubleTap(ctx context.Context, x, y int) error {
	tap := fmt.Sprintf("input tap %d %d", x, y)
	_, err := d.Shell(ctx, tap+" && "+tap)
	return err
}

// LongPress holds at (x, y) for durationMs using a zero-length swipe.
func (d *AndroidDevice) LongPress(ctx context.Context, x, y, durationMs int) error {
	_, err := d.Shell(ctx, fmt.Sprintf("input swipe %d %d %d %d %d", x, y, x, y, durationMs))
	return err
}

// Scroll swipes vertically inside area. Scrolling down moves the content
// up, so the finger travels from the lower third to the upper third.
func (d *AndroidDevice) Scroll(ctx context.Context, area core.Bounds, dir core.Direction) error {
	x1, y1, x2, y2 := scrollPath(area, dir)
	_, err := d.Shell(ctx, fmt.Sprintf("input swipe %d %d %d %d %d", x1, y1, x2, y2, ScrollDuration))
	return err
}

// InputText types text into the focused field.
func (d *AndroidDevice) InputText(ctx context.Context, text string) error {
	for _, chunk := range textChunks(text) {
		if _, err := d.Shell(ctx, "input text "+escapeText(chunk)); err != nil {
			return err
		}
	}
	return nil
}

// textChunks splits text so that no chunk contains a literal "%s", which
// "input text" would otherwise type as a space. "50%sale" becomes "50%"
// and "sale".
func textChunks(text string) []string {
	parts := strings.Split(text, "%s")
	for i := 0; i < len(parts)-1; i++ {
		parts[i] += "%"
		parts[i+1] = "s" + parts[i+1]
	}
	return parts
}

func scrollPath(area core.Bounds, dir core.Direction) (x1, y1, x2, y2 int) {
	x := area.X + area.Width/2
	upper := area.Y + area.Height/3
	lower := area.Y + area.Height*2/3
	if dir == core.DirectionUp {
		return x, upper, x, lower
	}
	return x, lower, x, upper
}

// escapeText prepares text for "input text": spaces become %s and shell
// metacharacters are backslash escaped.
func escapeText(text string) string {
	var b strings.Builder
	for _, r := range text {
		switch {
		case r == ' ':
			b.WriteString("%s")
		case strings.ContainsRune("\\'\"`$&|;<>()*?~#![]{}", r):
			b.WriteRune('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// findADB locates adb: an explicit path, then $ADB, then the SDK
// platform-tools directory, then $PATH.
func findADB(explicit string) (string, error) {
	if explicit != "" {
		if isExecutable(explicit) {
			return explicit, nil
		}
		return "", fmt.Errorf("%w: %s", ErrADBNotFound, explicit)
	}

	if p := os.Getenv("ADB"); p != "" && isExecutable(p) {
		return p, nil
	}

	for _, env := range []string{"ANDROID_HOME", "ANDROID_SDK_ROOT"} {
		if home := os.Getenv(env); home != "" {
			p := filepath.Join(home, "platform-tools", "adb")
			if isExecutable(p) {
				return p, nil
			}
		}
	}

	if p, err := exec.LookPath("adb"); err == nil {
		return p, nil
	}
	return "", ErrADBNotFound
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Mode()&0o111 != 0
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, ErrADBNotFound
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}
