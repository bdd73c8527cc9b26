package device

import (
	"context"
	"errors"
	"strings"
)

// ConnectedDevice represents a device found via ADB.
type ConnectedDevice struct {
	Serial string `json:"serial" yaml:"serial"`
	State  string `json:"state" yaml:"state"` // "device", "offline", "unauthorized"
	Type   string `json:"type" yaml:"type"`   // "emulator" or "device"
}

// Available reports whether adb can talk to the device.
func (c ConnectedDevice) Available() bool { return c.State == "device" }

// ErrNoDevices is returned when no devices are connected.
var ErrNoDevices = errors.New("no Android devices connected")

// ListDevices returns all devices reported by "adb devices". An empty
// adbPath searches for adb the same way New does.
func ListDevices(ctx context.Context, adbPath string) ([]ConnectedDevice, error) {
	path, err := findADB(adbPath)
	if err != nil {
		return nil, err
	}

	out, err := runCommand(ctx, path, "devices")
	if err != nil {
		return nil, err
	}
	return parseDeviceList(string(out)), nil
}

// parseDeviceList parses output of "adb devices".
func parseDeviceList(output string) []ConnectedDevice {
	var devices []ConnectedDevice
	lines := strings.Split(output, "\n")

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "List of") || strings.HasPrefix(line, "*") {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}

		d := ConnectedDevice{
			Serial: parts[0],
			State:  parts[1],
			Type:   "device",
		}

		// Emulators have serial like "emulator-5554"
		if strings.HasPrefix(d.Serial, "emulator-") {
			d.Type = "emulator"
		}

		devices = append(devices, d)
	}

	return devices
}

// FirstAvailable returns the first online device, or ErrNoDevices.
func FirstAvailable(ctx context.Context, opts ...Option) (*AndroidDevice, error) {
	probe := &AndroidDevice{}
	for _, opt := range opts {
		opt(probe)
	}

	devices, err := ListDevices(ctx, probe.adbPath)
	if err != nil {
		return nil, err
	}

	for _, d := range devices {
		if d.Available() {
			return New(d.Serial, opts...)
		}
	}

	return nil, ErrNoDevices
}
