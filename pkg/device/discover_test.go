package device

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestParseDeviceList_Empty(t *testing.T) {
	output := "List of devices attached\n"
	devices := parseDeviceList(output)

	if len(devices) != 0 {
		t.Errorf("expected 0 devices, got %d", len(devices))
	}
}

func TestParseDeviceList_SingleDevice(t *testing.T) {
	output := `List of devices attached
RF8M33XXXXX	device
`
	devices := parseDeviceList(output)

	if len(devices) != 1 {
		t.Fatalf("expected 1 device, got %d", len(devices))
	}

	if devices[0].Serial != "RF8M33XXXXX" {
		t.Errorf("expected serial RF8M33XXXXX, got %s", devices[0].Serial)
	}
	if devices[0].State != "device" {
		t.Errorf("expected state device, got %s", devices[0].State)
	}
	if devices[0].Type != "device" {
		t.Errorf("expected type device, got %s", devices[0].Type)
	}
}

func TestParseDeviceList_Emulator(t *testing.T) {
	output := `List of devices attached
emulator-5554	device
`
	devices := parseDeviceList(output)

	if len(devices) != 1 {
		t.Fatalf("expected 1 device, got %d", len(devices))
	}

	if devices[0].Serial != "emulator-5554" {
		t.Errorf("expected serial emulator-5554, got %s", devices[0].Serial)
	}
	if devices[0].Type != "emulator" {
		t.Errorf("expected type emulator, got %s", devices[0].Type)
	}
}

func TestParseDeviceList_MultipleDevices(t *testing.T) {
	output := `List of devices attached
emulator-5554	device
RF8M33XXXXX	device
192.168.1.100:5555	device
`
	devices := parseDeviceList(output)

	if len(devices) != 3 {
		t.Fatalf("expected 3 devices, got %d", len(devices))
	}

	// Check each device
	expected := []struct {
		serial string
		typ    string
	}{
		{"emulator-5554", "emulator"},
		{"RF8M33XXXXX", "device"},
		{"192.168.1.100:5555", "device"},
	}

	for i, e := range expected {
		if devices[i].Serial != e.serial {
			t.Errorf("device %d: expected serial %s, got %s", i, e.serial, devices[i].Serial)
		}
		if devices[i].Type != e.typ {
			t.Errorf("device %d: expected type %s, got %s", i, e.typ, devices[i].Type)
		}
	}
}

func TestParseDeviceList_OfflineDevice(t *testing.T) {
	output := `List of devices attached
emulator-5554	offline
RF8M33XXXXX	unauthorized
`
	devices := parseDeviceList(output)

	if len(devices) != 2 {
		t.Fatalf("expected 2 devices, got %d", len(devices))
	}

	if devices[0].State != "offline" {
		t.Errorf("expected state offline, got %s", devices[0].State)
	}
	if devices[1].State != "unauthorized" {
		t.Errorf("expected state unauthorized, got %s", devices[1].State)
	}
}

func TestParseDeviceList_ExtraWhitespace(t *testing.T) {
	output := `List of devices attached

emulator-5554	device

`
	devices := parseDeviceList(output)

	if len(devices) != 1 {
		t.Errorf("expected 1 device, got %d", len(devices))
	}
}

func TestParseDeviceList_DaemonStartup(t *testing.T) {
	output := `* daemon not running; starting now at tcp:5037
* daemon started successfully
List of devices attached
emulator-5554	device
`
	devices := parseDeviceList(output)

	if len(devices) != 1 {
		t.Fatalf("expected 1 device, got %d", len(devices))
	}
	if devices[0].Serial != "emulator-5554" {
		t.Errorf("expected serial emulator-5554, got %s", devices[0].Serial)
	}
}

func TestConnectedDeviceAvailable(t *testing.T) {
	if !(ConnectedDevice{State: "device"}).Available() {
		t.Error("expected state device to be available")
	}
	if (ConnectedDevice{State: "unauthorized"}).Available() {
		t.Error("expected unauthorized device to be unavailable")
	}
}

func TestListDevices_ADBMissing(t *testing.T) {
	_, err := ListDevices(context.Background(), filepath.Join(t.TempDir(), "adb"))
	if !errors.Is(err, ErrADBNotFound) {
		t.Errorf("expected ErrADBNotFound, got %v", err)
	}
}

func TestErrNoDevices(t *testing.T) {
	err := ErrNoDevices
	if err.Error() != "no Android devices connected" {
		t.Errorf("unexpected error message: %s", err.Error())
	}
}
