package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriteJUnitPassed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junit.xml")
	rec := &Record{
		RunID:      "abcd1234",
		Command:    "tap",
		Selector:   `[text="OK"]`,
		Device:     "emulator-5554",
		Driver:     "adb",
		Status:     StatusPassed,
		StartTime:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		DurationMs: 1250,
	}

	if err := WriteJUnit(path, rec); err != nil {
		t.Fatalf("WriteJUnit failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	xml := string(data)

	checks := []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<testsuites tests="1" failures="0" skipped="0" errors="0" time="1.250">`,
		`timestamp="2024-05-01T12:00:00Z"`,
		`<testcase name="tap [text=&quot;OK&quot;]" classname="tap" time="1.250">`,
		`<property name="device.id" value="emulator-5554"/>`,
		`<property name="run.id" value="abcd1234"/>`,
	}
	for _, want := range checks {
		if !strings.Contains(xml, want) {
			t.Errorf("expected XML to contain %q\n%s", want, xml)
		}
	}
	if strings.Contains(xml, "<failure") {
		t.Error("passed run should have no failure element")
	}
	if strings.Contains(xml, `name="target"`) {
		t.Error("empty properties should be omitted")
	}
}

func TestWriteJUnitFailed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junit.xml")
	rec := &Record{
		Command:  "scrollDown",
		Selector: "[scrollable=true]",
		Target:   `[text="Item <40>"]`,
		Status:   StatusFailed,
		Message:  "Element not found after 3 scrolls",
		Error:    "no element matching [text=\"Item <40>\"] within 3s (9 attempts)",
	}

	if err := WriteJUnit(path, rec); err != nil {
		t.Fatalf("WriteJUnit failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	xml := string(data)

	if !strings.Contains(xml, `failures="1"`) {
		t.Error("expected failure count")
	}
	if !strings.Contains(xml, `type="ScrollError">Element not found after 3 scrolls</failure>`) {
		t.Errorf("expected scroll failure element\n%s", xml)
	}
	if !strings.Contains(xml, "Item &lt;40&gt;") || strings.Contains(xml, "Item <40>") {
		t.Error("expected escaped target")
	}
}

func TestFailureType(t *testing.T) {
	tests := []struct {
		command string
		want    string
	}{
		{"waitFor", "AssertionError"},
		{"tap", "ElementInteractionError"},
		{"longTap", "ElementInteractionError"},
		{"inputText", "InputError"},
		{"scrollUp", "ScrollError"},
		{"", "TestError"},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			if got := failureType(tt.command); got != tt.want {
				t.Errorf("failureType(%q) = %q, want %q", tt.command, got, tt.want)
			}
		})
	}
}

func TestXMLEscape(t *testing.T) {
	got := xmlEscape(`a & b < c > "d" 'e'`)
	want := "a &amp; b &lt; c &gt; &quot;d&quot; &apos;e&apos;"
	if got != want {
		t.Errorf("xmlEscape = %q, want %q", got, want)
	}
}
