package report

import (
	"fmt"
	"strings"
)

// WriteJUnit writes the record as a JUnit XML report with one test case,
// for CI systems that collect JUnit results.
func WriteJUnit(path string, r *Record) error {
	if err := atomicWriteFile(path, []byte(buildJUnitXML(r)), 0o644); err != nil {
		return fmt.Errorf("write junit xml: %w", err)
	}
	return nil
}

// buildJUnitXML builds the JUnit XML string for a single run.
func buildJUnitXML(r *Record) string {
	failures := 0
	if !r.Passed() {
		failures = 1
	}
	totalTime := float64(r.DurationMs) / 1000.0

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(fmt.Sprintf(
		`<testsuites tests="1" failures="%d" skipped="0" errors="0" time="%.3f">`+"\n",
		failures, totalTime,
	))

	timestamp := r.StartTime.Format("2006-01-02T15:04:05Z07:00")
	b.WriteString(fmt.Sprintf(
		`  <testsuite name="bochi" tests="1" failures="%d" skipped="0" errors="0" time="%.3f" timestamp="%s">`+"\n",
		failures, totalTime, timestamp,
	))
	b.WriteString(buildTestCase(r, totalTime))
	b.WriteString("  </testsuite>\n")
	b.WriteString("</testsuites>\n")

	return b.String()
}

// buildTestCase builds the <testcase> element.
func buildTestCase(r *Record, tcTime float64) string {
	var b strings.Builder
	name := xmlEscape(strings.TrimSpace(r.Command + " " + r.Selector))
	b.WriteString(fmt.Sprintf(
		`    <testcase name="%s" classname="%s" time="%.3f">`+"\n",
		name, xmlEscape(r.Command), tcTime,
	))

	b.WriteString("      <properties>\n")
	writeProperty(&b, "run.id", r.RunID)
	writeProperty(&b, "selector", r.Selector)
	writeProperty(&b, "target", r.Target)
	writeProperty(&b, "device.id", r.Device)
	writeProperty(&b, "driver", r.Driver)
	b.WriteString("      </properties>\n")

	if !r.Passed() {
		b.WriteString(fmt.Sprintf(
			`      <failure message="%s" type="%s">%s</failure>`+"\n",
			xmlEscape(r.Error),
			failureType(r.Command),
			xmlEscape(r.Message),
		))
	}

	b.WriteString("    </testcase>\n")
	return b.String()
}

func writeProperty(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	b.WriteString(fmt.Sprintf(`        <property name="%s" value="%s"/>`+"\n", name, xmlEscape(value)))
}

// failureType maps a command name to a JUnit failure type.
func failureType(command string) string {
	switch command {
	case "waitFor":
		return "AssertionError"
	case "tap", "doubleTap", "longTap":
		return "ElementInteractionError"
	case "inputText":
		return "InputError"
	case "scrollUp", "scrollDown":
		return "ScrollError"
	default:
		return "TestError"
	}
}

// xmlEscape escapes special XML characters in a string.
func xmlEscape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "'", "&apos;")
	return s
}
