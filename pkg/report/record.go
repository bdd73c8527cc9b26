// Package report writes a machine-readable record of one bochi run.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/devicelab-dev/bochi/pkg/core"
)

// Version of the record format.
const Version = "1.0.0"

// Status is the outcome of a run.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
)

// Record describes one command execution.
type Record struct {
	Version    string            `json:"version"`
	RunID      string            `json:"runId"`
	Command    string            `json:"command"`
	Selector   string            `json:"selector"`
	Target     string            `json:"target,omitempty"`
	Device     string            `json:"device,omitempty"`
	Driver     string            `json:"driver,omitempty"`
	Status     Status            `json:"status"`
	Message    string            `json:"message,omitempty"`
	Error      string            `json:"error,omitempty"`
	Element    *core.ElementInfo `json:"element,omitempty"`
	StartTime  time.Time         `json:"startTime"`
	DurationMs int64             `json:"durationMs"`
}

// Passed reports whether the run succeeded.
func (r *Record) Passed() bool { return r.Status == StatusPassed }

// SetResult copies the outcome of a command into the record.
func (r *Record) SetResult(result *core.CommandResult) {
	r.Status = StatusFailed
	if result.Success {
		r.Status = StatusPassed
	}
	r.Message = result.Message
	if result.Error != nil {
		r.Error = result.Error.Error()
	}
	r.Element = result.Element
	r.DurationMs = result.Duration.Milliseconds()
}

// SetError marks the record failed with err. Used for failures that happen
// before a command runs, such as a bad selector or missing device.
func (r *Record) SetError(err error) {
	r.Status = StatusFailed
	r.Error = err.Error()
}

// Write stores the record at path, replacing any previous file atomically.
func Write(path string, r *Record) error {
	if r.Version == "" {
		r.Version = Version
	}
	if err := atomicWriteJSON(path, r); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

// Read loads a record written by Write.
func Read(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", path, err)
	}
	return &r, nil
}
