// Package logger builds the zap logger used across bochi.
package logger

import (
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls logger construction.
type Options struct {
	Verbose bool
	NoColor bool
	// Output defaults to os.Stderr.
	Output io.Writer
	// RunID is attached to every entry. One is generated when empty.
	RunID string
}

// New returns a logger writing to stderr. Terminals get a colored console
// encoder, anything else gets JSON lines.
func New(opts Options) *zap.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	level := zapcore.InfoLevel
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	runID := opts.RunID
	if runID == "" {
		runID = NewRunID()
	}

	core := zapcore.NewCore(encoder(out, opts.NoColor), zapcore.AddSync(out), level)
	return zap.New(core).With(zap.String("run_id", runID))
}

// NewRunID returns a short random identifier for one invocation.
func NewRunID() string {
	return uuid.NewString()[:8]
}

func encoder(out io.Writer, noColor bool) zapcore.Encoder {
	if isTerminal(out) {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		if !noColor {
			cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		return zapcore.NewConsoleEncoder(cfg)
	}

	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewJSONEncoder(cfg)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
