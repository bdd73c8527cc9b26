package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/devicelab-dev/bochi/pkg/config"
	"github.com/devicelab-dev/bochi/pkg/device"
	"github.com/devicelab-dev/bochi/pkg/driver"
	"github.com/devicelab-dev/bochi/pkg/logger"
	"github.com/devicelab-dev/bochi/pkg/report"
	"github.com/devicelab-dev/bochi/pkg/resolve"
	"github.com/devicelab-dev/bochi/pkg/selector"
	"github.com/devicelab-dev/bochi/pkg/uiautomator2"
)

// deviceOpener connects to the device described by cfg. The returned
// close function is never nil when err is nil.
type deviceOpener func(ctx context.Context, cfg config.Config, log *zap.Logger) (driver.Device, func() error, error)

type runner struct {
	stdout io.Writer
	stderr io.Writer
	open   deviceOpener
}

// loadConfig merges the config file with flags and their environment
// variables, which take precedence.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, err
	}

	if c.IsSet("serial") {
		cfg.Serial = c.String("serial")
	}
	if c.IsSet("adb-path") {
		cfg.ADBPath = c.String("adb-path")
	}
	if c.IsSet("driver") {
		cfg.Driver = c.String("driver")
	}
	if c.IsSet("driver-host-port") {
		cfg.DriverHostPort = c.Int("driver-host-port")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Int("timeout")
	}
	if c.IsSet("poll-interval") {
		cfg.PollInterval = c.Int("poll-interval")
	}
	if c.IsSet("scroll-settle") {
		cfg.ScrollSettle = c.Int("scroll-settle")
	}
	if c.IsSet("format") {
		cfg.DumpFormat = c.String("format")
	}
	if c.IsSet("verbose") {
		cfg.Verbose = c.Bool("verbose")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (r *runner) newLogger(c *cli.Context, cfg config.Config, runID string) *zap.Logger {
	return logger.New(logger.Options{
		Verbose: cfg.Verbose,
		NoColor: c.Bool("no-ansi"),
		Output:  r.stderr,
		RunID:   runID,
	})
}

// root runs a single command against the element matched by --selector.
func (r *runner) root(c *cli.Context) (err error) {
	if c.NArg() > 0 {
		return fmt.Errorf("unknown command %q", c.Args().First())
	}
	if !c.IsSet("selector") && !c.IsSet("command") {
		return cli.ShowAppHelp(c)
	}

	runID := logger.NewRunID()
	rec := &report.Record{
		RunID:     runID,
		Command:   c.String("command"),
		Selector:  c.String("selector"),
		Target:    c.String("target"),
		StartTime: time.Now(),
	}
	if c.IsSet("report") || c.IsSet("junit") {
		defer func() {
			if err != nil && rec.Error == "" {
				rec.SetError(err)
			}
			if werr := writeReports(c, rec); werr != nil && err == nil {
				err = werr
			}
		}()
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	rec.Device = cfg.Serial
	rec.Driver = cfg.Driver

	cmd, err := buildCommand(c, cfg)
	if err != nil {
		return err
	}

	log := r.newLogger(c, cfg, runID)
	defer log.Sync()

	dev, closeDevice, err := r.open(c.Context, cfg, log)
	if err != nil {
		return err
	}
	defer closeDevice()
	if s, ok := dev.(interface{ Serial() string }); ok && s.Serial() != "" {
		rec.Device = s.Serial()
	}

	res := resolve.New(dev,
		resolve.WithPollInterval(cfg.PollIntervalDuration()),
		resolve.WithLogger(log))
	drv := driver.New(dev, res,
		driver.WithScrollSettle(cfg.ScrollSettleDuration()),
		driver.WithLogger(log))

	result := drv.Execute(c.Context, cmd)
	rec.SetResult(result)

	if result.Data != "" {
		fmt.Fprintln(r.stdout, strings.TrimRight(result.Data, "\n"))
	}
	if !result.Success {
		if result.Error != nil {
			return result.Error
		}
		return errors.New(result.Message)
	}
	return nil
}

func writeReports(c *cli.Context, rec *report.Record) error {
	if path := c.String("report"); path != "" {
		if err := report.Write(path, rec); err != nil {
			return err
		}
	}
	if path := c.String("junit"); path != "" {
		if err := report.WriteJUnit(path, rec); err != nil {
			return err
		}
	}
	return nil
}

// buildCommand validates the command line before any device is touched.
func buildCommand(c *cli.Context, cfg config.Config) (driver.Command, error) {
	name := c.String("command")
	if name == "" {
		return driver.Command{}, errors.New("missing required flag: -c/--command")
	}
	if !driver.IsCommand(name) {
		return driver.Command{}, fmt.Errorf("%w: %s. Supported: %s", driver.ErrUnknownCommand, name, strings.Join(driver.Commands, ", "))
	}
	if !c.IsSet("selector") {
		return driver.Command{}, errors.New("missing required flag: -e/--selector")
	}

	sel, err := selector.Parse(c.String("selector"))
	if err != nil {
		return driver.Command{}, err
	}

	cmd := driver.Command{
		Name:       name,
		Selector:   sel,
		Text:       c.String("text"),
		Timeout:    cfg.TimeoutDuration(),
		Dump:       c.Bool("dump"),
		DumpFormat: cfg.Format(),
	}

	if name == driver.CmdScrollUp || name == driver.CmdScrollDown {
		if !c.IsSet("target") {
			return driver.Command{}, fmt.Errorf("%s requires --target", name)
		}
		target, err := selector.Parse(c.String("target"))
		if err != nil {
			return driver.Command{}, fmt.Errorf("target: %w", err)
		}
		cmd.Target = &target
	}
	if name == driver.CmdInputText && cmd.Text == "" {
		return driver.Command{}, errors.New("inputText requires --text")
	}

	return cmd, nil
}

func openDevice(ctx context.Context, cfg config.Config, log *zap.Logger) (driver.Device, func() error, error) {
	if cfg.Driver == config.DriverUIAutomator2 {
		dev, err := uiautomator2.Connect(ctx, cfg.DriverHostPort, log)
		if err != nil {
			return nil, nil, err
		}
		return dev, dev.Close, nil
	}

	opts := []device.Option{device.WithADBPath(cfg.ADBPath), device.WithLogger(log)}

	var dev *device.AndroidDevice
	var err error
	if cfg.Serial != "" {
		dev, err = device.New(cfg.Serial, opts...)
	} else {
		dev, err = device.FirstAvailable(ctx, opts...)
	}
	if err != nil {
		return nil, nil, err
	}
	log.Debug("using device", zap.String("serial", dev.Serial()), zap.String("driver", cfg.Driver))
	return dev, func() error { return nil }, nil
}
