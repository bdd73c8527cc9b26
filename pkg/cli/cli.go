// Package cli provides the command-line interface for bochi.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/bochi/pkg/config"
	"github.com/devicelab-dev/bochi/pkg/driver"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "selector",
		Aliases: []string{"e"},
		Usage:   "Element selector, e.g. '[text=\"Login\"]' or 'resource-id=com.app:id/ok'",
	},
	&cli.StringFlag{
		Name:    "command",
		Aliases: []string{"c"},
		Usage:   "Command to run (" + strings.Join(driver.Commands, ", ") + ")",
	},
	&cli.IntFlag{
		Name:        "timeout",
		Aliases:     []string{"t"},
		Usage:       "Seconds to wait for the element",
		DefaultText: "30",
		EnvVars:     []string{"BOCHI_TIMEOUT"},
	},
	&cli.StringFlag{
		Name:    "serial",
		Aliases: []string{"s"},
		Usage:   "Device serial (defaults to the first connected device)",
		EnvVars: []string{"BOCHI_SERIAL", "ANDROID_SERIAL"},
	},
	&cli.StringFlag{
		Name:  "target",
		Usage: "Selector to scroll into view (scrollUp, scrollDown)",
	},
	&cli.StringFlag{
		Name:  "text",
		Usage: "Text to type (inputText)",
	},
	&cli.BoolFlag{
		Name:  "dump",
		Usage: "Print the matched element subtree (waitFor)",
	},
	&cli.StringFlag{
		Name:        "format",
		Usage:       "Dump format (xml, yaml, json)",
		DefaultText: "xml",
		EnvVars:     []string{"BOCHI_DUMP_FORMAT"},
	},
	&cli.StringFlag{
		Name:        "driver",
		Aliases:     []string{"d"},
		Usage:       "Driver to use (adb, uiautomator2)",
		DefaultText: config.DriverADB,
		EnvVars:     []string{"BOCHI_DRIVER"},
	},
	&cli.IntFlag{
		Name:        "driver-host-port",
		Usage:       "Host port forwarded to the UIAutomator2 server",
		DefaultText: "7001",
		EnvVars:     []string{"BOCHI_DRIVER_HOST_PORT"},
	},
	&cli.StringFlag{
		Name:    "adb-path",
		Usage:   "Path to the adb binary",
		EnvVars: []string{"BOCHI_ADB_PATH"},
	},
	&cli.IntFlag{
		Name:        "poll-interval",
		Usage:       "Milliseconds between UI snapshots",
		DefaultText: "500",
		EnvVars:     []string{"BOCHI_POLL_INTERVAL"},
	},
	&cli.IntFlag{
		Name:        "scroll-settle",
		Usage:       "Milliseconds to pause after each scroll before checking for the target",
		DefaultText: "500",
		EnvVars:     []string{"BOCHI_SCROLL_SETTLE"},
	},
	&cli.StringFlag{
		Name:    "config",
		Usage:   "Config file (default ./bochi.yaml)",
		EnvVars: []string{config.EnvConfig},
	},
	&cli.StringFlag{
		Name:    "report",
		Usage:   "Write a JSON report of the run to this path",
		EnvVars: []string{"BOCHI_REPORT"},
	},
	&cli.StringFlag{
		Name:    "junit",
		Usage:   "Write a JUnit XML report of the run to this path",
		EnvVars: []string{"BOCHI_JUNIT"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose logging",
		EnvVars: []string{"BOCHI_VERBOSE"},
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// Execute runs the CLI.
func Execute() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp(os.Stdout, os.Stderr, openDevice)
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer, open deviceOpener) *cli.App {
	r := &runner{stdout: stdout, stderr: stderr, open: open}

	return &cli.App{
		Name:    "bochi",
		Usage:   "Find and act on Android UI elements with CSS-like selectors",
		Version: Version,
		Description: `bochi waits for an element matching a selector on a connected Android
device and then acts on it. It is meant to be driven by scripts and agents:
it prints nothing on success and exits 0, or prints "Error: ..." and exits 1.

Examples:
  bochi -e '[text="Login"]' -c tap
  bochi -s emulator-5554 -e 'resource-id=com.app:id/email' -c inputText --text 'me@example.com'
  bochi -e '[scrollable=true]' -c scrollDown --target '[text="Settings"]' -t 60
  bochi -e '[class$=Button]:has([text^=Sub])' -c waitFor --dump --format yaml
  bochi hierarchy -e '[resource-id=com.app:id/list]'`,
		Flags:     GlobalFlags,
		Writer:    stdout,
		ErrWriter: stderr,
		Action:    r.root,
		Commands: []*cli.Command{
			r.devicesCommand(),
			r.hierarchyCommand(),
		},
		// Errors are printed once by Execute.
		ExitErrHandler: func(*cli.Context, error) {},
	}
}
