package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/bochi/pkg/config"
	"github.com/devicelab-dev/bochi/pkg/device"
)

func (r *runner) devicesCommand() *cli.Command {
	return &cli.Command{
		Name:  "devices",
		Usage: "List connected Android devices",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			if c.IsSet("adb-path") {
				cfg.ADBPath = c.String("adb-path")
			}

			devices, err := device.ListDevices(c.Context, cfg.ADBPath)
			if err != nil {
				return err
			}
			if len(devices) == 0 {
				return device.ErrNoDevices
			}

			for _, d := range devices {
				fmt.Fprintf(r.stdout, "%-24s %-14s %s\n", d.Serial, d.State, d.Type)
			}
			return nil
		},
	}
}
