package cli

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/bochi/pkg/hierarchy"
	"github.com/devicelab-dev/bochi/pkg/resolve"
	"github.com/devicelab-dev/bochi/pkg/selector"
)

func (r *runner) hierarchyCommand() *cli.Command {
	return &cli.Command{
		Name:  "hierarchy",
		Usage: "Print the current UI hierarchy",
		Description: `Takes one snapshot and prints it. With --selector only the subtree of
the first matching element is printed.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "selector",
				Aliases: []string{"e"},
				Usage:   "Print only the first element matching this selector",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format (xml, yaml, json)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			var sel *selector.List
			if c.IsSet("selector") {
				l, err := selector.Parse(c.String("selector"))
				if err != nil {
					return err
				}
				sel = &l
			}

			log := r.newLogger(c, cfg, "")
			defer log.Sync()

			dev, closeDevice, err := r.open(c.Context, cfg, log)
			if err != nil {
				return err
			}
			defer closeDevice()

			var tree *hierarchy.Tree
			var node hierarchy.NodeID
			if sel != nil {
				m, err := resolve.New(dev, resolve.WithLogger(log)).Resolve(c.Context, *sel, 0)
				if err != nil {
					return err
				}
				tree, node = m.Tree, m.Node
			} else {
				tree, err = dev.Hierarchy(c.Context)
				if err != nil {
					return err
				}
				node = tree.Root()
			}

			out, err := tree.DumpString(node, cfg.Format())
			if err != nil {
				return err
			}
			fmt.Fprintln(r.stdout, strings.TrimRight(out, "\n"))
			return nil
		},
	}
}
