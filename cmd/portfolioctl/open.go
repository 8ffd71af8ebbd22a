package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"portfolio-client/internal/guard"
)

func openCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Open a view through the route guard",
		Example: `  portfolioctl open /
  portfolioctl open /admin/users`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.client(cmd)
			if err != nil {
				return err
			}
			d := a.Open(cmd.Context(), args[0])
			switch d.Action {
			case guard.Render:
				if d.NotFound {
					info(cmd, "No view at %s", d.Path)
					return nil
				}
				success(cmd, "Rendering %s", d.Route.Name)
				for k, v := range d.Params {
					info(cmd, "%s = %s", k, v)
				}
			case guard.Redirect:
				info(cmd, "Sign in to open %s", d.From)
			case guard.Block:
				return fmt.Errorf("session not ready, %s blocked", d.Path)
			}
			return nil
		},
	}
}
