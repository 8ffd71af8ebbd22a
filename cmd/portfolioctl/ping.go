package main

import (
	"errors"

	"github.com/spf13/cobra"

	"portfolio-client/internal/keepalive"
)

func pingCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Ping the backend once",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.client(cmd)
			if err != nil {
				return err
			}
			p := a.Pinger
			if p == nil {
				p = keepalive.NewPinger(a.Config.APIURL, 0)
			}
			if !p.Ping(cmd.Context()) {
				return errors.New("backend did not answer the ping")
			}
			success(cmd, "Backend at %s is up", a.Config.APIURL)
			return nil
		},
	}
}
