package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"portfolio-client/internal/keepalive"
	"portfolio-client/internal/session/domain"
)

func watchCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep the session open until it expires or is revoked",
		Long: `watch restores the stored session, keeps the backend warm with periodic
pings and exits when the session ends (expiry or logout) or on interrupt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.client(cmd)
			if err != nil {
				return err
			}
			rec := a.Session.Record()
			if rec == nil {
				info(cmd, "Not signed in")
				return nil
			}
			info(cmd, "Watching session for %s, expires %s", rec.User.DisplayName(), formatExpiry(rec.ExpiresAt))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ended := make(chan domain.LogoutReason, 1)
			unsubscribe := a.Session.OnLogout(func(r domain.LogoutReason) {
				select {
				case ended <- r:
				default:
				}
			})
			defer unsubscribe()

			if a.Pinger != nil {
				pingCtx, cancel := context.WithCancel(ctx)
				defer cancel()
				go func(p *keepalive.Pinger) { _ = p.Run(pingCtx) }(a.Pinger)
			}

			select {
			case r := <-ended:
				info(cmd, "Session ended (%s)", r)
			case <-ctx.Done():
				info(cmd, "Stopped; session kept")
			}
			return nil
		},
	}
}
