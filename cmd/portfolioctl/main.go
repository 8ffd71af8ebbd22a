// portfolioctl is a console client for the portfolio backend: it signs in,
// keeps the session, and opens views through the same route guard as the web UI.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"portfolio-client/internal/app"
	"portfolio-client/internal/config"
	"portfolio-client/internal/telemetry"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

// cli holds the client shared by every command. It is built lazily so that
// --help and version never touch the session backend.
type cli struct {
	app *app.App
}

func (c *cli) client(cmd *cobra.Command) (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	a, err := app.New(cmd.Context(), cfg, app.Deps{Out: cmd.OutOrStdout()})
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

func (c *cli) close() {
	if c.app == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), telemetry.ShutdownDrainDuration)
	defer cancel()
	_ = c.app.Close(ctx)
	c.app = nil
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "portfolioctl",
		Short: "Console client for the portfolio backend",
		Long: `portfolioctl signs in to the portfolio backend and keeps the session
across invocations (see SESSION_BACKEND). Views are opened through the route
guard: /admin pages require a signed-in administrator.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		loginCmd(c),
		logoutCmd(c),
		registerCmd(c),
		whoamiCmd(c),
		openCmd(c),
		projectsCmd(c),
		watchCmd(c),
		pingCmd(c),
		versionCmd(),
	)
	return root
}

func main() {
	c := &cli{}
	root := newRootCmd(c)
	err := root.ExecuteContext(context.Background())
	c.close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "portfolioctl %s (%s)\n", version, commit)
		},
	}
}

// success prints a success message.
func success(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

func info(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", fmt.Sprintf(format, args...))
}

func formatExpiry(ms int64) string {
	t := time.UnixMilli(ms)
	return fmt.Sprintf("%s (in %s)", t.Format(time.RFC3339), time.Until(t).Round(time.Second))
}
