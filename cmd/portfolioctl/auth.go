package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"portfolio-client/internal/authapi"
)

func loginCmd(c *cli) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.client(cmd)
			if err != nil {
				return err
			}
			if password == "" {
				if password, err = readSecret(cmd, "Password: "); err != nil {
					return err
				}
			}
			rec, err := a.Session.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			success(cmd, "Signed in as %s", rec.User.DisplayName())
			info(cmd, "Session expires %s", formatExpiry(rec.ExpiresAt))
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted on stdin when omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func logoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.client(cmd)
			if err != nil {
				return err
			}
			if err := a.Session.Logout(cmd.Context()); err != nil {
				return err
			}
			success(cmd, "Signed out")
			return nil
		},
	}
}

func registerCmd(c *cli) *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account (does not sign in)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.client(cmd)
			if err != nil {
				return err
			}
			if password == "" {
				if password, err = readSecret(cmd, "Password: "); err != nil {
					return err
				}
			}
			u, err := a.Auth.Register(cmd.Context(), name, email, password)
			var regErr *authapi.RegisterError
			if errors.As(err, &regErr) {
				return fmt.Errorf("registration rejected: %s", regErr.Error())
			}
			if err != nil {
				return err
			}
			success(cmd, "Registered %s <%s>", u.DisplayName(), u.Email)
			info(cmd, "Run portfolioctl login -e %s to sign in", u.Email)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Display name")
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted on stdin when omitted)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func whoamiCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.client(cmd)
			if err != nil {
				return err
			}
			rec := a.Session.Record()
			if rec == nil || rec.User == nil {
				info(cmd, "Not signed in")
				return nil
			}
			role := "user"
			if rec.User.IsAdmin {
				role = "admin"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> (%s)\n", rec.User.DisplayName(), rec.User.Email, role)
			info(cmd, "Session expires %s", formatExpiry(rec.ExpiresAt))
			return nil
		},
	}
}

func readSecret(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("password is required")
	}
	return line, nil
}
