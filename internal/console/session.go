package console

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	var account, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the employee backend",
		Long:  "Exchange an account and password for a session token and keep it for later commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			account = strings.TrimSpace(account)
			if account == "" {
				return fmt.Errorf("--account is required")
			}
			if password == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
				fmt.Fprintln(cmd.OutOrStdout())
			}

			token, err := a.api.Login(cmd.Context(), account, password)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			if err := a.session.Login(token); err != nil {
				return fmt.Errorf("login: %w", err)
			}
			if a.session.Degraded() {
				a.logger.Warn("session could not be saved; it lasts for this command only")
			}

			landing := a.guard.Navigate(a.cfg.LoginPath)
			snap := a.session.Snapshot()
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", displayName(snap.Username, account))
			fmt.Fprintf(cmd.OutOrStdout(), "Now at %s\n", landing)
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "Account name")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted if omitted)")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			was := a.session.IsAuthenticated()
			if err := a.session.Logout(); err != nil {
				return fmt.Errorf("logout: the stored session could not be cleared and may return on the next run: %w", err)
			}
			if !was {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged out. Now at %s\n", a.guard.Path())
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap := a.session.Snapshot()
			out := cmd.OutOrStdout()
			if !snap.Authenticated {
				fmt.Fprintln(out, "Not logged in.")
				return nil
			}
			fmt.Fprintf(out, "User:  %s\n", displayName(snap.Username, "(unknown)"))
			if snap.Email != "" {
				fmt.Fprintf(out, "Email: %s\n", snap.Email)
			}
			return nil
		},
	}
}

func newOpenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Show where a page navigation lands",
		Long:  "Run the route guard for <path> with the stored session and print the page you end up on.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := args[0]
			if !strings.HasPrefix(p, "/") {
				p = "/" + p
			}
			got := a.guard.Navigate(p)
			if got != p {
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", p, got)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), got)
			return nil
		},
	}
}

func displayName(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
