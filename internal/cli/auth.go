package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Makepad-fr/tabletodo/internal/auth"
	"github.com/Makepad-fr/tabletodo/internal/ui"
)

func newAuthCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth <login|logout|status|whoami>",
		Short: "Manage the API key sent to the table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return usage("usage: todo auth <login|logout|status|whoami>")
		},
	}
	cmd.AddCommand(newAuthLoginCmd(a), newAuthLogoutCmd(a), newAuthStatusCmd(a), newAuthWhoAmICmd(a))
	return cmd
}

func newAuthLoginCmd(a *app) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save an API key (anon or service key) for the table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				var err error
				if token, err = readToken(); err != nil {
					return failure("read token: %w", err)
				}
			}
			if err := a.creds.Set(token); err != nil {
				return failure("save token: %w", err)
			}
			ui.OK("logged in")
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "key to save instead of prompting")
	return cmd
}

// readToken prompts with a masked field on a terminal and reads one line
// from stdin otherwise.
func readToken() (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}
	var token string
	err := huh.NewInput().
		Title("Paste your API key").
		EchoMode(huh.EchoModePassword).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("key cannot be empty")
			}
			return nil
		}).
		Value(&token).
		Run()
	return token, err
}

func newAuthLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Delete the saved API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ti, _ := a.creds.Get()
			if ti != nil && ti.Source == "env" {
				ui.OK(fmt.Sprintf("key is provided by %s env var (nothing to delete)", ti.EnvVar))
				return nil
			}
			if err := a.creds.Delete(); err != nil {
				return failure("logout: %w", err)
			}
			ui.OK("logged out")
			return nil
		},
	}
}

func newAuthStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where the API key comes from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			ti, err := a.creds.Get()
			if err != nil {
				return failure("%w", err)
			}
			if ti == nil {
				fmt.Fprintln(out, ui.Dim("not logged in"))
				fmt.Fprintln(out, "Run: todo auth login")
				return nil
			}
			source := ti.Source
			if ti.EnvVar != "" {
				source += " (" + ti.EnvVar + ")"
			}
			fmt.Fprintf(out, "source: %s\n", source)
			if ti.ExpiresAt != nil {
				fmt.Fprintf(out, "expires: %s\n", ti.ExpiresAt.UTC().Format(time.RFC3339))
			} else {
				fmt.Fprintln(out, "expires: (unknown)")
			}
			fmt.Fprintln(out, "env override: TADA_TOKEN, SUPABASE_ANON_KEY")
			return nil
		},
	}
}

// whoami decodes the key's JWT payload locally (unsigned); opaque keys print
// basic info.
func newAuthWhoAmICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Decode the saved key's claims",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			ti, _ := a.creds.Get()
			if ti == nil {
				return usage("not logged in. Run: todo auth login")
			}
			claims, err := auth.Claims(ti.Token)
			if err != nil {
				fmt.Fprintln(out, "Opaque token (cannot introspect locally).")
				fmt.Fprintln(out, "source:", ti.Source)
				return nil
			}
			b, err := json.MarshalIndent(claims, "", "  ")
			if err != nil {
				return failure("encode claims: %w", err)
			}
			fmt.Fprintln(out, "JWT payload:")
			fmt.Fprintln(out, string(b))
			return nil
		},
	}
}
