// Package cli wires configuration, logging and a table backend into the
// todo commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tabletodo/internal/ui"
)

// exitError carries an exit code: 1 for failures, 2 for usage errors.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usage(format string, a ...any) error {
	return &exitError{code: 2, err: fmt.Errorf(format, a...)}
}

func failure(format string, a ...any) error {
	return &exitError{code: 1, err: fmt.Errorf(format, a...)}
}

type globalFlags struct {
	configFile string
	backend    string
	theme      string
	logLevel   string
	noColor    bool
}

// overrides returns only the flags the user actually set.
func (g *globalFlags) overrides(cmd *cobra.Command) map[string]any {
	out := map[string]any{}
	fl := cmd.Flags()
	if fl.Changed("backend") {
		out["backend"] = g.backend
	}
	if fl.Changed("theme") {
		out["theme"] = g.theme
	}
	if fl.Changed("log-level") {
		out["log.level"] = g.logLevel
	}
	if fl.Changed("no-color") {
		out["no_color"] = g.noColor
	}
	return out
}

// NewRootCmd builds the command tree. Each call returns a fresh tree.
func NewRootCmd() *cobra.Command {
	root, _ := newRoot()
	return root
}

func newRoot() (*cobra.Command, *app) {
	g := &globalFlags{}
	a := &app{flags: g}

	root := &cobra.Command{
		Use:   "todo",
		Short: "todo - a tiny client for a hosted todo table",
		Long: `todo keeps a to-do list in a hosted table (Supabase / PostgREST) and
lets you add, complete and delete items from an interactive list or from
scripts.

Configuration comes from flags, TADA_* environment variables, a .env file in
the working directory and ~/.tada/config.toml.`,
		Example: `  todo auth login
  todo ls
  todo add "Buy milk"
  todo done 2
  todo rm 3
  todo serve --store json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}
	// Root flags (apply to every subcommand)
	pf := root.PersistentFlags()
	pf.StringVar(&g.configFile, "config", "", "config file (default ~/.tada/config.toml)")
	pf.StringVar(&g.backend, "backend", "", "table backend: rest, json, sqlite or memory")
	pf.StringVar(&g.theme, "theme", "", "plain output theme: classic, neon or mono")
	pf.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.BoolVar(&g.noColor, "no-color", false, "disable colors")

	root.AddCommand(
		newLsCmd(a),
		newAddCmd(a),
		newDoneCmd(a),
		newRmCmd(a),
		newAuthCmd(a),
		newServeCmd(a),
	)
	return root, a
}

// Run executes args and returns an exit code (0 ok, 1 error, 2 usage).
func Run(ctx context.Context, args []string) int {
	root, a := newRoot()
	defer a.close()
	root.SetArgs(args)
	root.SetOut(ui.Out)
	root.SetErr(ui.Err)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	ui.Fail(err.Error())
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// cobra's own errors: unknown command, bad flags, arg counts
	fmt.Fprintln(ui.Err)
	fmt.Fprintln(ui.Err, root.UsageString())
	return 2
}

// Main is the process entry point.
func Main() {
	os.Exit(Run(context.Background(), os.Args[1:]))
}
