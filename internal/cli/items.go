package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Makepad-fr/tabletodo/internal/model"
	"github.com/Makepad-fr/tabletodo/internal/todos"
	"github.com/Makepad-fr/tabletodo/internal/tui"
	"github.com/Makepad-fr/tabletodo/internal/ui"
)

func newLsCmd(a *app) *cobra.Command {
	var plain, group bool
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List items (interactive unless --plain or not a terminal)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.syncer(cmd.Context())
			if err != nil {
				return err
			}
			if !plain && stdoutIsTerminal() {
				if err := tui.Run(cmd.Context(), s); err != nil {
					return failure("tui: %w", err)
				}
				return nil
			}
			if err := s.FetchAll(cmd.Context()); err != nil {
				return failure("%w", err)
			}
			printList(s.State().Items(), group)
			return nil
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print a static panel instead of the interactive list")
	cmd.Flags().BoolVar(&group, "group", false, "group plain output by pending/done")
	return cmd
}

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "add <name...>",
		Short:   "Add a new item (name can be multiple words)",
		Example: `  todo add "Buy milk"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usage("usage: todo add <name...>")
			}
			name := strings.Join(args, " ")
			if strings.TrimSpace(name) == "" {
				return usage("add: empty name")
			}
			s, err := a.syncer(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.AddItem(cmd.Context(), name); err != nil {
				return failure("%w", err)
			}
			ui.OK(ui.Current().Added)
			return nil
		},
	}
}

func newDoneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "done <index>",
		Short: "Toggle completed for the item at a 1-based index",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, it, err := a.pick(cmd, "done", args)
			if err != nil {
				return err
			}
			if err := s.ToggleComplete(cmd.Context(), it.ID, it.IsCompleted); err != nil {
				return failure("%w", err)
			}
			if it.IsCompleted {
				ui.OK(ui.Current().Undone)
			} else {
				ui.OK(ui.Current().Completed)
			}
			return nil
		},
	}
}

func newRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <index>",
		Short: "Remove the item at a 1-based index",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, it, err := a.pick(cmd, "rm", args)
			if err != nil {
				return err
			}
			if err := s.DeleteItem(cmd.Context(), it.ID); err != nil {
				return failure("%w", err)
			}
			ui.OK(ui.Current().Removed)
			return nil
		},
	}
}

// pick fetches the list and resolves a 1-based index argument.
func (a *app) pick(cmd *cobra.Command, name string, args []string) (*todos.Syncer, model.Item, error) {
	if len(args) != 1 {
		return nil, model.Item{}, usage("usage: todo %s <index>", name)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return nil, model.Item{}, usage("%s: not a number: %s", name, args[0])
	}
	s, err := a.syncer(cmd.Context())
	if err != nil {
		return nil, model.Item{}, err
	}
	if err := s.FetchAll(cmd.Context()); err != nil {
		return nil, model.Item{}, failure("%w", err)
	}
	items := s.State().Items()
	if n < 1 || n > len(items) {
		fmt.Fprintln(ui.Err, ui.Dim("Hint: run `todo ls --plain` to see valid indexes"))
		return nil, model.Item{}, usage("index out of range: have %d, got %d", len(items), n)
	}
	return s, items[n-1], nil
}

func stdoutIsTerminal() bool {
	f, isFile := ui.Out.(*os.File)
	return isFile && term.IsTerminal(int(f.Fd()))
}
