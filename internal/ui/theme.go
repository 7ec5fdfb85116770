package ui

import (
	"fmt"
	"slices"
	"strings"
)

// Theme bundles palette, symbols, box borders and the words used to report
// list changes. All UI helpers pull from `current`.
type Theme struct {
	Title, Muted, Accent, Success, Error, Pending string
	BoxUnchecked, BoxChecked                      string
	CornerTL, CornerTR, CornerBL, CornerBR        string
	H, V                                          string
	SymDone, SymUnchecked                         string

	// Outcome labels for one-shot commands.
	Added, Completed, Undone, Removed string
	Empty                             string // shown when the table has no rows
}

var labels = Theme{
	Added: "added", Completed: "completed", Undone: "undone", Removed: "removed",
	Empty: "no items",
}

func withLabels(t Theme) Theme {
	t.Added, t.Completed, t.Undone, t.Removed = labels.Added, labels.Completed, labels.Undone, labels.Removed
	t.Empty = labels.Empty
	return t
}

var themes = map[string]Theme{
	"classic": withLabels(Theme{
		Title: bold, Muted: fgGray, Accent: fgBlue,
		Success: fgGreen, Error: fgRed, Pending: fgYellow,
		BoxUnchecked: "☐", BoxChecked: "☑",
		CornerTL: "┌", CornerTR: "┐", CornerBL: "└", CornerBR: "┘",
		H: "─", V: "│",
		SymDone: "✔", SymUnchecked: "•",
	}),
	"neon": withLabels(Theme{
		Title: "\033[95m", // bright magenta
		Muted: fgGray, Accent: "\033[96m",
		Success: fgGreen, Error: fgRed, Pending: "\033[93m",
		BoxUnchecked: "◻", BoxChecked: "◼",
		CornerTL: "╭", CornerTR: "╮", CornerBL: "╰", CornerBR: "╯",
		H: "─", V: "│",
		SymDone: "✔", SymUnchecked: "•",
	}),
	// mono is for logs and pipes: ASCII only, no color
	"mono": {
		BoxUnchecked: "[ ]", BoxChecked: "[x]",
		CornerTL: "+", CornerTR: "+", CornerBL: "+", CornerBR: "+",
		H: "-", V: "|",
		SymDone: "x", SymUnchecked: "-",
		Added: "ADDED", Completed: "DONE", Undone: "TODO", Removed: "REMOVED",
		Empty: "(empty)",
	},
}

var current Theme

func init() { _ = SetTheme("classic") }

// Themes lists the theme names SetTheme accepts.
func Themes() []string {
	names := make([]string, 0, len(themes))
	for n := range themes {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// SetTheme switches the current theme. An empty name means classic.
func SetTheme(name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "classic"
	}
	t, ok := themes[name]
	if !ok {
		return fmt.Errorf("unknown theme %q (want %s)", name, strings.Join(Themes(), ", "))
	}
	if name == "mono" {
		SetColorForcing(false, true)
	}
	current = t
	return nil
}

// Expose what renderers need
func Current() Theme { return current }
