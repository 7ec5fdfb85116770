package cli

import (
	"fmt"

	"github.com/Makepad-fr/tabletodo/internal/model"
	"github.com/Makepad-fr/tabletodo/internal/ui"
)

func printList(items []model.Item, group bool) {
	// Header + progress
	d, p := stats(items)
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		ui.C(ui.Current().Title, "Todo List"),
		ui.C(ui.Current().Success, ui.Current().SymDone), d,
		ui.C(ui.Current().Pending, ui.Current().SymUnchecked), p,
		ui.C(ui.Current().Accent, "Total"), len(items),
	)

	var lines []string
	lines = append(lines, header)
	lines = append(lines, ui.C(ui.Current().Muted, ui.ProgressBar(d, d+p, 28)))
	lines = append(lines, "")

	if group {
		lines = append(lines, groupLines(items)...)
	} else {
		lines = append(lines, flatLines(items, 1)...)
	}
	lines = append(lines, "")
	lines = append(lines, ui.C(ui.Current().Muted, "Tip: add with `todo add \"Buy milk\"`"))
	ui.Panel(lines)
}

func stats(items []model.Item) (done, pending int) {
	for _, it := range items {
		if it.IsCompleted {
			done++
		} else {
			pending++
		}
	}
	return
}

// flatLines numbers items from start; grouped output keeps the list index
// so it can be passed to done/rm.
func flatLines(items []model.Item, start int) []string {
	if len(items) == 0 {
		return []string{ui.C(ui.Current().Muted, ui.Current().Empty)}
	}
	out := make([]string, 0, len(items))
	for i, it := range items {
		out = append(out, itemLine(start+i, it))
	}
	return out
}

func itemLine(index int, it model.Item) string {
	idx := fmt.Sprintf("%2d.", index)
	box := ui.Current().BoxUnchecked
	color := ui.Current().Muted
	if it.IsCompleted {
		box, color = ui.Current().BoxChecked, ui.Current().Success
	}
	name := it.Name
	if r := []rune(name); len(r) > 80 {
		name = string(r[:77]) + "..."
	}
	return fmt.Sprintf("%s %s %s", ui.Dim(idx), ui.C(color, box), name)
}

func groupLines(items []model.Item) []string {
	var pend, done []string
	for i, it := range items {
		if it.IsCompleted {
			done = append(done, itemLine(i+1, it))
		} else {
			pend = append(pend, itemLine(i+1, it))
		}
	}
	var lines []string
	lines = append(lines, ui.C(ui.Current().Accent, "Pending"))
	if len(pend) == 0 {
		lines = append(lines, ui.C(ui.Current().Muted, "(none)"))
	} else {
		lines = append(lines, pend...)
	}
	lines = append(lines, "")
	lines = append(lines, ui.C(ui.Current().Accent, "Done"))
	if len(done) == 0 {
		lines = append(lines, ui.C(ui.Current().Muted, "(none)"))
	} else {
		lines = append(lines, done...)
	}
	return lines
}
