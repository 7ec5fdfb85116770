// Package tui is the interactive list. It renders the syncer's state and
// turns keys into sync actions; remote failures never reach the screen.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Makepad-fr/tabletodo/internal/model"
	"github.com/Makepad-fr/tabletodo/internal/todos"
)

// listItem adapts model.Item to bubbles/list.Item
type listItem struct {
	model.Item
}

func (i listItem) TitleText() string {
	box := boxUnchecked
	if i.IsCompleted {
		box = boxChecked
	}
	return fmt.Sprintf("%s %s", box, i.Name)
}

// Implement list.Item interface
func (i listItem) Title() string       { return i.TitleText() }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.Name }

// action names carried back in syncedMsg
const (
	actionFetch  = "fetch"
	actionAdd    = "add"
	actionToggle = "toggle"
	actionDelete = "delete"
)

// syncedMsg is sent when a sync call settled, successfully or not.
type syncedMsg struct {
	action string
	snap   todos.Snapshot
}

// Model is the Bubble Tea model.
type Model struct {
	ctx    context.Context
	syncer *todos.Syncer

	list   list.Model
	loaded bool
	width  int
	height int

	// Inline add
	adding  bool            // true when the add bar is open
	pending bool            // an add is waiting on the table
	ti      textinput.Model // bound to the store's pending input
	addErr  string          // last add validation error (shown briefly)
}

// Custom delegate to control how items render (single line)
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, _ := item.(listItem)

	boxStyled := mutedStyle.Render(boxUnchecked)
	textStyled := it.Name
	action := "Complete"
	if it.IsCompleted {
		boxStyled = successStyle.Render(boxChecked)
		textStyled = doneStyle.Render(it.Name)
		action = "Undo"
	}

	line := fmt.Sprintf("%s %s", boxStyled, textStyled)
	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
		line += helpStyle.Render(fmt.Sprintf("   space %s · d Delete", action))
	}
	fmt.Fprintln(w, prefix+line)
}

var (
	addBind    = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	toggleBind = key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "complete/undo"))
	deleteBind = key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
)

// New builds the model. Nothing is fetched until Init.
func New(ctx context.Context, syncer *todos.Syncer) Model {
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.Title = header(nil)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("item", "items")
	// d is ours; keep it off page navigation.
	l.KeyMap.NextPage.SetKeys("right", "l", "pgdown", "f")

	extra := func() []key.Binding { return []key.Binding{addBind, toggleBind, deleteBind} }
	l.AdditionalShortHelpKeys = extra
	l.AdditionalFullHelpKeys = extra

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "New Todo..."
	ti.CharLimit = 200

	m := Model{ctx: ctx, syncer: syncer, list: l, ti: ti, width: 80, height: 24}
	m.resize()
	return m
}

// Run starts the program on the terminal and blocks until the user quits.
func Run(ctx context.Context, syncer *todos.Syncer) error {
	p := tea.NewProgram(New(ctx, syncer), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// header title with live counts
func header(items []model.Item) string {
	dn, pn := stats(items)
	return fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		titleStyle.Render("Todo List"),
		successStyle.Render("✔"), dn,
		pendingStyle.Render("•"), pn,
		accentStyle.Render("Total"), len(items),
	)
}

// run wraps a sync call as a command. The error was already logged by the
// syncer; the UI only ever shows the resulting state.
func (m Model) run(action string, call func(ctx context.Context) error) tea.Cmd {
	ctx, syncer := m.ctx, m.syncer
	return func() tea.Msg {
		_ = call(ctx)
		return syncedMsg{action: action, snap: syncer.State().Snapshot()}
	}
}

func (m Model) Init() tea.Cmd {
	return m.run(actionFetch, m.syncer.FetchAll)
}

func (m Model) selected() (model.Item, bool) {
	li, ok := m.list.SelectedItem().(listItem)
	return li.Item, ok
}

func (m *Model) setItems(items []model.Item) tea.Cmd {
	li := make([]list.Item, 0, len(items))
	for _, it := range items {
		li = append(li, listItem{Item: it})
	}
	m.list.Title = header(items)
	return m.list.SetItems(li)
}

func (m *Model) resize() {
	h := m.height - 4
	if m.adding {
		h = m.height - 7
	}
	m.list.SetSize(m.width-4, max(h, 1))
}

func (m *Model) closeAdd() {
	m.adding = false
	m.addErr = ""
	m.ti.SetValue("")
	m.ti.Blur()
	m.resize()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case syncedMsg:
		m.loaded = true
		cmd := m.setItems(msg.snap.Items)
		if msg.action == actionAdd {
			m.pending = false
			// The store clears the input only when the insert went through.
			if msg.snap.Input == "" && m.adding {
				m.closeAdd()
			}
		}
		return m, cmd
	}

	// add mode
	if m.adding {
		var cmd tea.Cmd
		if x, isKey := msg.(tea.KeyMsg); isKey {
			switch x.String() {
			case "enter":
				if m.pending {
					return m, nil
				}
				text := m.ti.Value()
				if strings.TrimSpace(text) == "" {
					m.addErr = "Name cannot be empty"
					return m, nil
				}
				m.addErr = ""
				m.pending = true
				return m, m.run(actionAdd, func(ctx context.Context) error {
					return m.syncer.AddItem(ctx, text)
				})
			case "esc":
				m.closeAdd()
				m.syncer.State().SetInput("")
				return m, nil
			}
		}
		m.ti, cmd = m.ti.Update(msg)
		m.syncer.State().SetInput(m.ti.Value())
		return m, cmd
	}

	// let the list own keys while the filter prompt is open
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	if x, isKey := msg.(tea.KeyMsg); isKey {
		switch x.String() {
		case "ctrl+c", "q", "esc":
			if x.String() == "esc" && m.list.FilterState() == list.FilterApplied {
				break
			}
			return m, tea.Quit
		case " ", "enter":
			if it, ok := m.selected(); ok {
				return m, m.run(actionToggle, func(ctx context.Context) error {
					return m.syncer.ToggleComplete(ctx, it.ID, it.IsCompleted)
				})
			}
			return m, nil
		case "d":
			if it, ok := m.selected(); ok {
				return m, m.run(actionDelete, func(ctx context.Context) error {
					return m.syncer.DeleteItem(ctx, it.ID)
				})
			}
			return m, nil
		case "a":
			m.adding = true
			m.addErr = ""
			m.ti.SetValue(m.syncer.State().Input())
			m.ti.CursorEnd()
			m.resize()
			return m, m.ti.Focus()
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	content := m.list.View()
	if !m.loaded {
		content = mutedStyle.Render("loading…")
	}
	if m.adding {
		bar := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
		title := "Add Todo Item"
		if m.pending {
			title += " " + mutedStyle.Render("(saving…)")
		}
		if m.addErr != "" {
			title += " " + errorStyle.Render(m.addErr)
		}
		content = content + "\n" + bar.Render(title+"\n"+m.ti.View())
	}
	return frameStyle.Render(content)
}

// small list stats used for the header
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
