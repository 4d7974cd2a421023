// Package tui is the interactive users screen: a list of the directory,
// sorted by name, where each user can be followed and opened.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/habits/internal/directory"
	"github.com/idilsaglam/habits/internal/logger"
	"github.com/idilsaglam/habits/internal/model"
	"github.com/idilsaglam/habits/internal/snapshot"
)

// Follows is the followed set plus its toggle.
type Follows interface {
	snapshot.FollowedSet
	ToggleFollowed(u model.User) error
}

// fetchedMsg carries a finished directory flight back to the loop.
type fetchedMsg directory.Result

// listItem adapts snapshot.Item to bubbles/list.Item.
type listItem snapshot.Item

func (i listItem) FilterValue() string { return i.User.Name }

// itemDelegate renders one user per line: cursor, colour swatch, star, name.
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintf(w, "%s%s %s %s", prefix, swatch(it.User.Color, 2), star(it.Followed), it.User.Name)
}

type keyMap struct {
	Follow  key.Binding
	Open    key.Binding
	Refresh key.Binding
	Back    key.Binding
	Quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Follow:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "follow/unfollow")),
		Open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Back:    key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type screen struct {
	ctx     context.Context
	dir     *directory.Controller
	follows Follows

	list     list.Model
	spinner  spinner.Model
	keys     keyMap
	rendered []snapshot.Item

	detail   *model.User // set while the detail view is open
	reselect string      // key to select once pending filter matches arrive
	status   string
	err      string
	width    int
	height   int
}

func newScreen(ctx context.Context, dir *directory.Controller, follows Follows) screen {
	keys := newKeyMap()

	l := list.New(nil, itemDelegate{}, 80, 20)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("user", "users")
	// Quitting goes through the screen so the pending fetch is cancelled.
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)
	l.AdditionalShortHelpKeys = func() []key.Binding { return []key.Binding{keys.Follow, keys.Open, keys.Refresh} }
	l.AdditionalFullHelpKeys = func() []key.Binding { return []key.Binding{keys.Follow, keys.Open, keys.Refresh} }

	s := screen{
		ctx:     ctx,
		dir:     dir,
		follows: follows,
		list:    l,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(accentStyle)),
		keys:    keys,
		width:   80,
		height:  24,
	}
	s.refreshTitle()
	return s
}

// Run shows the screen until the viewer quits. The directory fetch is
// cancelled before Run returns.
func Run(ctx context.Context, dir *directory.Controller, follows Follows) error {
	defer dir.Close()

	p := tea.NewProgram(newScreen(ctx, dir, follows), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		// Interrupted from outside; the screen is already torn down.
		return nil
	}
	return err
}

func (m screen) Init() tea.Cmd {
	return tea.Batch(m.activate(), m.spinner.Tick)
}

// activate starts a directory fetch, superseding any in flight.
func (m *screen) activate() tea.Cmd {
	job := m.dir.Trigger(m.ctx)
	m.refreshTitle()
	return func() tea.Msg { return fetchedMsg(job()) }
}

// reconcile recomputes the items and applies only the differences to the list.
func (m *screen) reconcile() tea.Cmd {
	next := snapshot.Build(m.dir.Users(), m.follows).Items(snapshot.MainSection)
	script := snapshot.Diff(m.rendered, next)
	cmd := m.applyScript(script, next)
	m.rendered = next
	m.refreshTitle()

	if m.detail != nil {
		if u, ok := m.dir.User(model.UserKey(*m.detail)); ok {
			m.detail = &u
		} else {
			m.detail = nil
		}
	}
	return cmd
}

func (m *screen) applyScript(script snapshot.EditScript, next []snapshot.Item) tea.Cmd {
	if script.Empty() {
		return nil
	}
	selectedKey, hadSelection := m.selectedKey()
	fallback := m.list.Index()

	// Filtered views index into the matches, not the items, so edits by
	// position would land on the wrong rows. Replace the items and let the
	// filter run again; the selection is restored once the matches arrive.
	if m.list.FilterState() != list.Unfiltered {
		items := make([]list.Item, 0, len(next))
		for _, it := range next {
			items = append(items, listItem(it))
		}
		cmd := m.list.SetItems(items)
		if hadSelection {
			m.reselect = selectedKey
		}
		logger.Log.Debugw("replaced filtered list items", "items", len(items))
		return cmd
	}

	removes := append([]int(nil), script.Removes...)
	adds := append([]int(nil), script.Inserts...)
	for _, mv := range script.Moves {
		removes = append(removes, mv.From)
		adds = append(adds, mv.To)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(removes)))
	sort.Ints(adds)

	var cmds []tea.Cmd
	for _, i := range removes {
		m.list.RemoveItem(i)
	}
	for _, j := range adds {
		cmds = append(cmds, m.list.InsertItem(j, listItem(next[j])))
	}
	for _, j := range script.Reloads {
		cmds = append(cmds, m.list.SetItem(j, listItem(next[j])))
	}
	if hadSelection {
		m.restoreSelection(selectedKey, fallback)
	}
	logger.Log.Debugw("applied list edits",
		"removed", len(script.Removes), "inserted", len(script.Inserts),
		"moved", len(script.Moves), "reloaded", len(script.Reloads))
	return tea.Batch(cmds...)
}

func (m screen) selectedKey() (string, bool) {
	u, ok := m.selected()
	if !ok {
		return "", false
	}
	return model.UserKey(u), true
}

// restoreSelection moves the cursor back onto the user with key. When that
// user is gone the cursor stays near fallback.
func (m *screen) restoreSelection(key string, fallback int) {
	visible := m.list.VisibleItems()
	for i, it := range visible {
		if li, ok := it.(listItem); ok && snapshot.Item(li).Key() == key {
			m.list.Select(i)
			return
		}
	}
	if len(visible) == 0 {
		return
	}
	if fallback >= len(visible) {
		fallback = len(visible) - 1
	}
	if fallback < 0 {
		fallback = 0
	}
	m.list.Select(fallback)
}

func (m *screen) toggle(u model.User) tea.Cmd {
	if err := m.follows.ToggleFollowed(u); err != nil {
		logger.Log.Errorw("toggle follow", "user", u.ID, "error", err)
		m.err = "could not save: " + err.Error()
		return nil
	}
	m.err = ""
	if m.follows.Contains(model.UserKey(u)) {
		m.status = "Following " + u.Name
	} else {
		m.status = "Unfollowed " + u.Name
	}
	return m.reconcile()
}

func (m *screen) quit() tea.Cmd {
	m.dir.Close()
	return tea.Quit
}

func (m *screen) refreshTitle() {
	followed := 0
	for _, it := range m.rendered {
		if it.Followed {
			followed++
		}
	}
	title := fmt.Sprintf("%s   %s %d  %s %d",
		titleStyle.Render("Users"),
		followStyle.Render(starOn), followed,
		accentStyle.Render("Total"), len(m.rendered),
	)
	if m.dir.InFlight() {
		title += "  " + m.spinner.View()
	}
	m.list.Title = title
}

func (m screen) selected() (model.User, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return model.User{}, false
	}
	return it.User, true
}

func (m screen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case fetchedMsg:
		if m.dir.Apply(directory.Result(msg)) {
			return m, m.reconcile()
		}
		return m, nil

	case list.FilterMatchesMsg:
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		if m.reselect != "" {
			m.restoreSelection(m.reselect, 0)
			m.reselect = ""
		}
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refreshTitle()
		return m, cmd

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-4)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}
		if m.detail != nil {
			return m.updateDetail(msg)
		}
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, m.quit()
		case key.Matches(msg, m.keys.Refresh):
			m.status = ""
			return m, m.activate()
		case key.Matches(msg, m.keys.Follow):
			if u, ok := m.selected(); ok {
				return m, m.toggle(u)
			}
			return m, nil
		case key.Matches(msg, m.keys.Open):
			if u, ok := m.selected(); ok {
				m.detail = &u
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m screen) View() string {
	if m.detail != nil {
		return m.detailView()
	}
	content := m.list.View()
	switch {
	case m.err != "":
		content += "\n" + errorStyle.Render(m.err)
	case m.status != "":
		content += "\n" + mutedStyle.Render(m.status)
	}
	return panelStyle.Render(content)
}
