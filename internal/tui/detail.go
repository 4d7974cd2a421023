package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func (m screen) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.detail = nil
		return m, nil
	case key.Matches(msg, m.keys.Follow):
		return m, m.toggle(*m.detail)
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit()
	}
	return m, nil
}

func (m screen) detailView() string {
	u := *m.detail
	followed := m.follows.Contains(u.ID)

	state := "Not followed"
	if followed {
		state = "Followed"
	}
	bio := u.Bio
	if strings.TrimSpace(bio) == "" {
		bio = mutedStyle.Render("(no bio)")
	}

	lines := []string{
		swatch(u.Color, 4) + " " + titleStyle.Render(u.Name),
		mutedStyle.Render(u.ID),
		"",
		star(followed) + " " + state,
		"",
		bio,
		"",
		helpStyle.Render("f follow/unfollow • esc back • q quit"),
	}
	if m.err != "" {
		lines = append(lines, errorStyle.Render(m.err))
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}
