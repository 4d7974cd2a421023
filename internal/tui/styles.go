package tui

import (
	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/idilsaglam/habits/internal/model"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	followStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	accentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	mutedStyle    = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
	helpStyle     = lipgloss.NewStyle().Faint(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)

	starOn  = "★"
	starOff = "☆"
)

// neutral is used for users without a colour tag.
const neutral = lipgloss.Color("250")

// tint maps a user's HSB colour tag to a terminal colour.
func tint(c *model.Color) lipgloss.TerminalColor {
	if c == nil {
		return neutral
	}
	return lipgloss.Color(colorful.Hsv(c.Hue*360, c.Saturation, c.Brightness).Hex())
}

func swatch(c *model.Color, width int) string {
	s := make([]byte, width)
	for i := range s {
		s[i] = ' '
	}
	return lipgloss.NewStyle().Background(tint(c)).Render(string(s))
}

func star(followed bool) string {
	if followed {
		return followStyle.Render(starOn)
	}
	return mutedStyle.Render(starOff)
}
