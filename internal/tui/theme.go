package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/rcliao/ram-pet/internal/model"
)

var (
	Green     = lipgloss.Color("#00FF41")
	Blue      = lipgloss.Color("#0080FF")
	Orange    = lipgloss.Color("#FFA500")
	Red       = lipgloss.Color("#FF0000")
	Gray      = lipgloss.Color("#404040")
	LightGray = lipgloss.Color("#aaaaaa")
	White     = lipgloss.Color("#e0e0e0")
	Amber     = lipgloss.Color("#FFB000")

	TitleStyle = lipgloss.NewStyle().
			Foreground(Green).
			Bold(true)

	FrameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Gray).
			Padding(0, 2)

	LabelStyle = lipgloss.NewStyle().
			Foreground(LightGray).
			Width(10)

	ValueStyle = lipgloss.NewStyle().
			Foreground(White)

	InfoStyle = lipgloss.NewStyle().
			Foreground(Green)

	WarnStyle = lipgloss.NewStyle().
			Foreground(Amber).
			Bold(true)

	HintStyle = lipgloss.NewStyle().
			Foreground(LightGray).
			Italic(true)

	ConfirmStyle = lipgloss.NewStyle().
			Foreground(Red).
			Bold(true)
)

// MoodColor colors the pet by how it feels.
func MoodColor(m model.Mood) lipgloss.Color {
	switch m {
	case model.MoodHappy:
		return Green
	case model.MoodContent:
		return Blue
	case model.MoodUnhappy:
		return Orange
	default:
		return Red
	}
}
