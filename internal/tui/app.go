// Package tui is the interactive terminal front end. It only renders
// snapshots and forwards keys to the game.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/rcliao/ram-pet/internal/game"
	"github.com/rcliao/ram-pet/internal/model"
	"github.com/rcliao/ram-pet/internal/pet"
)

type tickMsg time.Time

var keyActions = map[string]game.Action{
	" ":      game.ActionFeed,
	"f":      game.ActionFeedFavorite,
	"s":      game.ActionSave,
	"l":      game.ActionLoad,
	"h":      game.ActionHelp,
	"?":      game.ActionHelp,
	"q":      game.ActionQuit,
	"esc":    game.ActionQuit,
	"ctrl+c": game.ActionQuit,
}

type Model struct {
	ctx    context.Context
	game   *game.Game
	period time.Duration
	last   time.Time

	snap       model.Snapshot
	notice     game.Notice
	showHelp   bool
	confirming bool
	quitting   bool

	hunger progress.Model
	width  int
}

func NewModel(ctx context.Context, g *game.Game, period time.Duration) Model {
	bar := progress.New(progress.WithGradient("#00FF41", "#FF0000"), progress.WithWidth(30))
	return Model{
		ctx:    ctx,
		game:   g,
		period: period,
		last:   time.Now(),
		snap:   g.Snapshot(),
		notice: g.StartupNotice(),
		hunger: bar,
	}
}

func tick(period time.Duration) tea.Cmd {
	return tea.Tick(period, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick(m.period)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.hunger.Width = max(10, min(40, msg.Width-24))
		return m, nil

	case tickMsg:
		now := time.Time(msg)
		elapsed := now.Sub(m.last)
		m.last = now
		note, err := m.game.Tick(m.ctx, elapsed)
		if note.Text != "" {
			m.notice = note
		}
		if err != nil && !errors.Is(err, pet.ErrTerminated) {
			m.notice = game.Notice{Level: game.LevelWarn, Text: err.Error()}
		}
		m.snap = m.game.Snapshot()
		if m.quitting {
			return m, nil
		}
		return m, tick(m.period)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.confirming {
		m.confirming = false
		if key == "y" || key == "Y" {
			return m.apply(game.ActionEmergencyExit)
		}
		m.notice = game.Notice{Level: game.LevelInfo, Text: "Emergency exit cancelled."}
		return m, nil
	}

	if key == "x" {
		m.confirming = true
		return m, nil
	}

	a, ok := keyActions[key]
	if !ok {
		return m, nil
	}
	return m.apply(a)
}

func (m Model) apply(a game.Action) (tea.Model, tea.Cmd) {
	out, err := m.game.Apply(m.ctx, a)
	m.snap = out.Snapshot
	m.notice = out.Notice
	m.showHelp = out.ShowHelp

	if out.Quit || (a == game.ActionQuit && errors.Is(err, pet.ErrTerminated)) {
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	title := TitleStyle.Render("RAM PET")
	b.WriteString(title + "  " + HintStyle.Render(m.snap.Personality.ID()) + "\n")

	art := lipgloss.NewStyle().Foreground(MoodColor(m.snap.Mood)).Render(strings.TrimPrefix(Art(m.snap), "\n"))

	rows := []string{
		row("Stage", fmt.Sprintf("%s  %s", m.snap.Stage, HintStyle.Render(m.snap.Stage.Description()))),
		row("Mood", lipgloss.NewStyle().Foreground(MoodColor(m.snap.Mood)).Render(m.snap.Mood.String())),
		row("Hunger", m.hunger.ViewAs(m.snap.Hunger/model.MaxHunger)),
		row("Size", humanize.IBytes(m.snap.CommittedBytes)),
		row("Free", freeLine(m.snap)),
		row("Eaten", fmt.Sprintf("%s in %d meals, peak %s",
			humanize.IBytes(m.snap.Stats.BytesEaten), m.snap.Stats.Feedings, humanize.IBytes(m.snap.Stats.PeakBytes))),
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, art, "    ", strings.Join(rows, "\n"))
	b.WriteString(FrameStyle.Render(body) + "\n")

	if m.notice.Text != "" {
		style := InfoStyle
		if m.notice.Level == game.LevelWarn {
			style = WarnStyle
		}
		b.WriteString(style.Render(m.notice.Text) + "\n")
	}

	switch {
	case m.confirming:
		b.WriteString(ConfirmStyle.Render("Release ALL memory and end this pet forever? (y/N)") + "\n")
	case m.showHelp:
		b.WriteString(helpText() + "\n")
	default:
		b.WriteString(HintStyle.Render("space feed  f favorite  s save  l load  h help  x emergency exit  q quit") + "\n")
	}
	return b.String()
}

func row(label, value string) string {
	return LabelStyle.Render(label) + ValueStyle.Render(value)
}

func freeLine(s model.Snapshot) string {
	line := humanize.IBytes(s.FreeBytes)
	if s.LowMemory {
		line += " " + WarnStyle.Render("LOW")
	}
	return line
}

func helpText() string {
	lines := []string{
		"space  feed a regular meal",
		"f      feed the favorite meal",
		"s      save the pet",
		"l      load the saved pet",
		"h / ?  toggle this help",
		"x      emergency exit: release all memory (asks first)",
		"q/esc  quit, releasing memory",
		"",
		"The pet grows by really holding memory. A safety floor of free",
		"memory is always kept for the rest of the system.",
	}
	return HintStyle.Render(strings.Join(lines, "\n"))
}

// Run drives the interactive loop until the player quits or ctx ends.
func Run(ctx context.Context, g *game.Game, period time.Duration) error {
	p := tea.NewProgram(NewModel(ctx, g, period), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
