package tui

import (
	"context"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rcliao/ram-pet/internal/config"
	"github.com/rcliao/ram-pet/internal/game"
	"github.com/rcliao/ram-pet/internal/governor"
	"github.com/rcliao/ram-pet/internal/logging"
	"github.com/rcliao/ram-pet/internal/model"
	"github.com/rcliao/ram-pet/internal/monitor"
	"github.com/rcliao/ram-pet/internal/reservoir"
)

func newTestModel(t *testing.T) (Model, *reservoir.Reservoir) {
	t.Helper()
	quiet := logging.Discard()

	cfg := config.DefaultConfig()
	cfg.SavePath = filepath.Join(t.TempDir(), "pet.json")
	cfg.AutosaveInterval = 0

	host := monitor.NewFake(8*governor.GiB, 4*governor.GiB)
	res := reservoir.New(reservoir.NewSimulatedPager(host), cfg.Governor(), host, reservoir.WithLogger(quiet))
	t.Cleanup(func() { res.ReleaseAll() })

	g, err := game.New(context.Background(), cfg, res,
		game.WithLogger(quiet), game.WithRand(rand.New(rand.NewPCG(1, 1))))
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	return NewModel(context.Background(), g, 200*time.Millisecond), res
}

func press(t *testing.T, m Model, key string) (Model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch key {
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestSpaceFeeds(t *testing.T) {
	m, res := newTestModel(t)
	before := res.Size()

	m, cmd := press(t, m, " ")
	if isQuit(cmd) {
		t.Fatal("feeding should not quit")
	}
	if res.Size() != before+50*governor.MiB {
		t.Errorf("expected one meal, size %d -> %d", before, res.Size())
	}
	if m.snap.Stats.Feedings != 1 {
		t.Errorf("expected snapshot to show 1 feeding, got %d", m.snap.Stats.Feedings)
	}
}

func TestHelpToggle(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = press(t, m, "h")
	if !m.showHelp || !strings.Contains(m.View(), "toggle this help") {
		t.Error("expected help to show")
	}
	m, _ = press(t, m, "h")
	if m.showHelp {
		t.Error("expected help to hide")
	}
}

func TestEmergencyExitNeedsConfirmation(t *testing.T) {
	m, res := newTestModel(t)

	m, _ = press(t, m, "x")
	if !m.confirming || !strings.Contains(m.View(), "(y/N)") {
		t.Fatal("expected confirmation prompt")
	}
	m, cmd := press(t, m, "n")
	if m.confirming || isQuit(cmd) || res.Size() == 0 {
		t.Fatal("declining must keep the pet")
	}

	m, _ = press(t, m, "x")
	m, cmd = press(t, m, "y")
	if !isQuit(cmd) {
		t.Error("expected quit after emergency exit")
	}
	if res.Size() != 0 {
		t.Errorf("expected all memory released, got %d", res.Size())
	}
	if !m.snap.Terminated || !strings.Contains(m.View(), "x x") {
		t.Error("expected ghost after emergency exit")
	}
}

func TestQuitKeys(t *testing.T) {
	for _, key := range []string{"q", "esc"} {
		m, _ := newTestModel(t)
		_, cmd := press(t, m, key)
		if !isQuit(cmd) {
			t.Errorf("%q should quit", key)
		}
	}
}

func TestTickAdvancesHunger(t *testing.T) {
	m, _ := newTestModel(t)
	start := m.snap.Hunger

	next, cmd := m.Update(tickMsg(m.last.Add(2 * time.Second)))
	m = next.(Model)
	if cmd == nil {
		t.Error("expected next tick to be scheduled")
	}
	if m.snap.Hunger <= start {
		t.Errorf("expected hunger to rise from %f, got %f", start, m.snap.Hunger)
	}
}

func TestViewShowsStage(t *testing.T) {
	m, _ := newTestModel(t)
	view := m.View()
	if !strings.Contains(view, model.StageBaby.String()) {
		t.Errorf("expected stage in view:\n%s", view)
	}
	if !strings.Contains(view, "50 MiB") {
		t.Errorf("expected size in view:\n%s", view)
	}
}
