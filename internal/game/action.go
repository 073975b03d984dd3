package game

import (
	"fmt"
	"strings"
)

// Action is a user command understood by the core.
type Action int

const (
	ActionFeed Action = iota
	ActionFeedFavorite
	ActionSave
	ActionLoad
	ActionHelp
	ActionQuit
	ActionEmergencyExit
)

var actionNames = map[Action]string{
	ActionFeed:          "feed",
	ActionFeedFavorite:  "favorite",
	ActionSave:          "save",
	ActionLoad:          "load",
	ActionHelp:          "help",
	ActionQuit:          "quit",
	ActionEmergencyExit: "emergency-exit",
}

func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// ParseAction resolves an action by name. Underscores and case are ignored.
func ParseAction(name string) (Action, error) {
	n := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	for a, s := range actionNames {
		if s == n {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", name)
}

// Level grades a notice for display.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
)

func (l Level) String() string {
	if l == LevelWarn {
		return "warn"
	}
	return "info"
}

// Notice is a message for the player.
type Notice struct {
	Level Level
	Text  string
}

func info(format string, args ...any) Notice {
	return Notice{Level: LevelInfo, Text: fmt.Sprintf(format, args...)}
}

func warn(format string, args ...any) Notice {
	return Notice{Level: LevelWarn, Text: fmt.Sprintf(format, args...)}
}
