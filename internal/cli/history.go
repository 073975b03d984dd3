package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rcliao/ram-pet/internal/model"
	"github.com/rcliao/ram-pet/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent journal events",
		Long:  "Show the most recent feedings, saves and other events, newest first.",
		Run:   runHistory,
	}

	cmd.Flags().IntP("limit", "l", 20, "Max events to show")
	cmd.Flags().StringP("kind", "k", "", "Only show events of this kind")
	cmd.Flags().String("since", "", "Only show events newer than this age (e.g. 7d, 24h, 30m)")

	RootCmd.AddCommand(cmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	kind, _ := cmd.Flags().GetString("kind")
	since, _ := cmd.Flags().GetString("since")

	p := store.ListParams{Kind: model.EventKind(kind), Limit: limit}
	if kind != "" && !model.ValidEventKinds[p.Kind] {
		exitErr("history", fmt.Errorf("unknown event kind %q", kind))
	}
	if since != "" {
		age, err := store.ParseAge(since)
		if err != nil {
			exitErr("parse since", err)
		}
		p.Since = time.Now().Add(-age)
	}

	cfg := loadConfig(cmd)
	s := openJournal(cfg)
	defer s.Close()

	events, err := s.List(cmd.Context(), p)
	if err != nil {
		exitErr("history", err)
	}

	if formatFlag == "json" {
		if events == nil {
			events = []model.Event{}
		}
		printJSON(events)
		return
	}

	if len(events) == 0 {
		fmt.Println("No events yet.")
		return
	}
	for _, ev := range events {
		fmt.Println(describeEvent(ev))
	}
}

func describeEvent(ev model.Event) string {
	when := humanize.Time(ev.CreatedAt)
	var what string
	switch ev.Kind {
	case model.EventFeed, model.EventFavorite:
		what = fmt.Sprintf("ate %s", humanize.IBytes(ev.GrantedBytes))
		if ev.GrantedBytes < ev.RequestedBytes {
			what += fmt.Sprintf(" of %s requested", humanize.IBytes(ev.RequestedBytes))
		}
	case model.EventStarved:
		what = fmt.Sprintf("went hungry, %s refused", humanize.IBytes(ev.RequestedBytes))
	case model.EventStarvation:
		what = fmt.Sprintf("starved off %s", humanize.IBytes(ev.GrantedBytes))
	case model.EventHatch:
		what = fmt.Sprintf("hatched at %s", humanize.IBytes(ev.GrantedBytes))
	case model.EventLoad:
		what = fmt.Sprintf("loaded at %s", humanize.IBytes(ev.GrantedBytes))
	case model.EventEmergencyExit, model.EventShutdown:
		what = fmt.Sprintf("released %s", humanize.IBytes(ev.GrantedBytes))
	default:
		what = fmt.Sprintf("at %s", humanize.IBytes(ev.CommittedBytes))
	}
	line := fmt.Sprintf("%-14s %-9s %-15s %s, hunger %.0f", when, ev.Personality, ev.Kind, what, ev.Hunger)
	if ev.Note != "" {
		line += " (" + ev.Note + ")"
	}
	return line
}
