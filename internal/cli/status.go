package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rcliao/ram-pet/internal/model"
	"github.com/rcliao/ram-pet/internal/monitor"
	"github.com/rcliao/ram-pet/internal/record"
)

func init() {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the saved pet and host memory",
		Long:  "Show the saved pet as it was when last saved, plus current host memory. Allocates nothing.",
		Run:   runStatus,
	}

	RootCmd.AddCommand(cmd)
}

type statusView struct {
	Saved       bool        `json:"saved"`
	SavePath    string      `json:"save_path"`
	Personality string      `json:"personality,omitempty"`
	Stage       model.Stage `json:"stage"`
	Mood        model.Mood  `json:"mood"`
	Hunger      float64     `json:"hunger"`
	Committed   uint64      `json:"committed_bytes"`
	SavedAt     *time.Time  `json:"saved_at,omitempty"`
	TotalBytes  uint64      `json:"total_bytes"`
	FreeBytes   uint64      `json:"free_bytes"`
	Headroom    uint64      `json:"headroom_bytes"`
	LowMemory   bool        `json:"low_memory"`
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := loadConfig(cmd)
	log := stderrLogger(cfg)
	gov := cfg.Governor()

	var host monitor.Host
	total, err := host.TotalBytes()
	if err != nil {
		exitErr("read host memory", err)
	}
	free, err := host.FreeBytes()
	if err != nil {
		exitErr("read host memory", err)
	}

	v := statusView{
		SavePath:   cfg.SavePath,
		TotalBytes: total,
		FreeBytes:  free,
		Headroom:   gov.Headroom(free),
		LowMemory:  gov.IsLowMemory(free),
	}

	rec, err := record.Read(cfg.SavePath)
	switch {
	case err == nil:
		v.Saved = true
		v.Personality = rec.PersonalityID
		v.Hunger = rec.Hunger
		v.Committed = rec.CommittedBytes
		v.Stage = model.StageFor(rec.CommittedBytes)
		v.Mood = model.MoodFor(rec.Hunger, v.LowMemory)
		v.SavedAt = &rec.SavedAt
	case errors.Is(err, record.ErrNotFound):
		log.Debug("no save record", "path", cfg.SavePath)
	default:
		exitErr("read save", err)
	}

	if formatFlag == "json" {
		printJSON(v)
		return
	}

	if v.Saved {
		fmt.Printf("Pet:     %s, %s, %s\n", v.Personality, v.Stage, v.Mood)
		fmt.Printf("Hunger:  %.0f/%d\n", v.Hunger, int(model.MaxHunger))
		fmt.Printf("Size:    %s\n", humanize.IBytes(v.Committed))
		fmt.Printf("Saved:   %s (%s)\n", humanize.Time(rec.SavedAt), cfg.SavePath)
	} else {
		fmt.Printf("No saved pet at %s. Run `ram-pet play` to hatch one.\n", cfg.SavePath)
	}
	low := ""
	if v.LowMemory {
		low = "  LOW"
	}
	fmt.Printf("Host:    %s free of %s, %s available to eat%s\n",
		humanize.IBytes(v.FreeBytes), humanize.IBytes(v.TotalBytes), humanize.IBytes(v.Headroom), low)
}
