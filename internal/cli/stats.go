package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show lifetime statistics from the journal",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	cfg := loadConfig(cmd)
	s := openJournal(cfg)
	defer s.Close()

	stats, err := s.Stats(cmd.Context(), cfg.JournalPath)
	if err != nil {
		exitErr("stats", err)
	}

	if formatFlag == "json" {
		printJSON(stats)
		return
	}

	fmt.Printf("Journal:          %s (%s)\n", stats.DBPath, humanize.IBytes(uint64(stats.DBSizeBytes)))
	fmt.Printf("Events:           %d\n", stats.TotalEvents)
	fmt.Printf("Meals:            %d, %s eaten\n", stats.Feedings, humanize.IBytes(stats.BytesEaten))
	fmt.Printf("Peak size:        %s\n", humanize.IBytes(stats.PeakBytes))
	fmt.Printf("Starved off:      %s\n", humanize.IBytes(stats.BytesStarved))
	fmt.Printf("Saves / loads:    %d / %d\n", stats.Saves, stats.Loads)
	fmt.Printf("Emergency exits:  %d\n", stats.EmergencyExits)
	for _, k := range stats.Kinds {
		fmt.Printf("  %-15s %d\n", k.Kind, k.Count)
	}
}
