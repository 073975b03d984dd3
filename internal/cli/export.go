package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/ram-pet/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the journal as JSON",
		Long:  "Export every journal event as a JSON array, oldest first. Filter by kind with -k.",
		Run:   runExport,
	}

	cmd.Flags().StringP("kind", "k", "", "Filter by event kind")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	kind, _ := cmd.Flags().GetString("kind")
	if kind != "" && !model.ValidEventKinds[model.EventKind(kind)] {
		exitErr("export", fmt.Errorf("unknown event kind %q", kind))
	}

	cfg := loadConfig(cmd)
	s := openJournal(cfg)
	defer s.Close()

	events, err := s.ExportAll(cmd.Context(), model.EventKind(kind))
	if err != nil {
		exitErr("export", err)
	}
	if events == nil {
		events = []model.Event{}
	}
	printJSON(events)
}
