// Package cli implements the ram-pet CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/ram-pet/internal/config"
	"github.com/rcliao/ram-pet/internal/logging"
	"github.com/rcliao/ram-pet/internal/store"
)

var (
	configFile string
	formatFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "ram-pet",
	Short: "A virtual pet that eats real RAM",
	Long: "A terminal virtual pet whose body is real, committed memory. Feed it and it grows;\n" +
		"neglect it and it shrinks. A reserve of free memory is always left for the system.",
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default: ./ram-pet.yaml or ~/.ram-pet/config.yaml)")
	RootCmd.PersistentFlags().String("save", "", "Save record path (default: ~/.ram-pet/pet.json)")
	RootCmd.PersistentFlags().String("journal", "", "Journal database path (default: ~/.ram-pet/journal.db)")
	RootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "text", "Output format: json or text")
}

// loadConfig resolves config for cmd, honoring any flags it was given.
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		exitErr("load config", err)
	}
	return cfg
}

// stderrLogger is used by every command except play.
func stderrLogger(cfg *config.Config) *slog.Logger {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		exitErr("log level", err)
	}
	return logging.New(os.Stderr, level)
}

func openJournal(cfg *config.Config) *store.SQLiteStore {
	s, err := store.NewSQLiteStore(cfg.JournalPath)
	if err != nil {
		exitErr("open journal", err)
	}
	return s
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
