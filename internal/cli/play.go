package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/rcliao/ram-pet/internal/config"
	"github.com/rcliao/ram-pet/internal/game"
	"github.com/rcliao/ram-pet/internal/logging"
	"github.com/rcliao/ram-pet/internal/metrics"
	"github.com/rcliao/ram-pet/internal/monitor"
	"github.com/rcliao/ram-pet/internal/reservoir"
	"github.com/rcliao/ram-pet/internal/store"
	"github.com/rcliao/ram-pet/internal/tui"
)

func init() {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play with your pet",
		Long: "Start the interactive loop. The pet really allocates the memory it eats and\n" +
			"releases all of it when you quit. Use --simulate to play against a fake host.",
		Run: runPlay,
	}

	cmd.Flags().Bool("simulate", false, "Use a simulated host instead of real memory")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	RootCmd.AddCommand(cmd)
}

func runPlay(cmd *cobra.Command, args []string) {
	cfg := loadConfig(cmd)

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		exitErr("log level", err)
	}
	log, closer, err := logging.OpenFile(filepath.Join(config.Dir(), "ram-pet.log"), level)
	if err != nil {
		exitErr("open log", err)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res := newReservoir(cfg, log)
	defer res.ReleaseAll()

	journal, err := openJournalQuiet(cfg, log)
	if err == nil {
		defer journal.Close()
	}

	opts := []game.Option{game.WithLogger(log)}
	if journal != nil {
		opts = append(opts, game.WithJournal(journal))
	}

	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		opts = append(opts, game.WithMetrics(metrics.New(reg)))
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, reg, log); err != nil {
				log.Error("metrics server", "error", err)
			}
		}()
	}

	g, err := game.New(ctx, cfg, res, opts...)
	if err != nil {
		exitErr("start game", err)
	}

	runErr := tui.Run(ctx, g, cfg.TickPeriod)

	// A fresh context so shutdown journaling survives a cancelled ctx.
	report, shutErr := g.Shutdown(context.WithoutCancel(ctx))
	if !report.Clean || shutErr != nil {
		fmt.Fprintf(os.Stderr, "warning: released %s but memory may still be held: %v\n",
			humanize.IBytes(report.Released), shutErr)
	} else {
		fmt.Printf("Released %s. Bye!\n", humanize.IBytes(report.Released))
	}

	if runErr != nil {
		exitErr("play", runErr)
	}
}

// newReservoir backs the pet with real pages, or with a fake host when
// simulating.
func newReservoir(cfg *config.Config, log *slog.Logger) *reservoir.Reservoir {
	if cfg.Simulate {
		host := monitor.NewFake(uint64(cfg.SimulatedTotal), uint64(cfg.SimulatedFree))
		log.Info("simulating host", "total", uint64(cfg.SimulatedTotal), "free", uint64(cfg.SimulatedFree))
		return reservoir.New(reservoir.NewSimulatedPager(host), cfg.Governor(), host, reservoir.WithLogger(log))
	}
	return reservoir.New(reservoir.NewPhysicalPager(), cfg.Governor(), monitor.Host{}, reservoir.WithLogger(log))
}

// openJournalQuiet opens the journal for play. A broken journal must not
// stop the game, so failures are only logged.
func openJournalQuiet(cfg *config.Config, log *slog.Logger) (*store.SQLiteStore, error) {
	j, err := store.NewSQLiteStore(cfg.JournalPath)
	if err != nil {
		log.Warn("journal unavailable, playing without history", "path", cfg.JournalPath, "error", err)
		return nil, err
	}
	return j, nil
}
