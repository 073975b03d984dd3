// Package game is the single entry point the presentation layer talks to.
//
// Every action and tick goes through one mutex, so reservoir mutations are
// strictly ordered no matter which goroutine delivers them.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/rcliao/ram-pet/internal/config"
	"github.com/rcliao/ram-pet/internal/metrics"
	"github.com/rcliao/ram-pet/internal/model"
	"github.com/rcliao/ram-pet/internal/pet"
	"github.com/rcliao/ram-pet/internal/record"
	"github.com/rcliao/ram-pet/internal/reservoir"
	"github.com/rcliao/ram-pet/internal/store"
)

// Outcome is what an action produced.
type Outcome struct {
	Notice   Notice
	Feed     *model.FeedResult
	ShowHelp bool
	Quit     bool
	Snapshot model.Snapshot
}

// Report is the result of shutting down.
type Report struct {
	Released uint64
	// Clean is true when nothing is left committed.
	Clean bool
}

type Game struct {
	mu      sync.Mutex
	cfg     *config.Config
	res     *reservoir.Reservoir
	pet     *pet.Pet
	journal store.Store
	metrics *metrics.Metrics
	log     *slog.Logger
	now     func() time.Time
	rng     *rand.Rand

	startup       Notice
	showHelp      bool
	sinceSave     time.Duration
	starvePending uint64
	pressure      pressure
	// keepRecord blocks autosave after a corrupt record was found at start,
	// so the bad file survives for inspection until the player saves.
	keepRecord bool
	shutdown   bool
}

// pressure is how close the host is to the reserve floor.
type pressure int

const (
	pressureNone pressure = iota
	pressureLow
	pressureCritical
)

type Option func(*Game)

// WithJournal records every outcome in j. Journal errors are logged only.
func WithJournal(j store.Store) Option {
	return func(g *Game) { g.journal = j }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Game) { g.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Game) {
		if l != nil {
			g.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *Game) { g.now = now }
}

// WithRand fixes the source used to pick a new pet's personality.
func WithRand(r *rand.Rand) Option {
	return func(g *Game) { g.rng = r }
}

// New starts a game on res. A saved pet is restored when one exists;
// otherwise, or when the record is unreadable, a new pet hatches at the
// configured starting size.
func New(ctx context.Context, cfg *config.Config, res *reservoir.Reservoir, opts ...Option) (*Game, error) {
	if cfg == nil {
		return nil, errors.New("game: nil config")
	}
	g := &Game{
		cfg: cfg,
		res: res,
		log: slog.Default(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}

	rec, err := record.Read(cfg.SavePath)
	switch {
	case err == nil:
		p, report, rerr := record.Restore(rec, res, g.petOptions()...)
		if rerr != nil {
			return nil, rerr
		}
		g.pet = p
		g.startup = restoreNotice(report)
		g.logRestore("restored pet", report)
		g.record(ctx, model.EventLoad, report.Requested, report.Restored, "startup")

	case errors.Is(err, record.ErrNotFound):
		g.hatch(ctx)

	default:
		g.log.Warn("unreadable save record, hatching a new pet", "path", cfg.SavePath, "error", err)
		g.keepRecord = true
		g.hatch(ctx)
		g.startup = warn("Save file %s could not be read and was left untouched. A new pet hatched.", cfg.SavePath)
	}

	g.metrics.Observe(g.pet.Snapshot())
	return g, nil
}

func (g *Game) petOptions() []pet.Option {
	return []pet.Option{pet.WithParams(g.cfg.PetParams()), pet.WithLogger(g.log)}
}

func (g *Game) hatch(ctx context.Context) {
	personality := model.RandomPersonality(g.rng)
	g.pet = pet.New(personality, g.cfg.StartingHunger, g.res, g.petOptions()...)

	want := uint64(g.cfg.StartingSize)
	var got uint64
	if cur := g.res.Size(); cur < want {
		got, _ = g.res.Grow(want - cur)
	}

	g.startup = info("A %s hatched! It loves %s.", personality, personality.Traits().FoodName)
	if got < want {
		g.startup = warn("A %s hatched, but only %s of %s was free to hatch with.",
			personality, humanize.IBytes(got), humanize.IBytes(want))
	}
	g.log.Info("hatched", "personality", personality.ID(), "requested", want, "granted", got)
	g.record(ctx, model.EventHatch, want, got, "")
}

// StartupNotice describes how the pet came to be.
func (g *Game) StartupNotice() Notice {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.startup
}

// Apply runs one action. Errors are never fatal; the outcome always carries
// a notice for the player. After an emergency exit every action, Quit
// included, returns pet.ErrTerminated.
func (g *Game) Apply(ctx context.Context, a Action) (Outcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pet.Terminated() {
		return Outcome{
			Notice:   warn("The pet is gone. Nothing left to do."),
			Snapshot: g.pet.Snapshot(),
		}, pet.ErrTerminated
	}

	var (
		out Outcome
		err error
	)
	switch a {
	case ActionFeed:
		out, err = g.feed(ctx, false)
	case ActionFeedFavorite:
		out, err = g.feed(ctx, true)
	case ActionSave:
		out.Notice, err = g.save(ctx, "")
	case ActionLoad:
		out.Notice, err = g.load(ctx)
	case ActionHelp:
		g.showHelp = !g.showHelp
	case ActionQuit:
		out.Quit = true
		out.Notice = info("Goodbye!")
	case ActionEmergencyExit:
		out.Quit = true
		out.Notice, err = g.emergencyExit(ctx)
	default:
		return Outcome{Snapshot: g.pet.Snapshot()}, fmt.Errorf("unknown action %d", int(a))
	}

	out.ShowHelp = g.showHelp
	out.Snapshot = g.pet.Snapshot()
	g.metrics.Observe(out.Snapshot)
	return out, err
}

func (g *Game) feed(ctx context.Context, favorite bool) (Outcome, error) {
	var (
		r   model.FeedResult
		err error
	)
	kind := model.EventFeed
	if favorite {
		kind = model.EventFavorite
		r, err = g.pet.FeedFavorite()
	} else {
		r, err = g.pet.Feed(uint64(g.cfg.MealSize))
	}
	g.metrics.RecordFeed(r, err)

	out := Outcome{Feed: &r}
	personality := g.pet.Personality()
	switch {
	case r.Starved:
		out.Notice = warn("Not enough free memory to feed your %s. It stays hungry.", personality)
		g.record(ctx, model.EventStarved, r.RequestedBytes, 0, "no headroom")
		// Headroom shortfalls are expected; the notice is the report.
		return out, err
	case r.GrantedBytes == 0:
		out.Notice = warn("Feeding failed: %v", err)
		return out, err
	case r.Partial():
		out.Notice = warn("Memory is tight: your %s only got %s of a %s.",
			personality, humanize.IBytes(r.GrantedBytes), r.Meal)
		g.record(ctx, kind, r.RequestedBytes, r.GrantedBytes, "clamped")
	default:
		out.Notice = info("%s: %s (%s). %s",
			personality, r.Meal, humanize.IBytes(r.GrantedBytes), personality.Reaction(g.pet.Mood()))
		g.record(ctx, kind, r.RequestedBytes, r.GrantedBytes, r.Meal)
	}
	return out, err
}

func (g *Game) save(ctx context.Context, note string) (Notice, error) {
	g.flushStarvation(ctx)
	rec := record.Capture(g.pet, g.now())
	err := record.Write(g.cfg.SavePath, rec)
	g.metrics.RecordSave(err)
	if err != nil {
		g.log.Error("save failed", "path", g.cfg.SavePath, "error", err)
		return warn("Save failed: %v", err), err
	}

	g.sinceSave = 0
	g.keepRecord = false
	g.log.Info("saved", "path", g.cfg.SavePath, "committed", rec.CommittedBytes, "hunger", rec.Hunger)
	g.record(ctx, model.EventSave, 0, 0, note)
	return info("Saved %s at %s.", rec.PersonalityID, humanize.IBytes(rec.CommittedBytes)), nil
}

func (g *Game) load(ctx context.Context) (Notice, error) {
	rec, err := record.Read(g.cfg.SavePath)
	switch {
	case errors.Is(err, record.ErrNotFound):
		return warn("No saved pet at %s.", g.cfg.SavePath), err
	case err != nil:
		g.log.Warn("load failed", "path", g.cfg.SavePath, "error", err)
		return warn("Save file could not be read; keeping the current pet."), err
	}

	g.flushStarvation(ctx)
	p, report, err := record.Restore(rec, g.res, g.petOptions()...)
	if err != nil {
		return warn("Load failed: %v", err), err
	}
	g.pet = p
	g.logRestore("loaded pet", report)
	g.record(ctx, model.EventLoad, report.Requested, report.Restored, "")
	return restoreNotice(report), nil
}

func (g *Game) logRestore(msg string, r record.Report) {
	if r.GrowErr != nil {
		g.log.Warn(msg, "personality", r.Personality, "requested", r.Requested, "restored", r.Restored, "error", r.GrowErr)
		return
	}
	g.log.Info(msg, "personality", r.Personality, "requested", r.Requested, "restored", r.Restored)
}

func restoreNotice(r record.Report) Notice {
	if r.Clamped() || r.GrowErr != nil {
		return warn("%s", r.Notice())
	}
	return info("%s", r.Notice())
}

func (g *Game) emergencyExit(ctx context.Context) (Notice, error) {
	g.flushStarvation(ctx)
	before := g.res.Size()
	err := g.pet.EmergencyExit()
	g.record(ctx, model.EventEmergencyExit, 0, before, "")
	if err != nil {
		return warn("Emergency exit: %v", err), err
	}
	return warn("Emergency exit: released %s. Your pet is gone.", humanize.IBytes(before)), nil
}

// Tick advances the simulation by elapsed and autosaves when due. The
// notice is non-empty when host memory just got tighter.
func (g *Game) Tick(ctx context.Context, elapsed time.Duration) (Notice, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	lost, err := g.pet.Tick(elapsed)
	if err != nil {
		return Notice{}, err
	}
	if lost > 0 {
		g.starvePending += lost
		g.metrics.RecordStarvation(lost)
	}

	note := g.checkMemory()

	var saveErr error
	if g.cfg.AutosaveInterval > 0 {
		g.sinceSave += elapsed
		if g.sinceSave >= g.cfg.AutosaveInterval {
			g.sinceSave = 0
			if g.keepRecord {
				g.log.Debug("autosave skipped to preserve unreadable record", "path", g.cfg.SavePath)
			} else {
				_, saveErr = g.save(ctx, "autosave")
			}
		}
	}

	g.metrics.Observe(g.pet.Snapshot())
	return note, saveErr
}

// checkMemory warns once each time host memory crosses into the warning
// margin or below the reserve floor. Recovering re-arms the warning.
func (g *Game) checkMemory() Notice {
	gov := g.res.Governor()
	free, err := g.res.Free()

	level := pressureNone
	switch {
	case err != nil:
		level = pressureLow
	case free <= gov.ReserveFloor:
		level = pressureCritical
	case gov.IsLowMemory(free):
		level = pressureLow
	}

	prev := g.pressure
	g.pressure = level
	if level <= prev {
		return Notice{}
	}

	if level == pressureCritical {
		g.log.Warn("host memory below reserve floor", "free", free, "floor", gov.ReserveFloor)
		return warn("CRITICAL: only %s free, below the %s reserve. Your pet cannot eat; consider quitting.",
			humanize.IBytes(free), humanize.IBytes(gov.ReserveFloor))
	}
	if err != nil {
		g.log.Warn("free memory unreadable", "error", err)
		return warn("Free memory cannot be read. Feeding is paused for safety.")
	}
	g.log.Warn("host memory low", "free", free, "floor", gov.ReserveFloor)
	return warn("Memory is getting low: %s free. Your pet is getting nervous.", humanize.IBytes(free))
}

// Snapshot is the read-only view for rendering.
func (g *Game) Snapshot() model.Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pet.Snapshot()
}

// Shutdown releases all memory. It is safe to call more than once.
func (g *Game) Shutdown(ctx context.Context) (Report, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.flushStarvation(ctx)
	released := g.res.Size()
	err := g.res.ReleaseAll()
	report := Report{Released: released, Clean: g.res.Size() == 0}

	if !g.shutdown {
		g.shutdown = true
		g.log.Info("shutdown", "released", released, "clean", report.Clean)
		g.record(ctx, model.EventShutdown, 0, released, "")
	}
	g.metrics.Observe(g.pet.Snapshot())
	return report, err
}

// flushStarvation journals accumulated starvation as one event.
func (g *Game) flushStarvation(ctx context.Context) {
	if g.starvePending == 0 {
		return
	}
	lost := g.starvePending
	g.starvePending = 0
	g.record(ctx, model.EventStarvation, 0, lost, "")
}

func (g *Game) record(ctx context.Context, kind model.EventKind, requested, granted uint64, note string) {
	if g.journal == nil {
		return
	}
	_, err := g.journal.Append(ctx, store.AppendParams{
		Kind:           kind,
		Personality:    g.pet.Personality().ID(),
		RequestedBytes: requested,
		GrantedBytes:   granted,
		Hunger:         g.pet.Hunger(),
		CommittedBytes: g.res.Size(),
		Note:           note,
	})
	if err != nil {
		g.log.Warn("journal append failed", "kind", kind, "error", err)
	}
}
