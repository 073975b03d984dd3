// Package pet is the pet state machine. Hunger and personality live here;
// size lives in the reservoir, and stage and mood are recomputed from both
// on every query.
package pet

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rcliao/ram-pet/internal/model"
	"github.com/rcliao/ram-pet/internal/reservoir"
)

// ErrTerminated is returned by every mutation after an emergency exit.
var ErrTerminated = errors.New("pet terminated by emergency exit")

// Params are the tunable rates of the state machine.
type Params struct {
	// MetabolismRate is hunger points gained per second before the
	// personality's decay multiplier.
	MetabolismRate float64
	// ReliefPerMiB is hunger points removed per MiB of a fully granted meal.
	ReliefPerMiB float64
	// StarvationBytesPerPoint is how much the pet shrinks per hunger point
	// past the maximum.
	StarvationBytesPerPoint uint64
	// DistressedGrowthFactor scales feeding requests while distressed.
	DistressedGrowthFactor float64
}

func DefaultParams() Params {
	return Params{
		MetabolismRate:          1.0,
		ReliefPerMiB:            1.0,
		StarvationBytesPerPoint: model.MiB,
		DistressedGrowthFactor:  0.5,
	}
}

// Pet is safe for concurrent use, though the game drives it from one loop.
type Pet struct {
	mu          sync.Mutex
	personality model.Personality
	hunger      float64
	res         *reservoir.Reservoir
	params      Params
	terminated  bool
	stats       model.Stats
	log         *slog.Logger
}

// Option configures a Pet.
type Option func(*Pet)

func WithLogger(l *slog.Logger) Option {
	return func(p *Pet) {
		if l != nil {
			p.log = l
		}
	}
}

func WithParams(params Params) Option {
	return func(p *Pet) { p.params = params }
}

// New binds a pet to a reservoir. It does not grow the reservoir; the
// caller decides the starting size.
func New(personality model.Personality, hunger float64, res *reservoir.Reservoir, opts ...Option) *Pet {
	p := &Pet{
		personality: personality,
		hunger:      clampHunger(hunger),
		res:         res,
		params:      DefaultParams(),
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.stats.PeakBytes = res.Size()
	return p
}

// Tick advances metabolism by elapsed. Hunger that would pass the maximum
// is converted into starvation shrink. It returns the bytes lost.
func (p *Pet) Tick(elapsed time.Duration) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.terminated {
		return 0, ErrTerminated
	}
	if elapsed <= 0 {
		return 0, nil
	}

	rise := p.params.MetabolismRate * p.personality.Traits().DecayMultiplier * elapsed.Seconds()
	next := p.hunger + rise
	if next <= model.MaxHunger {
		p.hunger = next
		return 0, nil
	}

	overflow := next - model.MaxHunger
	p.hunger = model.MaxHunger
	lost := p.res.Shrink(uint64(overflow * float64(p.params.StarvationBytesPerPoint)))
	if lost > 0 {
		p.stats.BytesStarvedOff += lost
		p.log.Info("starvation shrink", "released", lost, "committed", p.res.Size())
	}
	return lost, nil
}

// Feed asks the reservoir for amount bytes. Hunger relief is proportional to
// what was granted. With no headroom at all hunger is unchanged and the
// result is marked starved.
func (p *Pet) Feed(amount uint64) (model.FeedResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.feed(amount, 1.0, false)
}

// FeedFavorite serves the personality's favorite meal at its relief
// efficiency.
func (p *Pet) FeedFavorite() (model.FeedResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t := p.personality.Traits()
	return p.feed(t.FavoriteBytes, t.Efficiency, true)
}

func (p *Pet) feed(amount uint64, efficiency float64, favorite bool) (model.FeedResult, error) {
	res := model.FeedResult{Meal: model.MealName(amount), Favorite: favorite}
	if p.terminated {
		return res, ErrTerminated
	}
	if amount == 0 {
		return res, nil
	}

	request := amount
	if p.moodLocked() == model.MoodDistressed {
		request = max(1, uint64(float64(amount)*p.params.DistressedGrowthFactor))
	}
	res.RequestedBytes = request

	granted, err := p.res.Grow(request)
	res.GrantedBytes = granted
	if granted == 0 {
		if errors.Is(err, reservoir.ErrInsufficientHeadroom) {
			res.Starved = true
			p.log.Warn("feeding refused", "requested", request, "hunger", p.hunger)
		}
		return res, err
	}

	full := float64(amount) / model.MiB * p.params.ReliefPerMiB * efficiency
	// Relief follows bytes granted against the meal, so a scaled-down
	// request also relieves less.
	res.HungerRelief = full * float64(granted) / float64(amount)
	p.hunger = clampHunger(p.hunger - res.HungerRelief)

	p.stats.Feedings++
	p.stats.BytesEaten += granted
	p.stats.PeakBytes = max(p.stats.PeakBytes, p.res.Size())

	p.log.Info("fed",
		"meal", res.Meal, "requested", request, "granted", granted,
		"relief", res.HungerRelief, "hunger", p.hunger, "committed", p.res.Size())

	// A partial physical commit still fed the pet what it got.
	return res, err
}

// EmergencyExit releases the whole reservoir and terminates the pet. The
// pet is terminated even if the release reports an error.
func (p *Pet) EmergencyExit() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.terminated {
		return ErrTerminated
	}
	p.terminated = true
	if err := p.res.ReleaseAll(); err != nil {
		return fmt.Errorf("emergency exit: %w", err)
	}
	p.log.Warn("emergency exit", "committed", p.res.Size())
	return nil
}

func (p *Pet) Personality() model.Personality {
	return p.personality
}

func (p *Pet) Hunger() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hunger
}

// CommittedBytes reads the size straight from the reservoir.
func (p *Pet) CommittedBytes() uint64 {
	return p.res.Size()
}

func (p *Pet) Stage() model.Stage {
	return model.StageFor(p.res.Size())
}

func (p *Pet) Mood() model.Mood {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.moodLocked()
}

func (p *Pet) moodLocked() model.Mood {
	return model.MoodFor(p.hunger, p.res.LowMemory())
}

func (p *Pet) Terminated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminated
}

func (p *Pet) Stats() model.Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Snapshot assembles the read-only view. Stage and mood are derived here,
// never stored.
func (p *Pet) Snapshot() model.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	size := p.res.Size()
	free, err := p.res.Free()
	low := err != nil || p.res.Governor().IsLowMemory(free)
	return model.Snapshot{
		Stage:          model.StageFor(size),
		Mood:           model.MoodFor(p.hunger, low),
		Hunger:         p.hunger,
		CommittedBytes: size,
		Personality:    p.personality,
		Terminated:     p.terminated,
		FreeBytes:      free,
		LowMemory:      low,
		Stats:          p.stats,
	}
}

func clampHunger(h float64) float64 {
	return min(max(h, 0), model.MaxHunger)
}
