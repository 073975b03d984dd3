// Package reservoir holds the block of committed memory that is the pet's body.
//
// Every grow is checked by the safety governor against a fresh reading of
// host free memory. The read and the grant happen under one lock, so two
// grows can never act on the same reading.
package reservoir

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rcliao/ram-pet/internal/governor"
	"github.com/rcliao/ram-pet/internal/monitor"
)

// ErrInsufficientHeadroom is returned when free memory is already at or
// below the reserve floor and nothing can be granted.
var ErrInsufficientHeadroom = errors.New("insufficient memory headroom")

// Reservoir owns the committed size. Nothing else mutates it.
type Reservoir struct {
	mu        sync.Mutex
	pager     Pager
	gov       governor.Governor
	mon       monitor.Monitor
	committed uint64
	log       *slog.Logger
}

// Option configures a Reservoir.
type Option func(*Reservoir)

// WithLogger sets the logger used for grant decisions.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reservoir) {
		if l != nil {
			r.log = l
		}
	}
}

// New creates an empty reservoir.
func New(p Pager, g governor.Governor, m monitor.Monitor, opts ...Option) *Reservoir {
	r := &Reservoir{
		pager: p,
		gov:   g,
		mon:   m,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Grow asks for delta more bytes and returns what was granted. A request
// larger than the headroom is clamped, not refused. Zero headroom returns
// ErrInsufficientHeadroom.
func (r *Reservoir) Grow(delta uint64) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if delta == 0 {
		return 0, nil
	}

	free, err := r.mon.FreeBytes()
	if err != nil {
		return 0, fmt.Errorf("grow: %w", err)
	}

	grant := r.gov.MaxGrant(delta, r.committed, free)
	if grant == 0 {
		r.log.Warn("grow denied",
			"requested", delta, "free", free, "floor", r.gov.ReserveFloor, "committed", r.committed)
		return 0, ErrInsufficientHeadroom
	}

	got, err := r.pager.Commit(grant)
	r.committed += got
	if err != nil {
		r.log.Error("commit failed", "requested", grant, "committed_now", got, "error", err)
		return got, fmt.Errorf("commit %d bytes: %w", grant, err)
	}

	if grant < delta {
		r.log.Info("grow clamped",
			"requested", delta, "granted", grant, "free", free, "committed", r.committed)
	} else {
		r.log.Debug("grow", "granted", grant, "committed", r.committed)
	}
	return got, nil
}

// Shrink releases up to delta bytes and returns how many were released.
// It never consults the governor: giving memory back is always safe.
func (r *Reservoir) Shrink(delta uint64) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shrinkLocked(delta)
}

func (r *Reservoir) shrinkLocked(delta uint64) uint64 {
	delta = min(delta, r.committed)
	if delta == 0 {
		return 0
	}
	released, err := r.pager.Decommit(delta)
	if err != nil {
		// The bytes are gone from the pet either way; the pager only failed
		// to hand pages back to the OS.
		r.log.Warn("decommit incomplete", "requested", delta, "released", released, "error", err)
	}
	r.committed -= delta
	r.log.Debug("shrink", "released", delta, "committed", r.committed)
	return delta
}

// ReleaseAll empties the reservoir. Calling it again is a no-op.
func (r *Reservoir) ReleaseAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.committed == 0 {
		return nil
	}
	released := r.committed
	r.committed = 0
	if err := r.pager.Release(); err != nil {
		return fmt.Errorf("release %d bytes: %w", released, err)
	}
	r.log.Info("released reservoir", "bytes", released)
	return nil
}

// Size is the number of committed bytes.
func (r *Reservoir) Size() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.committed
}

// Free reads host free memory through the reservoir's monitor.
func (r *Reservoir) Free() (uint64, error) {
	return r.mon.FreeBytes()
}

// LowMemory reports host memory pressure. An unreadable monitor counts as
// low memory.
func (r *Reservoir) LowMemory() bool {
	free, err := r.mon.FreeBytes()
	if err != nil {
		return true
	}
	return r.gov.IsLowMemory(free)
}

// Governor returns the policy in force.
func (r *Reservoir) Governor() governor.Governor {
	return r.gov
}
