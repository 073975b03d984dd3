package record

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/rcliao/ram-pet/internal/pet"
	"github.com/rcliao/ram-pet/internal/reservoir"
)

// Report describes how a restore went.
type Report struct {
	Personality string    `json:"personality"`
	Requested   uint64    `json:"requested_bytes"`
	Restored    uint64    `json:"restored_bytes"`
	SavedAt     time.Time `json:"saved_at"`
	// GrowErr is the error from the restoring grow, if any. A restore with a
	// grow error still yields a usable pet at whatever size was granted.
	GrowErr error `json:"-"`
}

// Clamped reports a restore that came back smaller than it was saved.
func (r Report) Clamped() bool {
	return r.Restored < r.Requested
}

// Notice is the user-facing summary of the restore.
func (r Report) Notice() string {
	if r.GrowErr != nil {
		return fmt.Sprintf("Could not regrow your %s: it came back at %s of %s (%v)",
			r.Personality, humanize.IBytes(r.Restored), humanize.IBytes(r.Requested), r.GrowErr)
	}
	if r.Clamped() {
		return fmt.Sprintf("Not enough free memory to restore your %s: it came back at %s of %s",
			r.Personality, humanize.IBytes(r.Restored), humanize.IBytes(r.Requested))
	}
	return fmt.Sprintf("Welcome back! Your %s was restored at %s (saved %s)",
		r.Personality, humanize.IBytes(r.Restored), humanize.Time(r.SavedAt))
}

// Restore rebuilds a pet from rec on res. Personality and hunger are taken
// as saved; size is requested from the reservoir and may be clamped.
func Restore(rec Record, res *reservoir.Reservoir, opts ...pet.Option) (*pet.Pet, Report, error) {
	personality, err := rec.Personality()
	if err != nil {
		return nil, Report{}, err
	}

	report := Report{
		Personality: personality.ID(),
		Requested:   rec.CommittedBytes,
		SavedAt:     rec.SavedAt,
	}

	current := res.Size()
	switch {
	case current < rec.CommittedBytes:
		_, growErr := res.Grow(rec.CommittedBytes - current)
		if growErr != nil && !errors.Is(growErr, reservoir.ErrInsufficientHeadroom) {
			report.GrowErr = growErr
		}
	case current > rec.CommittedBytes:
		res.Shrink(current - rec.CommittedBytes)
	}
	report.Restored = res.Size()

	return pet.New(personality, rec.Hunger, res, opts...), report, nil
}
