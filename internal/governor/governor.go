// Package governor decides how much memory the pet may take from the host.
//
// The governor is a pure policy: it holds two constants and never reads the
// host itself. Callers pass a fresh free-memory reading on every decision.
package governor

// GiB and MiB are the units the defaults are written in.
const (
	MiB = 1 << 20
	GiB = 1 << 30
)

// Governor enforces a reserve of free host memory.
type Governor struct {
	// ReserveFloor must stay free on the host at all times.
	ReserveFloor uint64
	// WarningMargin above the floor marks the host as low on memory.
	WarningMargin uint64
}

// Default keeps 1 GiB free and warns within 512 MiB of that.
func Default() Governor {
	return Governor{ReserveFloor: 1 * GiB, WarningMargin: 512 * MiB}
}

// Headroom is how much can still be committed without crossing the floor.
func (g Governor) Headroom(free uint64) uint64 {
	if free <= g.ReserveFloor {
		return 0
	}
	return free - g.ReserveFloor
}

// MaxGrant clamps a request to the current headroom. The result never
// exceeds requested and never pushes free memory below the floor. The
// committed size does not change the grant; free memory already reflects it.
func (g Governor) MaxGrant(requested, committed, free uint64) uint64 {
	return min(requested, g.Headroom(free))
}

// MaxAllowed is the largest reservoir size currently permitted. It never
// drops below what is already committed.
func (g Governor) MaxAllowed(committed, free uint64) uint64 {
	return committed + g.Headroom(free)
}

// IsLowMemory reports whether free memory is within the warning margin of
// the floor, or already below it.
func (g Governor) IsLowMemory(free uint64) bool {
	return free < g.ReserveFloor+g.WarningMargin
}
