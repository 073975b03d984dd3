package reservoir

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/ram-pet/internal/governor"
	"github.com/rcliao/ram-pet/internal/logging"
	"github.com/rcliao/ram-pet/internal/monitor"
)

const (
	MiB = governor.MiB
	GiB = governor.GiB
)

func newTestReservoir(t *testing.T, free uint64) (*Reservoir, *monitor.Fake) {
	t.Helper()
	host := monitor.NewFake(8*GiB, free)
	gov := governor.Governor{ReserveFloor: 1 * GiB, WarningMargin: 64 * MiB}
	r := New(NewSimulatedPager(host), gov, host,
		WithLogger(logging.Discard()))
	t.Cleanup(func() { r.ReleaseAll() })
	return r, host
}

func TestGrowClampedToHeadroom(t *testing.T) {
	r, host := newTestReservoir(t, 1*GiB+200*MiB)

	got, err := r.Grow(500 * MiB)
	require.NoError(t, err)
	assert.Equal(t, uint64(200*MiB), got)
	assert.Equal(t, uint64(200*MiB), r.Size())

	free, _ := host.FreeBytes()
	assert.Equal(t, uint64(1*GiB), free)
}

func TestGrowAtFloorIsDenied(t *testing.T) {
	r, _ := newTestReservoir(t, 1*GiB)

	got, err := r.Grow(10 * MiB)
	assert.ErrorIs(t, err, ErrInsufficientHeadroom)
	assert.Zero(t, got)
	assert.Zero(t, r.Size())
}

func TestGrowMonitorFailure(t *testing.T) {
	r, host := newTestReservoir(t, 4*GiB)
	boom := errors.New("proc unreadable")
	host.Fail(boom)

	got, err := r.Grow(10 * MiB)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, got)
	assert.True(t, r.LowMemory())
}

func TestFloorHoldsUnderRandomTraffic(t *testing.T) {
	r, host := newTestReservoir(t, 3*GiB)
	rng := rand.New(rand.NewPCG(7, 11))

	for i := 0; i < 500; i++ {
		n := rng.Uint64N(400 * MiB)
		if rng.IntN(3) == 0 {
			r.Shrink(n)
		} else {
			_, err := r.Grow(n)
			if err != nil {
				require.ErrorIs(t, err, ErrInsufficientHeadroom)
			}
		}
		free, _ := host.FreeBytes()
		require.GreaterOrEqual(t, free, uint64(1*GiB), "step %d", i)
		require.Equal(t, 3*GiB-free, r.Size(), "step %d", i)
	}
}

func TestShrinkThenGrow(t *testing.T) {
	r, _ := newTestReservoir(t, 4*GiB)

	_, err := r.Grow(300 * MiB)
	require.NoError(t, err)

	assert.Equal(t, uint64(100*MiB), r.Shrink(100*MiB))
	assert.Equal(t, uint64(200*MiB), r.Size())

	// Shrinking past zero only releases what is held.
	assert.Equal(t, uint64(200*MiB), r.Shrink(1*GiB))
	assert.Zero(t, r.Size())

	got, err := r.Grow(50 * MiB)
	require.NoError(t, err)
	assert.Equal(t, uint64(50*MiB), got)
}

func TestReleaseAllIsIdempotent(t *testing.T) {
	r, host := newTestReservoir(t, 4*GiB)

	_, err := r.Grow(256 * MiB)
	require.NoError(t, err)

	require.NoError(t, r.ReleaseAll())
	require.NoError(t, r.ReleaseAll())
	assert.Zero(t, r.Size())

	free, _ := host.FreeBytes()
	assert.Equal(t, uint64(4*GiB), free)
}

func TestLowMemory(t *testing.T) {
	r, host := newTestReservoir(t, 2*GiB)
	assert.False(t, r.LowMemory())

	host.SetFree(1*GiB + 10*MiB)
	assert.True(t, r.LowMemory())
}

func TestHeapPager(t *testing.T) {
	p := NewHeapPager(4096)
	returns := 0
	p.freeOS = func() { returns++ }

	got, err := p.Commit(2*MiB + 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(2*MiB+10), got)
	assert.Len(t, p.regions, 3)

	// Shrinking inside a region keeps it.
	released, err := p.Decommit(4)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), released)
	assert.Len(t, p.regions, 3)
	assert.Zero(t, returns)

	// Emptying a region drops it and hands memory back to the OS.
	released, err = p.Decommit(20)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), released)
	assert.Len(t, p.regions, 2)
	assert.Equal(t, 1, returns)

	require.NoError(t, p.Release())
	assert.Empty(t, p.regions)
	assert.Equal(t, 2, returns)
}

func TestSimulatedPagerMovesHostMemory(t *testing.T) {
	host := monitor.NewFake(2*GiB, 1*GiB)
	p := NewSimulatedPager(host)

	got, err := p.Commit(300 * MiB)
	require.NoError(t, err)
	assert.Equal(t, uint64(300*MiB), got)
	assert.Equal(t, uint64(300*MiB), p.Held())

	released, err := p.Decommit(100 * MiB)
	require.NoError(t, err)
	assert.Equal(t, uint64(100*MiB), released)
	assert.Equal(t, uint64(200*MiB), p.Held())

	// Asking for more than the host has commits what exists and reports it.
	got, err = p.Commit(2 * GiB)
	assert.Error(t, err)
	assert.Equal(t, uint64(1*GiB-200*MiB), got)
	assert.Equal(t, uint64(1*GiB), p.Held())

	require.NoError(t, p.Release())
	assert.Zero(t, p.Held())
	free, _ := host.FreeBytes()
	assert.Equal(t, uint64(1*GiB), free)
}
