package pet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/ram-pet/internal/governor"
	"github.com/rcliao/ram-pet/internal/logging"
	"github.com/rcliao/ram-pet/internal/model"
	"github.com/rcliao/ram-pet/internal/monitor"
	"github.com/rcliao/ram-pet/internal/reservoir"
)

const (
	MiB = governor.MiB
	GiB = governor.GiB
)

var quiet = logging.Discard()

func newTestPet(t *testing.T, personality model.Personality, hunger float64, free uint64) (*Pet, *reservoir.Reservoir, *monitor.Fake) {
	t.Helper()
	return newTestPetWith(t, governor.Governor{ReserveFloor: 1 * GiB, WarningMargin: 64 * MiB}, personality, hunger, free)
}

func newTestPetWith(t *testing.T, gov governor.Governor, personality model.Personality, hunger float64, free uint64) (*Pet, *reservoir.Reservoir, *monitor.Fake) {
	t.Helper()
	host := monitor.NewFake(8*GiB, free)
	res := reservoir.New(reservoir.NewSimulatedPager(host), gov, host, reservoir.WithLogger(quiet))
	t.Cleanup(func() { res.ReleaseAll() })

	params := DefaultParams()
	params.ReliefPerMiB = 0.1
	return New(personality, hunger, res, WithParams(params), WithLogger(quiet)), res, host
}

func TestFeedClampedGivesPartialRelief(t *testing.T) {
	p, res, _ := newTestPet(t, model.Glutton, 50, 1*GiB+200*MiB)

	got, err := p.Feed(500 * MiB)
	require.NoError(t, err)

	assert.Equal(t, uint64(500*MiB), got.RequestedBytes)
	assert.Equal(t, uint64(200*MiB), got.GrantedBytes)
	assert.True(t, got.Partial())
	// Full relief is 50 points; 200/500 of it is 20.
	assert.InDelta(t, 20.0, got.HungerRelief, 1e-9)
	assert.InDelta(t, 30.0, p.Hunger(), 1e-9)
	assert.Equal(t, uint64(200*MiB), res.Size())
}

func TestFeedClampedUnderDefaultGovernor(t *testing.T) {
	// 1.2 GiB free is inside the default warning margin, so the pet is
	// distressed and asks for half the meal.
	p, res, _ := newTestPetWith(t, governor.Default(), model.Glutton, 50, 1*GiB+200*MiB)
	require.Equal(t, model.MoodDistressed, p.Mood())

	got, err := p.Feed(500 * MiB)
	require.NoError(t, err)

	assert.Equal(t, uint64(250*MiB), got.RequestedBytes)
	assert.Equal(t, uint64(200*MiB), got.GrantedBytes)
	// Full relief is 50 points; 200/500 of it is 20.
	assert.InDelta(t, 20.0, got.HungerRelief, 1e-9)
	assert.InDelta(t, 30.0, p.Hunger(), 1e-9)
	assert.Equal(t, uint64(200*MiB), res.Size())
}

func TestFeedWithoutHeadroomLeavesHunger(t *testing.T) {
	p, res, _ := newTestPet(t, model.Nibbler, 60, 1*GiB)

	got, err := p.Feed(50 * MiB)
	assert.ErrorIs(t, err, reservoir.ErrInsufficientHeadroom)
	assert.True(t, got.Starved)
	assert.Zero(t, got.GrantedBytes)
	assert.Equal(t, 60.0, p.Hunger())
	assert.Zero(t, res.Size())
	assert.Zero(t, p.Stats().Feedings)
}

func TestFeedFavoriteUsesTraits(t *testing.T) {
	tests := []struct {
		personality model.Personality
		bytes       uint64
		relief      float64
	}{
		{model.Nibbler, 16 * MiB, 16 * 0.1 * 1.5},
		{model.Glutton, 256 * MiB, 256 * 0.1 * 1.0},
		{model.Gourmet, 42 * MiB, 42 * 0.1 * 2.0},
		{model.Gremlin, 128 * MiB, 128 * 0.1 * 0.8},
	}
	for _, tt := range tests {
		t.Run(tt.personality.ID(), func(t *testing.T) {
			p, _, _ := newTestPet(t, tt.personality, 70, 4*GiB)

			got, err := p.FeedFavorite()
			require.NoError(t, err)
			assert.True(t, got.Favorite)
			assert.Equal(t, tt.bytes, got.GrantedBytes)
			assert.InDelta(t, tt.relief, got.HungerRelief, 1e-9)
			assert.InDelta(t, 70-tt.relief, p.Hunger(), 1e-9)
		})
	}
}

func TestDistressedFeedingGrowsLess(t *testing.T) {
	p, _, _ := newTestPet(t, model.Gourmet, 97, 4*GiB)
	require.Equal(t, model.MoodDistressed, p.Mood())

	got, err := p.Feed(100 * MiB)
	require.NoError(t, err)
	assert.Equal(t, uint64(50*MiB), got.GrantedBytes)
	// Half the meal granted, half the relief.
	assert.InDelta(t, 5.0, got.HungerRelief, 1e-9)
	assert.InDelta(t, 92.0, p.Hunger(), 1e-9)
}

func TestTickRaisesHunger(t *testing.T) {
	p, _, _ := newTestPet(t, model.Gremlin, 10, 4*GiB)

	lost, err := p.Tick(2 * time.Second)
	require.NoError(t, err)
	assert.Zero(t, lost)
	// 1.0 points/s * 1.5 multiplier * 2s
	assert.InDelta(t, 13.0, p.Hunger(), 1e-9)
}

func TestStarvationShrinksWithoutGovernor(t *testing.T) {
	p, res, host := newTestPet(t, model.Gourmet, 99, 4*GiB)
	_, err := res.Grow(100 * MiB)
	require.NoError(t, err)

	// Host now below the floor: grows are refused, shrinks must still work.
	host.SetFree(512 * MiB)

	lost, err := p.Tick(11 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, uint64(10*MiB), lost)
	assert.Equal(t, uint64(90*MiB), res.Size())
	assert.Equal(t, 100.0, p.Hunger())
	assert.Equal(t, uint64(10*MiB), p.Stats().BytesStarvedOff)
}

func TestEmergencyExit(t *testing.T) {
	p, res, _ := newTestPet(t, model.Glutton, 20, 4*GiB)
	_, err := p.Feed(300 * MiB)
	require.NoError(t, err)

	require.NoError(t, p.EmergencyExit())
	assert.Zero(t, res.Size())
	assert.True(t, p.Terminated())

	_, err = p.Feed(10 * MiB)
	assert.ErrorIs(t, err, ErrTerminated)
	_, err = p.FeedFavorite()
	assert.ErrorIs(t, err, ErrTerminated)
	_, err = p.Tick(time.Second)
	assert.ErrorIs(t, err, ErrTerminated)
	assert.ErrorIs(t, p.EmergencyExit(), ErrTerminated)
	assert.Zero(t, res.Size())
}

func TestSnapshotDerivesStageAndMood(t *testing.T) {
	p, _, host := newTestPet(t, model.Nibbler, 85, 4*GiB)
	_, err := p.Feed(160 * MiB)
	require.NoError(t, err)

	s := p.Snapshot()
	assert.Equal(t, model.StageTeen, s.Stage)
	assert.Equal(t, model.MoodContent, s.Mood) // 85 - 16 = 69
	assert.Equal(t, uint64(160*MiB), s.CommittedBytes)
	assert.Equal(t, 1, s.Stats.Feedings)
	assert.Equal(t, uint64(160*MiB), s.Stats.PeakBytes)

	host.SetFree(1*GiB + 32*MiB)
	s = p.Snapshot()
	assert.True(t, s.LowMemory)
	assert.Equal(t, model.MoodDistressed, s.Mood)
}
