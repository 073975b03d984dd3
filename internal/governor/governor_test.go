package governor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaxGrant(t *testing.T) {
	g := Governor{ReserveFloor: 1 * GiB, WarningMargin: 256 * MiB}

	tests := []struct {
		name      string
		requested uint64
		free      uint64
		want      uint64
	}{
		{"fits", 100 * MiB, 2 * GiB, 100 * MiB},
		{"clamped", 500 * MiB, 1*GiB + 200*MiB, 200 * MiB},
		{"exactly at floor", 10 * MiB, 1 * GiB, 0},
		{"below floor", 10 * MiB, 512 * MiB, 0},
		{"zero request", 0, 4 * GiB, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.MaxGrant(tt.requested, 300*MiB, tt.free)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, got, tt.requested)
			if tt.free >= g.ReserveFloor {
				assert.GreaterOrEqual(t, tt.free-got, g.ReserveFloor, "floor violated")
			}
		})
	}
}

func TestMaxGrantNeverBreaksFloor(t *testing.T) {
	g := Default()
	for free := uint64(0); free <= 3*GiB; free += 37 * MiB {
		for req := uint64(0); req <= 2*GiB; req += 113 * MiB {
			got := g.MaxGrant(req, 0, free)
			if got > req {
				t.Fatalf("granted %d > requested %d", got, req)
			}
			if got > 0 && free-got < g.ReserveFloor {
				t.Fatalf("free %d grant %d leaves less than the floor", free, got)
			}
		}
	}
}

func TestMaxAllowedNeverBelowCommitted(t *testing.T) {
	g := Default()
	assert.Equal(t, uint64(700*MiB), g.MaxAllowed(700*MiB, 100*MiB))
	assert.Equal(t, uint64(700*MiB+GiB), g.MaxAllowed(700*MiB, 2*GiB))
}

func TestIsLowMemory(t *testing.T) {
	g := Governor{ReserveFloor: 1 * GiB, WarningMargin: 512 * MiB}

	assert.True(t, g.IsLowMemory(900*MiB))
	assert.True(t, g.IsLowMemory(1*GiB+100*MiB))
	assert.False(t, g.IsLowMemory(2*GiB))
}
