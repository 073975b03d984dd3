package monitor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostReportsMemory(t *testing.T) {
	var h Host
	total, err := h.TotalBytes()
	require.NoError(t, err)
	free, err := h.FreeBytes()
	require.NoError(t, err)

	assert.Greater(t, total, uint64(0))
	assert.LessOrEqual(t, free, total)
}

func TestFakeTakeGive(t *testing.T) {
	f := NewFake(100, 60)

	assert.Equal(t, uint64(40), f.Take(40))
	free, _ := f.FreeBytes()
	assert.Equal(t, uint64(20), free)

	// Cannot take more than is free.
	assert.Equal(t, uint64(20), f.Take(50))

	f.Give(500)
	free, _ = f.FreeBytes()
	assert.Equal(t, uint64(100), free, "give is capped at total")
}

func TestFakeFail(t *testing.T) {
	f := NewFake(10, 10)
	boom := errors.New("boom")
	f.Fail(boom)

	_, err := f.FreeBytes()
	assert.ErrorIs(t, err, boom)

	f.Fail(nil)
	_, err = f.FreeBytes()
	assert.NoError(t, err)
}
