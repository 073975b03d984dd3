// Package monitor reports host memory totals to the safety governor.
package monitor

import (
	"fmt"
	"sync"

	"github.com/shirou/gopsutil/v3/mem"
)

// Monitor is a read-only host memory sensor.
type Monitor interface {
	TotalBytes() (uint64, error)
	FreeBytes() (uint64, error)
}

// Host reads physical memory from the operating system on every call.
// Free memory is the kernel's "available" figure, which counts reclaimable
// page cache as free.
type Host struct{}

func (Host) TotalBytes() (uint64, error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return 0, fmt.Errorf("read host memory: %w", err)
	}
	return v.Total, nil
}

func (Host) FreeBytes() (uint64, error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return 0, fmt.Errorf("read host memory: %w", err)
	}
	return v.Available, nil
}

// Fake is a deterministic monitor. Take and Give move bytes between the
// free pool and a consumer, so a reservoir paired with it sees free memory
// fall as it grows.
type Fake struct {
	mu    sync.Mutex
	total uint64
	free  uint64
	err   error
}

// NewFake returns a host with total bytes of which free are available.
func NewFake(total, free uint64) *Fake {
	if free > total {
		free = total
	}
	return &Fake{total: total, free: free}
}

func (f *Fake) TotalBytes() (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return f.total, nil
}

func (f *Fake) FreeBytes() (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return f.free, nil
}

// SetFree overrides the free figure, e.g. to simulate other programs.
func (f *Fake) SetFree(n uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.free = min(n, f.total)
}

// Fail makes every subsequent read return err. Pass nil to recover.
func (f *Fake) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// Take removes up to n bytes from the free pool and returns how many moved.
func (f *Fake) Take(n uint64) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	n = min(n, f.free)
	f.free -= n
	return n
}

// Give returns n bytes to the free pool, capped at total.
func (f *Fake) Give(n uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.free = min(f.free+n, f.total)
}
