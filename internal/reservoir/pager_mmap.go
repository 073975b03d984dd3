//go:build linux || darwin || freebsd || netbsd || openbsd

package reservoir

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// MmapPager commits memory as anonymous private mappings. Emptied regions
// are unmapped and partially used ones have their tail pages dropped with
// MADV_DONTNEED, so a shrink is visible to the OS right away.
type MmapPager struct {
	regions  []region
	pageSize int
}

func NewMmapPager() *MmapPager {
	return &MmapPager{pageSize: unix.Getpagesize()}
}

// NewPhysicalPager returns the best pager for real memory on this platform.
func NewPhysicalPager() Pager {
	return NewMmapPager()
}

func (p *MmapPager) Commit(n uint64) (uint64, error) {
	var committed uint64
	for committed < n {
		if len(p.regions) == 0 || p.last().used == len(p.last().mem) {
			mem, err := unix.Mmap(-1, 0, regionSize,
				unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
			if err != nil {
				return committed, fmt.Errorf("mmap region: %w", err)
			}
			p.regions = append(p.regions, region{mem: mem})
		}
		r := p.last()
		take := int(min(n-committed, uint64(len(r.mem)-r.used)))
		touch(r.mem, r.used, r.used+take, p.pageSize)
		r.used += take
		committed += uint64(take)
	}
	return committed, nil
}

func (p *MmapPager) Decommit(n uint64) (uint64, error) {
	var released uint64
	for released < n && len(p.regions) > 0 {
		r := p.last()
		take := int(min(n-released, uint64(r.used)))
		before := r.used
		r.used -= take
		released += uint64(take)

		if r.used == 0 {
			mem := r.mem
			p.regions[len(p.regions)-1] = region{}
			p.regions = p.regions[:len(p.regions)-1]
			if err := unix.Munmap(mem); err != nil {
				return released, fmt.Errorf("munmap region: %w", err)
			}
			continue
		}

		lo := roundUp(r.used, p.pageSize)
		hi := min(roundUp(before, p.pageSize), len(r.mem))
		if lo < hi {
			if err := unix.Madvise(r.mem[lo:hi], unix.MADV_DONTNEED); err != nil {
				return released, fmt.Errorf("madvise: %w", err)
			}
		}
	}
	return released, nil
}

func (p *MmapPager) Release() error {
	var errs []error
	for i := range p.regions {
		if err := unix.Munmap(p.regions[i].mem); err != nil {
			errs = append(errs, err)
		}
	}
	p.regions = nil
	return errors.Join(errs...)
}

// Regions is the number of live mappings.
func (p *MmapPager) Regions() int {
	return len(p.regions)
}

func (p *MmapPager) last() *region {
	return &p.regions[len(p.regions)-1]
}
