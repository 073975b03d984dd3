package reservoir

import (
	"fmt"
	"runtime/debug"

	"github.com/rcliao/ram-pet/internal/monitor"
)

// regionSize is the unit in which pagers acquire memory from the OS.
const regionSize = 1 << 20

// Pager is the physical side of the reservoir.
type Pager interface {
	// Commit makes n more bytes resident and returns how many it managed.
	Commit(n uint64) (uint64, error)
	// Decommit hands up to n bytes back, newest first.
	Decommit(n uint64) (uint64, error)
	// Release hands everything back.
	Release() error
}

// touch writes one byte per page in mem[from:to] so every page in the range
// is backed by physical memory.
func touch(mem []byte, from, to, pageSize int) {
	for off := from; off < to; off = (off/pageSize + 1) * pageSize {
		mem[off] = 0xA5
	}
}

func roundUp(n, pageSize int) int {
	return (n + pageSize - 1) / pageSize * pageSize
}

// HeapPager commits memory as Go-allocated regions. Pages freed by a partial
// decommit stay resident until their whole region is dropped, at which point
// the runtime is asked to return freed memory to the OS.
type HeapPager struct {
	regions  []region
	pageSize int
	freeOS   func()
}

type region struct {
	mem  []byte
	used int
}

func NewHeapPager(pageSize int) *HeapPager {
	if pageSize <= 0 {
		pageSize = 4096
	}
	return &HeapPager{pageSize: pageSize, freeOS: debug.FreeOSMemory}
}

func (p *HeapPager) Commit(n uint64) (committed uint64, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("heap allocation failed: %v", v)
		}
	}()

	for committed < n {
		if len(p.regions) == 0 || p.last().used == len(p.last().mem) {
			p.regions = append(p.regions, region{mem: make([]byte, regionSize)})
		}
		r := p.last()
		take := int(min(n-committed, uint64(len(r.mem)-r.used)))
		touch(r.mem, r.used, r.used+take, p.pageSize)
		r.used += take
		committed += uint64(take)
	}
	return committed, nil
}

func (p *HeapPager) Decommit(n uint64) (uint64, error) {
	var released uint64
	dropped := false
	for released < n && len(p.regions) > 0 {
		r := p.last()
		take := int(min(n-released, uint64(r.used)))
		r.used -= take
		released += uint64(take)
		if r.used == 0 {
			p.regions[len(p.regions)-1] = region{}
			p.regions = p.regions[:len(p.regions)-1]
			dropped = true
		}
	}
	if dropped {
		p.freeOS()
	}
	return released, nil
}

func (p *HeapPager) Release() error {
	p.regions = nil
	p.freeOS()
	return nil
}

func (p *HeapPager) last() *region {
	return &p.regions[len(p.regions)-1]
}

// SimulatedPager touches no host memory. It moves bytes out of and back
// into a fake host so the governor sees free memory shrink as the pet grows.
type SimulatedPager struct {
	host *monitor.Fake
	held uint64
}

func NewSimulatedPager(host *monitor.Fake) *SimulatedPager {
	return &SimulatedPager{host: host}
}

func (p *SimulatedPager) Commit(n uint64) (uint64, error) {
	got := p.host.Take(n)
	p.held += got
	if got < n {
		return got, fmt.Errorf("simulated host exhausted after %d of %d bytes", got, n)
	}
	return got, nil
}

func (p *SimulatedPager) Decommit(n uint64) (uint64, error) {
	n = min(n, p.held)
	p.held -= n
	p.host.Give(n)
	return n, nil
}

func (p *SimulatedPager) Release() error {
	p.host.Give(p.held)
	p.held = 0
	return nil
}

// Held is the number of bytes the pager has taken from the fake host.
func (p *SimulatedPager) Held() uint64 {
	return p.held
}
