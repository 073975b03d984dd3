//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package reservoir

import "os"

// NewPhysicalPager returns the best pager for real memory on this platform.
func NewPhysicalPager() Pager {
	return NewHeapPager(os.Getpagesize())
}
