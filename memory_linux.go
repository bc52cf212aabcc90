// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package slab

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// MmapProvider is a Provider backed by anonymous mmap regions. Unlike
// goProvider, the regions it hands out are truly page-aligned and
// unmapped (not merely dropped for the GC to reclaim), which matters
// when super-blocks are large enough that the OS's own page granularity
// dominates the allocation cost, or when the caller wants slab memory
// excluded from the Go heap's scan set entirely.
//
// Alignment greater than the page size is achieved by the classic
// over-map-and-trim technique: map size+align-1 bytes, then munmap the
// slack on either side of the aligned sub-region.
type MmapProvider struct {
	cache recycleCache
}

// NewMmapProvider returns an MmapProvider with a bounded recycle cache
// of the given capacity (0 disables recycling).
func NewMmapProvider(recycleCapacity int) *MmapProvider {
	p := &MmapProvider{}
	if recycleCapacity > 0 {
		p.cache.init(recycleCapacity)
	}
	return p
}

func (p *MmapProvider) AllocAligned(size int, align uintptr) (unsafe.Pointer, error) {
	if ptr, err := p.cache.take(size, align); err == nil {
		return ptr, nil
	}
	if size <= 0 || align == 0 || align&(align-1) != 0 {
		return nil, ErrInvalidSlotSize
	}

	total := size + int(align) - 1
	raw, err := unix.Mmap(-1, 0, total, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, ErrOutOfMemory
	}
	base := uintptr(unsafe.Pointer(unsafe.SliceData(raw)))
	aligned := (base + align - 1) &^ (align - 1)

	if head := aligned - base; head > 0 {
		_ = unix.Munmap(raw[:head])
	}
	if tail := total - int(aligned-base) - size; tail > 0 {
		tailOff := int(aligned-base) + size
		_ = unix.Munmap(raw[tailOff : tailOff+tail])
	}
	return unsafe.Pointer(aligned), nil
}

func (p *MmapProvider) FreeAligned(ptr unsafe.Pointer, size int) {
	if p.cache.offer(ptr, size) == nil {
		return
	}
	b := unsafe.Slice((*byte)(ptr), size)
	_ = unix.Munmap(b)
}
