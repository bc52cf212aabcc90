// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slab

import (
	"unsafe"
)

// Provider is the aligned OS memory provider contract (spec.md §1, §4.E):
// an external collaborator the core only consumes by interface. Size
// classes hand out regions of exactly sbSize bytes, aligned to sbSize, and
// release them the same way.
type Provider interface {
	// AllocAligned returns size bytes of memory whose starting address is
	// a multiple of align (align must be a power of two). Returns
	// ErrOutOfMemory if the request cannot be satisfied.
	AllocAligned(size int, align uintptr) (unsafe.Pointer, error)

	// FreeAligned releases a region previously returned by AllocAligned.
	// Behavior is undefined if ptr/size do not match a prior allocation.
	FreeAligned(ptr unsafe.Pointer, size int)
}

// goProvider is the default Provider: it carves aligned regions out of
// ordinary Go-heap allocations, the same over-allocate-and-trim technique
// the package's buffer-pool lineage used for page and cache-line
// alignment (AlignedMem/CacheLineAlignedMem). FreeAligned is a no-op here
// — dropping every reference lets the garbage collector reclaim the
// backing array — except that a bounded recycle cache intercepts most
// traffic so the GC rarely sees super-block-sized garbage at all.
type goProvider struct {
	cache recycleCache
}

// newGoProvider returns a Provider backed by the Go heap, with a bounded
// recycle cache of the given capacity (0 disables recycling).
func newGoProvider(recycleCapacity int) *goProvider {
	p := &goProvider{}
	if recycleCapacity > 0 {
		p.cache.init(recycleCapacity)
	}
	return p
}

func (p *goProvider) AllocAligned(size int, align uintptr) (unsafe.Pointer, error) {
	if ptr, err := p.cache.take(size, align); err == nil {
		return ptr, nil
	}
	return alignedAlloc(size, align)
}

func (p *goProvider) FreeAligned(ptr unsafe.Pointer, size int) {
	if p.cache.offer(ptr, size) == nil {
		return
	}
	// Cache declined it (full, disabled, or size mismatch): nothing else
	// references ptr, so the garbage collector reclaims it once the
	// super-block's last slot reference is gone.
}

// alignedAlloc returns a size-byte region whose base address is a
// multiple of align. The returned slice shares underlying memory with a
// larger allocation; callers must keep a real (non-uintptr) pointer into
// it alive for as long as the region is in use, since Go's collector
// tracks liveness through unsafe.Pointer, not through integers derived
// from one.
func alignedAlloc(size int, align uintptr) (unsafe.Pointer, error) {
	if size <= 0 || align == 0 || align&(align-1) != 0 {
		return nil, ErrInvalidSlotSize
	}
	raw := make([]byte, uintptr(size)+align-1)
	base := unsafe.Pointer(unsafe.SliceData(raw))
	offset := ((uintptr(base)+align-1)/align)*align - uintptr(base)
	return unsafe.Add(base, offset), nil
}
