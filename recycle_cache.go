// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slab

import (
	"sync/atomic"
	"unsafe"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/spin"
)

// recycleCache parks recently-retired super-block-sized regions so the
// common allocate/free cycle does not round-trip through the OS memory
// provider on every retirement. It is a small bounded lock-free stack of
// raw pointers, sized once (the first region ever offered fixes the
// cache's size for its lifetime, since a single goProvider only ever
// backs one size class's super-blocks).
//
// take and offer report iox.ErrWouldBlock exactly as a nonblocking
// Pool.Get/Put would: take when the cache is empty or holds regions of
// a different size, offer when the cache is full or disabled. Neither
// is a real error; the caller falls through to the provider's real
// allocator/unmapper in both cases.
type recycleCache struct {
	size       int
	configured atomic.Bool

	slots []atomic.Pointer[byte]
	top   atomic.Uint32 // number of occupied slots, 0..len(slots)
}

func (c *recycleCache) init(capacity int) {
	if capacity <= 0 {
		return
	}
	c.slots = make([]atomic.Pointer[byte], capacity)
}

func (c *recycleCache) take(size int, _ uintptr) (unsafe.Pointer, error) {
	if len(c.slots) == 0 || !c.configured.Load() || size != c.size {
		return nil, iox.ErrWouldBlock
	}
	sw := spin.Wait{}
	for {
		top := c.top.Load()
		if top == 0 {
			return nil, iox.ErrWouldBlock
		}
		idx := top - 1
		ptr := c.slots[idx].Load()
		if ptr == nil {
			sw.Once()
			continue
		}
		if !c.top.CompareAndSwap(top, idx) {
			sw.Once()
			continue
		}
		c.slots[idx].Store(nil)
		return unsafe.Pointer(ptr), nil
	}
}

func (c *recycleCache) offer(ptr unsafe.Pointer, size int) error {
	if len(c.slots) == 0 {
		return iox.ErrWouldBlock
	}
	if c.configured.CompareAndSwap(false, true) {
		c.size = size
	} else if size != c.size {
		return iox.ErrWouldBlock
	}
	sw := spin.Wait{}
	for {
		top := c.top.Load()
		if int(top) == len(c.slots) {
			return iox.ErrWouldBlock
		}
		if !c.top.CompareAndSwap(top, top+1) {
			sw.Once()
			continue
		}
		c.slots[top].Store((*byte)(ptr))
		return nil
	}
}
