// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slab

import (
	"sync/atomic"
	"unsafe"
)

// Descriptor is the lock-free metadata record for exactly one
// super-block. It never moves once constructed: the anchor word and the
// activeOn back-pointer are the only mutable shared state, and every
// other field is written once (at construction, under the owning size
// class's control) and read many times thereafter (spec.md §3).
//
// Descriptors are never freed back to the Go heap individually; they
// live in arena blocks owned by the descriptor pool (descpool.go) and
// are recycled between super-blocks of possibly different size classes
// over their lifetime. poolNext is the pool's own intrusive Treiber-stack
// link and must not be touched outside descpool.go.
type Descriptor struct {
	anchor anchor

	sb       unsafe.Pointer // super-block base address (header included; see payload)
	sc       *SizeClass     // owning size class, nil while sitting in the pool
	slotSize uintptr
	maxCount uint32

	// activeOn names the Heap currently publishing this descriptor as its
	// active slot, or nil if it isn't anyone's active slot right now (it
	// may be in the partial queue, freshly provisioned, or mid-transit in
	// Alloc). Free reads this to find D.heap.active without itself
	// holding a Heap reference, per the active-slot detach-on-EMPTY step.
	activeOn atomic.Pointer[Heap]

	poolNext *Descriptor // descpool intrusive free-stack link; descpool.go only
}

// payload returns the address of the first slot, i.e. sb plus the
// fixed-size header that stores the back-pointer recovered by
// descriptorForAddr.
func (d *Descriptor) payload() unsafe.Pointer {
	return unsafe.Add(d.sb, SuperBlockHeaderSize)
}

// resetFull (re)initializes a descriptor for a freshly-provisioned
// super-block: every slot is threaded onto the in-SB free list in index
// order, avail points at slot 0, and count equals the slot capacity.
// The anchor starts PARTIAL rather than EMPTY: the caller pops slot 0
// from it straight away while still holding it privately, and an EMPTY
// anchor would make Alloc abandon and retire the new block instead.
// The terminal slot's next-index is the freeListEnd sentinel rather
// than 0, so a reader can never mistake "no more free slots" for "slot
// 0 is next" (an Open Question in spec.md §9, resolved this way — see
// DESIGN.md).
func (d *Descriptor) resetFull(sc *SizeClass, sb unsafe.Pointer) {
	d.sc = sc
	d.sb = sb
	d.slotSize = uintptr(sc.slotSize)
	d.maxCount = sc.slotsPerSB

	payload := d.payload()
	for i := uint32(0); i < d.maxCount; i++ {
		next := i + 1
		if next == d.maxCount {
			next = freeListEnd
		}
		writeNextIndex(payload, i, d.slotSize, next)
	}
	d.anchor.init(anchorWord{avail: 0, count: d.maxCount, state: Partial, tag: 0})
}

// release detaches a descriptor from its super-block so it can return to
// the pool; the super-block memory itself is handed back to the size
// class's Provider by the caller.
func (d *Descriptor) release() {
	d.sb = nil
	d.sc = nil
	d.slotSize = 0
	d.maxCount = 0
	d.activeOn.Store(nil)
}
