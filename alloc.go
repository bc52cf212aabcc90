// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slab

import (
	"unsafe"

	"code.hybscloud.com/spin"
)

// Alloc returns one slot from the heap's size class. The algorithm
// (spec.md §4.G) tries, in order: the heap's active super-block, a
// super-block pulled off the size class's partial queue, and finally a
// freshly-provisioned super-block from the memory provider.
//
// The active slot is single-reader: Alloc takes exclusive ownership of
// whatever descriptor is currently active by atomically swapping it out
// to NULL first, so only this call may pop a slot from (or retire) that
// descriptor's anchor until it republishes or abandons it. Two Alloc
// calls can never race each other over the same active descriptor.
func (h *Heap) Alloc() (unsafe.Pointer, error) {
	for {
		desc := h.active.Swap(nil)
		if desc != nil {
			desc.activeOn.Store(nil)
		} else {
			next, err := h.acquireActive()
			if err != nil {
				return nil, err
			}
			desc = next
		}

		ptr, becameFull, isEmpty := h.tryAllocFromActive(desc)
		if isEmpty {
			// desc drained to EMPTY while exclusively held here (spec.md
			// §4.F step 2): abandon it rather than hand out a slot from a
			// super-block that is due for reclamation, and retire it now
			// since nothing else references it.
			h.sc.retireSuperBlock(desc)
			continue
		}
		if becameFull {
			// No slots left to serve; desc is not republished, so the
			// next Alloc call starts over from the partial queue. Free
			// will hand it back via pushPartial once a slot returns.
			return ptr, nil
		}
		if h.active.CompareAndSwap(nil, desc) {
			desc.activeOn.Store(h)
		} else {
			// Another goroutine published an active descriptor first;
			// desc is still perfectly usable, so make it visible to
			// whichever heap looks at the partial queue next instead of
			// discarding it.
			h.sc.pushPartial(desc)
		}
		return ptr, nil
	}
}

// tryAllocFromActive attempts to pop one slot from desc's in-SB free
// list via the anchor CAS. The caller must already hold desc exclusively
// (taken out of some heap's active slot by Alloc). isEmpty is true if
// desc's anchor reads EMPTY either initially or after a losing CAS
// retry — in that case no slot was taken and the caller must retire
// desc instead of using it. becameFull is true if this call's pop left
// desc with no free slots remaining.
func (h *Heap) tryAllocFromActive(desc *Descriptor) (ptr unsafe.Pointer, becameFull, isEmpty bool) {
	sw := spin.Wait{}
	for {
		old := desc.anchor.load()
		if old.state == Empty {
			return nil, false, true
		}

		payload := desc.payload()
		next := readNextIndex(payload, old.avail, desc.slotSize)
		newState := Partial
		if old.count-1 == 0 {
			newState = Full
		}
		updated := anchorWord{avail: next, count: old.count - 1, state: newState, tag: old.tag + 1}

		if !desc.anchor.cas(old, updated) {
			sw.Once()
			continue
		}

		slot := slotAddr(payload, old.avail, desc.slotSize)
		return slot, newState == Full, false
	}
}

// acquireActive returns a descriptor known to have at least one free
// slot, pulling from the partial queue before falling back to a new
// super-block.
func (h *Heap) acquireActive() (*Descriptor, error) {
	for {
		d, ok := h.sc.popPartial()
		if !ok {
			return h.sc.newSuperBlock()
		}
		switch d.anchor.loadRelaxed().state {
		case Empty:
			// Drained to EMPTY while sitting in the partial queue
			// (spec.md §4.G step 2): retire it rather than hand out
			// slots from a block due for reclamation.
			h.sc.retireSuperBlock(d)
			continue
		case Full:
			// Stale: a concurrent free already filled it and another
			// heap already drained it back to Full. Drop and keep
			// looking; it is not lost, Free will re-enqueue it again
			// once it has free slots.
			continue
		default:
			return d, nil
		}
	}
}
