// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slab

import (
	"unsafe"

	"code.hybscloud.com/spin"
)

// Free returns the slot at ptr to its owning super-block. ptr must be a
// value previously returned by Alloc on some Heap sharing this Heap's
// SizeClass and not already freed; violating this is undefined
// behavior, per spec.md §7 (the allocator does not track per-slot
// liveness beyond the anchor's free-list membership).
func (h *Heap) Free(ptr unsafe.Pointer) {
	desc := descriptorForAddr(ptr, h.sc.sbMask)
	payload := desc.payload()
	slotIdx := slotIndexOf(ptr, payload, desc.slotSize)
	if slotIdx >= desc.maxCount {
		panic("slab: Free of a pointer outside its super-block's slots")
	}

	wasFull := false
	becameEmpty := false
	sw := spin.Wait{}
	for {
		old := desc.anchor.load()
		writeNextIndex(payload, slotIdx, desc.slotSize, old.avail)

		newCount := old.count + 1
		newState := Partial
		if newCount == desc.maxCount {
			newState = Empty
		}
		updated := anchorWord{avail: slotIdx, count: newCount, state: newState, tag: old.tag + 1}

		if desc.anchor.cas(old, updated) {
			wasFull = old.state == Full
			becameEmpty = newState == Empty
			break
		}
		sw.Once()
	}

	switch {
	case wasFull && becameEmpty:
		// Full -> Empty in one step only happens when max_count == 1.
		// A Full descriptor is never anyone's active slot (Alloc detaches
		// it the moment it goes Full) and never sits in the partial
		// queue (only a Free's wasFull branch or a losing Alloc CAS push
		// there, neither of which applies to a still-Full descriptor), so
		// this call is its only reference. Retire it directly.
		h.sc.retireSuperBlock(desc)
	case becameEmpty:
		// desc was Partial and is now Empty (spec.md §4.H step 3): if
		// some heap still has it published as active, detach and retire
		// it immediately rather than waiting for that heap's next Alloc
		// call to notice.
		if owner := desc.activeOn.Load(); owner != nil && owner.active.CompareAndSwap(desc, nil) {
			desc.activeOn.Store(nil)
			h.sc.retireSuperBlock(desc)
		}
		// Otherwise desc is in the partial queue, held by an in-flight
		// Alloc, or installed as a heap's active slot before that Alloc
		// recorded activeOn; cooperativeCleanup below, a future
		// acquireActive, or the Alloc that next takes it retires it once
		// it reads EMPTY.
	case wasFull:
		// desc was detached from every heap's active slot the moment it
		// went Full; now that it has a free slot again it needs to be
		// made visible to some heap, since nothing else currently
		// references it.
		h.sc.pushPartial(desc)
	}

	h.sc.cooperativeCleanup()
}

// cooperativeCleanup is list_remove_empty_desc (spec.md §4.H, §9): each
// Free call does a bounded amount of maintenance work on the partial
// queue, retiring fully-empty super-blocks it happens to observe and
// re-enqueuing the rest. The budget counts non-empty descriptors
// observed, not total pops: one Free stops after seeing
// partialCleanupBudget still-partial descriptors, so it never walks a
// long run of them, but every EMPTY descriptor it pops before that
// point is retired, with no separate cap on how many.
func (sc *SizeClass) cooperativeCleanup() {
	nonEmptySeen := 0
	for nonEmptySeen < partialCleanupBudget {
		d, ok := sc.popPartial()
		if !ok {
			return
		}
		if d.anchor.loadRelaxed().state == Empty {
			sc.retireSuperBlock(d)
			continue
		}
		sc.pushPartial(d)
		nonEmptySeen++
	}
}
