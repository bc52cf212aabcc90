// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slab

import (
	"errors"
	"fmt"
)

// ErrInconsistent is returned by CheckConsistency when a descriptor's
// anchor or in-SB free list violates an invariant the algorithm
// otherwise guarantees by construction. It should never occur outside
// of tests deliberately corrupting state; CheckConsistency exists for
// those tests, not for production error handling.
var ErrInconsistent = errors.New("slab: inconsistent descriptor state")

// CheckConsistency walks h's active descriptor and every descriptor
// presently sitting in its size class's partial queue, verifying the
// invariants spec.md §6 assigns to each: count never exceeds max_count,
// avail is an in-range slot index whenever count > 0, and the in-SB
// free list has exactly count live links with no cycle shorter than
// that.
//
// CheckConsistency is a diagnostic for tests running against a quiesced
// allocator, not a concurrent-safe production query: walking the
// partial queue requires draining it completely (the queue offers no
// O(1) peek) and restoring it afterward, which races with any Alloc or
// Free call running at the same time.
func CheckConsistency(h *Heap) error {
	if desc := h.active.Load(); desc != nil {
		if err := checkDescriptor(desc); err != nil {
			return err
		}
	}
	return checkPartialQueue(h.sc)
}

// checkPartialQueue drains sc's entire partial queue, checking each
// descriptor in turn, then restores every descriptor it dequeued in the
// same order so the queue's contents are unchanged on return.
func checkPartialQueue(sc *SizeClass) error {
	var drained []*Descriptor
	defer func() {
		for _, d := range drained {
			sc.pushPartial(d)
		}
	}()

	for {
		d, ok := sc.popPartial()
		if !ok {
			return nil
		}
		drained = append(drained, d)
		if err := checkDescriptor(d); err != nil {
			return err
		}
	}
}

func checkDescriptor(desc *Descriptor) error {
	a := desc.anchor.loadRelaxed()
	if a.count > desc.maxCount {
		return fmt.Errorf("%w: count %d exceeds max_count %d", ErrInconsistent, a.count, desc.maxCount)
	}
	if a.count == 0 {
		// avail is meaningless once the free list is empty: the anchor's
		// avail field is only ever a valid slot index while count > 0,
		// never the wider freeListEnd sentinel (avail is packed into
		// fewer bits than a full uint32), so there is nothing to walk.
		return nil
	}

	seen := make(map[uint32]bool, a.count)
	idx := a.avail
	walked := uint32(0)
	payload := desc.payload()
	// Walk exactly count links: once a super-block has been Full, the
	// tail of its free list holds the masked avail value, not freeListEnd.
	for walked < a.count && idx != freeListEnd {
		if idx >= desc.maxCount {
			return fmt.Errorf("%w: free-list index %d out of range [0,%d)", ErrInconsistent, idx, desc.maxCount)
		}
		if seen[idx] {
			return fmt.Errorf("%w: free list contains a cycle at index %d", ErrInconsistent, idx)
		}
		seen[idx] = true
		walked++
		if walked > desc.maxCount {
			return fmt.Errorf("%w: free list longer than max_count %d", ErrInconsistent, desc.maxCount)
		}
		idx = readNextIndex(payload, idx, desc.slotSize)
	}
	if walked != a.count {
		return fmt.Errorf("%w: free list length %d does not match anchor count %d", ErrInconsistent, walked, a.count)
	}
	return nil
}
