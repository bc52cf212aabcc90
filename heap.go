// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slab

import "sync/atomic"

// Heap is one allocator front-end for a SizeClass: a single "active"
// descriptor slot plus the alloc/free algorithms that use it. Multiple
// Heaps may share one SizeClass (the usual arrangement is one Heap per
// OS thread), in which case the SizeClass's partial queue and
// descriptor pool are the only state they contend over; the active
// slot itself is exclusive to one Heap at a time (spec.md §2, §4.D).
//
// Heap is safe for concurrent use: Alloc and Free may be called from
// multiple goroutines against the same Heap, though the usual intended
// shape is one Heap per goroutine/thread to keep the active-slot CAS
// uncontended.
type Heap struct {
	sc     *SizeClass
	active atomic.Pointer[Descriptor]
}

// NewHeap returns a Heap drawing super-blocks from sc. sc may be shared
// by any number of Heaps.
func NewHeap(sc *SizeClass) *Heap {
	return &Heap{sc: sc}
}

// SizeClass returns the Heap's underlying size class.
func (h *Heap) SizeClass() *SizeClass {
	return h.sc
}
