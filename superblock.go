// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slab

import (
	"unsafe"
)

// A super-block is a contiguous region of sbSize bytes, aligned to sbSize.
// The first SuperBlockHeaderSize bytes hold exactly one word: a pointer
// back to the owning Descriptor. The remainder is carved into slotSize
// slots. Given any address inside a slot, the owning descriptor is
// recoverable in O(1) by masking off the low log2(sbSize) bits of the
// address and reading the word stored there — descriptorForAddr below.
//
// writeSBHeader must happen-before the super-block's address is published
// to any other thread (the active-slot CAS or a partial-queue enqueue),
// per spec.md §5.

// writeSBHeader stores d at the base of the super-block starting at base.
func writeSBHeader(base unsafe.Pointer, d *Descriptor) {
	*(*unsafe.Pointer)(base) = unsafe.Pointer(d)
}

// readSBHeader reads the owning descriptor from a super-block's base.
func readSBHeader(base unsafe.Pointer) *Descriptor {
	return (*Descriptor)(*(*unsafe.Pointer)(base))
}

// sbBaseOf masks addr down to its enclosing super-block's base address.
// sbMask is sbSize-1 for a power-of-two sbSize.
func sbBaseOf(addr unsafe.Pointer, sbMask uintptr) unsafe.Pointer {
	return unsafe.Pointer(uintptr(addr) &^ sbMask)
}

// descriptorForAddr recovers the descriptor owning the super-block that
// contains addr. This is the sole mechanism the free path uses to
// identify ownership (spec.md §3); it is O(1) and pointer-only.
func descriptorForAddr(addr unsafe.Pointer, sbMask uintptr) *Descriptor {
	return readSBHeader(sbBaseOf(addr, sbMask))
}

// slotAddr returns the address of the slot at index i within the
// super-block whose payload (post-header) base is payload.
func slotAddr(payload unsafe.Pointer, i uint32, slotSize uintptr) unsafe.Pointer {
	return unsafe.Add(payload, uintptr(i)*slotSize)
}

// slotIndexOf returns the index of the slot containing ptr, given the
// super-block's payload base and slot size. The caller asserts the
// result is in range; out-of-range is a double-free or foreign-pointer
// programming error (spec.md §7).
func slotIndexOf(ptr, payload unsafe.Pointer, slotSize uintptr) uint32 {
	return uint32((uintptr(ptr) - uintptr(payload)) / slotSize)
}

// readNextIndex reads the in-place free-list next-index stored in the
// first 4 bytes of the free slot at index i.
func readNextIndex(payload unsafe.Pointer, i uint32, slotSize uintptr) uint32 {
	return *(*uint32)(slotAddr(payload, i, slotSize))
}

// writeNextIndex stores next into the first 4 bytes of the free slot at
// index i, pushing it onto the in-SB free list.
func writeNextIndex(payload unsafe.Pointer, i uint32, slotSize uintptr, next uint32) {
	*(*uint32)(slotAddr(payload, i, slotSize)) = next
}
