// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slab

import "code.hybscloud.com/atomix"

// anchorWord is the decoded form of a descriptor's packed 64-bit anchor:
// (avail, count, state, tag). The packed form is the sole unit of atomic
// update; this struct only exists so call sites read and write fields by
// name instead of shifting bits inline.
type anchorWord struct {
	avail uint32 // index within the SB of the in-SB free-list head
	count uint32 // number of currently-free slots
	state State
	tag   uint64 // 42-bit monotonic, ABA guard
}

const (
	anchorAvailBits = 10
	anchorCountBits = 10
	anchorStateBits = 2
	anchorTagBits   = 64 - anchorAvailBits - anchorCountBits - anchorStateBits // 42

	anchorAvailShift = 0
	anchorCountShift = anchorAvailShift + anchorAvailBits
	anchorStateShift = anchorCountShift + anchorCountBits
	anchorTagShift   = anchorStateShift + anchorStateBits

	anchorAvailMask = uint64(1)<<anchorAvailBits - 1
	anchorCountMask = uint64(1)<<anchorCountBits - 1
	anchorStateMask = uint64(1)<<anchorStateBits - 1
	anchorTagMask   = uint64(1)<<anchorTagBits - 1
)

func packAnchor(a anchorWord) uint64 {
	return uint64(a.avail)&anchorAvailMask<<anchorAvailShift |
		uint64(a.count)&anchorCountMask<<anchorCountShift |
		uint64(a.state)&anchorStateMask<<anchorStateShift |
		a.tag&anchorTagMask<<anchorTagShift
}

func unpackAnchor(w uint64) anchorWord {
	return anchorWord{
		avail: uint32(w >> anchorAvailShift & anchorAvailMask),
		count: uint32(w >> anchorCountShift & anchorCountMask),
		state: State(w >> anchorStateShift & anchorStateMask),
		tag:   w >> anchorTagShift & anchorTagMask,
	}
}

// anchor is the descriptor's single atomically-updated control word.
// Every multi-field state transition on a descriptor goes through one
// CAS here; see alloc.go and free.go for the two protocols that mutate
// it (spec.md §4.F).
type anchor struct {
	word atomix.Uint64
}

func (a *anchor) init(w anchorWord) {
	a.word.StoreRelaxed(packAnchor(w))
}

// load reads the anchor with acquire semantics: ordering the
// caller's subsequent read of the in-SB free-list's next-pointer
// after this load, per spec.md §5.
func (a *anchor) load() anchorWord {
	return unpackAnchor(a.word.LoadAcquire())
}

// loadRelaxed is used where no ordering with other memory is required,
// e.g. a diagnostic read from the consistency checker.
func (a *anchor) loadRelaxed() anchorWord {
	return unpackAnchor(a.word.LoadRelaxed())
}

// cas attempts the anchor compare-and-swap with acquire-release ordering
// (acq-rel on success, acquire on failure), per spec.md §4.F and §5.
func (a *anchor) cas(old, new anchorWord) bool {
	return a.word.CompareAndSwapAcqRel(packAnchor(old), packAnchor(new))
}
