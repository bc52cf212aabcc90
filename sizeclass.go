// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slab

import (
	"sync/atomic"

	"code.hybscloud.com/slab/queue"
)

// SizeClass groups every super-block carrying slots of one fixed size.
// Any number of Heaps (typically one per OS thread or per P, per
// spec.md's intended usage) may share a SizeClass; the partial queue is
// exactly the mechanism by which a descriptor retired as "no longer
// active" on one Heap becomes available to any other Heap needing a
// slot of this size (spec.md §2, §4.C).
type SizeClass struct {
	slotSize   int
	slotsPerSB uint32
	sbSize     int
	sbMask     uintptr

	provider Provider
	partial  *queue.Queue[*Descriptor]

	sbCreated atomic.Uint64
	sbRetired atomic.Uint64
}

// Stats is a diagnostics-only snapshot of a SizeClass's super-block
// churn. It is not used by the allocation or free paths themselves;
// nothing in this package reads it back.
type Stats struct {
	SuperBlocksCreated uint64
	SuperBlocksRetired uint64
}

// Stats returns a snapshot of sc's super-block churn counters.
func (sc *SizeClass) Stats() Stats {
	return Stats{
		SuperBlocksCreated: sc.sbCreated.Load(),
		SuperBlocksRetired: sc.sbRetired.Load(),
	}
}

// NewSizeClass validates slotSize and constructs a SizeClass ready to
// back one or more Heaps. slotSize must fit within [MinSlotSize,
// MaxSmallSize] and must leave room in sbSize for at least one slot
// after SuperBlockHeaderSize.
func NewSizeClass(slotSize int, opts ...Option) (*SizeClass, error) {
	if slotSize < MinSlotSize || slotSize > MaxSmallSize {
		return nil, ErrInvalidSlotSize
	}

	cfg := defaultSCConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.sbSize <= 0 || cfg.sbSize&(cfg.sbSize-1) != 0 {
		return nil, ErrInvalidSlotSize
	}

	usable := cfg.sbSize - SuperBlockHeaderSize
	slotsPerSB := usable / slotSize
	if slotsPerSB < 1 {
		return nil, ErrInvalidSlotSize
	}
	if slotsPerSB > maxAnchorCount-1 {
		// The anchor's count field is 10 bits wide, so it can only
		// represent values up to maxAnchorCount-1; max_count itself
		// must stay strictly below maxAnchorCount (types.go's comment on
		// maxAnchorCount).
		slotsPerSB = maxAnchorCount - 1
	}

	provider := cfg.provider
	if provider == nil {
		provider = newGoProvider(cfg.recycleCapacity)
	}

	return &SizeClass{
		slotSize:   slotSize,
		slotsPerSB: uint32(slotsPerSB),
		sbSize:     cfg.sbSize,
		sbMask:     uintptr(cfg.sbSize - 1),
		provider:   provider,
		partial:    queue.New[*Descriptor](),
	}, nil
}

// newSuperBlock asks the provider for a fresh, aligned region and wires
// up a freshly-acquired descriptor to own it.
func (sc *SizeClass) newSuperBlock() (*Descriptor, error) {
	base, err := sc.provider.AllocAligned(sc.sbSize, uintptr(sc.sbSize))
	if err != nil {
		return nil, err
	}
	d := globalDescPool.acquire()
	d.resetFull(sc, base)
	// Publish the owning descriptor before this super-block's address
	// can reach any other goroutine (active-slot CAS or partial-queue
	// push), so descriptorForAddr is always well-defined (spec.md §5).
	writeSBHeader(base, d)
	sc.sbCreated.Add(1)
	return d, nil
}

// retireSuperBlock returns a fully-empty super-block's memory to the
// provider and its descriptor to the pool.
func (sc *SizeClass) retireSuperBlock(d *Descriptor) {
	base := d.sb
	sc.provider.FreeAligned(base, sc.sbSize)
	globalDescPool.release(d)
	sc.sbRetired.Add(1)
}

func (sc *SizeClass) pushPartial(d *Descriptor) {
	sc.partial.Enqueue(d)
}

func (sc *SizeClass) popPartial() (*Descriptor, bool) {
	return sc.partial.Dequeue()
}
