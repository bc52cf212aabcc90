// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slab

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"code.hybscloud.com/slab/hazard"
	"code.hybscloud.com/spin"
)

// descPool is a lock-free Treiber stack of free Descriptors, shared by
// every SizeClass in the process. Descriptors are never individually
// freed to the Go heap: they live forever in fixed NumDescBatch arenas
// (make([]Descriptor, NumDescBatch)), so a *Descriptor popped from the
// stack is always a valid Go object even if it momentarily refers to a
// retired super-block (spec.md §4.B names this pool and its hazard
// protection explicitly).
type descPool struct {
	head atomic.Pointer[Descriptor]

	// arenas keeps every arena reachable: a Full descriptor may otherwise
	// be referenced only from a super-block header, which the garbage
	// collector does not scan.
	arenas [][]Descriptor

	dom hazard.Domain

	growMu sync.Mutex
}

var globalDescPool = newDescPool()

func newDescPool() *descPool {
	p := &descPool{}
	p.grow()
	return p
}

// grow allocates one more NumDescBatch arena and pushes every descriptor
// in it onto the free stack. Arenas are never released: this is the one
// place in the package that grows monotonically, mirroring the teacher
// lineage's preference for a small number of large, long-lived
// allocations over many small ones.
func (p *descPool) grow() {
	arena := make([]Descriptor, NumDescBatch)
	p.arenas = append(p.arenas, arena)
	for i := range arena {
		d := &arena[i]
		p.push(d)
	}
}

func (p *descPool) push(d *Descriptor) {
	sw := spin.Wait{}
	for {
		head := p.head.Load()
		d.poolNext = head
		if p.head.CompareAndSwap(head, d) {
			return
		}
		sw.Once()
	}
}

// acquire pops a free descriptor, growing the pool by one more arena if
// it is empty. The returned descriptor's fields are zero except the
// anchor, which keeps the value it had when the descriptor was last
// retired, and poolNext; the caller must not rely on either.
func (p *descPool) acquire() *Descriptor {
	rec := p.dom.Acquire()
	defer p.dom.Release(rec)

	sw := spin.Wait{}
	for {
		head := p.head.Load()
		if head == nil {
			p.growMu.Lock()
			if p.head.Load() == nil {
				p.grow()
			}
			p.growMu.Unlock()
			sw.Once()
			continue
		}
		rec.Protect(unsafe.Pointer(head))
		if p.head.Load() != head {
			sw.Once()
			continue
		}
		next := head.poolNext
		if p.head.CompareAndSwap(head, next) {
			rec.Clear()
			return head
		}
		sw.Once()
	}
}

// release defers d's return to the free stack until no live hazard
// Record in p.dom still protects it (spec.md §4.D, §5): another thread
// may still hold a raw *Descriptor obtained via acquire's Treiber-stack
// pop and be mid-CAS against it, so releasing d immediately would let
// acquire hand the same memory to a brand-new super-block while that
// CAS is still in flight. d must have no remaining references from any
// super-block header or active/partial slot before release is called.
func (p *descPool) release(d *Descriptor) {
	p.dom.Retire(unsafe.Pointer(d), func(ptr unsafe.Pointer) {
		desc := (*Descriptor)(ptr)
		desc.release()
		p.push(desc)
	})
}
