// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hazard

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"code.hybscloud.com/spin"
)

// scanThreshold is the number of pending retirements a Domain
// accumulates before it scans live Records and reclaims whatever is no
// longer protected. Classic hazard-pointer presentations call this R;
// a larger value amortizes the scan cost over more retirements at the
// price of more transient unreclaimed garbage.
const scanThreshold = 64

// Record is one accessor's hazard slot. A goroutine acquires a Record
// once (typically cached per-goroutine by the caller) and reuses it
// across many Protect/Clear cycles.
type Record struct {
	ptr    atomic.Pointer[byte]
	active atomic.Bool
	next   *Record // Domain's intrusive list of all records ever created
}

// Protect publishes addr as in-use, ordered so that any concurrent
// Retire of addr that happens-after this call is guaranteed to observe
// it. The caller must re-read the source pointer after Protect and
// retry if it changed, per the standard hazard-pointer read protocol:
//
//	for {
//	    p := atomic.LoadPointer(src)
//	    rec.Protect(p)
//	    if atomic.LoadPointer(src) != p { continue }
//	    // p is now safe to dereference until Clear
//	    break
//	}
func (r *Record) Protect(p unsafe.Pointer) {
	r.ptr.Store((*byte)(p))
}

// Clear retracts this Record's protection once the caller no longer
// needs the pointer.
func (r *Record) Clear() {
	r.ptr.Store(nil)
}

// Domain is a set of Records plus the retirement bookkeeping for one
// class of reclaimable objects (e.g. descriptors, or queue nodes).
// Zero value is ready to use.
type Domain struct {
	head atomic.Pointer[Record]

	mu      sync.Mutex
	retired []retiredEntry
}

type retiredEntry struct {
	ptr     unsafe.Pointer
	reclaim func(unsafe.Pointer)
}

// Acquire returns a Record for the calling goroutine's exclusive use
// until Release. It first looks for a retired (inactive) Record already
// in the domain before allocating a new one, bounding the live Record
// count by peak concurrency rather than cumulative Acquire calls.
func (d *Domain) Acquire() *Record {
	for r := d.head.Load(); r != nil; r = r.next {
		if r.active.CompareAndSwap(false, true) {
			return r
		}
	}

	r := &Record{}
	r.active.Store(true)
	sw := spin.Wait{}
	for {
		head := d.head.Load()
		r.next = head
		if d.head.CompareAndSwap(head, r) {
			return r
		}
		sw.Once()
	}
}

// Release returns a Record to the domain for reuse by a future Acquire.
// The caller must Clear it first if it still held a protection.
func (d *Domain) Release(r *Record) {
	r.active.Store(false)
}

// Retire defers reclaim(ptr) until no live Record in the domain protects
// ptr. reclaim runs synchronously on whichever goroutine's Retire call
// triggers the scan that finds ptr unprotected, which may not be this
// call.
func (d *Domain) Retire(ptr unsafe.Pointer, reclaim func(unsafe.Pointer)) {
	d.mu.Lock()
	d.retired = append(d.retired, retiredEntry{ptr: ptr, reclaim: reclaim})
	shouldScan := len(d.retired) >= scanThreshold
	var batch []retiredEntry
	if shouldScan {
		batch = d.retired
		d.retired = nil
	}
	d.mu.Unlock()

	if batch == nil {
		return
	}

	protected := d.snapshotProtected()
	var still []retiredEntry
	for _, e := range batch {
		if protected[e.ptr] {
			still = append(still, e)
			continue
		}
		e.reclaim(e.ptr)
	}
	if len(still) > 0 {
		d.mu.Lock()
		d.retired = append(d.retired, still...)
		d.mu.Unlock()
	}
}

func (d *Domain) snapshotProtected() map[unsafe.Pointer]bool {
	m := make(map[unsafe.Pointer]bool)
	for r := d.head.Load(); r != nil; r = r.next {
		if p := unsafe.Pointer(r.ptr.Load()); p != nil {
			m[p] = true
		}
	}
	return m
}
