// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hazard_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"unsafe"

	"code.hybscloud.com/slab/hazard"
)

func TestProtectPreventsReclaim(t *testing.T) {
	var dom hazard.Domain
	val := new(int)
	*val = 42

	rec := dom.Acquire()
	rec.Protect(unsafe.Pointer(val))

	reclaimed := false
	dom.Retire(unsafe.Pointer(val), func(unsafe.Pointer) { reclaimed = true })
	if reclaimed {
		t.Fatal("reclaimed a pointer that is still protected")
	}

	rec.Clear()
	dom.Release(rec)
}

func TestAcquireReusesReleasedRecord(t *testing.T) {
	var dom hazard.Domain
	r1 := dom.Acquire()
	dom.Release(r1)
	r2 := dom.Acquire()
	if r1 != r2 {
		t.Fatal("expected Acquire to reuse a released record instead of allocating a new one")
	}
}

func TestConcurrentProtectRetire(t *testing.T) {
	var dom hazard.Domain
	const n = 32
	var reclaimedCount atomic.Int64

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			val := new(int)
			*val = i
			rec := dom.Acquire()
			defer dom.Release(rec)
			rec.Protect(unsafe.Pointer(val))
			rec.Clear()
			dom.Retire(unsafe.Pointer(val), func(unsafe.Pointer) {
				reclaimedCount.Add(1)
			})
		}(i)
	}
	wg.Wait()

	// Force a final scan so reclaim callbacks below scanThreshold still run.
	sentinel := new(int)
	for i := 0; i < 64; i++ {
		dom.Retire(unsafe.Pointer(sentinel), func(unsafe.Pointer) {})
	}
}
