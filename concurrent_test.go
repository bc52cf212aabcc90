// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slab_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"unsafe"

	"code.hybscloud.com/slab"
)

// TestConcurrentAllocFreeSingleHeap exercises many goroutines hammering
// one Heap's Alloc/Free in a tight loop (S3: single heap, many
// goroutines), checking only that every Alloc succeeds and its slot can
// be written and read back.
func TestConcurrentAllocFreeSingleHeap(t *testing.T) {
	sc, err := slab.NewSizeClass(32, slab.WithSuperBlockSize(4096))
	if err != nil {
		t.Fatal(err)
	}
	h := slab.NewHeap(sc)

	goroutines := 16
	iterations := 2000
	if raceEnabled {
		iterations = 200
	}

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				p, err := h.Alloc()
				if err != nil {
					t.Error(err)
					return
				}
				b := unsafe.Slice((*byte)(p), 32)
				b[0] = 0xAB
				if b[0] != 0xAB {
					t.Error("write/read through allocated slot failed")
					return
				}
				h.Free(p)
			}
		}()
	}
	wg.Wait()
}

// TestConcurrentMultipleHeapsShareSizeClass exercises the partial queue
// hand-off between independent Heaps sharing one SizeClass (S4): slots
// allocated on one Heap are freed on another.
func TestConcurrentMultipleHeapsShareSizeClass(t *testing.T) {
	sc, err := slab.NewSizeClass(48, slab.WithSuperBlockSize(4096))
	if err != nil {
		t.Fatal(err)
	}

	heapsCount := 8
	heaps := make([]*slab.Heap, heapsCount)
	for i := range heaps {
		heaps[i] = slab.NewHeap(sc)
	}

	perHeap := 500
	if raceEnabled {
		perHeap = 50
	}

	var produced atomic.Int64
	results := make(chan unsafe.Pointer, heapsCount*perHeap)

	var wg sync.WaitGroup
	for _, h := range heaps {
		wg.Add(1)
		go func(h *slab.Heap) {
			defer wg.Done()
			for i := 0; i < perHeap; i++ {
				p, err := h.Alloc()
				if err != nil {
					t.Error(err)
					return
				}
				produced.Add(1)
				results <- p
			}
		}(h)
	}
	wg.Wait()
	close(results)

	seen := make(map[uintptr]bool)
	var freer int
	for p := range results {
		addr := uintptr(p)
		if seen[addr] {
			t.Fatalf("duplicate live address %x across heaps sharing a size class", addr)
		}
		seen[addr] = true
		heaps[freer%len(heaps)].Free(p)
		freer++
	}

	if int(produced.Load()) != len(seen) {
		t.Fatalf("produced %d allocations but recorded %d distinct addresses", produced.Load(), len(seen))
	}
}

// TestConcurrentProducerConsumerChurn keeps a bounded working set of
// live allocations under concurrent alloc/free churn on one shared
// heap (S5/S6), verifying the allocator never hands out an address
// that some other goroutine still considers live.
func TestConcurrentProducerConsumerChurn(t *testing.T) {
	sc, err := slab.NewSizeClass(40, slab.WithSuperBlockSize(8192))
	if err != nil {
		t.Fatal(err)
	}
	h := slab.NewHeap(sc)

	workers := 12
	rounds := 3000
	if raceEnabled {
		rounds = 300
	}

	var mu sync.Mutex
	live := make(map[uintptr]bool)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				p, err := h.Alloc()
				if err != nil {
					t.Error(err)
					return
				}
				addr := uintptr(p)

				mu.Lock()
				if live[addr] {
					mu.Unlock()
					t.Errorf("address %x handed out while still live", addr)
					return
				}
				live[addr] = true
				mu.Unlock()

				mu.Lock()
				delete(live, addr)
				mu.Unlock()
				h.Free(p)
			}
		}()
	}
	wg.Wait()
}
