// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slab

import (
	"sync"
	"testing"
)

func TestDescPoolAcquireReleaseRoundTrip(t *testing.T) {
	p := newDescPool()
	// release defers reclamation to the hazard domain until a full
	// retirement batch accumulates (the domain's scan threshold and
	// NumDescBatch both happen to be 64), so a single acquire/release
	// pair never observes the clear; drive enough rounds to force it.
	const rounds = NumDescBatch * 4
	for i := 0; i < rounds; i++ {
		d := p.acquire()
		if d == nil {
			t.Fatal("acquire returned nil")
		}
		d.slotSize = 64 // simulate prior use
		p.release(d)
	}
	for i := 0; i < rounds; i++ {
		d := p.acquire()
		if d.slotSize != 0 {
			t.Fatal("release should eventually clear descriptor fields before reuse")
		}
		p.release(d)
	}
}

func TestDescPoolGrowsPastOneBatch(t *testing.T) {
	p := newDescPool()
	acquired := make([]*Descriptor, 0, NumDescBatch+1)
	for i := 0; i < NumDescBatch+1; i++ {
		acquired = append(acquired, p.acquire())
	}
	seen := make(map[*Descriptor]bool, len(acquired))
	for _, d := range acquired {
		if seen[d] {
			t.Fatal("acquire returned the same descriptor twice without an intervening release")
		}
		seen[d] = true
	}
}

func TestDescPoolConcurrentAcquireRelease(t *testing.T) {
	p := newDescPool()
	const goroutines = 16
	const iterations = 200

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				d := p.acquire()
				p.release(d)
			}
		}()
	}
	wg.Wait()
}
