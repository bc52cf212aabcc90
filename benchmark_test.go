// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package slab_test

import (
	"testing"

	"code.hybscloud.com/slab"
)

func BenchmarkAllocFreeSingleHeap(b *testing.B) {
	sc, err := slab.NewSizeClass(64)
	if err != nil {
		b.Fatal(err)
	}
	h := slab.NewHeap(sc)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p, err := h.Alloc()
		if err != nil {
			b.Fatal(err)
		}
		h.Free(p)
	}
}

func BenchmarkAllocFreeParallelSharedSizeClass(b *testing.B) {
	sc, err := slab.NewSizeClass(64)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		h := slab.NewHeap(sc)
		for pb.Next() {
			p, err := h.Alloc()
			if err != nil {
				b.Fatal(err)
			}
			h.Free(p)
		}
	})
}
