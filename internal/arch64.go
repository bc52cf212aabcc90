// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package internal

import "unsafe"

// init panics on platforms without a native 64-bit word, since the Anchor's
// packed (avail, count, state, tag) representation and the queue and
// descriptor-pool atomics all depend on a single-instruction 64-bit
// compare-and-swap.
func init() {
	if unsafe.Sizeof(uintptr(0)) < 8 {
		panic("slab: requires a 64-bit platform (64-bit CAS on the anchor word)")
	}
}
