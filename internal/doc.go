// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package internal holds architecture facts shared by the slab allocator
// and its sibling packages: the L1 cache line size, used to pad the
// queue's head and tail apart to avoid false sharing, and an init-time
// check that panics unless the target is 64-bit.
package internal
