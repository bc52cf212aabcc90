// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package queue implements the lock-free, linked-node (one node
// allocated per Enqueue), multi-producer multi-consumer FIFO queue (M. Michael & M. Scott, "Simple, Fast, and
// Practical Non-Blocking and Blocking Concurrent Queue Algorithms", PODC
// 1996) used to hold partially-full super-block descriptors between the
// time a descriptor stops being any heap's single active slot and the
// time some heap picks it back up.
//
// Node linkage uses real Go pointer types throughout (atomic.Pointer,
// not an integer-encoded address) so the garbage collector can always
// see a live path to a queued node; only the caller-supplied payload
// value is opaque.
package queue
