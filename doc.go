// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package slab implements a lock-free segregated-size-class allocator
// for small, fixed-size objects, after M. Michael, "Scalable Lock-Free
// Dynamic Memory Allocation" (PLDI 2004).
//
// # Design
//
// Memory is carved from the OS (or the Go heap, by default) in
// super-blocks of a fixed, power-of-two size. Each super-block is
// divided into equal-size slots and tracked by one Descriptor, whose
// atomically-updated anchor word (avail/count/state/tag) is the sole
// synchronization point for every slot transition. A SizeClass owns
// the descriptors for one slot size; any number of Heaps may share a
// SizeClass, handing descriptors between each other through a
// lock-free partial queue when a super-block stops being any one
// Heap's active slot.
//
// # Usage
//
//	sc, err := slab.NewSizeClass(64)
//	if err != nil {
//	    // handle invalid slot size
//	}
//	h := slab.NewHeap(sc)
//	p, err := h.Alloc()
//	if err != nil {
//	    // handle out of memory
//	}
//	h.Free(p)
//
// # Concurrency and Memory Reclamation
//
// Descriptor reclamation uses hazard pointers (package hazard), after
// M. Michael, "Safe Memory Reclamation for Dynamic Lock-Free Objects
// Using Atomic Reads and Writes" (PODC 2002). The partial queue itself
// (package queue) is the lock-free MPMC queue of M. Michael & M. Scott,
// "Simple, Fast, and Practical Non-Blocking and Blocking Concurrent
// Queue Algorithms" (PODC 1996); its nodes are ordinary Go objects left
// to the garbage collector.
//
// # Architecture Requirements
//
// This package requires a 64-bit CPU architecture (amd64, arm64,
// riscv64, loong64): the anchor's packed representation and the
// descriptor pool depend on a single-instruction 64-bit
// compare-and-swap.
//
// # Dependencies
//
// slab depends on:
//   - atomix: explicit-ordering typed atomics for the anchor word
//   - iox: semantic error types (ErrWouldBlock) used by the recycle cache
//   - spin: spin-wait primitives for CAS-retry backoff
//   - golang.org/x/sys/unix: optional mmap-backed memory provider (linux)
package slab
