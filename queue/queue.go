// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queue

import (
	"sync/atomic"

	"code.hybscloud.com/slab/internal"
	"code.hybscloud.com/spin"
)

type node[T any] struct {
	next  atomic.Pointer[node[T]]
	value T
}

// Queue is a lock-free, unbounded, multi-producer multi-consumer FIFO.
// The zero value is not usable; construct with New. Queue is safe for
// concurrent use by any number of goroutines.
//
// head and tail are kept on separate cache lines: every Enqueue touches
// tail and every Dequeue touches head, so letting them share a line would
// make every producer and consumer false-share a cache line they don't
// actually contend over.
type Queue[T any] struct {
	head atomic.Pointer[node[T]]
	_    [internal.CacheLineSize - 8]byte
	tail atomic.Pointer[node[T]]
}

// New returns an empty Queue. The queue always holds one dummy node
// internally (the standard Michael & Scott construction) so Enqueue and
// Dequeue never need to special-case an empty list's head/tail update.
func New[T any]() *Queue[T] {
	dummy := &node[T]{}
	q := &Queue[T]{}
	q.head.Store(dummy)
	q.tail.Store(dummy)
	return q
}

// Enqueue appends value to the tail of the queue.
func (q *Queue[T]) Enqueue(value T) {
	n := &node[T]{value: value}
	sw := spin.Wait{}
	for {
		tail := q.tail.Load()
		next := tail.next.Load()
		if tail != q.tail.Load() {
			sw.Once()
			continue
		}
		if next == nil {
			if tail.next.CompareAndSwap(nil, n) {
				q.tail.CompareAndSwap(tail, n)
				return
			}
		} else {
			// Tail lags behind; help move it before retrying.
			q.tail.CompareAndSwap(tail, next)
		}
		sw.Once()
	}
}

// Dequeue removes and returns the value at the head of the queue.
// ok is false if the queue was empty.
func (q *Queue[T]) Dequeue() (value T, ok bool) {
	sw := spin.Wait{}
	for {
		head := q.head.Load()
		tail := q.tail.Load()
		next := head.next.Load()
		if head != q.head.Load() {
			sw.Once()
			continue
		}
		if head == tail {
			if next == nil {
				var zero T
				return zero, false
			}
			// Tail lags behind a completed enqueue; help move it.
			q.tail.CompareAndSwap(tail, next)
			sw.Once()
			continue
		}
		v := next.value
		if q.head.CompareAndSwap(head, next) {
			return v, true
		}
		sw.Once()
	}
}

// Empty reports whether the queue currently holds no elements. The
// result is a momentary snapshot under concurrent use.
func (q *Queue[T]) Empty() bool {
	head := q.head.Load()
	return head == q.tail.Load() && head.next.Load() == nil
}
