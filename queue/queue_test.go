// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queue_test

import (
	"sort"
	"sync"
	"testing"

	"code.hybscloud.com/slab/queue"
)

func TestEnqueueDequeueFIFO(t *testing.T) {
	q := queue.New[int]()
	for i := 0; i < 100; i++ {
		q.Enqueue(i)
	}
	for i := 0; i < 100; i++ {
		v, ok := q.Dequeue()
		if !ok || v != i {
			t.Fatalf("got (%d,%v), want (%d,true)", v, ok, i)
		}
	}
	if _, ok := q.Dequeue(); ok {
		t.Fatal("expected empty queue")
	}
}

func TestEmpty(t *testing.T) {
	q := queue.New[int]()
	if !q.Empty() {
		t.Fatal("new queue should be empty")
	}
	q.Enqueue(1)
	if q.Empty() {
		t.Fatal("queue with one element should not be empty")
	}
	q.Dequeue()
	if !q.Empty() {
		t.Fatal("drained queue should be empty again")
	}
}

func TestConcurrentProducersConsumers(t *testing.T) {
	q := queue.New[int]()
	const producers = 8
	const perProducer = 1000

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Enqueue(base*perProducer + i)
			}
		}(p)
	}
	wg.Wait()

	var mu sync.Mutex
	var got []int
	var cwg sync.WaitGroup
	for c := 0; c < producers; c++ {
		cwg.Add(1)
		go func() {
			defer cwg.Done()
			for {
				v, ok := q.Dequeue()
				if !ok {
					return
				}
				mu.Lock()
				got = append(got, v)
				mu.Unlock()
			}
		}()
	}
	cwg.Wait()

	if len(got) != producers*perProducer {
		t.Fatalf("got %d values, want %d", len(got), producers*perProducer)
	}
	sort.Ints(got)
	for i, v := range got {
		if v != i {
			t.Fatalf("value set is not {0..%d}: got[%d]=%d", producers*perProducer-1, i, v)
		}
	}
}
