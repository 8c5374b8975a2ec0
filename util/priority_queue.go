package util

import (
	"container/heap"

	"golang.org/x/exp/constraints"
)

//*******************************************
// priority queue
//*******************************************

type pqItem[T any, P constraints.Ordered] struct {
	value    T
	priority P
}

type pqHeap[T any, P constraints.Ordered] []pqItem[T, P]

func (self pqHeap[T, P]) Len() int           { return len(self) }
func (self pqHeap[T, P]) Less(i, j int) bool { return self[i].priority < self[j].priority }
func (self pqHeap[T, P]) Swap(i, j int)      { self[i], self[j] = self[j], self[i] }
func (self *pqHeap[T, P]) Push(x any)        { *self = append(*self, x.(pqItem[T, P])) }
func (self *pqHeap[T, P]) Pop() any {
	old := *self
	n := len(old)
	item := old[n-1]
	*self = old[:n-1]
	return item
}

// Min-queue, items with the lowest priority are dequeued first.
type PriorityQueue[T any, P constraints.Ordered] struct {
	items pqHeap[T, P]
}

func NewPriorityQueue[T any, P constraints.Ordered](cap int) PriorityQueue[T, P] {
	return PriorityQueue[T, P]{
		items: make(pqHeap[T, P], 0, cap),
	}
}

func (self *PriorityQueue[T, P]) Enqueue(value T, priority P) {
	heap.Push(&self.items, pqItem[T, P]{value: value, priority: priority})
}

func (self *PriorityQueue[T, P]) Dequeue() (T, bool) {
	if len(self.items) == 0 {
		var t T
		return t, false
	}
	item := heap.Pop(&self.items).(pqItem[T, P])
	return item.value, true
}

func (self *PriorityQueue[T, P]) Length() int {
	return len(self.items)
}
