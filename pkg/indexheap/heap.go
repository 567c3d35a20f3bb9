// Package indexheap provides an intrusive binary min-heap whose items carry
// their own heap position.
//
// Unlike container/heap, removing an arbitrary item does not require a search:
// the heap reports every position change through SetIndex and reads it back
// through Index, so Remove runs in O(log n).
package indexheap

import "fmt"

// Heap is a binary min-heap over item handles of type T.
//
// Compare orders two items (<0, 0, >0). SetIndex stores an item's slot in the
// backing array and Index reads it back; the heap calls SetIndex after every
// move, so Index(item) always equals the item's true position while it is in
// the heap.
//
// Inconsistencies between cached and true positions are programming errors
// and cause a panic.
type Heap[T any] struct {
	items    []T
	compare  func(a, b T) int
	setIndex func(item T, i int)
	index    func(item T) int
}

// New creates an empty heap using the given callbacks.
func New[T any](compare func(a, b T) int, setIndex func(item T, i int), index func(item T) int) *Heap[T] {
	return &Heap[T]{
		compare:  compare,
		setIndex: setIndex,
		index:    index,
	}
}

// Len returns the number of items in the heap.
func (h *Heap[T]) Len() int {
	return len(h.items)
}

// Peek returns the minimum item without removing it.
// The second result is false if the heap is empty.
func (h *Heap[T]) Peek() (T, bool) {
	if len(h.items) == 0 {
		var zero T
		return zero, false
	}
	return h.items[0], true
}

// Init takes ownership of items and arranges them into a heap in O(n).
// Every item's index is stored through SetIndex once ordering is restored.
func (h *Heap[T]) Init(items []T) {
	h.items = items
	n := len(items)
	for i := n/2 - 1; i >= 0; i-- {
		h.siftDown(i)
	}
	for i, item := range h.items {
		if i > 0 {
			parent := (i - 1) / 2
			if h.compare(h.items[parent], item) > 0 {
				panic(fmt.Sprintf("indexheap: parent %d orders after child %d after heapify", parent, i))
			}
		}
		h.setIndex(item, i)
	}
}

// Push inserts an item.
func (h *Heap[T]) Push(item T) {
	h.items = append(h.items, item)
	i := len(h.items) - 1
	h.setIndex(item, i)
	h.siftUp(i)
}

// Remove deletes item from the heap using its cached index.
// The hole is filled with the last item and repaired in one direction only.
func (h *Heap[T]) Remove(item T) {
	i := h.index(item)
	if i < 0 || i >= len(h.items) {
		panic(fmt.Sprintf("indexheap: cached index %d out of range [0,%d)", i, len(h.items)))
	}
	last := len(h.items) - 1
	if i != last {
		h.items[i] = h.items[last]
		h.setIndex(h.items[i], i)
	}
	var zero T
	h.items[last] = zero
	h.items = h.items[:last]
	h.setIndex(item, -1)
	if i == last {
		return
	}

	if i > 0 && h.compare(h.items[i], h.items[(i-1)/2]) < 0 {
		h.siftUp(i)
	} else {
		h.siftDown(i)
	}
}

// Items returns the backing array in heap order. It must not be modified.
func (h *Heap[T]) Items() []T {
	return h.items
}

// Verify checks the heap property and every cached index.
// It returns the first violation found.
func (h *Heap[T]) Verify() error {
	for i, item := range h.items {
		if got := h.index(item); got != i {
			return fmt.Errorf("item at %d caches index %d", i, got)
		}
		if i > 0 {
			parent := (i - 1) / 2
			if h.compare(h.items[parent], item) > 0 {
				return fmt.Errorf("parent %d orders after child %d", parent, i)
			}
		}
	}
	return nil
}

func (h *Heap[T]) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if h.compare(h.items[i], h.items[parent]) >= 0 {
			break
		}
		h.swap(i, parent)
		i = parent
	}
}

func (h *Heap[T]) siftDown(i int) {
	n := len(h.items)
	for {
		left := 2*i + 1
		if left >= n {
			return
		}
		smallest := left
		if right := left + 1; right < n && h.compare(h.items[right], h.items[left]) < 0 {
			smallest = right
		}
		if h.compare(h.items[smallest], h.items[i]) >= 0 {
			return
		}
		h.swap(i, smallest)
		i = smallest
	}
}

func (h *Heap[T]) swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.setIndex(h.items[i], i)
	h.setIndex(h.items[j], j)
}
