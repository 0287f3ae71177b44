package lazyload

import "slices"

// Queue holds pending items in insertion order.
type Queue struct {
	items []Item
}

func (q *Queue) Push(items ...Item) {
	q.items = append(q.items, items...)
}

func (q *Queue) Len() int {
	return len(q.items)
}

// Items returns a copy of the pending items.
func (q *Queue) Items() []Item {
	return slices.Clone(q.items)
}

// Sweep walks the queue once in order. Each item for which ready returns
// true is removed and then handed to render before the next item is
// examined. The index only advances past items that stay, so removal never
// skips a neighbour. Because the item leaves the queue before render runs, a
// nested Sweep started from render cannot see it again. Sweep returns the
// number of rendered items.
func (q *Queue) Sweep(ready func(Item) bool, render func(Item)) int {
	n := 0
	for i := 0; i < len(q.items); {
		it := q.items[i]
		if !ready(it) {
			i++
			continue
		}
		q.items = slices.Delete(q.items, i, i+1)
		n++
		render(it)
	}
	return n
}
