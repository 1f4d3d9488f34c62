// Package traverse implements depth-first, breadth-first and upstream walks
// over any node type that can report its children and its parent.
package traverse

import (
	"errors"
	"fmt"
	"iter"
	"slices"
)

// ErrPastEnd is returned when reading or advancing an exhausted iterator
var ErrPastEnd = errors.New("cannot iterate past the end")

// Order selects the traversal shape
type Order int

const (
	DepthFirst Order = iota
	BreadthFirst
	Upstream
)

func (o Order) String() string {
	switch o {
	case DepthFirst:
		return "depth"
	case BreadthFirst:
		return "breadth"
	case Upstream:
		return "upstream"
	default:
		return fmt.Sprintf("order(%d)", int(o))
	}
}

// Tree holds the capability functions a traversal needs.
// Parent reports false for roots. When Graph is set every node is visited at
// most once, which makes the walks safe on graphs with shared descendants or cycles.
type Tree[T comparable] struct {
	Children func(T) []T
	Parent   func(T) (T, bool)
	Graph    bool
}

// Iterator is a lazy, single-use walk. Build a fresh one per traversal.
type Iterator[T comparable] struct {
	order   Order
	tree    Tree[T]
	stack   []T
	queues  [][]T
	visited map[T]struct{}
}

// End returns the canonical exhausted iterator for order
func End[T comparable](order Order) *Iterator[T] {
	return &Iterator[T]{order: order}
}

// Depth walks pre-order from each start in turn, children left to right
func (t Tree[T]) Depth(starts ...T) *Iterator[T] {
	it := t.newIterator(DepthFirst)
	for i := len(starts) - 1; i >= 0; i-- {
		it.push(starts[i])
	}
	return it
}

// Breadth walks level by level. Each start owns an inner queue which is
// drained completely before the next start's queue is touched.
func (t Tree[T]) Breadth(starts ...T) *Iterator[T] {
	it := t.newIterator(BreadthFirst)
	for _, s := range starts {
		if !it.markVisited(s) {
			continue
		}
		it.queues = append(it.queues, []T{s})
	}
	return it
}

// Upstream yields start, then each ancestor, ending with the root
func (t Tree[T]) Upstream(start T) *Iterator[T] {
	it := t.newIterator(Upstream)
	it.markVisited(start)
	it.stack = []T{start}
	return it
}

func (t Tree[T]) newIterator(order Order) *Iterator[T] {
	it := &Iterator[T]{order: order, tree: t}
	if t.Graph {
		it.visited = make(map[T]struct{})
	}
	return it
}

// markVisited records n and reports whether it had not been seen yet
func (it *Iterator[T]) markVisited(n T) bool {
	if it.visited == nil {
		return true
	}
	if _, seen := it.visited[n]; seen {
		return false
	}
	it.visited[n] = struct{}{}
	return true
}

func (it *Iterator[T]) push(n T) {
	if it.markVisited(n) {
		it.stack = append(it.stack, n)
	}
}

// Done reports whether the iterator is exhausted
func (it *Iterator[T]) Done() bool {
	if it.order == BreadthFirst {
		return len(it.queues) == 0
	}
	return len(it.stack) == 0
}

// Value returns the current node
func (it *Iterator[T]) Value() (T, error) {
	var zero T
	if it.Done() {
		return zero, it.pastEnd()
	}
	if it.order == BreadthFirst {
		return it.queues[0][0], nil
	}
	return it.stack[len(it.stack)-1], nil
}

// Next advances to the following node
func (it *Iterator[T]) Next() error {
	if it.Done() {
		return it.pastEnd()
	}
	switch it.order {
	case DepthFirst:
		top := it.stack[len(it.stack)-1]
		it.stack = it.stack[:len(it.stack)-1]
		children := it.tree.Children(top)
		for i := len(children) - 1; i >= 0; i-- {
			it.push(children[i])
		}
	case BreadthFirst:
		q := it.queues[0]
		head := q[0]
		q = q[1:]
		for _, c := range it.tree.Children(head) {
			if it.markVisited(c) {
				q = append(q, c)
			}
		}
		if len(q) == 0 {
			it.queues = it.queues[1:]
		} else {
			it.queues[0] = q
		}
	case Upstream:
		cur := it.stack[0]
		parent, ok := it.tree.Parent(cur)
		if !ok || !it.markVisited(parent) {
			it.stack = nil
		} else {
			it.stack[0] = parent
		}
	}
	return nil
}

func (it *Iterator[T]) pastEnd() error {
	if it.order == Upstream {
		return fmt.Errorf("%w: upstream walk already yielded the root", ErrPastEnd)
	}
	return ErrPastEnd
}

// Equal compares the iterators' pending position state
func (it *Iterator[T]) Equal(other *Iterator[T]) bool {
	if it == nil || other == nil {
		return it == other
	}
	if it.order != other.order {
		return false
	}
	if it.order == BreadthFirst {
		return slices.EqualFunc(it.queues, other.queues, func(a, b []T) bool {
			return slices.Equal(a, b)
		})
	}
	return slices.Equal(it.stack, other.stack)
}

// All drains the iterator as a range-over-func sequence
func (it *Iterator[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for !it.Done() {
			v, _ := it.Value()
			if !yield(v) {
				return
			}
			_ = it.Next()
		}
	}
}

// Collect drains the iterator into a slice
func (it *Iterator[T]) Collect() []T {
	var out []T
	for v := range it.All() {
		out = append(out, v)
	}
	return out
}
