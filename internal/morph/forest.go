package morph

import (
	"fmt"
	"slices"

	"morphkit/arbor/internal/traverse"
)

// node is what a forest stores: something with a stable id
type node interface {
	comparable
	ID() uint32
}

// forest is the id-addressed section bookkeeping shared by the neurite tree
// and the mitochondria tree. Ids come from a monotonic counter and are never
// reused, even after deletion.
type forest[S node] struct {
	counter  uint32
	sections map[uint32]S
	roots    []S
	parent   map[uint32]uint32
	children map[uint32][]S
}

func newForest[S node]() forest[S] {
	return forest[S]{
		sections: make(map[uint32]S),
		parent:   make(map[uint32]uint32),
		children: make(map[uint32][]S),
	}
}

// peekID returns the id the next registered section will get
func (f *forest[S]) peekID() uint32 { return f.counter }

// register stores s and advances the counter past its id
func (f *forest[S]) register(s S) {
	id := s.ID()
	f.sections[id] = s
	if id >= f.counter {
		f.counter = id + 1
	}
}

func (f *forest[S]) addRoot(s S) {
	f.register(s)
	f.roots = append(f.roots, s)
}

func (f *forest[S]) addChild(parentID uint32, s S) {
	f.register(s)
	f.parent[s.ID()] = parentID
	f.children[parentID] = append(f.children[parentID], s)
}

func (f *forest[S]) owns(s S) bool {
	got, ok := f.sections[s.ID()]
	return ok && got == s
}

func (f *forest[S]) lookup(id uint32) (S, error) {
	s, ok := f.sections[id]
	if !ok {
		var zero S
		return zero, fmt.Errorf("%w: %d", ErrUnknownID, id)
	}
	return s, nil
}

// isRoot is true when id has no parent entry or its parent is gone
func (f *forest[S]) isRoot(id uint32) bool {
	pid, ok := f.parent[id]
	if !ok {
		return true
	}
	_, alive := f.sections[pid]
	return !alive
}

func (f *forest[S]) parentOf(id uint32) (S, error) {
	var zero S
	if f.isRoot(id) {
		return zero, fmt.Errorf("section %d: %w", id, ErrNoParent)
	}
	return f.sections[f.parent[id]], nil
}

func (f *forest[S]) childrenOf(id uint32) []S {
	return slices.Clone(f.children[id])
}

func (f *forest[S]) rootList() []S {
	return slices.Clone(f.roots)
}

// sorted returns every section ordered by id
func (f *forest[S]) sorted() []S {
	ids := make([]uint32, 0, len(f.sections))
	for id := range f.sections {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]S, len(ids))
	for i, id := range ids {
		out[i] = f.sections[id]
	}
	return out
}

func (f *forest[S]) size() int { return len(f.sections) }

func (f *forest[S]) tree() traverse.Tree[S] {
	return traverse.Tree[S]{
		Children: func(s S) []S { return f.children[s.ID()] },
		Parent: func(s S) (S, bool) {
			p, err := f.parentOf(s.ID())
			return p, err == nil
		},
	}
}

// remove unlinks id. A non-recursive removal splices the section out and
// hands its children to its former parent, or promotes them to roots.
// Unknown ids are ignored.
func (f *forest[S]) remove(id uint32, recursive bool) {
	s, ok := f.sections[id]
	if !ok {
		return
	}
	if recursive {
		doomed := f.tree().Breadth(s).Collect()
		for i := len(doomed) - 1; i >= 0; i-- {
			f.remove(doomed[i].ID(), false)
		}
		return
	}

	pid, hasParent := f.parent[id]
	if hasParent && !f.isRoot(id) {
		for _, c := range f.children[id] {
			f.parent[c.ID()] = pid
			f.children[pid] = append(f.children[pid], c)
		}
		f.children[pid] = slices.DeleteFunc(f.children[pid], func(c S) bool { return c.ID() == id })
	} else {
		for _, c := range f.children[id] {
			delete(f.parent, c.ID())
			f.roots = append(f.roots, c)
		}
	}
	f.roots = slices.DeleteFunc(f.roots, func(r S) bool { return r.ID() == id })

	delete(f.children, id)
	delete(f.parent, id)
	delete(f.sections, id)
}

// sortRoots stably reorders the root list
func (f *forest[S]) sortRoots(less func(a, b S) int) {
	slices.SortStableFunc(f.roots, less)
}
