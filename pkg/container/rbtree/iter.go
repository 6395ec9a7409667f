package rbtree

import (
	"cmp"

	"github.com/sokoban-go/sokoban/pkg/container/alloc"
)

// Cursor is a double-ended in-order iterator over a Tree. Go has no native
// generator syntax, so this is the idiomatic stand-in for the reference
// implementation's forward/reverse Iterator: a small struct holding both
// traversal stacks, advanced explicitly by Next/Prev.
//
// Mutating the tree while a Cursor is live is unspecified, same as the
// reference. Double-ended exhaustion matches the reference precisely: once
// the forward and reverse walks meet (in either order of calls), both ends
// report exhausted forever after.
type Cursor[K cmp.Ordered, V any] struct {
	t *Tree[K, V]

	fwdStack []uint32
	fwdPtr   uint32
	fwdNode  uint32
	hasFwd   bool

	revStack []uint32
	revPtr   uint32
	revNode  uint32
	hasRev   bool

	terminated bool
}

// Iter returns a Cursor positioned before the first element.
func (t *Tree[K, V]) Iter() *Cursor[K, V] {
	return &Cursor[K, V]{t: t, fwdPtr: t.root, revPtr: t.root}
}

// Next returns the next key/value in ascending order, or false when
// exhausted.
func (c *Cursor[K, V]) Next() (K, *V, bool) {
	var zk K
	t := c.t
	for !c.terminated && (len(c.fwdStack) > 0 || c.fwdPtr != alloc.Sentinel) {
		if c.fwdPtr != alloc.Sentinel {
			c.fwdStack = append(c.fwdStack, c.fwdPtr)
			c.fwdPtr = t.left(c.fwdPtr)
			continue
		}
		node := c.fwdStack[len(c.fwdStack)-1]
		c.fwdStack = c.fwdStack[:len(c.fwdStack)-1]
		if c.hasRev && node == c.revNode {
			c.terminated = true
			return zk, nil, false
		}
		c.fwdNode, c.hasFwd = node, true
		c.fwdPtr = t.right(node)
		e := &t.a.Get(node).Value
		return e.key, &e.value, true
	}
	return zk, nil, false
}

// Prev returns the next key/value in descending order, or false when
// exhausted.
func (c *Cursor[K, V]) Prev() (K, *V, bool) {
	var zk K
	t := c.t
	for !c.terminated && (len(c.revStack) > 0 || c.revPtr != alloc.Sentinel) {
		if c.revPtr != alloc.Sentinel {
			c.revStack = append(c.revStack, c.revPtr)
			c.revPtr = t.right(c.revPtr)
			continue
		}
		node := c.revStack[len(c.revStack)-1]
		c.revStack = c.revStack[:len(c.revStack)-1]
		if c.hasFwd && node == c.fwdNode {
			c.terminated = true
			return zk, nil, false
		}
		c.revNode, c.hasRev = node, true
		c.revPtr = t.left(node)
		e := &t.a.Get(node).Value
		return e.key, &e.value, true
	}
	return zk, nil, false
}
