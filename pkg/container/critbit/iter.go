package critbit

import "github.com/sokoban-go/sokoban/pkg/container/alloc"

// Cursor is a double-ended in-order iterator over a Tree. Unlike rbtree and
// avltree's Cursor, the forward and reverse walks here are independent
// stacks with no shared termination check, matching the reference
// implementation's critbit iterator exactly: each direction visits every
// element regardless of the other, so mixing Next and Prev calls on the
// same Cursor revisits elements the other direction already returned. Callers
// that need strict double-ended exhaustion should iterate one direction at
// a time.
type Cursor[V any] struct {
	t        *Tree[V]
	stack    []uint32
	revStack []uint32
}

// Iter returns a Cursor positioned at the tree's root.
func (t *Tree[V]) Iter() *Cursor[V] {
	return &Cursor[V]{t: t, stack: []uint32{t.root}, revStack: []uint32{t.root}}
}

// Next walks the tree depth-first, left before right, which yields keys in
// ascending order since a critbit tree's left child always holds the
// smaller keys.
func (c *Cursor[V]) Next() (Key128, *V, bool) {
	var zk Key128
	t := c.t
	for len(c.stack) > 0 {
		n := c.stack[len(c.stack)-1]
		c.stack = c.stack[:len(c.stack)-1]
		if n == alloc.Sentinel {
			continue
		}
		if !t.isInner(n) {
			node := t.node(n)
			return node.key, &t.leaves.Get(t.leafRef(n)).Value, true
		}
		c.stack = append(c.stack, t.right(n), t.left(n))
	}
	return zk, nil, false
}

// Prev walks the tree depth-first, right before left, yielding keys in
// descending order.
func (c *Cursor[V]) Prev() (Key128, *V, bool) {
	var zk Key128
	t := c.t
	for len(c.revStack) > 0 {
		n := c.revStack[len(c.revStack)-1]
		c.revStack = c.revStack[:len(c.revStack)-1]
		if n == alloc.Sentinel {
			continue
		}
		if !t.isInner(n) {
			node := t.node(n)
			return node.key, &t.leaves.Get(t.leafRef(n)).Value, true
		}
		c.revStack = append(c.revStack, t.left(n), t.right(n))
	}
	return zk, nil, false
}
