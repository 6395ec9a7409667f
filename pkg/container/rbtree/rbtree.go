// Package rbtree implements a fixed-capacity, zero-copy-friendly red-black
// tree ordered map, built on top of pkg/container/alloc. It is a bottom-up,
// iterative CLRS-variant red-black tree: every node's topology lives in
// four allocator registers (left, right, parent, color) instead of machine
// pointers, so the whole tree is relocatable plain data.
package rbtree

import (
	"cmp"
	"fmt"

	"github.com/sokoban-go/sokoban/pkg/container/alloc"
)

// Register indices, matching the reference TreeField enum.
const (
	fieldLeft   = 0
	fieldRight  = 1
	fieldParent = 2
	fieldColor  = 3 // reuses the "value" register slot, same as the reference's COLOR = Field::Value
)

// Rotation directions. LEFT and RIGHT are deliberately 0 and 1 so that
// opposite(dir) can be computed as 1-dir.
const (
	Left  = 0
	Right = 1
)

func opposite(dir uint32) uint32 { return 1 - dir }

const (
	colorBlack = 0
	colorRed   = 1
)

type entry[K cmp.Ordered, V any] struct {
	key   K
	value V
}

// Tree is a fixed-capacity red-black tree ordered map from K to V.
type Tree[K cmp.Ordered, V any] struct {
	root uint32
	a    *alloc.Allocator[entry[K, V]]
}

// New constructs a Tree with capacity maxSize-1.
func New[K cmp.Ordered, V any](maxSize uint32) (*Tree[K, V], error) {
	a, err := alloc.New[entry[K, V]](maxSize, 4)
	if err != nil {
		return nil, fmt.Errorf("rbtree: %w", err)
	}
	return &Tree[K, V]{root: alloc.Sentinel, a: a}, nil
}

// Len returns the number of keys currently stored.
func (t *Tree[K, V]) Len() int { return t.a.Len() }

// Cap returns the maximum number of keys the tree can hold.
func (t *Tree[K, V]) Cap() int { return t.a.Cap() }

// Stats returns the tree's allocator introspection snapshot.
func (t *Tree[K, V]) Stats() alloc.Stats { return t.a.Stats() }

func (t *Tree[K, V]) key(n uint32) K   { return t.a.Get(n).Value.key }
func (t *Tree[K, V]) val(n uint32) V   { return t.a.Get(n).Value.value }
func (t *Tree[K, V]) setVal(n uint32, v V) {
	e := t.a.Get(n)
	e.Value.value = v
}

func (t *Tree[K, V]) left(n uint32) uint32   { return t.a.GetRegister(n, fieldLeft) }
func (t *Tree[K, V]) right(n uint32) uint32  { return t.a.GetRegister(n, fieldRight) }
func (t *Tree[K, V]) parent(n uint32) uint32 { return t.a.GetRegister(n, fieldParent) }

func (t *Tree[K, V]) isRed(n uint32) bool   { return t.a.GetRegister(n, fieldColor) == colorRed }
func (t *Tree[K, V]) isBlack(n uint32) bool { return t.a.GetRegister(n, fieldColor) == colorBlack }
func (t *Tree[K, V]) colorRed(n uint32) {
	if n != alloc.Sentinel {
		t.a.SetRegister(n, fieldColor, colorRed)
	}
}
func (t *Tree[K, V]) colorBlack(n uint32)          { t.a.SetRegister(n, fieldColor, colorBlack) }
func (t *Tree[K, V]) colorNode(n uint32, c uint32) { t.a.SetRegister(n, fieldColor, c) }

func (t *Tree[K, V]) isLeaf(n uint32) bool {
	return t.left(n) == alloc.Sentinel && t.right(n) == alloc.Sentinel
}
func (t *Tree[K, V]) isRoot(n uint32) bool { return t.root == n }

func (t *Tree[K, V]) child(n uint32, dir uint32) uint32 {
	return t.a.GetRegister(n, int(dir))
}

func (t *Tree[K, V]) connect(parent, child uint32, dir uint32) {
	t.a.Connect(parent, child, int(dir), fieldParent)
}

func (t *Tree[K, V]) childDir(parent, child uint32) uint32 {
	switch child {
	case t.left(parent):
		return fieldLeft
	case t.right(parent):
		return fieldRight
	default:
		panic("rbtree: nodes are not connected")
	}
}

// rotateDir promotes parent's opposite(dir) child into parent's place;
// parent becomes that node's dir child. Returns the new subtree root.
func (t *Tree[K, V]) rotateDir(parentIdx uint32, dir uint32) uint32 {
	grandparent := t.parent(parentIdx)
	sibling := t.child(parentIdx, opposite(dir))
	child := t.child(sibling, dir)
	t.connect(sibling, parentIdx, dir)
	t.connect(parentIdx, child, opposite(dir))
	if grandparent != alloc.Sentinel {
		t.connect(grandparent, sibling, t.childDir(grandparent, parentIdx))
	} else {
		t.a.ClearRegister(sibling, fieldParent)
		t.root = sibling
	}
	return sibling
}

// Insert upserts key with value, returning the slot index and false iff the
// tree is full and key is new.
func (t *Tree[K, V]) Insert(key K, value V) (uint32, bool) {
	if t.root == alloc.Sentinel {
		idx, ok := t.a.AddNode(entry[K, V]{key: key, value: value})
		if !ok {
			return alloc.Sentinel, false
		}
		t.root = idx
		return idx, true
	}
	parentIdx := t.root
	for {
		currKey := t.key(parentIdx)
		var target uint32
		var dir uint32
		switch {
		case key < currKey:
			target, dir = t.left(parentIdx), fieldLeft
		case key > currKey:
			target, dir = t.right(parentIdx), fieldRight
		default:
			t.setVal(parentIdx, value)
			return parentIdx, true
		}
		if target == alloc.Sentinel {
			if t.Len() >= t.Cap() {
				return alloc.Sentinel, false
			}
			idx, ok := t.a.AddNode(entry[K, V]{key: key, value: value})
			if !ok {
				return alloc.Sentinel, false
			}
			t.colorRed(idx)
			t.connect(parentIdx, idx, dir)
			if t.parent(parentIdx) != alloc.Sentinel {
				t.fixInsert(idx)
			}
			return idx, true
		}
		parentIdx = target
	}
}

func (t *Tree[K, V]) fixInsert(node uint32) {
	for t.isRed(t.parent(node)) {
		parent := t.parent(node)
		grandparent := t.parent(parent)
		if grandparent == alloc.Sentinel {
			break
		}
		dir := t.childDir(grandparent, parent)
		uncle := t.child(grandparent, opposite(dir))
		if t.isRed(uncle) {
			t.colorBlack(uncle)
			t.colorBlack(parent)
			t.colorRed(grandparent)
			node = grandparent
			continue
		}
		if t.childDir(parent, node) == opposite(dir) {
			t.rotateDir(parent, dir)
			node = parent
		}
		parent = t.parent(node)
		grandparent = t.parent(parent)
		t.colorBlack(parent)
		t.colorRed(grandparent)
		t.rotateDir(grandparent, opposite(dir))
	}
	t.colorBlack(t.root)
}

// Get returns the value for key, non-mutating.
func (t *Tree[K, V]) Get(key K) (V, bool) {
	var zero V
	idx := t.getAddr(key)
	if idx == alloc.Sentinel {
		return zero, false
	}
	return t.val(idx), true
}

// GetMut returns a pointer to the value for key, for in-place mutation.
func (t *Tree[K, V]) GetMut(key K) (*V, bool) {
	idx := t.getAddr(key)
	if idx == alloc.Sentinel {
		return nil, false
	}
	return &t.a.Get(idx).Value.value, true
}

// Contains reports whether key is present.
func (t *Tree[K, V]) Contains(key K) bool {
	return t.getAddr(key) != alloc.Sentinel
}

func (t *Tree[K, V]) getAddr(key K) uint32 {
	node := t.root
	for node != alloc.Sentinel {
		currKey := t.key(node)
		switch {
		case key < currKey:
			node = t.left(node)
		case key > currKey:
			node = t.right(node)
		default:
			return node
		}
	}
	return alloc.Sentinel
}

// Remove deletes key and returns its former value.
func (t *Tree[K, V]) Remove(key K) (V, bool) {
	var zero V
	node := t.root
	for node != alloc.Sentinel {
		currKey := t.key(node)
		switch {
		case key < currKey:
			node = t.left(node)
		case key > currKey:
			node = t.right(node)
		default:
			v := t.val(node)
			t.removeTreeNode(node)
			return v, true
		}
	}
	return zero, false
}

func (t *Tree[K, V]) removeTreeNode(node uint32) {
	isBlack := t.isBlack(node)
	left := t.left(node)
	right := t.right(node)

	var pivot uint32
	var fixParent, fixDir uint32
	haveFixTarget := false

	switch {
	case t.isLeaf(node):
		if !t.isRoot(node) {
			parent := t.parent(node)
			dir := t.childDir(parent, node)
			t.connect(parent, alloc.Sentinel, dir)
			fixParent, fixDir, haveFixTarget = parent, dir, true
		} else {
			t.root = alloc.Sentinel
		}
		pivot = alloc.Sentinel
	case left == alloc.Sentinel:
		t.transplant(node, right)
		pivot = right
	case right == alloc.Sentinel:
		t.transplant(node, left)
		pivot = left
	default:
		maxLeft := t.findMax(left)
		maxLeftParent := t.parent(maxLeft)
		maxLeftChild := t.left(maxLeft)
		isBlack = t.isBlack(maxLeft)

		if t.parent(maxLeft) != node {
			t.transplant(maxLeft, maxLeftChild)
			t.connect(maxLeft, t.left(node), fieldLeft)
			if maxLeftChild == alloc.Sentinel {
				fixParent, fixDir, haveFixTarget = maxLeftParent, fieldRight, true
			}
		} else if maxLeftChild == alloc.Sentinel {
			fixParent, fixDir, haveFixTarget = maxLeft, fieldLeft, true
		}

		t.transplant(node, maxLeft)
		t.connect(maxLeft, t.right(node), fieldRight)
		t.colorNode(maxLeft, t.a.GetRegister(node, fieldColor))

		pivot = maxLeftChild
	}

	t.removeAllocatorNode(node)

	if isBlack {
		if t.isRoot(pivot) {
			t.colorBlack(pivot)
		} else if haveFixTarget {
			t.fixRemove(pivot, fixParent, fixDir)
		} else {
			parent := t.parent(pivot)
			dir := t.childDir(parent, pivot)
			t.fixRemove(pivot, parent, dir)
		}
	}
}

func (t *Tree[K, V]) fixRemove(node uint32, parent uint32, dir uint32) {
	for {
		sibling := t.child(parent, opposite(dir))
		if t.isRed(sibling) {
			t.colorBlack(sibling)
			t.colorRed(parent)
			t.rotateDir(parent, dir)
			sibling = t.child(parent, opposite(dir))
		}
		if t.isBlack(t.left(sibling)) && t.isBlack(t.right(sibling)) {
			t.colorRed(sibling)
			node = parent
		} else {
			if t.isBlack(t.child(sibling, opposite(dir))) {
				t.colorBlack(t.child(sibling, dir))
				t.colorRed(sibling)
				t.rotateDir(sibling, opposite(dir))
				sibling = t.child(parent, opposite(dir))
			}
			t.colorNode(sibling, t.a.GetRegister(parent, fieldColor))
			t.colorBlack(parent)
			t.colorBlack(t.child(sibling, opposite(dir)))
			t.rotateDir(parent, dir)
			node = t.root
		}
		if t.isRoot(node) || t.isRed(node) {
			break
		}
		parent = t.parent(node)
		dir = t.childDir(parent, node)
	}
	t.colorBlack(node)
}

func (t *Tree[K, V]) removeAllocatorNode(node uint32) {
	t.a.ClearRegister(node, fieldParent)
	t.a.ClearRegister(node, fieldColor)
	t.a.ClearRegister(node, fieldLeft)
	t.a.ClearRegister(node, fieldRight)
	t.a.RemoveNode(node)
}

// transplant connects target's parent directly to source, the first step
// of removing target from the tree.
func (t *Tree[K, V]) transplant(target, source uint32) {
	parent := t.parent(target)
	if parent == alloc.Sentinel {
		t.root = source
		t.a.SetRegister(source, fieldParent, alloc.Sentinel)
		return
	}
	dir := t.childDir(parent, target)
	t.connect(parent, source, dir)
}

func (t *Tree[K, V]) findMin(idx uint32) uint32 {
	for t.left(idx) != alloc.Sentinel {
		idx = t.left(idx)
	}
	return idx
}

func (t *Tree[K, V]) findMax(idx uint32) uint32 {
	for t.right(idx) != alloc.Sentinel {
		idx = t.right(idx)
	}
	return idx
}

// Min returns the smallest key and its value.
func (t *Tree[K, V]) Min() (K, V, bool) {
	var zk K
	var zv V
	if t.root == alloc.Sentinel {
		return zk, zv, false
	}
	idx := t.findMin(t.root)
	return t.key(idx), t.val(idx), true
}

// Max returns the largest key and its value.
func (t *Tree[K, V]) Max() (K, V, bool) {
	var zk K
	var zv V
	if t.root == alloc.Sentinel {
		return zk, zv, false
	}
	idx := t.findMax(t.root)
	return t.key(idx), t.val(idx), true
}

// IsValidRedBlackTree checks every structural invariant in O(n); intended
// for tests and debugging, not the hot path.
func (t *Tree[K, V]) IsValidRedBlackTree() bool {
	if t.Len() == 0 {
		return true
	}
	if t.isRed(t.root) {
		return false
	}
	type frame struct {
		node   uint32
		count  int
		lo, hi uint32 // nearest ancestors bounding node's key, or Sentinel
	}
	stack := []frame{{t.root, 0, alloc.Sentinel, alloc.Sentinel}}
	var blackCounts []int
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if (f.lo != alloc.Sentinel && t.key(f.node) <= t.key(f.lo)) ||
			(f.hi != alloc.Sentinel && t.key(f.node) >= t.key(f.hi)) {
			return false
		}
		if t.isBlack(f.node) {
			f.count++
		}
		for dir, child := range [2]uint32{t.left(f.node), t.right(f.node)} {
			if child == alloc.Sentinel {
				// The nil child is itself an implicit black node, so it
				// terminates this root-to-null path one black deeper.
				blackCounts = append(blackCounts, f.count+1)
				continue
			}
			if t.isRed(f.node) && t.isRed(child) {
				return false
			}
			if t.parent(child) != f.node {
				return false
			}
			next := frame{child, f.count, f.lo, f.node}
			if dir == Right {
				next = frame{child, f.count, f.node, f.hi}
			}
			stack = append(stack, next)
		}
	}
	for _, c := range blackCounts {
		if c != blackCounts[0] {
			return false
		}
	}
	return true
}
