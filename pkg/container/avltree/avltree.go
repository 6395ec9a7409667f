// Package avltree implements a fixed-capacity, zero-copy-friendly AVL tree
// ordered map, built on top of pkg/container/alloc. Unlike rbtree it keeps no
// parent register: rebalancing walks an explicit ancestor path recorded
// during the initial descent, then rewinds it bottom-up after the
// insert/remove touches a leaf. This trades one register (3 instead of 4)
// for a tighter height bound, matching the reference's height/register
// tradeoff between its two balanced-tree containers.
package avltree

import (
	"cmp"
	"fmt"

	"github.com/sokoban-go/sokoban/pkg/container/alloc"
)

// Register indices.
const (
	fieldLeft   = 0
	fieldRight  = 1
	fieldHeight = 2
	// register 3 is unused, kept only so the node shape matches rbtree's and
	// leaves room for a future parent pointer without a layout change.
)

type entry[K cmp.Ordered, V any] struct {
	key   K
	value V
}

// ancestor is one step of the path recorded while descending to an insert or
// remove target: the parent slot, which register of parent leads to child,
// and child itself. The root step has no parent.
type ancestor struct {
	hasParent bool
	parent    uint32
	branch    int
	child     uint32
}

// Tree is a fixed-capacity AVL tree ordered map from K to V.
type Tree[K cmp.Ordered, V any] struct {
	root uint32
	a    *alloc.Allocator[entry[K, V]]
}

// New constructs a Tree with capacity maxSize-1.
func New[K cmp.Ordered, V any](maxSize uint32) (*Tree[K, V], error) {
	a, err := alloc.New[entry[K, V]](maxSize, 4)
	if err != nil {
		return nil, fmt.Errorf("avltree: %w", err)
	}
	return &Tree[K, V]{root: alloc.Sentinel, a: a}, nil
}

// Len returns the number of keys currently stored.
func (t *Tree[K, V]) Len() int { return t.a.Len() }

// Cap returns the maximum number of keys the tree can hold.
func (t *Tree[K, V]) Cap() int { return t.a.Cap() }

// Stats returns the tree's allocator introspection snapshot.
func (t *Tree[K, V]) Stats() alloc.Stats { return t.a.Stats() }

func (t *Tree[K, V]) key(n uint32) K { return t.a.Get(n).Value.key }
func (t *Tree[K, V]) val(n uint32) V { return t.a.Get(n).Value.value }
func (t *Tree[K, V]) setVal(n uint32, v V) {
	t.a.Get(n).Value.value = v
}

func (t *Tree[K, V]) left(n uint32) uint32   { return t.a.GetRegister(n, fieldLeft) }
func (t *Tree[K, V]) right(n uint32) uint32  { return t.a.GetRegister(n, fieldRight) }
func (t *Tree[K, V]) height(n uint32) uint32 { return t.a.GetRegister(n, fieldHeight) }

// setField writes register reg of node and, if the register is a child
// pointer, recomputes node's height. Mirrors the reference's set_field,
// which folds the height update into every topology write so callers never
// forget it.
func (t *Tree[K, V]) setField(node uint32, reg int, value uint32) {
	if node == alloc.Sentinel {
		return
	}
	t.a.SetRegister(node, reg, value)
	if reg == fieldLeft || reg == fieldRight {
		t.updateHeight(node)
	}
}

func (t *Tree[K, V]) updateHeight(node uint32) {
	left, right := t.left(node), t.right(node)
	var h uint32
	if left == alloc.Sentinel && right == alloc.Sentinel {
		h = 0
	} else {
		var lh, rh uint32
		if left != alloc.Sentinel {
			lh = t.height(left)
		}
		if right != alloc.Sentinel {
			rh = t.height(right)
		}
		h = max(lh, rh) + 1
	}
	t.setField(node, fieldHeight, h)
}

// balanceFactor treats a missing child's height as -1 (so the "+1" below
// makes an absent subtree contribute 0), matching the reference.
func (t *Tree[K, V]) balanceFactor(left, right uint32) int32 {
	var lh, rh int32
	if left != alloc.Sentinel {
		lh = int32(t.height(left)) + 1
	}
	if right != alloc.Sentinel {
		rh = int32(t.height(right)) + 1
	}
	return lh - rh
}

func (t *Tree[K, V]) leftRotate(idx uint32) uint32 {
	right := t.right(idx)
	rightLeft := t.left(right)
	t.setField(idx, fieldRight, rightLeft)
	t.setField(right, fieldLeft, idx)
	return right
}

func (t *Tree[K, V]) rightRotate(idx uint32) uint32 {
	left := t.left(idx)
	leftRight := t.right(left)
	t.setField(idx, fieldLeft, leftRight)
	t.setField(left, fieldRight, idx)
	return left
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

	refNode := t.root
	var path []ancestor
	path = append(path, ancestor{child: refNode})

	for {
		currKey := t.key(refNode)
		parent := refNode
		var branch int
		switch {
		case key < currKey:
			branch = fieldLeft
			refNode = t.left(parent)
		case key > currKey:
			branch = fieldRight
			refNode = t.right(parent)
		default:
			t.setVal(refNode, value)
			return refNode, true
		}

		if refNode == alloc.Sentinel {
			if t.Len() >= t.Cap() {
				return alloc.Sentinel, false
			}
			idx, ok := t.a.AddNode(entry[K, V]{key: key, value: value})
			if !ok {
				return alloc.Sentinel, false
			}
			refNode = idx
			t.setField(parent, branch, refNode)
			t.rebalance(path)
			return refNode, true
		}
		path = append(path, ancestor{hasParent: true, parent: parent, branch: branch, child: refNode})
	}
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
	nodeIdx := t.root
	if nodeIdx == alloc.Sentinel {
		return zero, false
	}

	var path []ancestor
	path = append(path, ancestor{child: nodeIdx})

	found := false
	for nodeIdx != alloc.Sentinel {
		currKey := t.key(nodeIdx)
		parent := nodeIdx
		var branch int
		switch {
		case key < currKey:
			branch = fieldLeft
			nodeIdx = t.left(parent)
		case key > currKey:
			branch = fieldRight
			nodeIdx = t.right(parent)
		default:
			found = true
		}
		if found {
			break
		}
		path = append(path, ancestor{hasParent: true, parent: parent, branch: branch, child: nodeIdx})
	}
	if !found || nodeIdx == alloc.Sentinel {
		return zero, false
	}

	value := t.val(nodeIdx)
	left := t.left(nodeIdx)
	right := t.right(nodeIdx)

	var replacement uint32
	switch {
	case left != alloc.Sentinel && right != alloc.Sentinel:
		leftmost := right
		leftmostParent := alloc.Sentinel
		var innerPath []ancestor

		for t.left(leftmost) != alloc.Sentinel {
			leftmostParent = leftmost
			leftmost = t.left(leftmost)
			innerPath = append(innerPath, ancestor{hasParent: true, parent: leftmostParent, branch: fieldLeft, child: leftmost})
		}
		if leftmostParent != alloc.Sentinel {
			t.setField(leftmostParent, fieldLeft, t.right(leftmost))
		}

		t.setField(leftmost, fieldLeft, left)
		if right != leftmost {
			t.setField(leftmost, fieldRight, right)
		}

		last := path[len(path)-1]
		path = path[:len(path)-1]

		if last.hasParent {
			t.setField(last.parent, last.branch, leftmost)
		}

		path = append(path, ancestor{hasParent: last.hasParent, parent: last.parent, branch: last.branch, child: leftmost})
		if right != leftmost {
			path = append(path, ancestor{hasParent: true, parent: leftmost, branch: fieldRight, child: right})
		}
		if len(innerPath) > 0 {
			innerPath = innerPath[:len(innerPath)-1]
		}
		path = append(path, innerPath...)

		replacement = leftmost
	default:
		var child uint32
		switch {
		case left == alloc.Sentinel && right == alloc.Sentinel:
			child = alloc.Sentinel
		case left != alloc.Sentinel:
			child = left
		default:
			child = right
		}

		last := path[len(path)-1]
		path = path[:len(path)-1]

		if last.hasParent {
			t.setField(last.parent, last.branch, child)
			if child != alloc.Sentinel {
				path = append(path, ancestor{hasParent: true, parent: last.parent, branch: last.branch, child: child})
			}
		}

		replacement = child
	}

	if nodeIdx == t.root {
		t.root = replacement
	}

	t.delete(nodeIdx)
	t.rebalance(path)

	return value, true
}

func (t *Tree[K, V]) delete(node uint32) {
	t.a.ClearRegister(node, fieldLeft)
	t.a.ClearRegister(node, fieldRight)
	t.a.ClearRegister(node, fieldHeight)
	t.a.RemoveNode(node)
}

// rebalance rewinds path from the touched leaf back to the root, rotating at
// every unbalanced ancestor it finds and updating heights along the way.
func (t *Tree[K, V]) rebalance(path []ancestor) {
	for i := len(path) - 1; i >= 0; i-- {
		step := path[i]
		child := step.child
		left, right := t.left(child), t.right(child)
		bf := t.balanceFactor(left, right)

		var newSubroot uint32
		rotated := false

		switch {
		case bf > 1:
			leftLeft, leftRight := t.left(left), t.right(left)
			if t.balanceFactor(leftLeft, leftRight) < 0 {
				idx := t.leftRotate(left)
				t.setField(child, fieldLeft, idx)
			}
			newSubroot = t.rightRotate(child)
			rotated = true
		case bf < -1:
			rightLeft, rightRight := t.left(right), t.right(right)
			if t.balanceFactor(rightLeft, rightRight) > 0 {
				idx := t.rightRotate(right)
				t.setField(child, fieldRight, idx)
			}
			newSubroot = t.leftRotate(child)
			rotated = true
		default:
			t.updateHeight(child)
		}

		if rotated {
			if step.hasParent {
				t.setField(step.parent, step.branch, newSubroot)
			} else {
				t.root = newSubroot
				t.updateHeight(newSubroot)
			}
		}
	}
}

func (t *Tree[K, V]) findMin(node uint32) uint32 {
	for t.left(node) != alloc.Sentinel {
		node = t.left(node)
	}
	return node
}

func (t *Tree[K, V]) findMax(node uint32) uint32 {
	for t.right(node) != alloc.Sentinel {
		node = t.right(node)
	}
	return node
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

// IsValidAVLTree checks the balance-factor invariant (|bf| <= 1 at every
// node), BST ordering, and that every node's stored height register matches
// its recomputed height, in O(n); intended for tests and debugging.
func (t *Tree[K, V]) IsValidAVLTree() bool {
	if t.root == alloc.Sentinel {
		return true
	}
	// A missing child is height -1, so a leaf (two missing children)
	// recomputes to height 0, matching the register convention.
	var walk func(node uint32) (bool, int32)
	walk = func(node uint32) (bool, int32) {
		if node == alloc.Sentinel {
			return true, -1
		}
		left, right := t.left(node), t.right(node)
		if left != alloc.Sentinel && t.key(left) >= t.key(node) {
			return false, 0
		}
		if right != alloc.Sentinel && t.key(right) <= t.key(node) {
			return false, 0
		}
		lok, lh := walk(left)
		rok, rh := walk(right)
		if !lok || !rok {
			return false, 0
		}
		bf := lh - rh
		if bf > 1 || bf < -1 {
			return false, 0
		}
		h := lh
		if rh > h {
			h = rh
		}
		h++
		if int32(t.height(node)) != h {
			return false, 0
		}
		return true, h
	}
	ok, _ := walk(t.root)
	return ok
}
