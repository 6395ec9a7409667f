// Package critbit implements a fixed-capacity PATRICIA/critbit radix tree
// keyed by 128-bit bitstrings, built on top of pkg/container/alloc. Unlike
// the balanced-tree containers it uses two allocators: one for the
// inner/leaf node skeleton (topology plus the bit-comparison payload), one
// for the leaf values. A node is a leaf iff its leafRef register is not
// Sentinel.
package critbit

import (
	"fmt"

	"github.com/sokoban-go/sokoban/pkg/container/alloc"
)

// Register indices into the inner-node allocator.
const (
	fieldLeft    = 0
	fieldRight   = 1
	fieldParent  = 2
	fieldLeafRef = 3
)

// innerNode is the payload carried by every slot of the inner-node
// allocator, whether it currently plays the role of an internal branch or a
// leaf. prefixLen is the number of high bits shared by every key in the
// sub-tree rooted here; it is meaningless once the slot becomes a leaf.
type innerNode struct {
	key       Key128
	prefixLen uint32
}

// Tree is a fixed-capacity critbit tree from Key128 to V.
type Tree[V any] struct {
	root   uint32
	inner  *alloc.Allocator[innerNode]
	leaves *alloc.Allocator[V]
}

// New constructs a Tree. The inner allocator's capacity (innerCap-1) must be
// at least twice the leaf capacity (leafCap-1): every leaf may coexist with a
// distinct internal ancestor on the path to the root.
func New[V any](innerCap, leafCap uint32) (*Tree[V], error) {
	inner, err := alloc.New[innerNode](innerCap, 4)
	if err != nil {
		return nil, fmt.Errorf("critbit: %w", err)
	}
	leaves, err := alloc.New[V](leafCap, 1)
	if err != nil {
		return nil, fmt.Errorf("critbit: %w", err)
	}
	if inner.Cap() < 2*leaves.Cap() {
		return nil, fmt.Errorf("critbit: inner capacity %d must be >= 2x leaf capacity %d", inner.Cap(), leaves.Cap())
	}
	return &Tree[V]{root: alloc.Sentinel, inner: inner, leaves: leaves}, nil
}

// Len returns the number of keys currently stored.
func (t *Tree[V]) Len() int { return t.leaves.Len() }

// Cap returns the maximum number of keys the tree can hold.
func (t *Tree[V]) Cap() int { return t.leaves.Cap() }

// Stats returns the leaf allocator's introspection snapshot.
func (t *Tree[V]) Stats() alloc.Stats { return t.leaves.Stats() }

// InnerStats returns the inner/topology allocator's introspection snapshot.
func (t *Tree[V]) InnerStats() alloc.Stats { return t.inner.Stats() }

func (t *Tree[V]) left(n uint32) uint32    { return t.inner.GetRegister(n, fieldLeft) }
func (t *Tree[V]) right(n uint32) uint32   { return t.inner.GetRegister(n, fieldRight) }
func (t *Tree[V]) parent(n uint32) uint32  { return t.inner.GetRegister(n, fieldParent) }
func (t *Tree[V]) leafRef(n uint32) uint32 { return t.inner.GetRegister(n, fieldLeafRef) }

func (t *Tree[V]) isInner(n uint32) bool { return t.leafRef(n) == alloc.Sentinel }
func (t *Tree[V]) node(n uint32) innerNode { return t.inner.Get(n).Value }

func (t *Tree[V]) leafValue(leafIdx uint32) V        { return t.leaves.Get(leafIdx).Value }
func (t *Tree[V]) setLeafValue(leafIdx uint32, v V) { t.leaves.Get(leafIdx).Value = v }

// getChild returns the child of node reached by the bit at prefixLen in
// searchKey, and whether that was the right child.
func (t *Tree[V]) getChild(prefixLen uint32, node uint32, searchKey Key128) (uint32, bool) {
	if searchKey.bit(prefixLen) {
		return t.right(node), true
	}
	return t.left(node), false
}

func (t *Tree[V]) addLeaf(key Key128, value V) (uint32, uint32) {
	nodeIdx, _ := t.inner.AddNode(innerNode{key: key, prefixLen: 128})
	leafIdx, _ := t.leaves.AddNode(value)
	t.inner.SetRegister(nodeIdx, fieldLeafRef, leafIdx)
	return nodeIdx, leafIdx
}

// duplicate copies node into a freshly allocated slot, preserving its
// topology (children's parent pointers are repointed at the new slot).
func (t *Tree[V]) duplicate(node uint32) uint32 {
	idx, _ := t.inner.AddNode(t.node(node))
	left, right := t.left(node), t.right(node)
	leafRef := t.leafRef(node)
	t.inner.SetRegister(idx, fieldLeafRef, leafRef)
	t.inner.Connect(idx, left, fieldLeft, fieldParent)
	t.inner.Connect(idx, right, fieldRight, fieldParent)
	return idx
}

func (t *Tree[V]) replaceNode(node uint32, contents innerNode, left, right uint32) {
	t.inner.Get(node).Value = contents
	t.inner.ClearRegister(node, fieldLeafRef)
	t.inner.Connect(node, left, fieldLeft, fieldParent)
	t.inner.Connect(node, right, fieldRight, fieldParent)
}

// migrate absorbs source's identity into target, then frees source's
// topology slot. If source was a leaf, target becomes that leaf (taking
// over its leaf-value slot without copying the value).
func (t *Tree[V]) migrate(source, target uint32) {
	content := t.node(source)
	t.inner.Get(target).Value = content
	if !t.isInner(source) {
		leafIdx := t.leafRef(source)
		t.inner.ClearRegister(source, fieldLeafRef)
		t.inner.SetRegister(target, fieldLeafRef, leafIdx)
	}
	t.inner.Connect(target, t.left(source), fieldLeft, fieldParent)
	t.inner.Connect(target, t.right(source), fieldRight, fieldParent)
	t.inner.ClearRegister(source, fieldLeft)
	t.inner.ClearRegister(source, fieldRight)
	t.inner.RemoveNode(source)
}

func (t *Tree[V]) removeLeaf(node uint32) V {
	leafIdx := t.leafRef(node)
	value := t.leafValue(leafIdx)
	t.inner.ClearRegister(node, fieldLeafRef)
	parent := t.parent(node)
	switch {
	case node == t.left(parent):
		t.inner.Disconnect(node, parent, fieldParent, fieldLeft)
	case node == t.right(parent):
		t.inner.Disconnect(node, parent, fieldParent, fieldRight)
	case parent != alloc.Sentinel:
		panic("critbit: parent is not connected to child")
	}
	t.leaves.RemoveNode(leafIdx)
	t.inner.RemoveNode(node)
	return value
}

// GetAddr returns the inner-allocator slot holding key, or Sentinel.
func (t *Tree[V]) GetAddr(key Key128) uint32 {
	node := t.root
	for {
		if node == alloc.Sentinel {
			return alloc.Sentinel
		}
		n := t.node(node)
		if !t.isInner(node) {
			if n.key.Equal(key) {
				return node
			}
			return alloc.Sentinel
		}
		shared := sharedPrefixLen(n.key, key)
		if shared >= n.prefixLen {
			node, _ = t.getChild(n.prefixLen, node, key)
			continue
		}
		return alloc.Sentinel
	}
}

// Get returns the value for key, non-mutating.
func (t *Tree[V]) Get(key Key128) (V, bool) {
	var zero V
	idx := t.GetAddr(key)
	if idx == alloc.Sentinel {
		return zero, false
	}
	return t.leafValue(t.leafRef(idx)), true
}

// GetMut returns a pointer to the value for key, for in-place mutation.
func (t *Tree[V]) GetMut(key Key128) (*V, bool) {
	idx := t.GetAddr(key)
	if idx == alloc.Sentinel {
		return nil, false
	}
	return &t.leaves.Get(t.leafRef(idx)).Value, true
}

// Contains reports whether key is present.
func (t *Tree[V]) Contains(key Key128) bool { return t.GetAddr(key) != alloc.Sentinel }

// Insert upserts key with value, returning the slot index and false iff the
// tree is full and key is new.
func (t *Tree[V]) Insert(key Key128, value V) (uint32, bool) {
	if t.root == alloc.Sentinel {
		nodeIdx, _ := t.addLeaf(key, value)
		t.root = nodeIdx
		return t.root, true
	}
	node := t.root
	for {
		n := t.node(node)
		if n.key.Equal(key) && !t.isInner(node) {
			t.setLeafValue(t.leafRef(node), value)
			return node, true
		}
		shared := sharedPrefixLen(n.key, key)
		if shared >= n.prefixLen {
			node, _ = t.getChild(n.prefixLen, node, key)
			continue
		}
		if t.Len() >= t.Cap() {
			return alloc.Sentinel, false
		}
		isRight := key.bit(shared)
		nodeLeafIdx, _ := t.addLeaf(key, value)
		movedIdx := t.duplicate(node)
		newInner := innerNode{key: key, prefixLen: shared}
		if isRight {
			t.replaceNode(node, newInner, movedIdx, nodeLeafIdx)
		} else {
			t.replaceNode(node, newInner, nodeLeafIdx, movedIdx)
		}
		return nodeLeafIdx, true
	}
}

// Remove deletes key and returns its former value.
func (t *Tree[V]) Remove(key Key128) (V, bool) {
	var zero V
	if t.Len() == 0 {
		return zero, false
	}
	parent := t.root
	var child uint32
	var isRight bool
	if t.isInner(parent) {
		n := t.node(parent)
		child, isRight = t.getChild(n.prefixLen, parent, key)
	} else {
		leaf := t.node(parent)
		if leaf.key.Equal(key) {
			t.root = alloc.Sentinel
			return t.removeLeaf(parent), true
		}
		return zero, false
	}
	for {
		n := t.node(child)
		if t.isInner(child) {
			grandchild, gcRight := t.getChild(n.prefixLen, child, key)
			parent = child
			child = grandchild
			isRight = gcRight
		} else {
			if !n.key.Equal(key) {
				return zero, false
			}
			break
		}
	}
	var sibling uint32
	if isRight {
		sibling = t.left(parent)
	} else {
		sibling = t.right(parent)
	}
	value := t.removeLeaf(child)
	t.migrate(sibling, parent)
	return value, true
}

func (t *Tree[V]) findMin(idx uint32) uint32 {
	for t.left(idx) != alloc.Sentinel {
		idx = t.left(idx)
	}
	return idx
}

func (t *Tree[V]) findMax(idx uint32) uint32 {
	for t.right(idx) != alloc.Sentinel {
		idx = t.right(idx)
	}
	return idx
}

// Min returns the smallest key and its value.
func (t *Tree[V]) Min() (Key128, V, bool) {
	var zk Key128
	var zv V
	if t.root == alloc.Sentinel {
		return zk, zv, false
	}
	idx := t.findMin(t.root)
	n := t.node(idx)
	return n.key, t.leafValue(t.leafRef(idx)), true
}

// Max returns the largest key and its value.
func (t *Tree[V]) Max() (Key128, V, bool) {
	var zk Key128
	var zv V
	if t.root == alloc.Sentinel {
		return zk, zv, false
	}
	idx := t.findMax(t.root)
	n := t.node(idx)
	return n.key, t.leafValue(t.leafRef(idx)), true
}
