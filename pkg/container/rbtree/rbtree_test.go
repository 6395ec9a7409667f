package rbtree

import (
	"hash/maphash"
	"math/rand"
	"testing"
)

// TestInsertWithRedParentAndUncle addresses the case where a node's parent
// and uncle are both red. This is resolved by coloring the parent and
// uncle black and the grandparent red.
func TestInsertWithRedParentAndUncle(t *testing.T) {
	tree, err := New[uint64, uint64](1024)
	if err != nil {
		t.Fatal(err)
	}
	var addrs []uint32
	for _, k := range []uint64{61, 52, 85, 76, 93} {
		idx, ok := tree.Insert(k, 0)
		if !ok {
			t.Fatal("insert failed")
		}
		addrs = append(addrs, idx)
	}

	parent, uncle, grandparent := addrs[4], addrs[3], addrs[2]

	if tree.left(addrs[0]) != addrs[1] || tree.right(addrs[0]) != grandparent {
		t.Fatal("unexpected root children")
	}
	if tree.parent(addrs[1]) != addrs[0] || tree.parent(grandparent) != addrs[0] {
		t.Fatal("unexpected parents")
	}
	if tree.left(grandparent) != uncle || tree.right(grandparent) != parent {
		t.Fatal("unexpected grandparent children")
	}
	if !(tree.isBlack(addrs[0]) && tree.isBlack(addrs[1]) && tree.isBlack(grandparent)) {
		t.Fatal("expected root, addrs[1], grandparent black")
	}
	if !(tree.isRed(uncle) && tree.isRed(parent)) {
		t.Fatal("expected uncle, parent red")
	}

	leaf, ok := tree.Insert(100, 0)
	if !ok {
		t.Fatal("insert failed")
	}

	if !(tree.isBlack(addrs[0]) && tree.isBlack(addrs[1]) && tree.isBlack(uncle) && tree.isBlack(parent)) {
		t.Fatal("expected recolor to black")
	}
	if !(tree.isRed(grandparent) && tree.isRed(leaf)) {
		t.Fatal("expected grandparent, leaf red")
	}
}

// TestRightInsertRedRightChildBlackUncle: P is right child of G and L is
// right child of P. Resolved by rotating G left then fixing colors.
func TestRightInsertRedRightChildBlackUncle(t *testing.T) {
	tree, _ := New[uint64, uint64](1024)
	var addrs []uint32
	for _, k := range []uint64{61, 52, 85, 93} {
		idx, _ := tree.Insert(k, 0)
		addrs = append(addrs, idx)
	}
	parent, grandparent := addrs[3], addrs[2]

	leaf, ok := tree.Insert(100, 0)
	if !ok {
		t.Fatal("insert failed")
	}

	if !(tree.isBlack(addrs[0]) && tree.isBlack(addrs[1]) && tree.isBlack(parent)) {
		t.Fatal("expected black recolor")
	}
	if !(tree.isRed(grandparent) && tree.isRed(leaf)) {
		t.Fatal("expected red recolor")
	}
	if tree.right(addrs[0]) != parent || tree.left(parent) != grandparent || tree.right(parent) != leaf {
		t.Fatal("unexpected rotation result")
	}
}

// TestDeleteRandom1023 mirrors the reference's stress test for a
// power-of-two-minus-one capacity.
func TestDeleteRandom1023(t *testing.T) { stressDeleteAll(t, 1023) }
func TestDeleteRandom1024(t *testing.T) { stressDeleteAll(t, 1024) }
func TestDeleteRandom2048(t *testing.T) { stressDeleteAll(t, 2048) }

func stressDeleteAll(t *testing.T, n uint32) {
	tree, err := New[uint64, uint64](n + 1)
	if err != nil {
		t.Fatal(err)
	}
	var seed maphash.Seed = maphash.MakeSeed()
	var keys []uint64
	for k := uint64(0); k < uint64(n); k++ {
		var h maphash.Hash
		h.SetSeed(seed)
		var buf [8]byte
		for i := range buf {
			buf[i] = byte(k >> (8 * i))
		}
		h.Write(buf[:])
		key := h.Sum64()
		if _, ok := tree.Insert(key, 0); !ok {
			t.Fatalf("insert %d failed", key)
		}
		keys = append(keys, key)
		if !tree.IsValidRedBlackTree() {
			t.Fatalf("invalid tree after inserting %d", key)
		}
	}
	rand.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
	for _, k := range keys {
		if _, ok := tree.Remove(k); !ok {
			t.Fatalf("remove %d failed", k)
		}
		if !tree.IsValidRedBlackTree() {
			t.Fatalf("invalid tree after removing %d", k)
		}
	}
	if tree.Len() != 0 {
		t.Fatalf("expected empty tree, got len %d", tree.Len())
	}
}

func TestOverflowReturnsFalse(t *testing.T) {
	tree, _ := New[uint64, uint64](4) // capacity 3
	for i := uint64(0); i < 3; i++ {
		if _, ok := tree.Insert(i, i); !ok {
			t.Fatalf("insert %d should succeed", i)
		}
	}
	if _, ok := tree.Insert(99, 99); ok {
		t.Fatal("insert past capacity should fail")
	}
	if tree.Len() != 3 {
		t.Fatalf("want len 3, got %d", tree.Len())
	}
	if _, ok := tree.Insert(0, 100); !ok {
		t.Fatal("updating an existing key must still succeed when full")
	}
	v, _ := tree.Get(0)
	if v != 100 {
		t.Fatalf("want updated value 100, got %d", v)
	}
}

func TestIterAscendingAndDoubleEndedExhaustion(t *testing.T) {
	tree, _ := New[int, int](16)
	input := []int{5, 3, 8, 1, 4, 7, 9, 2, 6}
	for _, k := range input {
		tree.Insert(k, k*10)
	}

	cur := tree.Iter()
	var got []int
	for {
		k, _, ok := cur.Next()
		if !ok {
			break
		}
		got = append(got, k)
	}
	want := []int{1, 2, 3, 4, 5, 6, 7, 8, 9}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}

	cur2 := tree.Iter()
	for i := 0; i < 3; i++ {
		cur2.Next()
	}
	for {
		_, _, ok := cur2.Prev()
		if !ok {
			break
		}
	}
	if _, _, ok := cur2.Next(); ok {
		t.Fatal("cursor must stay exhausted after interleaved exhaustion")
	}
	if _, _, ok := cur2.Prev(); ok {
		t.Fatal("cursor must stay exhausted after interleaved exhaustion")
	}
}

func TestMinMax(t *testing.T) {
	// Sanity: rbtree min/max over a small set.
	tree, _ := New[int, string](8)
	tree.Insert(3, "c")
	tree.Insert(1, "a")
	tree.Insert(2, "b")
	if k, v, ok := tree.Min(); !ok || k != 1 || v != "a" {
		t.Fatalf("min mismatch: %d %s %v", k, v, ok)
	}
	if k, v, ok := tree.Max(); !ok || k != 3 || v != "c" {
		t.Fatalf("max mismatch: %d %s %v", k, v, ok)
	}
}
