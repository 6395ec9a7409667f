package avltree

import (
	"hash/maphash"
	"math/rand"
	"testing"
)

// TestRightRightInsertionRotatesLeft inserts an ascending run that forces the
// classic RR case: the root rotates left once and stays balanced after.
func TestRightRightInsertionRotatesLeft(t *testing.T) {
	tree, err := New[int, int](8)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []int{1, 2, 3} {
		if _, ok := tree.Insert(k, k); !ok {
			t.Fatalf("insert %d failed", k)
		}
		if !tree.IsValidAVLTree() {
			t.Fatalf("unbalanced after inserting %d", k)
		}
	}
	root := tree.root
	if tree.key(root) != 2 {
		t.Fatalf("want root key 2 after RR rotation, got %d", tree.key(root))
	}
	if tree.key(tree.left(root)) != 1 || tree.key(tree.right(root)) != 3 {
		t.Fatal("unexpected children after RR rotation")
	}
}

// TestLeftRightInsertionDoubleRotates forces the LR case: inserting 3, 1, 2
// must end with 2 as the subtree root.
func TestLeftRightInsertionDoubleRotates(t *testing.T) {
	tree, _ := New[int, int](8)
	for _, k := range []int{3, 1, 2} {
		tree.Insert(k, k)
		if !tree.IsValidAVLTree() {
			t.Fatalf("unbalanced after inserting %d", k)
		}
	}
	root := tree.root
	if tree.key(root) != 2 {
		t.Fatalf("want root key 2 after LR rotation, got %d", tree.key(root))
	}
}

func TestUpdateExistingKeyKeepsSize(t *testing.T) {
	tree, _ := New[int, string](8)
	tree.Insert(1, "a")
	tree.Insert(2, "b")
	idx, ok := tree.Insert(1, "updated")
	if !ok {
		t.Fatal("update should succeed")
	}
	if tree.Len() != 2 {
		t.Fatalf("want len 2, got %d", tree.Len())
	}
	v, _ := tree.Get(1)
	if v != "updated" {
		t.Fatalf("want updated, got %s", v)
	}
	if tree.key(idx) != 1 {
		t.Fatal("returned index must address the updated node")
	}
}

func TestOverflowReturnsFalse(t *testing.T) {
	tree, _ := New[int, int](4) // capacity 3
	for i := 0; i < 3; i++ {
		if _, ok := tree.Insert(i, i); !ok {
			t.Fatalf("insert %d should succeed", i)
		}
	}
	if _, ok := tree.Insert(99, 99); ok {
		t.Fatal("insert past capacity should fail")
	}
}

func TestRemoveLeafInnerAndTwoChildNodes(t *testing.T) {
	tree, _ := New[int, int](32)
	for _, k := range []int{50, 30, 70, 20, 40, 60, 80} {
		tree.Insert(k, k*10)
	}
	// leaf
	if _, ok := tree.Remove(20); !ok {
		t.Fatal("remove leaf failed")
	}
	if !tree.IsValidAVLTree() {
		t.Fatal("unbalanced after leaf removal")
	}
	// inner node with one child (30 keeps only 40 once 20 is gone)
	if _, ok := tree.Remove(30); !ok {
		t.Fatal("remove inner failed")
	}
	if !tree.IsValidAVLTree() {
		t.Fatal("unbalanced after inner removal")
	}
	// node with two children (root)
	v, ok := tree.Remove(50)
	if !ok || v != 500 {
		t.Fatalf("remove root failed: v=%d ok=%v", v, ok)
	}
	if !tree.IsValidAVLTree() {
		t.Fatal("unbalanced after root removal")
	}
	if tree.Contains(20) || tree.Contains(30) || tree.Contains(50) {
		t.Fatal("removed keys must be gone")
	}
	if !tree.Contains(40) || !tree.Contains(60) || !tree.Contains(70) || !tree.Contains(80) {
		t.Fatal("surviving keys must remain")
	}
}

func TestRemoveMissingKeyFails(t *testing.T) {
	tree, _ := New[int, int](8)
	tree.Insert(1, 1)
	if _, ok := tree.Remove(99); ok {
		t.Fatal("removing an absent key must fail")
	}
}

func TestDeleteRandomStress(t *testing.T) { stressDeleteAll(t, 1023) }

func stressDeleteAll(t *testing.T, n uint32) {
	tree, err := New[uint64, uint64](n + 1)
	if err != nil {
		t.Fatal(err)
	}
	var seed = maphash.MakeSeed()
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
		if !tree.IsValidAVLTree() {
			t.Fatalf("invalid tree after inserting %d", key)
		}
	}
	rand.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
	for _, k := range keys {
		if _, ok := tree.Remove(k); !ok {
			t.Fatalf("remove %d failed", k)
		}
		if !tree.IsValidAVLTree() {
			t.Fatalf("invalid tree after removing %d", k)
		}
	}
	if tree.Len() != 0 {
		t.Fatalf("expected empty tree, got len %d", tree.Len())
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
}

func TestMinMax(t *testing.T) {
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
