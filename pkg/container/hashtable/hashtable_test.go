package hashtable

import (
	"encoding/binary"
	"testing"
)

func u64Bytes(k uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], k)
	return b[:]
}

func TestInsertGetContains(t *testing.T) {
	tbl, err := New[uint64, string](16, 32, u64Bytes)
	if err != nil {
		t.Fatal(err)
	}
	for i := uint64(0); i < 20; i++ {
		if _, ok := tbl.Insert(i, "v"); !ok {
			t.Fatalf("insert %d failed", i)
		}
	}
	for i := uint64(0); i < 20; i++ {
		if !tbl.Contains(i) {
			t.Fatalf("expected %d to be present", i)
		}
		if v, ok := tbl.Get(i); !ok || v != "v" {
			t.Fatalf("get %d mismatch", i)
		}
	}
	if tbl.Contains(999) {
		t.Fatal("absent key must not be contained")
	}
}

func TestInsertExistingKeyUpdatesValueNoGrowth(t *testing.T) {
	tbl, _ := New[uint64, string](4, 8, u64Bytes)
	tbl.Insert(1, "a")
	tbl.Insert(1, "b")
	if tbl.Len() != 1 {
		t.Fatalf("want len 1, got %d", tbl.Len())
	}
	v, _ := tbl.Get(1)
	if v != "b" {
		t.Fatalf("want b, got %s", v)
	}
}

func TestOverflowReturnsFalse(t *testing.T) {
	tbl, _ := New[uint64, int](4, 4, u64Bytes) // capacity 3
	for i := uint64(0); i < 3; i++ {
		if _, ok := tbl.Insert(i, int(i)); !ok {
			t.Fatalf("insert %d should succeed", i)
		}
	}
	if _, ok := tbl.Insert(999, 0); ok {
		t.Fatal("insert past capacity should fail")
	}
}

func TestRemoveHeadMiddleAndTail(t *testing.T) {
	tbl, _ := New[uint64, int](2, 16, u64Bytes)
	// Force several keys into the same bucket chain by using a table with
	// only 2 buckets.
	var keys []uint64
	for i := uint64(0); i < 6; i++ {
		tbl.Insert(i, int(i))
		keys = append(keys, i)
	}
	for _, k := range keys {
		v, ok := tbl.Remove(k)
		if !ok || v != int(k) {
			t.Fatalf("remove %d failed: v=%d ok=%v", k, v, ok)
		}
		if tbl.Contains(k) {
			t.Fatalf("key %d should be gone", k)
		}
	}
	if tbl.Len() != 0 {
		t.Fatalf("want empty table, got len %d", tbl.Len())
	}
}

func TestRemoveMissingKeyFails(t *testing.T) {
	tbl, _ := New[uint64, int](4, 8, u64Bytes)
	tbl.Insert(1, 1)
	if _, ok := tbl.Remove(999); ok {
		t.Fatal("removing an absent key must fail")
	}
}

func TestGetMutMovesToBucketHead(t *testing.T) {
	tbl, _ := New[uint64, int](2, 16, u64Bytes)
	var keys []uint64
	for i := uint64(0); i < 6; i++ {
		tbl.Insert(i, int(i))
		keys = append(keys, i)
	}
	last := keys[len(keys)-1]
	// Touch the first-inserted key via GetMut; it should become its
	// bucket's head even though it was inserted before later keys that
	// share the same bucket.
	bucketIdx := tbl.bucketIndex(keys[0])
	v, ok := tbl.GetMut(keys[0])
	if !ok {
		t.Fatal("GetMut should find the key")
	}
	*v = 999
	if tbl.buckets[bucketIdx] != tbl.GetAddr(keys[0]) {
		t.Fatal("GetMut must move the matched node to its bucket head")
	}
	got, _ := tbl.Get(keys[0])
	if got != 999 {
		t.Fatal("GetMut must return a pointer to the live value")
	}
	_ = last
}

func TestNumBucketsMustBeEven(t *testing.T) {
	if _, err := New[uint64, int](3, 8, u64Bytes); err == nil {
		t.Fatal("odd numBuckets must be rejected")
	}
	if _, err := New[uint64, int](0, 8, u64Bytes); err == nil {
		t.Fatal("zero numBuckets must be rejected")
	}
}

func TestIterVisitsEveryEntryExactlyOnce(t *testing.T) {
	tbl, _ := New[uint64, int](8, 32, u64Bytes)
	want := map[uint64]int{}
	for i := uint64(0); i < 24; i++ {
		tbl.Insert(i, int(i)*2)
		want[i] = int(i) * 2
	}
	got := map[uint64]int{}
	cur := tbl.Iter()
	for {
		k, v, ok := cur.Next()
		if !ok {
			break
		}
		got[k] = *v
	}
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("key %d: got %d want %d", k, got[k], v)
		}
	}
}
