package alloc

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
)

func u64Codec() Codec[uint64] {
	return Codec[uint64]{
		Encode: func(w io.Writer, v uint64) error { return binary.Write(w, binary.LittleEndian, v) },
		Decode: func(r io.Reader) (uint64, error) {
			var v uint64
			err := binary.Read(r, binary.LittleEndian, &v)
			return v, err
		},
	}
}

// TestAddNodeBumpThenFreeList checks that the allocator pulls from the bump
// pointer first, then from the free list after a node is released.
func TestAddNodeBumpThenFreeList(t *testing.T) {
	a, err := New[uint64](4, 1)
	if err != nil {
		t.Fatal(err)
	}
	i1, ok := a.AddNode(10)
	if !ok || i1 != 1 {
		t.Fatalf("want slot 1, got %d ok=%v", i1, ok)
	}
	i2, ok := a.AddNode(20)
	if !ok || i2 != 2 {
		t.Fatalf("want slot 2, got %d ok=%v", i2, ok)
	}
	if _, ok := a.RemoveNode(i1); !ok {
		t.Fatal("remove should succeed")
	}
	i3, ok := a.AddNode(30)
	if !ok || i3 != i1 {
		t.Fatalf("expected reclaimed slot %d, got %d", i1, i3)
	}
}

// TestAddNodeFull checks that the allocator reports failure rather than
// panicking when its capacity (maxSize-1) is exhausted.
func TestAddNodeFull(t *testing.T) {
	a, err := New[uint64](3, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := a.AddNode(1); !ok {
		t.Fatal("first insert should succeed")
	}
	if _, ok := a.AddNode(2); !ok {
		t.Fatal("second insert should succeed")
	}
	if _, ok := a.AddNode(3); ok {
		t.Fatal("third insert should fail, capacity is 2")
	}
}

func TestRemoveSentinelIsNoop(t *testing.T) {
	a, err := New[uint64](4, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := a.RemoveNode(Sentinel); ok {
		t.Fatal("removing Sentinel must report no value")
	}
}

func TestConnectDisconnectIgnoresSentinel(t *testing.T) {
	a, err := New[uint64](4, 2)
	if err != nil {
		t.Fatal(err)
	}
	i, _ := a.AddNode(1)
	a.Connect(i, Sentinel, 0, 1)
	if a.GetRegister(i, 0) != Sentinel {
		t.Fatal("connecting to Sentinel must not write a register")
	}
	j, _ := a.AddNode(2)
	a.Connect(i, j, 0, 1)
	if a.GetRegister(i, 0) != j || a.GetRegister(j, 1) != i {
		t.Fatal("connect must set both sides symmetrically")
	}
	a.Disconnect(i, j, 0, 1)
	if a.GetRegister(i, 0) != Sentinel || a.GetRegister(j, 1) != Sentinel {
		t.Fatal("disconnect must clear both sides")
	}
}

func TestInitRefusesReinitialization(t *testing.T) {
	a, err := New[uint64](4, 1)
	if err != nil {
		t.Fatal(err)
	}
	a.AddNode(1)
	if err := a.Init(); err == nil {
		t.Fatal("Init on a non-empty allocator must fail")
	}
}

// TestSnapshotRoundTrip exercises the little-endian persisted layout: a
// fresh allocator decoded from a Snapshot must report identical Stats and
// register contents.
func TestSnapshotRoundTrip(t *testing.T) {
	a, err := New[uint64](8, 2)
	if err != nil {
		t.Fatal(err)
	}
	i1, _ := a.AddNode(111)
	i2, _ := a.AddNode(222)
	a.Connect(i1, i2, 1, 1)

	var buf bytes.Buffer
	if err := a.Snapshot(&buf, u64Codec()); err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	restored, err := FromBytes[uint64](&buf, u64Codec())
	if err != nil {
		t.Fatalf("from bytes: %v", err)
	}
	if restored.Stats() != a.Stats() {
		t.Fatalf("stats mismatch: got %+v want %+v", restored.Stats(), a.Stats())
	}
	if restored.Get(i1).Value != 111 || restored.Get(i2).Value != 222 {
		t.Fatal("values did not round-trip")
	}
	if restored.GetRegister(i1, 1) != i2 || restored.GetRegister(i2, 1) != i1 {
		t.Fatal("registers did not round-trip")
	}
}
