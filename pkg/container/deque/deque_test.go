package deque

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/sokoban-go/sokoban/pkg/container/alloc"
)

func TestPushPopOrdering(t *testing.T) {
	d, err := New[int](8)
	if err != nil {
		t.Fatal(err)
	}
	d.PushBack(1)
	d.PushBack(2)
	d.PushFront(0)
	// deque is now [0, 1, 2]
	if v, ok := d.PopFront(); !ok || v != 0 {
		t.Fatalf("want 0, got %d ok=%v", v, ok)
	}
	if v, ok := d.PopBack(); !ok || v != 2 {
		t.Fatalf("want 2, got %d ok=%v", v, ok)
	}
	if v, ok := d.PopFront(); !ok || v != 1 {
		t.Fatalf("want 1, got %d ok=%v", v, ok)
	}
	if d.Len() != 0 {
		t.Fatalf("want empty deque, got len %d", d.Len())
	}
	if _, ok := d.PopFront(); ok {
		t.Fatal("pop on empty deque must fail")
	}
}

func TestSequenceNumberIncrementsOnMutation(t *testing.T) {
	d, _ := New[int](8)
	if d.SequenceNumber != 0 {
		t.Fatal("fresh deque must start at sequence 0")
	}
	d.PushBack(1)
	if d.SequenceNumber != 1 {
		t.Fatalf("want sequence 1, got %d", d.SequenceNumber)
	}
	d.PopFront()
	if d.SequenceNumber != 2 {
		t.Fatalf("want sequence 2, got %d", d.SequenceNumber)
	}
}

func TestOverflowReturnsFalse(t *testing.T) {
	d, _ := New[int](3) // capacity 2
	if _, ok := d.PushBack(1); !ok {
		t.Fatal("push 1 should succeed")
	}
	if _, ok := d.PushBack(2); !ok {
		t.Fatal("push 2 should succeed")
	}
	if _, ok := d.PushBack(3); ok {
		t.Fatal("push past capacity should fail")
	}
}

func intCodec() alloc.Codec[int] {
	return alloc.Codec[int]{
		Encode: func(w io.Writer, v int) error {
			return binary.Write(w, binary.LittleEndian, int64(v))
		},
		Decode: func(r io.Reader) (int, error) {
			var v int64
			err := binary.Read(r, binary.LittleEndian, &v)
			return int(v), err
		},
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	d, _ := New[int](8)
	d.PushBack(1)
	d.PushBack(2)
	d.PushBack(3)
	d.PopFront()

	var buf bytes.Buffer
	if err := d.Snapshot(&buf, intCodec()); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	restored, err := FromBytes[int](&buf, intCodec())
	if err != nil {
		t.Fatalf("from bytes: %v", err)
	}
	if restored.Len() != d.Len() {
		t.Fatalf("want len %d, got %d", d.Len(), restored.Len())
	}
	if restored.SequenceNumber != d.SequenceNumber {
		t.Fatalf("want sequence %d, got %d", d.SequenceNumber, restored.SequenceNumber)
	}
	v, ok := restored.PopFront()
	if !ok || v != 2 {
		t.Fatalf("want 2, got %d ok=%v", v, ok)
	}
}
