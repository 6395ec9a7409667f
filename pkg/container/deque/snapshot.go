package deque

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/sokoban-go/sokoban/pkg/container/alloc"
)

var snapshotMagic = [4]byte{'D', 'Q', 'U', '1'}

// Snapshot writes head, tail, SequenceNumber, then the slot allocator's
// persisted-state layout, matching the rest of the package's persisted
// layout conventions (spec.md §6.3).
func (d *Deque[T]) Snapshot(w io.Writer, codec alloc.Codec[T]) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(snapshotMagic[:]); err != nil {
		return err
	}
	for _, v := range []any{d.head, d.tail, d.SequenceNumber} {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return d.a.Snapshot(w, codec)
}

// FromBytes decodes a Deque previously written by Snapshot.
func FromBytes[T any](r io.Reader, codec alloc.Codec[T]) (*Deque[T], error) {
	br := bufio.NewReader(r)
	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("deque: reading magic: %w", err)
	}
	if magic != snapshotMagic {
		return nil, fmt.Errorf("deque: bad magic %q, expected %q", magic, snapshotMagic)
	}
	d := &Deque[T]{}
	if err := binary.Read(br, binary.LittleEndian, &d.head); err != nil {
		return nil, err
	}
	if err := binary.Read(br, binary.LittleEndian, &d.tail); err != nil {
		return nil, err
	}
	if err := binary.Read(br, binary.LittleEndian, &d.SequenceNumber); err != nil {
		return nil, err
	}
	a, err := alloc.FromBytes[T](br, codec)
	if err != nil {
		return nil, fmt.Errorf("deque: %w", err)
	}
	d.a = a
	return d, nil
}
