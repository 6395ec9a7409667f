package hashset

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/sokoban-go/sokoban/pkg/container/alloc"
)

var snapshotMagic = [4]byte{'H', 'S', 'E', 'T'}

// Snapshot writes the bucket-head array followed by the slot allocator's
// persisted-state layout. elemBytes is not persisted; callers must supply
// the same elemBytes function to FromBytes as was used to build the set,
// since bucket placement is a pure function of it.
func (s *Set[E]) Snapshot(w io.Writer, codec alloc.Codec[E]) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(snapshotMagic[:]); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(s.buckets))); err != nil {
		return err
	}
	for _, b := range s.buckets {
		if err := binary.Write(bw, binary.LittleEndian, b); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return s.a.Snapshot(w, codec)
}

// FromBytes decodes a Set previously written by Snapshot.
func FromBytes[E comparable](r io.Reader, codec alloc.Codec[E], elemBytes func(E) []byte) (*Set[E], error) {
	br := bufio.NewReader(r)
	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("hashset: reading magic: %w", err)
	}
	if magic != snapshotMagic {
		return nil, fmt.Errorf("hashset: bad magic %q, expected %q", magic, snapshotMagic)
	}
	var numBuckets uint32
	if err := binary.Read(br, binary.LittleEndian, &numBuckets); err != nil {
		return nil, err
	}
	buckets := make([]uint32, numBuckets)
	for i := range buckets {
		if err := binary.Read(br, binary.LittleEndian, &buckets[i]); err != nil {
			return nil, err
		}
	}
	a, err := alloc.FromBytes[E](br, codec)
	if err != nil {
		return nil, fmt.Errorf("hashset: %w", err)
	}
	return &Set[E]{
		buckets:   buckets,
		a:         a,
		elemBytes: elemBytes,
	}, nil
}
