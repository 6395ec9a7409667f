package critbit

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/sokoban-go/sokoban/pkg/container/alloc"
)

func innerCodec() alloc.Codec[innerNode] {
	return alloc.Codec[innerNode]{
		Encode: func(w io.Writer, n innerNode) error {
			if err := binary.Write(w, binary.LittleEndian, n.key.Hi); err != nil {
				return err
			}
			if err := binary.Write(w, binary.LittleEndian, n.key.Lo); err != nil {
				return err
			}
			return binary.Write(w, binary.LittleEndian, n.prefixLen)
		},
		Decode: func(r io.Reader) (innerNode, error) {
			var n innerNode
			if err := binary.Read(r, binary.LittleEndian, &n.key.Hi); err != nil {
				return n, err
			}
			if err := binary.Read(r, binary.LittleEndian, &n.key.Lo); err != nil {
				return n, err
			}
			err := binary.Read(r, binary.LittleEndian, &n.prefixLen)
			return n, err
		},
	}
}

var rootMagic = [4]byte{'C', 'R', 'B', '1'}

// Snapshot writes the tree's root pointer, the inner-node allocator, then
// the leaf-value allocator, in that order.
func (t *Tree[V]) Snapshot(w io.Writer, valueCodec alloc.Codec[V]) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(rootMagic[:]); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, t.root); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if err := t.inner.Snapshot(w, innerCodec()); err != nil {
		return fmt.Errorf("critbit: %w", err)
	}
	return t.leaves.Snapshot(w, valueCodec)
}

// FromBytes decodes a Tree previously written by Snapshot.
func FromBytes[V any](r io.Reader, valueCodec alloc.Codec[V]) (*Tree[V], error) {
	br := bufio.NewReader(r)
	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("critbit: reading magic: %w", err)
	}
	if magic != rootMagic {
		return nil, fmt.Errorf("critbit: bad magic %q, expected %q", magic, rootMagic)
	}
	var root uint32
	if err := binary.Read(br, binary.LittleEndian, &root); err != nil {
		return nil, err
	}
	inner, err := alloc.FromBytes[innerNode](br, innerCodec())
	if err != nil {
		return nil, fmt.Errorf("critbit: %w", err)
	}
	leaves, err := alloc.FromBytes[V](br, valueCodec)
	if err != nil {
		return nil, fmt.Errorf("critbit: %w", err)
	}
	return &Tree[V]{root: root, inner: inner, leaves: leaves}, nil
}
