package avltree

import (
	"bufio"
	"cmp"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/sokoban-go/sokoban/pkg/container/alloc"
)

// KVCodec supplies the key/value encode/decode functions a Tree needs to
// snapshot itself.
type KVCodec[K cmp.Ordered, V any] struct {
	EncodeKey func(w io.Writer, k K) error
	DecodeKey func(r io.Reader) (K, error)
	EncodeVal func(w io.Writer, v V) error
	DecodeVal func(r io.Reader) (V, error)
}

func (c KVCodec[K, V]) toEntryCodec() alloc.Codec[entry[K, V]] {
	return alloc.Codec[entry[K, V]]{
		Encode: func(w io.Writer, e entry[K, V]) error {
			if err := c.EncodeKey(w, e.key); err != nil {
				return err
			}
			return c.EncodeVal(w, e.value)
		},
		Decode: func(r io.Reader) (entry[K, V], error) {
			k, err := c.DecodeKey(r)
			if err != nil {
				return entry[K, V]{}, err
			}
			v, err := c.DecodeVal(r)
			if err != nil {
				return entry[K, V]{}, err
			}
			return entry[K, V]{key: k, value: v}, nil
		},
	}
}

var rootMagic = [4]byte{'A', 'V', 'L', '1'}

// Snapshot writes the tree's root pointer followed by its allocator's
// persisted-state layout.
func (t *Tree[K, V]) Snapshot(w io.Writer, codec KVCodec[K, V]) error {
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
	return t.a.Snapshot(w, codec.toEntryCodec())
}

// FromBytes decodes a Tree previously written by Snapshot.
func FromBytes[K cmp.Ordered, V any](r io.Reader, codec KVCodec[K, V]) (*Tree[K, V], error) {
	br := bufio.NewReader(r)
	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("avltree: reading magic: %w", err)
	}
	if magic != rootMagic {
		return nil, fmt.Errorf("avltree: bad magic %q, expected %q", magic, rootMagic)
	}
	var root uint32
	if err := binary.Read(br, binary.LittleEndian, &root); err != nil {
		return nil, err
	}
	a, err := alloc.FromBytes[entry[K, V]](br, codec.toEntryCodec())
	if err != nil {
		return nil, fmt.Errorf("avltree: %w", err)
	}
	return &Tree[K, V]{root: root, a: a}, nil
}
