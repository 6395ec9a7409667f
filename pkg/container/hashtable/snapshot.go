package hashtable

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/sokoban-go/sokoban/pkg/container/alloc"
)

// KVCodec supplies the key/value encode/decode functions a Table needs to
// snapshot itself.
type KVCodec[K comparable, V any] struct {
	EncodeKey func(w io.Writer, k K) error
	DecodeKey func(r io.Reader) (K, error)
	EncodeVal func(w io.Writer, v V) error
	DecodeVal func(r io.Reader) (V, error)
}

func (c KVCodec[K, V]) toNodeCodec() alloc.Codec[node[K, V]] {
	return alloc.Codec[node[K, V]]{
		Encode: func(w io.Writer, n node[K, V]) error {
			if err := c.EncodeKey(w, n.key); err != nil {
				return err
			}
			return c.EncodeVal(w, n.value)
		},
		Decode: func(r io.Reader) (node[K, V], error) {
			k, err := c.DecodeKey(r)
			if err != nil {
				return node[K, V]{}, err
			}
			v, err := c.DecodeVal(r)
			if err != nil {
				return node[K, V]{}, err
			}
			return node[K, V]{key: k, value: v}, nil
		},
	}
}

var snapshotMagic = [4]byte{'H', 'T', 'B', '1'}

// Snapshot writes the bucket-head array followed by the slot allocator's
// persisted-state layout. keyBytes is not persisted; callers must supply
// the same keyBytes function to FromBytes as was used to build the table,
// since bucket placement is a pure function of it.
func (tbl *Table[K, V]) Snapshot(w io.Writer, codec KVCodec[K, V]) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(snapshotMagic[:]); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(tbl.buckets))); err != nil {
		return err
	}
	for _, b := range tbl.buckets {
		if err := binary.Write(bw, binary.LittleEndian, b); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return tbl.a.Snapshot(w, codec.toNodeCodec())
}

// FromBytes decodes a Table previously written by Snapshot.
func FromBytes[K comparable, V any](r io.Reader, codec KVCodec[K, V], keyBytes func(K) []byte) (*Table[K, V], error) {
	br := bufio.NewReader(r)
	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("hashtable: reading magic: %w", err)
	}
	if magic != snapshotMagic {
		return nil, fmt.Errorf("hashtable: bad magic %q, expected %q", magic, snapshotMagic)
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
	a, err := alloc.FromBytes[node[K, V]](br, codec.toNodeCodec())
	if err != nil {
		return nil, fmt.Errorf("hashtable: %w", err)
	}
	return &Table[K, V]{
		buckets:  buckets,
		a:        a,
		keyBytes: keyBytes,
	}, nil
}
