package daemon

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/sokoban-go/sokoban/pkg/container/alloc"
	"github.com/sokoban-go/sokoban/pkg/container/avltree"
	"github.com/sokoban-go/sokoban/pkg/container/hashtable"
	"github.com/sokoban-go/sokoban/pkg/container/rbtree"
)

// The snapshot codecs below are shared across every container this daemon
// hosts: keys are uint64, values (and the deque/hash-set elements) are
// string or uint64, so one encode/decode pair for each covers the whole
// daemon rather than one bespoke codec per container family.

func encodeU64(w io.Writer, v uint64) error {
	return binary.Write(w, binary.LittleEndian, v)
}

func decodeU64(r io.Reader) (uint64, error) {
	var v uint64
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func encodeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func decodeString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("decoding string body: %w", err)
	}
	return string(buf), nil
}

func rbCodec() rbtree.KVCodec[uint64, string] {
	return rbtree.KVCodec[uint64, string]{
		EncodeKey: encodeU64, DecodeKey: decodeU64,
		EncodeVal: encodeString, DecodeVal: decodeString,
	}
}

func avlCodec() avltree.KVCodec[uint64, string] {
	return avltree.KVCodec[uint64, string]{
		EncodeKey: encodeU64, DecodeKey: decodeU64,
		EncodeVal: encodeString, DecodeVal: decodeString,
	}
}

func htCodec() hashtable.KVCodec[uint64, string] {
	return hashtable.KVCodec[uint64, string]{
		EncodeKey: encodeU64, DecodeKey: decodeU64,
		EncodeVal: encodeString, DecodeVal: decodeString,
	}
}

func hsCodec() alloc.Codec[uint64] {
	return alloc.Codec[uint64]{Encode: encodeU64, Decode: decodeU64}
}

func dequeCodec() alloc.Codec[string] {
	return alloc.Codec[string]{Encode: encodeString, Decode: decodeString}
}

func cbCodec() alloc.Codec[string] {
	return alloc.Codec[string]{Encode: encodeString, Decode: decodeString}
}
