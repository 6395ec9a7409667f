// This file implements the binary persisted-state layout for an Allocator.
//
// File format:
//
//	Header (24 bytes):
//	  magic:         [4]byte "SKBN"
//	  version:       uint32 LE
//	  size:          uint64 LE
//	  bumpIndex:     uint32 LE
//	  freeListHead:  uint32 LE
//	Body:
//	  maxSize:       uint32 LE
//	  numRegisters:  uint32 LE
//	  Per slot (maxSize of them, including the unused sentinel slot 0):
//	    registers:   []uint32 LE (numRegisters of them)
//	    value:       caller-supplied Codec encoding
//
// This mirrors the teacher's pkg/metricstore binary checkpoint format
// (magic-prefixed, versioned, explicit field-by-field little-endian
// encoding) rather than Go's gob or JSON, since the container's own
// contract (spec.md §6.3) requires an exact, cross-host little-endian
// layout rather than a Go-specific wire format.
package alloc

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

var (
	snapshotMagic   = [4]byte{'S', 'K', 'B', 'N'}
	snapshotVersion = uint32(1)
)

// Codec supplies the value-type encode/decode functions an Allocator needs
// to snapshot itself, since Go generics cannot derive a binary encoding for
// an arbitrary T the way Rust's Pod/Zeroable derive can.
type Codec[T any] struct {
	Encode func(w io.Writer, v T) error
	Decode func(r io.Reader) (T, error)
}

// Snapshot writes the allocator's full persisted-state layout to w.
func (a *Allocator[T]) Snapshot(w io.Writer, codec Codec[T]) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(snapshotMagic[:]); err != nil {
		return err
	}
	for _, v := range []any{snapshotVersion, a.Size, a.bumpIndex, a.freeListHead, a.maxSize, uint32(a.numRegisters)} {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	for i := range a.nodes {
		for _, r := range a.nodes[i].registers {
			if err := binary.Write(bw, binary.LittleEndian, r); err != nil {
				return err
			}
		}
		if err := codec.Encode(bw, a.nodes[i].Value); err != nil {
			return fmt.Errorf("alloc: encoding slot %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// FromBytes decodes an Allocator previously written by Snapshot. It refuses
// buffers written by an incompatible format version.
func FromBytes[T any](r io.Reader, codec Codec[T]) (*Allocator[T], error) {
	br := bufio.NewReader(r)
	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("alloc: reading magic: %w", err)
	}
	if magic != snapshotMagic {
		return nil, fmt.Errorf("alloc: bad magic %q, expected %q", magic, snapshotMagic)
	}
	var version, numRegisters, maxSize uint32
	a := &Allocator[T]{}
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return nil, err
	}
	if version != snapshotVersion {
		return nil, fmt.Errorf("alloc: unsupported snapshot version %d", version)
	}
	if err := binary.Read(br, binary.LittleEndian, &a.Size); err != nil {
		return nil, err
	}
	if err := binary.Read(br, binary.LittleEndian, &a.bumpIndex); err != nil {
		return nil, err
	}
	if err := binary.Read(br, binary.LittleEndian, &a.freeListHead); err != nil {
		return nil, err
	}
	if err := binary.Read(br, binary.LittleEndian, &maxSize); err != nil {
		return nil, err
	}
	if err := binary.Read(br, binary.LittleEndian, &numRegisters); err != nil {
		return nil, err
	}
	a.maxSize = maxSize
	a.numRegisters = int(numRegisters)
	a.nodes = make([]Node[T], maxSize)
	for i := range a.nodes {
		a.nodes[i] = newNode[T](a.numRegisters)
		for j := range a.nodes[i].registers {
			if err := binary.Read(br, binary.LittleEndian, &a.nodes[i].registers[j]); err != nil {
				return nil, fmt.Errorf("alloc: reading slot %d register %d: %w", i, j, err)
			}
		}
		v, err := codec.Decode(br)
		if err != nil {
			return nil, fmt.Errorf("alloc: decoding slot %d: %w", i, err)
		}
		a.nodes[i].Value = v
	}
	return a, nil
}
