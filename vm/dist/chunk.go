// Package dist implements the portable container for Borges slot streams.
// A Chunk carries a stream in its little-endian byte layout together with
// the tags of its root values and a content hash, and travels as
// canonical CBOR.
package dist

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/chazu/borges/vm"
)

// ChunkVersion is the current chunk layout version.
const ChunkVersion uint32 = 1

var (
	ErrHashMismatch = errors.New("chunk hash mismatch")
	ErrVersion      = errors.New("unsupported chunk version")
	ErrRootMismatch = errors.New("chunk roots do not match stream")
)

// ChunkFormat identifies how the values in a chunk were encoded.
type ChunkFormat uint8

const (
	// FormatInline streams write every array in full.
	FormatInline ChunkFormat = 0
	// FormatShared streams intern arrays by identity.
	FormatShared ChunkFormat = 1
)

func (f ChunkFormat) String() string {
	switch f {
	case FormatInline:
		return "inline"
	case FormatShared:
		return "shared"
	}
	return fmt.Sprintf("format(%d)", uint8(f))
}

// Chunk is the unit of storage and transfer for encoded values.
type Chunk struct {
	Hash    [32]byte    `cbor:"1,keyasint"` // SHA-256 of Slots
	Version uint32      `cbor:"2,keyasint"`
	Format  ChunkFormat `cbor:"3,keyasint"`
	Roots   []uint8     `cbor:"4,keyasint"` // tag ordinal of each root value
	Slots   []byte      `cbor:"5,keyasint"` // little-endian slot bytes
}

// NewChunk encodes values into a chunk. With shared set, arrays referenced
// by more than one value are stored once.
func NewChunk(values []vm.Value, shared bool) *Chunk {
	var slots []float64
	format := FormatInline
	if shared {
		slots = vm.EncodeShared(values...)
		format = FormatShared
	} else {
		slots = vm.EncodeValues(values...)
	}
	roots := make([]uint8, len(values))
	for i, v := range values {
		roots[i] = uint8(v.Type())
	}
	data := vm.MarshalSlots(slots)
	return &Chunk{
		Hash:    sha256.Sum256(data),
		Version: ChunkVersion,
		Format:  format,
		Roots:   roots,
		Slots:   data,
	}
}

// Verify checks the version and the content hash.
func (c *Chunk) Verify() error {
	if c.Version != ChunkVersion {
		return fmt.Errorf("%w: %d", ErrVersion, c.Version)
	}
	if sha256.Sum256(c.Slots) != c.Hash {
		return ErrHashMismatch
	}
	return nil
}

// SlotCount returns the number of slots in the chunk.
func (c *Chunk) SlotCount() int {
	return len(c.Slots) / vm.SlotSize
}

// RootTypes returns the tags of the root values.
func (c *Chunk) RootTypes() []vm.Type {
	ts := make([]vm.Type, len(c.Roots))
	for i, r := range c.Roots {
		ts[i] = vm.Type(r)
	}
	return ts
}

// Decode verifies the chunk and returns its slots.
func (c *Chunk) Decode() ([]float64, error) {
	if err := c.Verify(); err != nil {
		return nil, err
	}
	return vm.UnmarshalSlots(c.Slots)
}

// Values verifies the chunk and decodes its root values.
func (c *Chunk) Values() ([]vm.Value, error) {
	slots, err := c.Decode()
	if err != nil {
		return nil, err
	}
	var values []vm.Value
	switch c.Format {
	case FormatInline:
		values, err = vm.DecodeValues(slots)
	case FormatShared:
		values, err = vm.DecodeShared(slots)
	default:
		return nil, fmt.Errorf("dist: unknown chunk format %d", c.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("dist: decode chunk: %w", err)
	}
	if len(values) != len(c.Roots) {
		return nil, fmt.Errorf("%w: %d roots, %d values", ErrRootMismatch, len(c.Roots), len(values))
	}
	for i, v := range values {
		if uint8(v.Type()) != c.Roots[i] {
			return nil, fmt.Errorf("%w: root %d is %s, stream has %s",
				ErrRootMismatch, i, vm.Type(c.Roots[i]), v.Type())
		}
	}
	return values, nil
}
