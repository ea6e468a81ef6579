package vm

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// ---------------------------------------------------------------------------
// Slot byte layout: IEEE 754 binary64, little endian, 8 bytes per slot
// ---------------------------------------------------------------------------

// SlotSize is the size of one encoded slot in bytes.
const SlotSize = 8

// MarshalSlots returns the byte form of slots.
func MarshalSlots(slots []float64) []byte {
	buf := make([]byte, len(slots)*SlotSize)
	for i, x := range slots {
		binary.LittleEndian.PutUint64(buf[i*SlotSize:], math.Float64bits(x))
	}
	return buf
}

// UnmarshalSlots parses the byte form produced by MarshalSlots. Data whose
// length is not a multiple of SlotSize fails with ErrTruncatedSlots.
func UnmarshalSlots(data []byte) ([]float64, error) {
	if len(data)%SlotSize != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrTruncatedSlots, len(data)%SlotSize)
	}
	slots := make([]float64, len(data)/SlotSize)
	for i := range slots {
		slots[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*SlotSize:]))
	}
	return slots, nil
}

// WriteSlots writes the byte form of slots to w.
func WriteSlots(w io.Writer, slots []float64) error {
	bw := bufio.NewWriter(w)
	var b [SlotSize]byte
	for _, x := range slots {
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(x))
		if _, err := bw.Write(b[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadSlots reads slots from r until EOF.
func ReadSlots(r io.Reader) ([]float64, error) {
	br := bufio.NewReader(r)
	var slots []float64
	var b [SlotSize]byte
	for {
		n, err := io.ReadFull(br, b[:])
		if errors.Is(err, io.EOF) {
			return slots, nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: %d trailing bytes", ErrTruncatedSlots, n)
		}
		if err != nil {
			return nil, err
		}
		slots = append(slots, math.Float64frombits(binary.LittleEndian.Uint64(b[:])))
	}
}
