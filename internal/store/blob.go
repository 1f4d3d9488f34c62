package store

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/golang/snappy"

	"morphkit/arbor/internal/morph"
)

// encodeFloat64s packs values as little-endian float64 and compresses them.
// Empty input encodes to a NULL blob.
func encodeFloat64s(vals []float64) []byte {
	if len(vals) == 0 {
		return nil
	}
	raw := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(raw[i*8:], math.Float64bits(v))
	}
	return snappy.Encode(nil, raw)
}

func decodeFloat64s(data []byte) ([]float64, error) {
	raw, err := inflate(data, 8)
	if err != nil || raw == nil {
		return nil, err
	}
	out := make([]float64, len(raw)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
	}
	return out, nil
}

func encodeUint32s(vals []uint32) []byte {
	if len(vals) == 0 {
		return nil
	}
	raw := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(raw[i*4:], v)
	}
	return snappy.Encode(nil, raw)
}

func decodeUint32s(data []byte) ([]uint32, error) {
	raw, err := inflate(data, 4)
	if err != nil || raw == nil {
		return nil, err
	}
	out := make([]uint32, len(raw)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(raw[i*4:])
	}
	return out, nil
}

func encodePoints(points []morph.Point) []byte {
	flat := make([]float64, 0, 3*len(points))
	for _, p := range points {
		flat = append(flat, p[0], p[1], p[2])
	}
	return encodeFloat64s(flat)
}

func decodePoints(data []byte) ([]morph.Point, error) {
	flat, err := decodeFloat64s(data)
	if err != nil {
		return nil, err
	}
	if len(flat)%3 != 0 {
		return nil, fmt.Errorf("%w: %d coordinates is not a whole number of points", ErrCorrupt, len(flat))
	}
	if flat == nil {
		return nil, nil
	}
	out := make([]morph.Point, len(flat)/3)
	for i := range out {
		out[i] = morph.Point{flat[3*i], flat[3*i+1], flat[3*i+2]}
	}
	return out, nil
}

// inflate decompresses a blob and checks it holds whole elements of width bytes
func inflate(data []byte, width int) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if len(raw)%width != 0 {
		return nil, fmt.Errorf("%w: blob of %d bytes is not a multiple of %d", ErrCorrupt, len(raw), width)
	}
	return raw, nil
}
