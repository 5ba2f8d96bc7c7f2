package store

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/lab271/sensorkb/internal/kb"
)

// Vectors are stored as little-endian float32 blobs, 4 bytes per element.
// The length is implied by the blob size; dimension is enforced before
// writing, never inferred from the data.

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}

// checkDim rejects vectors of the wrong dimension before they reach
// storage. nil vectors ("pending embedding") are allowed.
func (s *Store) checkDim(vec []float32) error {
	if vec == nil {
		return nil
	}
	if len(vec) != s.dim {
		return fmt.Errorf("%w: got %d, store requires %d", kb.ErrInvalidDimension, len(vec), s.dim)
	}
	return nil
}
