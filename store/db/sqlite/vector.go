package sqlite

import (
	"encoding/binary"
	"fmt"
	"math"
)

// float32ArrayToBLOB converts a []float32 to a little-endian BLOB.
// It validates that the vector has the expected dimension.
func float32ArrayToBLOB(vec []float32, dimensions int) ([]byte, error) {
	if len(vec) != dimensions {
		return nil, fmt.Errorf("invalid vector dimension: got %d, want %d", len(vec), dimensions)
	}

	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(v))
	}
	return buf, nil
}

// blobToFloat32Array converts a BLOB back to a float32 array.
// This is the inverse of float32ArrayToBLOB.
func blobToFloat32Array(blob []byte, dimensions int) ([]float32, error) {
	expectedLen := dimensions * 4
	if len(blob) != expectedLen {
		return nil, fmt.Errorf("invalid BLOB length: got %d, want %d", len(blob), expectedLen)
	}

	vec := make([]float32, dimensions)
	for i := 0; i < dimensions; i++ {
		bits := binary.LittleEndian.Uint32(blob[i*4 : i*4+4])
		vec[i] = math.Float32frombits(bits)
	}
	return vec, nil
}
