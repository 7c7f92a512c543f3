package db

import (
	"encoding/binary"
	"math"
)

// EncodeVector packs v as little-endian FLOAT32, the layout vector index
// fields expect inside a hash.
func EncodeVector(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// DecodeVector unpacks a FLOAT32 blob. ok is false when the blob does not
// hold exactly dim values; dim <= 0 accepts any whole number of values.
func DecodeVector(raw string, dim int) ([]float32, bool) {
	if len(raw)%4 != 0 || (dim > 0 && len(raw) != dim*4) {
		return nil, false
	}
	v := make([]float32, len(raw)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32([]byte(raw[i*4 : i*4+4])))
	}
	return v, true
}
