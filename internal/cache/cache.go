package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// VectorCache memoizes embedding vectors keyed by the embedded text.
type VectorCache interface {
	GetVector(text string) ([]float32, bool)
	SetVector(text string, vec []float32) error
	Delete(text string) error
	Clear() error
}

// EmbeddingKey generates a cache key for an embedded text. Keying on the
// content hash means identical texts (a document appearing in many
// evaluations) are embedded once.
func EmbeddingKey(text string) string {
	hash := sha256.Sum256([]byte(text))
	return "groundcheck:v1:emb:" + hex.EncodeToString(hash[:])
}

// encodeVector serializes a float32 vector for storage
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeVector deserializes a stored vector. The caller has already checked
// that the length is a multiple of four.
func decodeVector(raw []byte) []float32 {
	vec := make([]float32, len(raw)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return vec
}
