package encoding

import (
	"fmt"
	"strings"
)

// Encoder encodes binary data with a fixed alphabet. The chunk geometry is
// computed once at construction.
//
// An Encoder is immutable and safe for concurrent use.
type Encoder struct {
	alphabet []rune
	geometry ChunkGeometry
}

// NewEncoder returns an encoder for alphabet. Symbols are code points; a
// symbol listed twice occupies two positions.
func NewEncoder(alphabet string) (*Encoder, error) {
	symbols := []rune(alphabet)
	geometry, err := Plan(len(symbols))
	if err != nil {
		return nil, fmt.Errorf("new encoder: %w", err)
	}
	return &Encoder{alphabet: symbols, geometry: geometry}, nil
}

// Geometry returns the cached chunk geometry.
func (e *Encoder) Geometry() ChunkGeometry {
	return e.geometry
}

// Capacity returns how many symbols Encode can produce from n input bytes.
func (e *Encoder) Capacity(n int) int {
	return CeilDiv(n, e.geometry.ByteLen) * e.geometry.SymbolLen
}

// Encode converts digest into at most totalLength symbols.
//
// The digest is zero-padded on the right to a whole number of chunks (the
// caller's slice is not modified), each chunk is encoded most significant
// symbol first, and the concatenation is truncated to totalLength. When
// totalLength exceeds Capacity(len(digest)) the shorter string is returned.
func (e *Encoder) Encode(digest []byte, totalLength int) string {
	byteLen := e.geometry.ByteLen
	nChunks := CeilDiv(len(digest), byteLen)

	padded := make([]byte, nChunks*byteLen)
	copy(padded, digest)

	var sb strings.Builder
	sb.Grow(nChunks * e.geometry.SymbolLen)
	for i := 0; i < nChunks; i++ {
		val := chunkValue(padded[i*byteLen : (i+1)*byteLen])
		e.encodeChunk(&sb, val)
	}

	out := []rune(sb.String())
	if totalLength < 0 {
		totalLength = 0
	}
	if totalLength < len(out) {
		out = out[:totalLength]
	}
	return string(out)
}

// encodeChunk writes val as exactly SymbolLen symbols in base len(alphabet).
func (e *Encoder) encodeChunk(sb *strings.Builder, val uint64) {
	base := uint64(len(e.alphabet))
	digits := make([]rune, e.geometry.SymbolLen)
	for j := len(digits) - 1; j >= 0; j-- {
		digits[j] = e.alphabet[val%base]
		val /= base
	}
	for _, r := range digits {
		sb.WriteRune(r)
	}
}

// chunkValue reads chunk as an unsigned big-endian integer. Chunks are at most
// MaxChunkBytes long, so the value fits in 64 bits.
func chunkValue(chunk []byte) uint64 {
	var val uint64
	for _, b := range chunk {
		val = val<<8 | uint64(b)
	}
	return val
}
