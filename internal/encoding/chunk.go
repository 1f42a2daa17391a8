package encoding

import (
	"fmt"
	"math"
)

// MaxChunkBytes bounds the byte-chunk lengths Plan considers.
const MaxChunkBytes = 6

// ChunkGeometry describes how input bytes map to output symbols: every
// ByteLen bytes of input become exactly SymbolLen symbols.
type ChunkGeometry struct {
	ByteLen   int
	SymbolLen int
}

// Plan computes the chunk geometry for an alphabet of the given size.
//
// For each b in [1, MaxChunkBytes] the real symbol count is
// e = b*8 / log2(alphabetSize). The b whose e has the smallest fractional part
// wins, the smallest b on exact ties, and the result is (b, floor(e)).
//
// Reference values: 64 → (3,4), 256 → (1,1), 48 → (5,7), 16 → (1,2).
func Plan(alphabetSize int) (ChunkGeometry, error) {
	if alphabetSize < 2 {
		return ChunkGeometry{}, fmt.Errorf("plan chunks: alphabet size %d, need at least 2", alphabetSize)
	}

	// Log2 is exact for powers of two, which is where exact ties occur.
	bitsPerSymbol := math.Log2(float64(alphabetSize))

	best := ChunkGeometry{}
	bestRemainder := math.Inf(1)
	for b := 1; b <= MaxChunkBytes; b++ {
		e := float64(b*8) / bitsPerSymbol
		remainder := math.Mod(e, 1)
		if remainder < bestRemainder {
			bestRemainder = remainder
			best = ChunkGeometry{ByteLen: b, SymbolLen: int(math.Floor(e))}
		}
	}
	return best, nil
}

// CeilDiv returns the ceiling of dividend / divisor for non-negative dividends
// and positive divisors.
func CeilDiv(dividend, divisor int) int {
	return (dividend + divisor - 1) / divisor
}
