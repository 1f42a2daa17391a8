package encoding

import (
	"log/slog"
	"sort"
)

const (
	lowercase   = "abcdefghijklmnopqrstuvwxyz"
	uppercase   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	letters     = lowercase + uppercase
	digits      = "0123456789"
	punctuation = "!#$%&()*+,-./:;=?@[]^_|~"
)

// DefaultAlphabet is the preset used when no alphabet is given.
const DefaultAlphabet = "full"

// SmallAlphabetThreshold is the distinct-symbol count below which Resolve
// warns about the alphabet.
const SmallAlphabetThreshold = 16

// presets maps preset names to their literal alphabets.
//
// "full" repeats the digits so that a short key is more likely to contain one,
// for sites that insist on a digit being present.
var presets = map[string]string{
	"full":         letters + digits + digits + punctuation,
	"alpha":        letters,
	"numeric":      digits,
	"alphanumeric": letters + digits,
}

// Preset returns the literal alphabet for a named preset.
func Preset(name string) (string, bool) {
	alphabet, ok := presets[name]
	return alphabet, ok
}

// PresetNames returns the preset names in lexical order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve turns a preset name or a literal alphabet into a concrete alphabet.
// Tokens that are not preset names are returned unchanged.
//
// A warning is logged when the result has fewer than SmallAlphabetThreshold
// distinct symbols, since that usually means a misspelled preset name was
// taken as a literal.
func Resolve(token string) string {
	alphabet, ok := presets[token]
	if !ok {
		alphabet = token
	}

	if n := DistinctSymbols(alphabet); n < SmallAlphabetThreshold {
		slog.Warn("very small alphabet in use, possibly a failed lookup?",
			"token", token,
			"distinct", n,
		)
	}
	return alphabet
}

// DistinctSymbols counts the distinct code points in alphabet.
func DistinctSymbols(alphabet string) int {
	seen := make(map[rune]struct{}, len(alphabet))
	for _, r := range alphabet {
		seen[r] = struct{}{}
	}
	return len(seen)
}
