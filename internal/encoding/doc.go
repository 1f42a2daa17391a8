// Package encoding renders fixed-size digests as strings over arbitrary
// alphabets.
//
// The conversion works in chunks: a run of b input bytes is read as a
// big-endian integer and written out as exactly e symbols of the alphabet.
// The pair (b, e) is the chunk geometry, chosen by Plan so that the bits in a
// chunk divide as evenly as possible into output symbols.
//
// # Compatibility
//
// Plan, the preset alphabets, and the chunk layout of Encode are part of the
// derivation contract. Changing any of them changes every key derived with
// the affected alphabet.
//
//   - Plan breaks ties on the fractional remainder by picking the smallest b.
//   - Presets are fixed literal strings; "full" lists the digits twice.
//   - Encode truncates and never pads or errors when asked for more symbols
//     than the digest can produce.
package encoding
