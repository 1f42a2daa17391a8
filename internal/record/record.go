package record

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/roach88/pwm/internal/encoding"
)

// DefaultKeyLength is the number of symbols derived when Options.KeyLength is
// zero.
const DefaultKeyLength = 16

// saltSize is the number of random bytes behind a salt.
const saltSize = 32

var (
	// ErrEmptyName is returned when a record is built without a name.
	ErrEmptyName = errors.New("record: name is empty")

	// ErrInvalidKeyLength is returned when the requested key length is not positive.
	ErrInvalidKeyLength = errors.New("record: key length must be positive")

	// ErrInvalidAlphabet is returned when an alphabet has fewer than two distinct symbols.
	ErrInvalidAlphabet = errors.New("record: alphabet needs at least two distinct symbols")

	// ErrSaltGeneration is returned when the random source fails while
	// drawing a salt.
	ErrSaltGeneration = errors.New("record: salt generation failed")
)

// Options are the creation parameters of a record.
type Options struct {
	// Alphabet is a preset name or a literal alphabet. Empty selects
	// encoding.DefaultAlphabet.
	Alphabet string

	// KeyLength is the number of symbols in derived keys. Zero selects
	// DefaultKeyLength.
	KeyLength int

	// Username is free-text metadata.
	Username string
}

// Record holds the derivation parameters for one site.
//
// Name is immutable once stored. Salt is only ever replaced wholesale, via
// RegenerateSalt. Alphabet is the resolved literal alphabet, never a preset
// name.
type Record struct {
	ID        string
	Name      string
	Salt      string
	Alphabet  string
	KeyLength int
	Username  string

	// Transient marks records built from a salt obtained elsewhere. They are
	// never written to storage.
	Transient bool
}

// New builds a record with a fresh salt. The alphabet token in opts is
// resolved through encoding.Resolve.
func New(name string, opts Options) (*Record, error) {
	return NewFrom(name, opts, rand.Reader)
}

// NewFrom is New with the salt drawn from src.
func NewFrom(name string, opts Options, src io.Reader) (*Record, error) {
	r, err := build(name, opts)
	if err != nil {
		return nil, err
	}
	if err := r.RegenerateSaltFrom(src); err != nil {
		return nil, err
	}
	return r, nil
}

// NewTransient builds a record around an existing salt, such as one handed
// out by a remote salt service. The result is marked Transient.
func NewTransient(name, salt string, opts Options) (*Record, error) {
	r, err := build(name, opts)
	if err != nil {
		return nil, err
	}
	r.Salt = salt
	r.Transient = true
	return r, nil
}

func build(name string, opts Options) (*Record, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	token := opts.Alphabet
	if token == "" {
		token = encoding.DefaultAlphabet
	}

	length := opts.KeyLength
	if length == 0 {
		length = DefaultKeyLength
	}

	r := &Record{
		Name:      name,
		Alphabet:  encoding.Resolve(token),
		KeyLength: length,
		Username:  opts.Username,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks the record invariants that do not depend on storage.
func (r *Record) Validate() error {
	if r.Name == "" {
		return ErrEmptyName
	}
	if r.KeyLength <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidKeyLength, r.KeyLength)
	}
	if encoding.DistinctSymbols(r.Alphabet) < 2 {
		return fmt.Errorf("%w: %q", ErrInvalidAlphabet, r.Alphabet)
	}
	return nil
}

// RegenerateSalt replaces the salt with a fresh random value. Every key
// derived under the old salt is lost; there is no way back.
func (r *Record) RegenerateSalt() error {
	return r.RegenerateSaltFrom(rand.Reader)
}

// RegenerateSaltFrom replaces the salt with one drawn from src. The record
// is left unchanged if src fails.
func (r *Record) RegenerateSaltFrom(src io.Reader) error {
	salt, err := NewSaltFrom(src)
	if err != nil {
		return err
	}
	r.Salt = salt
	return nil
}

// DeriveKey computes the key for secret.
//
// The digest is a single SHA-1 pass over "secret:name:salt" (UTF-8), rendered
// with the record's alphabet and truncated to KeyLength symbols.
func (r *Record) DeriveKey(secret string) (string, error) {
	enc, err := encoding.NewEncoder(r.Alphabet)
	if err != nil {
		return "", fmt.Errorf("derive key for %q: %w", r.Name, err)
	}
	digest := sha1.Sum([]byte(secret + ":" + r.Name + ":" + r.Salt))
	return enc.Encode(digest[:], r.KeyLength), nil
}

// Entropy returns the strength of derived keys in bits. Only distinct symbols
// count, so the doubled digits of the "full" preset add nothing.
func (r *Record) Entropy() float64 {
	return Entropy(r.Alphabet, r.KeyLength)
}

// Entropy returns length * log2(distinct symbols in alphabet).
func Entropy(alphabet string, length int) float64 {
	return float64(length) * math.Log2(float64(encoding.DistinctSymbols(alphabet)))
}

// String describes the record without its salt.
func (r *Record) String() string {
	return fmt.Sprintf("Record(name=%s, alphabet=%s, length=%d, username=%s)",
		r.Name, r.Alphabet, r.KeyLength, r.Username)
}

// NewSalt returns the base64 encoding of 32 random bytes.
func NewSalt() (string, error) {
	return NewSaltFrom(rand.Reader)
}

// NewSaltFrom returns the base64 encoding of 32 bytes read from src.
// Failures wrap ErrSaltGeneration.
func NewSaltFrom(src io.Reader) (string, error) {
	buf := make([]byte, saltSize)
	if _, err := io.ReadFull(src, buf); err != nil {
		return "", fmt.Errorf("%w: %w", ErrSaltGeneration, err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}
