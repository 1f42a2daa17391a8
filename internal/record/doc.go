// Package record defines the per-site record and the key derivation built on
// it.
//
// A derived key is a pure function of the master secret, the record name, its
// salt, its alphabet, and its key length. Neither the secret nor any derived
// key is stored anywhere.
package record
