package store

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// foldName returns the form of name that search matches against: NFC, then
// Unicode case folding. Names themselves are stored verbatim.
func foldName(name string) string {
	return cases.Fold().String(norm.NFC.String(name))
}
