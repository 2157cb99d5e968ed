package integrity

import (
	"crypto/sha256"
	"fmt"
	"hash"
	"sort"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"

	wmnerrors "github.com/conneroisu/wmnctl/internal/errors"
)

// DefaultAlgorithm is the digest algorithm used when none is configured.
const DefaultAlgorithm = "sha256"

// Algorithm is a named digest with the suffix of its digest files.
type Algorithm struct {
	Name   string
	Suffix string
	New    func() hash.Hash
}

var algorithms = map[string]Algorithm{
	"sha256": {
		Name:   "sha256",
		Suffix: ".sha256",
		New:    sha256.New,
	},
	"sha3-256": {
		Name:   "sha3-256",
		Suffix: ".sha3-256",
		New:    sha3.New256,
	},
	"blake2b-256": {
		Name:   "blake2b-256",
		Suffix: ".blake2b",
		New: func() hash.Hash {
			h, err := blake2b.New256(nil)
			if err != nil {
				// Only fails for an oversized key.
				panic(err)
			}
			return h
		},
	},
}

// LookupAlgorithm returns the algorithm registered under name.
func LookupAlgorithm(name string) (Algorithm, error) {
	alg, ok := algorithms[name]
	if !ok {
		return Algorithm{}, wmnerrors.NewHashError(wmnerrors.ErrCodeHashAlgorithm,
			fmt.Sprintf("unknown hash algorithm %q (supported: %v)", name, Algorithms()), nil)
	}
	return alg, nil
}

// Algorithms lists the supported algorithm names in sorted order.
func Algorithms() []string {
	names := make([]string, 0, len(algorithms))
	for name := range algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
