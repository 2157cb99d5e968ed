//go:build property
// +build property

package integrity

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/spf13/afero"

	"github.com/conneroisu/wmnctl/internal/store"
)

func TestHasherProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Property: digests are deterministic, fixed length hex
	properties.Property("deterministic digest", prop.ForAll(
		func(text string, algIndex int) bool {
			alg := Algorithms()[algIndex]
			h, err := New(nil, WithAlgorithm(alg))
			if err != nil {
				return false
			}
			a, errA := h.ComputeDigest(text)
			b, errB := h.ComputeDigest(text)
			return errA == nil && errB == nil && a == b && len(a) == 64
		},
		gen.AnyString(),
		gen.IntRange(0, len(Algorithms())-1),
	))

	// Property: a second update with the same text never writes
	properties.Property("update then unchanged", prop.ForAll(
		func(text string) bool {
			fs := afero.NewMemMapFs()
			_ = fs.MkdirAll("/repo", 0o755)
			h, err := New(store.New(fs, target, "/repo/schema.json"))
			if err != nil {
				return false
			}
			first, err := h.UpdateHashFile(target, text)
			if err != nil || first.Status != StatusNew {
				return false
			}
			second, err := h.UpdateHashFile(target, text)
			return err == nil && second.Status == StatusUnchanged && second.NewDigest == first.NewDigest
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
