// Package integrity keeps a content digest next to each tracked file so
// edits made between runs can be detected.
//
// The digest of x.json lives in x.json plus the algorithm's suffix, for
// example x.json.sha256, as one hex string followed by a newline.
package integrity

import (
	"context"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	wmnerrors "github.com/conneroisu/wmnctl/internal/errors"
	"github.com/conneroisu/wmnctl/internal/logging"
)

// ShortLength is the number of digest characters shown in log output.
const ShortLength = 8

// Storage is the part of the store the hasher needs.
type Storage interface {
	ReadFile(path string) (string, error)
	WriteFile(path, content string) error
}

// Status classifies what UpdateHashFile did.
type Status int

const (
	// StatusUnchanged means the stored digest already matched.
	StatusUnchanged Status = iota
	// StatusNew means no digest was stored before.
	StatusNew
	// StatusUpdated means a different digest was replaced.
	StatusUpdated
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusUnchanged:
		return "unchanged"
	case StatusNew:
		return "new"
	case StatusUpdated:
		return "updated"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Changed reports whether the digest file was written.
func (s Status) Changed() bool {
	return s == StatusNew || s == StatusUpdated
}

// Result describes one UpdateHashFile call.
type Result struct {
	File           string `json:"file"`
	DigestFile     string `json:"digest_file"`
	Status         Status `json:"status"`
	NewDigest      string `json:"new_digest"`
	PreviousDigest string `json:"previous_digest,omitempty"`
}

// Hasher maintains digest files through a Storage.
type Hasher struct {
	st     Storage
	alg    Algorithm
	logger logging.Logger
}

// Option configures a Hasher.
type Option func(*Hasher) error

// WithAlgorithm selects the digest algorithm by name.
func WithAlgorithm(name string) Option {
	return func(h *Hasher) error {
		alg, err := LookupAlgorithm(name)
		if err != nil {
			return err
		}
		h.alg = alg
		return nil
	}
}

// WithLogger sets the hasher's logger.
func WithLogger(l logging.Logger) Option {
	return func(h *Hasher) error {
		if l != nil {
			h.logger = l.WithComponent("integrity")
		}
		return nil
	}
}

// New returns a Hasher over st. It fails only for an unknown algorithm.
func New(st Storage, opts ...Option) (*Hasher, error) {
	h := &Hasher{
		st:     st,
		alg:    algorithms[DefaultAlgorithm],
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		if err := opt(h); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// Algorithm returns the hasher's algorithm.
func (h *Hasher) Algorithm() Algorithm { return h.alg }

// ComputeDigest returns the hex digest of text's UTF-8 bytes.
func (h *Hasher) ComputeDigest(text string) (string, error) {
	if !utf8.ValidString(text) {
		return "", wmnerrors.NewHashError(wmnerrors.ErrCodeHashCompute, "text is not valid UTF-8", nil)
	}
	d := h.alg.New()
	d.Write([]byte(text))
	return hex.EncodeToString(d.Sum(nil)), nil
}

// DigestPath returns the digest file path for target. The suffix is
// appended to the full name, never replacing the extension.
func (h *Hasher) DigestPath(target string) string {
	return target + h.alg.Suffix
}

// UpdateHashFile compares the digest of currentText with the one stored for
// target and rewrites the digest file when they differ.
func (h *Hasher) UpdateHashFile(target, currentText string) (Result, error) {
	ctx := context.Background()
	res := Result{File: target, DigestFile: h.DigestPath(target)}

	digest, err := h.ComputeDigest(currentText)
	if err != nil {
		return res, wmnerrors.Wrap(err, wmnerrors.ErrorTypeHash, wmnerrors.ErrCodeHashCompute,
			fmt.Sprintf("cannot compute digest for %s", filepath.Base(target))).WithPath(target)
	}
	res.NewDigest = digest

	previous, ok := h.readPrevious(ctx, res.DigestFile)
	if ok {
		res.PreviousDigest = previous
	}

	if ok && previous == digest {
		res.Status = StatusUnchanged
		return res, nil
	}

	if err := h.st.WriteFile(res.DigestFile, digest+"\n"); err != nil {
		return res, wmnerrors.Wrap(err, wmnerrors.ErrorTypeHash, wmnerrors.ErrCodeHashWrite,
			fmt.Sprintf("failed to write hash file for %s", filepath.Base(target))).WithPath(target)
	}

	if ok {
		res.Status = StatusUpdated
	} else {
		res.Status = StatusNew
	}
	return res, nil
}

// readPrevious returns the stored digest. Any read failure counts as no
// digest.
func (h *Hasher) readPrevious(ctx context.Context, path string) (string, bool) {
	content, err := h.st.ReadFile(path)
	if err != nil {
		if wmnerrors.CodeOf(err) != wmnerrors.ErrCodeFileNotFound {
			h.logger.Warn(ctx, err, "Could not read previous hash", "path", path)
		}
		return "", false
	}
	return strings.TrimSpace(content), true
}

// Short truncates a digest for display.
func Short(digest string) string {
	if len(digest) <= ShortLength {
		return digest
	}
	return digest[:ShortLength]
}
