// Package store is the storage accessor shared by the format, hash and
// validate operations.
//
// A Store tracks two files, the dataset and its schema. For each it lazily
// reads and caches the raw text and the parsed document. Writes go through
// WriteFile, which replaces the file atomically and keeps the caches coherent:
// the raw cache takes the written content and the parsed cache is dropped so
// the next access re-parses.
//
// A Store is meant for one goroutine and one invocation; it does no locking.
package store

import (
	"context"
	"path/filepath"

	"github.com/spf13/afero"

	wmnerrors "github.com/conneroisu/wmnctl/internal/errors"
	"github.com/conneroisu/wmnctl/internal/jsondoc"
	"github.com/conneroisu/wmnctl/internal/logging"
)

// FileKind identifies one of the tracked files.
type FileKind int

const (
	Data FileKind = iota
	Schema
)

// String returns the name of the tracked file kind.
func (k FileKind) String() string {
	switch k {
	case Data:
		return "data"
	case Schema:
		return "schema"
	default:
		return "unknown"
	}
}

type trackedFile struct {
	path      string
	raw       string
	rawLoaded bool
	parsed    any
	parsedOK  bool
}

// Store caches the tracked files' raw text and parsed documents.
type Store struct {
	fs     afero.Fs
	files  [2]*trackedFile
	logger logging.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for debug tracing of cache activity.
func WithLogger(l logging.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l.WithComponent("store")
		}
	}
}

// New returns a Store over fs tracking the given dataset and schema paths.
// A nil fs means the OS filesystem.
func New(fs afero.Fs, dataPath, schemaPath string, opts ...Option) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	s := &Store{
		fs: fs,
		files: [2]*trackedFile{
			Data:   {path: dataPath},
			Schema: {path: schemaPath},
		},
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fs returns the filesystem the store reads and writes.
func (s *Store) Fs() afero.Fs { return s.fs }

// Path returns the path of a tracked file.
func (s *Store) Path(kind FileKind) string { return s.file(kind).path }

// DataPath returns the dataset path.
func (s *Store) DataPath() string { return s.Path(Data) }

// SchemaPath returns the schema path.
func (s *Store) SchemaPath() string { return s.Path(Schema) }

func (s *Store) file(kind FileKind) *trackedFile {
	if kind != Data && kind != Schema {
		panic("store: unknown file kind")
	}
	return s.files[kind]
}

// Raw returns the cached raw text of a tracked file, reading it on first use.
func (s *Store) Raw(kind FileKind) (string, error) {
	f := s.file(kind)
	if f.rawLoaded {
		return f.raw, nil
	}

	raw, err := s.ReadFile(f.path)
	if err != nil {
		return "", err
	}
	s.logger.Debug(context.Background(), "Loaded file", "kind", kind.String(), "path", f.path, "bytes", len(raw))

	f.raw = raw
	f.rawLoaded = true
	return raw, nil
}

// DataRaw returns the dataset's raw text.
func (s *Store) DataRaw() (string, error) { return s.Raw(Data) }

// SchemaRaw returns the schema's raw text.
func (s *Store) SchemaRaw() (string, error) { return s.Raw(Schema) }

// Parsed returns the cached parsed document of a tracked file, parsing the
// raw text on first use.
func (s *Store) Parsed(kind FileKind) (any, error) {
	f := s.file(kind)
	if f.parsedOK {
		return f.parsed, nil
	}

	raw, err := s.Raw(kind)
	if err != nil {
		return nil, err
	}

	v, err := jsondoc.Parse([]byte(raw))
	if err != nil {
		return nil, formatError(f.path, err)
	}

	f.parsed = v
	f.parsedOK = true
	return v, nil
}

// Data returns the parsed dataset.
func (s *Store) Data() (any, error) { return s.Parsed(Data) }

// Schema returns the parsed schema.
func (s *Store) Schema() (any, error) { return s.Parsed(Schema) }

// SetParsed replaces the parsed cache of a tracked file without touching disk
// or the raw cache.
func (s *Store) SetParsed(kind FileKind, v any) {
	f := s.file(kind)
	f.parsed = v
	f.parsedOK = true
}

// Invalidate drops both caches of a tracked file so the next access reads
// from disk again.
func (s *Store) Invalidate(kind FileKind) {
	f := s.file(kind)
	f.raw, f.rawLoaded = "", false
	f.parsed, f.parsedOK = nil, false
}

// tracked returns the tracked file at path, if any.
func (s *Store) tracked(path string) *trackedFile {
	clean := filepath.Clean(path)
	for _, f := range s.files {
		if filepath.Clean(f.path) == clean {
			return f
		}
	}
	return nil
}

func formatError(path string, err error) error {
	if se, ok := err.(*jsondoc.SyntaxError); ok {
		return wmnerrors.NewFormatError(wmnerrors.ErrCodeInvalidJSON, "invalid JSON: "+se.Msg, nil).
			WithLocation(path, se.Line, se.Column)
	}
	return wmnerrors.NewFormatError(wmnerrors.ErrCodeInvalidJSON, "invalid input for JSON parsing", err).
		WithPath(path)
}
