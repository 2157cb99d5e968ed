package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
	"unicode/utf8"

	"github.com/spf13/afero"

	wmnerrors "github.com/conneroisu/wmnctl/internal/errors"
)

const defaultFileMode fs.FileMode = 0o644

// ReadFile reads path as UTF-8 text without caching. Missing files,
// directories, permission problems and invalid UTF-8 are reported as file
// errors naming the path.
func (s *Store) ReadFile(path string) (string, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		return "", readError(path, err)
	}
	if info.IsDir() {
		return "", wmnerrors.NewFileError(wmnerrors.ErrCodeNotAFile, "path is not a file", nil).WithPath(path)
	}

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return "", readError(path, err)
	}
	if !utf8.Valid(data) {
		return "", wmnerrors.NewFileError(wmnerrors.ErrCodeDecode, "decoding error using utf-8", errInvalidUTF8(data)).
			WithPath(path)
	}
	return string(data), nil
}

// WriteFile replaces the content of path. The content goes to a temporary
// file in the same directory which is then renamed over path, so readers see
// either the old or the new content. On success the caches of a tracked path
// are updated: raw text becomes content and the parsed document is dropped.
func (s *Store) WriteFile(path, content string) error {
	if !utf8.ValidString(content) {
		return wmnerrors.NewFileError(wmnerrors.ErrCodeEncode, "encoding error using utf-8",
			errInvalidUTF8([]byte(content))).WithPath(path)
	}

	dir := filepath.Dir(path)
	dirInfo, err := s.fs.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return wmnerrors.NewFileError(wmnerrors.ErrCodeDirNotFound, "directory not found for path", err).WithPath(path)
		}
		return writeError(path, err)
	}
	if !dirInfo.IsDir() {
		return wmnerrors.NewFileError(wmnerrors.ErrCodeDirNotFound, "parent is not a directory", nil).WithPath(path)
	}

	mode := defaultFileMode
	if info, err := s.fs.Stat(path); err == nil {
		if info.IsDir() {
			return wmnerrors.NewFileError(wmnerrors.ErrCodeNotAFile, "path is a directory, not a file", nil).WithPath(path)
		}
		mode = info.Mode().Perm()
		// The rename below would replace a read-only file; refuse like a
		// plain write would.
		probe, err := s.fs.OpenFile(path, os.O_WRONLY, 0)
		if err != nil {
			return writeError(path, err)
		}
		_ = probe.Close()
	}

	if err := s.replace(dir, path, content, mode); err != nil {
		return err
	}

	if f := s.tracked(path); f != nil {
		f.raw = content
		f.rawLoaded = true
		f.parsed, f.parsedOK = nil, false
	}
	s.logger.Debug(context.Background(), "Wrote file", "path", path, "bytes", len(content))
	return nil
}

func (s *Store) replace(dir, path, content string, mode fs.FileMode) (err error) {
	tmp, err := afero.TempFile(s.fs, dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return writeError(path, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = s.fs.Remove(tmpName)
		}
	}()

	if _, err = tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		return writeError(path, err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return writeError(path, err)
	}
	if err = tmp.Close(); err != nil {
		return writeError(path, err)
	}
	if err = s.fs.Chmod(tmpName, mode); err != nil {
		return writeError(path, err)
	}
	if err = s.fs.Rename(tmpName, path); err != nil {
		return writeError(path, err)
	}
	return nil
}

func readError(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return wmnerrors.NewFileError(wmnerrors.ErrCodeFileNotFound, "file not found", err).WithPath(path)
	case errors.Is(err, fs.ErrPermission):
		return wmnerrors.NewFileError(wmnerrors.ErrCodePermissionDenied, "permission denied", err).WithPath(path)
	case errors.Is(err, syscall.EISDIR):
		return wmnerrors.NewFileError(wmnerrors.ErrCodeNotAFile, "path is not a file", err).WithPath(path)
	default:
		return wmnerrors.NewFileError(wmnerrors.ErrCodeIO, "read failed", err).WithPath(path)
	}
}

func writeError(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return wmnerrors.NewFileError(wmnerrors.ErrCodeDirNotFound, "directory not found for path", err).WithPath(path)
	case errors.Is(err, fs.ErrPermission):
		return wmnerrors.NewFileError(wmnerrors.ErrCodePermissionDenied, "permission denied", err).WithPath(path)
	case errors.Is(err, syscall.EISDIR):
		return wmnerrors.NewFileError(wmnerrors.ErrCodeNotAFile, "path is a directory, not a file", err).WithPath(path)
	default:
		return wmnerrors.NewFileError(wmnerrors.ErrCodeIO, "OS error while writing", err).WithPath(path)
	}
}

type invalidUTF8Error struct {
	offset int
}

func (e invalidUTF8Error) Error() string {
	return "invalid UTF-8 sequence at byte " + strconv.Itoa(e.offset)
}

func errInvalidUTF8(data []byte) error {
	offset := 0
	for offset < len(data) {
		r, size := utf8.DecodeRune(data[offset:])
		if r == utf8.RuneError && size <= 1 {
			break
		}
		offset += size
	}
	return invalidUTF8Error{offset: offset}
}
