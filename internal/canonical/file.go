package canonical

import (
	"context"
	"fmt"
	"path/filepath"

	wmnerrors "github.com/conneroisu/wmnctl/internal/errors"
)

// FormatFile runs format and writes its result to path when it differs from
// previous, reporting whether a write happened.
//
// Domain errors from format pass through unchanged. Any other error, or a
// panic, becomes a format error naming the file.
func (f *Formatter) FormatFile(format func() (string, error), previous, path string) (changed bool, err error) {
	name := filepath.Base(path)
	defer func() {
		if r := recover(); r != nil {
			changed = false
			err = wmnerrors.Wrap(wmnerrors.FromPanic(r), wmnerrors.ErrorTypeFormat, wmnerrors.ErrCodeUnexpected,
				fmt.Sprintf("unexpected error formatting %s", name)).WithPath(path)
		}
	}()

	formatted, err := format()
	if err != nil {
		return false, unexpected(err, path)
	}

	if formatted == previous {
		f.logger.Debug(context.Background(), "Content unchanged", "path", path)
		return false, nil
	}

	if err := f.st.WriteFile(path, formatted); err != nil {
		return false, unexpected(err, path)
	}
	return true, nil
}

func unexpected(err error, path string) error {
	if wmnerrors.IsDomain(err) {
		return err
	}
	return wmnerrors.Wrap(err, wmnerrors.ErrorTypeFormat, wmnerrors.ErrCodeUnexpected,
		fmt.Sprintf("unexpected error formatting %s", filepath.Base(path))).WithPath(path)
}
