package errors

import (
	"errors"
	"fmt"
)

// Wrap wraps err with a new message and type. If err already carries a
// *WMNError its location and context are preserved on the wrapper.
func Wrap(err error, errType ErrorType, code, message string) *WMNError {
	if err == nil {
		return nil
	}

	var we *WMNError
	if errors.As(err, &we) {
		return &WMNError{
			Type:     errType,
			Code:     code,
			Message:  message,
			Cause:    we,
			Context:  we.Context,
			FilePath: we.FilePath,
			Line:     we.Line,
			Column:   we.Column,
		}
	}

	return &WMNError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// PassOrWrap returns err unchanged when it is already a domain error and
// otherwise wraps it with the given type, code and message.
func PassOrWrap(err error, errType ErrorType, code, message string) error {
	if err == nil {
		return nil
	}
	if IsDomain(err) {
		return err
	}

	return Wrap(err, errType, code, message)
}

// FromPanic converts a recovered panic value into an error.
func FromPanic(r interface{}) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}

	return fmt.Errorf("panic: %v", r)
}
