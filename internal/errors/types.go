// Package errors defines the structured error taxonomy shared by the format,
// hash and validate operations.
//
// Every failure that crosses a package boundary is a *WMNError tagged with an
// ErrorType. Lower-level I/O and parse errors are wrapped at the point of use
// and carry the originating path and cause.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeFile       ErrorType = "file"
	ErrorTypeFormat     ErrorType = "format"
	ErrorTypeSchema     ErrorType = "schema"
	ErrorTypeHash       ErrorType = "hash"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeInternal   ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeFileNotFound     = "ERR_FILE_NOT_FOUND"
	ErrCodeNotAFile         = "ERR_NOT_A_FILE"
	ErrCodeDirNotFound      = "ERR_DIR_NOT_FOUND"
	ErrCodePermissionDenied = "ERR_PERMISSION_DENIED"
	ErrCodeDecode           = "ERR_DECODE"
	ErrCodeEncode           = "ERR_ENCODE"
	ErrCodeIO               = "ERR_IO"
	ErrCodeInvalidJSON      = "ERR_INVALID_JSON"
	ErrCodeNotSerializable  = "ERR_NOT_SERIALIZABLE"
	ErrCodeInvalidField     = "ERR_INVALID_FIELD"
	ErrCodeUnknownKeys      = "ERR_UNKNOWN_KEYS"
	ErrCodeSchemaMissing    = "ERR_SCHEMA_MISSING"
	ErrCodeSchemaInvalid    = "ERR_SCHEMA_INVALID"
	ErrCodeHashCompute      = "ERR_HASH_COMPUTE"
	ErrCodeHashWrite        = "ERR_HASH_WRITE"
	ErrCodeHashAlgorithm    = "ERR_HASH_ALGORITHM"
	ErrCodeValidationFailed = "ERR_VALIDATION_FAILED"
	ErrCodeDuplicateNames   = "ERR_DUPLICATE_NAMES"
	ErrCodeUnexpected       = "ERR_UNEXPECTED"
	ErrCodeInternalError    = "ERR_INTERNAL"
)

// WMNError is a structured error type with context.
type WMNError struct {
	Type     ErrorType
	Code     string
	Message  string
	Cause    error
	Context  map[string]interface{}
	FilePath string
	Line     int
	Column   int
}

// Error implements the error interface.
func (e *WMNError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.FilePath != "" {
		location := e.FilePath
		if e.Line > 0 {
			location += fmt.Sprintf(":%d", e.Line)
			if e.Column > 0 {
				location += fmt.Sprintf(":%d", e.Column)
			}
		}
		parts = append(parts, location)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *WMNError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *WMNError) Is(target error) bool {
	var t *WMNError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *WMNError) WithContext(key string, value interface{}) *WMNError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithLocation adds file location information.
func (e *WMNError) WithLocation(filePath string, line, column int) *WMNError {
	e.FilePath = filePath
	e.Line = line
	e.Column = column

	return e
}

// WithPath sets the file the error refers to.
func (e *WMNError) WithPath(filePath string) *WMNError {
	e.FilePath = filePath

	return e
}

// Error creation functions

// NewFileError creates a file access error.
func NewFileError(code, message string, cause error) *WMNError {
	return &WMNError{
		Type:    ErrorTypeFile,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewFormatError creates a format error.
func NewFormatError(code, message string, cause error) *WMNError {
	return &WMNError{
		Type:    ErrorTypeFormat,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewSchemaError creates a schema error.
func NewSchemaError(code, message string, cause error) *WMNError {
	return &WMNError{
		Type:    ErrorTypeSchema,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewHashError creates a hash error.
func NewHashError(code, message string, cause error) *WMNError {
	return &WMNError{
		Type:    ErrorTypeHash,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *WMNError {
	return &WMNError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *WMNError {
	return &WMNError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// KindOf returns the type of the outermost *WMNError in err's chain, or
// ErrorTypeInternal if there is none.
func KindOf(err error) ErrorType {
	var we *WMNError
	if errors.As(err, &we) {
		return we.Type
	}

	return ErrorTypeInternal
}

// IsKind reports whether err carries a *WMNError of the given type.
func IsKind(err error, kind ErrorType) bool {
	var we *WMNError
	if errors.As(err, &we) {
		return we.Type == kind
	}

	return false
}

// IsDomain reports whether err is one of the domain error kinds (file,
// format, schema, hash, validation).
func IsDomain(err error) bool {
	var we *WMNError
	if !errors.As(err, &we) {
		return false
	}

	return we.Type != ErrorTypeInternal
}

// CodeOf returns the code of the outermost *WMNError in err's chain.
func CodeOf(err error) string {
	var we *WMNError
	if errors.As(err, &we) {
		return we.Code
	}

	return ""
}
