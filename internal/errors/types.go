// Package errors defines the structured error taxonomy used across bustle.
//
// Resolution misses and a missing build artifact are never errors; they are
// absorbed with defaults where they occur. Manifest lookups, compiler runs and
// derived-file writes fail with an *AssetError that callers can classify with
// the Is* helpers.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeManifest   ErrorType = "manifest"
	ErrorTypeCompile    ErrorType = "compile"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeInternal   ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeBundleNotFound   = "ERR_BUNDLE_NOT_FOUND"
	ErrCodeManifestInvalid  = "ERR_MANIFEST_INVALID"
	ErrCodeCompileFailed    = "ERR_COMPILE_FAILED"
	ErrCodeCompileTimeout   = "ERR_COMPILE_TIMEOUT"
	ErrCodeCompilerMissing  = "ERR_COMPILER_MISSING"
	ErrCodeWriteFailed      = "ERR_WRITE_FAILED"
	ErrCodeSourceMissing    = "ERR_SOURCE_MISSING"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeValidationFailed = "ERR_VALIDATION_FAILED"
	ErrCodeInternalError    = "ERR_INTERNAL"
)

// AssetError is a structured error type with context.
type AssetError struct {
	Type     ErrorType
	Code     string
	Message  string
	Cause    error
	Context  map[string]interface{}
	Bundle   string
	FilePath string
	// Output holds captured compiler stderr, if any.
	Output      string
	Recoverable bool
}

// Error implements the error interface.
func (e *AssetError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}
	if e.Bundle != "" {
		parts = append(parts, "bundle:"+e.Bundle)
	}
	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}

	parts = append(parts, e.Message)
	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		result += "\n" + out
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *AssetError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *AssetError) Is(target error) bool {
	var t *AssetError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *AssetError) WithContext(key string, value interface{}) *AssetError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithFile records the file the error concerns.
func (e *AssetError) WithFile(filePath string) *AssetError {
	e.FilePath = filePath

	return e
}

// WithBundle records the bundle the error concerns.
func (e *AssetError) WithBundle(bundle string) *AssetError {
	e.Bundle = bundle

	return e
}

// WithOutput attaches captured tool output.
func (e *AssetError) WithOutput(output string) *AssetError {
	e.Output = output

	return e
}

// Error creation functions

// NewBundleNotFound reports a bundle name missing from the manifest.
func NewBundleNotFound(kind, bundle string) *AssetError {
	return &AssetError{
		Type:        ErrorTypeManifest,
		Code:        ErrCodeBundleNotFound,
		Message:     fmt.Sprintf("no %s bundle named %q", kind, bundle),
		Bundle:      bundle,
		Recoverable: false,
	}
}

// NewManifestError reports a malformed manifest.
func NewManifestError(message string, cause error) *AssetError {
	return &AssetError{
		Type:    ErrorTypeManifest,
		Code:    ErrCodeManifestInvalid,
		Message: message,
		Cause:   cause,
	}
}

// NewCompileError reports a failed compiler run.
func NewCompileError(code, message string, cause error) *AssetError {
	return &AssetError{
		Type:        ErrorTypeCompile,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewWriteError reports a derived output or artifact that could not be written.
func NewWriteError(message string, cause error) *AssetError {
	return &AssetError{
		Type:        ErrorTypeIO,
		Code:        ErrCodeWriteFailed,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *AssetError {
	return &AssetError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *AssetError {
	return &AssetError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *AssetError {
	return &AssetError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// Classification helpers

// anyAsset reports whether match holds for any AssetError in err's tree.
// Wrapping with a broader category keeps the inner classification visible.
func anyAsset(err error, match func(*AssetError) bool) bool {
	for err != nil {
		if ae, ok := err.(*AssetError); ok && match(ae) {
			return true
		}

		switch u := err.(type) {
		case interface{ Unwrap() []error }:
			for _, e := range u.Unwrap() {
				if anyAsset(e, match) {
					return true
				}
			}
			return false
		case interface{ Unwrap() error }:
			err = u.Unwrap()
		default:
			return false
		}
	}

	return false
}

// IsManifestLookup checks if an error is a missing bundle.
func IsManifestLookup(err error) bool {
	return anyAsset(err, func(ae *AssetError) bool { return ae.Code == ErrCodeBundleNotFound })
}

// IsCompileFailure checks if an error came from a compiler run.
func IsCompileFailure(err error) bool {
	return anyAsset(err, func(ae *AssetError) bool { return ae.Type == ErrorTypeCompile })
}

// IsWriteFailure checks if an error came from writing an output file.
func IsWriteFailure(err error) bool {
	return anyAsset(err, func(ae *AssetError) bool { return ae.Code == ErrCodeWriteFailed })
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var ae *AssetError
	if errors.As(err, &ae) {
		return ae.Recoverable
	}

	return false
}

// ErrorHandler provides centralized error handling.
type ErrorHandler struct {
	logger Logger
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs an error at a severity matching its category.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var ae *AssetError
	if !errors.As(err, &ae) {
		h.logger.Error(ctx, err, "Unhandled error occurred")
		return
	}

	if IsRecoverable(err) {
		h.logger.Warn(ctx, err, "Asset error occurred",
			"type", ae.Type,
			"code", ae.Code,
			"file", ae.FilePath)
		return
	}

	h.logger.Error(ctx, err, "Error occurred",
		"type", ae.Type,
		"code", ae.Code,
		"bundle", ae.Bundle)
}
