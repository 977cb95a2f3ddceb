package errors

import (
	"errors"
)

// Wrap wraps an error with additional context, creating an AssetError if the input is not already one
func Wrap(err error, errType ErrorType, code, message string) *AssetError {
	if err == nil {
		return nil
	}

	// Keep the location of an existing AssetError
	var ae *AssetError
	if errors.As(err, &ae) {
		return &AssetError{
			Type:        errType,
			Code:        code,
			Message:     message,
			Cause:       ae,
			Context:     ae.Context,
			Bundle:      ae.Bundle,
			FilePath:    ae.FilePath,
			Recoverable: ae.Recoverable,
		}
	}

	return &AssetError{
		Type:        errType,
		Code:        code,
		Message:     message,
		Cause:       err,
		Recoverable: errType == ErrorTypeValidation || errType == ErrorTypeCompile,
	}
}

// WrapBundle wraps an error with the bundle it occurred in. An inner
// AssetError keeps its type and code; code applies only to foreign errors.
func WrapBundle(err error, code, message, bundle string) *AssetError {
	ae := wrapKeeping(err, code, message)
	if ae != nil {
		ae.Bundle = bundle
	}
	return ae
}

// WrapFile is WrapBundle for an error tied to a single source file.
func WrapFile(err error, code, message, filePath string) *AssetError {
	ae := wrapKeeping(err, code, message)
	if ae != nil {
		ae.FilePath = filePath
	}
	return ae
}

func wrapKeeping(err error, code, message string) *AssetError {
	ae := Wrap(err, ErrorTypeInternal, code, message)
	if ae != nil {
		var inner *AssetError
		if errors.As(err, &inner) {
			ae.Type = inner.Type
			ae.Code = inner.Code
		} else if code == ErrCodeCompileFailed {
			ae.Type = ErrorTypeCompile
			ae.Recoverable = true
		}
	}
	return ae
}

// WrapIO wraps an error as an I/O error
func WrapIO(err error, code, message string) *AssetError {
	ae := Wrap(err, ErrorTypeIO, code, message)
	if ae != nil {
		ae.Recoverable = false
	}
	return ae
}

