package model

import "github.com/cockroachdb/errors"

// Error kinds. Concrete errors are marked with one of these via errors.Mark so
// callers can classify with errors.Is regardless of wrapping.
var (
	ErrUsage               = errors.New("usage error")
	ErrUnknownProduct      = errors.New("unknown product")
	ErrUnknownPlatform     = errors.New("unknown platform")
	ErrMetadataUnavailable = errors.New("release metadata unavailable")
	ErrTargetExists        = errors.New("target directory exists")
	ErrArchiveCorrupt      = errors.New("archive corrupt")
	ErrUnsupportedPlatform = errors.New("unsupported platform for installation")
)

// Markf creates a new error with the given message and marks it as kind.
func Markf(kind error, format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), kind)
}

// Mark wraps err with a message and marks it as kind. A nil err yields nil.
func Mark(err error, kind error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrapf(err, format, args...), kind)
}
