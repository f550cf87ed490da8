package mgz

import (
	"errors"
	"fmt"
)

// ErrEndOfData reports that the requested bytes are not currently available
// at a well-formed boundary. It is recoverable: when the underlying source is
// still being appended to, the caller may retry the identical call after more
// bytes arrive. Every truncation-shaped failure wraps this sentinel so
// callers can test with errors.Is.
var ErrEndOfData = errors.New("end of data")

// UnsupportedFormatError reports that no known version marker matched.
// Fatal for the file; never retried.
type UnsupportedFormatError struct {
	GameVersion string
	SaveVersion float64
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format: game version %q, save version %.2f", e.GameVersion, e.SaveVersion)
}

// CorruptHeaderError reports a header decompression or field-decoding
// inconsistency, with the header offset at which decoding failed. Fatal for
// the file. There is no partial header: either the whole record decodes or
// none of it is returned.
type CorruptHeaderError struct {
	Offset int64
	Err    error
}

func (e *CorruptHeaderError) Error() string {
	return fmt.Sprintf("corrupt header at offset %d: %v", e.Offset, e.Err)
}

func (e *CorruptHeaderError) Unwrap() error { return e.Err }

// CorruptBodyError reports a declared length or tag that is internally
// inconsistent with available data in a way that cannot be a legitimate
// truncation. Fatal for the stream: the resynchronization point is unknown.
type CorruptBodyError struct {
	Offset int64
	Reason string
}

func (e *CorruptBodyError) Error() string {
	return fmt.Sprintf("corrupt body at offset %d: %s", e.Offset, e.Reason)
}

// corruptHeader wraps err with the failing header offset, collapsing nested
// CorruptHeaderError values so the innermost offset is reported once.
func corruptHeader(off int64, err error) error {
	var che *CorruptHeaderError
	if errors.As(err, &che) {
		return err
	}
	var ufe *UnsupportedFormatError
	if errors.As(err, &ufe) {
		return err
	}
	return &CorruptHeaderError{Offset: off, Err: unretryable(err)}
}
