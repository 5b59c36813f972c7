package spktype

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSignature is returned when the buffer does not start with the SPK magic.
	ErrInvalidSignature = errors.New("spk: invalid signature")

	// ErrTruncatedIndex is returned when a header field, index record, or name
	// would be read past the end of the buffer.
	ErrTruncatedIndex = errors.New("spk: truncated index")

	// ErrDataOutOfRange is returned when an entry's data range exceeds the buffer.
	ErrDataOutOfRange = errors.New("spk: entry data out of range")

	// ErrTooManyEntries is returned when the declared entry count exceeds the configured limit.
	ErrTooManyEntries = errors.New("spk: too many entries")

	// ErrUnexpectedStatus is returned when an archive fetch gets a non-200 response.
	ErrUnexpectedStatus = errors.New("spk: unexpected status")

	// ErrTooLarge is returned when a fetched archive exceeds the configured size limit.
	ErrTooLarge = errors.New("spk: archive too large")
)

// FormatError reports a malformed archive buffer.
type FormatError struct {
	// Offset is the byte offset at which the problem was detected.
	Offset int64
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%v (offset %d)", e.Err, e.Offset)
}

func (e *FormatError) Unwrap() error { return e.Err }

// FetchError reports a failure to retrieve the raw bytes of an archive.
type FetchError struct {
	Location string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("spk: fetch %s: %v", e.Location, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
