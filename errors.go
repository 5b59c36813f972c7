package spk

import "github.com/meigma/spk/internal/spktype"

// Sentinel errors re-exported from internal/spktype.
var (
	// ErrInvalidSignature is returned when the buffer does not start with the SPK magic.
	ErrInvalidSignature = spktype.ErrInvalidSignature

	// ErrTruncatedIndex is returned when the index would be read past the end of the buffer.
	ErrTruncatedIndex = spktype.ErrTruncatedIndex

	// ErrDataOutOfRange is returned when an entry's data lies outside the buffer.
	ErrDataOutOfRange = spktype.ErrDataOutOfRange

	// ErrTooManyEntries is returned when the entry count exceeds the WithMaxEntries limit.
	ErrTooManyEntries = spktype.ErrTooManyEntries

	// ErrUnexpectedStatus is returned when an archive fetch gets a non-200 response.
	ErrUnexpectedStatus = spktype.ErrUnexpectedStatus

	// ErrTooLarge is returned when a fetched archive exceeds the configured size limit.
	ErrTooLarge = spktype.ErrTooLarge
)
