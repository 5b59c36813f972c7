package spk

import "github.com/meigma/spk/internal/spktype"

// Re-export types from internal/spktype for the public API.
type (
	// Entry describes one packaged file.
	Entry = spktype.Entry

	// FormatError reports a malformed archive buffer.
	FormatError = spktype.FormatError

	// FetchError reports a failure to retrieve archive bytes.
	FetchError = spktype.FetchError
)

// Extension is the file extension of SPK packages.
const Extension = ".spk"
