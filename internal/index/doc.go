// Package index parses the binary SPK index into an in-memory lookup table.
//
// The parser never trusts offsets read from the buffer: every field read is
// bounds-checked against the buffer length before it is decoded, and any
// violation is reported as a FormatError.
package index
