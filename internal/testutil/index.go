package testutil

import (
	"encoding/binary"
	"testing"
)

// Header field offsets, mirrored here so tests can corrupt built archives.
const (
	HeaderSize        = 14
	EntryCountOffset  = 6
	IndexOffsetOffset = 10
	RecordHeaderSize  = 16
)

// TestEntry holds data for building a test archive.
type TestEntry struct {
	Name             string
	Data             []byte
	CompressedLength uint32
	// RawName overrides the encoded name bytes when non-nil.
	RawName []byte
}

// BuildTestArchive encodes entries as an SPK archive.
//
// The layout is header, then each entry's data in order, then the index.
func BuildTestArchive(tb testing.TB, entries []TestEntry) []byte {
	tb.Helper()
	return BuildTestArchiveVersion(tb, 0, entries)
}

// BuildTestArchiveVersion is BuildTestArchive with an explicit version field.
func BuildTestArchiveVersion(tb testing.TB, version uint16, entries []TestEntry) []byte {
	tb.Helper()

	buf := make([]byte, HeaderSize)
	copy(buf, ".spk")
	binary.LittleEndian.PutUint16(buf[4:], version)

	offsets := make([]uint32, len(entries))
	for i, e := range entries {
		offsets[i] = uint32(len(buf)) //nolint:gosec // test archives are small
		buf = append(buf, e.Data...)
	}

	indexOffset := uint32(len(buf)) //nolint:gosec // test archives are small
	for i, e := range entries {
		name := e.RawName
		if name == nil {
			name = []byte(e.Name)
		}
		rec := make([]byte, RecordHeaderSize)
		binary.LittleEndian.PutUint16(rec[2:], uint16(len(name))) //nolint:gosec // test names are short
		binary.LittleEndian.PutUint32(rec[4:], offsets[i])
		binary.LittleEndian.PutUint32(rec[8:], uint32(len(e.Data))) //nolint:gosec // test archives are small
		binary.LittleEndian.PutUint32(rec[12:], e.CompressedLength)
		buf = append(buf, rec...)
		buf = append(buf, name...)
	}

	binary.LittleEndian.PutUint32(buf[EntryCountOffset:], uint32(len(entries))) //nolint:gosec // test archives are small
	binary.LittleEndian.PutUint32(buf[IndexOffsetOffset:], indexOffset)
	return buf
}

// SetEntryCount overwrites the declared entry count of an encoded archive.
func SetEntryCount(buf []byte, n uint32) {
	binary.LittleEndian.PutUint32(buf[EntryCountOffset:], n)
}

// SetIndexOffset overwrites the index offset of an encoded archive.
func SetIndexOffset(buf []byte, off uint32) {
	binary.LittleEndian.PutUint32(buf[IndexOffsetOffset:], off)
}

// IndexOffset returns the index offset of an encoded archive.
func IndexOffset(buf []byte) uint32 {
	return binary.LittleEndian.Uint32(buf[IndexOffsetOffset:])
}
