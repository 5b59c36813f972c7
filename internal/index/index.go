package index

import (
	"bytes"
	"iter"

	"golang.org/x/text/encoding/charmap"

	"github.com/meigma/spk/internal/spktype"
)

// Header layout.
const (
	HeaderSize       = 14
	RecordHeaderSize = 16

	offVersion     = 4
	offEntryCount  = 6
	offIndexOffset = 10

	recNameLen    = 2
	recDataOffset = 4
	recDataLength = 8
	recCompressed = 12
)

// Signature is the 4-byte magic every SPK buffer starts with.
var Signature = [4]byte{'.', 's', 'p', 'k'}

// Index maps normalized entry names to their index records.
type Index struct {
	version uint16
	entries map[string]spktype.Entry
	order   []string
}

// Parse decodes the SPK header and index from data.
//
// A maxEntries of 0 disables the entry count limit. The returned Index does
// not retain data; callers slice entry data from their own copy of the buffer.
func Parse(data []byte, maxEntries uint32) (*Index, error) {
	if len(data) < len(Signature) || !bytes.Equal(data[:len(Signature)], Signature[:]) {
		return nil, &spktype.FormatError{Offset: 0, Err: spktype.ErrInvalidSignature}
	}

	c := cursor{data: data}
	version, err := c.uint16(offVersion)
	if err != nil {
		return nil, err
	}
	count, err := c.uint32(offEntryCount)
	if err != nil {
		return nil, err
	}
	indexOffset, err := c.uint32(offIndexOffset)
	if err != nil {
		return nil, err
	}
	if maxEntries > 0 && count > maxEntries {
		return nil, &spktype.FormatError{Offset: offEntryCount, Err: spktype.ErrTooManyEntries}
	}

	// Each record is at least RecordHeaderSize bytes, which bounds how many
	// can possibly fit regardless of the declared count.
	hint := uint64(count)
	if uint64(indexOffset) <= c.size() {
		if fit := (c.size() - uint64(indexOffset)) / RecordHeaderSize; fit < hint {
			hint = fit
		}
	} else {
		hint = 0
	}

	idx := &Index{
		version: version,
		entries: make(map[string]spktype.Entry, hint),
		order:   make([]string, 0, hint),
	}

	off := uint64(indexOffset)
	for range count {
		entry, next, err := readRecord(c, off)
		if err != nil {
			return nil, err
		}
		if entry.End() > c.size() {
			return nil, &spktype.FormatError{Offset: int64(off), Err: spktype.ErrDataOutOfRange} //nolint:gosec // off fits in int64
		}

		key := Normalize(entry.Name)
		if _, dup := idx.entries[key]; !dup {
			idx.order = append(idx.order, key)
		}
		idx.entries[key] = entry
		off = next
	}
	return idx, nil
}

// readRecord decodes the record at off and returns the offset of the next one.
func readRecord(c cursor, off uint64) (spktype.Entry, uint64, error) {
	if _, err := c.bytes(off, RecordHeaderSize); err != nil {
		return spktype.Entry{}, 0, err
	}
	// The fixed-size part is in range, so the field reads below cannot fail.
	nameLen, _ := c.uint16(off + recNameLen)       //nolint:errcheck // range checked above
	dataOffset, _ := c.uint32(off + recDataOffset) //nolint:errcheck // range checked above
	dataLength, _ := c.uint32(off + recDataLength) //nolint:errcheck // range checked above
	compressed, _ := c.uint32(off + recCompressed) //nolint:errcheck // range checked above

	raw, err := c.bytes(off+RecordHeaderSize, uint64(nameLen))
	if err != nil {
		return spktype.Entry{}, 0, err
	}

	return spktype.Entry{
		Name:             decodeName(raw),
		DataOffset:       dataOffset,
		DataLength:       dataLength,
		CompressedLength: compressed,
	}, off + RecordHeaderSize + uint64(nameLen), nil
}

// decodeName reads one character per byte up to the first NUL.
func decodeName(raw []byte) string {
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	ascii := true
	for _, b := range raw {
		if b >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(raw)
	}
	name, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		// Latin-1 maps every byte, so this is unreachable in practice.
		return string(raw)
	}
	return string(name)
}

// Version returns the reserved/version header field.
func (idx *Index) Version() uint16 {
	return idx.version
}

// Lookup returns the entry stored under the normalized form of name.
func (idx *Index) Lookup(name string) (spktype.Entry, bool) {
	e, ok := idx.entries[Normalize(name)]
	return e, ok
}

// Len returns the number of distinct entry names.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Entries returns an iterator over entries in index order.
// When names repeat, the last record wins but keeps the first position.
func (idx *Index) Entries() iter.Seq[spktype.Entry] {
	return func(yield func(spktype.Entry) bool) {
		for _, key := range idx.order {
			if !yield(idx.entries[key]) {
				return
			}
		}
	}
}
