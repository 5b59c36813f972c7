// Package spktype holds the types shared between the archive reader and its
// internal index parser.
package spktype

// Entry describes one packaged file in an archive index.
//
// CompressedLength is carried for format fidelity only. Entry data is always
// served exactly as stored.
type Entry struct {
	Name             string
	DataOffset       uint32
	DataLength       uint32
	CompressedLength uint32
}

// End returns the offset one past the last data byte of the entry.
func (e Entry) End() uint64 {
	return uint64(e.DataOffset) + uint64(e.DataLength)
}
