package index

import (
	"encoding/binary"

	"github.com/meigma/spk/internal/spktype"
)

// cursor provides bounds-checked little-endian reads over a byte buffer.
// Offsets are uint64 so that offset+length never wraps for 32-bit inputs.
type cursor struct {
	data []byte
}

func (c cursor) size() uint64 {
	return uint64(len(c.data))
}

// bytes returns data[off:off+n] or ErrTruncatedIndex if the range exceeds the buffer.
func (c cursor) bytes(off, n uint64) ([]byte, error) {
	if off > c.size() || n > c.size()-off {
		return nil, truncated(off)
	}
	return c.data[off : off+n : off+n], nil
}

func (c cursor) uint16(off uint64) (uint16, error) {
	b, err := c.bytes(off, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c cursor) uint32(off uint64) (uint32, error) {
	b, err := c.bytes(off, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func truncated(off uint64) error {
	return &spktype.FormatError{Offset: int64(off), Err: spktype.ErrTruncatedIndex} //nolint:gosec // off is bounded by 2*MaxUint32
}
