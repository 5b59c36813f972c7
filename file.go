package spk

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"time"
)

// OpenFile reads and parses the package file name.
func OpenFile(name string, opts ...Option) (*Archive, error) {
	data, err := os.ReadFile(name) //nolint:gosec // User-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("read archive file: %w", err)
	}
	a, err := Parse(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return a, nil
}

// entryFile is an fs.File over one entry's stored bytes.
// It also supports io.Seeker and io.ReaderAt so http.FS can serve it.
type entryFile struct {
	*bytes.Reader
	entry Entry
}

var (
	_ fs.File     = (*entryFile)(nil)
	_ io.Seeker   = (*entryFile)(nil)
	_ io.ReaderAt = (*entryFile)(nil)
)

func newEntryFile(e Entry, data []byte) *entryFile {
	return &entryFile{Reader: bytes.NewReader(data), entry: e}
}

func (f *entryFile) Stat() (fs.FileInfo, error) {
	return &fileInfo{entry: f.entry}, nil
}

func (f *entryFile) Close() error {
	return nil
}

// fileInfo implements fs.FileInfo for an archive entry.
type fileInfo struct {
	entry Entry
}

func (fi *fileInfo) Name() string       { return path.Base(fi.entry.Name) }
func (fi *fileInfo) Size() int64        { return int64(fi.entry.DataLength) }
func (fi *fileInfo) Mode() fs.FileMode  { return 0o444 }
func (fi *fileInfo) ModTime() time.Time { return time.Time{} }
func (fi *fileInfo) IsDir() bool        { return false }
func (fi *fileInfo) Sys() any           { return fi.entry }
