package spk

import (
	"bytes"
	"io/fs"
	"iter"
	"sync"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/spk/internal/index"
)

// Interface compliance.
var (
	_ fs.FS         = (*Archive)(nil)
	_ fs.StatFS     = (*Archive)(nil)
	_ fs.ReadFileFS = (*Archive)(nil)
)

// Archive is an immutable, parsed view over the raw bytes of one package.
//
// Archive is safe for concurrent use.
type Archive struct {
	raw []byte
	idx *index.Index

	digestOnce sync.Once
	digest     digest.Digest
}

// Parse parses an SPK package held in data.
//
// The returned Archive retains data; callers must not modify it after calling
// Parse. Malformed input yields a *FormatError and no Archive.
func Parse(data []byte, opts ...Option) (*Archive, error) {
	var cfg parseConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	idx, err := index.Parse(data, cfg.maxEntries)
	if err != nil {
		return nil, err
	}
	return &Archive{raw: data, idx: idx}, nil
}

// Lookup returns the index record for path.
func (a *Archive) Lookup(path string) (Entry, bool) {
	return a.idx.Lookup(path)
}

// EntryData returns the stored bytes of the entry at path.
//
// The returned slice aliases the archive buffer and must be treated as
// read-only. A missing entry returns nil, false.
func (a *Archive) EntryData(path string) ([]byte, bool) {
	e, ok := a.idx.Lookup(path)
	if !ok {
		return nil, false
	}
	start, end := uint64(e.DataOffset), e.End()
	// Parse guarantees the range; recheck so a corrupted index can never slice out of bounds.
	if end > uint64(len(a.raw)) {
		return nil, false
	}
	return a.raw[start:end:end], true
}

// Len returns the number of distinct entries in the archive.
func (a *Archive) Len() int {
	return a.idx.Len()
}

// Entries returns an iterator over all entries in index order.
func (a *Archive) Entries() iter.Seq[Entry] {
	return a.idx.Entries()
}

// Version returns the reserved/version header field. It is not validated.
func (a *Archive) Version() uint16 {
	return a.idx.Version()
}

// Size returns the size of the raw archive buffer in bytes.
func (a *Archive) Size() int64 {
	return int64(len(a.raw))
}

// Digest returns the SHA-256 digest of the raw archive bytes.
// It is computed on first use.
func (a *Archive) Digest() digest.Digest {
	a.digestOnce.Do(func() {
		a.digest = digest.FromBytes(a.raw)
	})
	return a.digest
}

// Open implements fs.FS.
//
// Only files can be opened; the archive has no directories.
func (a *Archive) Open(name string) (fs.File, error) {
	e, data, err := a.fsLookup("open", name)
	if err != nil {
		return nil, err
	}
	return newEntryFile(e, data), nil
}

// Stat implements fs.StatFS.
func (a *Archive) Stat(name string) (fs.FileInfo, error) {
	e, _, err := a.fsLookup("stat", name)
	if err != nil {
		return nil, err
	}
	return &fileInfo{entry: e}, nil
}

// ReadFile implements fs.ReadFileFS.
//
// The returned slice is a copy and may be modified by the caller.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	_, data, err := a.fsLookup("readfile", name)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(data), nil
}

func (a *Archive) fsLookup(op, name string) (Entry, []byte, error) {
	if !fs.ValidPath(name) {
		return Entry{}, nil, &fs.PathError{Op: op, Path: name, Err: fs.ErrInvalid}
	}
	e, ok := a.idx.Lookup(name)
	if !ok {
		return Entry{}, nil, &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
	}
	data, ok := a.EntryData(name)
	if !ok {
		return Entry{}, nil, &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
	}
	return e, data, nil
}
