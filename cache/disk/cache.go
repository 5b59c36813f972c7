// Package disk provides a filesystem-backed store for raw package bytes.
//
// Entries are keyed by the SHA-256 digest of the package location and stored
// zstd-compressed. The store implements cache.Store.
package disk

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/klauspost/compress/zstd"
	"github.com/opencontainers/go-digest"
)

const (
	defaultShardPrefixLen = 2
	defaultDirPerm        = 0o700
	tempPattern           = "tmp-*"
)

// Store implements cache.Store using the local filesystem.
// Files are stored in a directory hierarchy with optional sharding by digest prefix.
// The store is safe for concurrent use.
type Store struct {
	dir            string      // root directory for stored files
	shardPrefixLen int         // number of hex chars for subdirectory sharding
	dirPerm        os.FileMode // permissions for created directories
	maxBytes       int64       // maximum store size (0 = unlimited)
	level          zstd.EncoderLevel
	bytes          atomic.Int64 // current total size of stored files
	pruneMu        sync.Mutex   // serializes prune operations

	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// Option configures a disk store.
type Option func(*Store)

// WithShardPrefixLen sets the number of hex characters used for sharding.
// Use 0 to disable sharding. Defaults to 2.
func WithShardPrefixLen(n int) Option {
	return func(s *Store) {
		s.shardPrefixLen = n
	}
}

// WithDirPerm sets the directory permissions used for store directories.
func WithDirPerm(mode os.FileMode) Option {
	return func(s *Store) {
		s.dirPerm = mode
	}
}

// WithMaxBytes sets the maximum store size in bytes, measured after compression.
// Values < 0 are invalid. Use 0 to disable the limit.
func WithMaxBytes(n int64) Option {
	return func(s *Store) {
		s.maxBytes = n
	}
}

// WithEncoderLevel sets the zstd compression level. Defaults to zstd.SpeedDefault.
func WithEncoderLevel(level zstd.EncoderLevel) Option {
	return func(s *Store) {
		s.level = level
	}
}

// New creates a disk-backed store rooted at dir.
func New(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, errors.New("store dir is empty")
	}
	s := &Store{
		dir:            dir,
		shardPrefixLen: defaultShardPrefixLen,
		dirPerm:        defaultDirPerm,
		level:          zstd.SpeedDefault,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.shardPrefixLen < 0 {
		return nil, errors.New("shard prefix length must be >= 0")
	}
	if s.maxBytes < 0 {
		return nil, errors.New("max bytes must be >= 0")
	}
	if err := os.MkdirAll(dir, s.dirPerm); err != nil {
		return nil, err
	}
	size, err := dirSize(dir)
	if err != nil {
		return nil, err
	}
	s.bytes.Store(size)

	s.encoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(s.level))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	s.decoder, err = zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		_ = s.encoder.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return s, nil
}

// Close releases the compression resources. The on-disk contents are kept.
func (s *Store) Close() error {
	s.decoder.Close()
	return s.encoder.Close()
}

// Get returns the stored bytes for location.
// A stored file that fails to decompress is removed and reported as missing.
func (s *Store) Get(location string) ([]byte, bool) {
	path := s.path(location)
	compressed, err := os.ReadFile(path) //nolint:gosec // path is derived from a digest, not user input
	if err != nil {
		return nil, false
	}
	data, err := s.decoder.DecodeAll(compressed, nil)
	if err != nil {
		_ = s.Delete(location) //nolint:errcheck // best-effort cleanup of a corrupt file
		return nil, false
	}
	return data, true
}

// Put stores data for location, replacing any previous copy.
func (s *Store) Put(location string, data []byte) error {
	path := s.path(location)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, s.dirPerm); err != nil {
		return err
	}

	compressed := s.encoder.EncodeAll(data, nil)
	need := int64(len(compressed))
	if ok, err := s.ensureCapacity(need); err != nil {
		return err
	} else if !ok {
		return nil
	}

	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(compressed); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	var previous int64
	if info, err := os.Stat(path); err == nil {
		previous = info.Size()
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	s.bytes.Add(need - previous)
	return nil
}

// Delete removes stored bytes for location.
func (s *Store) Delete(location string) error {
	path := s.path(location)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	s.bytes.Add(-info.Size())
	return nil
}

// MaxBytes returns the configured size limit (0 = unlimited).
func (s *Store) MaxBytes() int64 {
	return s.maxBytes
}

// SizeBytes returns the current size of stored files in bytes.
func (s *Store) SizeBytes() int64 {
	return s.bytes.Load()
}

// Prune removes the least recently written files until the store is at or
// below targetBytes. It returns the number of bytes freed.
func (s *Store) Prune(targetBytes int64) (int64, error) {
	if targetBytes < 0 {
		targetBytes = 0
	}
	s.pruneMu.Lock()
	defer s.pruneMu.Unlock()

	freed, remaining, err := pruneDir(s.dir, targetBytes)
	if err != nil {
		return 0, err
	}
	s.bytes.Store(remaining)
	return freed, nil
}

// path maps a location to its file. The digest keeps arbitrary URLs out of
// file names.
func (s *Store) path(location string) string {
	encoded := digest.FromString(location).Encoded()
	if s.shardPrefixLen <= 0 {
		return filepath.Join(s.dir, encoded)
	}
	prefixLen := min(s.shardPrefixLen, len(encoded))
	return filepath.Join(s.dir, encoded[:prefixLen], encoded)
}

func (s *Store) ensureCapacity(need int64) (bool, error) {
	if s.maxBytes <= 0 {
		return true, nil
	}
	if need > s.maxBytes {
		return false, nil
	}
	if s.SizeBytes()+need <= s.maxBytes {
		return true, nil
	}
	if _, err := s.Prune(s.maxBytes - need); err != nil {
		return false, err
	}
	return s.SizeBytes()+need <= s.maxBytes, nil
}
