package disk

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/spk/cache"
)

var _ cache.Store = (*Store)(nil)

const location = "https://example.test/game.spk"

func newStore(t *testing.T, opts ...Option) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := New(dir, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, dir
}

func TestStorePutGet(t *testing.T) {
	t.Parallel()

	s, dir := newStore(t)
	content := bytes.Repeat([]byte(".spk payload "), 100)

	require.NoError(t, s.Put(location, content))

	got, ok := s.Get(location)
	require.True(t, ok)
	assert.Equal(t, content, got)

	encoded := digest.FromString(location).Encoded()
	path := filepath.Join(dir, encoded[:defaultShardPrefixLen], encoded)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Less(t, info.Size(), int64(len(content)), "stored file should be compressed")
	assert.Equal(t, info.Size(), s.SizeBytes())
}

func TestStoreGetMissing(t *testing.T) {
	t.Parallel()

	s, _ := newStore(t)
	_, ok := s.Get(location)
	assert.False(t, ok)
}

func TestStoreShardDisable(t *testing.T) {
	t.Parallel()

	s, dir := newStore(t, WithShardPrefixLen(0))
	require.NoError(t, s.Put(location, []byte("flat")))

	_, err := os.Stat(filepath.Join(dir, digest.FromString(location).Encoded()))
	require.NoError(t, err)
}

func TestStoreReplaceKeepsSizeAccurate(t *testing.T) {
	t.Parallel()

	s, _ := newStore(t)
	require.NoError(t, s.Put(location, bytes.Repeat([]byte("a"), 10)))
	require.NoError(t, s.Put(location, []byte("completely different content of another length")))

	size, err := dirSize(s.dir)
	require.NoError(t, err)
	assert.Equal(t, size, s.SizeBytes())
}

func TestStoreDelete(t *testing.T) {
	t.Parallel()

	s, _ := newStore(t)
	require.NoError(t, s.Put(location, []byte("data")))
	require.NoError(t, s.Delete(location))
	_, ok := s.Get(location)
	assert.False(t, ok)
	assert.Equal(t, int64(0), s.SizeBytes())

	require.NoError(t, s.Delete(location), "deleting a missing entry is a no-op")
}

func TestStoreCorruptFileIsDropped(t *testing.T) {
	t.Parallel()

	s, _ := newStore(t)
	require.NoError(t, s.Put(location, []byte("data")))
	require.NoError(t, os.WriteFile(s.path(location), []byte("not zstd"), 0o600))

	_, ok := s.Get(location)
	assert.False(t, ok)
	_, err := os.Stat(s.path(location))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStorePrune(t *testing.T) {
	t.Parallel()

	s, _ := newStore(t)
	locations := []string{"https://a.test/1.spk", "https://a.test/2.spk", "https://a.test/3.spk"}
	base := time.Now().Add(-time.Hour)
	for i, loc := range locations {
		require.NoError(t, s.Put(loc, bytes.Repeat([]byte{byte('a' + i)}, 256)))
		mt := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(s.path(loc), mt, mt))
	}

	total := s.SizeBytes()
	freed, err := s.Prune(total - 1)
	require.NoError(t, err)
	assert.Positive(t, freed)

	_, ok := s.Get(locations[0])
	assert.False(t, ok, "oldest entry should be pruned first")
	_, ok = s.Get(locations[2])
	assert.True(t, ok)
}

func TestStoreMaxBytes(t *testing.T) {
	t.Parallel()

	s, _ := newStore(t, WithMaxBytes(1))
	// The compressed frame alone exceeds the limit, so Put is a silent no-op.
	require.NoError(t, s.Put(location, []byte("too big")))
	_, ok := s.Get(location)
	assert.False(t, ok)
	assert.Equal(t, int64(1), s.MaxBytes())
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := New("")
	require.Error(t, err)

	_, err = New(t.TempDir(), WithShardPrefixLen(-1))
	require.Error(t, err)

	_, err = New(t.TempDir(), WithMaxBytes(-1))
	require.Error(t, err)
}

func TestNewCountsExistingFiles(t *testing.T) {
	t.Parallel()

	s, dir := newStore(t)
	require.NoError(t, s.Put(location, []byte("persisted")))

	reopened, err := New(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	assert.Equal(t, s.SizeBytes(), reopened.SizeBytes())

	got, ok := reopened.Get(location)
	require.True(t, ok)
	assert.Equal(t, "persisted", string(got))
}
