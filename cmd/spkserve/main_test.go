package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/spk/internal/config"
	"github.com/meigma/spk/internal/testutil"
)

func demoArchive(t *testing.T) []byte {
	t.Helper()
	return testutil.BuildTestArchiveVersion(t, 7, []testutil.TestEntry{
		{Name: "a.json", Data: []byte(`{"a":1}`)},
		{Name: "scripts/b.js", Data: []byte("b()"), CompressedLength: 3},
	})
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func testApp(cfg config.Config) *app {
	return &app{cfg: cfg, logger: slog.New(slog.DiscardHandler)}
}

func TestCat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.spk")
	require.NoError(t, os.WriteFile(path, demoArchive(t), 0o600))

	out, err := runCmd(t, "cat", path, "scripts/b.js")
	require.NoError(t, err)
	assert.Equal(t, "b()", out)

	_, err = runCmd(t, "cat", path, "missing.js")
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestCatOverHTTP(t *testing.T) {
	raw := demoArchive(t)
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		_, _ = w.Write(raw)
	}))
	t.Cleanup(srv.Close)

	out, err := runCmd(t, "cat", srv.URL+"/demo.spk", "a.json")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, out)
}

func TestInspect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.spk")
	require.NoError(t, os.WriteFile(path, demoArchive(t), 0o600))

	out, err := runCmd(t, "inspect", "--list", path)
	require.NoError(t, err)
	fields := map[string]string{}
	for line := range strings.Lines(out) {
		if f := strings.Fields(line); len(f) == 2 {
			fields[f[0]] = f[1]
		}
	}
	assert.Equal(t, "7", fields["version:"])
	assert.Equal(t, "2", fields["entries:"])
	assert.Contains(t, out, "sha256:")
	assert.Contains(t, out, "scripts/b.js")
	assert.Contains(t, out, "NAME")
}

func TestInspectInvalidPackage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.spk")
	require.NoError(t, os.WriteFile(path, []byte("not a package"), 0o600))

	_, err := runCmd(t, "inspect", path)
	require.Error(t, err)
}

func TestServeRequiresUpstream(t *testing.T) {
	t.Setenv("SPK_UPSTREAM", "")

	_, err := runCmd(t, "serve", "--listen", "127.0.0.1:0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream")
}

func get(t *testing.T, url string) (int, string, string) {
	t.Helper()
	resp, err := nethttp.Get(url) //nolint:noctx // test helper
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, resp.Header.Get("Content-Type"), string(body)
}

func TestHandlerProxiesHTTPUpstream(t *testing.T) {
	raw := demoArchive(t)
	var archiveHits atomic.Int32
	upstream := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		switch r.URL.Path {
		case "/games/demo.spk":
			archiveHits.Add(1)
			_, _ = w.Write(raw)
		case "/games/index.html":
			_, _ = io.WriteString(w, "index")
		default:
			nethttp.NotFound(w, r)
		}
	}))
	t.Cleanup(upstream.Close)

	cfg := config.Default()
	cfg.Upstream = upstream.URL + "/games"
	cfg.CacheDir = t.TempDir()
	cfg.ContentTypes = map[string]string{"html": "text/html"}
	cfg.Preload = []string{upstream.URL + "/games/demo.spk"}

	h, closeCache, err := testApp(cfg).handler(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeCache() })

	front := httptest.NewServer(h)
	t.Cleanup(front.Close)

	status, ct, body := get(t, front.URL+"/demo.spk/a.json")
	assert.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "application/json", ct)
	assert.Equal(t, `{"a":1}`, body)

	status, ct, body = get(t, front.URL+"/demo.spk/scripts/b.js")
	assert.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "text/javascript", ct)
	assert.Equal(t, "b()", body)

	status, _, body = get(t, front.URL+"/demo.spk/nope")
	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.Equal(t, "404 Not Found", body)

	status, _, body = get(t, front.URL+"/index.html")
	assert.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "index", body)

	status, _, _ = get(t, front.URL+"/missing.spk/a.json")
	assert.Equal(t, nethttp.StatusBadRequest, status)

	assert.Equal(t, int32(1), archiveHits.Load())
}

func TestHandlerServesFileUpstream(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "demo.spk"), demoArchive(t), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("hi"), 0o600))

	cfg := config.Default()
	cfg.Upstream = "file://" + filepath.ToSlash(dir)

	h, closeCache, err := testApp(cfg).handler(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeCache() })

	front := httptest.NewServer(h)
	t.Cleanup(front.Close)

	status, _, body := get(t, front.URL+"/demo.spk/a.json")
	assert.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, `{"a":1}`, body)

	status, _, body = get(t, front.URL+"/readme.txt")
	assert.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "hi", body)
}
