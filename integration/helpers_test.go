//go:build integration

package integration

import (
	"context"
	"fmt"
	"io"
	nethttp "net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/meigma/spk/internal/testutil"
)

const docRoot = "/usr/share/nginx/html"

// --- Origin Container Setup ---

var (
	originOnce sync.Once
	originURL  string
	originErr  error
)

// getOrigin returns the base URL of the shared nginx origin, starting the
// container if needed. The container is shared across all tests.
func getOrigin(tb testing.TB) string {
	tb.Helper()

	if os.Getenv("SKIP_DOCKER_TESTS") == "1" {
		tb.Skip("SKIP_DOCKER_TESTS is set")
	}

	originOnce.Do(func() {
		var dir string
		dir, originErr = writeFixtures(tb)
		if originErr != nil {
			return
		}
		originURL, originErr = startOriginContainer(context.Background(), dir)
	})

	if originErr != nil {
		tb.Fatalf("start origin container: %v", originErr)
	}
	return originURL
}

// startOriginContainer starts nginx serving every file in dir and returns its base URL.
func startOriginContainer(ctx context.Context, dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	files := make([]testcontainers.ContainerFile, 0, len(entries))
	for _, e := range entries {
		files = append(files, testcontainers.ContainerFile{
			HostFilePath:      filepath.Join(dir, e.Name()),
			ContainerFilePath: docRoot + "/" + e.Name(),
			FileMode:          0o644,
		})
	}

	req := testcontainers.ContainerRequest{
		Image:        "nginx:alpine",
		ExposedPorts: []string{"80/tcp"},
		Files:        files,
		WaitingFor:   wait.ForHTTP("/index.html").WithPort("80/tcp").WithStatusCodeMatcher(isOKStatus),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start nginx container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve origin host: %w", err)
	}
	port, err := container.MappedPort(ctx, "80/tcp")
	if err != nil {
		return "", fmt.Errorf("resolve origin port: %w", err)
	}
	return fmt.Sprintf("http://%s:%s", host, port.Port()), nil
}

func isOKStatus(status int) bool {
	return status >= 200 && status < 300
}

// --- Fixtures ---

// demoFiles are packed into demo.spk.
var demoFiles = map[string][]byte{
	"config.json":       []byte(`{"version": 1, "name": "demo"}`),
	"scripts/main.js":   []byte("console.log('demo')"),
	"assets/logo.png":   {0x89, 'P', 'N', 'G', 0x0d, 0x0a},
	"levels/one/a.data": makeCompressibleContent(64 * 1024),
}

// writeFixtures builds the origin's document root in a fresh directory.
// The directory outlives any single test because the container is shared.
func writeFixtures(tb testing.TB) (string, error) {
	dir, err := os.MkdirTemp("", "spk-origin-")
	if err != nil {
		return "", err
	}

	entries := make([]testutil.TestEntry, 0, len(demoFiles))
	for name, data := range demoFiles {
		entries = append(entries, testutil.TestEntry{Name: name, Data: data})
	}
	fixtures := map[string][]byte{
		"index.html":  []byte("<h1>origin</h1>"),
		"demo.spk":    testutil.BuildTestArchive(tb, entries),
		"corrupt.spk": []byte("this is not a package"),
	}
	for name, data := range fixtures {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return "", err
		}
	}
	return dir, nil
}

// makeCompressibleContent creates repetitive content of the given size.
func makeCompressibleContent(size int) []byte {
	pattern := []byte("This is a repeating pattern for compression testing. ")
	result := make([]byte, 0, size)
	for len(result) < size {
		result = append(result, pattern...)
	}
	return result[:size]
}

// --- Request Helpers ---

type response struct {
	status      int
	contentType string
	body        []byte
}

func doGet(tb testing.TB, client *nethttp.Client, url string) response {
	tb.Helper()
	req, err := nethttp.NewRequestWithContext(context.Background(), nethttp.MethodGet, url, nethttp.NoBody)
	require.NoError(tb, err)
	resp, err := client.Do(req)
	require.NoError(tb, err, "GET %s", url)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(tb, err)
	return response{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        body,
	}
}
