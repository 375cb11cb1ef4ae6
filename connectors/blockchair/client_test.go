package connblockchair

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockchair-etl/flow/shared/exceptions"
)

var testDay = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func testClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	return NewClient(ClientConfig{
		BaseURL:     serverURL,
		DataDir:     t.TempDir(),
		MaxAttempts: 3,
		RetryDelay:  time.Millisecond,
	})
}

func TestDatasetNaming(t *testing.T) {
	require.Equal(t, "blockchair_bitcoin_blocks_20240501.tsv.gz",
		DatasetFileName("bitcoin", "blocks", testDay))

	client := NewClient(ClientConfig{BaseURL: "https://gz.blockchair.com", DataDir: "data"})
	assert.Equal(t,
		"https://gz.blockchair.com/bitcoin/blocks/blockchair_bitcoin_blocks_20240501.tsv.gz",
		client.DatasetURL("bitcoin", "blocks", testDay))
	assert.Equal(t,
		filepath.Join("data", "bitcoin", "blocks", "blockchair_bitcoin_blocks_20240501.tsv.gz"),
		client.LocalPath("bitcoin", "blocks", testDay))
}

func TestDownload(t *testing.T) {
	t.Run("saves the body under the final name", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/bitcoin/blocks/blockchair_bitcoin_blocks_20240501.tsv.gz", r.URL.Path)
			_, _ = w.Write([]byte("id\thash\n1\tabc\n"))
		}))
		defer server.Close()

		client := testClient(t, server.URL)
		status, path, err := client.Download(t.Context(), "bitcoin", "blocks", testDay, false)
		require.NoError(t, err)
		require.Equal(t, StatusDownloaded, status)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, "id\thash\n1\tabc\n", string(content))

		_, err = os.Stat(path + ".part")
		require.True(t, os.IsNotExist(err))
	})

	t.Run("skips existing file when asked", func(t *testing.T) {
		requests := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
		}))
		defer server.Close()

		client := testClient(t, server.URL)
		localPath := client.LocalPath("bitcoin", "blocks", testDay)
		require.NoError(t, os.MkdirAll(filepath.Dir(localPath), 0o755))
		require.NoError(t, os.WriteFile(localPath, []byte("already here"), 0o644))

		status, path, err := client.Download(t.Context(), "bitcoin", "blocks", testDay, true)
		require.NoError(t, err)
		require.Equal(t, StatusSkippedExisting, status)
		require.Equal(t, localPath, path)
		require.Zero(t, requests)
	})

	t.Run("missing dump is not retried", func(t *testing.T) {
		requests := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := testClient(t, server.URL)
		_, _, err := client.Download(t.Context(), "bitcoin", "blocks", testDay, false)
		require.ErrorIs(t, err, ErrDatasetNotAvailable)
		require.Equal(t, 1, requests)
	})

	t.Run("server errors are retried", func(t *testing.T) {
		requests := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
			if requests < 3 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte("id\n1\n"))
		}))
		defer server.Close()

		client := testClient(t, server.URL)
		status, _, err := client.Download(t.Context(), "bitcoin", "blocks", testDay, false)
		require.NoError(t, err)
		require.Equal(t, StatusDownloaded, status)
		require.Equal(t, 3, requests)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		requests := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := NewClient(ClientConfig{
			BaseURL:     server.URL,
			DataDir:     t.TempDir(),
			MaxAttempts: 2,
			RetryDelay:  time.Millisecond,
		})
		_, _, err := client.Download(t.Context(), "bitcoin", "blocks", testDay, false)
		require.ErrorContains(t, err, "HTTP 503")
		require.Equal(t, 2, requests)
	})
}

func TestDownloadRange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("id\n1\n"))
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	paths, err := client.DownloadRange(t.Context(), "bitcoin", []string{"blocks", "transactions"}, 2, false)
	require.NoError(t, err)
	require.Len(t, paths, 4)
	for _, path := range paths {
		_, err := os.Stat(path)
		require.NoError(t, err, "path %s", path)
	}

	_, err = client.DownloadRange(t.Context(), "bitcoin", []string{"blocks"}, 0, false)
	var configErr *exceptions.ConfigError
	require.ErrorAs(t, err, &configErr)
}

func TestCleanOldFiles(t *testing.T) {
	dataDir := t.TempDir()
	client := NewClient(ClientConfig{BaseURL: "http://unused", DataDir: dataDir})
	today := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	blocksDir := filepath.Join(dataDir, "bitcoin", "blocks")
	require.NoError(t, os.MkdirAll(blocksDir, 0o755))
	fresh := filepath.Join(blocksDir, "blockchair_bitcoin_blocks_20240509.tsv.gz")
	stale := filepath.Join(blocksDir, "blockchair_bitcoin_blocks_20240501.tsv.gz")
	unrelated := filepath.Join(blocksDir, "README.txt")
	for _, path := range []string{fresh, stale, unrelated} {
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}

	// transactions directory does not exist and must not fail the sweep
	err := client.CleanOldFiles(t.Context(), "bitcoin", []string{"blocks", "transactions"}, 7, today)
	require.NoError(t, err)

	_, err = os.Stat(fresh)
	assert.NoError(t, err)
	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(unrelated)
	assert.NoError(t, err)
}
