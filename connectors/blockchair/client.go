// Package connblockchair downloads daily dump files from the Blockchair
// archive and keeps the local dump tree within its retention window.
package connblockchair

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/blockchair-etl/flow/internal"
	"github.com/blockchair-etl/flow/logger"
	"github.com/blockchair-etl/flow/shared/exceptions"
)

const dateLayout = "20060102"

// Dumps for a day are published with some lag, so a 404 usually just means
// not yet.
var ErrDatasetNotAvailable = errors.New("dataset not available")

var reDumpFileName = regexp.MustCompile(`^blockchair_\w+_(\w+)_(\d{8})\.tsv\.gz$`)

type DownloadStatus int

const (
	StatusDownloaded DownloadStatus = iota
	StatusSkippedExisting
)

func (s DownloadStatus) String() string {
	if s == StatusSkippedExisting {
		return "skipped-existing"
	}
	return "downloaded"
}

// statusError carries a non-2xx response through the retry loop.
type statusError struct {
	code int
	url  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d", e.url, e.code)
}

func retryableDownloadError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var httpErr *statusError
	if errors.As(err, &httpErr) {
		return httpErr.code >= 500
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// ClientConfig overrides individual client settings. Zero fields fall back
// to their environment defaults.
type ClientConfig struct {
	BaseURL     string
	DataDir     string
	MaxAttempts int
	RetryDelay  time.Duration
	HTTPClient  *http.Client
}

type Client struct {
	httpClient  *http.Client
	baseURL     string
	dataDir     string
	maxAttempts int
	retryDelay  time.Duration
}

func NewClient(config ClientConfig) *Client {
	if config.BaseURL == "" {
		config.BaseURL = internal.BlockchairBaseURL()
	}
	if config.DataDir == "" {
		config.DataDir = internal.EtlDataDir()
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = internal.EtlDownloadMaxAttempts()
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = internal.EtlDownloadRetryDelay()
	}
	if config.HTTPClient == nil {
		// no overall client timeout, dump bodies run to gigabytes
		config.HTTPClient = &http.Client{
			Transport: &http.Transport{ResponseHeaderTimeout: 30 * time.Second},
		}
	}
	return &Client{
		httpClient:  config.HTTPClient,
		baseURL:     config.BaseURL,
		dataDir:     config.DataDir,
		maxAttempts: config.MaxAttempts,
		retryDelay:  config.RetryDelay,
	}
}

// DatasetFileName returns blockchair_<coin>_<kind>_<YYYYMMDD>.tsv.gz.
func DatasetFileName(coin string, kind string, day time.Time) string {
	return fmt.Sprintf("blockchair_%s_%s_%s.tsv.gz", coin, kind, day.Format(dateLayout))
}

func (c *Client) DatasetURL(coin string, kind string, day time.Time) string {
	return fmt.Sprintf("%s/%s/%s/%s", c.baseURL, coin, kind, DatasetFileName(coin, kind, day))
}

func (c *Client) LocalPath(coin string, kind string, day time.Time) string {
	return filepath.Join(c.dataDir, coin, kind, DatasetFileName(coin, kind, day))
}

// Download fetches one dump into the local tree, writing through a temp file
// so partial downloads never surface under the final name. 5xx responses and
// transport failures are retried with exponential backoff; a 404 maps to
// ErrDatasetNotAvailable.
func (c *Client) Download(ctx context.Context, coin string, kind string, day time.Time, skipExisting bool) (DownloadStatus, string, error) {
	log := logger.LoggerFromCtx(ctx)
	localPath := c.LocalPath(coin, kind, day)

	if skipExisting {
		if _, err := os.Stat(localPath); err == nil {
			log.Info("skipped existing dump", slog.String("path", localPath))
			return StatusSkippedExisting, localPath, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return 0, "", exceptions.NewOutputError(fmt.Errorf("creating %s: %w", filepath.Dir(localPath), err))
	}

	downloadURL := c.DatasetURL(coin, kind, day)
	log.Info("downloading dump", slog.String("url", downloadURL))
	written, err := internal.ExponentialBackoff(ctx, func() (int64, error) {
		return c.fetch(ctx, downloadURL, localPath)
	},
		internal.WithBackoffMaxAttempts(c.maxAttempts),
		internal.WithBackoffInitialDelay(c.retryDelay),
		internal.WithBackoffRetryable(retryableDownloadError),
	)
	if err != nil {
		return 0, "", fmt.Errorf("downloading %s: %w", downloadURL, err)
	}

	log.Info("dump saved", slog.String("path", localPath), slog.Int64("bytes", written))
	return StatusDownloaded, localPath, nil
}

func (c *Client) fetch(ctx context.Context, downloadURL string, localPath string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return 0, fmt.Errorf("building request for %s: %w", downloadURL, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return 0, fmt.Errorf("%w: %s", ErrDatasetNotAvailable, downloadURL)
	default:
		return 0, &statusError{code: resp.StatusCode, url: downloadURL}
	}

	tempPath := localPath + ".part"
	file, err := os.Create(tempPath)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", tempPath, err)
	}
	written, err := io.Copy(file, resp.Body)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempPath)
		return 0, fmt.Errorf("writing %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, localPath); err != nil {
		os.Remove(tempPath)
		return 0, fmt.Errorf("renaming %s: %w", tempPath, err)
	}
	return written, nil
}

// DownloadRange fetches the dumps of every kind for days counted back from
// yesterday, oldest last, and returns the local paths in download order.
func (c *Client) DownloadRange(ctx context.Context, coin string, kinds []string, days int, skipExisting bool) ([]string, error) {
	if days <= 0 {
		return nil, exceptions.NewConfigError("number of days must be positive, got %d", days)
	}

	paths := make([]string, 0, len(kinds)*days)
	today := time.Now()
	for _, kind := range kinds {
		for back := 1; back <= days; back++ {
			_, path, err := c.Download(ctx, coin, kind, today.AddDate(0, 0, -back), skipExisting)
			if err != nil {
				return paths, err
			}
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// CleanOldFiles removes dumps dated outside the retention window of days
// counted back from today. Files with unexpected names are left alone.
func (c *Client) CleanOldFiles(ctx context.Context, coin string, kinds []string, retentionDays int, today time.Time) error {
	log := logger.LoggerFromCtx(ctx)
	validDates := make(map[string]struct{}, retentionDays)
	for back := 1; back <= retentionDays; back++ {
		validDates[today.AddDate(0, 0, -back).Format(dateLayout)] = struct{}{}
	}

	for _, kind := range kinds {
		kindDir := filepath.Join(c.dataDir, coin, kind)
		entries, err := os.ReadDir(kindDir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("listing %s: %w", kindDir, err)
		}
		for _, entry := range entries {
			match := reDumpFileName.FindStringSubmatch(entry.Name())
			if match == nil {
				continue
			}
			if _, ok := validDates[match[2]]; ok {
				continue
			}
			path := filepath.Join(kindDir, entry.Name())
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("removing %s: %w", path, err)
			}
			log.Info("removed old dump", slog.String("path", path))
		}
	}
	return nil
}
