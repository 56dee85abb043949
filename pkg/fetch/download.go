// Package fetch prepares the comparator's inputs: it downloads the
// reference archive, verifies its checksum, and extracts both bundles.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cheggaaa/pb/v3"

	"github.com/bundlecheck/bundlecheck/pkg/ratelimit"
)

// Downloader retrieves archives over HTTP with redirect following
type Downloader struct {
	httpClient   *http.Client
	limiter      *ratelimit.Limiter
	showProgress bool
}

// NewDownloader creates a downloader. limiter may be nil for unlimited
// bandwidth.
func NewDownloader(limiter *ratelimit.Limiter, showProgress bool) *Downloader {
	return &Downloader{
		httpClient: &http.Client{
			Timeout: 30 * time.Minute,
		},
		limiter:      limiter,
		showProgress: showProgress,
	}
}

// SetHTTPClient overrides the HTTP client (used by tests)
func (d *Downloader) SetHTTPClient(client *http.Client) {
	d.httpClient = client
}

// Download fetches url into destPath, creating parent directories as
// needed. The default client follows redirects.
func (d *Downloader) Download(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download archive: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned status %d for %s", resp.StatusCode, url)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}

	file, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer file.Close()

	var reader io.Reader = resp.Body
	if d.limiter != nil {
		reader = ratelimit.NewReader(ctx, reader, d.limiter)
	}

	var bar *pb.ProgressBar
	if d.showProgress && resp.ContentLength > 0 {
		bar = pb.Full.Start64(resp.ContentLength)
		reader = bar.NewProxyReader(reader)
		defer bar.Finish()
	}

	if _, err := io.Copy(file, reader); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}

	return nil
}
