package preprocess

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// DefaultResponseHeaderTimeout is the default timeout for receiving response
// headers when fetching a remote read source.
const DefaultResponseHeaderTimeout = 30 * time.Second

// Downloader fetches remote read sources with resume support. Sequencing
// archives run to many gigabytes, so an interrupted transfer picks up from
// the bytes already on disk.
type Downloader struct {
	client *http.Client
}

// DownloaderOption configures a Downloader.
type DownloaderOption func(*Downloader)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) DownloaderOption {
	return func(d *Downloader) {
		d.client = client
	}
}

// WithDownloadTimeout sets an overall timeout for HTTP operations.
func WithDownloadTimeout(timeout time.Duration) DownloaderOption {
	return func(d *Downloader) {
		d.client = &http.Client{
			Timeout: timeout,
		}
	}
}

// NewDownloader creates a new Downloader with sensible defaults.
func NewDownloader(opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		client: &http.Client{
			Timeout: 0, // No overall timeout - we handle it per-request.
			Transport: &http.Transport{
				ResponseHeaderTimeout: DefaultResponseHeaderTimeout,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// isRemote reports whether a source path is an HTTP(S) URL.
func isRemote(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// Download starts downloading a URL, asking the server to resume from
// destPath's current size when a partial file exists. Returns the body, the
// total size, and whether the server honored the resume request.
func (d *Downloader) Download(ctx context.Context, url string, destPath string) (io.ReadCloser, int64, bool, error) {
	// Check if partial file exists.
	var existingSize int64
	if info, err := os.Stat(destPath); err == nil {
		existingSize = info.Size()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, 0, false, fmt.Errorf("creating request: %w", err)
	}
	if existingSize > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", existingSize))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, 0, false, fmt.Errorf("downloading: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		resp.Body.Close()
		return nil, 0, false, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	resumed := existingSize > 0 && resp.StatusCode == http.StatusPartialContent

	// Get total size.
	var totalSize int64
	if resumed {
		// Parse Content-Range header. Format: bytes 0-999/1234.
		contentRange := resp.Header.Get("Content-Range")
		if contentRange != "" {
			var start, end int64
			_, err := fmt.Sscanf(contentRange, "bytes %d-%d/%d", &start, &end, &totalSize)
			if err != nil {
				totalSize = existingSize + resp.ContentLength
			}
		}
	} else {
		totalSize = resp.ContentLength
	}

	return resp.Body, totalSize, resumed, nil
}

// DownloadToFile downloads a URL directly to a file, appending to a partial
// file when the server supports resume and starting over when it does not.
func (d *Downloader) DownloadToFile(ctx context.Context, url string, destPath string, progress ProgressFunc) error {
	body, totalSize, resumed, err := d.Download(ctx, url, destPath)
	if err != nil {
		return err
	}
	defer body.Close()

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	var downloaded int64
	if resumed {
		info, err := os.Stat(destPath)
		if err != nil {
			return fmt.Errorf("stating partial file: %w", err)
		}
		downloaded = info.Size()
		flags = os.O_WRONLY | os.O_APPEND
	}

	file, err := os.OpenFile(destPath, flags, 0644)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	buf := make([]byte, 32*1024)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := body.Read(buf)
		if n > 0 {
			if _, writeErr := file.Write(buf[:n]); writeErr != nil {
				return fmt.Errorf("writing file: %w", writeErr)
			}
			downloaded += int64(n)

			if progress != nil {
				progress(Progress{
					Phase:           "download",
					BytesDownloaded: downloaded,
					BytesTotal:      totalSize,
				})
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}
	}

	return nil
}
