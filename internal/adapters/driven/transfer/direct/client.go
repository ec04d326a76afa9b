// Package direct downloads analyses one file at a time over HTTP and
// unpacks published snapshot archives.
package direct

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/klauspost/compress/gzip"

	"github.com/custodia-labs/vcf-ingest/internal/core/domain"
	"github.com/custodia-labs/vcf-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/vcf-ingest/internal/logger"
)

// partSuffix marks a download in progress. Only complete files carry
// their final name, so the artifact check never sees a truncated file.
const partSuffix = ".part"

// defaultScheme is prefixed to single-file locations, which the catalog
// reports without one (e.g. ftp.sra.ebi.ac.uk/vol1/...).
const defaultScheme = "https://"

// Ensure Client implements the interfaces.
var (
	_ driven.Transferrer     = (*Client)(nil)
	_ driven.SnapshotFetcher = (*Client)(nil)
)

// Client fetches files over HTTP with bounded per-request retries.
type Client struct {
	http *retryablehttp.Client
}

// NewClient creates a client from transfer settings. Each request is tried
// up to MaxAttempts times, waiting from InitialBackoff between tries.
func NewClient(settings domain.TransferSettings) *Client {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = max(settings.MaxAttempts-1, 0)
	httpClient.RetryWaitMin = settings.InitialBackoff
	httpClient.RetryWaitMax = 8 * settings.InitialBackoff
	httpClient.Logger = logger.Leveled{Prefix: "download: "}
	httpClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return &Client{http: httpClient}
}

// Transfer downloads every source into targetDir under its base name.
// Failures are collected and returned together after all sources were
// tried; callers check for artifacts.
func (c *Client) Transfer(ctx context.Context, sources []string, targetDir string) error {
	var errs []error
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		dst := filepath.Join(targetDir, path.Base(src))
		logger.Info("Downloading file %s", src)
		if err := c.download(ctx, SourceURL(src), dst); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			logger.Warn("Could not download file %s: %v", dst, err)
			errs = append(errs, err)
			continue
		}
		logger.Debug("Downloaded file %s", dst)
	}
	return errors.Join(errs...)
}

// SourceURL turns a catalog location into a URL.
func SourceURL(src string) string {
	if strings.Contains(src, "://") {
		return src
	}
	return defaultScheme + src
}

func (c *Client) download(ctx context.Context, url, dst string) error {
	resp, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := writeFile(dst, resp.Body); err != nil {
		return fmt.Errorf("%w: download %s: %w", domain.ErrTransientRemote, url, err)
	}
	return nil
}

// Fetch streams a .tar.gz archive into targetDir, dropping the archive's
// top-level directory. It returns the number of files written.
func (c *Client) Fetch(ctx context.Context, archiveURL, targetDir string) (int, error) {
	resp, err := c.get(ctx, archiveURL)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	zr, err := gzip.NewReader(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("open archive %s: %w", archiveURL, err)
	}
	defer zr.Close()

	n, err := extract(tar.NewReader(zr), targetDir)
	if err != nil {
		return n, fmt.Errorf("unpack archive %s: %w", archiveURL, err)
	}
	logger.Info("Unpacked %d files from %s", n, archiveURL)
	return n, nil
}

func extract(tr *tar.Reader, targetDir string) (int, error) {
	n := 0
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		name, ok := stripTopLevel(hdr.Name)
		if !ok {
			continue
		}
		if !filepath.IsLocal(name) {
			return n, fmt.Errorf("%w: archive entry %q escapes the snapshot", domain.ErrInvalidInput, hdr.Name)
		}
		dst := filepath.Join(targetDir, name)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return n, err
		}
		if err := writeFile(dst, tr); err != nil {
			return n, err
		}
		n++
	}
}

// stripTopLevel drops the first path component of an archive entry,
// reporting false for entries that live at the top level.
func stripTopLevel(name string) (string, bool) {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	_, rest, found := strings.Cut(name, "/")
	if !found || rest == "" {
		return "", false
	}
	return filepath.FromSlash(rest), true
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request for %s: %w", domain.ErrInvalidInput, url, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: GET %s: %w", domain.ErrTransientRemote, url, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return resp, nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: GET %s returned %s", domain.ErrTransientRemote, url, resp.Status)
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s returned %s", url, resp.Status)
	}
}

// writeFile copies src to dst through a partial file.
func writeFile(dst string, src io.Reader) error {
	part := dst + partSuffix
	f, err := os.Create(part)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(part)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(part)
		return err
	}
	return os.Rename(part, dst)
}
