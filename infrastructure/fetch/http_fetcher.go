// Package fetch downloads remote operator sources over HTTP.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Option configures an HTTPFetcher.
type Option func(*fetchConfig)

type fetchConfig struct {
	client       *http.Client
	logger       *slog.Logger
	timeout      time.Duration
	maxRedirects int
	maxBodySize  int64
}

func defaultFetchConfig() fetchConfig {
	return fetchConfig{
		logger:       slog.Default(),
		timeout:      5 * time.Minute,
		maxRedirects: 10,
		maxBodySize:  256 * 1024 * 1024, // 256MB
	}
}

// WithHTTPClient replaces the HTTP client. Timeout and redirect options are
// ignored when a client is supplied.
func WithHTTPClient(client *http.Client) Option {
	return func(c *fetchConfig) {
		c.client = client
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *fetchConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTimeout bounds a whole download.
func WithTimeout(d time.Duration) Option {
	return func(c *fetchConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxRedirects sets the maximum number of redirects to follow.
func WithMaxRedirects(n int) Option {
	return func(c *fetchConfig) {
		if n >= 0 {
			c.maxRedirects = n
		}
	}
}

// WithMaxBodySize rejects artifacts larger than size bytes.
func WithMaxBodySize(size int64) Option {
	return func(c *fetchConfig) {
		if size > 0 {
			c.maxBodySize = size
		}
	}
}

// HTTPFetcher implements ports.Fetcher with net/http. The destination file
// appears atomically: it is written to a temporary sibling and renamed.
type HTTPFetcher struct {
	client      *http.Client
	logger      *slog.Logger
	maxBodySize int64
}

// NewHTTPFetcher creates an HTTPFetcher.
func NewHTTPFetcher(opts ...Option) *HTTPFetcher {
	cfg := defaultFetchConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	client := cfg.client
	if client == nil {
		maxRedirects := cfg.maxRedirects
		client = &http.Client{
			Timeout: cfg.timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) > maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		}
	}
	return &HTTPFetcher{client: client, logger: cfg.logger, maxBodySize: cfg.maxBodySize}
}

// ErrTooLarge is returned when an artifact exceeds the configured size limit.
var ErrTooLarge = errors.New("artifact exceeds maximum size")

// Fetch implements ports.Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, url, destination string) (err error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	if resp.ContentLength > f.maxBodySize {
		return fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, resp.ContentLength, f.maxBodySize)
	}

	dir := filepath.Dir(destination)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(destination)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	n, err := io.Copy(tmp, io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}
	if n > f.maxBodySize {
		return fmt.Errorf("%w: more than %d bytes", ErrTooLarge, f.maxBodySize)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), destination); err != nil {
		return fmt.Errorf("failed to move artifact into place: %w", err)
	}

	f.logger.DebugContext(ctx, "operator downloaded",
		"url", url,
		"destination", destination,
		"bytes", n,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
