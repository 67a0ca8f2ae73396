// Package netfetch is the concrete NetworkFetcher capability: plain HTTP
// text and binary fetches with a bounded timeout and a small redirect
// budget. It is safe to call from worker goroutines.
package netfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultTimeout = 10 * time.Second
	maxRedirects   = 5
)

// TextFetcher is the capability the schema pipeline consumes.
type TextFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// BinaryFetcher is the capability the asset manager consumes.
type BinaryFetcher interface {
	FetchBinary(ctx context.Context, url string) ([]byte, error)
}

type Fetcher struct {
	client *http.Client
	logger *zap.Logger
}

func New(timeout time.Duration, logger *zap.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		logger: logger,
	}
}

func (f *Fetcher) FetchText(ctx context.Context, url string) (string, error) {
	data, err := f.fetch(ctx, url)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (f *Fetcher) FetchBinary(ctx context.Context, url string) ([]byte, error) {
	return f.fetch(ctx, url)
}

func (f *Fetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", url, err)
	}

	f.logger.Debug("resource fetched",
		zap.String("url", url),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)))

	return data, nil
}
