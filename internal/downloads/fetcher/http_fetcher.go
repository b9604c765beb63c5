package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/streampull/stream-downloader/internal/config"
	"github.com/streampull/stream-downloader/internal/downloads"
	"github.com/streampull/stream-downloader/pkg/logger"
)

const (
	defaultRequestTimeout  = 30 * time.Second
	initialBackoffInterval = 500 * time.Millisecond
	maxBackoffInterval     = 5 * time.Second
)

type httpFetcher struct {
	client *http.Client
	cfg    *config.Config
	logger logger.Logger
}

func NewHTTPFetcher(cfg *config.Config, client *http.Client, log logger.Logger) downloads.Fetcher {
	if client == nil {
		timeout := defaultRequestTimeout
		if cfg.Downloader.RequestTimeout > 0 {
			timeout = time.Duration(cfg.Downloader.RequestTimeout) * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &httpFetcher{
		client: client,
		cfg:    cfg,
		logger: log,
	}
}

// Fetch retrieves one segment with exponential backoff and jitter on
// transient failures only. Permanent failures abort immediately.
func (f *httpFetcher) Fetch(ctx context.Context, locator string) ([]byte, error) {
	maxRetries := uint64(0)
	if f.cfg.Downloader.RetryMax > 1 {
		maxRetries = uint64(f.cfg.Downloader.RetryMax - 1)
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = initialBackoffInterval
	expBackoff.MaxInterval = maxBackoffInterval
	expBackoff.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(expBackoff, maxRetries), ctx)

	return backoff.RetryNotifyWithData(
		func() ([]byte, error) {
			return f.attempt(ctx, locator)
		},
		policy,
		func(err error, next time.Duration) {
			f.logger.Warnf("Fetch - retrying %s in %s: %v", locator, next, err)
		},
	)
}

func (f *httpFetcher) attempt(ctx context.Context, locator string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, backoff.Permanent(&downloads.PermanentFetchError{Locator: locator, Err: err})
	}
	if f.cfg.Downloader.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.Downloader.UserAgent)
	}
	if f.cfg.Downloader.Referer != "" {
		req.Header.Set("Referer", f.cfg.Downloader.Referer)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		// Timeouts and connection resets are worth another try.
		return nil, &downloads.TransientFetchError{Locator: locator, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return nil, &downloads.TransientFetchError{
			Locator: locator,
			Err:     fmt.Errorf("unexpected status %s", resp.Status),
		}
	default:
		io.Copy(io.Discard, resp.Body)
		return nil, backoff.Permanent(&downloads.PermanentFetchError{
			Locator: locator,
			Err:     fmt.Errorf("unexpected status %s", resp.Status),
		})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &downloads.TransientFetchError{Locator: locator, Err: err}
		}
		return nil, backoff.Permanent(&downloads.PermanentFetchError{Locator: locator, Err: err})
	}
	if len(body) == 0 {
		return nil, backoff.Permanent(&downloads.PermanentFetchError{
			Locator: locator,
			Err:     errors.New("empty segment body"),
		})
	}
	return body, nil
}
