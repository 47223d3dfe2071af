// Package remote talks to the RFC editor: it downloads the RFC index and
// individual RFC documents over HTTP(S).
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hile/rtfm/internal/catalog"
	rerrors "github.com/hile/rtfm/internal/errors"
	"github.com/hile/rtfm/pkg/version"
)

// maxDocumentSize caps a single document download.
const maxDocumentSize = 64 << 20

// Options configures a Client.
type Options struct {
	IndexURL        string
	DocumentBaseURL string
	Timeout         time.Duration
	// Retries applies to the index download only.
	Retries    int
	UserAgent  string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client fetches the RFC index and documents.
type Client struct {
	indexURL  string
	docBase   string
	userAgent string
	retry     rerrors.RetryConfig
	http      *http.Client
	logger    *slog.Logger
}

// NewClient creates a client. Zero-valued options fall back to defaults.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = version.UserAgent()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	retry := rerrors.DefaultRetryConfig()
	retry.MaxRetries = max(opts.Retries, 0)

	base := opts.DocumentBaseURL
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}

	return &Client{
		indexURL:  opts.IndexURL,
		docBase:   base,
		userAgent: userAgent,
		retry:     retry,
		http:      httpClient,
		logger:    logger,
	}
}

// WithRetryDelays overrides backoff timing. Used by tests.
func (c *Client) WithRetryDelays(initial, maxDelay time.Duration) *Client {
	c.retry.InitialDelay = initial
	c.retry.MaxDelay = maxDelay
	return c
}

// IndexURL returns the RFC index location.
func (c *Client) IndexURL() string {
	return c.indexURL
}

// UserAgent returns the User-Agent header sent with every request.
func (c *Client) UserAgent() string {
	return c.userAgent
}

// DocumentURL returns the download location of an RFC text.
func (c *Client) DocumentURL(number int) string {
	return fmt.Sprintf("%srfc%d.txt", c.docBase, number)
}

// FetchIndex downloads and parses the RFC index, retrying transient failures.
// Any failure is reported as an index update error.
func (c *Client) FetchIndex(ctx context.Context) ([]catalog.Entry, error) {
	var body []byte
	err := rerrors.Retry(ctx, c.retry, func() error {
		data, err := c.get(ctx, c.indexURL, maxDocumentSize)
		if err != nil {
			c.logger.Warn("index download failed", slog.String("url", c.indexURL), slog.String("error", err.Error()))
			return err
		}
		body = data
		return nil
	})
	if err != nil {
		return nil, rerrors.IndexUpdateError("error downloading RFC index", err)
	}

	entries, err := ParseIndex(bytes.NewReader(body))
	if err != nil {
		return nil, rerrors.IndexUpdateError("error parsing RFC index", err)
	}
	if len(entries) == 0 {
		return nil, rerrors.IndexUpdateError("RFC index contains no entries", nil)
	}

	c.logger.Info("index downloaded",
		slog.String("url", c.indexURL),
		slog.Int("bytes", len(body)),
		slog.Int("entries", len(entries)))
	return entries, nil
}

// FetchDocument downloads one RFC text. It is never retried.
func (c *Client) FetchDocument(ctx context.Context, number int) ([]byte, error) {
	url := c.DocumentURL(number)
	data, err := c.get(ctx, url, maxDocumentSize)
	if err != nil {
		return nil, rerrors.FetchError(number, err)
	}
	if len(data) == 0 {
		return nil, rerrors.FetchError(number, errors.New("empty response body"))
	}
	c.logger.Debug("document_downloaded", slog.Int("rfc", number), slog.Int("bytes", len(data)))
	return data, nil
}

// get performs a GET and returns the body of a 200 response.
func (c *Client) get(ctx context.Context, url string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("response from %s exceeds %d bytes", url, limit)
	}
	return data, nil
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}
