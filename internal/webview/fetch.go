package webview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
)

var (
	ErrNoSource  = errors.New("page has neither url nor html")
	ErrEmptyPage = errors.New("portal returned an empty page")
	ErrNotText   = errors.New("portal returned a non-text body")
)

// FetchError is returned when the portal page could not be retrieved
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// FetchConfig controls portal page retrieval
type FetchConfig struct {
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int64
}

// Fetcher downloads portal pages
type Fetcher struct {
	client  *resty.Client
	maxBody int64
}

// NewFetcher creates a resty backed fetcher
func NewFetcher(cfg FetchConfig) *Fetcher {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.9")
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 2 << 20
	}

	return &Fetcher{client: client, maxBody: maxBody}
}

// Fetch returns the body of url. Non-2xx responses, empty bodies and
// binary content are errors. Bodies beyond the size cap are truncated.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	raw := resp.RawBody()
	defer raw.Close()

	if code := resp.StatusCode(); code < 200 || code > 299 {
		return nil, &FetchError{URL: url, Status: code, Err: fmt.Errorf("unexpected status %s", resp.Status())}
	}

	body, err := io.ReadAll(io.LimitReader(raw, f.maxBody))
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	if len(body) == 0 {
		return nil, &FetchError{URL: url, Err: ErrEmptyPage}
	}
	if !isText(body) {
		return nil, &FetchError{URL: url, Err: ErrNotText}
	}

	return body, nil
}

// isText reports whether the sniffed type is text/plain or a descendant
// of it, which covers HTML and XHTML.
func isText(body []byte) bool {
	for mt := mimetype.Detect(body); mt != nil; mt = mt.Parent() {
		if mt.Is("text/plain") {
			return true
		}
	}
	return false
}
