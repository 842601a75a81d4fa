// Package fetcher performs bounded single-attempt HTTP GETs: a hard
// wall-time ceiling and a hard body-size ceiling, enforced by an explicit
// chunked read loop rather than by a client-level connect timeout, since
// the latter does not bound body streaming once a response has started.
//
// The HTTP transport is built on github.com/PuerkitoBio/rehttp as a
// pluggable RoundTripper, configured here for zero retries: a fetch makes
// one attempt per URL, so the retrying behavior rehttp is built for is
// deliberately turned off while keeping its transport shape for future
// tuning.
package fetcher

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/rehttp"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// AbortError groups every network, TLS, timeout, DNS and socket failure
// mode under a single abort classification.
type AbortError struct {
	URL string
	Err error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("fetch %s aborted: %s", e.URL, e.Err)
}

func (e *AbortError) Unwrap() error { return e.Err }

// Result is the outcome of a bounded fetch: the HTTP status code (when a
// response was received at all) and the body, truncated to at most
// MaxFetchSize bytes.
type Result struct {
	StatusCode  int
	Body        []byte
	Truncated   bool
	ContentType string
}

// Fetcher performs bounded HTTP GETs under a single user agent.
type Fetcher struct {
	userAgent string
	client    *http.Client
	timeout   time.Duration
	maxSize   int64
	chunkSize int
	logger    zerolog.Logger
}

// New builds a Fetcher. timeout bounds total wall time (checked between
// chunks, not just at connect); maxSize bounds the returned body;
// chunkSize is the read granularity the elapsed-time ceiling is tested
// against.
func New(userAgent string, timeout time.Duration, maxSize int64, chunkSize int, logger zerolog.Logger) *Fetcher {
	transport := rehttp.NewTransport(
		&http.Transport{TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12}},
		rehttp.RetryAll(rehttp.RetryMaxRetries(0)),
		rehttp.ExpJitterDelay(0, 0),
	)
	return &Fetcher{
		userAgent: userAgent,
		client:    &http.Client{Transport: transport},
		timeout:   timeout,
		maxSize:   maxSize,
		chunkSize: chunkSize,
		logger:    logger,
	}
}

// Fetch performs a single GET against targetURL. It never retries: a
// connection refusal, DNS failure, TLS failure, redirect loop, socket
// read error or elapsed-time-ceiling breach all come back as an
// *AbortError. Reaching MaxFetchSize mid-stream is not an error: the
// partial body is returned as Result.Body with Truncated set.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, &AbortError{URL: targetURL, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &AbortError{URL: targetURL, Err: err}
	}
	defer resp.Body.Close()

	body, truncated, err := f.readBounded(resp.Body, start)
	if err != nil {
		return &Result{StatusCode: resp.StatusCode}, &AbortError{URL: targetURL, Err: err}
	}
	if truncated {
		f.logger.Debug().
			Str("url", targetURL).
			Str("size", humanize.Bytes(uint64(len(body)))).
			Msg("fetch body truncated at size ceiling")
	}
	return &Result{
		StatusCode:  resp.StatusCode,
		Body:        body,
		Truncated:   truncated,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// readBounded reads r in chunkSize pieces, checking the elapsed-time
// ceiling before each read and the byte ceiling after each append. A time
// ceiling breach is an error (AbortError); a byte ceiling breach
// truncates silently and returns successfully. A body landing exactly at
// maxSize is accepted whole, not truncated — only a body exceeding
// maxSize is cut down to it.
func (f *Fetcher) readBounded(r io.Reader, start time.Time) ([]byte, bool, error) {
	buf := make([]byte, 0, f.chunkSize)
	chunk := make([]byte, f.chunkSize)
	for {
		if time.Since(start) >= f.timeout {
			return nil, false, fmt.Errorf("wall time ceiling of %s reached while streaming body", f.timeout)
		}
		n, err := r.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			if int64(len(buf)) > f.maxSize {
				return buf[:f.maxSize], true, nil
			}
		}
		if err == io.EOF {
			return buf, false, nil
		}
		if err != nil {
			return nil, false, err
		}
	}
}
