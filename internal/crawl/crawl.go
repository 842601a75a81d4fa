// Package crawl composes the Robots Gate, Bounded Fetcher, Page
// Extractor, and Link Normalizer into a single per-URL CrawlResult. It
// never raises — every failure mode is caught at its boundary and turned
// into a structured result rather than propagated as an error.
package crawl

import (
	"context"

	"github.com/mwmbl/crawlworker/internal/crawlresult"
	"github.com/mwmbl/crawlworker/internal/extractor"
	"github.com/mwmbl/crawlworker/internal/fetcher"
	"github.com/mwmbl/crawlworker/internal/links"
)

// RobotsGate is the subset of robots.Gate the Crawl Engine depends on.
type RobotsGate interface {
	Allowed(ctx context.Context, url string) bool
}

// Fetcher is the subset of fetcher.Fetcher the Crawl Engine depends on.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Result, error)
}

// NowFunc returns the current time as milliseconds since the epoch; it is
// a seam so tests can pin the timestamp instead of observing wall time.
type NowFunc func() int64

// Engine composes the pipeline stages behind CrawlURL.
type Engine struct {
	Robots          RobotsGate
	Fetch           Fetcher
	Now             NowFunc
	NumTitleChars   int
	NumExtractChars int
}

// CrawlURL runs the pipeline for a single URL and always returns a
// structured CrawlResult: robots denial, abort, empty body, and parse
// failure are all terminal outcomes, not propagated errors.
func (e *Engine) CrawlURL(ctx context.Context, url string) crawlresult.Result {
	timestamp := e.Now()

	if !e.Robots.Allowed(ctx, url) {
		return crawlresult.RobotsDenied(url, timestamp)
	}

	res, err := e.Fetch.Fetch(ctx, url)
	if err != nil {
		var status *int
		if res != nil && res.StatusCode != 0 {
			status = &res.StatusCode
		}
		return crawlresult.Abort(url, timestamp, status, err)
	}
	if len(res.Body) == 0 {
		return crawlresult.NoResponseText(url, timestamp, res.StatusCode)
	}

	page, err := extractor.Extract(res.Body, res.ContentType)
	if err != nil {
		if parseErr, ok := err.(*extractor.ParseError); ok {
			return crawlresult.ParseFailure(url, timestamp, res.StatusCode, parseErr.Class, parseErr)
		}
		return crawlresult.ParseFailure(url, timestamp, res.StatusCode, "ExtractionError", err)
	}

	title := extractor.TruncateRunes(page.Title, e.NumTitleChars)
	extract := extractor.BuildExtract(page.Paragraphs, e.NumExtractChars)
	newLinks, extraLinks := links.Classify(page.Paragraphs, url)

	return crawlresult.Success(url, res.StatusCode, timestamp, title, extract, newLinks, extraLinks)
}
