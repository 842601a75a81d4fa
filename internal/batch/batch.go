// Package batch fans a batch of URLs out across a bounded pool of
// goroutines and aggregates the resulting CrawlResults, with no ordering
// guarantee on completion.
//
// The concurrency limiter is a buffered channel of value-less structs
// used as a semaphore, combined with a sync.WaitGroup so the caller can
// block for completion.
package batch

import (
	"context"
	"sync"

	"github.com/mwmbl/crawlworker/internal/crawlresult"
)

// Crawler runs the Crawl Engine for a single URL; crawl.Engine.CrawlURL
// satisfies this.
type Crawler interface {
	CrawlURL(ctx context.Context, url string) crawlresult.Result
}

// Run processes urls with up to concurrency goroutines in flight at
// once. Each task is independent: Crawler.CrawlURL never panics out of
// the goroutine (the Crawl Engine guarantees a structured result), so no
// recover is needed here. Tasks may complete in any order, but each
// result is stored at its URL's index, so the returned slice is in urls'
// order.
func Run(ctx context.Context, crawler Crawler, urls []string, concurrency int) []crawlresult.Result {
	if concurrency <= 0 {
		concurrency = 1
	}

	semaphore := make(chan struct{}, concurrency)
	results := make([]crawlresult.Result, len(urls))
	var wg sync.WaitGroup

	for i, url := range urls {
		wg.Add(1)
		semaphore <- struct{}{}
		go func(i int, url string) {
			defer wg.Done()
			defer func() { <-semaphore }()
			results[i] = crawler.CrawlURL(ctx, url)
		}(i, url)
	}
	wg.Wait()
	return results
}
