// Package boardadapter walks a public discussion-board API backwards
// from its current high-water mark in fixed windows, turns fresh items
// into CrawlResults, and submits them through the same coordinator
// ingest endpoint the primary crawl worker uses.
//
// Each window is deduped against a durable seen-ids store before
// fetching, and hrefs are harvested out of each item's HTML text body the
// same way the Page Extractor harvests them from a fetched page.
package boardadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/mwmbl/crawlworker/internal/crawlresult"
	"github.com/mwmbl/crawlworker/internal/fetcher"
)

// Fetcher is the subset of fetcher.Fetcher the adapter depends on.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Result, error)
}

// SeenIDs is the subset of seenids.Store the adapter depends on.
type SeenIDs interface {
	Exists(ids []int64) (map[int64]bool, error)
	Insert(ids []int64) error
}

// Submitter is the subset of coordinator.Client the adapter depends on.
type Submitter interface {
	SubmitWithRetry(ctx context.Context, items []crawlresult.Result, wait time.Duration, maxAttempts int) error
}

// item is the board API's per-item record: title, text, url, and type
// are all optional.
type item struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text"`
	URL   string `json:"url"`
	Type  string `json:"type"`
	Time  int64  `json:"time"`
}

const itemURLFormat = "https://news.ycombinator.com/item?id=%d"

// Adapter pulls recent board items, dedupes them against SeenIDs, and
// turns the fresh ones into CrawlResults.
type Adapter struct {
	BaseURL         string
	Fetch           Fetcher
	Seen            SeenIDs
	NumTitleChars   int
	NumExtractChars int
	Concurrency     int
	Now             func() int64
	Logger          zerolog.Logger
}

// MaxItem reads the board API's current high-water mark.
func (a *Adapter) MaxItem(ctx context.Context) (int64, error) {
	res, err := a.Fetch.Fetch(ctx, a.BaseURL+"/maxitem.json")
	if err != nil {
		return 0, fmt.Errorf("boardadapter: fetching maxitem: %w", err)
	}
	var max int64
	if err := json.Unmarshal(res.Body, &max); err != nil {
		return 0, fmt.Errorf("boardadapter: decoding maxitem: %w", err)
	}
	return max, nil
}

// Window computes the numItems ids descending from maxItem (inclusive),
// the unit of work one loop iteration processes.
func Window(maxItem int64, numItems int) []int64 {
	window := make([]int64, numItems)
	for i := 0; i < numItems; i++ {
		window[i] = maxItem - int64(i)
	}
	return window
}

// FetchFresh filters ids already in SeenIDs, then fetches the remainder
// in parallel (bounded by a.Concurrency) from the board API, returning
// one CrawlResult per item that survives the usefulness filter (has a
// title, extract, or outbound link).
func (a *Adapter) FetchFresh(ctx context.Context, ids []int64) ([]crawlresult.Result, error) {
	present, err := a.Seen.Exists(ids)
	if err != nil {
		return nil, fmt.Errorf("boardadapter: checking seen ids: %w", err)
	}

	var fresh []int64
	for _, id := range ids {
		if !present[id] {
			fresh = append(fresh, id)
		}
	}
	if len(fresh) == 0 {
		return nil, nil
	}

	concurrency := a.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	semaphore := make(chan struct{}, concurrency)
	results := make([]*crawlresult.Result, len(fresh))
	var wg sync.WaitGroup

	for i, id := range fresh {
		wg.Add(1)
		semaphore <- struct{}{}
		go func(i int, id int64) {
			defer wg.Done()
			defer func() { <-semaphore }()
			result, err := a.fetchItem(ctx, id)
			if err != nil {
				a.Logger.Warn().Int64("id", id).Err(err).Msg("fetching board item failed")
				return
			}
			results[i] = result
		}(i, id)
	}
	wg.Wait()

	out := make([]crawlresult.Result, 0, len(fresh))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

// fetchItem fetches a single item and converts it to a CrawlResult, or
// nil when the item has no title, extract, or outbound link to offer.
func (a *Adapter) fetchItem(ctx context.Context, id int64) (*crawlresult.Result, error) {
	res, err := a.Fetch.Fetch(ctx, fmt.Sprintf("%s/item/%d.json", a.BaseURL, id))
	if err != nil {
		return nil, err
	}
	var it item
	if err := json.Unmarshal(res.Body, &it); err != nil {
		return nil, fmt.Errorf("decoding item %d: %w", id, err)
	}

	title, firstParagraph := titleFrom(it.Title, it.Text, a.NumTitleChars)
	extract := extractFrom(it.Text, a.NumExtractChars)
	linkList := linksFrom(it.Text, it.URL)

	if title == "" && firstParagraph != "" {
		title = firstParagraph
	}

	if title == "" && extract == "" && len(linkList) == 0 {
		return nil, nil
	}

	result := crawlresult.Success(fmt.Sprintf(itemURLFormat, id), 200, a.Now(), title, extract, linkList, nil)
	return &result, nil
}

// titleFrom prefers the item's own title field (HTML-unescaped,
// truncated), falling back to the first paragraph found in the item's
// text body.
func titleFrom(rawTitle, text string, maxChars int) (title string, firstParagraph string) {
	if rawTitle != "" {
		return truncate(html.UnescapeString(rawTitle), maxChars), ""
	}
	paragraphs := htmlParagraphs(text)
	if len(paragraphs) > 0 {
		return "", truncate(paragraphs[0], maxChars)
	}
	return "", ""
}

// extractFrom joins the paragraph text found in the item's HTML text
// body, truncated to maxChars.
func extractFrom(text string, maxChars int) string {
	paragraphs := htmlParagraphs(text)
	joined := strings.Join(paragraphs, " ")
	return truncate(joined, maxChars)
}

// linksFrom concatenates the <a href> URLs discovered in the item's text
// body (HTML-unescaped) with the item's own top-level url field, in that
// order.
func linksFrom(text, topLevelURL string) []string {
	var out []string
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err == nil {
		doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
			href, _ := sel.Attr("href")
			if href != "" {
				out = append(out, html.UnescapeString(href))
			}
		})
	}
	if topLevelURL != "" {
		out = append(out, topLevelURL)
	}
	return out
}

// htmlParagraphs pulls plain-text blocks out of an HTML fragment, in
// document order, ignoring the good/neargood/short/bad classification
// (comment bodies have no boilerplate navigation to filter).
func htmlParagraphs(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil
	}
	var paragraphs []string
	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		t := strings.TrimSpace(sel.Text())
		if t != "" {
			paragraphs = append(paragraphs, t)
		}
	})
	if len(paragraphs) == 0 {
		if t := strings.TrimSpace(doc.Text()); t != "" {
			paragraphs = append(paragraphs, t)
		}
	}
	return paragraphs
}

func truncate(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars-1]) + "…"
}
