// Package crawlresult defines the canonical record submitted to the
// coordinator and the typed errors the crawl pipeline routes into it.
package crawlresult

import "fmt"

// Content is the body of a successful crawl, bit-exact with the
// coordinator's ingest wire format.
type Content struct {
	Title      string   `json:"title"`
	Extract    string   `json:"extract"`
	Links      []string `json:"links"`
	ExtraLinks []string `json:"extra_links"`
	LinksOnly  bool     `json:"links_only"`
}

// Error is the failure envelope, {name, message}, keyed by a taxonomy of
// error names a reader can branch on without parsing free text.
type Error struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Result is a CrawlResult: always a URL, a timestamp captured once at the
// start of processing, and exactly one of Content or Error.
type Result struct {
	URL       string   `json:"url"`
	Status    *int     `json:"status"`
	Timestamp int64    `json:"timestamp"`
	Content   *Content `json:"content"`
	Error     *Error   `json:"error"`
}

// Error name taxonomy.
const (
	NameRobotsDenied   = "RobotsDenied"
	NameAbortError     = "AbortError"
	NameNoResponseText = "NoResponseText"
)

// Success builds a success envelope. links and extraLinks are expected to
// already be the sorted, deduplicated output of the link classifier; a
// nil slice is normalized to an empty one so the wire envelope always
// serializes links/extra_links as JSON arrays, never null.
func Success(url string, status int, timestamp int64, title, extract string, links, extraLinks []string) Result {
	return Result{
		URL:       url,
		Status:    &status,
		Timestamp: timestamp,
		Content: &Content{
			Title:      title,
			Extract:    extract,
			Links:      nonNil(links),
			ExtraLinks: nonNil(extraLinks),
			LinksOnly:  false,
		},
	}
}

func nonNil(links []string) []string {
	if links == nil {
		return []string{}
	}
	return links
}

// Failure builds an error envelope. status is nil when no HTTP response
// was ever received for the URL.
func Failure(url string, status *int, timestamp int64, name, message string) Result {
	return Result{
		URL:       url,
		Status:    status,
		Timestamp: timestamp,
		Error:     &Error{Name: name, Message: message},
	}
}

// RobotsDenied builds the result for a URL rejected by the Robots Gate.
func RobotsDenied(url string, timestamp int64) Result {
	return Failure(url, nil, timestamp, NameRobotsDenied, fmt.Sprintf("%s disallowed by robots.txt", url))
}

// Abort builds the result for a fetch that failed before or during streaming.
func Abort(url string, timestamp int64, status *int, err error) Result {
	return Failure(url, status, timestamp, NameAbortError, err.Error())
}

// NoResponseText builds the result for a 200-ish response with an empty body.
func NoResponseText(url string, timestamp int64, status int) Result {
	return Failure(url, &status, timestamp, NameNoResponseText, "response body was empty")
}

// ParseFailure builds the result for a DOM parse or paragraph-extraction
// failure, preserving the failing component's error class as the name.
func ParseFailure(url string, timestamp int64, status int, name string, err error) Result {
	return Failure(url, &status, timestamp, name, err.Error())
}
