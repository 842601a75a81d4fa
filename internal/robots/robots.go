// Package robots implements a per-URL robots.txt policy lookup, fetched
// on demand and never cached across URLs, that degrades to permissive on
// any failure to retrieve or parse the policy.
//
// Policy parsing is done with github.com/temoto/robotstxt.
package robots

import (
	"context"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/temoto/robotstxt"
	"golang.org/x/text/encoding/charmap"

	"github.com/mwmbl/crawlworker/internal/fetcher"
)

// Fetcher is the subset of fetcher.Fetcher the Robots Gate depends on.
type Fetcher interface {
	Fetch(ctx context.Context, targetURL string) (*fetcher.Result, error)
}

// Gate evaluates robots.txt policy under a fixed user agent.
type Gate struct {
	fetch     Fetcher
	userAgent string
}

// New builds a Gate that fetches robots.txt through fetch and evaluates
// it under userAgent.
func New(fetch Fetcher, userAgent string) *Gate {
	return &Gate{fetch: fetch, userAgent: userAgent}
}

// Allowed evaluates robots.txt policy for rawURL: unparseable URLs are
// denied, root-domain requests are always allowed without network I/O,
// and every other failure mode (fetch error, non-200, undecodable body)
// falls back to permissive.
func (g *Gate) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if strings.Trim(u.Path, "/") == "" && u.RawQuery == "" {
		return true
	}

	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"
	res, err := g.fetch.Fetch(ctx, robotsURL)
	if err != nil {
		return true
	}
	if res.StatusCode != 200 {
		return true
	}

	body, ok := decodeBody(res.Body)
	if !ok {
		return true
	}

	data, err := robotstxt.FromStatusAndBytes(200, []byte(body))
	if err != nil {
		return true
	}
	group := data.FindGroup(g.userAgent)
	if group == nil {
		return true
	}
	return group.Test(u.RequestURI())
}

// decodeBody tries UTF-8 first, then ISO-8859-1 through
// golang.org/x/text/encoding/charmap rather than hand-rolling a
// byte-range table; a charmap decode of arbitrary bytes as ISO-8859-1
// always succeeds, so it is the terminal fallback of the chain.
func decodeBody(raw []byte) (string, bool) {
	if utf8.Valid(raw) {
		return string(raw), true
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	return string(decoded), true
}
