// Package links resolves, filters, and dedupes the hrefs harvested by
// the Page Extractor into a "good" (new_links) set and an "extra"
// (extra_links) set, each capped and emitted as a sorted, deterministic
// slice.
//
// Relative-URL resolution is built on net/url.Parse plus
// ResolveReference, covering the three resolution cases (absolute,
// root-relative, path-relative) plus bad-URL/length/fragment filtering.
package links

import (
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/mwmbl/crawlworker/internal/extractor"
)

const (
	maxURLLength  = 150
	maxNewLinks   = 50
	maxExtraLinks = 50
)

var badExtensions = []string{
	".jpg", ".png", ".js", ".gz", ".zip", ".pdf", ".bz2", ".ipynb", ".py",
}

// Classify walks paragraphs in order, resolving and filtering each
// outbound href, and returns the sorted new_links and extra_links sets
// relative to currentURL.
func Classify(paragraphs []extractor.Paragraph, currentURL string) (newLinks []string, extraLinks []string) {
	newSet := map[string]bool{}
	extraSet := map[string]bool{}

	for _, p := range paragraphs {
		for _, href := range p.Links {
			if len(newSet) >= maxNewLinks && len(extraSet) >= maxExtraLinks {
				return sortedKeys(newSet), sortedKeys(extraSet)
			}
			resolved, ok := resolve(href, currentURL)
			if !ok {
				continue
			}
			canonical, ok := canonicalize(resolved)
			if !ok {
				continue
			}
			if p.ClassType == extractor.ClassGood && len(newSet) < maxNewLinks {
				newSet[canonical] = true
				continue
			}
			if len(extraSet) < maxExtraLinks && !newSet[canonical] {
				extraSet[canonical] = true
			}
		}
	}
	return sortedKeys(newSet), sortedKeys(extraSet)
}

// resolve turns href into an absolute URL string relative to currentURL:
// absolute http(s) links pass through, links with another declared scheme
// (containing "://") are rejected, root-relative links resolve against
// the scheme+host of currentURL, and everything else resolves as a
// relative path against currentURL.
func resolve(href, currentURL string) (string, bool) {
	if strings.HasPrefix(href, "http") {
		return finalizeLength(href)
	}
	if strings.Contains(href, "://") {
		return "", false
	}

	base, err := url.Parse(currentURL)
	if err != nil {
		return "", false
	}
	if strings.HasPrefix(href, "/") {
		root := &url.URL{Scheme: base.Scheme, Host: base.Host}
		ref, err := url.Parse(href)
		if err != nil {
			return "", false
		}
		return finalizeLength(root.ResolveReference(ref).String())
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	return finalizeLength(base.ResolveReference(ref).String())
}

func finalizeLength(resolved string) (string, bool) {
	if !strings.HasPrefix(resolved, "http") {
		return "", false
	}
	if len(resolved) > maxURLLength {
		return "", false
	}
	return resolved, true
}

// canonicalize rejects bad-URL-pattern matches and drops the fragment.
func canonicalize(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if isBadURL(u) {
		return "", false
	}
	u.Fragment = ""
	return u.String(), true
}

func isBadURL(u *url.URL) bool {
	if u.Hostname() == "localhost" {
		return true
	}
	ext := path.Ext(u.Path)
	for _, bad := range badExtensions {
		if ext == bad {
			return true
		}
	}
	return false
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
