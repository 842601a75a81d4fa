// Package extractor parses HTML into a DOM, derives a title, and
// classifies block-level text into good/neargood/short/bad paragraphs
// the way justext-style boilerplate removal does, so downstream
// consumers can tell article text apart from navigation and footer noise.
//
// DOM parsing and title/link harvesting are built on
// github.com/PuerkitoBio/goquery. The paragraph classifier stems both
// the document's tokens and a built-in English stopword list with
// github.com/kljensen/snowball before computing stopword density, so
// inflected forms ("running" vs "run") still count toward the density
// rather than only exact stopword matches.
package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kljensen/snowball"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// Class names a paragraph's boilerplate-vs-content classification.
type Class string

const (
	ClassGood     Class = "good"
	ClassNearGood Class = "neargood"
	ClassShort    Class = "short"
	ClassBad      Class = "bad"
)

// Paragraph is a classified block of text: its trimmed content, the
// outbound hrefs found inside it in document order, and its
// classification.
type Paragraph struct {
	Text      string
	Links     []string
	ClassType Class
}

// Page is the Page Extractor's output: a title and the classified
// paragraph sequence the Link Normalizer and extract-builder consume.
type Page struct {
	Title      string
	Paragraphs []Paragraph
}

// ParseError wraps a DOM-parse failure with a class name suitable for
// surfacing in an error envelope.
type ParseError struct {
	Class string
	Err   error
}

func (e *ParseError) Error() string { return fmt.Sprintf("%s: %s", e.Class, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// stopwords is a compact English stopword list; stemmed once at package
// init so every classification reuses the same stemmed set rather than
// re-stemming it per paragraph.
var stopwords = []string{
	"a", "about", "above", "after", "again", "against", "all", "am", "an",
	"and", "any", "are", "aren't", "as", "at", "be", "because", "been",
	"before", "being", "below", "between", "both", "but", "by", "can",
	"could", "did", "do", "does", "doing", "down", "during", "each", "few",
	"for", "from", "further", "had", "has", "have", "having", "he", "her",
	"here", "hers", "herself", "him", "himself", "his", "how", "i", "if",
	"in", "into", "is", "it", "its", "itself", "just", "me", "more",
	"most", "my", "myself", "no", "nor", "not", "now", "of", "off", "on",
	"once", "only", "or", "other", "our", "ours", "ourselves", "out",
	"over", "own", "same", "she", "should", "so", "some", "such", "than",
	"that", "the", "their", "theirs", "them", "themselves", "then",
	"there", "these", "they", "this", "those", "through", "to", "too",
	"under", "until", "up", "very", "was", "we", "were", "what", "when",
	"where", "which", "while", "who", "whom", "why", "will", "with",
	"would", "you", "your", "yours", "yourself", "yourselves",
}

var stemmedStopwords = stemSet(stopwords)

func stemSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[stem(w)] = true
	}
	return set
}

func stem(word string) string {
	stemmed, err := snowball.Stem(strings.ToLower(word), "english", true)
	if err != nil {
		return strings.ToLower(word)
	}
	return stemmed
}

// Classification thresholds, following justext's defaults: paragraphs
// below lengthLow characters are "short" regardless of stopword density,
// a link density above linkDensityHigh marks boilerplate navigation as
// "bad", and stopword density splits the remainder into good/neargood/bad.
const (
	lengthLow       = 70
	linkDensityHigh = 0.20
	stopwordsHigh   = 0.32
	stopwordsLow    = 0.30
)

// classify assigns a Class to a block of text given its link density.
func classify(text string, linkCharCount int) Class {
	if len(text) == 0 {
		return ClassBad
	}
	if len(text) < lengthLow {
		return ClassShort
	}
	linkDensity := float64(linkCharCount) / float64(len(text))
	if linkDensity > linkDensityHigh {
		return ClassBad
	}
	density := stopwordDensity(text)
	switch {
	case density >= stopwordsHigh:
		return ClassGood
	case density >= stopwordsLow:
		return ClassNearGood
	default:
		return ClassBad
	}
}

func stopwordDensity(text string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	hits := 0
	for _, w := range words {
		cleaned := strings.Trim(w, ".,;:!?\"'()[]{}")
		if cleaned == "" {
			continue
		}
		if stemmedStopwords[stem(cleaned)] {
			hits++
		}
	}
	return float64(hits) / float64(len(words))
}

// blockSelector picks the block-level elements treated as paragraph
// candidates, matching the coarse granularity justext and similar
// extractors use.
const blockSelector = "p, div, li, td, blockquote, article, section, h1, h2, h3, h4, h5, h6"

// Extract parses raw bytes into a DOM (decoding per the page's declared
// encoding, falling back to UTF-8 with undecodable-byte replacement) and
// derives the title and classified paragraph sequence.
func Extract(raw []byte, declaredContentType string) (*Page, error) {
	reader, err := charset.NewReader(bytes.NewReader(raw), declaredContentType)
	if err != nil {
		reader = bytes.NewReader(raw)
	}
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, &ParseError{Class: "DOMParseError", Err: err}
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	var paragraphs []Paragraph
	seenBlocks := map[*html.Node]bool{}
	doc.Find(blockSelector).Each(func(_ int, sel *goquery.Selection) {
		// Skip blocks nested inside an already-classified block to avoid
		// double counting the same text at multiple levels.
		if hasClassifiedAncestor(sel, seenBlocks) {
			return
		}
		text := strings.TrimSpace(collapseWhitespace(sel.Text()))
		if text == "" {
			return
		}
		var links []string
		linkChars := 0
		sel.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			if href == "" {
				return
			}
			links = append(links, href)
			linkChars += len(strings.TrimSpace(a.Text()))
		})
		paragraphs = append(paragraphs, Paragraph{
			Text:      text,
			Links:     links,
			ClassType: classify(text, linkChars),
		})
		seenBlocks[sel.Get(0)] = true
	})

	return &Page{Title: title, Paragraphs: paragraphs}, nil
}

func hasClassifiedAncestor(sel *goquery.Selection, seen map[*html.Node]bool) bool {
	found := false
	sel.ParentsFiltered(blockSelector).Each(func(_ int, parent *goquery.Selection) {
		if seen[parent.Get(0)] {
			found = true
		}
	})
	return found
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TruncateRunes truncates s to at most max code points, appending the
// ellipsis character when truncation occurs. Truncation is idempotent:
// applying it twice to an already-short string is a no-op,
// and applying it to an already-truncated string (ending in the ellipsis,
// at exactly max runes) leaves it unchanged.
func TruncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

// BuildExtract concatenates the trimmed text of each "good" paragraph, in
// order, joined by single spaces, stopping and truncating as soon as the
// running length exceeds maxChars.
func BuildExtract(paragraphs []Paragraph, maxChars int) string {
	var b strings.Builder
	for _, p := range paragraphs {
		if p.ClassType != ClassGood {
			continue
		}
		text := strings.TrimSpace(p.Text)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(text)
		if utf8RuneCount(b.String()) > maxChars {
			return TruncateRunes(b.String(), maxChars)
		}
	}
	return b.String()
}

func utf8RuneCount(s string) int {
	return len([]rune(s))
}
