package extractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTitle(t *testing.T) {
	page, err := Extract([]byte(`<html><head><title>  Hello World  </title></head><body></body></html>`), "text/html; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, "Hello World", page.Title)
}

func TestExtractMissingTitleIsEmpty(t *testing.T) {
	page, err := Extract([]byte(`<html><head></head><body><p>text</p></body></html>`), "text/html")
	require.NoError(t, err)
	assert.Equal(t, "", page.Title)
}

func TestTruncateRunesUnderLimitUnchanged(t *testing.T) {
	s := strings.Repeat("a", 65)
	assert.Equal(t, s, TruncateRunes(s, 65))
}

func TestTruncateRunesOverLimit(t *testing.T) {
	s := strings.Repeat("a", 66)
	got := TruncateRunes(s, 65)
	assert.Equal(t, strings.Repeat("a", 64)+"…", got)
	assert.Equal(t, 65, len([]rune(got)))
}

func TestTruncateRunesIdempotent(t *testing.T) {
	s := strings.Repeat("a", 66)
	once := TruncateRunes(s, 65)
	twice := TruncateRunes(once, 65)
	assert.Equal(t, once, twice)
}

func TestBuildExtractStopsAtCeiling(t *testing.T) {
	paragraphs := []Paragraph{
		{Text: strings.Repeat("word ", 40), ClassType: ClassGood},
		{Text: "this paragraph should never be appended", ClassType: ClassGood},
	}
	extract := BuildExtract(paragraphs, 155)
	assert.LessOrEqual(t, len([]rune(extract)), 155)
	assert.NotContains(t, extract, "never be appended")
}

func TestBuildExtractSkipsNonGood(t *testing.T) {
	paragraphs := []Paragraph{
		{Text: "boilerplate nav menu", ClassType: ClassBad},
		{Text: "the actual article content that matters a lot to the reader", ClassType: ClassGood},
	}
	extract := BuildExtract(paragraphs, 155)
	assert.Equal(t, "the actual article content that matters a lot to the reader", extract)
}

func TestClassifyShortBelowLengthFloor(t *testing.T) {
	assert.Equal(t, ClassShort, classify("Home", 0))
}

func TestClassifyBadHighLinkDensity(t *testing.T) {
	text := strings.Repeat("link text here ", 10)
	assert.Equal(t, ClassBad, classify(text, len(text)))
}
