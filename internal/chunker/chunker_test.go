package chunker

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"report-rag/internal/parser"
)

type errSplitter struct{}

func (errSplitter) SplitText(string) ([]string, error) {
	return nil, errors.New("tokenizer unavailable")
}

// lineSplitter stands in for the token splitter in primary-path tests.
type lineSplitter struct{}

func (lineSplitter) SplitText(text string) ([]string, error) {
	return strings.Split(text, "\n"), nil
}

func doc(items ...parser.Item) *parser.Document {
	return &parser.Document{Filename: "report.pdf", Title: "Report", Items: items}
}

func TestBuildEmptyDocument(t *testing.T) {
	b := NewBuilder(4000, true)
	assert.Empty(t, b.Build(nil))
	assert.Empty(t, b.Build(doc()))

	b.splitter = errSplitter{}
	assert.Empty(t, b.Build(doc()))
}

func TestFallbackSingleChunk(t *testing.T) {
	b := &Builder{maxTokens: 100, mergePeers: true, splitter: errSplitter{}}
	chunks := b.Build(doc(parser.Item{Text: "A\n\nB\n\nC"}))

	require.Len(t, chunks, 1)
	assert.Equal(t, "A\n\nB\n\nC", chunks[0].Text)
	assert.Empty(t, chunks[0].Items)
}

func TestFallbackDropsNoParagraphs(t *testing.T) {
	paragraphs := []string{"aaaa", "bbbb", "cccc", "dddd"}
	b := &Builder{maxTokens: 1, mergePeers: true, splitter: errSplitter{}}
	chunks := b.Build(doc(parser.Item{Text: strings.Join(paragraphs, "\n\n")}))

	require.NotEmpty(t, chunks)
	var all strings.Builder
	for _, c := range chunks {
		all.WriteString(c.Text)
		all.WriteString("\n\n")
	}
	for _, p := range paragraphs {
		assert.Contains(t, all.String(), p)
	}
	// With a 4-char budget every paragraph ends up in its own chunk.
	assert.Len(t, chunks, len(paragraphs))
}

func TestPrimaryMergesPeers(t *testing.T) {
	b := &Builder{maxTokens: 4000, mergePeers: true, splitter: lineSplitter{}}
	chunks := b.Build(doc(
		parser.Item{Text: "hello", Prov: []parser.Provenance{{PageNo: 1}}},
		parser.Item{Text: "world", Prov: []parser.Provenance{{PageNo: 2}}},
	))

	require.Len(t, chunks, 1)
	assert.Equal(t, "hello\nworld", chunks[0].Text)
	assert.Equal(t, []int{1, 2}, Pages(chunks[0]))
}

func TestPrimaryWithoutMerge(t *testing.T) {
	b := &Builder{maxTokens: 4000, mergePeers: false, splitter: lineSplitter{}}
	chunks := b.Build(doc(
		parser.Item{Text: "hello", Prov: []parser.Provenance{{PageNo: 1}}},
		parser.Item{Text: "world", Prov: []parser.Provenance{{PageNo: 2}}},
	))

	require.Len(t, chunks, 2)
	assert.Equal(t, "hello", chunks[0].Text)
	assert.Equal(t, "world", chunks[1].Text)
	assert.Equal(t, []int{1}, Pages(chunks[0]))
	assert.Equal(t, []int{2}, Pages(chunks[1]))
}

func TestPrimaryRespectsCharBudget(t *testing.T) {
	long := strings.Repeat("x", 10)
	b := &Builder{maxTokens: 3, mergePeers: true, splitter: lineSplitter{}}
	chunks := b.Build(doc(parser.Item{Text: long + "\n" + long}))

	// 12-char budget cannot hold both 10-char pieces.
	require.Len(t, chunks, 2)
}

func TestPagesDeduplicatesAndSorts(t *testing.T) {
	c := Chunk{Items: []parser.Item{
		{Prov: []parser.Provenance{{PageNo: 3}, {PageNo: 1}}},
		{Prov: []parser.Provenance{{PageNo: 3}}},
	}}
	assert.Equal(t, []int{1, 3}, Pages(c))
}

func TestPagesToleratesMissingProvenance(t *testing.T) {
	assert.Empty(t, Pages(Chunk{Text: "no provenance"}))
	assert.Empty(t, Pages(Chunk{Items: []parser.Item{{Text: "bare item"}}}))
	assert.Empty(t, Pages(Chunk{Items: []parser.Item{{Prov: []parser.Provenance{{PageNo: 0}}}}}))
}

func TestFormatPages(t *testing.T) {
	assert.Equal(t, "", FormatPages(nil))
	assert.Equal(t, "4", FormatPages([]int{4}))
	assert.Equal(t, "1, 2, 5", FormatPages([]int{1, 2, 5}))
}

func TestFlattenMarkdown(t *testing.T) {
	flat := flattenMarkdown("# Heading\n\nfirst paragraph\n\n- item one\n- item two")
	assert.Contains(t, flat, "Heading")
	assert.Contains(t, flat, "first paragraph")
	assert.Contains(t, flat, "item one")
	assert.NotContains(t, flat, "#")
	assert.NotContains(t, flat, "-")
}
