package chunker

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/textsplitter"

	"report-rag/internal/arabic"
	"report-rag/internal/parser"
)

// Rough character-per-token estimate used for peer merging and for the
// fallback chunk bound.
const tokenCharRatio = 4

var blankLineRe = regexp.MustCompile(`\n\s*\n`)

// Chunk is a token-bounded text segment. Items are the document items the
// text was taken from; fallback chunks carry none. Chunks are immutable
// once produced.
type Chunk struct {
	Text  string
	Items []parser.Item
}

type textSplitter interface {
	SplitText(text string) ([]string, error)
}

// Builder turns a converted document into chunks. The primary path uses a
// tokenizer-aware splitter; any failure there drops to a manual
// paragraph-accumulation fallback.
type Builder struct {
	maxTokens  int
	mergePeers bool
	splitter   textSplitter
}

func NewBuilder(maxTokens int, mergePeers bool) *Builder {
	return &Builder{
		maxTokens:  maxTokens,
		mergePeers: mergePeers,
		splitter: textsplitter.NewTokenSplitter(
			textsplitter.WithChunkSize(maxTokens),
			textsplitter.WithChunkOverlap(0),
		),
	}
}

// Build materializes the full chunk sequence for doc. An empty document
// yields zero chunks on both paths.
func (b *Builder) Build(doc *parser.Document) []Chunk {
	if doc == nil || len(doc.Items) == 0 {
		return nil
	}
	chunks, err := b.buildPrimary(doc)
	if err != nil {
		log.Warn().Err(err).Msg("Token chunking failed, falling back to paragraph chunking")
		return b.buildFallback(doc)
	}
	return chunks
}

type piece struct {
	text    string
	itemIdx int
}

func (b *Builder) buildPrimary(doc *parser.Document) ([]Chunk, error) {
	var pieces []piece
	for i, item := range doc.Items {
		if strings.TrimSpace(item.Text) == "" {
			continue
		}
		parts, err := b.splitter.SplitText(item.Text)
		if err != nil {
			return nil, err
		}
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			pieces = append(pieces, piece{text: p, itemIdx: i})
		}
	}

	charBudget := b.maxTokens * tokenCharRatio
	var chunks []Chunk
	var cur strings.Builder
	var curItems []parser.Item
	lastIdx := -1

	flush := func() {
		if text := strings.TrimSpace(cur.String()); text != "" {
			chunks = append(chunks, Chunk{Text: text, Items: curItems})
		}
		cur.Reset()
		curItems = nil
		lastIdx = -1
	}

	for _, pc := range pieces {
		if cur.Len() > 0 && (!b.mergePeers || cur.Len()+len(pc.text)+1 >= charBudget) {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteString("\n")
		}
		cur.WriteString(pc.text)
		if pc.itemIdx != lastIdx {
			curItems = append(curItems, doc.Items[pc.itemIdx])
			lastIdx = pc.itemIdx
		}
	}
	flush()
	return chunks, nil
}

// buildFallback splits the flattened markdown export on blank lines and
// greedily accumulates normalized paragraphs into chunks bounded by
// maxTokens*4 characters. Fallback chunks have no provenance.
func (b *Builder) buildFallback(doc *parser.Document) []Chunk {
	flat := flattenMarkdown(doc.Markdown())
	charBudget := b.maxTokens * tokenCharRatio

	var chunks []Chunk
	var cur strings.Builder
	flush := func() {
		if text := strings.TrimSpace(cur.String()); text != "" {
			chunks = append(chunks, Chunk{Text: text})
		}
		cur.Reset()
	}

	for _, p := range blankLineRe.Split(flat, -1) {
		p = arabic.Clean(p)
		if p == "" {
			continue
		}
		if cur.Len()+len(p) >= charBudget {
			flush()
		}
		cur.WriteString(p)
		cur.WriteString("\n\n")
	}
	flush()
	return chunks
}

// Pages collects the page numbers referenced by a chunk's items,
// deduplicated and sorted ascending. Missing provenance degrades to an
// empty slice.
func Pages(c Chunk) []int {
	seen := make(map[int]struct{})
	var pages []int
	for _, item := range c.Items {
		for _, prov := range item.Prov {
			if prov.PageNo <= 0 {
				continue
			}
			if _, ok := seen[prov.PageNo]; ok {
				continue
			}
			seen[prov.PageNo] = struct{}{}
			pages = append(pages, prov.PageNo)
		}
	}
	if len(pages) == 0 && len(c.Items) > 0 {
		log.Debug().Msg("Chunk has no page provenance")
	}
	sort.Ints(pages)
	return pages
}

// FormatPages serializes page numbers as a comma-joined string, the shape
// the store schema expects. Returns "" for no pages.
func FormatPages(pages []int) string {
	if len(pages) == 0 {
		return ""
	}
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ", ")
}
