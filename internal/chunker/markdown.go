package chunker

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// flattenMarkdown reduces a markdown export to plain text, one block per
// top-level markdown node, separated by blank lines.
func flattenMarkdown(src string) string {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	source := []byte(src)
	root := md.Parser().Parse(text.NewReader(source))

	var blocks []string
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		block := strings.TrimSpace(nodeText(n, source))
		if block != "" {
			blocks = append(blocks, block)
		}
	}
	return strings.Join(blocks, "\n\n")
}

func nodeText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}
