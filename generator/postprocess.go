package generator

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var (
	markdown   = goldmark.New()
	blankLines = regexp.MustCompile(`\n{3,}`)
)

// PostProcess trims surrounding whitespace from a raw model reply. The text itself is
// kept as generated.
func PostProcess(raw string) (string, error) {
	joke := strings.TrimSpace(raw)
	if joke == "" {
		return "", ErrEmptyReply
	}
	return joke, nil
}

// FlattenMarkdown renders a reply as plain text. It is lossy (intraword `*` and `__`
// count as emphasis), so adapters only apply it when asked to.
func FlattenMarkdown(joke string) (string, error) {
	flat := strings.TrimSpace(plainText([]byte(joke)))
	if flat == "" {
		return "", ErrEmptyReply
	}
	return flat, nil
}

// plainText renders Markdown as text: emphasis, headings and links lose their markup,
// list markers and line breaks are kept.
func plainText(src []byte) string {
	doc := markdown.Parser().Parse(text.NewReader(src))

	var b bytes.Buffer
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				b.Write(node.Segment.Value(src))
				if node.SoftLineBreak() || node.HardLineBreak() {
					b.WriteByte('\n')
				}
			}
		case *ast.String:
			if entering {
				b.Write(node.Value)
			}
		case *ast.AutoLink:
			if entering {
				b.Write(node.Label(src))
			}
		case *ast.RawHTML:
			if entering {
				for i := 0; i < node.Segments.Len(); i++ {
					seg := node.Segments.At(i)
					b.Write(seg.Value(src))
				}
			}
		case *ast.CodeBlock, *ast.FencedCodeBlock, *ast.HTMLBlock:
			if entering {
				writeLines(&b, n.Lines(), src)
				b.WriteString("\n")
			}
			return ast.WalkSkipChildren, nil
		case *ast.ListItem:
			if entering {
				b.WriteString(listMarker(node))
			}
		case *ast.TextBlock:
			if !entering {
				b.WriteByte('\n')
			}
		case *ast.Paragraph, *ast.Heading:
			if !entering {
				b.WriteString("\n\n")
			}
		}
		return ast.WalkContinue, nil
	})

	return blankLines.ReplaceAllString(b.String(), "\n\n")
}

func writeLines(b *bytes.Buffer, lines *text.Segments, src []byte) {
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
}

func listMarker(item *ast.ListItem) string {
	list, ok := item.Parent().(*ast.List)
	if !ok || !list.IsOrdered() {
		return "- "
	}
	pos := 0
	for sib := item.PreviousSibling(); sib != nil; sib = sib.PreviousSibling() {
		pos++
	}
	return fmt.Sprintf("%d. ", list.Start+pos)
}
