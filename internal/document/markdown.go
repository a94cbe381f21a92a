package document

import (
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Markdown extracts speakable text from Markdown. Each top-level section
// (the shallowest heading level used in the document) is one page.
type Markdown struct {
	md            goldmark.Markdown
	skipCodeBlock bool
}

// NewMarkdown creates a Markdown extractor that skips code blocks.
func NewMarkdown() *Markdown {
	return &Markdown{md: goldmark.New(), skipCodeBlock: true}
}

// ExtractPages implements Extractor.
func (m *Markdown) ExtractPages(path string, progress Progress) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("Could not read document", "path", path, "error", err)
		return nil
	}

	pages := m.Sections(data)
	for i := range pages {
		report(progress, i+1, len(pages))
	}
	return pages
}

// Sections parses source and returns the plain text of each top-level
// section.
func (m *Markdown) Sections(source []byte) []string {
	doc := m.md.Parser().Parse(text.NewReader(source))

	top := 0
	for c := doc.FirstChild(); c != nil; c = c.NextSibling() {
		if h, ok := c.(*ast.Heading); ok && (top == 0 || h.Level < top) {
			top = h.Level
		}
	}

	var (
		pages []string
		buf   strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(buf.String()); s != "" {
			pages = append(pages, s)
		}
		buf.Reset()
	}

	for c := doc.FirstChild(); c != nil; c = c.NextSibling() {
		if h, ok := c.(*ast.Heading); ok && h.Level == top {
			flush()
		}
		m.walk(c, source, &buf)
	}
	flush()

	return pages
}

// PlainText returns the speakable text of a whole Markdown document.
func (m *Markdown) PlainText(source []byte) string {
	return Join(m.Sections(source))
}

func (m *Markdown) walk(node ast.Node, source []byte, buf *strings.Builder) {
	switch n := node.(type) {
	case *ast.CodeBlock, *ast.FencedCodeBlock:
		if m.skipCodeBlock {
			return
		}
		buf.WriteString("Code block omitted. ")
		return

	case *ast.HTMLBlock, *ast.RawHTML:
		return

	case *ast.Text:
		buf.Write(n.Segment.Value(source))
		if n.SoftLineBreak() || n.HardLineBreak() {
			buf.WriteByte(' ')
		}
		return

	case *ast.String:
		buf.Write(n.Value)
		return

	case *ast.CodeSpan:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				buf.Write(t.Segment.Value(source))
			}
		}
		return

	case *ast.Heading:
		m.walkChildren(n, source, buf)
		endSentence(buf)
		return

	case *ast.Paragraph, *ast.TextBlock:
		m.walkChildren(n, source, buf)
		endSentence(buf)
		return

	case *ast.ListItem:
		m.walkChildren(n, source, buf)
		endSentence(buf)
		return

	case *ast.Image:
		buf.WriteString("Image")
		if len(n.Title) > 0 {
			buf.WriteString(": ")
			buf.Write(n.Title)
		}
		buf.WriteString(". ")
		return

	case *ast.Blockquote:
		buf.WriteString("Quote: ")
		m.walkChildren(n, source, buf)
		return

	case *ast.ThematicBreak:
		endSentence(buf)
		return
	}

	m.walkChildren(node, source, buf)
}

func (m *Markdown) walkChildren(node ast.Node, source []byte, buf *strings.Builder) {
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		m.walk(c, source, buf)
	}
}

// endSentence terminates the text written so far so the engine pauses
// between blocks.
func endSentence(buf *strings.Builder) {
	s := strings.TrimRight(buf.String(), " ")
	if s == "" {
		return
	}

	buf.Reset()
	buf.WriteString(s)
	switch s[len(s)-1] {
	case '.', '!', '?', ':':
		buf.WriteByte(' ')
	default:
		buf.WriteString(". ")
	}
}
