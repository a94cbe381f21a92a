package document

import (
	"path/filepath"
	"strings"
)

// Progress is called after each extracted page.
type Progress func(page, total int)

// Extractor turns a document into ordered page text. A corrupt or
// unreadable document yields no pages rather than an error.
type Extractor interface {
	ExtractPages(path string, progress Progress) []string
}

// ForPath picks an extractor by file extension. Unknown extensions are read
// as plain text.
func ForPath(path string) Extractor {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return PDF{}
	case ".md", ".markdown", ".mdown", ".mkd":
		return NewMarkdown()
	default:
		return Plain{}
	}
}

// Join concatenates pages, as extracted, with a blank line between them.
func Join(pages []string) string {
	return strings.Join(pages, "\n\n")
}

func report(progress Progress, page, total int) {
	if progress != nil {
		progress(page, total)
	}
}
