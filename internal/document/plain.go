package document

import (
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Plain reads text files. Form feeds separate pages.
type Plain struct{}

// ExtractPages implements Extractor.
func (Plain) ExtractPages(path string, progress Progress) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("Could not read document", "path", path, "error", err)
		return nil
	}

	text := strings.ToValidUTF8(string(data), "")
	text = strings.ReplaceAll(text, "\r\n", "\n")

	pages := strings.Split(text, "\f")
	for i := range pages {
		report(progress, i+1, len(pages))
	}
	return pages
}
