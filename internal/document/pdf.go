package document

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/ledongthuc/pdf"
)

// PDF extracts the plain text of every page.
type PDF struct{}

// ExtractPages implements Extractor. The pdf reader panics on some
// malformed files; those are reported as a document without pages.
func (PDF) ExtractPages(path string, progress Progress) (pages []string) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("Could not parse PDF", "path", path, "error", fmt.Sprint(r))
			pages = nil
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		log.Warn("Could not open PDF", "path", path, "error", err)
		return nil
	}
	defer f.Close()

	total := r.NumPage()
	pages = make([]string, 0, total)
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			report(progress, i, total)
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			log.Debug("Skipping unreadable PDF page", "page", i, "error", err)
			text = ""
		}
		pages = append(pages, text)
		report(progress, i, total)
	}
	return pages
}
