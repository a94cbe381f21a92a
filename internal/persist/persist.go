// Package persist writes the narrated text next to the audio. The format
// follows the target's extension.
package persist

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"

	"github.com/dgnsrekt/narrate/internal/tts"
)

// ErrUnsupportedExtension indicates a target extension with no writer.
var ErrUnsupportedExtension = errors.New("unsupported text file extension")

// Persister writes text to path.
type Persister interface {
	Write(text, path string) error
}

// Writer dispatches on the path extension: .txt and .md are written
// verbatim, .docx gets one paragraph per blank-line separated block.
type Writer struct{}

// New returns a Writer.
func New() *Writer { return &Writer{} }

// Extensions lists the supported target extensions.
func Extensions() []string { return []string{".txt", ".md", ".markdown", ".docx"} }

// Supported reports whether Write accepts path's extension.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions() {
		if e == ext {
			return true
		}
	}
	return false
}

// Write implements Persister.
func (w *Writer) Write(text, path string) error {
	path, err := homedir.Expand(path)
	if err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !Supported(path) {
		return fmt.Errorf("%w: %q (use one of %s)", ErrUnsupportedExtension, ext, strings.Join(Extensions(), ", "))
	}

	data := []byte(text)
	if ext == ".docx" {
		data, err = encodeDocx(Paragraphs(text))
		if err != nil {
			return fmt.Errorf("encode docx: %w", err)
		}
	}

	if err := tts.WriteFileAtomic(path, data); err != nil {
		return err
	}
	log.Debug("Saved narrated text", "path", path, "bytes", len(data))
	return nil
}

var blankLine = regexp.MustCompile(`\n[ \t]*\n`)

// Paragraphs splits text into blank-line separated blocks, in order.
// Empty blocks are dropped.
func Paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var out []string
	for _, block := range blankLine.Split(text, -1) {
		if block = strings.TrimSpace(block); block != "" {
			out = append(out, block)
		}
	}
	return out
}

var _ Persister = (*Writer)(nil)
