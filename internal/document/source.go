package document

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/mitchellh/go-homedir"
)

var (
	// ErrNoText indicates the source resolved to empty text
	ErrNoText = errors.New("no text to narrate")

	// ErrNoSource indicates the source was never chosen
	ErrNoSource = errors.New("no text source selected")

	// ErrUnreadableDocument indicates the document path cannot be opened
	ErrUnreadableDocument = errors.New("document cannot be read")
)

// readClipboard is swapped in tests.
var readClipboard = clipboard.ReadAll

// Kind is where a run's text comes from.
type Kind int

const (
	KindNone Kind = iota
	KindText
	KindClipboard
	KindDocument
)

// String returns the source name.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindClipboard:
		return "clipboard"
	case KindDocument:
		return "document"
	default:
		return "none"
	}
}

// Source is the text source of a single run.
type Source struct {
	Kind Kind
	Text string
	Path string
}

// Typed returns a source for text given directly.
func Typed(text string) Source { return Source{Kind: KindText, Text: text} }

// Clipboard returns a source reading the system clipboard.
func Clipboard() Source { return Source{Kind: KindClipboard} }

// File returns a source extracting the document at path.
func File(path string) Source { return Source{Kind: KindDocument, Path: path} }

// Resolve returns the source text. Document pages are joined with a blank
// line. Whitespace-only results are ErrNoText.
func (s Source) Resolve(progress Progress) (string, error) {
	var text string

	switch s.Kind {
	case KindText:
		text = s.Text

	case KindClipboard:
		t, err := readClipboard()
		if err != nil {
			return "", fmt.Errorf("read clipboard: %w", err)
		}
		text = t

	case KindDocument:
		path, err := homedir.Expand(s.Path)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrUnreadableDocument, err)
		}
		info, err := os.Stat(path)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrUnreadableDocument, err)
		}
		if info.IsDir() {
			return "", fmt.Errorf("%w: %s is a directory", ErrUnreadableDocument, path)
		}
		text = Join(ForPath(path).ExtractPages(path, progress))

	default:
		return "", ErrNoSource
	}

	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}
