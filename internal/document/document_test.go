package document

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestForPath(t *testing.T) {
	assert.IsType(t, PDF{}, ForPath("book.PDF"))
	assert.IsType(t, &Markdown{}, ForPath("notes.md"))
	assert.IsType(t, Plain{}, ForPath("story.txt"))
	assert.IsType(t, Plain{}, ForPath("README"))
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "one\n\ntwo", Join([]string{"one", "two"}))
	assert.Equal(t, " one \n\n\n\ntwo\n", Join([]string{" one ", "", "two\n"}), "pages are not normalized")
	assert.Equal(t, "", Join(nil))
}

func TestPlainPages(t *testing.T) {
	path := writeFile(t, "doc.txt", "first page\r\nline two\fsecond page")

	var seen []int
	pages := Plain{}.ExtractPages(path, func(page, total int) {
		assert.Equal(t, 2, total)
		seen = append(seen, page)
	})

	assert.Equal(t, []string{"first page\nline two", "second page"}, pages)
	assert.Equal(t, []int{1, 2}, seen)
}

func TestPlainMissingFile(t *testing.T) {
	assert.Empty(t, Plain{}.ExtractPages(filepath.Join(t.TempDir(), "nope.txt"), nil))
}

func TestMarkdownSections(t *testing.T) {
	source := []byte(`Intro paragraph

# Chapter One

Some *emphasis* and a [link](https://example.com).

` + "```go\nfmt.Println(\"skipped\")\n```" + `

## Detail

- first item
- second item

# Chapter Two

> quoted words

Uses ` + "`narrate`" + ` daily!
`)

	pages := NewMarkdown().Sections(source)
	require.Len(t, pages, 3)

	assert.Equal(t, "Intro paragraph.", pages[0])
	assert.Equal(t, "Chapter One. Some emphasis and a link. Detail. first item. second item.", pages[1])
	assert.Equal(t, "Chapter Two. Quote: quoted words. Uses narrate daily!", pages[2])
	assert.NotContains(t, pages[1], "Println")
}

func TestMarkdownExtractPages(t *testing.T) {
	path := writeFile(t, "doc.md", "## A\n\nalpha\n\n## B\n\nbeta\n")

	calls := 0
	pages := NewMarkdown().ExtractPages(path, func(int, int) { calls++ })

	assert.Equal(t, []string{"A. alpha.", "B. beta."}, pages)
	assert.Equal(t, 2, calls)
}

// writePDF builds a minimal PDF with one Helvetica text line per page.
func writePDF(t *testing.T, texts ...string) string {
	t.Helper()

	objs := []string{"<< /Type /Catalog /Pages 2 0 R >>"}
	kids := make([]string, len(texts))
	for i := range texts {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objs = append(objs,
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(texts)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	for i, text := range texts {
		content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)

	return writeFile(t, "book.pdf", b.String())
}

func TestPDFPagesInOrder(t *testing.T) {
	path := writePDF(t, "The first page.", "The second page.")

	var seen []int
	pages := PDF{}.ExtractPages(path, func(page, total int) {
		assert.Equal(t, 2, total)
		seen = append(seen, page)
	})

	require.Len(t, pages, 2)
	assert.Contains(t, pages[0], "The first page.")
	assert.Contains(t, pages[1], "The second page.")
	assert.Equal(t, []int{1, 2}, seen)

	text, err := File(path).Resolve(nil)
	require.NoError(t, err)
	assert.Less(t, strings.Index(text, "first"), strings.Index(text, "second"))
	assert.Contains(t, text, "\n\n")
}

func TestPDFCorruptYieldsNoPages(t *testing.T) {
	path := writeFile(t, "broken.pdf", "%PDF-1.4\nthis is not really a pdf")
	assert.Empty(t, PDF{}.ExtractPages(path, nil))

	assert.Empty(t, PDF{}.ExtractPages(filepath.Join(t.TempDir(), "missing.pdf"), nil))
}

func TestSourceResolve(t *testing.T) {
	t.Run("typed", func(t *testing.T) {
		text, err := Typed("hello world").Resolve(nil)
		require.NoError(t, err)
		assert.Equal(t, "hello world", text)
	})

	t.Run("empty typed", func(t *testing.T) {
		_, err := Typed("   ").Resolve(nil)
		assert.ErrorIs(t, err, ErrNoText)
	})

	t.Run("clipboard", func(t *testing.T) {
		orig := readClipboard
		t.Cleanup(func() { readClipboard = orig })

		readClipboard = func() (string, error) { return "copied", nil }
		text, err := Clipboard().Resolve(nil)
		require.NoError(t, err)
		assert.Equal(t, "copied", text)

		readClipboard = func() (string, error) { return "", errors.New("no clipboard utility") }
		_, err = Clipboard().Resolve(nil)
		assert.Error(t, err)
	})

	t.Run("document pages", func(t *testing.T) {
		path := writeFile(t, "two.txt", "page one\fpage two")
		text, err := File(path).Resolve(nil)
		require.NoError(t, err)
		assert.Equal(t, "page one\n\npage two", text)
	})

	t.Run("empty document", func(t *testing.T) {
		path := writeFile(t, "empty.txt", "\f  \f")
		_, err := File(path).Resolve(nil)
		assert.ErrorIs(t, err, ErrNoText)
	})

	t.Run("missing document", func(t *testing.T) {
		_, err := File(filepath.Join(t.TempDir(), "gone.pdf")).Resolve(nil)
		assert.ErrorIs(t, err, ErrUnreadableDocument)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := File(t.TempDir()).Resolve(nil)
		assert.ErrorIs(t, err, ErrUnreadableDocument)
	})

	t.Run("no source", func(t *testing.T) {
		_, err := Source{}.Resolve(nil)
		assert.ErrorIs(t, err, ErrNoSource)
	})
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "document", KindDocument.String())
	assert.Equal(t, "none", Kind(42).String())
}
