package persist

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type docxDocument struct {
	Paragraphs []struct {
		Runs []struct {
			Texts []string `xml:"t"`
		} `xml:"r"`
	} `xml:"body>p"`
}

// readDocx returns each paragraph's text with <w:br/> rendered as "\n".
func readDocx(t *testing.T, path string) []string {
	t.Helper()

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	names := make(map[string]bool)
	var body []byte
	for _, f := range zr.File {
		names[f.Name] = true
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		body, err = io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
	}
	require.True(t, names["[Content_Types].xml"])
	require.True(t, names["_rels/.rels"])
	require.NotNil(t, body)

	var doc docxDocument
	require.NoError(t, xml.Unmarshal(body, &doc))

	var out []string
	for _, p := range doc.Paragraphs {
		var lines []string
		for _, r := range p.Runs {
			lines = append(lines, r.Texts...)
		}
		out = append(out, strings.Join(lines, "\n"))
	}
	return out
}

func TestWriteVerbatim(t *testing.T) {
	text := "hello...hello world...world\n\nsecond  block \n"

	for _, name := range []string{"out.txt", "out.md", "out.markdown", "OUT.TXT"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, New().Write(text, path))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, text, string(data))
		})
	}
}

func TestSupported(t *testing.T) {
	for _, ext := range Extensions() {
		assert.True(t, Supported("notes"+ext), ext)
		assert.True(t, Supported("NOTES"+strings.ToUpper(ext)), ext)
	}
	assert.True(t, Supported("notes.markdown"))
	assert.False(t, Supported("notes.pdf"))
	assert.False(t, Supported("notes"))
}

func TestWriteDocx(t *testing.T) {
	text := "First block\nstill first\n\n  \n\nSecond <block> & more\r\n\r\nThird"
	path := filepath.Join(t.TempDir(), "out.docx")

	require.NoError(t, New().Write(text, path))

	assert.Equal(t, []string{
		"First block\nstill first",
		"Second <block> & more",
		"Third",
	}, readDocx(t, path))
}

func TestWriteUnsupported(t *testing.T) {
	dir := t.TempDir()
	err := New().Write("text", filepath.Join(dir, "out.rtf"))
	assert.ErrorIs(t, err, ErrUnsupportedExtension)

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestWriteMissingDirectory(t *testing.T) {
	err := New().Write("text", filepath.Join(t.TempDir(), "no", "such", "out.txt"))
	assert.Error(t, err)
}

func TestParagraphs(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", nil},
		{"single", "one block", []string{"one block"}},
		{"blank lines", "a\n\nb\n\n\n\nc", []string{"a", "b", "c"}},
		{"whitespace lines", "a\n \t \nb", []string{"a", "b"}},
		{"crlf", "a\r\n\r\nb", []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Paragraphs(tt.text))
		})
	}
}
