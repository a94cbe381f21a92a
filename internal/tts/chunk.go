package tts

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultChunkSize is the number of characters submitted per engine call.
const DefaultChunkSize = 1000

// SplitChunks splits text into chunks of at most size characters. Splits
// happen on whitespace when a chunk has any, otherwise mid-word on a rune
// boundary. Concatenating the chunks returns the original text.
func SplitChunks(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if text == "" {
		return nil
	}

	var chunks []string
	for utf8.RuneCountInString(text) > size {
		cut := byteOffset(text, size)
		if ws := strings.LastIndexFunc(text[:cut], unicode.IsSpace); ws > 0 {
			_, width := utf8.DecodeRuneInString(text[ws:])
			cut = ws + width
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

// byteOffset returns the byte offset of the n-th rune.
func byteOffset(s string, n int) int {
	i := 0
	for off := range s {
		if i == n {
			return off
		}
		i++
	}
	return len(s)
}

// Excerpt returns the first n words of text.
func Excerpt(text string, n int) string {
	words := strings.Fields(text)
	if n > 0 && len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
