package persona

import (
	"strings"
	"unicode"
)

// Separator is inserted by the robot, hacker and deep transforms.
const (
	robotSeparator  = "..."
	deepSeparator   = "..."
	hackerSeparator = "."
)

var leet = map[rune]rune{
	'a': '4',
	'e': '3',
	'i': '1',
	'o': '0',
	's': '5',
	't': '7',
}

// RobotText turns every word w into "w...w".
func RobotText(text string) string {
	return mapWords(text, func(w string) string {
		return w + robotSeparator + w
	})
}

// DeepText turns every word w into "w...".
func DeepText(text string) string {
	return mapWords(text, func(w string) string {
		return w + deepSeparator
	})
}

// HackerText leetspeaks every word and spells it out one character at a
// time: "test" becomes "7.3.5.7".
func HackerText(text string) string {
	return mapWords(text, func(w string) string {
		runes := []rune(w)
		out := make([]string, len(runes))
		for i, r := range runes {
			if sub, ok := leet[unicode.ToLower(r)]; ok {
				r = sub
			}
			out[i] = string(r)
		}
		return strings.Join(out, hackerSeparator)
	})
}

// mapWords splits on whitespace and rejoins with single spaces.
func mapWords(text string, fn func(string) string) string {
	words := strings.Fields(text)
	for i, w := range words {
		words[i] = fn(w)
	}
	return strings.Join(words, " ")
}
