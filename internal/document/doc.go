// Package document resolves the text a run narrates: a typed string, the
// clipboard, or the pages of a PDF, Markdown or plain text document.
package document
