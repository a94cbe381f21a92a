// Package prompt supplies answers to the questions a narration run asks:
// interactively, line by line from a reader, or from preset values.
package prompt

import (
	"context"
	"errors"
)

var (
	// ErrNoAnswer indicates the source has no answer and the question has no default
	ErrNoAnswer = errors.New("no answer available")

	// ErrAborted indicates the user cancelled the prompt
	ErrAborted = errors.New("prompt aborted")
)

// Key identifies a question.
type Key string

const (
	KeySource      Key = "source"
	KeyDocument    Key = "document"
	KeyText        Key = "text"
	KeyVoice       Key = "voice"
	KeyPreview     Key = "preview"
	KeyConfirm     Key = "confirm"
	KeyFormat      Key = "format"
	KeySpeed       Key = "speed"
	KeyOutput      Key = "output"
	KeyPersist     Key = "persist"
	KeyPersistPath Key = "persist_path"
)

// Question is one thing a run needs to know.
type Question struct {
	Key     Key
	Prompt  string
	Default string
	// Options are suggested answers, shown to the user
	Options []string
}

// Source answers questions.
type Source interface {
	Ask(ctx context.Context, q Question) (string, error)
}

// IsYes reports whether an answer means yes.
func IsYes(answer string) bool {
	switch answer {
	case "y", "Y", "yes", "Yes", "YES", "true", "1":
		return true
	}
	return false
}
