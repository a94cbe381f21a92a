package pipeline

import "github.com/dgnsrekt/narrate/internal/voice"

// Display shows run progress to the user.
type Display interface {
	// Voices presents the catalog before the voice question.
	Voices(entries []voice.Voice)

	// Preview shows the excerpt about to be spoken.
	Preview(excerpt string)

	// Progress reports document extraction progress.
	Progress(page, total int)

	// Warn reports a recoverable condition.
	Warn(msg string)
}

// NopDisplay discards everything.
type NopDisplay struct{}

func (NopDisplay) Voices([]voice.Voice) {}
func (NopDisplay) Preview(string)       {}
func (NopDisplay) Progress(int, int)    {}
func (NopDisplay) Warn(string)          {}

var _ Display = NopDisplay{}
