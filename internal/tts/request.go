package tts

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dgnsrekt/narrate/internal/voice"
)

// OutputFormat selects the synthesis path.
type OutputFormat string

const (
	// FormatWAV renders offline through the local engine.
	FormatWAV OutputFormat = "wav"

	// FormatMP3 renders through the cloud service.
	FormatMP3 OutputFormat = "mp3"
)

// ParseFormat parses a user supplied format ("wav", ".MP3", ...).
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")); f {
	case FormatWAV, FormatMP3:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
}

// Extension returns the file extension for the format, dot included.
func (f OutputFormat) Extension() string {
	return "." + string(f)
}

// IsOnline reports whether the format requires the cloud service.
func (f OutputFormat) IsOnline() bool {
	return f == FormatMP3
}

// WithExtension appends the format's extension unless path already has it.
func (f OutputFormat) WithExtension(path string) string {
	if strings.EqualFold(filepath.Ext(path), f.Extension()) {
		return path
	}
	return path + f.Extension()
}

// SynthesisRequest is one unit of work for the dispatcher.
type SynthesisRequest struct {
	// Text is submitted as is: persona-transformed for WAV, raw for MP3.
	Text string

	Selection voice.Selection

	// Rate is the speaking rate in words per minute.
	Rate int

	// Volume is between 0.0 and 1.0.
	Volume float64

	Format OutputFormat

	// Path is the output file.
	Path string

	// Language is the cloud language code. Ignored offline.
	Language string
}

// Params returns the engine parameters for the request.
func (r SynthesisRequest) Params() Params {
	return Params{
		Rate:    r.Rate,
		Volume:  r.Volume,
		VoiceID: r.Selection.BackendID,
	}
}
