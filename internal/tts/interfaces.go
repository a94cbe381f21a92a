package tts

import (
	"context"

	"github.com/dgnsrekt/narrate/internal/voice"
)

// Engine defines the contract for offline text-to-speech engines.
// Implementations include espeak-ng and Piper, both driven as subprocesses.
type Engine interface {
	// Name returns the engine name (e.g., "espeak", "piper").
	Name() string

	// Open acquires an engine handle. The handle is scoped to a single run
	// and must be released with Close on every exit path.
	Open(ctx context.Context) (Session, error)
}

// Session is an acquired offline engine handle. Work is queued with
// RenderToFile and Speak and executed by RunAndWait.
type Session interface {
	// Voices enumerates the voices the engine can render. An empty list is
	// a valid result.
	Voices(ctx context.Context) ([]voice.Voice, error)

	// Configure sets rate, volume and voice for subsequently queued work.
	// It returns ErrUnknownVoice when the voice id is not known.
	Configure(p Params) error

	// RenderToFile queues a text chunk for rendering into path. Multiple
	// chunks queued for the same path are appended in order into one file.
	RenderToFile(text, path string) error

	// Speak queues text for playback without writing a file.
	Speak(text string) error

	// RunAndWait drains the queue and blocks until all work is done. It
	// returns ErrLoopAlreadyRunning when a drain is already in progress.
	RunAndWait(ctx context.Context) error

	// EndLoop terminates the current drain and finalizes any files it was
	// writing. It is safe to call when no drain is running.
	EndLoop() error

	// Close releases the handle.
	Close() error
}

// Params are the engine settings applied by Configure.
type Params struct {
	// Rate is the speaking rate in words per minute.
	Rate int

	// Volume is the output volume between 0.0 and 1.0.
	Volume float64

	// VoiceID is the backend voice id. Empty selects the engine default.
	VoiceID string
}

// CloudClient defines the contract for network synthesis services that
// produce MP3 directly. Cloud clients have no persona or voice control.
type CloudClient interface {
	// Name returns the client name (e.g., "gtts", "native").
	Name() string

	// SynthesizeToFile writes the MP3 rendering of text to path. The file
	// is either written completely or not at all.
	SynthesizeToFile(ctx context.Context, text, lang, path string) error
}

// AudioStore is the cache used by the caching cloud client.
type AudioStore interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
}
