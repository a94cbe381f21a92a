package audio

import (
	"context"
	"errors"
)

var (
	// ErrPlaybackUnavailable is returned when no audio device can be used
	ErrPlaybackUnavailable = errors.New("audio playback not available")

	// ErrPlayerClosed is returned by Play after Close
	ErrPlayerClosed = errors.New("player is closed")
)

// Player plays PCM audio.
type Player interface {
	// Play blocks until the audio has been played or ctx is done.
	Play(ctx context.Context, f Format, pcm []byte) error

	// Close releases the player.
	Close() error
}
