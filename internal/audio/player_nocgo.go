//go:build nocgo

package audio

// NewPlayer reports that playback is unavailable in builds without cgo.
// Engines fall back to their own audio output.
func NewPlayer() (Player, error) {
	return nil, ErrPlaybackUnavailable
}
