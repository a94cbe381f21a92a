package audio

import (
	"context"
	"sync"
	"time"
)

// MockPlayer implements Player for testing purposes.
// It records playback without producing sound.
type MockPlayer struct {
	// Err is returned by every Play call when set
	Err error

	plays  []Playback
	closed bool

	mu sync.Mutex
}

// Playback is one recorded Play call.
type Playback struct {
	Format   Format
	PCM      []byte
	Duration time.Duration
}

// NewMockPlayer creates an empty mock player.
func NewMockPlayer() *MockPlayer {
	return &MockPlayer{}
}

// Play records the call. The PCM is copied.
func (mp *MockPlayer) Play(ctx context.Context, f Format, pcm []byte) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.closed {
		return ErrPlayerClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if mp.Err != nil {
		return mp.Err
	}

	data := make([]byte, len(pcm))
	copy(data, pcm)
	mp.plays = append(mp.plays, Playback{Format: f, PCM: data, Duration: f.Duration(len(pcm))})
	return nil
}

// Plays returns the recorded playbacks.
func (mp *MockPlayer) Plays() []Playback {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	return append([]Playback(nil), mp.plays...)
}

// Close marks the player closed.
func (mp *MockPlayer) Close() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.closed = true
	return nil
}

var _ Player = (*MockPlayer)(nil)
