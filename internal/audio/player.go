//go:build !nocgo

package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// OtoPlayer plays PCM through the system audio device. oto allows one
// context per process, so the context is created on the first Play and its
// format is fixed from then on.
type OtoPlayer struct {
	context *oto.Context
	format  Format
	closed  bool

	// pollInterval is how often Play checks for completion
	pollInterval time.Duration

	mu sync.Mutex
}

// NewPlayer returns the oto backed player.
func NewPlayer() (Player, error) {
	return &OtoPlayer{pollInterval: 10 * time.Millisecond}, nil
}

func (p *OtoPlayer) ensureContext(f Format) error {
	if p.context != nil {
		if f != p.format {
			return fmt.Errorf("%w: device opened as %+v", ErrFormatMismatch, p.format)
		}
		return nil
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   f.SampleRate,
		ChannelCount: f.Channels,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPlaybackUnavailable, err)
	}
	<-ready

	p.context = ctx
	p.format = f
	log.Debug("Audio device opened", "sampleRate", f.SampleRate, "channels", f.Channels)
	return nil
}

// Play blocks until pcm has been played or ctx is done.
func (p *OtoPlayer) Play(ctx context.Context, f Format, pcm []byte) error {
	if len(pcm) == 0 {
		return errors.New("audio data is empty")
	}
	if err := f.Validate(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPlayerClosed
	}
	if err := p.ensureContext(f); err != nil {
		return err
	}

	// pcm stays referenced by the reader until playback ends.
	player := p.context.NewPlayer(bytes.NewReader(pcm))
	defer player.Close()
	player.Play()

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
		}
	}

	// Let the device drain its buffer.
	time.Sleep(f.Duration(player.BufferedSize()))
	return player.Err()
}

// Close releases the player. The oto context itself lives until exit.
func (p *OtoPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	return nil
}
