package engines

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/narrate/internal/audio"
	"github.com/dgnsrekt/narrate/internal/tts"
	"github.com/dgnsrekt/narrate/internal/voice"
)

// backend is what an offline engine contributes to a session.
type backend interface {
	name() string
	voices(ctx context.Context) ([]voice.Voice, error)
	hasVoice(ctx context.Context, id string) bool
	render(ctx context.Context, text string, p tts.Params) (audio.Format, []byte, error)
	speakDirect(ctx context.Context, text string, p tts.Params) error
}

type jobKind int

const (
	jobRender jobKind = iota
	jobSpeak
)

type job struct {
	kind   jobKind
	text   string
	path   string
	params tts.Params
}

// session queues work for a backend and executes it on RunAndWait.
// Rendered chunks for the same path are appended to one WAV file, which is
// moved into place by EndLoop. A failed drain discards its files instead.
type session struct {
	backend backend
	player  audio.Player

	params  tts.Params
	queue   []job
	writers map[string]*audio.WAVWriter
	running bool
	failed  bool
	closed  bool

	mu sync.Mutex
}

func newSession(b backend, player audio.Player) *session {
	return &session{
		backend: b,
		player:  player,
		params:  tts.Params{Rate: tts.RateNormal, Volume: 1},
		writers: make(map[string]*audio.WAVWriter),
	}
}

// Voices lists the backend's voices.
func (s *session) Voices(ctx context.Context) ([]voice.Voice, error) {
	if s.isClosed() {
		return nil, tts.ErrSessionClosed
	}
	return s.backend.voices(ctx)
}

// Configure validates and stores p for subsequently queued work.
func (s *session) Configure(p tts.Params) error {
	if p.Rate == 0 {
		p.Rate = tts.RateNormal
	}
	if err := tts.ValidateRate(p.Rate); err != nil {
		return err
	}
	if err := tts.ValidateVolume(p.Volume); err != nil {
		return err
	}
	if p.VoiceID != "" && !s.backend.hasVoice(context.Background(), p.VoiceID) {
		return fmt.Errorf("%w: %s", tts.ErrUnknownVoice, p.VoiceID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return tts.ErrSessionClosed
	}
	s.params = p
	return nil
}

// RenderToFile queues text for rendering into path.
func (s *session) RenderToFile(text, path string) error {
	return s.enqueue(job{kind: jobRender, text: text, path: path})
}

// Speak queues text for playback.
func (s *session) Speak(text string) error {
	return s.enqueue(job{kind: jobSpeak, text: text})
}

func (s *session) enqueue(j job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return tts.ErrSessionClosed
	}
	j.params = s.params
	s.queue = append(s.queue, j)
	return nil
}

// RunAndWait executes the queued work in order. The loop stays started
// until EndLoop.
func (s *session) RunAndWait(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return tts.ErrSessionClosed
	}
	if s.running {
		s.mu.Unlock()
		return tts.ErrLoopAlreadyRunning
	}
	s.running = true
	jobs := s.queue
	s.queue = nil
	s.mu.Unlock()

	log.Debug("Draining engine queue", "engine", s.backend.name(), "jobs", len(jobs))

	if err := s.drain(ctx, jobs); err != nil {
		s.mu.Lock()
		s.failed = true
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *session) drain(ctx context.Context, jobs []job) error {
	for i, j := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}

		var err error
		switch j.kind {
		case jobRender:
			err = s.render(ctx, j)
		case jobSpeak:
			err = s.speak(ctx, j)
		}
		if err != nil {
			return fmt.Errorf("job %d/%d: %w", i+1, len(jobs), err)
		}
	}
	return nil
}

func (s *session) render(ctx context.Context, j job) error {
	format, pcm, err := s.backend.render(ctx, j.text, j.params)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.writers[j.path]
	if !ok {
		w, err = audio.CreateWAV(j.path, format)
		if err != nil {
			return err
		}
		s.writers[j.path] = w
	}
	return w.Append(format, pcm)
}

func (s *session) speak(ctx context.Context, j job) error {
	if s.player != nil {
		format, pcm, err := s.backend.render(ctx, j.text, j.params)
		if err != nil {
			return err
		}
		err = s.player.Play(ctx, format, pcm)
		if err == nil || !errors.Is(err, audio.ErrPlaybackUnavailable) {
			return err
		}
		log.Debug("Playback unavailable, using engine output", "error", err)
	}
	return s.backend.speakDirect(ctx, j.text, j.params)
}

// EndLoop drops pending work and finalizes written files, or discards them
// when the drain failed.
func (s *session) EndLoop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for path, w := range s.writers {
		finish := w.Close
		if s.failed {
			finish = w.Abort
		}
		if err := finish(); err != nil {
			errs = append(errs, err)
		}
		delete(s.writers, path)
	}
	s.queue = nil
	s.running = false
	s.failed = false

	return errors.Join(errs...)
}

// Close ends the loop and releases the session.
func (s *session) Close() error {
	err := s.EndLoop()

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	return err
}

func (s *session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

var _ tts.Session = (*session)(nil)
