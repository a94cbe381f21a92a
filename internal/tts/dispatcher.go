package tts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/text/language"
)

// DefaultPreviewWords is the number of words spoken by Preview.
const DefaultPreviewWords = 30

// DispatcherConfig holds dispatcher settings.
type DispatcherConfig struct {
	// ChunkSize is the number of characters per offline engine call.
	ChunkSize int

	// PreviewWords bounds the text spoken by Preview.
	PreviewWords int

	// Language is the default cloud language code.
	Language string
}

// Dispatcher routes synthesis requests to the offline engine session (WAV)
// or the cloud client (MP3).
type Dispatcher struct {
	cloud        CloudClient
	chunkSize    int
	previewWords int
	language     string
}

// NewDispatcher creates a dispatcher. cloud may be nil, in which case MP3
// requests fail.
func NewDispatcher(cloud CloudClient, cfg DispatcherConfig) *Dispatcher {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.PreviewWords <= 0 {
		cfg.PreviewWords = DefaultPreviewWords
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}

	return &Dispatcher{
		cloud:        cloud,
		chunkSize:    cfg.ChunkSize,
		previewWords: cfg.PreviewWords,
		language:     cfg.Language,
	}
}

// Synthesize renders the request into req.Path. sess is only used for WAV
// output and is not released here: the caller owns the handle.
func (d *Dispatcher) Synthesize(ctx context.Context, sess Session, req SynthesisRequest) error {
	if strings.TrimSpace(req.Text) == "" {
		return NewTTSError(ErrorCodeInputAcquisition, "no text to synthesize", ErrNothingToSynthesize)
	}

	switch req.Format {
	case FormatWAV:
		return d.synthesizeOffline(ctx, sess, req)
	case FormatMP3:
		return d.synthesizeCloud(ctx, req)
	default:
		return NewTTSError(ErrorCodeInvalidChoice, "unsupported output format", fmt.Errorf("%w: %q", ErrInvalidFormat, req.Format))
	}
}

func (d *Dispatcher) synthesizeOffline(ctx context.Context, sess Session, req SynthesisRequest) error {
	if sess == nil {
		return NewTTSError(ErrorCodeSynthesis, "offline synthesis unavailable", ErrEngineNotAvailable)
	}

	m := StartSynthesis("offline", FormatWAV, req.Text)
	err := func() error {
		if err := d.configure(sess, req.Params()); err != nil {
			return fmt.Errorf("configure engine: %w", err)
		}

		chunks := SplitChunks(req.Text, d.chunkSize)
		m.Chunks = len(chunks)
		for i, chunk := range chunks {
			if err := sess.RenderToFile(chunk, req.Path); err != nil {
				return fmt.Errorf("queue chunk %d/%d: %w", i+1, len(chunks), err)
			}
		}

		if err := d.drain(ctx, sess); err != nil {
			return err
		}

		if _, err := os.Stat(req.Path); err != nil {
			return fmt.Errorf("engine produced no audio: %w", err)
		}
		return nil
	}()
	m.EndSynthesis(err)

	if err != nil {
		return wrapSynthesisError(ctx, "offline synthesis failed", err).
			WithContext("path", req.Path).
			WithContext("voice", req.Selection.Name())
	}
	return nil
}

func (d *Dispatcher) synthesizeCloud(ctx context.Context, req SynthesisRequest) error {
	if d.cloud == nil {
		return NewTTSError(ErrorCodeSynthesis, "cloud synthesis unavailable", ErrInvalidCloud)
	}

	lang := req.Language
	if lang == "" {
		lang = d.language
	}
	lang, err := NormalizeLanguage(lang)
	if err != nil {
		return NewTTSError(ErrorCodeSynthesis, "cloud synthesis failed", err)
	}

	m := StartSynthesis(d.cloud.Name(), FormatMP3, req.Text)
	err = d.cloud.SynthesizeToFile(ctx, req.Text, lang, req.Path)
	m.EndSynthesis(err)

	if err != nil {
		return wrapSynthesisError(ctx, d.cloud.Name()+" synthesis failed", err).
			WithContext("path", req.Path).
			WithContext("language", lang)
	}
	return nil
}

// Preview speaks the first words of text through the session without
// writing a file.
func (d *Dispatcher) Preview(ctx context.Context, sess Session, text string, p Params) error {
	if sess == nil {
		return NewTTSError(ErrorCodeSynthesis, "preview unavailable", ErrEngineNotAvailable)
	}

	excerpt := Excerpt(text, d.previewWords)
	if excerpt == "" {
		return NewTTSError(ErrorCodeInputAcquisition, "no text to preview", ErrNothingToSynthesize)
	}

	if err := d.configure(sess, p); err != nil {
		return wrapSynthesisError(ctx, "preview failed", err)
	}
	if err := sess.Speak(excerpt); err != nil {
		return wrapSynthesisError(ctx, "preview failed", err)
	}
	if err := d.drain(ctx, sess); err != nil {
		return wrapSynthesisError(ctx, "preview failed", err)
	}
	return nil
}

// PreviewText returns the excerpt Preview would speak.
func (d *Dispatcher) PreviewText(text string) string {
	return Excerpt(text, d.previewWords)
}

// configure applies p, downgrading an unknown voice to the engine default.
func (d *Dispatcher) configure(sess Session, p Params) error {
	err := sess.Configure(p)
	if err == nil || !errors.Is(err, ErrUnknownVoice) {
		return err
	}

	log.Warn("Invalid voice, using default", "voice", p.VoiceID)
	p.VoiceID = ""
	return sess.Configure(p)
}

// drain runs the session loop to completion. An already running loop is
// not an error. The loop is always ended afterwards.
func (d *Dispatcher) drain(ctx context.Context, sess Session) (err error) {
	defer func() {
		if endErr := sess.EndLoop(); endErr != nil && err == nil {
			err = fmt.Errorf("end loop: %w", endErr)
		}
	}()

	if err := sess.RunAndWait(ctx); err != nil {
		if errors.Is(err, ErrLoopAlreadyRunning) {
			log.Debug("Run loop already started, ending it")
			return nil
		}
		return err
	}
	return nil
}

func wrapSynthesisError(ctx context.Context, msg string, err error) *TTSError {
	if ctx.Err() != nil && errors.Is(err, context.DeadlineExceeded) {
		return NewTTSError(ErrorCodeTimeout, msg, fmt.Errorf("%w: %w", ErrTimeout, err))
	}
	return NewTTSError(ErrorCodeSynthesis, msg, err)
}

// NormalizeLanguage validates a BCP 47 language code and returns its
// canonical form. An empty code selects English.
func NormalizeLanguage(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "en", nil
	}

	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("%w %q: %w", ErrInvalidLanguage, code, err)
	}
	return tag.String(), nil
}
