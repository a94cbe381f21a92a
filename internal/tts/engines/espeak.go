package engines

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/dgnsrekt/narrate/internal/audio"
	"github.com/dgnsrekt/narrate/internal/tts"
	"github.com/dgnsrekt/narrate/internal/voice"
)

// EspeakEngine drives espeak-ng. Voices are the languages reported by
// `espeak-ng --voices`.
type EspeakEngine struct {
	binary string
	runner Runner
	player audio.Player

	// Voice list, loaded once
	once      sync.Once
	voiceList []voice.Voice
	voiceErr  error
}

// EspeakConfig holds configuration for the espeak-ng engine.
type EspeakConfig struct {
	// Binary is the executable, defaults to "espeak-ng"
	Binary string

	// Runner executes the binary, defaults to a SubprocessRunner
	Runner Runner

	// Player plays previews, nil uses espeak-ng's own audio output
	Player audio.Player
}

// NewEspeakEngine creates a new espeak-ng engine.
func NewEspeakEngine(config EspeakConfig) *EspeakEngine {
	if config.Binary == "" {
		config.Binary = "espeak-ng"
	}
	if config.Runner == nil {
		config.Runner = NewSubprocessRunner(0)
	}

	return &EspeakEngine{
		binary: config.Binary,
		runner: config.Runner,
		player: config.Player,
	}
}

// Name returns the engine name.
func (e *EspeakEngine) Name() string { return string(tts.EngineEspeak) }

// Open checks that espeak-ng runs and returns a session.
func (e *EspeakEngine) Open(ctx context.Context) (tts.Session, error) {
	if _, err := e.runner.Run(ctx, "", e.binary, "--version"); err != nil {
		return nil, fmt.Errorf("%w: %w", tts.ErrEngineNotAvailable, err)
	}
	return newSession(e, e.player), nil
}

func (e *EspeakEngine) name() string { return e.Name() }

func (e *EspeakEngine) voices(ctx context.Context) ([]voice.Voice, error) {
	e.once.Do(func() {
		out, err := e.runner.Run(ctx, "", e.binary, "--voices")
		if err != nil {
			e.voiceErr = fmt.Errorf("list voices: %w", err)
			return
		}
		e.voiceList = parseEspeakVoices(out)
	})
	return e.voiceList, e.voiceErr
}

func (e *EspeakEngine) hasVoice(ctx context.Context, id string) bool {
	list, err := e.voices(ctx)
	if err != nil {
		return false
	}
	for _, v := range list {
		if v.BackendID == id {
			return true
		}
	}
	return false
}

func (e *EspeakEngine) args(p tts.Params) []string {
	args := []string{
		"--stdin",
		"-s", strconv.Itoa(p.Rate),
		"-a", strconv.Itoa(tts.ToAmplitude(p.Volume)),
	}
	if p.VoiceID != "" {
		args = append(args, "-v", p.VoiceID)
	}
	return args
}

func (e *EspeakEngine) render(ctx context.Context, text string, p tts.Params) (audio.Format, []byte, error) {
	out, err := e.runner.Run(ctx, text, e.binary, append(e.args(p), "--stdout")...)
	if err != nil {
		return audio.Format{}, nil, fmt.Errorf("espeak-ng synthesis: %w", err)
	}

	format, pcm, err := audio.DecodeWAV(out)
	if err != nil {
		return audio.Format{}, nil, fmt.Errorf("espeak-ng output: %w", err)
	}
	return format, pcm, nil
}

func (e *EspeakEngine) speakDirect(ctx context.Context, text string, p tts.Params) error {
	if _, err := e.runner.Run(ctx, text, e.binary, e.args(p)...); err != nil {
		return fmt.Errorf("espeak-ng playback: %w", err)
	}
	return nil
}

// parseEspeakVoices parses the `espeak-ng --voices` table:
//
//	Pty Language       Age/Gender VoiceName          File          Other Languages
//	 5  en-us           --/M      English_(America)  gmw/en-US     (en 10)
func parseEspeakVoices(out []byte) []voice.Voice {
	var (
		list []voice.Voice
		seen = make(map[string]bool)
	)

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || fields[0] == "Pty" {
			continue
		}
		if _, err := strconv.Atoi(fields[0]); err != nil {
			continue
		}

		id := fields[1]
		if seen[id] {
			continue
		}
		seen[id] = true

		gender := voice.GenderUnknown
		if _, g, ok := strings.Cut(fields[2], "/"); ok {
			gender = voice.ParseGender(g)
		}

		list = append(list, voice.Voice{
			BackendID:   id,
			DisplayName: strings.ReplaceAll(fields[3], "_", " "),
			Language:    id,
			Gender:      gender,
		})
	}
	return list
}

var _ tts.Engine = (*EspeakEngine)(nil)
