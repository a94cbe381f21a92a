package engines

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/narrate/internal/audio"
	"github.com/dgnsrekt/narrate/internal/tts"
	"github.com/dgnsrekt/narrate/internal/voice"
)

// PiperEngine drives the Piper neural TTS binary. Each *.onnx model is one
// voice; its backend id is the model path.
type PiperEngine struct {
	binary    string
	model     string
	modelsDir string
	runner    Runner
	player    audio.Player
}

// PiperConfig holds configuration for the Piper engine.
type PiperConfig struct {
	// Binary is the executable, defaults to "piper"
	Binary string

	// Model is the model used when no voice is configured
	Model string

	// ModelsDir holds the models listed as voices
	ModelsDir string

	// Runner executes the binary, defaults to a SubprocessRunner
	Runner Runner

	// Player plays previews; Piper has no audio output of its own
	Player audio.Player
}

// modelConfig is the subset of <model>.onnx.json used here.
type modelConfig struct {
	Audio struct {
		SampleRate int `json:"sample_rate"`
	} `json:"audio"`
	Language struct {
		Code string `json:"code"`
	} `json:"language"`
	Espeak struct {
		Voice string `json:"voice"`
	} `json:"espeak"`
	Dataset string `json:"dataset"`
}

// NewPiperEngine creates a new Piper engine.
func NewPiperEngine(config PiperConfig) *PiperEngine {
	if config.Binary == "" {
		config.Binary = "piper"
	}
	if config.Runner == nil {
		config.Runner = NewSubprocessRunner(0)
	}

	return &PiperEngine{
		binary:    config.Binary,
		model:     config.Model,
		modelsDir: config.ModelsDir,
		runner:    config.Runner,
		player:    config.Player,
	}
}

// Name returns the engine name.
func (e *PiperEngine) Name() string { return string(tts.EnginePiper) }

// Open checks that Piper runs and that a model exists.
func (e *PiperEngine) Open(ctx context.Context) (tts.Session, error) {
	if _, err := e.runner.Run(ctx, "", e.binary, "--help"); err != nil {
		return nil, fmt.Errorf("%w: %w", tts.ErrEngineNotAvailable, err)
	}
	if e.defaultModel() == "" {
		return nil, fmt.Errorf("%w: no Piper model configured", tts.ErrEngineNotAvailable)
	}
	return newSession(e, e.player), nil
}

func (e *PiperEngine) name() string { return e.Name() }

// models returns the configured model followed by the models directory.
func (e *PiperEngine) models() []string {
	var list []string
	seen := make(map[string]bool)

	add := func(path string) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if !seen[path] {
			seen[path] = true
			list = append(list, path)
		}
	}

	if e.model != "" {
		add(e.model)
	}
	if e.modelsDir != "" {
		found, _ := filepath.Glob(filepath.Join(e.modelsDir, "*.onnx"))
		sort.Strings(found)
		for _, f := range found {
			add(f)
		}
	}
	return list
}

func (e *PiperEngine) defaultModel() string {
	if models := e.models(); len(models) > 0 {
		return models[0]
	}
	return ""
}

func (e *PiperEngine) voices(context.Context) ([]voice.Voice, error) {
	models := e.models()
	list := make([]voice.Voice, 0, len(models))
	for _, m := range models {
		if _, err := os.Stat(m); err != nil {
			log.Warn("Skipping missing Piper model", "path", m)
			continue
		}

		cfg := readModelConfig(m)
		lang := cfg.Language.Code
		if lang == "" {
			lang = cfg.Espeak.Voice
		}

		list = append(list, voice.Voice{
			BackendID:   m,
			DisplayName: strings.TrimSuffix(filepath.Base(m), ".onnx"),
			Language:    lang,
			Gender:      voice.GenderUnknown,
		})
	}
	return list, nil
}

func (e *PiperEngine) hasVoice(_ context.Context, id string) bool {
	if !strings.HasSuffix(id, ".onnx") {
		return false
	}
	_, err := os.Stat(id)
	return err == nil
}

func (e *PiperEngine) render(ctx context.Context, text string, p tts.Params) (audio.Format, []byte, error) {
	model := p.VoiceID
	if model == "" {
		model = e.defaultModel()
	}

	args := []string{
		"--model", model,
		"--output-raw",
		"--length-scale", tts.ToPiperScale(p.Rate),
	}
	if cfg := model + ".json"; fileExists(cfg) {
		args = append(args, "--config", cfg)
	}

	pcm, err := e.runner.Run(ctx, text, e.binary, args...)
	if err != nil {
		return audio.Format{}, nil, fmt.Errorf("piper synthesis: %w", err)
	}
	if len(pcm) == 0 {
		return audio.Format{}, nil, fmt.Errorf("piper produced no audio")
	}

	// Piper has no volume control.
	audio.ApplyGain(pcm, p.Volume)

	format := audio.DefaultFormat
	if rate := readModelConfig(model).Audio.SampleRate; rate > 0 {
		format.SampleRate = rate
	}
	return format, pcm, nil
}

func (e *PiperEngine) speakDirect(context.Context, string, tts.Params) error {
	return fmt.Errorf("%w: piper has no audio output of its own", audio.ErrPlaybackUnavailable)
}

func readModelConfig(model string) modelConfig {
	var cfg modelConfig
	data, err := os.ReadFile(model + ".json")
	if err != nil {
		return cfg
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		log.Debug("Unreadable Piper model config", "path", model+".json", "error", err)
	}
	return cfg
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

var _ tts.Engine = (*PiperEngine)(nil)
