package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mitchellh/go-homedir"

	"github.com/dgnsrekt/narrate/internal/document"
	"github.com/dgnsrekt/narrate/internal/persist"
	"github.com/dgnsrekt/narrate/internal/persona"
	"github.com/dgnsrekt/narrate/internal/prompt"
	"github.com/dgnsrekt/narrate/internal/tts"
	"github.com/dgnsrekt/narrate/internal/voice"
)

var (
	// ErrInvalidChoice indicates an answer outside the offered choices
	ErrInvalidChoice = errors.New("invalid choice")

	// ErrDeclined indicates the user stopped the run after the preview
	ErrDeclined = errors.New("narration declined after preview")
)

const (
	// DefaultMaxAttempts bounds voice re-prompts.
	DefaultMaxAttempts = 3

	// DefaultOutputName is the output file name without extension.
	DefaultOutputName = "narration"
)

// Config holds the settings of one run.
type Config struct {
	// Sources are the text sources given up front. Exactly one is used
	// directly; none or several make the run ask.
	Sources []document.Source

	Personas       []persona.Kind
	PersonaOptions persona.Options

	// Voice is a voice named up front. It also matches partial display
	// names; answers to the voice prompt must match exactly.
	Voice string

	// Reprompt asks again on an invalid voice choice, up to MaxAttempts
	// answers. Otherwise the catalog default is used silently.
	Reprompt    bool
	MaxAttempts int

	// Volume between 0.0 and 1.0, for voices that do not force one.
	Volume float64

	// Language is the cloud language code.
	Language string

	// OutputName is the default output path without extension.
	OutputName string

	// Timeout bounds preview and synthesis; zero means none.
	Timeout time.Duration
}

// DefaultConfig returns the default run settings.
func DefaultConfig() Config {
	return Config{
		Personas:       persona.DefaultKinds,
		PersonaOptions: persona.DefaultOptions(),
		Reprompt:       true,
		MaxAttempts:    DefaultMaxAttempts,
		Volume:         1.0,
		Language:       "en",
		OutputName:     DefaultOutputName,
	}
}

// Deps are the collaborators of a run.
type Deps struct {
	// Engine is the offline engine. Nil or unavailable engines leave the
	// catalog without real voices and make WAV output fail.
	Engine     tts.Engine
	Dispatcher *tts.Dispatcher
	Answers    prompt.Source
	Persister  persist.Persister
	Display    Display
}

// Artifact is a file written by a run.
type Artifact struct {
	Kind string
	Path string
	Size int64
}

// Result summarizes a run.
type Result struct {
	RunID string
	State State

	// Trace lists the states entered, in order.
	Trace []State

	Source    document.Kind
	Selection voice.Selection
	Format    tts.OutputFormat
	Rate      int

	// Text is what was sent to the backend.
	Text string

	Written  []Artifact
	Warnings []string

	// Failures are the non-fatal errors of a completed run.
	Failures []error

	// Err is the error that ended a failed run.
	Err error

	Started  time.Time
	Duration time.Duration
}

// Orchestrator drives narration runs.
type Orchestrator struct {
	cfg  Config
	deps Deps
}

// New creates an orchestrator.
func New(cfg Config, deps Deps) *Orchestrator {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.OutputName == "" {
		cfg.OutputName = DefaultOutputName
	}
	if cfg.Personas == nil {
		cfg.Personas = persona.DefaultKinds
	}
	if deps.Dispatcher == nil {
		deps.Dispatcher = tts.NewDispatcher(nil, tts.DispatcherConfig{Language: cfg.Language})
	}
	if deps.Answers == nil {
		deps.Answers = prompt.NewPreset(nil)
	}
	if deps.Persister == nil {
		deps.Persister = persist.New()
	}
	if deps.Display == nil {
		deps.Display = NopDisplay{}
	}
	return &Orchestrator{cfg: cfg, deps: deps}
}

// run is the mutable state of a single Run.
type run struct {
	cfg    Config
	deps   Deps
	res    *Result
	logger *log.Logger
}

// Run executes one narration. On failure the returned error is also in
// Result.Err and no audio is reported as written.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	id := uuid.NewString()
	r := &run{
		cfg:    o.cfg,
		deps:   o.deps,
		res:    &Result{RunID: id, Started: time.Now()},
		logger: log.With("run", id[:8]),
	}
	defer func() { r.res.Duration = time.Since(r.res.Started) }()

	if err := r.execute(ctx); err != nil {
		r.res.State = StateFailed
		r.res.Trace = append(r.res.Trace, StateFailed)
		r.res.Err = err
		r.logger.Error("Narration failed", "error", err)
		return r.res, err
	}

	r.enter(StateDone)
	r.logger.Info("Narration finished", "files", len(r.res.Written), "failures", len(r.res.Failures))
	return r.res, nil
}

func (r *run) execute(ctx context.Context) error {
	text, err := r.acquireText(ctx)
	if err != nil {
		return err
	}

	// The offline handle is shared by preview and synthesis and released
	// on every path out of the run.
	sess := r.openSession(ctx)
	if sess != nil {
		defer func() {
			if err := sess.Close(); err != nil {
				r.logger.Warn("Could not release engine", "error", err)
			}
		}()
	}

	sel, err := r.selectVoice(ctx, r.catalog(ctx, sess))
	if err != nil {
		return err
	}
	r.res.Selection = sel

	r.enter(StateApplyTransform)
	effect := persona.Lookup(sel.Persona, r.cfg.PersonaOptions)
	transformed := effect.Apply(text)

	if err := r.preview(ctx, sess, transformed, effect, sel); err != nil {
		return err
	}

	format, rate, path, err := r.selectOutput(ctx)
	if err != nil {
		return err
	}

	req := tts.SynthesisRequest{
		Text:      text,
		Selection: sel,
		Rate:      rate,
		Volume:    r.cfg.Volume,
		Format:    format,
		Path:      path,
		Language:  r.cfg.Language,
	}
	if format.IsOnline() {
		if sel.IsPersona() {
			r.logger.Info("Personas do not apply to MP3 output", "persona", sel.Persona)
		}
	} else {
		req.Text = transformed
		req.Rate, req.Volume = applyOverrides(effect, rate, r.cfg.Volume)
	}
	r.res.Format = format
	r.res.Rate = req.Rate
	r.res.Text = req.Text

	if err := r.synthesize(ctx, sess, req); err != nil {
		return err
	}

	r.persist(ctx, req.Text, path)
	return nil
}

func (r *run) enter(s State) {
	r.res.State = s
	r.res.Trace = append(r.res.Trace, s)
	r.logger.Debug("Entering state", "state", s)
}

func (r *run) warn(msg string) {
	r.res.Warnings = append(r.res.Warnings, msg)
	r.deps.Display.Warn(msg)
}

// ask returns the answer to q. Sources without an answer yield "".
func (r *run) ask(ctx context.Context, q prompt.Question) (string, error) {
	answer, err := r.deps.Answers.Ask(ctx, q)
	switch {
	case err == nil:
		return strings.TrimSpace(answer), nil
	case errors.Is(err, prompt.ErrNoAnswer):
		return "", nil
	case errors.Is(err, prompt.ErrAborted), errors.Is(err, context.Canceled):
		return "", tts.NewTTSError(tts.ErrorCodeCanceled, "narration canceled", err)
	case errors.Is(err, context.DeadlineExceeded):
		return "", tts.NewTTSError(tts.ErrorCodeTimeout, "narration timed out", err)
	default:
		return "", tts.NewTTSError(tts.ErrorCodeInputAcquisition, "could not read answer", err).
			WithContext("question", string(q.Key))
	}
}

func (r *run) acquireText(ctx context.Context) (string, error) {
	r.enter(StateAcquireText)

	src, err := r.chooseSource(ctx)
	if err != nil {
		return "", err
	}
	r.res.Source = src.Kind

	text, err := src.Resolve(r.deps.Display.Progress)
	switch {
	case errors.Is(err, document.ErrNoText):
		return "", tts.NewTTSError(tts.ErrorCodeInputAcquisition, "no text to narrate", err).
			WithContext("source", src.Kind.String())
	case err != nil:
		return "", tts.NewTTSError(tts.ErrorCodeInputAcquisition, "could not read text", err).
			WithContext("source", src.Kind.String())
	}

	r.logger.Debug("Text acquired", "source", src.Kind, "chars", len(text))
	return text, nil
}

func (r *run) chooseSource(ctx context.Context) (document.Source, error) {
	var configured []document.Source
	for _, s := range r.cfg.Sources {
		if s.Kind != document.KindNone {
			configured = append(configured, s)
		}
	}
	if len(configured) == 1 {
		return configured[0], nil
	}

	answer, err := r.ask(ctx, prompt.Question{
		Key:     prompt.KeySource,
		Prompt:  "Read a document (1) or type the text (2)?",
		Options: []string{"1", "2"},
	})
	if err != nil {
		return document.Source{}, err
	}

	var defaultPath, defaultText string
	for _, s := range configured {
		switch s.Kind {
		case document.KindDocument:
			defaultPath = s.Path
		case document.KindText:
			defaultText = s.Text
		}
	}

	switch answer {
	case "1":
		path, err := r.ask(ctx, prompt.Question{Key: prompt.KeyDocument, Prompt: "Document path", Default: defaultPath})
		if err != nil {
			return document.Source{}, err
		}
		return document.File(path), nil
	case "2":
		text, err := r.ask(ctx, prompt.Question{Key: prompt.KeyText, Prompt: "Text to narrate", Default: defaultText})
		if err != nil {
			return document.Source{}, err
		}
		return document.Typed(text), nil
	default:
		return document.Source{}, tts.NewTTSError(tts.ErrorCodeInvalidChoice, "choose 1 or 2",
			fmt.Errorf("%w: source %q", ErrInvalidChoice, answer))
	}
}

// openSession acquires the offline engine. Failure is not fatal here: MP3
// output does not need it.
func (r *run) openSession(ctx context.Context) tts.Session {
	if r.deps.Engine == nil {
		return nil
	}

	sess, err := r.deps.Engine.Open(ctx)
	if err != nil {
		r.logger.Warn("Offline engine unavailable", "engine", r.deps.Engine.Name(), "error", err)
		r.warn(fmt.Sprintf("%s is not available: WAV output will fail", r.deps.Engine.Name()))
		return nil
	}
	return sess
}

func (r *run) catalog(ctx context.Context, sess tts.Session) *voice.Catalog {
	var real []voice.Voice
	if sess != nil {
		voices, err := sess.Voices(ctx)
		if err != nil {
			r.logger.Warn("Could not list voices", "error", err)
		}
		real = voices
	}
	if len(real) == 0 {
		r.warn("No system voices detected")
	}
	return voice.NewCatalog(real, r.cfg.Personas)
}

func (r *run) selectVoice(ctx context.Context, catalog *voice.Catalog) (voice.Selection, error) {
	r.enter(StateSelectVoice)
	r.deps.Display.Voices(catalog.List())

	attempts := 1
	if r.cfg.Reprompt {
		attempts = r.cfg.MaxAttempts
	}

	q := prompt.Question{Key: prompt.KeyVoice, Prompt: "Choose a voice"}
	if n := catalog.Len(); n > 0 {
		q.Prompt = "Choose a voice (0-" + strconv.Itoa(n-1) + ")"
	}

	if r.cfg.Voice != "" {
		sel, err := catalog.Find(r.cfg.Voice)
		if err == nil {
			r.logger.Debug("Voice selected", "voice", sel.Name(), "persona", sel.Persona)
			return sel, nil
		}
		r.logger.Warn("Invalid voice choice", "error",
			tts.NewTTSError(tts.ErrorCodeVoiceResolution, "invalid voice choice", err).WithContext("answer", r.cfg.Voice))
		r.warn(fmt.Sprintf("No voice matches %q", r.cfg.Voice))
	}

	for attempt := 1; ; attempt++ {
		answer, err := r.ask(ctx, q)
		if err != nil {
			return voice.Selection{}, err
		}
		if answer == "" {
			return catalog.Default(), nil
		}

		sel, err := catalog.Match(answer)
		if err == nil {
			r.logger.Debug("Voice selected", "voice", sel.Name(), "persona", sel.Persona)
			return sel, nil
		}

		verr := tts.NewTTSError(tts.ErrorCodeVoiceResolution, "invalid voice choice", err).
			WithContext("answer", answer).
			WithContext("attempt", attempt)
		r.logger.Warn("Invalid voice choice", "error", verr)

		if attempt >= attempts {
			if r.cfg.Reprompt {
				r.warn(fmt.Sprintf("Invalid voice %q, using the default voice", answer))
			}
			return catalog.Default(), nil
		}
		r.warn(fmt.Sprintf("Invalid voice %q, try again", answer))
	}
}

func (r *run) preview(ctx context.Context, sess tts.Session, text string, effect persona.Effect, sel voice.Selection) error {
	answer, err := r.ask(ctx, prompt.Question{
		Key:     prompt.KeyPreview,
		Prompt:  "Preview the voice first?",
		Default: "n",
		Options: []string{"y", "n"},
	})
	if err != nil {
		return err
	}
	if !prompt.IsYes(answer) {
		return nil
	}

	r.enter(StatePreview)
	r.deps.Display.Preview(r.deps.Dispatcher.PreviewText(text))

	rate, volume := applyOverrides(effect, tts.RateNormal, r.cfg.Volume)
	pctx, cancel := r.withTimeout(ctx)
	err = r.deps.Dispatcher.Preview(pctx, sess, text, tts.Params{Rate: rate, Volume: volume, VoiceID: sel.BackendID})
	cancel()
	if err != nil {
		r.logger.Warn("Preview failed", "error", err)
		r.warn("Preview failed: " + err.Error())
	}

	answer, err = r.ask(ctx, prompt.Question{
		Key:     prompt.KeyConfirm,
		Prompt:  "Continue with this voice?",
		Default: "y",
		Options: []string{"y", "n"},
	})
	if err != nil {
		return err
	}
	if !prompt.IsYes(answer) {
		return tts.NewTTSError(tts.ErrorCodeCanceled, "narration declined", ErrDeclined)
	}
	return nil
}

func (r *run) selectOutput(ctx context.Context) (tts.OutputFormat, int, string, error) {
	r.enter(StateSelectOutput)

	answer, err := r.ask(ctx, prompt.Question{
		Key:     prompt.KeyFormat,
		Prompt:  "Output format",
		Default: string(tts.FormatWAV),
		Options: []string{string(tts.FormatWAV), string(tts.FormatMP3)},
	})
	if err != nil {
		return "", 0, "", err
	}
	format, err := tts.ParseFormat(answer)
	if err != nil {
		return "", 0, "", tts.NewTTSError(tts.ErrorCodeInvalidChoice, "output format must be wav or mp3",
			fmt.Errorf("%w: %w", ErrInvalidChoice, err))
	}

	answer, err = r.ask(ctx, prompt.Question{
		Key:     prompt.KeySpeed,
		Prompt:  "Speed",
		Default: "normal",
		Options: []string{"slow", "normal", "fast"},
	})
	if err != nil {
		return "", 0, "", err
	}
	rate, err := tts.ParseSpeed(answer)
	if err != nil {
		r.logger.Warn("Unknown speed, using normal", "answer", answer, "error", err)
		r.warn(fmt.Sprintf("Unknown speed %q, using normal", answer))
		rate = tts.RateNormal
	}

	answer, err = r.ask(ctx, prompt.Question{
		Key:     prompt.KeyOutput,
		Prompt:  "Output file",
		Default: format.WithExtension(r.cfg.OutputName),
	})
	if err != nil {
		return "", 0, "", err
	}
	if answer == "" {
		answer = r.cfg.OutputName
	}
	path, err := homedir.Expand(answer)
	if err != nil {
		return "", 0, "", tts.NewTTSError(tts.ErrorCodeInvalidChoice, "invalid output path", err)
	}
	return format, rate, format.WithExtension(path), nil
}

func (r *run) synthesize(ctx context.Context, sess tts.Session, req tts.SynthesisRequest) error {
	r.enter(StateSynthesize)

	_, statErr := os.Stat(req.Path)
	existed := statErr == nil

	sctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.deps.Dispatcher.Synthesize(sctx, sess, req); err != nil {
		// Backends replace the target atomically; this catches one that
		// wrote it in place.
		if !existed {
			os.Remove(req.Path)
		}
		return err
	}

	r.record("audio", req.Path)
	return nil
}

func (r *run) persist(ctx context.Context, text, audioPath string) {
	answer, err := r.ask(ctx, prompt.Question{
		Key:     prompt.KeyPersist,
		Prompt:  "Save the narrated text?",
		Default: "n",
		Options: []string{"y", "n"},
	})
	if err != nil {
		r.persistFailed(err, "")
		return
	}
	if !prompt.IsYes(answer) {
		return
	}

	r.enter(StatePersistText)

	def := strings.TrimSuffix(audioPath, filepath.Ext(audioPath)) + ".txt"
	path, err := r.ask(ctx, prompt.Question{
		Key:     prompt.KeyPersistPath,
		Prompt:  "Text file (.txt, .md or .docx)",
		Default: def,
	})
	if err != nil {
		r.persistFailed(err, "")
		return
	}
	if path == "" {
		path = def
	}

	if err := r.deps.Persister.Write(text, path); err != nil {
		r.persistFailed(err, path)
		return
	}
	r.record("text", path)
}

func (r *run) persistFailed(err error, path string) {
	perr := tts.NewTTSError(tts.ErrorCodePersistence, "could not save text", err)
	if path != "" {
		perr = perr.WithContext("path", path)
	}
	r.logger.Warn("Text not saved", "error", perr)
	r.res.Failures = append(r.res.Failures, perr)
	r.deps.Display.Warn("Text not saved: " + err.Error())
}

func (r *run) record(kind, path string) {
	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}
	r.res.Written = append(r.res.Written, Artifact{Kind: kind, Path: path, Size: size})
}

func (r *run) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, r.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

// applyOverrides returns the rate and volume a persona forces, or the
// requested ones.
func applyOverrides(effect persona.Effect, rate int, volume float64) (int, float64) {
	if effect.OverridesRate() {
		rate = effect.Rate
	}
	if effect.OverridesVolume() {
		volume = effect.Volume
	}
	return rate, volume
}
