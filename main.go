// Package main provides the entry point for the narrate CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/dgnsrekt/narrate/internal/document"
	"github.com/dgnsrekt/narrate/internal/persist"
	"github.com/dgnsrekt/narrate/internal/persona"
	"github.com/dgnsrekt/narrate/internal/pipeline"
	"github.com/dgnsrekt/narrate/internal/prompt"
	"github.com/dgnsrekt/narrate/internal/tts"
)

// Exit codes.
const (
	exitFailure       = 1
	exitInvalidChoice = 2
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile   string
	textFlag     string
	fileFlag     string
	clipboardArg bool
	wavFlag      string
	mp3Flag      string
	voiceFlag    string
	speedFlag    string
	volumeFlag   float64
	languageFlag string
	saveTextFlag string
	previewFlag  bool
	engineFlag   string
	cloudFlag    string
	noInput      bool
	noCache      bool

	rootCmd = &cobra.Command{
		Use:   "narrate [FILE]",
		Short: "Turn text into speech, with personas!",
		Long: paragraph(
			fmt.Sprintf("\nTurn typed text, the clipboard or a document into a %s (offline) or %s (cloud) narration, optionally spoken by a %s.",
				keyword("WAV"), keyword("MP3"), keyword("persona")),
		),
		Example: paragraph(`narrate --text "hello world" --voice robot --wav hello
narrate book.pdf --mp3 book.mp3 --lang de
narrate --clipboard --preview`),
		SilenceErrors:    true,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

// envConfig holds settings read from the process environment only.
type envConfig struct {
	Debug bool `env:"NARRATE_DEBUG"`
	NoTUI bool `env:"NARRATE_NO_TUI"`
}

func validateOptions(cmd *cobra.Command) error {
	if configFile != "" && cmd.Flags().Changed("config") {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file %s: %w", configFile, err)
		}
		log.Debug("Using configuration file", "path", configFile)
	}
	if viper.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}

	if wavFlag != "" && mp3Flag != "" {
		return usageError(errors.New("choose either --wav or --mp3"))
	}
	if cmd.Flags().Changed("volume") {
		if err := tts.ValidateVolume(volumeFlag); err != nil {
			return usageError(err)
		}
	}
	if speedFlag != "" {
		if _, err := tts.ParseSpeed(speedFlag); err != nil {
			return usageError(err)
		}
	}
	if saveTextFlag != "" {
		if !persist.Supported(saveTextFlag) {
			return usageError(fmt.Errorf("%w: %q", persist.ErrUnsupportedExtension, filepath.Ext(saveTextFlag)))
		}
	}
	return nil
}

func usageError(err error) error {
	return tts.NewTTSError(tts.ErrorCodeInvalidChoice, "invalid arguments", err)
}

func execute(cmd *cobra.Command, args []string) error {
	envCfg, err := env.ParseAs[envConfig]()
	if err != nil {
		return fmt.Errorf("error parsing environment: %w", err)
	}

	cfg, err := loadTTSConfig()
	if err != nil {
		return usageError(err)
	}

	if len(args) == 1 {
		if fileFlag != "" {
			return usageError(errors.New("give the document either as an argument or with --file"))
		}
		fileFlag = args[0]
	}

	runCfg, err := pipelineConfig(cmd, cfg)
	if err != nil {
		return usageError(err)
	}

	stdinTTY := term.IsTerminal(int(os.Stdin.Fd()))
	stdoutTTY := term.IsTerminal(int(os.Stdout.Fd()))
	display := newTermDisplay(os.Stdout, terminalWidth(stdoutTTY), stdoutTTY)

	var fallback prompt.Source
	switch {
	case noInput:
	case stdinTTY && !envCfg.NoTUI:
		fallback = prompt.NewInteractive(nil, nil)
	default:
		fallback = prompt.NewLine(os.Stdin, os.Stdout)
	}

	player := newPlayer()
	if player != nil {
		defer player.Close()
	}

	cloud, closeCache := newCloud(cfg)
	defer func() {
		if err := closeCache(); err != nil {
			log.Warn("Could not close cloud cache", "error", err)
		}
	}()

	orchestrator := pipeline.New(runCfg, pipeline.Deps{
		Engine: newEngine(cfg, player),
		Dispatcher: tts.NewDispatcher(cloud, tts.DispatcherConfig{
			ChunkSize:    cfg.ChunkSize,
			PreviewWords: cfg.PreviewWords,
			Language:     cfg.Language,
		}),
		Answers:   presetAnswers(fallback),
		Persister: persist.New(),
		Display:   display,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := orchestrator.Run(ctx)
	display.Summary(res)
	if err != nil {
		return reportedError{err}
	}
	return nil
}

// reportedError marks errors the summary has already shown.
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

func pipelineConfig(cmd *cobra.Command, cfg tts.Config) (pipeline.Config, error) {
	run := pipeline.DefaultConfig()

	kinds, err := persona.ParseKinds(viper.GetStringSlice("voices.personas"))
	if err != nil {
		return run, err
	}
	run.Personas = kinds
	run.PersonaOptions.HackerRate = viper.GetInt("voices.hacker_rate")
	run.Voice = voiceFlag
	run.Reprompt = viper.GetBool("voices.reprompt")
	run.MaxAttempts = viper.GetInt("voices.max_attempts")
	run.Volume = viper.GetFloat64("output.volume")
	run.OutputName = expandPath(viper.GetString("output.name"))
	run.Language = cfg.Language
	run.Timeout = cfg.Timeout

	if cmd.Flags().Changed("volume") {
		run.Volume = volumeFlag
	}
	if err := tts.ValidateVolume(run.Volume); err != nil {
		return run, err
	}

	if cmd.Flags().Changed("text") {
		run.Sources = append(run.Sources, document.Typed(textFlag))
	}
	if fileFlag != "" {
		run.Sources = append(run.Sources, document.File(fileFlag))
	}
	if clipboardArg {
		run.Sources = append(run.Sources, document.Clipboard())
	}
	return run, nil
}

// presetAnswers turns flags into answers; everything else is asked.
func presetAnswers(fallback prompt.Source) *prompt.Preset {
	p := prompt.NewPreset(fallback)

	switch {
	case wavFlag != "":
		p.Set(prompt.KeyFormat, string(tts.FormatWAV)).Set(prompt.KeyOutput, wavFlag)
	case mp3Flag != "":
		p.Set(prompt.KeyFormat, string(tts.FormatMP3)).Set(prompt.KeyOutput, mp3Flag)
	}
	if speedFlag != "" {
		p.Set(prompt.KeySpeed, speedFlag)
	}
	if previewFlag {
		p.Set(prompt.KeyPreview, "y")
	} else if wavFlag != "" || mp3Flag != "" {
		p.Set(prompt.KeyPreview, "n")
	}
	if saveTextFlag != "" {
		p.Set(prompt.KeyPersist, "y").Set(prompt.KeyPersistPath, saveTextFlag)
	} else if wavFlag != "" || mp3Flag != "" {
		p.Set(prompt.KeyPersist, "n")
	}
	return p
}

func terminalWidth(isTerminal bool) int {
	width := 80
	if isTerminal {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = w
		}
	}
	if width > 120 {
		width = 120
	}
	return width
}

func exitCode(err error) int {
	if code, ok := tts.CodeOf(err); ok && code == tts.ErrorCodeInvalidChoice {
		return exitInvalidChoice
	}
	return exitFailure
}

func main() {
	envCfg, _ := env.ParseAs[envConfig]()
	closer, err := setupLog(envCfg.Debug || viper.GetBool("debug"))
	if err != nil {
		fmt.Println(err)
		os.Exit(exitFailure)
	}

	if err := rootCmd.Execute(); err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintln(os.Stderr, errorStyle.Render(describeError(err)))
		}
		log.Error("Exiting", "error", err)
		_ = closer()
		os.Exit(exitCode(err))
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().StringVar(&engineFlag, "engine", "", "offline engine (espeak/piper)")
	rootCmd.PersistentFlags().Bool("debug", false, "write debug output to the log file")

	rootCmd.Flags().StringVarP(&textFlag, "text", "t", "", "text to narrate")
	rootCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "document to narrate (pdf, md, txt)")
	rootCmd.Flags().BoolVarP(&clipboardArg, "clipboard", "c", false, "narrate the clipboard contents")
	rootCmd.Flags().StringVar(&wavFlag, "wav", "", "write WAV to `PATH` with the offline engine")
	rootCmd.Flags().StringVar(&mp3Flag, "mp3", "", "write MP3 to `PATH` with the cloud service")
	rootCmd.Flags().StringVarP(&voiceFlag, "voice", "v", "", "voice number, name or persona")
	rootCmd.Flags().StringVarP(&speedFlag, "speed", "s", "", "speed: slow, normal, fast or words per minute")
	rootCmd.Flags().Float64Var(&volumeFlag, "volume", 1.0, "volume between 0.0 and 1.0")
	rootCmd.Flags().StringVarP(&languageFlag, "lang", "l", "", "cloud language code (e.g. en, de, pt-BR)")
	rootCmd.Flags().StringVar(&saveTextFlag, "save-text", "", "also save the narrated text to `PATH` (.txt, .md, .docx)")
	rootCmd.Flags().BoolVarP(&previewFlag, "preview", "p", false, "speak a short preview before writing")
	rootCmd.Flags().StringVar(&cloudFlag, "cloud", "", "cloud client (gtts/native)")
	rootCmd.Flags().BoolVarP(&noInput, "yes", "y", false, "never ask, use defaults for anything not given")
	rootCmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the cloud audio cache")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	viper.SetDefault("tts.engine", string(tts.EngineEspeak))
	viper.SetDefault("tts.cloud", string(tts.CloudGTTS))
	viper.SetDefault("tts.language", "en")
	viper.SetDefault("tts.chunk_size", tts.DefaultChunkSize)
	viper.SetDefault("tts.preview_words", tts.DefaultPreviewWords)
	viper.SetDefault("tts.timeout", "0s")
	viper.SetDefault("tts.espeak.binary", "espeak-ng")
	viper.SetDefault("tts.piper.binary", "piper")
	viper.SetDefault("tts.piper.model", "")
	viper.SetDefault("tts.piper.models_dir", "")
	viper.SetDefault("tts.gtts.binary", "gtts-cli")
	viper.SetDefault("tts.gtts.slow", false)
	viper.SetDefault("tts.network.retries", 2)
	viper.SetDefault("tts.network.requests_per_minute", 30)
	viper.SetDefault("tts.network.temp_dir", "")
	viper.SetDefault("tts.cache.enabled", true)
	viper.SetDefault("tts.cache.dir", "")
	viper.SetDefault("tts.cache.max_size", 100)

	viper.SetDefault("voices.personas", []string{"robot", "hacker", "deep"})
	viper.SetDefault("voices.hacker_rate", persona.DefaultOptions().HackerRate)
	viper.SetDefault("voices.reprompt", true)
	viper.SetDefault("voices.max_attempts", pipeline.DefaultMaxAttempts)

	viper.SetDefault("output.name", pipeline.DefaultOutputName)
	viper.SetDefault("output.volume", 1.0)

	rootCmd.AddCommand(configCmd, manCmd, voicesCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "narrate")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(exitFailure)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "narrate")}, dirs...)
	}

	if c := os.Getenv("NARRATE_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("narrate")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("narrate")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "narrate.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
