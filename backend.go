package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/narrate/internal/audio"
	"github.com/dgnsrekt/narrate/internal/cache"
	"github.com/dgnsrekt/narrate/internal/tts"
	"github.com/dgnsrekt/narrate/internal/tts/engines"
)

// loadTTSConfig reads the tts section of the configuration.
func loadTTSConfig() (tts.Config, error) {
	cfg := tts.DefaultConfig()

	engine, err := tts.ParseEngine(engineFlag, tts.Config{Engine: tts.EngineType(viper.GetString("tts.engine"))})
	if err != nil {
		return cfg, err
	}
	cloud, err := tts.ParseCloud(cloudFlag, tts.Config{Cloud: tts.CloudType(viper.GetString("tts.cloud"))})
	if err != nil {
		return cfg, err
	}

	cfg.Engine = engine
	cfg.Cloud = cloud
	cfg.Language = viper.GetString("tts.language")
	cfg.ChunkSize = viper.GetInt("tts.chunk_size")
	cfg.PreviewWords = viper.GetInt("tts.preview_words")
	cfg.Timeout = viper.GetDuration("tts.timeout")

	cfg.Espeak.Binary = viper.GetString("tts.espeak.binary")
	cfg.Piper.Binary = viper.GetString("tts.piper.binary")
	cfg.Piper.Model = expandPath(viper.GetString("tts.piper.model"))
	cfg.Piper.ModelsDir = expandPath(viper.GetString("tts.piper.models_dir"))

	cfg.CloudOpts.Binary = viper.GetString("tts.gtts.binary")
	cfg.CloudOpts.Slow = viper.GetBool("tts.gtts.slow")
	cfg.CloudOpts.TempDir = expandPath(viper.GetString("tts.network.temp_dir"))
	cfg.CloudOpts.Retries = viper.GetInt("tts.network.retries")
	cfg.CloudOpts.RequestsPerMinute = viper.GetInt("tts.network.requests_per_minute")

	cfg.Cache.Enabled = viper.GetBool("tts.cache.enabled")
	cfg.Cache.Dir = expandPath(viper.GetString("tts.cache.dir"))
	cfg.Cache.MaxSize = viper.GetInt64("tts.cache.max_size") * 1024 * 1024

	if lang := languageFlag; lang != "" {
		cfg.Language = lang
	}
	if _, err := tts.NormalizeLanguage(cfg.Language); err != nil {
		return cfg, err
	}
	if cfg.ChunkSize <= 0 {
		return cfg, fmt.Errorf("tts.chunk_size must be positive, got %d", cfg.ChunkSize)
	}
	if cfg.Cache.Enabled && (cfg.Cache.MaxSize < 1024*1024 || cfg.Cache.MaxSize > 10000*1024*1024) {
		return cfg, fmt.Errorf("tts.cache.max_size must be between 1 and 10000 MB, got %d", viper.GetInt64("tts.cache.max_size"))
	}
	return cfg, nil
}

func expandPath(path string) string {
	if path == "" {
		return ""
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return expanded
}

// newEngine creates the configured offline engine. Availability problems
// are logged with setup guidance; the run reports them when WAV output is
// requested.
func newEngine(cfg tts.Config, player audio.Player) tts.Engine {
	if res := tts.ValidateEngine(cfg.Engine, cfg); !res.Available {
		log.Warn("Offline engine not ready", "engine", cfg.Engine, "error", res.Error, "details", res.Details)
		log.Debug(res.Guidance)
	}

	runner := engines.NewSubprocessRunner(cfg.Timeout)
	switch cfg.Engine {
	case tts.EnginePiper:
		return engines.NewPiperEngine(engines.PiperConfig{
			Binary:    cfg.Piper.Binary,
			Model:     cfg.Piper.Model,
			ModelsDir: cfg.Piper.ModelsDir,
			Runner:    runner,
			Player:    player,
		})
	default:
		return engines.NewEspeakEngine(engines.EspeakConfig{
			Binary: cfg.Espeak.Binary,
			Runner: runner,
			Player: player,
		})
	}
}

// newCloud creates the configured cloud client, paced and cached. The
// returned closer releases the cache.
func newCloud(cfg tts.Config) (tts.CloudClient, func() error) {
	var client tts.CloudClient
	switch cfg.Cloud {
	case tts.CloudNative:
		client = engines.NewNativeClient(engines.NativeConfig{TempDir: cfg.CloudOpts.TempDir})
	default:
		if res := tts.ValidateCloud(cfg.Cloud, cfg); !res.Available {
			log.Warn("Cloud client not ready", "cloud", cfg.Cloud, "error", res.Error)
			log.Debug(res.Guidance)
		}
		client = engines.NewGTTSClient(engines.GTTSConfig{
			Binary:  cfg.CloudOpts.Binary,
			Slow:    cfg.CloudOpts.Slow,
			TempDir: cfg.CloudOpts.TempDir,
			Runner:  engines.NewSubprocessRunner(cfg.Timeout),
		})
	}

	client = tts.NewPacedClient(client, cfg.CloudOpts.RequestsPerMinute, cfg.CloudOpts.Retries)

	noop := func() error { return nil }
	if !cfg.Cache.Enabled || noCache {
		return client, noop
	}

	dir := cfg.Cache.Dir
	if dir == "" {
		base, err := gap.NewScope(gap.User, "narrate").CacheDir()
		if err != nil {
			log.Warn("No cache directory, cloud cache disabled", "error", err)
			return client, noop
		}
		dir = filepath.Join(base, "audio")
	}

	store, err := cache.NewDiskCache(dir, cfg.Cache.MaxSize, cache.DefaultCompressionLevel)
	if err != nil {
		log.Warn("Could not open cloud cache, continuing without it", "dir", dir, "error", err)
		return client, noop
	}
	if n := store.Prune(30 * 24 * time.Hour); n > 0 {
		log.Debug("Pruned stale cloud audio", "entries", n)
	}
	return tts.NewCachingClient(client, store, cfg.CloudOpts.Slow), store.Close
}

// newPlayer opens preview playback. Without it previews use the engine's
// own audio output.
func newPlayer() audio.Player {
	player, err := audio.NewPlayer()
	if err != nil {
		log.Debug("Preview playback unavailable", "error", err)
		return nil
	}
	return player
}
