package tts

import (
	"time"
)

// EngineType represents the offline engine selection
type EngineType string

const (
	// EngineEspeak represents the espeak-ng offline engine
	EngineEspeak EngineType = "espeak"

	// EnginePiper represents the Piper offline engine
	EnginePiper EngineType = "piper"
)

// CloudType represents the cloud client selection
type CloudType string

const (
	// CloudGTTS drives the gtts-cli tool
	CloudGTTS CloudType = "gtts"

	// CloudNative calls the translate TTS endpoint directly
	CloudNative CloudType = "native"
)

// Config represents TTS configuration
type Config struct {
	// Engine is the selected offline engine
	Engine EngineType

	// Cloud is the selected cloud client
	Cloud CloudType

	// Language is the default cloud language code
	Language string

	// ChunkSize is the number of characters per offline engine call
	ChunkSize int

	// PreviewWords is the number of words spoken by a preview
	PreviewWords int

	// Timeout bounds a whole synthesis call, zero disables it
	Timeout time.Duration

	// Espeak contains espeak-ng configuration
	Espeak EspeakConfig

	// Piper contains Piper configuration
	Piper PiperConfig

	// CloudOpts contains cloud client configuration
	CloudOpts CloudConfig

	// Cache contains cloud audio cache configuration
	Cache CacheConfig
}

// EspeakConfig contains espeak-ng configuration
type EspeakConfig struct {
	// Binary is the executable name or path
	Binary string
}

// PiperConfig contains Piper engine configuration
type PiperConfig struct {
	// Binary is the executable name or path
	Binary string

	// Model is the default model file
	Model string

	// ModelsDir holds the *.onnx models listed as voices
	ModelsDir string
}

// CloudConfig contains cloud client configuration
type CloudConfig struct {
	// Binary is the gtts-cli executable name or path
	Binary string

	// Slow enables slower speech pace
	Slow bool

	// TempDir is the directory for temporary files
	TempDir string

	// Retries is the number of extra attempts after a failed request
	Retries int

	// RequestsPerMinute is the rate limit for requests
	RequestsPerMinute int
}

// CacheConfig contains cloud audio cache configuration
type CacheConfig struct {
	// Enabled turns the cache on
	Enabled bool

	// Dir is the directory for cached audio
	Dir string

	// MaxSize is the maximum cache size in bytes
	MaxSize int64
}

// DefaultConfig returns a configuration with every default filled in.
func DefaultConfig() Config {
	return Config{
		Engine:       EngineEspeak,
		Cloud:        CloudGTTS,
		Language:     "en",
		ChunkSize:    DefaultChunkSize,
		PreviewWords: DefaultPreviewWords,
		Espeak:       EspeakConfig{Binary: "espeak-ng"},
		Piper:        PiperConfig{Binary: "piper"},
		CloudOpts: CloudConfig{
			Binary:            "gtts-cli",
			Retries:           2,
			RequestsPerMinute: 30,
		},
		Cache: CacheConfig{
			Enabled: true,
			MaxSize: 100 * 1024 * 1024,
		},
	}
}
