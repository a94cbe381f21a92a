package engines

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgnsrekt/narrate/internal/tts"
)

// GTTSClient synthesizes MP3 through gtts-cli (Google Translate TTS).
// It provides free TTS without requiring an API key.
type GTTSClient struct {
	binary  string
	slow    bool
	tempDir string
	runner  Runner
}

// GTTSConfig holds configuration for the gtts-cli client.
type GTTSConfig struct {
	// Binary is the executable, defaults to "gtts-cli"
	Binary string

	// Slow speech (--slow flag)
	Slow bool

	// TempDir for partial files, defaults to the output directory
	TempDir string

	// Runner executes the binary, defaults to a SubprocessRunner
	Runner Runner
}

// NewGTTSClient creates a new gtts-cli client.
func NewGTTSClient(config GTTSConfig) *GTTSClient {
	if config.Binary == "" {
		config.Binary = "gtts-cli"
	}
	if config.Runner == nil {
		config.Runner = NewSubprocessRunner(0)
	}

	return &GTTSClient{
		binary:  config.Binary,
		slow:    config.Slow,
		tempDir: config.TempDir,
		runner:  config.Runner,
	}
}

// Name returns the client name.
func (c *GTTSClient) Name() string { return string(tts.CloudGTTS) }

// SynthesizeToFile runs gtts-cli with text on stdin. The MP3 is written to
// a temporary file and renamed into path on success.
func (c *GTTSClient) SynthesizeToFile(ctx context.Context, text, lang, path string) error {
	dir := c.tempDir
	if dir == "" {
		dir = filepath.Dir(path)
	}

	tmp, err := os.CreateTemp(dir, ".narrate-gtts-*.mp3")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	args := []string{"-", "--lang", lang, "--output", tmpPath}
	if c.slow {
		args = append(args, "--slow")
	}

	if _, err := c.runner.Run(ctx, text, c.binary, args...); err != nil {
		return fmt.Errorf("gtts-cli: %w", err)
	}

	info, err := os.Stat(tmpPath)
	if err != nil || info.Size() == 0 {
		return fmt.Errorf("gtts-cli produced no MP3 output")
	}

	return moveFile(tmpPath, path)
}

// moveFile renames src to dst, copying when they are on different devices.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	return tts.WriteFileAtomic(dst, data)
}

var _ tts.CloudClient = (*GTTSClient)(nil)
