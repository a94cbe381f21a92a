package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# Offline (WAV) and cloud (MP3) speech settings
tts:
  # Offline engine: espeak or piper
  engine: "espeak"
  # Cloud client: gtts (gtts-cli) or native (built-in)
  cloud: "gtts"
  # Cloud language code
  language: "en"
  # Characters per offline engine call
  chunk_size: 1000
  # Words spoken by a preview
  preview_words: 30
  # Bound preview and synthesis, 0s disables it
  timeout: "0s"

  espeak:
    binary: "espeak-ng"

  piper:
    binary: "piper"
    # Default model, e.g. ~/.local/share/piper/en_US-lessac-medium.onnx
    model: ""
    # Every *.onnx model in this directory is listed as a voice
    models_dir: ""

  gtts:
    binary: "gtts-cli"
    slow: false

  network:
    # Extra attempts after a failed cloud request
    retries: 2
    requests_per_minute: 30
    temp_dir: ""

  # Cloud audio cache
  cache:
    enabled: true
    # Defaults to the user cache directory
    dir: ""
    # Maximum size in MB
    max_size: 100

voices:
  # Simulated voices listed after the system voices:
  # robot, hacker, deep, female, male
  personas: ["robot", "hacker", "deep"]
  hacker_rate: 140
  # Ask again on an invalid voice number instead of using the default voice
  reprompt: true
  max_attempts: 3

output:
  # Output file name when none is given
  name: "narration"
  volume: 1.0
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the narrate config file",
	Long:    paragraph(fmt.Sprintf("\n%s the narrate config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("narrate config\nnarrate config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("narrate", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
