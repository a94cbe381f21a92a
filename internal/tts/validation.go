package tts

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ValidationResult contains the result of backend validation
type ValidationResult struct {
	// Backend is the validated engine or cloud client name
	Backend string

	// Available indicates if the backend is available and configured
	Available bool

	// Error contains any validation error
	Error error

	// Guidance provides setup instructions if validation failed
	Guidance string

	// Details contains additional validation information
	Details map[string]string
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// ParseEngine validates an offline engine name. The CLI argument takes
// precedence over the configured engine, and espeak-ng is the default.
func ParseEngine(cliArg string, config Config) (EngineType, error) {
	name := cliArg
	if name == "" {
		name = string(config.Engine)
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "espeak", "espeak-ng":
		return EngineEspeak, nil
	case "piper":
		return EnginePiper, nil
	default:
		return "", fmt.Errorf("%w: %s\n\nSupported engines:\n  - espeak (espeak-ng, offline)\n  - piper (Piper neural TTS, offline)", ErrInvalidEngine, name)
	}
}

// ParseCloud validates a cloud client name. gtts is the default.
func ParseCloud(cliArg string, config Config) (CloudType, error) {
	name := cliArg
	if name == "" {
		name = string(config.Cloud)
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "gtts", "google":
		return CloudGTTS, nil
	case "native":
		return CloudNative, nil
	default:
		return "", fmt.Errorf("%w: %s\n\nSupported cloud clients:\n  - gtts (gtts-cli)\n  - native (built-in HTTP client)", ErrInvalidCloud, name)
	}
}

// ValidateEngine checks that the offline engine can be started.
func ValidateEngine(engine EngineType, config Config) *ValidationResult {
	result := &ValidationResult{
		Backend: string(engine),
		Details: make(map[string]string),
	}

	switch engine {
	case EngineEspeak:
		return validateEspeak(config.Espeak, result)
	case EnginePiper:
		return validatePiper(config.Piper, result)
	default:
		result.Error = fmt.Errorf("%w: %s", ErrInvalidEngine, engine)
		result.Guidance = "Supported engines: espeak, piper"
		return result
	}
}

// ValidateCloud checks that the cloud client can be used.
func ValidateCloud(cloud CloudType, config Config) *ValidationResult {
	result := &ValidationResult{
		Backend: string(cloud),
		Details: make(map[string]string),
	}

	switch cloud {
	case CloudGTTS:
		return validateGTTS(config.CloudOpts, result)
	case CloudNative:
		result.Details["client"] = "Built-in (requires network)"
		result.Available = true
		return result
	default:
		result.Error = fmt.Errorf("%w: %s", ErrInvalidCloud, cloud)
		result.Guidance = "Supported cloud clients: gtts, native"
		return result
	}
}

func validateEspeak(config EspeakConfig, result *ValidationResult) *ValidationResult {
	result.Details["engine"] = "espeak-ng (Offline TTS)"

	binary := config.Binary
	if binary == "" {
		binary = "espeak-ng"
	}

	path, err := lookPath(binary)
	if err != nil {
		result.Error = fmt.Errorf("%w: espeak-ng not found in PATH: %w", ErrEngineNotAvailable, err)
		result.Guidance = buildEspeakInstallGuidance()
		return result
	}
	result.Details["binary_path"] = path

	result.Available = true
	return result
}

func validatePiper(config PiperConfig, result *ValidationResult) *ValidationResult {
	result.Details["engine"] = "Piper (Offline TTS)"

	binary := config.Binary
	if binary == "" {
		binary = "piper"
	}

	path, err := lookPath(binary)
	if err != nil {
		result.Error = fmt.Errorf("%w: Piper not found in PATH: %w", ErrEngineNotAvailable, err)
		result.Guidance = buildPiperInstallGuidance()
		return result
	}
	result.Details["binary_path"] = path

	if config.Model == "" && config.ModelsDir == "" {
		result.Error = fmt.Errorf("%w: no Piper model configured", ErrEngineNotAvailable)
		result.Guidance = buildPiperModelGuidance()
		return result
	}

	if config.Model != "" {
		if _, err := os.Stat(config.Model); err != nil {
			result.Error = fmt.Errorf("%w: model file not accessible: %w", ErrEngineNotAvailable, err)
			result.Guidance = buildPiperModelGuidance()
			return result
		}
		result.Details["model_path"] = config.Model

		configPath := config.Model + ".json"
		if _, err := os.Stat(configPath); err == nil {
			result.Details["config_path"] = configPath + " (auto-detected)"
		}
	}

	if config.ModelsDir != "" {
		models, _ := filepath.Glob(filepath.Join(config.ModelsDir, "*.onnx"))
		result.Details["models_dir"] = config.ModelsDir
		result.Details["models"] = fmt.Sprint(len(models))
	}

	result.Available = true
	return result
}

func validateGTTS(config CloudConfig, result *ValidationResult) *ValidationResult {
	result.Details["client"] = "Google TTS (gTTS - Free)"

	binary := config.Binary
	if binary == "" {
		binary = "gtts-cli"
	}

	path, err := lookPath(binary)
	if err != nil {
		result.Error = fmt.Errorf("gTTS not found in PATH: %w", err)
		result.Guidance = buildGTTSInstallGuidance()
		return result
	}
	result.Details["gtts_path"] = path

	if config.Slow {
		result.Details["speed"] = "slow"
	} else {
		result.Details["speed"] = "normal"
	}

	if config.TempDir != "" {
		if _, err := os.Stat(config.TempDir); err != nil {
			result.Error = fmt.Errorf("temp directory not accessible: %w", err)
			result.Guidance = "Check temp directory path and permissions"
			return result
		}
		result.Details["temp_dir"] = config.TempDir
	}

	result.Available = true
	return result
}

func buildEspeakInstallGuidance() string {
	return `espeak-ng is not installed. To install:

   # Ubuntu/Debian
   sudo apt install espeak-ng

   # Arch Linux
   sudo pacman -S espeak-ng

   # macOS (Homebrew)
   brew install espeak-ng

Or choose another engine with --engine piper.`
}

// buildPiperInstallGuidance provides instructions for installing Piper
func buildPiperInstallGuidance() string {
	return `Piper TTS is not installed. To install:

1. Download Piper binary from: https://github.com/rhasspy/piper/releases
2. Extract and add to PATH:

   wget https://github.com/rhasspy/piper/releases/latest/download/piper_linux_x86_64.tar.gz
   tar -xzf piper_linux_x86_64.tar.gz
   sudo cp piper/piper /usr/local/bin/

3. Download a voice model from: https://github.com/rhasspy/piper/blob/master/VOICES.md
4. Configure the model in ~/.config/narrate/narrate.yml`
}

// buildPiperModelGuidance provides instructions for configuring Piper models
func buildPiperModelGuidance() string {
	return `Piper model not configured. To configure:

1. Download a voice model from: https://github.com/rhasspy/piper/blob/master/VOICES.md

   mkdir -p ~/.local/share/piper/models
   cd ~/.local/share/piper/models
   wget https://huggingface.co/rhasspy/piper-voices/resolve/v1.0.0/en/en_US/amy/medium/en_US-amy-medium.onnx
   wget https://huggingface.co/rhasspy/piper-voices/resolve/v1.0.0/en/en_US/amy/medium/en_US-amy-medium.onnx.json

2. Point narrate at it in ~/.config/narrate/narrate.yml:
   tts:
     piper:
       models_dir: ~/.local/share/piper/models`
}

// buildGTTSInstallGuidance provides instructions for installing gTTS
func buildGTTSInstallGuidance() string {
	return `gTTS (Google Text-to-Speech) is not installed. To install:

   pip install gtts
   # or
   pipx install gtts

No API key is required. Or use the built-in client with --cloud native.`
}
