package engines

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	htgotts "github.com/hegedustibor/htgo-tts"

	"github.com/dgnsrekt/narrate/internal/tts"
)

// maxSegment is the longest text the translate endpoint accepts per request.
const maxSegment = 200

// speechFunc renders one segment into folder and returns the file path.
type speechFunc func(folder, lang, text, name string) (string, error)

// NativeClient calls the Google Translate TTS endpoint through htgo-tts,
// without any external binary.
type NativeClient struct {
	tempDir string
	speech  speechFunc
}

// NativeConfig holds configuration for the built-in client.
type NativeConfig struct {
	// TempDir for segment files, defaults to the system temp dir
	TempDir string
}

// NewNativeClient creates the built-in cloud client.
func NewNativeClient(config NativeConfig) *NativeClient {
	return &NativeClient{tempDir: config.TempDir, speech: htgoSpeech}
}

func htgoSpeech(folder, lang, text, name string) (string, error) {
	s := htgotts.Speech{Folder: folder, Language: lang}
	return s.CreateSpeechFile(text, name)
}

// Name returns the client name.
func (c *NativeClient) Name() string { return string(tts.CloudNative) }

// SynthesizeToFile splits text into segments the endpoint accepts, renders
// each and concatenates the MP3 frames into path.
func (c *NativeClient) SynthesizeToFile(ctx context.Context, text, lang, path string) error {
	work, err := os.MkdirTemp(c.tempDir, "narrate-native-")
	if err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(work)

	out, err := os.Create(filepath.Join(work, "joined.mp3"))
	if err != nil {
		return err
	}
	defer out.Close()

	// The endpoint wants bare language codes in lower case ("en", "pt-br").
	lang = strings.ToLower(lang)

	for i, segment := range splitSegments(text, maxSegment) {
		if err := ctx.Err(); err != nil {
			return err
		}

		file, err := c.speech(work, lang, segment, uuid.NewString())
		if err != nil {
			return fmt.Errorf("segment %d: %w", i+1, err)
		}
		if err := appendFile(out, file); err != nil {
			return fmt.Errorf("segment %d: %w", i+1, err)
		}
	}

	if err := out.Close(); err != nil {
		return err
	}
	info, err := os.Stat(out.Name())
	if err != nil || info.Size() == 0 {
		return fmt.Errorf("translate TTS returned no audio")
	}
	return moveFile(out.Name(), path)
}

func appendFile(dst io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(dst, f)
	return err
}

// splitSegments packs whole words into segments of at most size bytes.
// Words longer than size are cut.
func splitSegments(text string, size int) []string {
	var (
		segments []string
		current  strings.Builder
	)

	flush := func() {
		if current.Len() > 0 {
			segments = append(segments, current.String())
			current.Reset()
		}
	}

	for _, word := range strings.Fields(text) {
		for len(word) > size {
			flush()
			cut := size
			for cut > 0 && !utf8.RuneStart(word[cut]) {
				cut--
			}
			segments = append(segments, word[:cut])
			word = word[cut:]
		}

		if current.Len() > 0 && current.Len()+1+len(word) > size {
			flush()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	flush()

	return segments
}

var _ tts.CloudClient = (*NativeClient)(nil)
