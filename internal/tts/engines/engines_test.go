package engines

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dgnsrekt/narrate/internal/audio"
	"github.com/dgnsrekt/narrate/internal/tts"
)

// call is one recorded Runner invocation.
type call struct {
	stdin string
	name  string
	args  []string
}

// fakeRunner answers commands through a handler and records them.
type fakeRunner struct {
	mu      sync.Mutex
	calls   []call
	handler func(c call) ([]byte, error)
}

func (r *fakeRunner) Run(_ context.Context, stdin string, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	c := call{stdin: stdin, name: name, args: args}
	r.calls = append(r.calls, c)
	r.mu.Unlock()

	if r.handler == nil {
		return nil, nil
	}
	return r.handler(c)
}

func (r *fakeRunner) find(flag string) []call {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []call
	for _, c := range r.calls {
		for _, a := range c.args {
			if a == flag {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func argValue(args []string, flag string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

// pcmFor returns one sample per input byte so output length tracks input.
func pcmFor(text string) []byte {
	pcm := make([]byte, 2*len(text))
	for i := range text {
		binary.LittleEndian.PutUint16(pcm[2*i:], uint16(text[i]))
	}
	return pcm
}

const espeakVoices = `Pty Language       Age/Gender VoiceName          File                 Other Languages
 5  af              --/M      Afrikaans          gmw/af
 5  en-us           --/M      English_(America)  gmw/en-US            (en 10)
 5  en-gb-x-rp      --/F      English_(Received_Pronunciation) gmw/en-GB-x-rp
 5  en-us           --/M      English_(America)  gmw/en-US
`

func newEspeakRunner() *fakeRunner {
	return &fakeRunner{handler: func(c call) ([]byte, error) {
		switch {
		case len(c.args) == 1 && c.args[0] == "--voices":
			return []byte(espeakVoices), nil
		case len(c.args) == 1 && c.args[0] == "--version":
			return []byte("eSpeak NG text-to-speech: 1.51"), nil
		case argValue(c.args, "-v") == "broken":
			return nil, errors.New("exit status 1")
		}
		for _, a := range c.args {
			if a == "--stdout" {
				return audio.EncodeWAV(audio.DefaultFormat, pcmFor(c.stdin)), nil
			}
		}
		return nil, nil
	}}
}

func TestParseEspeakVoices(t *testing.T) {
	voices := parseEspeakVoices([]byte(espeakVoices))
	if len(voices) != 3 {
		t.Fatalf("expected 3 unique voices, got %d", len(voices))
	}

	tests := []struct {
		idx    int
		id     string
		name   string
		gender string
	}{
		{0, "af", "Afrikaans", "male"},
		{1, "en-us", "English (America)", "male"},
		{2, "en-gb-x-rp", "English (Received Pronunciation)", "female"},
	}
	for _, tt := range tests {
		v := voices[tt.idx]
		if v.BackendID != tt.id || v.DisplayName != tt.name || v.Language != tt.id {
			t.Errorf("voice %d = %+v", tt.idx, v)
		}
		if v.Gender.String() != tt.gender {
			t.Errorf("voice %d gender = %s, want %s", tt.idx, v.Gender, tt.gender)
		}
	}
}

func TestEspeakSessionAppendsChunks(t *testing.T) {
	runner := newEspeakRunner()
	engine := NewEspeakEngine(EspeakConfig{Runner: runner})

	sess, err := engine.Open(context.Background())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer sess.Close()

	if err := sess.Configure(tts.Params{Rate: 120, Volume: 0.5, VoiceID: "en-us"}); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out.wav")
	for _, chunk := range []string{"hello ", "world"} {
		if err := sess.RenderToFile(chunk, path); err != nil {
			t.Fatal(err)
		}
	}
	if err := sess.RunAndWait(context.Background()); err != nil {
		t.Fatalf("RunAndWait failed: %v", err)
	}
	if err := sess.EndLoop(); err != nil {
		t.Fatalf("EndLoop failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	_, pcm, err := audio.DecodeWAV(data)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(pcm, pcmFor("hello world")) {
		t.Error("chunks were not appended in order into one file")
	}

	synth := runner.find("--stdout")
	if len(synth) != 2 {
		t.Fatalf("expected 2 synthesis calls, got %d", len(synth))
	}
	args := synth[0].args
	if argValue(args, "-s") != "120" || argValue(args, "-a") != "50" || argValue(args, "-v") != "en-us" {
		t.Errorf("unexpected espeak args %v", args)
	}
}

func TestEspeakSessionUnknownVoice(t *testing.T) {
	engine := NewEspeakEngine(EspeakConfig{Runner: newEspeakRunner()})
	sess, err := engine.Open(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer sess.Close()

	err = sess.Configure(tts.Params{Rate: 150, Volume: 1, VoiceID: "klingon"})
	if !errors.Is(err, tts.ErrUnknownVoice) {
		t.Errorf("expected ErrUnknownVoice, got %v", err)
	}
	if err := sess.Configure(tts.Params{Rate: 10, Volume: 1}); !errors.Is(err, tts.ErrInvalidSpeed) {
		t.Errorf("expected ErrInvalidSpeed, got %v", err)
	}
}

func TestEspeakOpenUnavailable(t *testing.T) {
	runner := &fakeRunner{handler: func(call) ([]byte, error) {
		return nil, exec.ErrNotFound
	}}
	_, err := NewEspeakEngine(EspeakConfig{Runner: runner}).Open(context.Background())
	if !errors.Is(err, tts.ErrEngineNotAvailable) {
		t.Errorf("expected ErrEngineNotAvailable, got %v", err)
	}
}

func TestSessionLoopLifecycle(t *testing.T) {
	engine := NewEspeakEngine(EspeakConfig{Runner: newEspeakRunner()})
	sess, err := engine.Open(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if err := sess.RunAndWait(ctx); err != nil {
		t.Fatal(err)
	}
	if err := sess.RunAndWait(ctx); !errors.Is(err, tts.ErrLoopAlreadyRunning) {
		t.Errorf("expected ErrLoopAlreadyRunning, got %v", err)
	}
	if err := sess.EndLoop(); err != nil {
		t.Fatal(err)
	}
	if err := sess.EndLoop(); err != nil {
		t.Errorf("EndLoop is not idempotent: %v", err)
	}
	if err := sess.RunAndWait(ctx); err != nil {
		t.Errorf("RunAndWait after EndLoop: %v", err)
	}

	if err := sess.Close(); err != nil {
		t.Fatal(err)
	}
	if err := sess.RenderToFile("x", "y.wav"); !errors.Is(err, tts.ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
}

func TestSessionRenderFailure(t *testing.T) {
	engine := NewEspeakEngine(EspeakConfig{Runner: newEspeakRunner()})
	sess, err := engine.Open(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer sess.Close()

	s := sess.(*session)
	s.params.VoiceID = "broken"
	if err := sess.RenderToFile("hello", filepath.Join(t.TempDir(), "out.wav")); err != nil {
		t.Fatal(err)
	}
	if err := sess.RunAndWait(context.Background()); err == nil {
		t.Error("expected synthesis failure")
	}
}

func TestEspeakSpeak(t *testing.T) {
	t.Run("through player", func(t *testing.T) {
		runner := newEspeakRunner()
		player := audio.NewMockPlayer()
		engine := NewEspeakEngine(EspeakConfig{Runner: runner, Player: player})

		sess, err := engine.Open(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		defer sess.Close()

		if err := sess.Speak("preview"); err != nil {
			t.Fatal(err)
		}
		if err := sess.RunAndWait(context.Background()); err != nil {
			t.Fatal(err)
		}

		plays := player.Plays()
		if len(plays) != 1 || !bytes.Equal(plays[0].PCM, pcmFor("preview")) {
			t.Errorf("unexpected playbacks %+v", plays)
		}
	})

	t.Run("engine output fallback", func(t *testing.T) {
		runner := newEspeakRunner()
		player := audio.NewMockPlayer()
		player.Err = fmt.Errorf("%w: no device", audio.ErrPlaybackUnavailable)
		engine := NewEspeakEngine(EspeakConfig{Runner: runner, Player: player})

		sess, err := engine.Open(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		defer sess.Close()

		if err := sess.Speak("preview"); err != nil {
			t.Fatal(err)
		}
		if err := sess.RunAndWait(context.Background()); err != nil {
			t.Fatal(err)
		}

		var direct int
		for _, c := range runner.find("--stdin") {
			if argValue(c.args, "-s") != "" && !strings.Contains(strings.Join(c.args, " "), "--stdout") {
				direct++
			}
		}
		if direct != 1 {
			t.Errorf("expected one direct espeak call, got %d", direct)
		}
	})
}

func writePiperModel(t *testing.T, dir, name, config string) string {
	t.Helper()
	model := filepath.Join(dir, name+".onnx")
	if err := os.WriteFile(model, []byte("onnx"), 0o644); err != nil {
		t.Fatal(err)
	}
	if config != "" {
		if err := os.WriteFile(model+".json", []byte(config), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return model
}

func TestPiperVoices(t *testing.T) {
	dir := t.TempDir()
	writePiperModel(t, dir, "en_US-amy-medium", `{"audio":{"sample_rate":22050},"language":{"code":"en_US"}}`)
	writePiperModel(t, dir, "de_DE-thorsten-low", `{"espeak":{"voice":"de"}}`)
	writePiperModel(t, dir, "bare", "")

	engine := NewPiperEngine(PiperConfig{ModelsDir: dir, Runner: &fakeRunner{}})
	voices, err := engine.voices(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(voices) != 3 {
		t.Fatalf("expected 3 voices, got %d", len(voices))
	}

	got := map[string]string{}
	for _, v := range voices {
		got[v.DisplayName] = v.Language
		if !engine.hasVoice(context.Background(), v.BackendID) {
			t.Errorf("hasVoice(%s) = false", v.BackendID)
		}
	}
	if got["en_US-amy-medium"] != "en_US" || got["de_DE-thorsten-low"] != "de" || got["bare"] != "" {
		t.Errorf("unexpected languages %v", got)
	}
	if engine.hasVoice(context.Background(), "en-us") {
		t.Error("espeak ids are not Piper voices")
	}
}

func TestPiperRender(t *testing.T) {
	dir := t.TempDir()
	model := writePiperModel(t, dir, "voice", `{"audio":{"sample_rate":16000}}`)

	runner := &fakeRunner{handler: func(c call) ([]byte, error) {
		if argValue(c.args, "--model") != "" {
			pcm := make([]byte, 4)
			binary.LittleEndian.PutUint16(pcm, uint16(1000))
			binary.LittleEndian.PutUint16(pcm[2:], uint16(0xFC18)) // -1000
			return pcm, nil
		}
		return nil, nil
	}}
	engine := NewPiperEngine(PiperConfig{Model: model, Runner: runner})

	format, pcm, err := engine.render(context.Background(), "hi", tts.Params{Rate: tts.RateFast, Volume: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	if format.SampleRate != 16000 {
		t.Errorf("sample rate = %d, want 16000", format.SampleRate)
	}
	if got := int16(binary.LittleEndian.Uint16(pcm)); got != 500 {
		t.Errorf("gain not applied, sample = %d", got)
	}

	c := runner.find("--model")[0]
	if argValue(c.args, "--length-scale") != "0.75" {
		t.Errorf("length scale = %s", argValue(c.args, "--length-scale"))
	}
	if argValue(c.args, "--config") != model+".json" {
		t.Errorf("config = %s", argValue(c.args, "--config"))
	}
	if c.stdin != "hi" {
		t.Errorf("stdin = %q", c.stdin)
	}
}

func TestPiperOpen(t *testing.T) {
	if _, err := NewPiperEngine(PiperConfig{Runner: &fakeRunner{}}).Open(context.Background()); !errors.Is(err, tts.ErrEngineNotAvailable) {
		t.Errorf("expected ErrEngineNotAvailable without a model, got %v", err)
	}

	model := writePiperModel(t, t.TempDir(), "voice", "")
	sess, err := NewPiperEngine(PiperConfig{Model: model, Runner: &fakeRunner{}}).Open(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer sess.Close()

	if err := sess.Speak("hi"); err != nil {
		t.Fatal(err)
	}
	if err := sess.RunAndWait(context.Background()); !errors.Is(err, audio.ErrPlaybackUnavailable) {
		t.Errorf("expected ErrPlaybackUnavailable without a player, got %v", err)
	}
}

func TestGTTSClient(t *testing.T) {
	runner := &fakeRunner{handler: func(c call) ([]byte, error) {
		out := argValue(c.args, "--output")
		return nil, os.WriteFile(out, []byte("ID3"+c.stdin), 0o644)
	}}
	client := NewGTTSClient(GTTSConfig{Slow: true, Runner: runner})

	dir := t.TempDir()
	path := filepath.Join(dir, "out.mp3")
	if err := client.SynthesizeToFile(context.Background(), "hello", "fr", path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "ID3hello" {
		t.Errorf("unexpected output %q", data)
	}

	c := runner.calls[0]
	if c.name != "gtts-cli" || argValue(c.args, "--lang") != "fr" || c.args[len(c.args)-1] != "--slow" {
		t.Errorf("unexpected call %+v", c)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestGTTSClientFailureLeavesNoFile(t *testing.T) {
	runner := &fakeRunner{handler: func(c call) ([]byte, error) {
		out := argValue(c.args, "--output")
		os.WriteFile(out, []byte("partial"), 0o644)
		return nil, errors.New("429 Too Many Requests")
	}}
	client := NewGTTSClient(GTTSConfig{Runner: runner})

	dir := t.TempDir()
	path := filepath.Join(dir, "out.mp3")
	if err := client.SynthesizeToFile(context.Background(), "hello", "en", path); err == nil {
		t.Fatal("expected error")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected no files, found %v", entries)
	}
}

func TestNativeClient(t *testing.T) {
	var segments []string
	client := NewNativeClient(NativeConfig{TempDir: t.TempDir()})
	client.speech = func(folder, lang, text, name string) (string, error) {
		if lang != "pt-br" {
			t.Errorf("lang = %q", lang)
		}
		segments = append(segments, text)
		file := filepath.Join(folder, name+".mp3")
		return file, os.WriteFile(file, []byte("["+text+"]"), 0o644)
	}

	text := strings.Repeat("palavra ", 60)
	path := filepath.Join(t.TempDir(), "out.mp3")
	if err := client.SynthesizeToFile(context.Background(), text, "pt-BR", path); err != nil {
		t.Fatal(err)
	}

	if len(segments) < 2 {
		t.Fatalf("expected the text to be split, got %d segments", len(segments))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var want strings.Builder
	for _, s := range segments {
		want.WriteString("[" + s + "]")
	}
	if string(data) != want.String() {
		t.Error("segments were not concatenated in order")
	}
}

func TestNativeClientFailure(t *testing.T) {
	client := NewNativeClient(NativeConfig{TempDir: t.TempDir()})
	client.speech = func(string, string, string, string) (string, error) {
		return "", errors.New("dial tcp: no route to host")
	}

	path := filepath.Join(t.TempDir(), "out.mp3")
	if err := client.SynthesizeToFile(context.Background(), "hello", "en", path); err == nil {
		t.Fatal("expected error")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("no file may be written on failure")
	}
}

func TestSplitSegments(t *testing.T) {
	tests := []struct {
		name string
		text string
		size int
		want []string
	}{
		{name: "empty", text: "  ", size: 10, want: nil},
		{name: "packs words", text: "aa bb cc dd", size: 5, want: []string{"aa bb", "cc dd"}},
		{name: "long word", text: "abcdefgh ij", size: 3, want: []string{"abc", "def", "gh", "ij"}},
		{name: "multibyte cut", text: "ééé", size: 3, want: []string{"é", "é", "é"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitSegments(tt.text, tt.size)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("splitSegments() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSubprocessRunner(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}

	runner := NewSubprocessRunner(0)
	out, err := runner.Run(context.Background(), "piped text", "cat")
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "piped text" {
		t.Errorf("stdout = %q", out)
	}

	if _, err := runner.Run(context.Background(), "", "narrate-no-such-binary"); err == nil {
		t.Error("expected error for a missing binary")
	}
}

func TestFailedSynthesisKeepsExistingFile(t *testing.T) {
	var renders int
	var mu sync.Mutex
	espeak := newEspeakRunner()
	runner := &fakeRunner{handler: func(c call) ([]byte, error) {
		for _, a := range c.args {
			if a != "--stdout" {
				continue
			}
			mu.Lock()
			renders++
			n := renders
			mu.Unlock()
			if n == 2 {
				return nil, errors.New("espeak crashed")
			}
		}
		return espeak.handler(c)
	}}

	sess, err := NewEspeakEngine(EspeakConfig{Runner: runner}).Open(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer sess.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "narration.wav")
	if err := os.WriteFile(path, []byte("existing narration"), 0o644); err != nil {
		t.Fatal(err)
	}

	d := tts.NewDispatcher(nil, tts.DispatcherConfig{ChunkSize: 5})
	err = d.Synthesize(context.Background(), sess, tts.SynthesisRequest{
		Text:   "one two three four",
		Rate:   tts.RateNormal,
		Volume: 1,
		Format: tts.FormatWAV,
		Path:   path,
	})
	if code, _ := tts.CodeOf(err); code != tts.ErrorCodeSynthesis {
		t.Fatalf("expected SYNTHESIS error, got %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "existing narration" {
		t.Errorf("existing file was replaced by %d bytes", len(data))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the existing file, found %d entries", len(entries))
	}
}

func TestSynthesisReplacesExistingFile(t *testing.T) {
	sess, err := NewEspeakEngine(EspeakConfig{Runner: newEspeakRunner()}).Open(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer sess.Close()

	path := filepath.Join(t.TempDir(), "narration.wav")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	d := tts.NewDispatcher(nil, tts.DispatcherConfig{ChunkSize: 5})
	err = d.Synthesize(context.Background(), sess, tts.SynthesisRequest{
		Text:   "one two three",
		Rate:   tts.RateNormal,
		Volume: 1,
		Format: tts.FormatWAV,
		Path:   path,
	})
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	_, pcm, err := audio.DecodeWAV(data)
	if err != nil {
		t.Fatalf("output is not a WAV: %v", err)
	}
	if len(pcm) == 0 {
		t.Error("output has no audio")
	}
}
