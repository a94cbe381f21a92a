package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/termenv"

	"github.com/dgnsrekt/narrate/internal/pipeline"
	"github.com/dgnsrekt/narrate/internal/tts"
	"github.com/dgnsrekt/narrate/internal/voice"
)

// termDisplay prints run progress and the final summary.
type termDisplay struct {
	out      io.Writer
	width    int
	style    string
	progress bool
}

func newTermDisplay(out io.Writer, width int, isTerminal bool) *termDisplay {
	style := "notty"
	if isTerminal {
		style = "light"
		if termenv.HasDarkBackground() {
			style = "dark"
		}
	}
	return &termDisplay{out: out, width: width, style: style, progress: isTerminal}
}

func (d *termDisplay) Voices(entries []voice.Voice) {
	fmt.Fprintln(d.out, voiceTable(entries, d.width))
}

// voiceTable renders the catalog with columns aligned on display width.
func voiceTable(entries []voice.Voice, width int) string {
	if len(entries) == 0 {
		return faintStyle.Render("  no voices")
	}

	nameWidth := runewidth.StringWidth("Voice")
	for _, v := range entries {
		if w := runewidth.StringWidth(v.DisplayName); w > nameWidth {
			nameWidth = w
		}
	}
	if limit := width - 30; limit > 10 && nameWidth > limit {
		nameWidth = limit
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("  %3s  %s  %-10s  %s", "#", runewidth.FillRight("Voice", nameWidth), "Language", "Gender")))
	b.WriteString("\n")

	for _, v := range entries {
		name := runewidth.FillRight(runewidth.Truncate(v.DisplayName, nameWidth, "…"), nameWidth)
		line := fmt.Sprintf("  %3d  %s  %-10s  %s", v.Index, name, v.Language, v.Gender)
		if v.IsPersona() {
			line = personaStyle.Render(fmt.Sprintf("  %3d  %s  %-10s  %s", v.Index, name, "", "persona"))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (d *termDisplay) Preview(excerpt string) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(d.style),
		glamour.WithWordWrap(d.width),
	)
	if err != nil {
		log.Debug("Could not create preview renderer", "error", err)
		fmt.Fprintln(d.out, wordwrap.String(excerpt, d.width))
		return
	}

	out, err := r.Render("> " + excerpt + " …")
	if err != nil {
		fmt.Fprintln(d.out, wordwrap.String(excerpt, d.width))
		return
	}
	fmt.Fprint(d.out, faintStyle.Render("  Previewing:")+"\n"+out)
}

func (d *termDisplay) Progress(page, total int) {
	if !d.progress {
		return
	}
	fmt.Fprintf(d.out, "\r  Extracting page %d of %d", page, total)
	if page == total {
		fmt.Fprintln(d.out)
	}
}

func (d *termDisplay) Warn(msg string) {
	fmt.Fprintln(d.out, warnStyle.Render("  ! "+msg))
}

// Summary lists what the run wrote and what failed.
func (d *termDisplay) Summary(res *pipeline.Result) {
	if res == nil {
		return
	}

	fmt.Fprintln(d.out)
	for _, a := range res.Written {
		fmt.Fprintf(d.out, "  %s %s %s %s\n",
			successStyle.Render("✓"),
			a.Kind,
			keyword(a.Path),
			faintStyle.Render("("+humanize.Bytes(uint64(a.Size))+")"))
	}
	for _, err := range res.Failures {
		fmt.Fprintln(d.out, wordwrap.String(warnStyle.Render("  ✗ "+err.Error()), d.width))
	}

	if res.Err != nil {
		fmt.Fprintln(d.out, wordwrap.String(errorStyle.Render("  ✗ "+describeError(res.Err)), d.width))
		fmt.Fprintln(d.out, faintStyle.Render("  No files were written."))
		return
	}

	details := []string{string(res.Format), res.Selection.Name()}
	if res.Rate > 0 {
		details = append(details, tts.SpeedDisplay(res.Rate))
	}
	details = append(details, "took "+res.Duration.Round(10*time.Millisecond).String())
	fmt.Fprintln(d.out, faintStyle.Render("  "+strings.Join(details, " · ")))
}

// describeError turns run errors into a user facing sentence.
func describeError(err error) string {
	code, ok := tts.CodeOf(err)
	if !ok {
		return err.Error()
	}

	switch code {
	case tts.ErrorCodeInputAcquisition:
		return "Could not get any text: " + err.Error()
	case tts.ErrorCodeInvalidChoice:
		return "Invalid choice: " + err.Error()
	case tts.ErrorCodeSynthesis:
		return "Synthesis failed: " + err.Error()
	case tts.ErrorCodeCanceled:
		return "Canceled."
	case tts.ErrorCodeTimeout:
		return "Timed out: " + err.Error()
	default:
		return err.Error()
	}
}

var _ pipeline.Display = (*termDisplay)(nil)
