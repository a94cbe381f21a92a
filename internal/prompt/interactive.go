package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	questionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#89F0CB"}).
			Bold(true)

	optionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"})
)

// Interactive asks each question with a bubbletea text input.
type Interactive struct {
	in  io.Reader
	out io.Writer
}

// NewInteractive creates an interactive source. Nil in and out use the
// terminal.
func NewInteractive(in io.Reader, out io.Writer) *Interactive {
	return &Interactive{in: in, out: out}
}

// Ask implements Source.
func (i *Interactive) Ask(ctx context.Context, q Question) (string, error) {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if i.in != nil {
		opts = append(opts, tea.WithInput(i.in))
	}
	if i.out != nil {
		opts = append(opts, tea.WithOutput(i.out))
	}

	final, err := tea.NewProgram(newInputModel(q), opts...).Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("run prompt: %w", err)
	}

	m, ok := final.(inputModel)
	if !ok || m.aborted {
		return "", ErrAborted
	}
	return m.answer(), nil
}

type inputModel struct {
	question Question
	input    textinput.Model
	done     bool
	aborted  bool
}

func newInputModel(q Question) inputModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = q.Default
	ti.CharLimit = 4096
	ti.Width = 60
	if len(q.Options) > 0 {
		ti.SetSuggestions(q.Options)
		ti.ShowSuggestions = true
	}
	ti.Focus()

	return inputModel{question: q, input: ti}
}

func (m inputModel) answer() string {
	if v := strings.TrimSpace(m.input.Value()); v != "" {
		return v
	}
	return m.question.Default
}

func (m inputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.aborted = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m inputModel) View() string {
	var b strings.Builder
	b.WriteString(questionStyle.Render(m.question.Prompt))
	if len(m.question.Options) > 0 {
		b.WriteString(" " + optionStyle.Render(strings.Join(m.question.Options, " / ")))
	}
	b.WriteString("\n")

	if m.done || m.aborted {
		b.WriteString("> " + m.answer() + "\n")
		return b.String()
	}
	b.WriteString(m.input.View() + "\n")
	return b.String()
}

var _ Source = (*Interactive)(nil)
