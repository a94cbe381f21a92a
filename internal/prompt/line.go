package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Line reads one answer per line. Used when stdin is not a terminal.
type Line struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewLine creates a line source reading from in and echoing prompts to out.
// out may be nil.
func NewLine(in io.Reader, out io.Writer) *Line {
	if out == nil {
		out = io.Discard
	}
	s := bufio.NewScanner(in)
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	return &Line{scanner: s, out: out}
}

// Ask implements Source. An empty line takes the default.
func (l *Line) Ask(ctx context.Context, q Question) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fmt.Fprint(l.out, formatPrompt(q))

	if !l.scanner.Scan() {
		fmt.Fprintln(l.out)
		if err := l.scanner.Err(); err != nil {
			return "", fmt.Errorf("read answer: %w", err)
		}
		if q.Default != "" {
			return q.Default, nil
		}
		return "", ErrNoAnswer
	}

	answer := strings.TrimSpace(l.scanner.Text())
	if answer == "" {
		return q.Default, nil
	}
	return answer, nil
}

func formatPrompt(q Question) string {
	var b strings.Builder
	b.WriteString(q.Prompt)
	if len(q.Options) > 0 {
		b.WriteString(" [" + strings.Join(q.Options, "/") + "]")
	}
	if q.Default != "" {
		b.WriteString(" (" + q.Default + ")")
	}
	b.WriteString(": ")
	return b.String()
}

var _ Source = (*Line)(nil)
