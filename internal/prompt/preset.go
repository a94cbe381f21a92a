package prompt

import (
	"context"
	"sync"
)

// Preset answers from values supplied up front, such as command line
// flags. Each key holds a queue of answers; once a queue is empty the
// fallback is asked. Without a fallback the question's default is used.
type Preset struct {
	mu       sync.Mutex
	answers  map[Key][]string
	fallback Source
}

// NewPreset creates a preset source. fallback may be nil.
func NewPreset(fallback Source) *Preset {
	return &Preset{answers: make(map[Key][]string), fallback: fallback}
}

// Set queues answers for key.
func (p *Preset) Set(key Key, answers ...string) *Preset {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.answers[key] = append(p.answers[key], answers...)
	return p
}

// Has reports whether an answer is queued for key.
func (p *Preset) Has(key Key) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.answers[key]) > 0
}

// Ask implements Source.
func (p *Preset) Ask(ctx context.Context, q Question) (string, error) {
	p.mu.Lock()
	if queue := p.answers[q.Key]; len(queue) > 0 {
		p.answers[q.Key] = queue[1:]
		p.mu.Unlock()
		return queue[0], nil
	}
	p.mu.Unlock()

	if p.fallback != nil {
		return p.fallback.Ask(ctx, q)
	}
	if q.Default != "" {
		return q.Default, nil
	}
	return "", ErrNoAnswer
}

var _ Source = (*Preset)(nil)
