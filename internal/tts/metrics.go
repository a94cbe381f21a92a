package tts

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// Metrics tracks a single synthesis call.
type Metrics struct {
	Backend           string
	Format            OutputFormat
	TextLength        int
	Chunks            int
	SynthesisStart    time.Time
	SynthesisDuration time.Duration
	CacheHit          bool
	Err               error
}

// StartSynthesis starts tracking synthesis metrics
func StartSynthesis(backend string, format OutputFormat, text string) *Metrics {
	m := &Metrics{
		Backend:        backend,
		Format:         format,
		TextLength:     len(text),
		SynthesisStart: time.Now(),
	}

	log.Debug("Synthesis started",
		"backend", backend,
		"format", format,
		"textLength", m.TextLength)

	return m
}

// EndSynthesis completes tracking synthesis metrics
func (m *Metrics) EndSynthesis(err error) {
	m.SynthesisDuration = time.Since(m.SynthesisStart)
	m.Err = err

	if err != nil {
		log.Error("Synthesis failed",
			"backend", m.Backend,
			"duration", m.SynthesisDuration,
			"error", err)
		return
	}

	log.Info("Synthesis completed",
		"backend", m.Backend,
		"format", m.Format,
		"textLength", m.TextLength,
		"chunks", m.Chunks,
		"cacheHit", m.CacheHit,
		"duration", m.SynthesisDuration,
		"charsPerSecond", charsPerSecond(m.TextLength, m.SynthesisDuration))
}

// charsPerSecond calculates synthesis throughput
func charsPerSecond(chars int, duration time.Duration) string {
	if duration == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", float64(chars)/duration.Seconds())
}
