// Package persona implements simulated voices: text transforms applied
// before synthesis plus fixed rate, volume and carrier voice overrides.
// Personas are text-level tricks, not waveform effects.
package persona

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPersona is returned when a persona name cannot be parsed.
var ErrUnknownPersona = errors.New("unknown persona")

// Kind identifies a simulated voice.
type Kind string

const (
	// None marks a real voice.
	None Kind = ""

	// Robot repeats every word around an ellipsis.
	Robot Kind = "robot"

	// Hacker speaks leetspeak one character at a time.
	Hacker Kind = "hacker"

	// Deep stretches every word with a trailing ellipsis.
	Deep Kind = "deep"

	// Female rides on the first female voice, text unchanged.
	Female Kind = "female"

	// Male rides on the first male voice, text unchanged.
	Male Kind = "male"
)

// DefaultKinds is the persona set used when nothing is configured.
var DefaultKinds = []Kind{Robot, Hacker, Deep}

// ParseKind parses a persona name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case Robot, Hacker, Deep, Female, Male:
		return k, nil
	default:
		return None, fmt.Errorf("%w: %q", ErrUnknownPersona, s)
	}
}

// ParseKinds parses a list of persona names, dropping duplicates.
func ParseKinds(names []string) ([]Kind, error) {
	kinds := make([]Kind, 0, len(names))
	seen := make(map[Kind]bool, len(names))
	for _, name := range names {
		k, err := ParseKind(name)
		if err != nil {
			return nil, err
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// Label returns the catalog display name for the persona.
func (k Kind) Label() string {
	switch k {
	case Robot:
		return "🤖 Robot Voice (simulated)"
	case Hacker:
		return "🕶️ Hacker Voice (simulated)"
	case Deep:
		return "🎚️ Deep Voice (simulated)"
	case Female:
		return "👩 Female Voice (preset)"
	case Male:
		return "👨 Male Voice (preset)"
	default:
		return string(k)
	}
}

// Carrier describes which real voice renders a persona's text.
type Carrier int

const (
	// CarrierFirst uses the first real voice in the catalog.
	CarrierFirst Carrier = iota

	// CarrierFemale uses the first real voice reporting a female gender.
	CarrierFemale

	// CarrierMale uses the first real voice reporting a male gender.
	CarrierMale
)

// Effect is the complete behaviour of a persona.
type Effect struct {
	Kind Kind

	// Rate replaces the requested words-per-minute rate when non-zero.
	Rate int

	// Volume replaces the requested volume when non-negative.
	Volume float64

	Carrier Carrier

	transform func(string) string
}

// Apply runs the persona's text transform.
func (e Effect) Apply(text string) string {
	if e.transform == nil {
		return text
	}
	return e.transform(text)
}

// OverridesRate reports whether the persona forces a speaking rate.
func (e Effect) OverridesRate() bool {
	return e.Rate > 0
}

// OverridesVolume reports whether the persona forces a volume.
func (e Effect) OverridesVolume() bool {
	return e.Volume >= 0
}

// Options tune the configurable parts of the persona set.
type Options struct {
	// HackerRate is the rate forced by the hacker persona.
	// Earlier configurations used 120.
	HackerRate int
}

// DefaultOptions returns the default persona options.
func DefaultOptions() Options {
	return Options{HackerRate: 140}
}

// Lookup returns the effect for a persona kind. Real voices (None) get an
// identity effect that leaves rate and volume alone.
func Lookup(k Kind, opts Options) Effect {
	if opts.HackerRate <= 0 {
		opts.HackerRate = DefaultOptions().HackerRate
	}

	switch k {
	case Robot:
		return Effect{Kind: k, Rate: 120, Volume: 1.0, transform: RobotText}
	case Hacker:
		return Effect{Kind: k, Rate: opts.HackerRate, Volume: -1, transform: HackerText}
	case Deep:
		return Effect{Kind: k, Rate: 110, Volume: -1, transform: DeepText}
	case Female:
		return Effect{Kind: k, Volume: -1, Carrier: CarrierFemale}
	case Male:
		return Effect{Kind: k, Volume: -1, Carrier: CarrierMale}
	default:
		return Effect{Kind: None, Volume: -1}
	}
}
