// Package voice builds the voice catalog: the real voices reported by the
// offline engine followed by the configured simulated personas.
package voice

import (
	"strings"

	"github.com/dgnsrekt/narrate/internal/persona"
)

// Gender is a best-effort voice attribute reported by the engine.
type Gender int

const (
	// GenderUnknown is used whenever the engine does not report a gender.
	GenderUnknown Gender = iota
	GenderFemale
	GenderMale
)

// ParseGender maps engine gender markers ("F", "female", "M", ...) to a
// Gender.
func ParseGender(s string) Gender {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "f", "female", "woman":
		return GenderFemale
	case "m", "male", "man":
		return GenderMale
	default:
		return GenderUnknown
	}
}

// String returns the string representation of the gender.
func (g Gender) String() string {
	switch g {
	case GenderFemale:
		return "female"
	case GenderMale:
		return "male"
	default:
		return "unknown"
	}
}

// UnknownLanguage is reported when the engine has no language for a voice.
const UnknownLanguage = "unknown"

// Voice is one catalog entry.
type Voice struct {
	// Index is the stable ordinal within one enumeration.
	Index int

	// BackendID is the opaque handle understood by the offline engine.
	// Empty for persona entries.
	BackendID string

	DisplayName string
	Language    string
	Gender      Gender

	// Persona is None for real voices.
	Persona persona.Kind
}

// IsPersona reports whether the entry is a simulated voice.
func (v Voice) IsPersona() bool {
	return v.Persona != persona.None
}

// Selection is a resolved voice choice.
type Selection struct {
	// Persona is None when a real voice was chosen.
	Persona persona.Kind

	// BackendID is the real voice, or the persona's carrier voice. Empty
	// means the backend default voice.
	BackendID string

	// Entry is the catalog entry the selection came from.
	Entry Voice
}

// IsPersona reports whether the selection is a simulated voice.
func (s Selection) IsPersona() bool {
	return s.Persona != persona.None
}

// Name returns a human readable name for logs and summaries.
func (s Selection) Name() string {
	switch {
	case s.Entry.DisplayName != "":
		return s.Entry.DisplayName
	case s.BackendID != "":
		return s.BackendID
	default:
		return "default voice"
	}
}
