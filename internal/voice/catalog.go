package voice

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dgnsrekt/narrate/internal/persona"
	"github.com/sahilm/fuzzy"
)

// ErrInvalidVoice is returned for ordinals or names outside the catalog.
var ErrInvalidVoice = errors.New("invalid voice selection")

// Catalog is an ordered, read-only list of real voices followed by personas.
type Catalog struct {
	real    []Voice
	entries []Voice
}

// NewCatalog builds a catalog. Real voices are re-indexed in the order
// given; personas are appended at len(real), len(real)+1, ...
func NewCatalog(real []Voice, personas []persona.Kind) *Catalog {
	c := &Catalog{
		real:    make([]Voice, 0, len(real)),
		entries: make([]Voice, 0, len(real)+len(personas)),
	}

	for _, v := range real {
		v.Index = len(c.entries)
		v.Persona = persona.None
		if v.Language == "" {
			v.Language = UnknownLanguage
		}
		if v.DisplayName == "" {
			v.DisplayName = v.BackendID
		}
		c.real = append(c.real, v)
		c.entries = append(c.entries, v)
	}

	for _, k := range personas {
		c.entries = append(c.entries, Voice{
			Index:       len(c.entries),
			DisplayName: k.Label(),
			Language:    UnknownLanguage,
			Gender:      GenderUnknown,
			Persona:     k,
		})
	}

	return c
}

// List returns every entry in ordinal order.
func (c *Catalog) List() []Voice {
	out := make([]Voice, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of entries, personas included.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// RealCount returns the number of voices reported by the engine.
func (c *Catalog) RealCount() int {
	return len(c.real)
}

// Default returns the fallback selection: the first real voice, or the
// backend default when the engine reported none.
func (c *Catalog) Default() Selection {
	if len(c.real) == 0 {
		return Selection{}
	}
	return Selection{BackendID: c.real[0].BackendID, Entry: c.real[0]}
}

// Resolve maps an ordinal to a selection.
func (c *Catalog) Resolve(ordinal int) (Selection, error) {
	if ordinal < 0 || ordinal >= len(c.entries) {
		return Selection{}, fmt.Errorf("%w: %d is not between 0 and %d", ErrInvalidVoice, ordinal, len(c.entries)-1)
	}

	entry := c.entries[ordinal]
	if !entry.IsPersona() {
		return Selection{BackendID: entry.BackendID, Entry: entry}, nil
	}

	return Selection{
		Persona:   entry.Persona,
		BackendID: c.carrier(persona.Lookup(entry.Persona, persona.DefaultOptions()).Carrier),
		Entry:     entry,
	}, nil
}

// Match resolves an exact voice answer: an ordinal, a persona name, a
// backend id or a display name. Names ignore case.
func (c *Catalog) Match(query string) (Selection, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Selection{}, fmt.Errorf("%w: empty query", ErrInvalidVoice)
	}

	if n, err := strconv.Atoi(query); err == nil {
		return c.Resolve(n)
	}

	if k, err := persona.ParseKind(query); err == nil {
		for _, e := range c.entries {
			if e.Persona == k {
				return c.Resolve(e.Index)
			}
		}
	}

	for _, v := range c.real {
		if strings.EqualFold(v.BackendID, query) || strings.EqualFold(v.DisplayName, query) {
			return c.Resolve(v.Index)
		}
	}
	return Selection{}, fmt.Errorf("%w: no voice named %q", ErrInvalidVoice, query)
}

// Find is Match with a fuzzy fallback on display names, for voices named
// on the command line.
func (c *Catalog) Find(query string) (Selection, error) {
	sel, err := c.Match(query)
	if err == nil {
		return sel, nil
	}

	query = strings.TrimSpace(query)
	if _, numErr := strconv.Atoi(query); query == "" || numErr == nil {
		return Selection{}, err
	}

	matches := fuzzy.FindFrom(query, names(c.real))
	if len(matches) == 0 {
		return Selection{}, fmt.Errorf("%w: no voice matches %q", ErrInvalidVoice, query)
	}
	return c.Resolve(c.real[matches[0].Index].Index)
}

// carrier picks the real voice that renders a persona. An empty id means
// no override.
func (c *Catalog) carrier(rule persona.Carrier) string {
	if len(c.real) == 0 {
		return ""
	}

	want := GenderUnknown
	switch rule {
	case persona.CarrierFemale:
		want = GenderFemale
	case persona.CarrierMale:
		want = GenderMale
	}

	if want != GenderUnknown {
		for _, v := range c.real {
			if v.Gender == want {
				return v.BackendID
			}
		}
	}
	return c.real[0].BackendID
}

// names adapts voices to fuzzy.Source.
type names []Voice

func (n names) String(i int) string {
	return n[i].DisplayName + " " + n[i].Language
}

func (n names) Len() int {
	return len(n)
}
