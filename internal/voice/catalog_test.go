package voice

import (
	"testing"

	"github.com/dgnsrekt/narrate/internal/persona"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVoices() []Voice {
	return []Voice{
		{BackendID: "en-us", DisplayName: "English (America)", Language: "en-us", Gender: GenderMale},
		{BackendID: "fr-fr", DisplayName: "French", Language: "fr-fr", Gender: GenderFemale},
		{BackendID: "de", DisplayName: "German", Gender: GenderUnknown},
	}
}

func TestNewCatalog_Indexes(t *testing.T) {
	c := NewCatalog(testVoices(), []persona.Kind{persona.Robot, persona.Hacker})

	list := c.List()
	require.Len(t, list, 5)
	assert.Equal(t, 3, c.RealCount())
	for i, v := range list {
		assert.Equal(t, i, v.Index)
	}
	assert.Equal(t, persona.Robot, list[3].Persona)
	assert.Equal(t, persona.Hacker, list[4].Persona)
	assert.Equal(t, UnknownLanguage, list[2].Language)
	assert.Empty(t, list[3].BackendID)
}

func TestCatalog_Resolve(t *testing.T) {
	c := NewCatalog(testVoices(), []persona.Kind{persona.Robot, persona.Female})

	t.Run("real voice", func(t *testing.T) {
		sel, err := c.Resolve(1)
		require.NoError(t, err)
		assert.False(t, sel.IsPersona())
		assert.Equal(t, "fr-fr", sel.BackendID)
	})

	t.Run("persona rides on first voice", func(t *testing.T) {
		sel, err := c.Resolve(3)
		require.NoError(t, err)
		assert.Equal(t, persona.Robot, sel.Persona)
		assert.Equal(t, "en-us", sel.BackendID)
	})

	t.Run("gendered preset picks matching voice", func(t *testing.T) {
		sel, err := c.Resolve(4)
		require.NoError(t, err)
		assert.Equal(t, persona.Female, sel.Persona)
		assert.Equal(t, "fr-fr", sel.BackendID)
	})

	for _, bad := range []int{-1, 5, 100} {
		_, err := c.Resolve(bad)
		assert.ErrorIs(t, err, ErrInvalidVoice, "ordinal %d", bad)
	}
}

func TestCatalog_NoRealVoices(t *testing.T) {
	c := NewCatalog(nil, []persona.Kind{persona.Robot, persona.Male})

	assert.Equal(t, 0, c.RealCount())
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, Selection{}, c.Default())

	sel, err := c.Resolve(0)
	require.NoError(t, err)
	assert.Equal(t, persona.Robot, sel.Persona)
	assert.Empty(t, sel.BackendID, "persona without carrier falls back to backend default")

	sel, err = c.Resolve(1)
	require.NoError(t, err)
	assert.Empty(t, sel.BackendID)
}

func TestCatalog_Match(t *testing.T) {
	c := NewCatalog(testVoices(), persona.DefaultKinds)

	tests := []struct {
		query   string
		backend string
		persona persona.Kind
		wantErr bool
	}{
		{query: "1", backend: "fr-fr"},
		{query: "robot", backend: "en-us", persona: persona.Robot},
		{query: "FR-FR", backend: "fr-fr"},
		{query: "german", backend: "de"},
		{query: "hi", wantErr: true},
		{query: "ea", wantErr: true},
		{query: "germ", wantErr: true},
		{query: "7", wantErr: true},
		{query: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			sel, err := c.Match(tt.query)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidVoice)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.backend, sel.BackendID)
			assert.Equal(t, tt.persona, sel.Persona)
		})
	}
}

func TestCatalog_Find(t *testing.T) {
	c := NewCatalog(testVoices(), persona.DefaultKinds)

	tests := []struct {
		query   string
		backend string
		persona persona.Kind
		wantErr bool
	}{
		{query: "1", backend: "fr-fr"},
		{query: "hacker", backend: "en-us", persona: persona.Hacker},
		{query: "DE", backend: "de"},
		{query: "germ", backend: "de"},
		{query: "zzzz", wantErr: true},
		{query: "42", wantErr: true},
		{query: " ", wantErr: true},
		{query: "female", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			sel, err := c.Find(tt.query)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidVoice)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.backend, sel.BackendID)
			assert.Equal(t, tt.persona, sel.Persona)
		})
	}
}

func TestParseGender(t *testing.T) {
	assert.Equal(t, GenderFemale, ParseGender("F"))
	assert.Equal(t, GenderMale, ParseGender(" male "))
	assert.Equal(t, GenderUnknown, ParseGender("--"))
	assert.Equal(t, GenderUnknown, ParseGender(""))
	assert.Equal(t, "unknown", GenderUnknown.String())
}
