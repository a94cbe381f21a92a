// Package pipeline runs one narration: acquire text, select a voice, apply
// the persona transform, optionally preview, choose format and speed,
// synthesize and optionally save the narrated text.
package pipeline

// State is a step of a narration run.
type State int

const (
	StateAcquireText State = iota
	StateSelectVoice
	StateApplyTransform
	StatePreview
	StateSelectOutput
	StateSynthesize
	StatePersistText
	StateDone
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateAcquireText:
		return "AcquireText"
	case StateSelectVoice:
		return "SelectVoice"
	case StateApplyTransform:
		return "ApplyTransform"
	case StatePreview:
		return "Preview"
	case StateSelectOutput:
		return "SelectOutput"
	case StateSynthesize:
		return "Synthesize"
	case StatePersistText:
		return "PersistText"
	case StateDone:
		return "Done"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether the run has ended.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
