package tts

import (
	"errors"
	"fmt"
)

// Common TTS errors
var (
	// ErrNothingToSynthesize indicates the resolved text is empty
	ErrNothingToSynthesize = errors.New("nothing to synthesize")

	// ErrEngineNotAvailable indicates the offline engine could not be started
	ErrEngineNotAvailable = errors.New("offline TTS engine is not available")

	// ErrInvalidEngine indicates an unknown engine was specified
	ErrInvalidEngine = errors.New("invalid TTS engine specified")

	// ErrInvalidCloud indicates an unknown cloud client was specified
	ErrInvalidCloud = errors.New("invalid cloud TTS client specified")

	// ErrSynthesisFailed indicates synthesis operation failed
	ErrSynthesisFailed = errors.New("text synthesis failed")

	// ErrUnknownVoice indicates the engine does not know the requested voice
	ErrUnknownVoice = errors.New("unknown voice")

	// ErrLoopAlreadyRunning is returned by a session drain that is already in progress
	ErrLoopAlreadyRunning = errors.New("run loop already started")

	// ErrSessionClosed indicates the engine handle was already released
	ErrSessionClosed = errors.New("engine session closed")

	// ErrInvalidFormat indicates an output format other than wav or mp3
	ErrInvalidFormat = errors.New("output format must be wav or mp3")

	// ErrInvalidSpeed indicates the speaking rate is out of range
	ErrInvalidSpeed = errors.New("rate must be between 40 and 500 words per minute")

	// ErrInvalidVolume indicates the volume is out of range
	ErrInvalidVolume = errors.New("volume must be between 0.0 and 1.0")

	// ErrInvalidLanguage indicates a malformed language code
	ErrInvalidLanguage = errors.New("invalid language code")

	// ErrTimeout indicates an operation timed out
	ErrTimeout = errors.New("operation timed out")
)

// TTSError represents a TTS-specific error with additional context
type TTSError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *TTSError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *TTSError) Unwrap() error {
	return e.Cause
}

// ErrorCode identifies specific error types
type ErrorCode string

const (
	// ErrorCodeInputAcquisition covers missing, empty or unreadable input
	ErrorCodeInputAcquisition ErrorCode = "INPUT_ACQUISITION"

	// ErrorCodeVoiceResolution covers out-of-range voice choices
	ErrorCodeVoiceResolution ErrorCode = "VOICE_RESOLUTION"

	// ErrorCodeSynthesis covers offline engine and cloud service failures
	ErrorCodeSynthesis ErrorCode = "SYNTHESIS"

	// ErrorCodePersistence covers text persistence failures
	ErrorCodePersistence ErrorCode = "PERSISTENCE"

	// ErrorCodeInvalidChoice covers invalid top-level answers
	ErrorCodeInvalidChoice ErrorCode = "INVALID_CHOICE"

	// ErrorCodeCanceled covers runs declined after preview
	ErrorCodeCanceled ErrorCode = "CANCELED"

	// ErrorCodeTimeout covers runs exceeding the configured timeout
	ErrorCodeTimeout ErrorCode = "TIMEOUT"
)

// NewTTSError creates a new TTS error with context
func NewTTSError(code ErrorCode, message string, cause error) *TTSError {
	return &TTSError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context to the error
func (e *TTSError) WithContext(key string, value interface{}) *TTSError {
	e.Context[key] = value
	return e
}

// IsFatal returns true if the error should stop the run
func (e *TTSError) IsFatal() bool {
	switch e.Code {
	case ErrorCodeVoiceResolution,
		ErrorCodePersistence:
		return false
	default:
		return true
	}
}

// IsRetryable returns true if the operation can be retried
func (e *TTSError) IsRetryable() bool {
	switch e.Code {
	case ErrorCodeTimeout,
		ErrorCodeVoiceResolution:
		return true
	default:
		return false
	}
}

// CodeOf returns the error code of the first TTSError in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var ttsErr *TTSError
	if errors.As(err, &ttsErr) {
		return ttsErr.Code, true
	}
	return "", false
}
