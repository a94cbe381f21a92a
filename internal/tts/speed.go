package tts

import (
	"fmt"
	"strconv"
	"strings"
)

// Speaking rate presets in words per minute.
const (
	RateSlow   = 120
	RateNormal = 150
	RateFast   = 200

	MinRate = 40
	MaxRate = 500
)

// ParseSpeed converts a speed answer ("slow", "normal", "fast" or a number
// of words per minute) to a rate. An empty answer selects the normal rate.
func ParseSpeed(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "slow":
		return RateSlow, nil
	case "", "normal":
		return RateNormal, nil
	case "fast":
		return RateFast, nil
	}

	rate, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSpeed, s)
	}
	if err := ValidateRate(rate); err != nil {
		return 0, err
	}
	return rate, nil
}

// ValidateRate checks a custom rate.
func ValidateRate(rate int) error {
	if rate < MinRate || rate > MaxRate {
		return fmt.Errorf("%w, got %d", ErrInvalidSpeed, rate)
	}
	return nil
}

// ValidateVolume checks a volume value.
func ValidateVolume(volume float64) error {
	if volume < 0 || volume > 1 {
		return fmt.Errorf("%w, got %.2f", ErrInvalidVolume, volume)
	}
	return nil
}

// ToPiperScale converts a rate to Piper's length-scale parameter.
// Piper uses inverse scaling: faster speech = smaller length-scale.
func ToPiperScale(rate int) string {
	if rate <= 0 {
		rate = RateNormal
	}
	// Normal rate (150) -> length-scale 1.00
	// Fast rate (200)   -> length-scale 0.75
	// Slow rate (120)   -> length-scale 1.25
	return fmt.Sprintf("%.2f", float64(RateNormal)/float64(rate))
}

// ToAmplitude converts a volume to espeak's amplitude (0-200, 100 = normal).
func ToAmplitude(volume float64) int {
	switch {
	case volume < 0:
		volume = 0
	case volume > 1:
		volume = 1
	}
	return int(volume*100 + 0.5)
}

// ToGTTSSlow returns whether gTTS should use slow mode. gTTS only supports
// normal and slow speeds, so the slow preset and below count as slow.
func ToGTTSSlow(rate int) bool {
	return rate > 0 && rate <= RateSlow
}

// SpeedDisplay returns a human-readable rate description.
func SpeedDisplay(rate int) string {
	switch rate {
	case RateSlow:
		return "slow (120 wpm)"
	case RateNormal:
		return "normal (150 wpm)"
	case RateFast:
		return "fast (200 wpm)"
	default:
		return fmt.Sprintf("%d wpm", rate)
	}
}
