package audio

import (
	"encoding/binary"
	"math"
)

// ApplyGain scales 16-bit little-endian PCM in place, clipping at the
// sample limits. A gain of 1 leaves pcm untouched.
func ApplyGain(pcm []byte, gain float64) {
	if gain == 1 {
		return
	}
	if gain < 0 {
		gain = 0
	}

	for i := 0; i+1 < len(pcm); i += 2 {
		sample := float64(int16(binary.LittleEndian.Uint16(pcm[i:])))
		scaled := math.Round(sample * gain)
		switch {
		case scaled > math.MaxInt16:
			scaled = math.MaxInt16
		case scaled < math.MinInt16:
			scaled = math.MinInt16
		}
		binary.LittleEndian.PutUint16(pcm[i:], uint16(int16(scaled)))
	}
}
