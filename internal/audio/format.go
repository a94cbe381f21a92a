package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// Common errors for audio operations
var (
	// ErrNotWAV is returned when data does not start with a RIFF/WAVE header
	ErrNotWAV = errors.New("not a RIFF/WAVE stream")

	// ErrUnsupportedEncoding is returned for anything but integer PCM
	ErrUnsupportedEncoding = errors.New("only 16-bit integer PCM is supported")

	// ErrFormatMismatch is returned when appending PCM of a different format
	ErrFormatMismatch = errors.New("audio format does not match file")
)

// Format describes 16-bit little-endian integer PCM.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// DefaultFormat is the espeak-ng output format.
var DefaultFormat = Format{SampleRate: 22050, Channels: 1, BitDepth: 16}

// BlockAlign is the size of one frame in bytes.
func (f Format) BlockAlign() int {
	return f.Channels * f.BitDepth / 8
}

// BytesPerSecond is the PCM byte rate.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.BlockAlign()
}

// Duration returns the playback time of n PCM bytes.
func (f Format) Duration(n int) time.Duration {
	bps := f.BytesPerSecond()
	if bps == 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(bps)
}

// Validate checks that f can be written by WAVWriter.
func (f Format) Validate() error {
	if f.BitDepth != 16 {
		return fmt.Errorf("%w, got %d bits", ErrUnsupportedEncoding, f.BitDepth)
	}
	if f.Channels != 1 && f.Channels != 2 {
		return fmt.Errorf("channels must be 1 or 2, got %d", f.Channels)
	}
	if f.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", f.SampleRate)
	}
	return nil
}

// DecodeWAV splits a WAV stream into its format and PCM payload. Streamed
// WAVs with placeholder sizes are accepted: the data chunk then extends to
// the end of the input.
func DecodeWAV(data []byte) (Format, []byte, error) {
	if len(data) < 12 || !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return Format{}, nil, ErrNotWAV
	}

	var (
		format    Format
		sawFormat bool
	)
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8

		switch id {
		case "fmt ":
			if body+16 > len(data) {
				return Format{}, nil, fmt.Errorf("%w: truncated fmt chunk", ErrNotWAV)
			}
			if tag := binary.LittleEndian.Uint16(data[body:]); tag != 1 {
				return Format{}, nil, fmt.Errorf("%w, got format tag %d", ErrUnsupportedEncoding, tag)
			}
			format = Format{
				Channels:   int(binary.LittleEndian.Uint16(data[body+2:])),
				SampleRate: int(binary.LittleEndian.Uint32(data[body+4:])),
				BitDepth:   int(binary.LittleEndian.Uint16(data[body+14:])),
			}
			sawFormat = true

		case "data":
			if !sawFormat {
				return Format{}, nil, fmt.Errorf("%w: data before fmt chunk", ErrNotWAV)
			}
			end := body + size
			if size < 0 || end > len(data) || end < body {
				end = len(data)
			}
			return format, data[body:end], format.Validate()
		}

		// Chunks are padded to an even size.
		pos = body + size + size%2
		if pos < body {
			break
		}
	}

	return Format{}, nil, fmt.Errorf("%w: no data chunk", ErrNotWAV)
}

// header builds a 44-byte canonical WAV header for dataSize PCM bytes.
func header(f Format, dataSize uint32) []byte {
	h := make([]byte, 44)
	copy(h[0:], "RIFF")
	binary.LittleEndian.PutUint32(h[4:], 36+dataSize)
	copy(h[8:], "WAVE")
	copy(h[12:], "fmt ")
	binary.LittleEndian.PutUint32(h[16:], 16)
	binary.LittleEndian.PutUint16(h[20:], 1)
	binary.LittleEndian.PutUint16(h[22:], uint16(f.Channels))
	binary.LittleEndian.PutUint32(h[24:], uint32(f.SampleRate))
	binary.LittleEndian.PutUint32(h[28:], uint32(f.BytesPerSecond()))
	binary.LittleEndian.PutUint16(h[32:], uint16(f.BlockAlign()))
	binary.LittleEndian.PutUint16(h[34:], uint16(f.BitDepth))
	copy(h[36:], "data")
	binary.LittleEndian.PutUint32(h[40:], dataSize)
	return h
}

// EncodeWAV wraps pcm in a WAV header.
func EncodeWAV(f Format, pcm []byte) []byte {
	return append(header(f, uint32(len(pcm))), pcm...)
}
