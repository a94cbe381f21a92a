package audio

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// WAVWriter appends PCM chunks to a single WAV file. Chunks go to a temp
// file next to the target; Close patches the header sizes and renames it
// into place, Abort discards it. The target is never partially written.
type WAVWriter struct {
	path   string
	file   *os.File
	format Format
	size   int64
	closed bool

	mu sync.Mutex
}

// CreateWAV starts a WAV file for path with a placeholder header. An
// existing file at path is left untouched until Close.
func CreateWAV(path string, format Format) (*WAVWriter, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}

	file, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := file.Write(header(format, 0)); err != nil {
		file.Close()
		os.Remove(file.Name())
		return nil, fmt.Errorf("write header: %w", err)
	}

	return &WAVWriter{path: path, file: file, format: format}, nil
}

// Path returns the file being written.
func (w *WAVWriter) Path() string { return w.path }

// Format returns the file's PCM format.
func (w *WAVWriter) Format() Format { return w.format }

// Size returns the PCM bytes written so far.
func (w *WAVWriter) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// Append writes pcm, which must be in the file's format.
func (w *WAVWriter) Append(format Format, pcm []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return os.ErrClosed
	}
	if format != w.format {
		return fmt.Errorf("%w: file is %+v, chunk is %+v", ErrFormatMismatch, w.format, format)
	}

	n, err := w.file.Write(pcm)
	w.size += int64(n)
	if err != nil {
		return fmt.Errorf("append to %s: %w", w.path, err)
	}
	return nil
}

// Close patches the RIFF and data sizes and moves the file to its path. It
// is safe to call more than once.
func (w *WAVWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	var sizes [4]byte
	binary.LittleEndian.PutUint32(sizes[:], uint32(36+w.size))
	_, err := w.file.WriteAt(sizes[:], 4)
	if err == nil {
		binary.LittleEndian.PutUint32(sizes[:], uint32(w.size))
		_, err = w.file.WriteAt(sizes[:], 40)
	}
	if closeErr := w.file.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(w.file.Name(), w.path)
	}
	if err != nil {
		os.Remove(w.file.Name())
		return fmt.Errorf("finalize %s: %w", w.path, err)
	}
	return nil
}

// Abort discards everything written. It is a no-op after Close.
func (w *WAVWriter) Abort() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	w.file.Close()
	if err := os.Remove(w.file.Name()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("discard %s: %w", w.path, err)
	}
	return nil
}
