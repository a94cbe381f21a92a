package tts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgnsrekt/narrate/internal/cache"
)

type mapStore map[string][]byte

func (m mapStore) Get(key string) ([]byte, bool) {
	v, ok := m[key]
	return v, ok
}

func (m mapStore) Put(key string, value []byte) error {
	m[key] = value
	return nil
}

func TestCachingClient(t *testing.T) {
	inner := &fakeCloud{}
	store := mapStore{}
	client := NewCachingClient(inner, store, false)
	dir := t.TempDir()

	first := filepath.Join(dir, "first.mp3")
	require.NoError(t, client.SynthesizeToFile(context.Background(), "hello", "en", first))
	assert.Equal(t, 1, inner.calls)
	assert.Len(t, store, 1)

	second := filepath.Join(dir, "second.mp3")
	require.NoError(t, client.SynthesizeToFile(context.Background(), "hello", "en", second))
	assert.Equal(t, 1, inner.calls, "second request is served from cache")

	data, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, "mp3:hello", string(data))

	require.NoError(t, client.SynthesizeToFile(context.Background(), "hello", "de", second))
	assert.Equal(t, 2, inner.calls, "language is part of the key")
}

func TestCachingClientWithDiskCache(t *testing.T) {
	dc, err := cache.NewDiskCache(t.TempDir(), 1024*1024, cache.DefaultCompressionLevel)
	require.NoError(t, err)
	defer dc.Close()

	inner := &fakeCloud{}
	client := NewCachingClient(inner, dc, true)
	path := filepath.Join(t.TempDir(), "out.mp3")

	require.NoError(t, client.SynthesizeToFile(context.Background(), "cached", "en", path))
	require.NoError(t, os.Remove(path))
	require.NoError(t, client.SynthesizeToFile(context.Background(), "cached", "en", path))

	assert.Equal(t, 1, inner.calls)
	assert.FileExists(t, path)
}

func TestCachingClientFailureNotCached(t *testing.T) {
	inner := &fakeCloud{err: errors.New("503")}
	store := mapStore{}
	client := NewCachingClient(inner, store, false)

	err := client.SynthesizeToFile(context.Background(), "x", "en", filepath.Join(t.TempDir(), "x.mp3"))
	require.Error(t, err)
	assert.Empty(t, store)
}

type flakyCloud struct {
	fakeCloud
	failures int
}

func (c *flakyCloud) SynthesizeToFile(ctx context.Context, text, lang, path string) error {
	if c.failures > 0 {
		c.failures--
		c.calls++
		return errors.New("temporary failure")
	}
	return c.fakeCloud.SynthesizeToFile(ctx, text, lang, path)
}

func TestPacedClientRetries(t *testing.T) {
	inner := &flakyCloud{failures: 2}
	client := NewPacedClient(inner, 0, 2).WithBackoff(time.Millisecond)

	path := filepath.Join(t.TempDir(), "out.mp3")
	require.NoError(t, client.SynthesizeToFile(context.Background(), "hi", "en", path))
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, "fake", client.Name())
}

func TestPacedClientGivesUp(t *testing.T) {
	inner := &flakyCloud{failures: 5}
	client := NewPacedClient(inner, 0, 1).WithBackoff(time.Millisecond)

	err := client.SynthesizeToFile(context.Background(), "hi", "en", filepath.Join(t.TempDir(), "out.mp3"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, 2, inner.calls)
}

func TestPacedClientCanceled(t *testing.T) {
	inner := &flakyCloud{failures: 5}
	client := NewPacedClient(inner, 0, 3).WithBackoff(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := client.SynthesizeToFile(ctx, "hi", "en", filepath.Join(t.TempDir(), "out.mp3"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, inner.calls)
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.mp3")

	require.NoError(t, WriteFileAtomic(path, []byte("data")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")

	assert.Error(t, WriteFileAtomic(filepath.Join(dir, "missing", "out.mp3"), []byte("x")))
}
