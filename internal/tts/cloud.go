package tts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/narrate/internal/cache"
)

// CachingClient serves repeated cloud requests from an AudioStore.
type CachingClient struct {
	next  CloudClient
	store AudioStore
	slow  bool
}

// NewCachingClient wraps next with store. slow is part of the cache key
// since it changes the rendering.
func NewCachingClient(next CloudClient, store AudioStore, slow bool) *CachingClient {
	return &CachingClient{next: next, store: store, slow: slow}
}

// Name returns the wrapped client's name.
func (c *CachingClient) Name() string { return c.next.Name() }

// SynthesizeToFile writes cached audio when present, otherwise delegates
// and stores the result. Cache write failures are logged and ignored.
func (c *CachingClient) SynthesizeToFile(ctx context.Context, text, lang, path string) error {
	key := cache.Key(c.next.Name(), lang, strconv.FormatBool(c.slow), text)

	if data, ok := c.store.Get(key); ok {
		log.Debug("Cloud audio served from cache", "key", key, "bytes", len(data))
		return WriteFileAtomic(path, data)
	}

	if err := c.next.SynthesizeToFile(ctx, text, lang, path); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("Could not read audio for cache", "path", path, "error", err)
		return nil
	}
	if err := c.store.Put(key, data); err != nil {
		log.Warn("Could not cache cloud audio", "error", err)
	}
	return nil
}

// DefaultRetryBackoff is the base wait between cloud retries.
const DefaultRetryBackoff = time.Second

// PacedClient rate limits cloud requests and retries failed ones.
type PacedClient struct {
	next    CloudClient
	limiter *rate.Limiter
	retries int
	backoff time.Duration
}

// NewPacedClient wraps next. A non-positive requestsPerMinute disables
// pacing.
func NewPacedClient(next CloudClient, requestsPerMinute, retries int) *PacedClient {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if requestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
	}
	if retries < 0 {
		retries = 0
	}

	return &PacedClient{
		next:    next,
		limiter: limiter,
		retries: retries,
		backoff: DefaultRetryBackoff,
	}
}

// WithBackoff sets the base wait between retries.
func (c *PacedClient) WithBackoff(d time.Duration) *PacedClient {
	c.backoff = d
	return c
}

// Name returns the wrapped client's name.
func (c *PacedClient) Name() string { return c.next.Name() }

// SynthesizeToFile delegates, waiting for the limiter before each attempt.
func (c *PacedClient) SynthesizeToFile(ctx context.Context, text, lang, path string) error {
	var err error
	for attempt := 0; ; attempt++ {
		if waitErr := c.limiter.Wait(ctx); waitErr != nil {
			return fmt.Errorf("rate limit wait cancelled: %w", waitErr)
		}

		err = c.next.SynthesizeToFile(ctx, text, lang, path)
		if err == nil || ctx.Err() != nil {
			return err
		}
		if attempt >= c.retries {
			break
		}

		wait := c.backoff * time.Duration(attempt+1)
		log.Warn("Cloud request failed, retrying",
			"client", c.next.Name(),
			"attempt", attempt+1,
			"wait", wait,
			"error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", c.next.Name(), c.retries+1, err)
}

// WriteFileAtomic writes data to a temporary file next to path and renames
// it into place, so path is either complete or untouched.
func WriteFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	_, err = tmp.Write(data)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}
