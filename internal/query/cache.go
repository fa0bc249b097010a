// Package query holds server reads in a keyed, time-bounded cache and runs
// writes against it.
//
// A cache entry moves idle -> fetching -> success|error and back to fetching
// on refetch. Fresh entries are served without a request. Stale entries are
// served while a background refetch runs. Identical in-flight requests share
// one call. Every entry carries a generation; a fetch whose generation is no
// longer current when it completes is discarded.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/trackctl/internal/domain"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultStaleTime  = 30 * time.Second
	DefaultRetries    = 3
	DefaultRetryDelay = 500 * time.Millisecond

	// maxRefetch bounds how often a read whose result was dropped is
	// restarted at the newer generation.
	maxRefetch = 3
)

// Status is the fetch state of one cache entry.
type Status int

const (
	StatusIdle Status = iota
	StatusFetching
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusFetching:
		return "fetching"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Entry is a point-in-time copy of one cache entry.
type Entry[T any] struct {
	Status    Status
	Data      T
	HasData   bool
	Err       error
	FetchedAt time.Time
	Stale     bool
}

// Fetcher loads the value for one key.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Update is sent to observers whenever a cache entry changes.
type Update struct {
	Cache string
	Key   string
}

// Observer receives cache updates.
type Observer interface {
	OnUpdate(u Update)
}

// Persister stores successful results between sessions.
type Persister interface {
	Load(key string) ([]byte, time.Time, bool)
	Save(key string, data []byte, fetchedAt time.Time) error
	Delete(key string)
	DeletePrefix(prefix string)
	Keys() []string
}

// Options configures a Cache.
type Options struct {
	// Name identifies the cache in logs and updates.
	Name      string
	StaleTime time.Duration
	// Retries is how often a read failing at the transport level is
	// retried. Zero means DefaultRetries; negative disables retries.
	Retries    int
	RetryDelay time.Duration
	Persister  Persister
	Logger     *slog.Logger
}

type entry[T any] struct {
	status      Status
	data        T
	hasData     bool
	err         error
	fetchedAt   time.Time
	invalidated bool
	gen         uint64
	// inflight counts running fetches for the entry.
	inflight int
	// patched is set while an optimistic patch on the entry is unsettled.
	patched bool
}

// Cache is a keyed cache of server reads of type T.
type Cache[T any] struct {
	name       string
	staleTime  time.Duration
	retries    int
	retryDelay time.Duration
	persist    Persister
	logger     *slog.Logger
	now        func() time.Time

	mu        sync.Mutex
	entries   map[string]*entry[T]
	observers []Observer

	group singleflight.Group
	// patchSem admits one optimistic patch at a time.
	patchSem chan struct{}
	bg       sync.WaitGroup
}

// New creates a cache.
func New[T any](opts Options) *Cache[T] {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.StaleTime <= 0 {
		opts.StaleTime = DefaultStaleTime
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	} else if opts.Retries == 0 {
		opts.Retries = DefaultRetries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	return &Cache[T]{
		name:       opts.Name,
		staleTime:  opts.StaleTime,
		retries:    opts.Retries,
		retryDelay: opts.RetryDelay,
		persist:    opts.Persister,
		logger:     opts.Logger.With("cache", opts.Name),
		now:        time.Now,
		entries:    make(map[string]*entry[T]),
		patchSem:   make(chan struct{}, 1),
	}
}

// Name returns the cache name.
func (c *Cache[T]) Name() string {
	return c.name
}

// Subscribe registers an observer for updates.
func (c *Cache[T]) Subscribe(o Observer) {
	c.mu.Lock()
	c.observers = append(c.observers, o)
	c.mu.Unlock()
}

func (c *Cache[T]) notify(keys ...string) {
	c.mu.Lock()
	observers := append([]Observer(nil), c.observers...)
	c.mu.Unlock()

	for _, key := range keys {
		for _, o := range observers {
			o.OnUpdate(Update{Cache: c.name, Key: key})
		}
	}
}

// entryLocked returns the entry for key, creating it from persisted data
// when available. c.mu must be held.
func (c *Cache[T]) entryLocked(key string) *entry[T] {
	if e, ok := c.entries[key]; ok {
		return e
	}
	e := &entry[T]{status: StatusIdle}
	if c.persist != nil {
		if raw, fetchedAt, ok := c.persist.Load(key); ok {
			var v T
			if err := json.Unmarshal(raw, &v); err == nil {
				e.status = StatusSuccess
				e.data = v
				e.hasData = true
				e.fetchedAt = fetchedAt
				// Data from an earlier session is shown but always refetched.
				e.invalidated = true
			} else {
				c.logger.Warn("failed to decode persisted entry", "key", key, "error", err)
			}
		}
	}
	c.entries[key] = e
	return e
}

func (c *Cache[T]) freshLocked(e *entry[T]) bool {
	return e.hasData && !e.invalidated && c.now().Sub(e.fetchedAt) < c.staleTime
}

// Fetch returns the value for key. A fresh entry is returned as is. A stale
// entry is returned immediately and refreshed in the background. Without
// data, fn is called and its result returned.
func (c *Cache[T]) Fetch(ctx context.Context, key string, fn Fetcher[T]) (T, error) {
	c.mu.Lock()
	e := c.entryLocked(key)
	if c.freshLocked(e) {
		data := e.data
		c.mu.Unlock()
		return data, nil
	}
	if e.hasData {
		data, patched := e.data, e.patched
		c.mu.Unlock()
		// A refetch would be dropped until the patch settles.
		if !patched {
			c.revalidate(ctx, key, fn)
		}
		return data, nil
	}
	c.mu.Unlock()

	return c.fetch(ctx, key, fn)
}

// Refetch calls fn for key regardless of freshness.
func (c *Cache[T]) Refetch(ctx context.Context, key string, fn Fetcher[T]) (T, error) {
	return c.fetch(ctx, key, fn)
}

// Prefetch loads key in the background if it is not already fresh.
func (c *Cache[T]) Prefetch(ctx context.Context, key string, fn Fetcher[T]) {
	c.mu.Lock()
	e := c.entryLocked(key)
	skip := c.freshLocked(e) || e.patched
	c.mu.Unlock()
	if !skip {
		c.revalidate(ctx, key, fn)
	}
}

func (c *Cache[T]) revalidate(ctx context.Context, key string, fn Fetcher[T]) {
	ctx = context.WithoutCancel(ctx)
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		if _, err := c.fetch(ctx, key, fn); err != nil {
			c.logger.Warn("background refetch failed", "key", key, "error", err)
		}
	}()
}

// Wait blocks until background refetches started so far have finished.
func (c *Cache[T]) Wait() {
	c.bg.Wait()
}

type flightResult[T any] struct {
	data     T
	accepted bool
}

func (c *Cache[T]) fetch(ctx context.Context, key string, fn Fetcher[T]) (T, error) {
	for attempt := 0; ; attempt++ {
		c.mu.Lock()
		gen := c.entryLocked(key).gen
		c.mu.Unlock()

		v, err, shared := c.group.Do(fmt.Sprintf("%s#%d", key, gen), func() (any, error) {
			c.begin(key)
			data, err := c.withRetry(ctx, key, fn)
			accepted := c.settle(key, gen, data, err)
			return flightResult[T]{data: data, accepted: accepted}, err
		})
		if shared {
			c.logger.Debug("collapsed identical request", "key", key)
		}

		res, _ := v.(flightResult[T])
		if res.accepted {
			return res.data, err
		}

		// Superseded while in flight. A value set or patched since is the
		// answer; a missing or invalidated one is fetched again.
		c.mu.Lock()
		cur := c.entryLocked(key)
		data, hasData := cur.data, cur.hasData
		settled := !cur.invalidated || cur.patched
		c.mu.Unlock()

		if hasData && settled {
			return data, nil
		}
		if attempt >= maxRefetch || ctx.Err() != nil {
			if hasData {
				return data, nil
			}
			var zero T
			return zero, domain.ErrSuperseded
		}
		c.logger.Debug("refetching superseded entry", "key", key, "attempt", attempt+1)
	}
}

// begin marks key as fetching for the duration of one flight.
func (c *Cache[T]) begin(key string) {
	c.mu.Lock()
	e := c.entryLocked(key)
	e.inflight++
	e.status = StatusFetching
	c.mu.Unlock()
	c.notify(key)
}

func (c *Cache[T]) withRetry(ctx context.Context, key string, fn Fetcher[T]) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<(attempt-1)) // 500ms, 1s, 2s
			c.logger.Debug("retrying fetch", "key", key, "attempt", attempt, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}

		data, err := fn(ctx)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !domain.IsRetryable(err) {
			break
		}
	}
	return zero, lastErr
}

// settle records the outcome of a fetch started at generation gen. It
// reports false when the entry has moved on, or holds an unsettled
// optimistic value, and the outcome was dropped.
func (c *Cache[T]) settle(key string, gen uint64, data T, err error) bool {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		c.logger.Debug("discarding result for removed entry", "key", key)
		return false
	}
	if e.inflight > 0 {
		e.inflight--
	}

	if e.gen != gen || e.patched {
		// Leave fetching only when no newer flight is still running.
		if e.inflight == 0 && e.status == StatusFetching {
			e.status = restingStatus(e)
		}
		c.mu.Unlock()
		c.logger.Debug("discarding superseded result", "key", key, "gen", gen)
		c.notify(key)
		return false
	}

	if err != nil {
		e.status = StatusError
		e.err = err
		c.mu.Unlock()
		c.notify(key)
		return true
	}

	e.status = StatusSuccess
	e.data = data
	e.hasData = true
	e.err = nil
	e.fetchedAt = c.now()
	e.invalidated = false
	fetchedAt := e.fetchedAt
	c.mu.Unlock()

	c.save(key, data, fetchedAt)
	c.notify(key)
	return true
}

// restingStatus is the status of an entry with no fetch running.
func restingStatus[T any](e *entry[T]) Status {
	switch {
	case e.hasData:
		return StatusSuccess
	case e.err != nil:
		return StatusError
	default:
		return StatusIdle
	}
}

func (c *Cache[T]) save(key string, data T, fetchedAt time.Time) {
	if c.persist == nil {
		return
	}
	raw, err := json.Marshal(data)
	if err != nil {
		c.logger.Warn("failed to encode entry", "key", key, "error", err)
		return
	}
	if err := c.persist.Save(key, raw, fetchedAt); err != nil {
		c.logger.Warn("failed to persist entry", "key", key, "error", err)
	}
}

// Get returns a copy of the entry for key without fetching.
func (c *Cache[T]) Get(key string) (Entry[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		if c.persist == nil {
			return Entry[T]{}, false
		}
		e = c.entryLocked(key)
		if !e.hasData {
			return Entry[T]{}, false
		}
	}
	return Entry[T]{
		Status:    e.status,
		Data:      e.data,
		HasData:   e.hasData,
		Err:       e.err,
		FetchedAt: e.fetchedAt,
		Stale:     !c.freshLocked(e),
	}, true
}

// Set stores data for key as a fresh success, superseding in-flight fetches.
func (c *Cache[T]) Set(key string, data T) {
	c.mu.Lock()
	e := c.entryLocked(key)
	e.gen++
	e.status = StatusSuccess
	e.data = data
	e.hasData = true
	e.err = nil
	e.fetchedAt = c.now()
	e.invalidated = false
	fetchedAt := e.fetchedAt
	c.mu.Unlock()

	c.save(key, data, fetchedAt)
	c.notify(key)
}

// Matcher selects cache keys.
type Matcher func(key string) bool

// Prefix matches keys starting with p.
func Prefix(p string) Matcher {
	return func(key string) bool {
		return strings.HasPrefix(key, p)
	}
}

// Exact matches a single key.
func Exact(k string) Matcher {
	return func(key string) bool {
		return key == k
	}
}

// All matches every key.
func All() Matcher {
	return func(string) bool { return true }
}

// Invalidate marks matching entries stale so the next read refetches, and
// drops results of fetches already in flight for them. Persisted copies
// are deleted so a later session does not start from them.
func (c *Cache[T]) Invalidate(match Matcher) {
	c.mu.Lock()
	var keys []string
	for key, e := range c.entries {
		if !match(key) {
			continue
		}
		e.invalidated = true
		e.gen++
		keys = append(keys, key)
	}
	c.mu.Unlock()

	c.forget(match)
	if len(keys) > 0 {
		c.logger.Debug("invalidated entries", "count", len(keys))
	}
	c.notify(keys...)
}

// forget deletes persisted copies of matching keys.
func (c *Cache[T]) forget(match Matcher) {
	if c.persist == nil {
		return
	}
	for _, key := range c.persist.Keys() {
		if match(key) {
			c.persist.Delete(key)
		}
	}
}

// Remove drops matching entries, including persisted copies.
func (c *Cache[T]) Remove(match Matcher) {
	c.mu.Lock()
	var keys []string
	for key := range c.entries {
		if match(key) {
			delete(c.entries, key)
			keys = append(keys, key)
		}
	}
	c.mu.Unlock()

	c.forget(match)
	c.notify(keys...)
}

// Clear drops every entry, including persisted copies.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*entry[T])
	c.mu.Unlock()

	if c.persist != nil {
		c.persist.DeletePrefix("")
	}
}
