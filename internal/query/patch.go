package query

import (
	"context"
	"sync"
)

// Patch is an optimistic change applied to a cache ahead of server
// confirmation. Exactly one of Commit or Rollback must be called; until
// then further patches on the same cache wait.
type Patch[T any] struct {
	c        *Cache[T]
	snapshot map[string]entry[T]
	once     sync.Once
}

// Patch applies transform to every matching entry that holds data and
// returns a handle to settle the change. The pre-patch entries are kept
// verbatim for Rollback. In-flight fetches for patched keys are discarded
// on arrival.
func (c *Cache[T]) Patch(ctx context.Context, match Matcher, transform func(T) T) (*Patch[T], error) {
	select {
	case c.patchSem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	p := &Patch[T]{c: c, snapshot: make(map[string]entry[T])}

	c.mu.Lock()
	var keys []string
	for key, e := range c.entries {
		if !match(key) || !e.hasData {
			continue
		}
		p.snapshot[key] = *e
		e.data = transform(e.data)
		e.patched = true
		e.gen++
		keys = append(keys, key)
	}
	c.mu.Unlock()

	c.logger.Debug("applied optimistic patch", "entries", len(keys))
	c.notify(keys...)
	return p, nil
}

// keys returns the keys the patch touched.
func (p *Patch[T]) keys() []string {
	keys := make([]string, 0, len(p.snapshot))
	for k := range p.snapshot {
		keys = append(keys, k)
	}
	return keys
}

// Commit keeps the patched values and marks the entries stale, so the next
// read reconciles them with the server.
func (p *Patch[T]) Commit() {
	p.once.Do(func() {
		c := p.c
		keys := p.keys()
		c.mu.Lock()
		for _, key := range keys {
			if e, ok := c.entries[key]; ok {
				e.invalidated = true
				e.patched = false
			}
		}
		c.mu.Unlock()
		c.forget(func(key string) bool {
			_, ok := p.snapshot[key]
			return ok
		})

		<-c.patchSem
		c.logger.Debug("committed optimistic patch", "entries", len(keys))
		c.notify(keys...)
	})
}

// Rollback restores every patched entry to its snapshot. Entries removed
// since the patch are left removed.
func (p *Patch[T]) Rollback() {
	p.once.Do(func() {
		c := p.c
		c.mu.Lock()
		var keys []string
		for key, snap := range p.snapshot {
			cur, ok := c.entries[key]
			if !ok {
				continue
			}
			restored := snap
			restored.gen = cur.gen + 1
			restored.inflight = cur.inflight
			restored.patched = false
			if restored.inflight > 0 {
				restored.status = StatusFetching
			} else if restored.status == StatusFetching {
				// The fetch it was waiting on was dropped by the patch.
				restored.status = restingStatus(&restored)
			}
			*cur = restored
			keys = append(keys, key)
		}
		c.mu.Unlock()

		<-c.patchSem
		c.logger.Debug("rolled back optimistic patch", "entries", len(keys))
		c.notify(keys...)
	})
}
