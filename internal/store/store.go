package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names
const (
	BucketPages  = "pages"
	BucketTracks = "tracks"
	BucketGenres = "genres"
)

var buckets = []string{BucketPages, BucketTracks, BucketGenres}

// record is the stored form of one cached query result.
type record struct {
	Data      json.RawMessage `json:"data"`
	FetchedAt time.Time       `json:"fetchedAt"`
}

// QueryStore persists query results in BoltDB so a new session starts from
// the last known server state.
type QueryStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string]record
}

// NewQueryStore opens the store for serverURL under baseCacheDir. An empty
// baseCacheDir gives a memory-only store.
func NewQueryStore(baseCacheDir, serverURL string) (*QueryStore, error) {
	if baseCacheDir == "" {
		return &QueryStore{cache: make(map[string]record)}, nil
	}

	dir := baseCacheDir
	if serverURL != "" {
		dir = filepath.Join(baseCacheDir, hashServerURL(serverURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "trackctl.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &QueryStore{db: db, cache: make(map[string]record)}, nil
}

// hashServerURL keeps caches for different servers apart.
func hashServerURL(serverURL string) string {
	normalized := strings.TrimRight(strings.ToLower(serverURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (s *QueryStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Bucket returns a view of the store scoped to one bucket.
func (s *QueryStore) Bucket(name string) *Bucket {
	return &Bucket{store: s, name: []byte(name)}
}

// Bucket is a single named partition of a QueryStore.
type Bucket struct {
	store *QueryStore
	name  []byte
}

// Load returns the stored value for key and when it was fetched.
func (b *Bucket) Load(key string) ([]byte, time.Time, bool) {
	rec, ok := b.store.get(b.name, key)
	if !ok {
		return nil, time.Time{}, false
	}
	return rec.Data, rec.FetchedAt, true
}

// Save stores data for key.
func (b *Bucket) Save(key string, data []byte, fetchedAt time.Time) error {
	return b.store.set(b.name, key, record{Data: data, FetchedAt: fetchedAt})
}

// Delete removes key.
func (b *Bucket) Delete(key string) {
	b.store.delete(b.name, key)
}

// DeletePrefix removes every key starting with prefix.
func (b *Bucket) DeletePrefix(prefix string) {
	b.store.deletePrefix(b.name, prefix)
}

// Keys lists every stored key.
func (b *Bucket) Keys() []string {
	return b.store.keys(b.name)
}

// === Generic helpers ===

func (s *QueryStore) get(bucket []byte, key string) (record, bool) {
	cacheKey := string(bucket) + ":" + key

	s.mu.RLock()
	if rec, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return rec, true
	}
	s.mu.RUnlock()

	if s.db == nil {
		return record{}, false
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return record{}, false
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return record{}, false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[cacheKey] = rec
	s.mu.Unlock()

	return rec, true
}

func (s *QueryStore) keys(bucket []byte) []string {
	seen := make(map[string]bool)
	var keys []string
	add := func(k string) {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	cachePrefix := string(bucket) + ":"
	s.mu.RLock()
	for k := range s.cache {
		if strings.HasPrefix(k, cachePrefix) {
			add(strings.TrimPrefix(k, cachePrefix))
		}
	}
	s.mu.RUnlock()

	if s.db == nil {
		return keys
	}

	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			add(string(k))
			return nil
		})
	})
	return keys
}

func (s *QueryStore) set(bucket []byte, key string, rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	cacheKey := string(bucket) + ":" + key

	s.mu.Lock()
	s.cache[cacheKey] = rec
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return fmt.Errorf("unknown bucket %q", bucket)
		}
		return b.Put([]byte(key), data)
	})
}

func (s *QueryStore) delete(bucket []byte, key string) {
	cacheKey := string(bucket) + ":" + key

	s.mu.Lock()
	delete(s.cache, cacheKey)
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b != nil {
			b.Delete([]byte(key))
		}
		return nil
	})
}

func (s *QueryStore) deletePrefix(bucket []byte, prefix string) {
	s.mu.Lock()
	cachePrefix := string(bucket) + ":" + prefix
	for k := range s.cache {
		if strings.HasPrefix(k, cachePrefix) {
			delete(s.cache, k)
		}
	}
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	// Collect first; deleting while iterating a bbolt cursor skips keys.
	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		var keys [][]byte
		c := b.Cursor()
		prefixBytes := []byte(prefix)
		for k, _ := c.Seek(prefixBytes); k != nil && strings.HasPrefix(string(k), prefix); k, _ = c.Next() {
			keys = append(keys, append([]byte(nil), k...))
		}
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}
