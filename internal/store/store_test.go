package store

import (
	"sort"
	"testing"
	"time"
)

func TestMemoryOnlyStore(t *testing.T) {
	s, err := NewQueryStore("", "")
	if err != nil {
		t.Fatalf("NewQueryStore error: %v", err)
	}
	defer s.Close()

	b := s.Bucket(BucketPages)
	now := time.Now().UTC().Truncate(time.Second)
	if err := b.Save("tracks?page=1", []byte(`{"data":[]}`), now); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	data, fetchedAt, ok := b.Load("tracks?page=1")
	if !ok || string(data) != `{"data":[]}` || !fetchedAt.Equal(now) {
		t.Fatalf("Load = %s, %v, %v", data, fetchedAt, ok)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	now := time.Now().UTC().Truncate(time.Second)

	s, err := NewQueryStore(dir, "http://catalog.local")
	if err != nil {
		t.Fatalf("NewQueryStore error: %v", err)
	}
	if err := s.Bucket(BucketGenres).Save("genres", []byte(`["rock"]`), now); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	s, err = NewQueryStore(dir, "http://CATALOG.local/")
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer s.Close()

	data, fetchedAt, ok := s.Bucket(BucketGenres).Load("genres")
	if !ok || string(data) != `["rock"]` || !fetchedAt.Equal(now) {
		t.Fatalf("Load after reopen = %s, %v, %v", data, fetchedAt, ok)
	}
}

func TestDeletePrefix(t *testing.T) {
	s, err := NewQueryStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewQueryStore error: %v", err)
	}
	defer s.Close()

	b := s.Bucket(BucketPages)
	for _, k := range []string{"tracks?page=1", "tracks?page=2", "tracks?page=3", "other"} {
		if err := b.Save(k, []byte(`{}`), time.Now()); err != nil {
			t.Fatalf("Save(%s) error: %v", k, err)
		}
	}

	b.DeletePrefix("tracks?")

	for _, k := range []string{"tracks?page=1", "tracks?page=2", "tracks?page=3"} {
		if _, _, ok := b.Load(k); ok {
			t.Fatalf("%s still present after DeletePrefix", k)
		}
	}
	if _, _, ok := b.Load("other"); !ok {
		t.Fatal("unrelated key removed by DeletePrefix")
	}
}

func TestBucketKeys(t *testing.T) {
	dir := t.TempDir()
	s, err := NewQueryStore(dir, "")
	if err != nil {
		t.Fatalf("NewQueryStore error: %v", err)
	}
	_ = s.Bucket(BucketPages).Save("tracks?page=1", []byte(`{}`), time.Now())
	_ = s.Bucket(BucketPages).Save("tracks?page=2", []byte(`{}`), time.Now())
	_ = s.Bucket(BucketGenres).Save("genres", []byte(`[]`), time.Now())
	s.Close()

	// A reopened store has an empty memory cache; keys come from disk.
	s, err = NewQueryStore(dir, "")
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer s.Close()

	keys := s.Bucket(BucketPages).Keys()
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "tracks?page=1" || keys[1] != "tracks?page=2" {
		t.Fatalf("Keys() = %v, want both pages only", keys)
	}

	s.Bucket(BucketPages).Delete("tracks?page=1")
	if keys := s.Bucket(BucketPages).Keys(); len(keys) != 1 {
		t.Fatalf("Keys() after Delete = %v", keys)
	}
}
