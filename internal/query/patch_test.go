package query

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/mmcdole/trackctl/internal/domain"
)

func page(ids ...string) domain.PaginatedResult {
	p := domain.PaginatedResult{Meta: domain.PageMeta{Total: len(ids), Page: 1, Limit: 10}}
	for _, id := range ids {
		p.Data = append(p.Data, domain.Track{ID: id, Title: "t" + id, Artist: "a"})
	}
	p.Meta.TotalPages = domain.TotalPages(p.Meta.Total, p.Meta.Limit)
	return p
}

func TestPatchRollbackRestoresSnapshot(t *testing.T) {
	c, _ := newTestCache[domain.PaginatedResult](t)
	before := page("1", "2", "3")
	c.Set("tracks?page=1", before)

	p, err := c.Patch(context.Background(), Prefix("tracks?"), func(r domain.PaginatedResult) domain.PaginatedResult {
		return r.Without("2")
	})
	if err != nil {
		t.Fatalf("Patch error: %v", err)
	}

	mid, _ := c.Get("tracks?page=1")
	if len(mid.Data.Data) != 2 || mid.Data.Meta.Total != 2 {
		t.Fatalf("patched entry = %+v", mid.Data)
	}

	p.Rollback()
	after, _ := c.Get("tracks?page=1")
	if !reflect.DeepEqual(after.Data, before) {
		t.Fatalf("rolled back entry = %+v, want %+v", after.Data, before)
	}
}

func TestPatchCommitKeepsValue(t *testing.T) {
	c, _ := newTestCache[domain.PaginatedResult](t)
	c.Set("tracks?page=1", page("1", "2"))

	p, _ := c.Patch(context.Background(), All(), func(r domain.PaginatedResult) domain.PaginatedResult {
		return r.Without("1")
	})
	p.Commit()
	p.Rollback() // no-op after commit

	got, _ := c.Get("tracks?page=1")
	if len(got.Data.Data) != 1 || got.Data.Data[0].ID != "2" {
		t.Fatalf("entry = %+v", got.Data)
	}
	if !got.Stale {
		t.Fatalf("committed entry Stale = false, want true")
	}
}

func TestCommitRefetchesOnNextRead(t *testing.T) {
	c, _ := newTestCache[domain.PaginatedResult](t)
	c.Set("tracks?page=1", page("1", "2"))

	p, _ := c.Patch(context.Background(), All(), func(r domain.PaginatedResult) domain.PaginatedResult {
		return r.Without("1")
	})
	p.Commit()

	var calls int
	got, err := c.Fetch(context.Background(), "tracks?page=1", func(ctx context.Context) (domain.PaginatedResult, error) {
		calls++
		return page("2", "3"), nil
	})
	if err != nil || len(got.Data) != 1 {
		t.Fatalf("Fetch = %+v, %v, want patched value while revalidating", got, err)
	}
	c.Wait()
	if calls != 1 {
		t.Fatalf("fetcher calls = %d, want 1", calls)
	}
	after, _ := c.Get("tracks?page=1")
	if len(after.Data.Data) != 2 || after.Stale {
		t.Fatalf("entry after revalidate = %+v", after)
	}
}

func TestPatchesAreLinearized(t *testing.T) {
	c, _ := newTestCache[domain.PaginatedResult](t)
	c.Set("k", page("1", "2"))

	first, _ := c.Patch(context.Background(), All(), func(r domain.PaginatedResult) domain.PaginatedResult {
		return r.Without("1")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.Patch(ctx, All(), func(r domain.PaginatedResult) domain.PaginatedResult { return r }); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("second Patch error = %v, want to wait for the first", err)
	}

	first.Rollback()
	second, err := c.Patch(context.Background(), All(), func(r domain.PaginatedResult) domain.PaginatedResult {
		return r.Without("2")
	})
	if err != nil {
		t.Fatalf("Patch after settle error: %v", err)
	}
	second.Commit()
}

func TestPatchDropsInFlightFetch(t *testing.T) {
	c, _ := newTestCache[domain.PaginatedResult](t)
	c.Set("k", page("1", "2"))
	c.Invalidate(Exact("k"))

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Refetch(context.Background(), "k", func(ctx context.Context) (domain.PaginatedResult, error) {
			close(started)
			<-release
			return page("1", "2"), nil
		})
	}()

	<-started
	p, _ := c.Patch(context.Background(), Exact("k"), func(r domain.PaginatedResult) domain.PaginatedResult {
		return r.Without("1")
	})
	close(release)
	<-done
	p.Commit()

	got, _ := c.Get("k")
	if _, ok := got.Data.Find("1"); ok {
		t.Fatalf("late fetch overwrote optimistic state: %+v", got.Data)
	}
}

func TestMutationOptimisticLifecycle(t *testing.T) {
	c, _ := newTestCache[domain.PaginatedResult](t)
	before := page("1", "2")
	c.Set("k", before)

	var events []string
	failing := errors.New("server said no")

	m := NewMutation("delete", func(ctx context.Context, id string) (struct{}, error) {
		got, _ := c.Get("k")
		if _, ok := got.Data.Find(id); ok {
			t.Fatalf("optimistic update not applied before request")
		}
		return struct{}{}, failing
	}, MutationOptions[string, struct{}]{
		OnMutate: func(ctx context.Context, id string) (Optimistic, error) {
			events = append(events, "mutate")
			return c.Patch(ctx, All(), func(r domain.PaginatedResult) domain.PaginatedResult { return r.Without(id) })
		},
		OnSuccess: func(context.Context, string, struct{}) { events = append(events, "success") },
		OnError:   func(context.Context, string, error) { events = append(events, "error") },
		OnSettled: func(context.Context, string, struct{}, error) { events = append(events, "settled") },
	})

	_, err := m.Run(context.Background(), "1")
	if !errors.Is(err, failing) {
		t.Fatalf("Run error = %v", err)
	}
	if !reflect.DeepEqual(events, []string{"mutate", "error", "settled"}) {
		t.Fatalf("events = %v", events)
	}
	state, lastErr := m.State()
	if state != MutationError || !errors.Is(lastErr, failing) {
		t.Fatalf("state = %v, %v", state, lastErr)
	}

	got, _ := c.Get("k")
	if !reflect.DeepEqual(got.Data, before) {
		t.Fatalf("entry after failure = %+v, want snapshot", got.Data)
	}
}

func TestMutationOneInFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	m := NewMutation("create", func(ctx context.Context, in string) (string, error) {
		close(started)
		<-release
		return in, nil
	}, MutationOptions[string, string]{})

	done := make(chan error)
	go func() {
		_, err := m.Run(context.Background(), "a")
		done <- err
	}()
	<-started

	if !m.Pending() {
		t.Fatal("Pending() = false while running")
	}
	if _, err := m.Run(context.Background(), "b"); !errors.Is(err, domain.ErrMutationPending) {
		t.Fatalf("second Run error = %v, want ErrMutationPending", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first Run error = %v", err)
	}
	if state, _ := m.State(); state != MutationSuccess {
		t.Fatalf("state = %v, want success", state)
	}
}

func TestLatestTickets(t *testing.T) {
	var l Latest
	a := l.Next()
	if !a.Current() {
		t.Fatal("fresh ticket should be current")
	}
	b := l.Next()
	if a.Current() || !b.Current() {
		t.Fatalf("a.Current() = %v, b.Current() = %v", a.Current(), b.Current())
	}
	var zero Ticket
	if zero.Current() {
		t.Fatal("zero ticket should never be current")
	}
}
