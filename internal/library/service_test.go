package library

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/trackctl/internal/domain"
	"github.com/mmcdole/trackctl/internal/params"
	"github.com/mmcdole/trackctl/internal/query"
	"github.com/mmcdole/trackctl/internal/session"
	"github.com/mmcdole/trackctl/internal/store"
)

func newTestService(t *testing.T, client *fakeClient) *Service {
	t.Helper()
	view := params.NewState(domain.QueryParams{}, domain.DefaultLimit)
	return NewService(client, view, session.New(), Options{StaleTime: time.Minute})
}

func ids(tracks []domain.Track) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.ID
	}
	return out
}

func TestListDefaults(t *testing.T) {
	client := newFakeClient(25)
	svc := newTestService(t, client)

	page, err := svc.ListTracks(context.Background(), domain.QueryParams{})
	if err != nil {
		t.Fatalf("ListTracks error: %v", err)
	}
	if page.Meta.Page != 1 || page.Meta.Limit != 10 || len(page.Data) != 10 {
		t.Fatalf("meta = %+v, rows = %d", page.Meta, len(page.Data))
	}
	if page.Meta.TotalPages != 3 {
		t.Fatalf("TotalPages = %d, want 3", page.Meta.TotalPages)
	}

	if _, err := svc.ListTracks(context.Background(), domain.QueryParams{Page: 1, Limit: 10}); err != nil {
		t.Fatalf("second ListTracks error: %v", err)
	}
	if client.calls.Load() != 1 {
		t.Fatalf("client calls = %d, want 1 (fresh cache hit)", client.calls.Load())
	}
}

func TestCreateThenSearch(t *testing.T) {
	client := newFakeClient(3)
	svc := newTestService(t, client)

	track, err := svc.CreateTrack(context.Background(), domain.CreateTrackInput{
		Title: "Test Song", Artist: "Test Artist", Genres: []string{"rock", "pop"},
	})
	if err != nil {
		t.Fatalf("CreateTrack error: %v", err)
	}
	if track.ID == "" || track.Slug != "test-song" || track.CreatedAt.IsZero() {
		t.Fatalf("created track = %+v", track)
	}

	page, err := svc.ListTracks(context.Background(), domain.QueryParams{Search: "Test Song"})
	if err != nil {
		t.Fatalf("ListTracks error: %v", err)
	}
	if !slices.Contains(ids(page.Data), track.ID) {
		t.Fatalf("new track missing from search results: %v", ids(page.Data))
	}
}

func TestCreateValidatesBeforeRequest(t *testing.T) {
	client := newFakeClient(0)
	svc := newTestService(t, client)

	_, err := svc.CreateTrack(context.Background(), domain.CreateTrackInput{Title: "  ", Artist: "A"})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Source != domain.SourceClient {
		t.Fatalf("error = %v, want client ValidationError", err)
	}
	if client.calls.Load() != 0 {
		t.Fatalf("client calls = %d, want 0", client.calls.Load())
	}
}

func TestCreateInvalidatesLists(t *testing.T) {
	client := newFakeClient(3)
	svc := newTestService(t, client)
	ctx := context.Background()

	if _, err := svc.ListTracks(ctx, domain.QueryParams{}); err != nil {
		t.Fatalf("ListTracks error: %v", err)
	}
	if _, err := svc.CreateTrack(ctx, domain.CreateTrackInput{Title: "New", Artist: "A"}); err != nil {
		t.Fatalf("CreateTrack error: %v", err)
	}

	// Stale entry is served while the refetch runs.
	svc.ListTracks(ctx, domain.QueryParams{})
	svc.Wait()
	page, _ := svc.ListTracks(ctx, domain.QueryParams{})
	if page.Meta.Total != 4 {
		t.Fatalf("Total after create = %d, want 4", page.Meta.Total)
	}
}

func TestUpdateChangesOnlySuppliedFields(t *testing.T) {
	client := newFakeClient(0)
	client.add(domain.Track{Title: "Orig", Artist: "A", Album: "Album", Genres: []string{"jazz"}})
	svc := newTestService(t, client)

	title := "Updated"
	got, err := svc.UpdateTrack(context.Background(), "t1", domain.UpdateTrackInput{Title: &title})
	if err != nil {
		t.Fatalf("UpdateTrack error: %v", err)
	}
	if got.Title != "Updated" || got.Album != "Album" || !domain.SameGenres(got.Genres, []string{"jazz"}) {
		t.Fatalf("updated track = %+v", got)
	}
}

func TestBatchDeleteOptimisticAndPartial(t *testing.T) {
	client := newFakeClient(5)
	svc := newTestService(t, client)
	ctx := context.Background()

	if _, err := svc.LoadView(ctx); err != nil {
		t.Fatalf("LoadView error: %v", err)
	}
	svc.Session().Selection.Select("t2")
	svc.Session().Selection.Select("fake-id")

	client.gate = func(op string, arg any) error {
		if op != "delete batch" {
			return nil
		}
		v, ok := svc.CurrentView()
		if !ok {
			t.Errorf("no cached view during delete")
			return nil
		}
		if _, found := v.Page.Find("t2"); found {
			t.Errorf("t2 still visible before delete resolved")
		}
		if v.Page.Meta.Total != 4 {
			t.Errorf("optimistic total = %d, want 4", v.Page.Meta.Total)
		}
		return nil
	}

	res, err := svc.DeleteTracks(ctx, []string{"t2", "fake-id"})
	if err != nil {
		t.Fatalf("DeleteTracks error: %v", err)
	}
	if !slices.Contains(res.Success, "t2") || !slices.Contains(res.Failed, "fake-id") {
		t.Fatalf("result = %+v", res)
	}
	if svc.Session().Selection.Len() != 0 {
		t.Fatalf("selection = %v, want cleared", svc.Session().Selection.IDs())
	}
}

func TestDeleteRollbackOnFailure(t *testing.T) {
	client := newFakeClient(3)
	svc := newTestService(t, client)
	ctx := context.Background()

	before, err := svc.LoadView(ctx)
	if err != nil {
		t.Fatalf("LoadView error: %v", err)
	}
	svc.Session().Selection.Select("t1")

	boom := &domain.TransportError{Op: "delete track", StatusCode: 500, Message: "database down"}
	client.gate = func(op string, arg any) error {
		if op == "delete" {
			return boom
		}
		return nil
	}

	if err := svc.DeleteTrack(ctx, "t1"); !errors.Is(err, boom) {
		t.Fatalf("DeleteTrack error = %v, want %v", err, boom)
	}

	after, ok := svc.CurrentView()
	if !ok {
		t.Fatal("no cached view after rollback")
	}
	if !slices.Equal(ids(after.Page.Data), ids(before.Page.Data)) || after.Page.Meta != before.Page.Meta {
		t.Fatalf("after rollback = %+v, want %+v", after.Page, before.Page)
	}
	if !svc.Session().Selection.Has("t1") {
		t.Fatal("failed delete must not change selection")
	}
}

func TestDeletePlayingTrackStopsPlayback(t *testing.T) {
	client := newFakeClient(3)
	svc := newTestService(t, client)
	ctx := context.Background()

	svc.Session().Playback.Toggle("t2")
	svc.Session().Selection.Select("t2")

	if err := svc.DeleteTrack(ctx, "t2"); err != nil {
		t.Fatalf("DeleteTrack error: %v", err)
	}
	if svc.Session().Playback.Playing() != "" {
		t.Fatalf("Playing = %q, want stopped", svc.Session().Playback.Playing())
	}
	if svc.Session().Selection.Has("t2") {
		t.Fatal("deleted track still selected")
	}
}

func TestDeleteAlreadyRemovedKeepsSelection(t *testing.T) {
	client := newFakeClient(3)
	svc := newTestService(t, client)
	ctx := context.Background()

	if _, err := svc.LoadView(ctx); err != nil {
		t.Fatalf("LoadView error: %v", err)
	}
	svc.Session().Selection.Select("t1")
	if err := svc.DeleteTrack(ctx, "t2"); err != nil {
		t.Fatalf("DeleteTrack error: %v", err)
	}

	err := svc.DeleteTrack(ctx, "t2")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete error = %v, want ErrNotFound", err)
	}
	if got := svc.Session().Selection.IDs(); !slices.Equal(got, []string{"t1"}) {
		t.Fatalf("selection = %v, want [t1]", got)
	}
}

func TestRemoveFileStopsPlayback(t *testing.T) {
	client := newFakeClient(2)
	svc := newTestService(t, client)
	ctx := context.Background()

	if _, err := svc.UploadFile(ctx, "t1", domain.AudioFile{Name: "a.mp3", ContentType: "audio/mpeg", Body: []byte("x")}); err != nil {
		t.Fatalf("UploadFile error: %v", err)
	}
	svc.Session().Playback.Toggle("t1")

	track, err := svc.RemoveFile(ctx, "t1")
	if err != nil {
		t.Fatalf("RemoveFile error: %v", err)
	}
	if track.HasAudio() {
		t.Fatalf("track still has audio: %+v", track)
	}
	if svc.Session().Playback.Playing() != "" {
		t.Fatal("playback not stopped after file removal")
	}
}

func TestRapidFilterChangesKeepLatest(t *testing.T) {
	client := newFakeClient(12)
	svc := newTestService(t, client)
	ctx := context.Background()

	releaseA := make(chan struct{})
	startedA := make(chan struct{})
	client.gate = func(op string, arg any) error {
		if p, ok := arg.(domain.QueryParams); ok && op == "list" && p.Search == "Song 0" {
			close(startedA)
			<-releaseA
		}
		return nil
	}

	svc.View().SetSearch("Song 0")
	resultA := make(chan error, 1)
	go func() {
		_, err := svc.LoadView(ctx)
		resultA <- err
	}()
	<-startedA

	svc.View().SetSearch("Song 1")
	viewB, err := svc.LoadView(ctx)
	if err != nil {
		t.Fatalf("LoadView(B) error: %v", err)
	}

	close(releaseA)
	if err := <-resultA; !errors.Is(err, domain.ErrSuperseded) {
		t.Fatalf("LoadView(A) error = %v, want ErrSuperseded", err)
	}

	current, ok := svc.CurrentView()
	if !ok || current.Params.Search != "Song 1" {
		t.Fatalf("current view = %+v", current.Params)
	}
	if !slices.Equal(ids(current.Page.Data), ids(viewB.Page.Data)) {
		t.Fatalf("current page = %v, want B's %v", ids(current.Page.Data), ids(viewB.Page.Data))
	}
}

func TestMutationPendingRejected(t *testing.T) {
	client := newFakeClient(3)
	svc := newTestService(t, client)
	ctx := context.Background()

	release := make(chan struct{})
	started := make(chan struct{})
	client.gate = func(op string, arg any) error {
		if op == "delete" {
			close(started)
			<-release
		}
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- svc.DeleteTrack(ctx, "t1") }()
	<-started

	if !svc.Busy() {
		t.Fatal("Busy() = false during delete")
	}
	if err := svc.DeleteTrack(ctx, "t2"); !errors.Is(err, domain.ErrMutationPending) {
		t.Fatalf("concurrent delete error = %v, want ErrMutationPending", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first delete error: %v", err)
	}
}

func TestFetchAllWalksPages(t *testing.T) {
	client := newFakeClient(250)
	svc := newTestService(t, client)

	var lastLoaded, lastTotal int
	all, err := svc.FetchAll(context.Background(), domain.QueryParams{}, func(loaded, total int) {
		lastLoaded, lastTotal = loaded, total
	})
	if err != nil {
		t.Fatalf("FetchAll error: %v", err)
	}
	if len(all) != 250 || lastLoaded != 250 || lastTotal != 250 {
		t.Fatalf("FetchAll = %d tracks, progress %d/%d", len(all), lastLoaded, lastTotal)
	}
}

func TestCreateDuringFirstLoadShowsNewTrack(t *testing.T) {
	client := newFakeClient(3)
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	client.gate = func(op string, _ any) error {
		if op == "list" {
			first := false
			once.Do(func() { first = true })
			if first {
				close(started)
				<-release
			}
		}
		return nil
	}
	svc := newTestService(t, client)

	type result struct {
		v   View
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := svc.LoadView(context.Background())
		done <- result{v, err}
	}()

	<-started
	created, err := svc.CreateTrack(context.Background(), domain.CreateTrackInput{Title: "Fresh", Artist: "A"})
	if err != nil {
		t.Fatalf("CreateTrack error: %v", err)
	}
	close(release)
	res := <-done

	if res.err != nil {
		t.Fatalf("LoadView error: %v", res.err)
	}
	if !slices.Contains(ids(res.v.Page.Data), created.ID) {
		t.Fatalf("LoadView rows = %v, want created track %s", ids(res.v.Page.Data), created.ID)
	}
	cur, ok := svc.CurrentView()
	if !ok || cur.Status != query.StatusSuccess || cur.Stale {
		t.Fatalf("CurrentView = %+v, %v, want fresh success", cur, ok)
	}
}

func TestMutationsReachNextSession(t *testing.T) {
	dir := t.TempDir()
	client := newFakeClient(3)

	// Each session opens the store, runs one command and closes it, the
	// way separate CLI invocations do.
	run := func(fn func(svc *Service)) {
		t.Helper()
		st, err := store.NewQueryStore(dir, "http://catalog.local")
		if err != nil {
			t.Fatalf("NewQueryStore error: %v", err)
		}
		view := params.NewState(domain.QueryParams{}, domain.DefaultLimit)
		svc := NewService(client, view, session.New(), Options{Store: st})
		fn(svc)
		svc.Wait()
		if err := st.Close(); err != nil {
			t.Fatalf("Close error: %v", err)
		}
	}

	run(func(svc *Service) {
		if _, err := svc.LoadView(context.Background()); err != nil {
			t.Fatalf("LoadView error: %v", err)
		}
	})

	var created *domain.Track
	run(func(svc *Service) {
		var err error
		created, err = svc.CreateTrack(context.Background(), domain.CreateTrackInput{Title: "Fresh", Artist: "A"})
		if err != nil {
			t.Fatalf("CreateTrack error: %v", err)
		}
	})

	run(func(svc *Service) {
		v, err := svc.LoadView(context.Background())
		if err != nil {
			t.Fatalf("LoadView error: %v", err)
		}
		if !slices.Contains(ids(v.Page.Data), created.ID) {
			t.Fatalf("rows = %v, stale = %v, want created track %s", ids(v.Page.Data), v.Stale, created.ID)
		}
	})

	run(func(svc *Service) {
		if err := svc.DeleteTrack(context.Background(), created.ID); err != nil {
			t.Fatalf("DeleteTrack error: %v", err)
		}
	})

	run(func(svc *Service) {
		v, err := svc.LoadView(context.Background())
		if err != nil {
			t.Fatalf("LoadView error: %v", err)
		}
		if slices.Contains(ids(v.Page.Data), created.ID) {
			t.Fatalf("deleted track %s still listed: %v", created.ID, ids(v.Page.Data))
		}
	})
}

func TestWarmLoadsViewAndGenres(t *testing.T) {
	client := newFakeClient(3)
	svc := newTestService(t, client)

	if err := svc.Warm(context.Background()); err != nil {
		t.Fatalf("Warm error: %v", err)
	}
	if _, ok := svc.CurrentView(); !ok {
		t.Fatal("view not cached after Warm")
	}
	if genres, ok := svc.CachedGenres(); !ok || !slices.Equal(genres, []string{"rock"}) {
		t.Fatalf("CachedGenres = %v, %v", genres, ok)
	}
}
