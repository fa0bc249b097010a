package library

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mmcdole/trackctl/internal/domain"
)

// fakeClient is an in-memory catalog.
type fakeClient struct {
	mu     sync.Mutex
	tracks []domain.Track
	nextID int

	calls atomic.Int32

	// gate, when set, is called at the start of every request with the op
	// name and may block or fail it.
	gate func(op string, arg any) error
}

func newFakeClient(n int) *fakeClient {
	f := &fakeClient{}
	for i := 1; i <= n; i++ {
		f.add(domain.Track{
			Title:  fmt.Sprintf("Song %02d", i),
			Artist: fmt.Sprintf("Artist %d", i%3),
			Genres: []string{"rock"},
		})
	}
	return f
}

func (f *fakeClient) add(t domain.Track) domain.Track {
	f.nextID++
	t.ID = fmt.Sprintf("t%d", f.nextID)
	t.Slug = strings.ReplaceAll(strings.ToLower(t.Title), " ", "-")
	t.CreatedAt = time.Date(2024, 1, 1, 0, 0, f.nextID, 0, time.UTC)
	t.UpdatedAt = t.CreatedAt
	if t.Genres == nil {
		t.Genres = []string{}
	}
	f.tracks = append(f.tracks, t)
	return t
}

func (f *fakeClient) enter(op string, arg any) error {
	f.calls.Add(1)
	if f.gate != nil {
		return f.gate(op, arg)
	}
	return nil
}

func (f *fakeClient) find(id string) int {
	return slices.IndexFunc(f.tracks, func(t domain.Track) bool { return t.ID == id || t.Slug == id })
}

func (f *fakeClient) ListTracks(ctx context.Context, p domain.QueryParams) (*domain.PaginatedResult, error) {
	if err := f.enter("list", p); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	p = p.WithDefaults()
	var matched []domain.Track
	for _, t := range f.tracks {
		if p.Search != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(p.Search)) {
			continue
		}
		if p.Artist != "" && !strings.Contains(t.Artist, p.Artist) {
			continue
		}
		if p.Genre != "" && !slices.Contains(t.Genres, p.Genre) {
			continue
		}
		matched = append(matched, t)
	}

	start := min((p.Page-1)*p.Limit, len(matched))
	end := min(start+p.Limit, len(matched))
	return &domain.PaginatedResult{
		Data: slices.Clone(matched[start:end]),
		Meta: domain.PageMeta{
			Total:      len(matched),
			Page:       p.Page,
			Limit:      p.Limit,
			TotalPages: domain.TotalPages(len(matched), p.Limit),
		},
	}, nil
}

func (f *fakeClient) GetTrack(ctx context.Context, id string) (*domain.Track, error) {
	if err := f.enter("get", id); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(id)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	t := f.tracks[i]
	return &t, nil
}

func (f *fakeClient) GetTrackBySlug(ctx context.Context, slug string) (*domain.Track, error) {
	return f.GetTrack(ctx, slug)
}

func (f *fakeClient) CreateTrack(ctx context.Context, in domain.CreateTrackInput) (*domain.Track, error) {
	if err := f.enter("create", in); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.add(domain.Track{Title: in.Title, Artist: in.Artist, Album: in.Album, Genres: in.Genres, CoverImage: in.CoverImage})
	return &t, nil
}

func (f *fakeClient) UpdateTrack(ctx context.Context, id string, in domain.UpdateTrackInput) (*domain.Track, error) {
	if err := f.enter("update", in); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(id)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	t := &f.tracks[i]
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Artist != nil {
		t.Artist = *in.Artist
	}
	if in.Album != nil {
		t.Album = *in.Album
	}
	if in.Genres != nil {
		t.Genres = *in.Genres
	}
	if in.CoverImage != nil {
		t.CoverImage = *in.CoverImage
	}
	out := *t
	return &out, nil
}

func (f *fakeClient) DeleteTrack(ctx context.Context, id string) error {
	if err := f.enter("delete", id); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(id)
	if i < 0 {
		return domain.ErrNotFound
	}
	f.tracks = slices.Delete(f.tracks, i, i+1)
	return nil
}

func (f *fakeClient) DeleteTracks(ctx context.Context, ids []string) (*domain.BatchDeleteResult, error) {
	if err := f.enter("delete batch", ids); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	res := &domain.BatchDeleteResult{Success: []string{}, Failed: []string{}}
	for _, id := range ids {
		i := f.find(id)
		if i < 0 {
			res.Failed = append(res.Failed, id)
			continue
		}
		f.tracks = slices.Delete(f.tracks, i, i+1)
		res.Success = append(res.Success, id)
	}
	return res, nil
}

func (f *fakeClient) UploadFile(ctx context.Context, id string, file domain.AudioFile) (*domain.Track, error) {
	if err := f.enter("upload", id); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(id)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	f.tracks[i].AudioFile = id + "-" + file.Name
	t := f.tracks[i]
	return &t, nil
}

func (f *fakeClient) DeleteFile(ctx context.Context, id string) (*domain.Track, error) {
	if err := f.enter("delete file", id); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(id)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	f.tracks[i].AudioFile = ""
	t := f.tracks[i]
	return &t, nil
}

func (f *fakeClient) ListGenres(ctx context.Context) ([]string, error) {
	if err := f.enter("genres", nil); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var genres []string
	for _, t := range f.tracks {
		for _, g := range t.Genres {
			if !slices.Contains(genres, g) {
				genres = append(genres, g)
			}
		}
	}
	slices.Sort(genres)
	return genres, nil
}

var _ domain.TrackClient = (*fakeClient)(nil)
