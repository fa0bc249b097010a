package library

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mmcdole/trackctl/internal/domain"
	"github.com/mmcdole/trackctl/internal/params"
	"github.com/mmcdole/trackctl/internal/query"
	"github.com/mmcdole/trackctl/internal/session"
	"github.com/mmcdole/trackctl/internal/store"
	"golang.org/x/sync/errgroup"
)

const (
	genresKey        = "genres"
	defaultChunkSize = 100
)

// Options configures a Service.
type Options struct {
	// StaleTime is how long a read is served without refetching.
	StaleTime time.Duration
	// PageSize is the default list page size.
	PageSize int
	// Store persists reads between sessions. Nil keeps them in memory.
	Store  *store.QueryStore
	Logger *slog.Logger
}

// View is one loaded page together with the params that produced it.
type View struct {
	Params domain.QueryParams
	Page   domain.PaginatedResult
	// Stale is set when the page was served from an entry past its
	// freshness window; a refetch is under way.
	Stale bool
	// Status is the fetch state of the page's cache entry.
	Status query.Status
}

// Service orchestrates the catalog client, the query caches and the
// session state.
type Service struct {
	client  domain.TrackClient
	view    *params.State
	session *session.State
	logger  *slog.Logger

	pages  *query.Cache[domain.PaginatedResult]
	tracks *query.Cache[domain.Track]
	genres *query.Cache[[]string]
	latest query.Latest

	create      *query.Mutation[domain.CreateTrackInput, *domain.Track]
	update      *query.Mutation[updateArgs, *domain.Track]
	remove      *query.Mutation[string, struct{}]
	removeBatch *query.Mutation[[]string, *domain.BatchDeleteResult]
	upload      *query.Mutation[uploadArgs, *domain.Track]
	removeFile  *query.Mutation[string, *domain.Track]
}

// NewService creates a new catalog service.
func NewService(client domain.TrackClient, view *params.State, state *session.State, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.PageSize <= 0 {
		opts.PageSize = domain.DefaultLimit
	}

	cacheOpts := func(name, bucket string) query.Options {
		o := query.Options{Name: name, StaleTime: opts.StaleTime, Logger: opts.Logger}
		if opts.Store != nil {
			o.Persister = opts.Store.Bucket(bucket)
		}
		return o
	}

	s := &Service{
		client:  client,
		view:    view,
		session: state,
		logger:  opts.Logger,
		pages:   query.New[domain.PaginatedResult](cacheOpts("pages", store.BucketPages)),
		tracks:  query.New[domain.Track](cacheOpts("tracks", store.BucketTracks)),
		genres:  query.New[[]string](cacheOpts("genres", store.BucketGenres)),
	}
	s.initMutations()
	return s
}

// Subscribe registers o for updates from every cache.
func (s *Service) Subscribe(o query.Observer) {
	s.pages.Subscribe(o)
	s.tracks.Subscribe(o)
	s.genres.Subscribe(o)
}

// View returns the filter, sort and pagination state.
func (s *Service) View() *params.State {
	return s.view
}

// Session returns the selection and playback state.
func (s *Service) Session() *session.State {
	return s.session
}

// ListTracks returns the page described by p.
func (s *Service) ListTracks(ctx context.Context, p domain.QueryParams) (domain.PaginatedResult, error) {
	p = p.WithDefaults()
	return s.pages.Fetch(ctx, params.Key(p), s.listFetcher(p))
}

func (s *Service) listFetcher(p domain.QueryParams) query.Fetcher[domain.PaginatedResult] {
	return func(ctx context.Context) (domain.PaginatedResult, error) {
		res, err := s.client.ListTracks(ctx, p)
		if err != nil {
			return domain.PaginatedResult{}, err
		}
		s.logger.Debug("fetched tracks", "count", len(res.Data), "total", res.Meta.Total, "page", p.Page)
		return *res, nil
	}
}

// LoadView loads the page for the current view state. When the view changes
// again before the read completes, the result is dropped and
// domain.ErrSuperseded returned.
func (s *Service) LoadView(ctx context.Context) (View, error) {
	ticket := s.latest.Next()
	p := s.view.Params()

	page, err := s.ListTracks(ctx, p)
	if !ticket.Current() {
		s.logger.Debug("dropping superseded view", "query", params.Encode(p))
		return View{}, domain.ErrSuperseded
	}
	if err != nil {
		s.logger.Error("failed to load tracks", "error", err, "query", params.Encode(p))
		return View{Params: p}, err
	}

	v := View{Params: p, Page: page, Status: query.StatusSuccess}
	if e, ok := s.pages.Get(params.Key(p)); ok {
		v.Stale = e.Stale
		v.Status = e.Status
	}
	return v, nil
}

// Refresh marks every list and the genre list stale and reloads the view.
func (s *Service) Refresh(ctx context.Context) (View, error) {
	s.invalidateLists()
	s.genres.Invalidate(query.All())
	return s.LoadView(ctx)
}

// Warm loads the current view and the genre list in parallel.
func (s *Service) Warm(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.LoadView(ctx)
		if errors.Is(err, domain.ErrSuperseded) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		_, err := s.Genres(ctx)
		return err
	})
	return g.Wait()
}

// PrefetchNext loads the page after v in the background.
func (s *Service) PrefetchNext(ctx context.Context, v View) {
	if !v.Page.HasNext() {
		return
	}
	next := v.Params
	next.Page++
	s.pages.Prefetch(ctx, params.Key(next), s.listFetcher(next))
}

// Genres returns every genre in the catalog.
func (s *Service) Genres(ctx context.Context) ([]string, error) {
	genres, err := s.genres.Fetch(ctx, genresKey, func(ctx context.Context) ([]string, error) {
		return s.client.ListGenres(ctx)
	})
	if err != nil {
		s.logger.Error("failed to fetch genres", "error", err)
		return nil, err
	}
	return genres, nil
}

// GetTrack returns the track with id.
func (s *Service) GetTrack(ctx context.Context, id string) (domain.Track, error) {
	return s.tracks.Fetch(ctx, trackKey(id), func(ctx context.Context) (domain.Track, error) {
		t, err := s.client.GetTrack(ctx, id)
		if err != nil {
			return domain.Track{}, err
		}
		return *t, nil
	})
}

// GetTrackBySlug returns the track with slug.
func (s *Service) GetTrackBySlug(ctx context.Context, slug string) (domain.Track, error) {
	return s.tracks.Fetch(ctx, slugKey(slug), func(ctx context.Context) (domain.Track, error) {
		t, err := s.client.GetTrackBySlug(ctx, slug)
		if err != nil {
			return domain.Track{}, err
		}
		return *t, nil
	})
}

// FetchAll walks every page matching p and returns all tracks.
func (s *Service) FetchAll(ctx context.Context, p domain.QueryParams, onProgress func(loaded, total int)) ([]domain.Track, error) {
	return fetchAll(ctx,
		func(ctx context.Context, page, limit int) ([]domain.Track, int, error) {
			q := p
			q.Page = page
			q.Limit = limit
			res, err := s.ListTracks(ctx, q)
			if err != nil {
				return nil, 0, err
			}
			return res.Data, res.Meta.Total, nil
		},
		defaultChunkSize,
		onProgress,
	)
}

// Wait blocks until background refetches have finished.
func (s *Service) Wait() {
	s.pages.Wait()
	s.tracks.Wait()
	s.genres.Wait()
}

func (s *Service) invalidateLists() {
	s.pages.Invalidate(query.Prefix(params.ListPrefix))
}

func trackKey(id string) string {
	return "id:" + id
}

func slugKey(slug string) string {
	return "slug:" + slug
}

// fetchAll is a generic pagination helper.
func fetchAll[T any](
	ctx context.Context,
	fetch func(ctx context.Context, page, limit int) ([]T, int, error),
	chunkSize int,
	onProgress func(loaded, total int),
) ([]T, error) {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}

	var all []T
	page := 1

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		items, total, err := fetch(ctx, page, chunkSize)
		if err != nil {
			return nil, err
		}

		all = append(all, items...)

		if onProgress != nil {
			onProgress(len(all), total)
		}

		if len(all) >= total || len(items) == 0 {
			break
		}
		page++
	}

	return all, nil
}
