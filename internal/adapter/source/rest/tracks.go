package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mmcdole/trackctl/internal/domain"
	"github.com/mmcdole/trackctl/internal/params"
	"github.com/mmcdole/trackctl/internal/validate"
)

func trackPath(id string) string {
	return "/api/tracks/" + url.PathEscape(id)
}

// ListTracks returns one page of tracks. Empty params yield the default
// first page.
func (c *Client) ListTracks(ctx context.Context, p domain.QueryParams) (*domain.PaginatedResult, error) {
	const op = "list tracks"
	body, err := c.doRequest(ctx, request{
		op:     op,
		method: http.MethodGet,
		path:   "/api/tracks",
		query:  params.Values(p.WithDefaults()),
	})
	if err != nil {
		return nil, err
	}

	page, err := validate.Decode[domain.PaginatedResult](op, body)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// GetTrack returns the track with the given id.
func (c *Client) GetTrack(ctx context.Context, id string) (*domain.Track, error) {
	return c.getTrack(ctx, "get track", id)
}

// GetTrackBySlug returns the track with the given slug. The catalog
// resolves ids and slugs on the same route.
func (c *Client) GetTrackBySlug(ctx context.Context, slug string) (*domain.Track, error) {
	return c.getTrack(ctx, "get track by slug", slug)
}

func (c *Client) getTrack(ctx context.Context, op, ref string) (*domain.Track, error) {
	if ref == "" {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	body, err := c.doRequest(ctx, request{op: op, method: http.MethodGet, path: trackPath(ref)})
	if err != nil {
		return nil, err
	}
	return c.decodeTrack(op, body)
}

// CreateTrack creates a track. The server assigns id, slug and timestamps.
func (c *Client) CreateTrack(ctx context.Context, in domain.CreateTrackInput) (*domain.Track, error) {
	const op = "create track"
	if in.Genres == nil {
		in.Genres = []string{}
	}
	req, err := jsonRequest(op, http.MethodPost, "/api/tracks", in)
	if err != nil {
		return nil, err
	}
	body, err := c.doRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	return c.decodeTrack(op, body)
}

// UpdateTrack sends only the fields set in in.
func (c *Client) UpdateTrack(ctx context.Context, id string, in domain.UpdateTrackInput) (*domain.Track, error) {
	const op = "update track"
	req, err := jsonRequest(op, http.MethodPut, trackPath(id), in)
	if err != nil {
		return nil, err
	}
	body, err := c.doRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	return c.decodeTrack(op, body)
}

// DeleteTrack deletes one track.
func (c *Client) DeleteTrack(ctx context.Context, id string) error {
	const op = "delete track"
	body, err := c.doRequest(ctx, request{op: op, method: http.MethodDelete, path: trackPath(id)})
	if err != nil {
		return err
	}
	return validate.Void(op, body)
}

// DeleteTracks deletes many tracks in one request. Ids the server could not
// delete are reported in the result, not as an error.
func (c *Client) DeleteTracks(ctx context.Context, ids []string) (*domain.BatchDeleteResult, error) {
	const op = "delete tracks"
	req, err := jsonRequest(op, http.MethodPost, "/api/tracks/delete", batchDeleteRequest{IDs: ids})
	if err != nil {
		return nil, err
	}
	body, err := c.doRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	res, err := validate.Decode[domain.BatchDeleteResult](op, body)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// DeleteFile removes the audio file attached to a track.
func (c *Client) DeleteFile(ctx context.Context, id string) (*domain.Track, error) {
	const op = "delete file"
	body, err := c.doRequest(ctx, request{op: op, method: http.MethodDelete, path: trackPath(id) + "/file"})
	if err != nil {
		return nil, err
	}
	return c.decodeTrack(op, body)
}

// ListGenres returns every genre known to the catalog.
func (c *Client) ListGenres(ctx context.Context) ([]string, error) {
	const op = "list genres"
	body, err := c.doRequest(ctx, request{op: op, method: http.MethodGet, path: "/api/genres"})
	if err != nil {
		return nil, err
	}
	return validate.Decode[[]string](op, body)
}

// AudioURL returns the stream URL for an audio file reference.
func (c *Client) AudioURL(audioFile string) string {
	if audioFile == "" {
		return ""
	}
	return c.baseURL + "/api/files/" + url.PathEscape(audioFile)
}

// Ping checks that the catalog answers on its genre endpoint.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.ListGenres(ctx)
	return err
}

func (c *Client) decodeTrack(op string, body []byte) (*domain.Track, error) {
	t, err := validate.Decode[domain.Track](op, body)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

var (
	_ domain.TrackClient    = (*Client)(nil)
	_ domain.StreamResolver = (*Client)(nil)
)
