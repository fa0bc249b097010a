package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/trackctl/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "trackctl"
)

// Client implements domain.TrackClient over the catalog's REST API.
// Every failure is returned as an error value. Retries are left to callers.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient creates a REST client for the catalog at baseURL.
func NewClient(baseURL string, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request describes one call to the API.
type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
}

// jsonRequest builds a request whose body is v encoded as JSON.
func jsonRequest(op, method, path string, v any) (request, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return request{}, fmt.Errorf("%s: failed to encode request: %w", op, err)
	}
	return request{
		op:          op,
		method:      method,
		path:        path,
		body:        bytes.NewReader(data),
		contentType: "application/json",
	}, nil
}

// doRequest performs r and returns the body of a 2xx response. Non-2xx
// responses are classified into domain errors.
func (c *Client) doRequest(ctx context.Context, r request) ([]byte, error) {
	reqURL := c.baseURL + r.path
	if len(r.query) > 0 {
		reqURL += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, reqURL, r.body)
	if err != nil {
		return nil, &domain.TransportError{Op: r.op, Message: "failed to create request", Err: err}
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	c.logger.Debug("catalog request", "op", r.op, "method", r.method, "url", reqURL, "requestID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		c.logger.Error("catalog request failed", "op", r.op, "error", err, "requestID", requestID)
		return nil, fmt.Errorf("%s: %w", r.op, errors.Join(domain.ErrServerOffline, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.TransportError{Op: r.op, StatusCode: resp.StatusCode, Message: "failed to read response", Err: err}
	}

	c.logger.Debug("catalog response",
		"op", r.op,
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", time.Since(start),
		"requestID", requestID,
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := classify(r.op, resp.StatusCode, body)
		c.logger.Error("catalog request error",
			"op", r.op,
			"status", resp.StatusCode,
			"body", string(body),
			"requestID", requestID,
		)
		return nil, apiErr
	}

	return body, nil
}

// classify maps a non-2xx response onto the domain error taxonomy.
func classify(op string, status int, body []byte) error {
	var eb errorBody
	parsed := json.Unmarshal(body, &eb) == nil && eb.Error != ""

	switch status {
	case http.StatusNotFound:
		if parsed {
			return fmt.Errorf("%s: %w: %s", op, domain.ErrNotFound, eb.Error)
		}
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusConflict:
		msg := "request was rejected"
		if parsed {
			msg = eb.Error
		}
		return &domain.ValidationError{
			Op:      op,
			Message: msg,
			Details: eb.Details,
			Source:  domain.SourceServer,
		}
	}

	te := &domain.TransportError{Op: op, StatusCode: status}
	if parsed {
		te.Message = eb.Error
	} else {
		te.Message = http.StatusText(status)
	}
	return te
}
