package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/mmcdole/trackctl/internal/domain"
)

const trackJSON = `{"id":"t1","title":"Test Song","artist":"Test Artist","album":"","genres":["rock","pop"],"slug":"test-song","createdAt":"2024-01-01T00:00:00Z","updatedAt":"2024-01-01T00:00:00Z"}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, nil)
}

func TestListTracksDefaults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tracks" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("page"); got != "1" {
			t.Fatalf("page = %q, want 1", got)
		}
		if got := r.URL.Query().Get("limit"); got != "10" {
			t.Fatalf("limit = %q, want 10", got)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Fatal("missing X-Request-ID header")
		}
		_, _ = w.Write([]byte(`{"data":[` + trackJSON + `],"meta":{"total":1,"page":1,"limit":10,"totalPages":1}}`))
	})

	page, err := client.ListTracks(context.Background(), domain.QueryParams{})
	if err != nil {
		t.Fatalf("ListTracks error: %v", err)
	}
	if len(page.Data) != 1 || page.Data[0].ID != "t1" {
		t.Fatalf("page data = %+v", page.Data)
	}
}

func TestListTracksSendsFilters(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("search") != "Test Song" || q.Get("genre") != "rock" || q.Get("sort") != "title" || q.Get("order") != "desc" {
			t.Fatalf("query = %v", q)
		}
		_, _ = w.Write([]byte(`{"data":[],"meta":{"total":0,"page":1,"limit":10,"totalPages":0}}`))
	})

	_, err := client.ListTracks(context.Background(), domain.QueryParams{
		Search: "Test Song", Genre: "rock", Sort: domain.SortTitle, Order: domain.OrderDesc,
	})
	if err != nil {
		t.Fatalf("ListTracks error: %v", err)
	}
}

func TestMalformedSuccessIsFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[]}`))
	})

	page, err := client.ListTracks(context.Background(), domain.QueryParams{})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Source != domain.SourceResponse {
		t.Fatalf("error = %v, want response ValidationError", err)
	}
	if page != nil {
		t.Fatalf("page = %+v, want nil", page)
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name: "not found", status: 404, body: `{"error":"Track not found"}`,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, domain.ErrNotFound) {
					t.Fatalf("error = %v, want ErrNotFound", err)
				}
			},
		},
		{
			name: "validation", status: 400, body: `{"error":"Title is required","statusCode":400,"details":["title"]}`,
			check: func(t *testing.T, err error) {
				var ve *domain.ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("error = %v, want ValidationError", err)
				}
				if ve.Message != "Title is required" || ve.Source != domain.SourceServer {
					t.Fatalf("ValidationError = %+v", ve)
				}
				if domain.UserMessage(err) != "Title is required" {
					t.Fatalf("UserMessage = %q", domain.UserMessage(err))
				}
			},
		},
		{
			name: "server error with message", status: 500, body: `{"error":"database down"}`,
			check: func(t *testing.T, err error) {
				var te *domain.TransportError
				if !errors.As(err, &te) || te.StatusCode != 500 || te.Message != "database down" {
					t.Fatalf("error = %v, want TransportError 500", err)
				}
			},
		},
		{
			name: "unparsable error body", status: 502, body: `<html>bad gateway</html>`,
			check: func(t *testing.T, err error) {
				var te *domain.TransportError
				if !errors.As(err, &te) || te.Message != "Bad Gateway" {
					t.Fatalf("error = %v, want TransportError with status text", err)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := client.GetTrack(context.Background(), "t1")
			tt.check(t, err)
		})
	}
}

func TestServerOffline(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(url, nil)
	_, err := client.ListGenres(context.Background())
	if !errors.Is(err, domain.ErrServerOffline) {
		t.Fatalf("error = %v, want ErrServerOffline", err)
	}
}

func TestCreateTrack(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/tracks" {
			t.Fatalf("%s %s", r.Method, r.URL.Path)
		}
		var in domain.CreateTrackInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if in.Title != "Test Song" || len(in.Genres) != 2 {
			t.Fatalf("body = %+v", in)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(trackJSON))
	})

	track, err := client.CreateTrack(context.Background(), domain.CreateTrackInput{
		Title: "Test Song", Artist: "Test Artist", Genres: []string{"rock", "pop"},
	})
	if err != nil {
		t.Fatalf("CreateTrack error: %v", err)
	}
	if track.ID == "" || track.Slug != "test-song" || track.CreatedAt.IsZero() {
		t.Fatalf("track = %+v", track)
	}
}

func TestUpdateTrackSendsOnlySuppliedFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/tracks/t1" {
			t.Fatalf("%s %s", r.Method, r.URL.Path)
		}
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if len(raw) != 1 || raw["title"] != "Updated" {
			t.Fatalf("body = %v, want only title", raw)
		}
		_, _ = w.Write([]byte(strings.Replace(trackJSON, "Test Song", "Updated", 1)))
	})

	title := "Updated"
	track, err := client.UpdateTrack(context.Background(), "t1", domain.UpdateTrackInput{Title: &title})
	if err != nil {
		t.Fatalf("UpdateTrack error: %v", err)
	}
	if track.Title != "Updated" || len(track.Genres) != 2 {
		t.Fatalf("track = %+v", track)
	}
}

func TestDeleteTrackVoidBodies(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{"no content", http.StatusNoContent, "", false},
		{"empty object", http.StatusOK, "{}", false},
		{"unexpected body", http.StatusOK, `{"deleted":true}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodDelete {
					t.Fatalf("method = %s", r.Method)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			err := client.DeleteTrack(context.Background(), "t1")
			if (err != nil) != tt.wantErr {
				t.Fatalf("DeleteTrack error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDeleteTracksPartialFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tracks/delete" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		var req batchDeleteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if len(req.IDs) != 2 {
			t.Fatalf("ids = %v", req.IDs)
		}
		_, _ = w.Write([]byte(`{"success":["t1"],"failed":["fake-id"]}`))
	})

	res, err := client.DeleteTracks(context.Background(), []string{"t1", "fake-id"})
	if err != nil {
		t.Fatalf("DeleteTracks error: %v", err)
	}
	if !res.Partial() || res.Success[0] != "t1" || res.Failed[0] != "fake-id" {
		t.Fatalf("result = %+v", res)
	}
}

func TestUploadBoundary(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if err := r.ParseMultipartForm(MaxUploadSize + 1024); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer f.Close()
		n, _ := io.Copy(io.Discard, f)
		if n != MaxUploadSize || hdr.Header.Get("Content-Type") != "audio/mpeg" {
			t.Fatalf("uploaded %d bytes as %s", n, hdr.Header.Get("Content-Type"))
		}
		_, _ = w.Write([]byte(strings.Replace(trackJSON, `"album":""`, `"audioFile":"t1.mp3"`, 1)))
	})

	exact := domain.AudioFile{Name: "a.mp3", ContentType: "audio/mpeg", Body: make([]byte, MaxUploadSize)}
	track, err := client.UploadFile(context.Background(), "t1", exact)
	if err != nil {
		t.Fatalf("UploadFile(10MiB) error: %v", err)
	}
	if !track.HasAudio() {
		t.Fatalf("track = %+v, want audio file set", track)
	}

	over := domain.AudioFile{Name: "b.mp3", ContentType: "audio/mpeg", Body: make([]byte, MaxUploadSize+1)}
	_, err = client.UploadFile(context.Background(), "t1", over)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Source != domain.SourceClient {
		t.Fatalf("UploadFile(10MiB+1) error = %v, want client ValidationError", err)
	}

	// A declared size smaller than the body does not get past the cap.
	understated := domain.AudioFile{Name: "c.mp3", ContentType: "audio/mpeg", Size: 1, Body: make([]byte, MaxUploadSize+1)}
	if _, err := client.UploadFile(context.Background(), "t1", understated); !errors.As(err, &ve) || ve.Source != domain.SourceClient {
		t.Fatalf("UploadFile(Size 1, 10MiB+1 body) error = %v, want client ValidationError", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("server calls = %d, want 1", calls.Load())
	}
}

func TestValidateAudioTypes(t *testing.T) {
	tests := []struct {
		contentType string
		ok          bool
	}{
		{"audio/mpeg", true},
		{"audio/mp3", true},
		{"audio/wav", true},
		{"audio/x-wav", true},
		{"audio/ogg", true},
		{"audio/flac", false},
		{"video/mp4", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			err := ValidateAudio(domain.AudioFile{ContentType: tt.contentType, Size: 10})
			if (err == nil) != tt.ok {
				t.Fatalf("ValidateAudio(%q) error = %v", tt.contentType, err)
			}
		})
	}
}

func TestOpenAudioFileDetectsWav(t *testing.T) {
	// Minimal RIFF/WAVE header.
	header := []byte("RIFF\x24\x00\x00\x00WAVEfmt \x10\x00\x00\x00\x01\x00\x01\x00\x44\xac\x00\x00\x88\x58\x01\x00\x02\x00\x10\x00data\x00\x00\x00\x00")
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := os.WriteFile(path, header, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	file, err := OpenAudioFile(path)
	if err != nil {
		t.Fatalf("OpenAudioFile error: %v", err)
	}
	if err := ValidateAudio(file); err != nil {
		t.Fatalf("ValidateAudio(%s) error: %v", file.ContentType, err)
	}
	if file.Name != "clip.wav" {
		t.Fatalf("Name = %q", file.Name)
	}
}

func TestAudioURL(t *testing.T) {
	client := NewClient("http://catalog.local/", nil)
	if got := client.AudioURL("my song.mp3"); got != "http://catalog.local/api/files/my%20song.mp3" {
		t.Fatalf("AudioURL = %q", got)
	}
	if got := client.AudioURL(""); got != "" {
		t.Fatalf("AudioURL(empty) = %q", got)
	}
}
