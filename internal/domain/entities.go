package domain

import (
	"slices"
	"strings"
	"time"
)

// Track is a single catalog entry: one song with its metadata and an
// optional audio file.
type Track struct {
	ID         string    `json:"id" validate:"required"`
	Title      string    `json:"title" validate:"required"`
	Artist     string    `json:"artist" validate:"required"`
	Album      string    `json:"album,omitempty"`
	Genres     []string  `json:"genres" validate:"dive,required"`
	Slug       string    `json:"slug" validate:"required"`
	CoverImage string    `json:"coverImage,omitempty"`
	AudioFile  string    `json:"audioFile,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// HasAudio reports whether an audio file is attached to the track.
func (t Track) HasAudio() bool {
	return t.AudioFile != ""
}

// GenreList returns the genres joined for display.
func (t Track) GenreList() string {
	return strings.Join(t.Genres, ", ")
}

// SameGenres reports whether a and b hold the same genres, ignoring order.
func SameGenres(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := slices.Clone(a)
	bs := slices.Clone(b)
	slices.Sort(as)
	slices.Sort(bs)
	return slices.Equal(as, bs)
}

// CreateTrackInput is the payload for creating a track.
type CreateTrackInput struct {
	Title      string   `json:"title" validate:"required,notblank"`
	Artist     string   `json:"artist" validate:"required,notblank"`
	Album      string   `json:"album,omitempty"`
	Genres     []string `json:"genres" validate:"dive,notblank"`
	CoverImage string   `json:"coverImage,omitempty" validate:"omitempty,url,startswith=http"`
}

// UpdateTrackInput is a partial update. Nil fields are left untouched
// server-side and are not sent.
type UpdateTrackInput struct {
	Title      *string   `json:"title,omitempty" validate:"omitempty,notblank"`
	Artist     *string   `json:"artist,omitempty" validate:"omitempty,notblank"`
	Album      *string   `json:"album,omitempty"`
	Genres     *[]string `json:"genres,omitempty" validate:"omitempty,dive,notblank"`
	CoverImage *string   `json:"coverImage,omitempty" validate:"omitempty,url,startswith=http"`
}

// IsEmpty reports whether the update carries no changes.
func (u UpdateTrackInput) IsEmpty() bool {
	return u.Title == nil && u.Artist == nil && u.Album == nil && u.Genres == nil && u.CoverImage == nil
}

// DiffTrack builds the minimal update that turns original into edited.
// Genres are compared as sets.
func DiffTrack(original, edited Track) UpdateTrackInput {
	var in UpdateTrackInput
	if edited.Title != original.Title {
		in.Title = &edited.Title
	}
	if edited.Artist != original.Artist {
		in.Artist = &edited.Artist
	}
	if edited.Album != original.Album {
		in.Album = &edited.Album
	}
	if !SameGenres(original.Genres, edited.Genres) {
		genres := slices.Clone(edited.Genres)
		if genres == nil {
			genres = []string{}
		}
		in.Genres = &genres
	}
	if edited.CoverImage != original.CoverImage {
		in.CoverImage = &edited.CoverImage
	}
	return in
}

// ParseGenres splits a comma separated genre list, trimming blanks and
// dropping duplicates.
func ParseGenres(s string) []string {
	genres := []string{}
	for _, g := range strings.Split(s, ",") {
		g = strings.TrimSpace(g)
		if g == "" || slices.Contains(genres, g) {
			continue
		}
		genres = append(genres, g)
	}
	return genres
}

// BatchDeleteResult enumerates which ids a batch delete removed and which
// it could not.
type BatchDeleteResult struct {
	Success []string `json:"success" validate:"required"`
	Failed  []string `json:"failed" validate:"required"`
}

// Partial reports whether some ids failed to delete.
func (r BatchDeleteResult) Partial() bool {
	return len(r.Failed) > 0
}

// AudioFile is an audio file staged for upload.
type AudioFile struct {
	Name        string
	Size        int64
	ContentType string
	Body        []byte
}
