package rest

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/mmcdole/trackctl/internal/domain"
)

// MaxUploadSize is the largest audio file the catalog accepts.
const MaxUploadSize = 10 * 1024 * 1024

// AllowedAudioTypes are the MIME types accepted for upload.
var AllowedAudioTypes = []string{
	"audio/mpeg",
	"audio/wav",
	"audio/ogg",
	"audio/mp3",
	"audio/x-wav",
}

// ValidateAudio checks an upload against the type allow-list and size cap.
func ValidateAudio(file domain.AudioFile) error {
	const op = "upload file"

	// Body is what gets sent; Size alone may come from a stat.
	size := max(file.Size, int64(len(file.Body)))
	if size == 0 {
		return &domain.ValidationError{Op: op, Message: "File is empty", Source: domain.SourceClient}
	}
	if size > MaxUploadSize {
		return &domain.ValidationError{
			Op:      op,
			Message: fmt.Sprintf("File is too large (max %d MB)", MaxUploadSize/(1024*1024)),
			Source:  domain.SourceClient,
		}
	}

	mediaType, _, err := mime.ParseMediaType(file.ContentType)
	if err != nil || !slices.Contains(AllowedAudioTypes, strings.ToLower(mediaType)) {
		return &domain.ValidationError{
			Op:      op,
			Message: "Unsupported file type. Allowed: MP3, WAV, OGG",
			Details: []string{"got " + file.ContentType},
			Source:  domain.SourceClient,
		}
	}
	return nil
}

// OpenAudioFile reads an audio file from disk and detects its content type
// from the file header. Files over the size cap are rejected unread.
func OpenAudioFile(path string) (domain.AudioFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.AudioFile{}, fmt.Errorf("failed to stat audio file: %w", err)
	}
	if info.IsDir() {
		return domain.AudioFile{}, fmt.Errorf("%s is a directory", path)
	}

	file := domain.AudioFile{
		Name: filepath.Base(path),
		Size: info.Size(),
	}
	if info.Size() > MaxUploadSize {
		return file, ValidateAudio(file)
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return domain.AudioFile{}, fmt.Errorf("failed to read audio file: %w", err)
	}
	file.Body = body
	file.Size = int64(len(body))
	file.ContentType = detectAudioType(body)
	return file, nil
}

// detectAudioType maps the sniffed type onto the allow-list where one of
// its aliases matches.
func detectAudioType(body []byte) string {
	detected := mimetype.Detect(body)
	for m := detected; m != nil; m = m.Parent() {
		for _, allowed := range AllowedAudioTypes {
			if m.Is(allowed) {
				return allowed
			}
		}
	}
	return detected.String()
}

// UploadFile attaches an audio file to a track. The file is validated before
// any request is made.
func (c *Client) UploadFile(ctx context.Context, id string, file domain.AudioFile) (*domain.Track, error) {
	const op = "upload file"
	if err := ValidateAudio(file); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
	header.Set("Content-Type", file.ContentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create form part: %w", op, err)
	}
	if _, err := part.Write(file.Body); err != nil {
		return nil, fmt.Errorf("%s: failed to write form part: %w", op, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%s: failed to close form: %w", op, err)
	}

	body, err := c.doRequest(ctx, request{
		op:          op,
		method:      http.MethodPost,
		path:        trackPath(id) + "/upload",
		body:        &buf,
		contentType: w.FormDataContentType(),
	})
	if err != nil {
		return nil, err
	}
	return c.decodeTrack(op, body)
}
