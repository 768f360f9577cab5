package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrMissingStage is returned when an upload has no stage label.
var ErrMissingStage = errors.New("upload: stage label is required")

// Upload is one captured image and its annotations.
type Upload struct {
	Stage   string // sent as "etapa"
	Comment string // sent as "comentario" when non-empty
	JPEG    []byte
}

// Uploader posts captured images to the backend.
type Uploader struct {
	url string
	clientOptions
	newName func() string
}

// NewUploader returns an uploader for baseURL+path.
func NewUploader(baseURL, path string, opts ...Option) *Uploader {
	return &Uploader{
		url:           joinURL(baseURL, path),
		clientOptions: newClientOptions(opts),
		newName:       func() string { return "image-" + uuid.NewString() + ".jpg" },
	}
}

// Upload sends the image as multipart/form-data and returns the stored URL.
func (u *Uploader) Upload(ctx context.Context, up Upload) (string, error) {
	url, err := u.upload(ctx, up)
	if err != nil {
		if result := resultLabel(err); result != "" {
			u.metrics.uploadResult(result)
		}
		return "", err
	}
	u.metrics.uploadResult("ok")
	return url, nil
}

func (u *Uploader) upload(ctx context.Context, up Upload) (string, error) {
	if up.Stage == "" {
		return "", ErrMissingStage
	}

	filename := u.newName()
	body, contentType, err := encodeUpload(up, filename)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.url, body)
	if err != nil {
		return "", &FetchError{Op: "upload", Kind: KindNetwork, Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	setAuth(req, u.token)

	start := time.Now()
	resp, cancel, err := u.do(req)
	if err != nil {
		return "", &FetchError{Op: "upload", Kind: KindNetwork, Err: err}
	}
	defer cancel()
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &FetchError{Op: "upload", Kind: KindBadStatus, StatusCode: resp.StatusCode}
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return "", &FetchError{Op: "upload", Kind: KindDecode, Err: err}
	}
	if out.URL == "" {
		return "", &FetchError{Op: "upload", Kind: KindDecode, Err: errors.New("response has no url")}
	}

	u.logger.Info("uploaded image",
		zap.String("filename", filename),
		zap.String("stage", up.Stage),
		zap.String("url", out.URL),
		zap.Duration("elapsed", time.Since(start)))
	return out.URL, nil
}

// encodeUpload builds the multipart body: etapa, optional comentario, file.
func encodeUpload(up Upload, filename string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("etapa", up.Stage); err != nil {
		return nil, "", err
	}
	if up.Comment != "" {
		if err := w.WriteField("comentario", up.Comment); err != nil {
			return nil, "", err
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", "image/jpeg")
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(up.JPEG); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
