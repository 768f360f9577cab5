package history_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kylesnowschwartz/roya-history/history"
)

// receivedUpload is what the fake backend parsed from one multipart request.
type receivedUpload struct {
	etapa       string
	comentario  []string
	filename    string
	contentType string
	data        []byte
}

func uploadBackend(t *testing.T, status int, respond string) (*httptest.Server, func() receivedUpload) {
	t.Helper()
	var (
		mu  sync.Mutex
		got receivedUpload
	)
	r := chi.NewRouter()
	r.Post("/upload", func(w http.ResponseWriter, req *http.Request) {
		if err := req.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var u receivedUpload
		u.etapa = req.FormValue("etapa")
		u.comentario = req.MultipartForm.Value["comentario"]
		file, hdr, err := req.FormFile("file")
		if err == nil {
			u.filename = hdr.Filename
			u.contentType = hdr.Header.Get("Content-Type")
			u.data, _ = io.ReadAll(file)
			_ = file.Close()
		}
		mu.Lock()
		got = u
		mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(respond))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, func() receivedUpload {
		mu.Lock()
		defer mu.Unlock()
		return got
	}
}

func TestUploader_Upload(t *testing.T) {
	srv, received := uploadBackend(t, http.StatusOK, `{"url": "https://cdn/image-1.jpg"}`)
	reg := prometheus.NewRegistry()
	m := history.NewMetrics(reg)

	u := history.NewUploader(srv.URL, "/upload", history.WithMetrics(m))
	history.SetUploadName(u, "image-fixed.jpg")

	url, err := u.Upload(context.Background(), history.Upload{
		Stage:   "cosecha",
		Comment: "manchas naranjas",
		JPEG:    []byte{0xFF, 0xD8, 0xFF, 0xD9},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/image-1.jpg", url)

	got := received()
	assert.Equal(t, "cosecha", got.etapa)
	assert.Equal(t, []string{"manchas naranjas"}, got.comentario)
	assert.Equal(t, "image-fixed.jpg", got.filename)
	assert.Equal(t, "image/jpeg", got.contentType)
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF, 0xD9}, got.data)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UploadTotal.WithLabelValues("ok")))
}

func TestUploader_OmitsEmptyComment(t *testing.T) {
	srv, received := uploadBackend(t, http.StatusOK, `{"url": "https://cdn/x.jpg"}`)
	u := history.NewUploader(srv.URL, "upload")

	_, err := u.Upload(context.Background(), history.Upload{Stage: "floracion", JPEG: []byte{1}})
	require.NoError(t, err)
	assert.Nil(t, received().comentario)
}

func TestUploader_GeneratedFilenameIsUnique(t *testing.T) {
	srv, received := uploadBackend(t, http.StatusOK, `{"url": "https://cdn/x.jpg"}`)
	u := history.NewUploader(srv.URL, "/upload")

	seen := make(map[string]bool)
	for i := 0; i < 3; i++ {
		_, err := u.Upload(context.Background(), history.Upload{Stage: "cosecha", JPEG: []byte{1}})
		require.NoError(t, err)
		name := received().filename
		assert.Regexp(t, `^image-[0-9a-f-]{36}\.jpg$`, name)
		assert.False(t, seen[name], "filename %q reused", name)
		seen[name] = true
	}
}

func TestUploader_Errors(t *testing.T) {
	t.Run("missing stage", func(t *testing.T) {
		u := history.NewUploader("http://127.0.0.1:0", "/upload")
		_, err := u.Upload(context.Background(), history.Upload{JPEG: []byte{1}})
		assert.ErrorIs(t, err, history.ErrMissingStage)
	})

	t.Run("bad status", func(t *testing.T) {
		srv, _ := uploadBackend(t, http.StatusRequestEntityTooLarge, `{}`)
		u := history.NewUploader(srv.URL, "/upload")
		_, err := u.Upload(context.Background(), history.Upload{Stage: "cosecha", JPEG: []byte{1}})
		var fe *history.FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, history.KindBadStatus, fe.Kind)
		assert.Equal(t, http.StatusRequestEntityTooLarge, fe.StatusCode)
		assert.Equal(t, "upload", fe.Op)
	})

	t.Run("no url in response", func(t *testing.T) {
		srv, _ := uploadBackend(t, http.StatusOK, `{"ok": true}`)
		u := history.NewUploader(srv.URL, "/upload")
		_, err := u.Upload(context.Background(), history.Upload{Stage: "cosecha", JPEG: []byte{1}})
		assert.True(t, history.IsKind(err, history.KindDecode))
	})

	t.Run("non json response", func(t *testing.T) {
		srv, _ := uploadBackend(t, http.StatusOK, `stored`)
		u := history.NewUploader(srv.URL, "/upload")
		_, err := u.Upload(context.Background(), history.Upload{Stage: "cosecha", JPEG: []byte{1}})
		assert.True(t, history.IsKind(err, history.KindDecode))
		var syntax *json.SyntaxError
		assert.ErrorAs(t, err, &syntax)
	})
}
