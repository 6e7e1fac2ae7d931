package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"donasi/internal/adapter/repo"
	"donasi/internal/domain"
	"donasi/internal/ledger"
	"donasi/internal/middleware"
	"donasi/internal/storage"
)

var testNow = time.Date(2024, 8, 17, 10, 0, 0, 0, time.UTC)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type testApp struct {
	app   *App
	store domain.CollectionStore
	fs    afero.Fs
	blobs *storage.FileStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	return newTestAppWithStore(t, repo.NewMemoryStore(zerolog.Nop()))
}

func newTestAppWithStore(t *testing.T, store domain.CollectionStore) *testApp {
	t.Helper()
	fsys := afero.NewMemMapFs()
	blobs := storage.NewFileStoreFS(fsys, "http://localhost:5000/uploads")
	svc := ledger.New(ledger.Options{
		Store:          store,
		Blobs:          blobs,
		Logger:         zerolog.Nop(),
		MaxUploadBytes: 2048,
		Now:            func() time.Time { return testNow },
	})
	app := NewApp(svc, zerolog.Nop(), nil, "preview")
	app.Now = func() time.Time { return testNow }
	return &testApp{app: app, store: store, fs: fsys, blobs: blobs}
}

type formFileSpec struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, files ...formFileSpec) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.filename+`"`)
		h.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		_, _ = part.Write(f.data)
	}
	_ = mw.Close()
	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (ta *testApp) storedBlobs(t *testing.T) []domain.BlobInfo {
	t.Helper()
	infos, err := ta.blobs.List(context.Background())
	if err != nil {
		t.Fatalf("list blobs: %v", err)
	}
	return infos
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withLocale(req *http.Request, locale string) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), middleware.LocaleKey, locale))
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return v
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type donationResult struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    domain.Donation `json:"data"`
}

func expectError(t *testing.T, rr *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rr.Code, status, rr.Body.String())
	}
	body := decode[errorBody](t, rr)
	if body.Success {
		t.Fatalf("success must be false")
	}
	if msg != "" && body.Error != msg {
		t.Fatalf("error = %q, want %q", body.Error, msg)
	}
}

// brokenStore fails every call.
type brokenStore struct{}

var errStoreDown = errors.New("dial tcp 10.0.0.5:6379: connection refused")

func (brokenStore) Get(context.Context, string) (domain.CollectionRecord, error) {
	return domain.CollectionRecord{}, errStoreDown
}

func (brokenStore) Update(context.Context, string, func(domain.CollectionRecord) (domain.CollectionRecord, error)) error {
	return errStoreDown
}

func (brokenStore) Replace(context.Context, string, domain.CollectionRecord) error { return errStoreDown }

func (brokenStore) Close() error { return nil }
