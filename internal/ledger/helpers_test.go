package ledger

import (
	"context"
	"errors"
	"path"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"donasi/internal/adapter/repo"
	"donasi/internal/domain"
)

var fixedNow = time.Date(2024, 8, 17, 10, 0, 0, 0, time.UTC)

// fakeBlobs is an in-memory blob store keyed by URL.
type fakeBlobs struct {
	mu        sync.Mutex
	objects   map[string]domain.BlobInfo
	puts      int
	putErr    error
	deleteErr error
	deleted   []string
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: map[string]domain.BlobInfo{}}
}

func (f *fakeBlobs) Put(_ context.Context, name, _ string, _ []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.putErr != nil {
		return "", f.putErr
	}
	url := "https://blob.test/" + name
	f.objects[url] = domain.BlobInfo{Key: name, URL: url, ModTime: fixedNow}
	return url, nil
}

func (f *fakeBlobs) Delete(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, url)
	delete(f.objects, url)
	return nil
}

func (f *fakeBlobs) List(context.Context) ([]domain.BlobInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.BlobInfo, 0, len(f.objects))
	for _, b := range f.objects {
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBlobs) add(key string, modTime time.Time) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	url := "https://blob.test/" + key
	f.objects[url] = domain.BlobInfo{Key: key, URL: url, ModTime: modTime}
	return url
}

func (f *fakeBlobs) has(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[url]
	return ok
}

// countingStore wraps a store, counts writes and injects failures.
type countingStore struct {
	domain.CollectionStore
	updates   atomic.Int64
	getErr    error
	updateErr error
}

func (c *countingStore) Get(ctx context.Context, key string) (domain.CollectionRecord, error) {
	if c.getErr != nil {
		return domain.CollectionRecord{}, c.getErr
	}
	return c.CollectionStore.Get(ctx, key)
}

func (c *countingStore) Update(ctx context.Context, key string, fn func(domain.CollectionRecord) (domain.CollectionRecord, error)) error {
	if c.updateErr != nil {
		return c.updateErr
	}
	c.updates.Add(1)
	return c.CollectionStore.Update(ctx, key, fn)
}

type fixture struct {
	svc   *Service
	store *countingStore
	blobs *fakeBlobs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := &countingStore{CollectionStore: repo.NewMemoryStore(zerolog.Nop())}
	blobs := newFakeBlobs()
	svc := New(Options{
		Store:          store,
		Blobs:          blobs,
		Logger:         zerolog.Nop(),
		MaxUploadBytes: 1024,
		Now:            func() time.Time { return fixedNow },
	})
	return &fixture{svc: svc, store: store, blobs: blobs}
}

func validInput() domain.DonationInput {
	return domain.DonationInput{
		Name:   "Siti Aminah",
		Email:  "siti@example.org",
		Phone:  "08123456789",
		Amount: "150000",
	}
}

func pngProof() *domain.ProofUpload {
	return &domain.ProofUpload{Filename: "bukti.png", ContentType: "image/png", Data: []byte("\x89PNG")}
}

func mustSubmit(t *testing.T, svc *Service, in domain.DonationInput, proof *domain.ProofUpload) domain.Donation {
	t.Helper()
	d, err := svc.SubmitDonation(context.Background(), in, proof)
	if err != nil {
		t.Fatalf("SubmitDonation: %v", err)
	}
	return d
}

func wantValidation(t *testing.T, err error, code string) {
	t.Helper()
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError %q, got %v", code, err)
	}
	if ve.Code != code {
		t.Fatalf("validation code = %q, want %q", ve.Code, code)
	}
}

func baseName(url string) string { return path.Base(url) }
