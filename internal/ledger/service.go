// Package ledger implements the donation and fund-usage ledgers: whole
// collection reads, serialized mutations, id assignment and proof uploads.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"donasi/internal/domain"
	"donasi/internal/infra"
)

// DefaultMaxUploadBytes caps proof images when Options leaves it unset.
const DefaultMaxUploadBytes int64 = 5 << 20

// Options configures a Service.
type Options struct {
	Store          domain.CollectionStore
	Blobs          domain.BlobStore
	Logger         zerolog.Logger
	Metrics        *infra.Metrics
	MaxUploadBytes int64
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// Service is the ledger over both collections.
type Service struct {
	store   domain.CollectionStore
	blobs   domain.BlobStore
	logger  zerolog.Logger
	metrics *infra.Metrics

	maxUploadBytes int64
	now            func() time.Time

	donationsMu sync.Mutex
	fundUsageMu sync.Mutex
}

// New builds a Service. Store is required; Blobs may be nil when proof
// uploads are not supported by the deployment.
func New(opts Options) *Service {
	s := &Service{
		store:          opts.Store,
		blobs:          opts.Blobs,
		logger:         opts.Logger.With().Str("component", "ledger").Logger(),
		metrics:        opts.Metrics,
		maxUploadBytes: opts.MaxUploadBytes,
		now:            opts.Now,
	}
	if s.maxUploadBytes <= 0 {
		s.maxUploadBytes = DefaultMaxUploadBytes
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// MaxUploadBytes reports the proof image size limit.
func (s *Service) MaxUploadBytes() int64 { return s.maxUploadBytes }

func (s *Service) lock(key string) *sync.Mutex {
	if key == domain.KeyFundUsage {
		return &s.fundUsageMu
	}
	return &s.donationsMu
}

// log prefers the request logger in ctx so ledger lines carry the request
// fields; background callers get the service logger.
func (s *Service) log(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		rl := l.With().Str("component", "ledger").Logger()
		return &rl
	}
	return &s.logger
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func (s *Service) observe(key, op string, err error) {
	s.metrics.ObserveOperation(key, op, err)
}

func decodeItems[T any](key string, rec domain.CollectionRecord) ([]T, error) {
	items := []T{}
	if len(rec.Items) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(rec.Items, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func encodeItems[T any](key string, items []T, next int64) (domain.CollectionRecord, error) {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return domain.CollectionRecord{}, fmt.Errorf("encode %s: %w", key, err)
	}
	return domain.CollectionRecord{Items: raw, NextID: next}, nil
}

// sequence returns the next free id: never below the stored counter and
// always above every id already present.
func sequence[T any](stored int64, items []T, id func(T) int64) int64 {
	next := max(stored, 1)
	for _, item := range items {
		if v := id(item); v >= next {
			next = v + 1
		}
	}
	return next
}

func (s *Service) load(ctx context.Context, key string) (domain.CollectionRecord, error) {
	rec, err := s.store.Get(ctx, key)
	if err != nil {
		return rec, &domain.StorageError{Op: "load " + key, Err: err}
	}
	return rec, nil
}

func list[T any](ctx context.Context, s *Service, key string) ([]T, error) {
	rec, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	items, err := decodeItems[T](key, rec)
	if err != nil {
		return nil, &domain.StorageError{Op: "load " + key, Err: err}
	}
	return items, nil
}

// mutate runs fn over the decoded collection under the collection mutex and
// the store's atomic update. fn receives the next free id and returns the
// new items and sequence value.
func mutate[T any](ctx context.Context, s *Service, key string, id func(T) int64, fn func(items []T, next int64) ([]T, int64, error)) error {
	mu := s.lock(key)
	mu.Lock()
	defer mu.Unlock()

	err := s.store.Update(ctx, key, func(rec domain.CollectionRecord) (domain.CollectionRecord, error) {
		items, err := decodeItems[T](key, rec)
		if err != nil {
			return rec, err
		}
		items, next, err := fn(items, sequence(rec.NextID, items, id))
		if err != nil {
			return rec, err
		}
		return encodeItems(key, items, next)
	})
	if err == nil || errors.Is(err, domain.ErrNotFound) || domain.IsValidation(err) {
		return err
	}
	return &domain.StorageError{Op: "persist " + key, Err: err}
}

// replace overwrites a collection wholesale.
func replace[T any](ctx context.Context, s *Service, key string, items []T, next int64) error {
	mu := s.lock(key)
	mu.Lock()
	defer mu.Unlock()

	rec, err := encodeItems(key, items, next)
	if err != nil {
		return &domain.StorageError{Op: "persist " + key, Err: err}
	}
	if err := s.store.Replace(ctx, key, rec); err != nil {
		return &domain.StorageError{Op: "persist " + key, Err: err}
	}
	return nil
}
