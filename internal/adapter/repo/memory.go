package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"donasi/internal/domain"
)

// MemoryStore keeps collections in process memory for the lifetime of the
// process. With a snapshot filesystem it also mirrors every write to JSON
// files and reloads them on start.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]domain.CollectionRecord
	fs      afero.Fs
	keys    []string
	logger  zerolog.Logger
}

// NewMemoryStore returns a store without snapshots.
func NewMemoryStore(logger zerolog.Logger) *MemoryStore {
	return &MemoryStore{records: map[string]domain.CollectionRecord{}, logger: logger}
}

// NewSnapshotStore returns a memory store persisted to fsys and preloaded
// with the snapshots already present there.
func NewSnapshotStore(fsys afero.Fs, logger zerolog.Logger, keys ...string) (*MemoryStore, error) {
	s := &MemoryStore{records: map[string]domain.CollectionRecord{}, fs: fsys, keys: keys, logger: logger}
	if err := s.Reload(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces the cached collections with the snapshot files, picking up
// writes made by another process sharing the directory. Without snapshots it
// is a no-op.
func (s *MemoryStore) Reload(ctx context.Context) error {
	if s.fs == nil {
		return nil
	}
	loaded := make(map[string]domain.CollectionRecord, len(s.keys))
	for _, key := range s.keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := s.loadSnapshot(key)
		if err != nil {
			return err
		}
		loaded[key] = rec
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, rec := range loaded {
		s.records[key] = rec
	}
	return nil
}

// SnapshotName maps a collection key to its snapshot file name.
func SnapshotName(key string) string {
	switch key {
	case domain.KeyDonations:
		return "donations.json"
	case domain.KeyFundUsage:
		return "fund-usage.json"
	}
	return key + ".json"
}

func seqName(key string) string {
	return strings.TrimSuffix(SnapshotName(key), ".json") + ".seq"
}

func (s *MemoryStore) Get(_ context.Context, key string) (domain.CollectionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRecord(s.records[key]), nil
}

func (s *MemoryStore) Update(ctx context.Context, key string, fn func(domain.CollectionRecord) (domain.CollectionRecord, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(cloneRecord(s.records[key]))
	if err != nil {
		return err
	}
	return s.commit(key, next)
}

func (s *MemoryStore) Replace(ctx context.Context, key string, rec domain.CollectionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(key, rec)
}

func (s *MemoryStore) Close() error { return nil }

// commit writes the snapshot first so a failed write leaves memory untouched.
func (s *MemoryStore) commit(key string, rec domain.CollectionRecord) error {
	rec = cloneRecord(rec)
	if s.fs != nil {
		if err := s.writeSnapshot(key, rec); err != nil {
			return err
		}
	}
	s.records[key] = rec
	return nil
}

func (s *MemoryStore) writeSnapshot(key string, rec domain.CollectionRecord) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, itemsOrEmpty(rec.Items), "", "  "); err != nil {
		return fmt.Errorf("snapshot %s: %w", key, err)
	}
	if err := writeFileAtomic(s.fs, SnapshotName(key), buf.Bytes()); err != nil {
		return fmt.Errorf("snapshot %s: %w", key, err)
	}
	if err := writeFileAtomic(s.fs, seqName(key), []byte(strconv.FormatInt(rec.NextID, 10))); err != nil {
		return fmt.Errorf("snapshot %s sequence: %w", key, err)
	}
	return nil
}

func (s *MemoryStore) loadSnapshot(key string) (domain.CollectionRecord, error) {
	var rec domain.CollectionRecord
	data, err := afero.ReadFile(s.fs, SnapshotName(key))
	switch {
	case errors.Is(err, fs.ErrNotExist) || errors.Is(err, os.ErrNotExist):
		return rec, nil
	case err != nil:
		return rec, fmt.Errorf("load snapshot %s: %w", key, err)
	}
	if !json.Valid(data) {
		return rec, fmt.Errorf("load snapshot %s: invalid json", key)
	}
	rec.Items = json.RawMessage(bytes.TrimSpace(data))

	if raw, err := afero.ReadFile(s.fs, seqName(key)); err == nil {
		if n, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64); err == nil {
			rec.NextID = n
		}
	}
	s.logger.Debug().Str("key", key).Int("bytes", len(data)).Msg("snapshot loaded")
	return rec, nil
}

func writeFileAtomic(fsys afero.Fs, name string, data []byte) error {
	tmp := name + ".tmp"
	if err := afero.WriteFile(fsys, tmp, data, 0o644); err != nil {
		return err
	}
	return fsys.Rename(tmp, name)
}

func cloneRecord(rec domain.CollectionRecord) domain.CollectionRecord {
	if rec.Items != nil {
		rec.Items = append(json.RawMessage(nil), rec.Items...)
	}
	return rec
}

func itemsOrEmpty(items json.RawMessage) json.RawMessage {
	if len(bytes.TrimSpace(items)) == 0 {
		return json.RawMessage("[]")
	}
	return items
}

var (
	_ domain.CollectionStore    = (*MemoryStore)(nil)
	_ domain.CollectionReloader = (*MemoryStore)(nil)
)
