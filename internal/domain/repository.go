package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Fixed logical keys of the two collections.
const (
	KeyDonations = "donations"
	KeyFundUsage = "fundUsage"
)

// CollectionRecord is everything persisted under one collection key: the
// ordered JSON list and the id sequence that outlives deletions.
type CollectionRecord struct {
	Items  json.RawMessage
	NextID int64
}

// CollectionStore persists whole collections. Update must be atomic per key.
type CollectionStore interface {
	Get(ctx context.Context, key string) (CollectionRecord, error)
	Update(ctx context.Context, key string, fn func(CollectionRecord) (CollectionRecord, error)) error
	Replace(ctx context.Context, key string, rec CollectionRecord) error
	Close() error
}

// CollectionReloader is implemented by stores that cache collections another
// process may write. Reload refreshes the cache from the shared source.
type CollectionReloader interface {
	Reload(ctx context.Context) error
}

// BlobStore stores proof images and hands back a public URL.
type BlobStore interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// BlobDeleter is implemented by blob stores that can remove objects.
type BlobDeleter interface {
	Delete(ctx context.Context, url string) error
}

// BlobInfo describes one stored object.
type BlobInfo struct {
	Key     string
	URL     string
	ModTime time.Time
}

// BlobLister is implemented by blob stores that can enumerate objects.
type BlobLister interface {
	List(ctx context.Context) ([]BlobInfo, error)
}
