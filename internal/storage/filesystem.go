package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"donasi/internal/domain"
)

// FileStore persists proof images on a filesystem and serves them back under
// a public base URL.
type FileStore struct {
	fs      afero.Fs
	baseURL string
}

// NewFileStore initializes a FileStore rooted at basePath on the OS filesystem.
func NewFileStore(basePath, baseURL string) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	osfs := afero.NewOsFs()
	if err := osfs.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return NewFileStoreFS(afero.NewBasePathFs(osfs, basePath), baseURL), nil
}

// NewFileStoreFS wraps an already rooted filesystem.
func NewFileStoreFS(fsys afero.Fs, baseURL string) *FileStore {
	return &FileStore{fs: fsys, baseURL: strings.TrimRight(baseURL, "/")}
}

// Put writes data under name and returns its public URL.
func (s *FileStore) Put(ctx context.Context, name, _ string, data []byte) (string, error) {
	key, err := s.Write(ctx, name, data)
	if err != nil {
		return "", err
	}
	return s.URL(key), nil
}

// Write persists the provided bytes at the given relative key and returns the
// canonicalized storage key. Keys are cleaned to prevent directory traversal.
func (s *FileStore) Write(ctx context.Context, key string, data []byte) (string, error) {
	if s == nil {
		return "", errors.New("storage: no store configured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	if dir := filepath.Dir(filepath.FromSlash(cleanKey)); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("storage: ensure directory: %w", err)
		}
	}
	if err := afero.WriteFile(s.fs, filepath.FromSlash(cleanKey), data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write file: %w", err)
	}
	return cleanKey, nil
}

// Delete removes the object behind url. URLs outside this store's base URL
// are not owned by it and are left alone; a missing file is not an error.
func (s *FileStore) Delete(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, ok := s.KeyFromURL(url)
	if !ok {
		return nil
	}
	err := s.fs.Remove(filepath.FromSlash(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: remove file: %w", err)
	}
	return nil
}

// List returns every stored object.
func (s *FileStore) List(ctx context.Context) ([]domain.BlobInfo, error) {
	var out []domain.BlobInfo
	err := afero.Walk(s.fs, "", func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if info.IsDir() {
			return nil
		}
		key := strings.TrimLeft(filepath.ToSlash(path), "/")
		out = append(out, domain.BlobInfo{Key: key, URL: s.URL(key), ModTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	return out, nil
}

// URL returns the public URL of key.
func (s *FileStore) URL(key string) string {
	return s.baseURL + "/" + strings.TrimLeft(key, "/")
}

// LocalPathPrefix is the path the API serves uploads under. Older records
// reference proof images through it instead of an absolute URL.
const LocalPathPrefix = "/uploads/"

// KeyFromURL reverses URL. It also accepts LocalPathPrefix paths. The second
// result is false for foreign URLs.
func (s *FileStore) KeyFromURL(url string) (string, bool) {
	rest, ok := strings.CutPrefix(url, s.baseURL+"/")
	if !ok {
		rest, ok = strings.CutPrefix(url, LocalPathPrefix)
	}
	if !ok {
		return "", false
	}
	key, err := sanitizeKey(rest)
	if err != nil {
		return "", false
	}
	return key, true
}

// HTTPFileSystem exposes the store for http.FileServer. Paths resolve
// relative to the store root, matching the keys Write produces.
func (s *FileStore) HTTPFileSystem() http.FileSystem {
	return afero.NewHttpFs(s.fs).Dir(".")
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("storage: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.ToSlash(filepath.Clean(key))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("storage: invalid key")
	}
	return cleaned, nil
}

var (
	_ domain.BlobStore   = (*FileStore)(nil)
	_ domain.BlobDeleter = (*FileStore)(nil)
	_ domain.BlobLister  = (*FileStore)(nil)
)
