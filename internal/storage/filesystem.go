package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrNotExist is returned when a key or directory is missing.
var ErrNotExist = errors.New("storage: not found")

// FileStore keeps small documents (outbox messages, page copy) on the local
// filesystem under a single root.
type FileStore struct {
	basePath string
}

// Entry describes one stored file.
type Entry struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// NewFileStore initializes a FileStore rooted at basePath.
func NewFileStore(basePath string) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return &FileStore{basePath: basePath}, nil
}

// OpenFileStore wraps an existing directory without creating it.
func OpenFileStore(basePath string) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	return &FileStore{basePath: basePath}, nil
}

// BasePath returns the configured root directory.
func (s *FileStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

// Write persists data at key and returns the canonical key. The file is
// written beside its target and renamed into place.
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
	fullPath := s.fullPath(cleanKey)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("storage: ensure directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".tmp-"+filepath.Base(fullPath)+"-*")
	if err != nil {
		return "", fmt.Errorf("storage: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("storage: write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("storage: close file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("storage: chmod file: %w", err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("storage: rename file: %w", err)
	}
	return cleanKey, nil
}

// Read returns the bytes stored at key.
func (s *FileStore) Read(ctx context.Context, key string) ([]byte, error) {
	if s == nil {
		return nil, errors.New("storage: no store configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.fullPath(cleanKey))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, cleanKey)
		}
		return nil, fmt.Errorf("storage: read file: %w", err)
	}
	return data, nil
}

// List returns the files directly under dir (use "" for the root) whose
// names end with ext, sorted by key. Hidden and temporary files are skipped.
func (s *FileStore) List(ctx context.Context, dir, ext string) ([]Entry, error) {
	if s == nil {
		return nil, errors.New("storage: no store configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := ""
	root := s.basePath
	if strings.TrimSpace(dir) != "" {
		cleanDir, err := sanitizeKey(dir)
		if err != nil {
			return nil, err
		}
		prefix = cleanDir + "/"
		root = s.fullPath(cleanDir)
	}
	items, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, root)
		}
		return nil, fmt.Errorf("storage: list directory: %w", err)
	}
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		name := item.Name()
		if item.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ext) {
			continue
		}
		info, err := item.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Key: prefix + name, Size: info.Size(), ModTime: info.ModTime()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// Exists reports whether the store root is present on disk.
func (s *FileStore) Exists() bool {
	if s == nil {
		return false
	}
	info, err := os.Stat(s.basePath)
	return err == nil && info.IsDir()
}

func (s *FileStore) fullPath(cleanKey string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(cleanKey))
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
