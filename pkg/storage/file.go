package storage

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/nodewire/pkg/document"
	"github.com/matzehuels/nodewire/pkg/errors"
	"github.com/matzehuels/nodewire/pkg/observability"
)

// =============================================================================
// Single file
// =============================================================================

// File is a document file on disk.
type File struct {
	Path string
}

// NewFile returns a File for path.
func NewFile(path string) *File { return &File{Path: path} }

// Codec implements Opener and Saver. The extension decides.
func (f *File) Codec() document.Codec { return document.CodecForPath(f.Path) }

func (f *File) String() string { return "file:" + f.Path }

// Open implements Opener.
func (f *File) Open(ctx context.Context) ([]byte, error) {
	if err := errors.ValidateFilePath(f.Path); err != nil {
		return nil, err
	}
	start := time.Now()
	data, err := os.ReadFile(f.Path)
	if err != nil {
		err = errors.Wrap(errors.ErrCodeExternalIO, err, "read %s", f.Path)
	}
	observability.Storage().OnOpen(ctx, "file", len(data), time.Since(start), err)
	return data, err
}

// Save implements Saver. The previous file survives a failed write.
func (f *File) Save(ctx context.Context, data []byte) error {
	if err := errors.ValidateFilePath(f.Path); err != nil {
		return err
	}
	start := time.Now()
	err := writeAtomic(f.Path, data, 0o644)
	observability.Storage().OnSave(ctx, "file", len(data), time.Since(start), err)
	return err
}

// writeAtomic writes data to a temporary sibling of path and renames it into
// place.
func writeAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".nodewire-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeExternalIO, err, "write %s", path)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeExternalIO, err, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeExternalIO, err, "write %s", path)
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return errors.Wrap(errors.ErrCodeExternalIO, err, "write %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(errors.ErrCodeExternalIO, err, "write %s", path)
	}
	return nil
}

// =============================================================================
// Directory store
// =============================================================================

const fileStoreExt = ".json"

// FileStore keeps one file per key in a directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file-backed store.
// If baseDir is empty, defaults to ~/.config/nodewire/documents/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeExternalIO, err, "get home dir")
		}
		baseDir = filepath.Join(home, ".config", "nodewire", "documents")
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, errors.Wrap(errors.ErrCodeExternalIO, err, "create document dir")
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.baseDir, key+fileStoreExt)
}

// Get implements Store.
func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	if err := errors.ValidateDocumentKey(key); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeNotFound, "document %q not found", key)
		}
		return nil, errors.Wrap(errors.ErrCodeExternalIO, err, "read document %q", key)
	}
	return data, nil
}

// Put implements Store.
func (s *FileStore) Put(_ context.Context, key string, data []byte) error {
	if err := errors.ValidateDocumentKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeAtomic(s.path(key), data, 0o600)
}

// Delete implements Store.
func (s *FileStore) Delete(_ context.Context, key string) error {
	if err := errors.ValidateDocumentKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeExternalIO, err, "remove document %q", key)
	}
	return nil
}

// List implements Store.
func (s *FileStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeExternalIO, err, "read document dir")
	}
	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != fileStoreExt || strings.HasPrefix(name, ".") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, fileStoreExt))
	}
	sort.Strings(keys)
	return keys, nil
}

// Backend implements Store.
func (s *FileStore) Backend() string { return "file" }

// Close implements Store.
func (s *FileStore) Close() error { return nil }

// Path returns the base directory for document files.
func (s *FileStore) Path() string {
	return s.baseDir
}

var (
	_ Store  = (*FileStore)(nil)
	_ Opener = (*File)(nil)
	_ Saver  = (*File)(nil)
)
