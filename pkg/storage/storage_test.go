package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/nodewire/pkg/cache"
	"github.com/matzehuels/nodewire/pkg/document"
	"github.com/matzehuels/nodewire/pkg/errors"
)

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	if a == b {
		t.Error("NewID() returned the same id twice")
	}
	if err := errors.ValidateDocumentKey(a); err != nil {
		t.Errorf("NewID() = %q is not a valid key: %v", a, err)
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Get(missing) error = %v, want NOT_FOUND", err)
	}
	if err := s.Put(ctx, "b", []byte("two")); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "a", []byte("one")); err != nil {
		t.Fatal(err)
	}
	data, err := s.Get(ctx, "a")
	if err != nil || string(data) != "one" {
		t.Errorf("Get(a) = %q, %v", data, err)
	}

	keys, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("List() = %v, want [a b]", keys)
	}

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "a"); err != nil {
		t.Errorf("second Delete() = %v, want nil", err)
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"../x", "a/b", "", "a b"} {
		if err := s.Put(context.Background(), key, []byte("x")); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("Put(%q) error = %v, want INVALID_INPUT", key, err)
		}
	}
}

func TestFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	f := NewFile(filepath.Join(dir, "g.json"))
	if f.Codec() != document.JSON {
		t.Errorf("Codec() = %s, want json", f.Codec().Name())
	}
	if NewFile("g.mpk").Codec() != document.Msgpack {
		t.Error("a .mpk file should use msgpack")
	}

	if _, err := f.Open(ctx); !errors.Is(err, errors.ErrCodeExternalIO) {
		t.Errorf("Open(missing) error = %v, want EXTERNAL_IO_FAILURE", err)
	}
	if err := f.Save(ctx, []byte("{}")); err != nil {
		t.Fatal(err)
	}
	data, err := f.Open(ctx)
	if err != nil || string(data) != "{}" {
		t.Errorf("Open() = %q, %v", data, err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %d entries", len(entries))
	}

	bad := NewFile(filepath.Join(dir, "missing-dir", "g.json"))
	if err := bad.Save(ctx, []byte("{}")); !errors.Is(err, errors.ErrCodeExternalIO) {
		t.Errorf("Save(missing dir) error = %v, want EXTERNAL_IO_FAILURE", err)
	}
}

// =============================================================================
// Location
// =============================================================================

type flakyStore struct {
	mu       sync.Mutex
	data     map[string][]byte
	failures int
	err      error
	calls    int
}

func (s *flakyStore) fail() error {
	s.calls++
	if s.failures > 0 {
		s.failures--
		return s.err
	}
	return nil
}

func (s *flakyStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	d, ok := s.data[key]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "document %q not found", key)
	}
	return d, nil
}

func (s *flakyStore) Put(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	s.data[key] = data
	return nil
}

func (s *flakyStore) Delete(context.Context, string) error   { return nil }
func (s *flakyStore) List(context.Context) ([]string, error) { return nil, nil }
func (s *flakyStore) Backend() string                        { return "flaky" }
func (s *flakyStore) Close() error                           { return nil }

func TestLocationRetries(t *testing.T) {
	transient := cache.Retryable(errors.New(errors.ErrCodeExternalIO, "connection reset"))
	s := &flakyStore{data: map[string][]byte{}, failures: 2, err: transient}
	loc := At(s, "doc").WithBackoff(cache.Backoff{Attempts: 3, Delay: time.Millisecond})

	if err := loc.Save(context.Background(), []byte("x")); err != nil {
		t.Fatalf("Save() = %v, want success after retries", err)
	}
	if s.calls != 3 {
		t.Errorf("store calls = %d, want 3", s.calls)
	}
	data, err := loc.Open(context.Background())
	if err != nil || string(data) != "x" {
		t.Errorf("Open() = %q, %v", data, err)
	}
	if loc.String() != "flaky:doc" {
		t.Errorf("String() = %q", loc.String())
	}
}

func TestLocationErrors(t *testing.T) {
	tests := []struct {
		name  string
		store *flakyStore
		key   string
		want  errors.Code
	}{
		{
			name:  "missing key",
			store: &flakyStore{data: map[string][]byte{}},
			key:   "nope",
			want:  errors.ErrCodeNotFound,
		},
		{
			name:  "persistent failure",
			store: &flakyStore{data: map[string][]byte{}, failures: 10, err: cache.Retryable(errors.New(errors.ErrCodeExternalIO, "down"))},
			key:   "doc",
			want:  errors.ErrCodeExternalIO,
		},
		{
			name:  "uncoded failure",
			store: &flakyStore{data: map[string][]byte{}, failures: 1, err: os.ErrPermission},
			key:   "doc",
			want:  errors.ErrCodeExternalIO,
		},
		{
			name:  "bad key",
			store: &flakyStore{data: map[string][]byte{}},
			key:   "../etc",
			want:  errors.ErrCodeInvalidInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := At(tt.store, tt.key).WithBackoff(cache.Backoff{Attempts: 2, Delay: time.Millisecond})
			_, err := loc.Open(context.Background())
			if !errors.Is(err, tt.want) {
				t.Errorf("Open() error = %v, want %s", err, tt.want)
			}
		})
	}
}
