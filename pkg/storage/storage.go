// Package storage reads and writes serialized documents.
//
// The editor only sees two small interfaces: an [Opener] returns the bytes
// of a document and a [Saver] accepts them. Implementations:
//   - [File]: a single file on disk, codec chosen by extension
//   - [Location]: one key in a keyed [Store]
//
// Keyed stores:
//   - [FileStore]: one file per key under a directory, for the CLI
//   - [RedisStore]: Redis strings, shared between server instances
//   - [MongoStore]: one MongoDB document per key, stored as BSON
//
// [OpenDialog] and [SaveDialog] ask the user for a path with a native file
// dialog and return a [File].
//
// # Errors
//
// Every backend reports I/O problems as EXTERNAL_IO_FAILURE and a missing
// key as NOT_FOUND. Transient Redis and MongoDB failures are retried with
// [cache.RetryWithBackoff] before they are reported.
//
// # Usage
//
//	store := storage.NewRedisStore(client, "nodewire:doc:", 0)
//	id := storage.NewID()
//	err := ed.Save(ctx, storage.At(store, id))
//	...
//	err = ed.Open(ctx, storage.At(store, id))
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/nodewire/pkg/cache"
	"github.com/matzehuels/nodewire/pkg/document"
	"github.com/matzehuels/nodewire/pkg/errors"
	"github.com/matzehuels/nodewire/pkg/observability"
)

// Opener reads a serialized document.
type Opener interface {
	// Open returns the encoded document.
	Open(ctx context.Context) ([]byte, error)

	// Codec returns the codec the bytes are encoded with.
	Codec() document.Codec

	// String describes the source for logs.
	String() string
}

// Saver writes a serialized document.
type Saver interface {
	// Save replaces the stored document with data.
	Save(ctx context.Context, data []byte) error

	// Codec returns the codec Save expects.
	Codec() document.Codec

	String() string
}

// Store is a keyed document store.
type Store interface {
	// Get returns the stored bytes. A missing key is NOT_FOUND.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores data under key, replacing any previous value.
	Put(ctx context.Context, key string, data []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns the stored keys in lexical order.
	List(ctx context.Context) ([]string, error)

	// Backend names the store in logs and metrics ("file", "redis", "mongo").
	Backend() string

	Close() error
}

// NewID returns a fresh document key.
func NewID() string {
	return uuid.NewString()
}

// =============================================================================
// Location
// =============================================================================

// Location addresses one key of a [Store]. It implements [Opener] and [Saver].
type Location struct {
	store   Store
	key     string
	codec   document.Codec
	backoff cache.Backoff
}

// At returns the location of key in store. Documents are JSON unless
// [Location.WithCodec] says otherwise.
func At(store Store, key string) *Location {
	return &Location{store: store, key: key, codec: document.JSON, backoff: cache.DefaultBackoff}
}

// WithCodec sets the codec used for this location.
func (l *Location) WithCodec(c document.Codec) *Location {
	l.codec = c
	return l
}

// WithBackoff sets the retry policy for transient failures.
func (l *Location) WithBackoff(b cache.Backoff) *Location {
	l.backoff = b
	return l
}

// Key returns the key addressed by l.
func (l *Location) Key() string { return l.key }

// Codec implements Opener and Saver.
func (l *Location) Codec() document.Codec { return l.codec }

func (l *Location) String() string { return l.store.Backend() + ":" + l.key }

// Open implements Opener.
func (l *Location) Open(ctx context.Context) ([]byte, error) {
	if err := errors.ValidateDocumentKey(l.key); err != nil {
		return nil, err
	}
	start := time.Now()
	var data []byte
	err := cache.RetryWithBackoff(ctx, l.backoff, func() error {
		var err error
		data, err = l.store.Get(ctx, l.key)
		return err
	})
	err = ioError(err, "open %s", l)
	observability.Storage().OnOpen(ctx, l.store.Backend(), len(data), time.Since(start), err)
	return data, err
}

// Save implements Saver.
func (l *Location) Save(ctx context.Context, data []byte) error {
	if err := errors.ValidateDocumentKey(l.key); err != nil {
		return err
	}
	start := time.Now()
	err := cache.RetryWithBackoff(ctx, l.backoff, func() error {
		return l.store.Put(ctx, l.key, data)
	})
	err = ioError(err, "save %s", l)
	observability.Storage().OnSave(ctx, l.store.Backend(), len(data), time.Since(start), err)
	return err
}

// ioError keeps coded errors and wraps everything else, including a context
// that ended during a retry wait, as EXTERNAL_IO_FAILURE.
func ioError(err error, format string, args ...any) error {
	if err == nil || errors.GetCode(err) != "" {
		return err
	}
	return errors.Wrap(errors.ErrCodeExternalIO, err, format, args...)
}

var (
	_ Opener = (*Location)(nil)
	_ Saver  = (*Location)(nil)
)
