package storage

import (
	"bytes"
	"context"
	goerrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/nodewire/pkg/cache"
	"github.com/matzehuels/nodewire/pkg/document"
	"github.com/matzehuels/nodewire/pkg/errors"
)

// Default MongoDB names.
const (
	DefaultMongoDatabase   = "nodewire"
	DefaultMongoCollection = "documents"
)

// mongoRecord is one stored document. The graph is kept as structured BSON
// so it can be queried; Get re-encodes it as JSON.
type mongoRecord struct {
	ID        string            `bson:"_id"`
	Document  document.Document `bson:"document"`
	UpdatedAt time.Time         `bson:"updatedAt"`
}

// MongoStore keeps documents in a MongoDB collection keyed by _id.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	owned  bool
}

// ConnectMongo dials uri and returns a store that owns the connection.
func ConnectMongo(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	if database == "" {
		database = DefaultMongoDatabase
	}
	if collection == "" {
		collection = DefaultMongoCollection
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeExternalIO, err, "connect mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeExternalIO, err, "ping mongo")
	}
	s := NewMongoStore(client.Database(database).Collection(collection))
	s.owned = true
	return s, nil
}

// NewMongoStore wraps an existing collection. The caller owns the client.
func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{client: coll.Database().Client(), coll: coll}
}

// Get implements Store. The stored graph is returned as JSON.
func (s *MongoStore) Get(ctx context.Context, key string) ([]byte, error) {
	var rec mongoRecord
	err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&rec)
	if goerrors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.New(errors.ErrCodeNotFound, "document %q not found", key)
	}
	if err != nil {
		return nil, mongoError(err, "mongo find %q", key)
	}
	return document.Marshal(rec.Document)
}

// Put implements Store. data must be a JSON document; it is validated and
// stored as BSON.
func (s *MongoStore) Put(ctx context.Context, key string, data []byte) error {
	doc, err := document.JSON.Decode(bytes.NewReader(data))
	if err != nil {
		return err
	}
	rec := mongoRecord{ID: key, Document: doc, UpdatedAt: time.Now().UTC()}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": key}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return mongoError(err, "mongo replace %q", key)
	}
	return nil
}

// Delete implements Store.
func (s *MongoStore) Delete(ctx context.Context, key string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return mongoError(err, "mongo delete %q", key)
	}
	return nil
}

// List implements Store.
func (s *MongoStore) List(ctx context.Context) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.M{"_id": 1})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, mongoError(err, "mongo find")
	}
	defer cur.Close(ctx)

	var keys []string
	for cur.Next(ctx) {
		var rec struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&rec); err != nil {
			return nil, errors.Wrap(errors.ErrCodeExternalIO, err, "mongo decode")
		}
		keys = append(keys, rec.ID)
	}
	if err := cur.Err(); err != nil {
		return nil, mongoError(err, "mongo cursor")
	}
	return keys, nil
}

// Backend implements Store.
func (s *MongoStore) Backend() string { return "mongo" }

// Close disconnects the client if the store opened it.
func (s *MongoStore) Close() error {
	if !s.owned {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// mongoError wraps a driver failure as EXTERNAL_IO_FAILURE. Network errors
// and timeouts reported by the server are marked retryable.
func mongoError(err error, format string, args ...any) error {
	wrapped := errors.Wrap(errors.ErrCodeExternalIO, err, format, args...)
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return cache.Retryable(wrapped)
	}
	return wrapped
}

var _ Store = (*MongoStore)(nil)
