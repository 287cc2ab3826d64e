//go:build integration

package storage

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/nodewire/pkg/document"
	"github.com/matzehuels/nodewire/pkg/errors"
)

func testDocument(t *testing.T) []byte {
	t.Helper()
	data, err := document.Marshal(document.Document{
		FormatVersion: document.FormatVersion,
		Nodes: []document.Node{
			{ID: 1, Kind: "NodeA", Controls: map[string]any{"a": "hello"}},
		},
		Connections: []document.Connection{},
	})
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	key := NewID()
	t.Cleanup(func() { _ = s.Delete(ctx, key) })

	if _, err := s.Get(ctx, key); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Fatalf("Get(new key) error = %v, want NOT_FOUND", err)
	}
	if err := At(s, key).Save(ctx, testDocument(t)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := At(s, key).Open(ctx)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	doc, err := document.Unmarshal(data)
	if err != nil {
		t.Fatalf("stored bytes do not decode: %v", err)
	}
	if len(doc.Nodes) != 1 || doc.Nodes[0].Controls["a"] != "hello" {
		t.Errorf("round trip lost data: %+v", doc)
	}

	keys, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, k := range keys {
		found = found || k == key
	}
	if !found {
		t.Errorf("List() = %v, missing %s", keys, key)
	}
}

func TestRedisStoreIntegration(t *testing.T) {
	addr := os.Getenv("NODEWIRE_REDIS_ADDR")
	if addr == "" {
		t.Skip("NODEWIRE_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	exerciseStore(t, NewRedisStore(client, "nodewire-test:doc:", 0))
}

func TestMongoStoreIntegration(t *testing.T) {
	uri := os.Getenv("NODEWIRE_MONGO_URI")
	if uri == "" {
		t.Skip("NODEWIRE_MONGO_URI not set")
	}
	s, err := ConnectMongo(context.Background(), uri, "nodewire_test", "documents")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	exerciseStore(t, s)
}
