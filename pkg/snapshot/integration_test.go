//go:build integration

package snapshot

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestRedisStore_Integration(t *testing.T) {
	addr := os.Getenv("STYLESYNC_REDIS_ADDR")
	if addr == "" {
		t.Skip("STYLESYNC_REDIS_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := NewRedisStore(ctx, RedisConfig{
		Addr:   addr,
		Prefix: "stylesync-test:" + uuid.NewString() + ":",
		TTL:    time.Minute,
	})
	if err != nil {
		t.Fatalf("NewRedisStore() error: %v", err)
	}
	defer store.Close()
	exerciseStore(t, store)
}

func TestMongoStore_Integration(t *testing.T) {
	uri := os.Getenv("STYLESYNC_MONGO_URI")
	if uri == "" {
		t.Skip("STYLESYNC_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := NewMongoStore(ctx, MongoConfig{
		URI:        uri,
		Database:   "stylesync_test",
		Collection: "snapshots_" + uuid.NewString()[:8],
	})
	if err != nil {
		t.Fatalf("NewMongoStore() error: %v", err)
	}
	defer func() {
		store.coll.Drop(context.Background())
		store.Close()
	}()
	exerciseStore(t, store)
}
