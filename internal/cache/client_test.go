package cache

import (
	"context"
	"testing"
	"time"

	"backend-picshare/internal/config"

	"github.com/alicebob/miniredis/v2"
)

func TestConnectEmpty(t *testing.T) {
	if client := Connect(config.Config{}); client != nil {
		t.Fatalf("expected nil redis client when addr empty")
	}
}

func TestConnectServesFeedCache(t *testing.T) {
	srv := miniredis.RunT(t)
	client := Connect(config.Config{RedisAddr: srv.Addr()})
	if client == nil {
		t.Fatalf("expected redis client")
	}
	defer client.Close()

	fc := NewFeedCache(client, time.Minute)
	ctx := context.Background()
	_, gen, err := fc.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := fc.Set(ctx, gen, []byte(`[]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if ttl := srv.TTL(feedKey(gen)); ttl != time.Minute {
		t.Fatalf("ttl = %v", ttl)
	}
	data, _, err := fc.Get(ctx)
	if err != nil || string(data) != `[]` {
		t.Fatalf("get = %q %v", data, err)
	}
	if err := fc.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if data, _, _ := fc.Get(ctx); data != nil {
		t.Fatalf("feed should miss after invalidation, got %q", data)
	}
}

func TestSetUnderRetiredGenerationIsNeverServed(t *testing.T) {
	srv := miniredis.RunT(t)
	client := Connect(config.Config{RedisAddr: srv.Addr()})
	defer client.Close()

	fc := NewFeedCache(client, time.Minute)
	ctx := context.Background()

	_, gen, err := fc.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	// a mutation commits between the store read and the cache write
	if err := fc.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if err := fc.Set(ctx, gen, []byte(`["stale"]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if data, _, _ := fc.Get(ctx); data != nil {
		t.Fatalf("stale feed served: %q", data)
	}
}
