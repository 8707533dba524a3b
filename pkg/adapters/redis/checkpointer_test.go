package redis_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/polytrader/polytrader/pkg/adapters/redis"
	"github.com/polytrader/polytrader/pkg/domain"
	"github.com/polytrader/polytrader/pkg/ports/tests"
	backend "github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) *backend.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return backend.NewClient(&backend.Options{Addr: mr.Addr()})
}

func TestRedisCheckpointer_Contract(t *testing.T) {
	cp := redis.NewFromClient(newTestClient(t))
	tests.RunCheckpointerContract(t, cp)
}

func TestRedisCheckpointer_KeyPrefix(t *testing.T) {
	client := newTestClient(t)
	cp := redis.NewFromClient(client, redis.WithPrefix("custom:"))

	ctx := context.Background()
	if _, err := cp.Save(ctx, "t1", domain.NodeResearch, domain.NewState("m1", nil)); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	n, err := client.Exists(ctx, "custom:t1:checkpoints").Result()
	if err != nil {
		t.Fatalf("exists failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected key under custom prefix, got exists=%d", n)
	}
}

func TestRedisCheckpointer_Unavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	cp := redis.NewFromClient(client)
	mr.Close()

	_, err = cp.Save(context.Background(), "t1", domain.NodeResearch, domain.NewState("m1", nil))
	if err == nil {
		t.Fatal("expected error when redis is down")
	}
	var storageErr *domain.StorageError
	if !errors.As(err, &storageErr) {
		t.Errorf("expected StorageError, got %T: %v", err, err)
	}
}
