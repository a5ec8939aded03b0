package karma

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	redisdb "karma-bot/internal/db/redis"
)

func TestRestrictionBlocksAfterLimit(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	r := NewRestriction(redisdb.NewWindowStore(client), 3, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := r.Allow(ctx, 42, -100)
		if err != nil {
			t.Fatalf("allow #%d: %v", i+1, err)
		}
		if !allowed {
			t.Fatalf("unexpected block on attempt #%d", i+1)
		}
	}

	allowed, err := r.Allow(ctx, 42, -100)
	if err != nil {
		t.Fatalf("allow #4: %v", err)
	}
	if allowed {
		t.Fatalf("expected block after limit exhausted")
	}
}

func TestRestrictionWindowExpires(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	r := NewRestriction(redisdb.NewWindowStore(client), 1, time.Minute)
	ctx := context.Background()

	if allowed, err := r.Allow(ctx, 42, -100); err != nil || !allowed {
		t.Fatalf("first attempt: allowed=%v err=%v", allowed, err)
	}
	if allowed, err := r.Allow(ctx, 42, -100); err != nil || allowed {
		t.Fatalf("second attempt must be blocked: allowed=%v err=%v", allowed, err)
	}

	mr.FastForward(61 * time.Second)

	if allowed, err := r.Allow(ctx, 42, -100); err != nil || !allowed {
		t.Fatalf("attempt after window: allowed=%v err=%v", allowed, err)
	}
}

func TestRestrictionScopedPerTargetAndChat(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	r := NewRestriction(redisdb.NewWindowStore(client), 1, time.Hour)
	ctx := context.Background()

	if allowed, _ := r.Allow(ctx, 42, -100); !allowed {
		t.Fatalf("first attempt blocked")
	}
	if allowed, _ := r.Allow(ctx, 42, -100); allowed {
		t.Fatalf("same pair must be blocked")
	}
	if allowed, _ := r.Allow(ctx, 43, -100); !allowed {
		t.Fatalf("other target must have own window")
	}
	if allowed, _ := r.Allow(ctx, 42, -200); !allowed {
		t.Fatalf("other chat must have own window")
	}
}

func TestRestrictionDisabledByZeroLimit(t *testing.T) {
	r := NewRestriction(nil, 0, time.Hour)

	allowed, err := r.Allow(context.Background(), 42, -100)
	if err != nil {
		t.Fatalf("allow with disabled limit: %v", err)
	}
	if !allowed {
		t.Fatalf("zero limit must disable restriction")
	}
}

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}

	client := goredis.NewClient(&goredis.Options{
		Addr: mr.Addr(),
	})

	return mr, client
}
