package middleware

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsWithinLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	defer rl.Close()

	for i := 0; i < 3; i++ {
		if !rl.Allow(42) {
			t.Fatalf("request #%d unexpectedly blocked", i+1)
		}
	}
	if rl.Allow(42) {
		t.Fatalf("expected block after limit exhausted")
	}
	if !rl.Allow(43) {
		t.Fatalf("other user must have own window")
	}
}

func TestTrimOld(t *testing.T) {
	now := time.Now()
	times := []time.Time{
		now.Add(-3 * time.Minute),
		now.Add(-2 * time.Minute),
		now.Add(-30 * time.Second),
	}

	got := trimOld(times, now.Add(-time.Minute))
	if len(got) != 1 || !got[0].Equal(times[2]) {
		t.Fatalf("unexpected trim result: %v", got)
	}

	if got := trimOld(times, now); got != nil {
		t.Fatalf("expected nil when everything is old, got %v", got)
	}
}
