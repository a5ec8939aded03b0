package jobs

import (
	"testing"
	"time"
)

func TestScheduleDeletionIgnoresEmptyBatch(t *testing.T) {
	s := NewScheduler(nil, time.Minute)

	s.ScheduleDeletion(-100)

	if len(s.pending) != 0 {
		t.Fatalf("empty batch must not be queued, got %d", len(s.pending))
	}
}

func TestFlushDueKeepsFutureBatches(t *testing.T) {
	s := NewScheduler(nil, time.Hour)

	s.ScheduleDeletion(-100, 1, 2)
	s.ScheduleDeletion(-200, 3)

	s.flushDue(time.Now())

	if len(s.pending) != 2 {
		t.Fatalf("future batches must stay queued, got %d", len(s.pending))
	}
}
