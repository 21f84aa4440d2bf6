package httpmiddleware

import (
	"testing"
	"time"
)

func TestTokenBucketRefills(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	l := NewTokenBucket(2, 60)
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if !l.Allow("a") {
			t.Fatalf("request %d denied within capacity", i)
		}
	}
	if l.Allow("a") {
		t.Fatal("request beyond capacity allowed")
	}
	if !l.Allow("b") {
		t.Fatal("other caller should have its own bucket")
	}

	now = now.Add(time.Second)
	if !l.Allow("a") {
		t.Fatal("bucket did not refill after one second at 60/min")
	}
}

func TestTokenBucketKeepsPartialInterval(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	l := NewTokenBucket(2, 2)
	l.now = func() time.Time { return now }

	steps := []struct {
		after time.Duration
		want  bool
	}{
		{0, true},
		{0, true},
		{40 * time.Second, true}, // one token earned at 30s
		{20 * time.Second, true}, // 60s: the second token, counting the 10s left over
		{10 * time.Second, false},
		{20 * time.Second, true}, // 90s
	}
	for i, s := range steps {
		now = now.Add(s.after)
		if got := l.Allow("a"); got != s.want {
			t.Fatalf("step %d at %s: allowed=%v, want %v", i, now.Format("15:04:05"), got, s.want)
		}
	}
}

func TestTokenBucketDisabled(t *testing.T) {
	l := NewTokenBucket(0, 0)
	for i := 0; i < 100; i++ {
		if !l.Allow("a") {
			t.Fatal("zero rate should disable limiting")
		}
	}
}
