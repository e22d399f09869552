package ratelimit

import (
	"errors"
	"testing"
	"time"
)

type memStore struct {
	events []memEvent
	// forced errors
	countErr  error
	recordErr error
}

type memEvent struct {
	userID    uint
	eventType string
	ts        time.Time
}

func (s *memStore) CountSince(userID uint, eventType string, since time.Time) (int64, error) {
	if s.countErr != nil {
		return 0, s.countErr
	}
	var n int64
	for _, e := range s.events {
		if e.userID == userID && e.eventType == eventType && !e.ts.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *memStore) Record(userID uint, eventType string) error {
	if s.recordErr != nil {
		return s.recordErr
	}
	s.events = append(s.events, memEvent{userID: userID, eventType: eventType, ts: time.Now()})
	return nil
}

// age shifts every stored event backwards in time.
func (s *memStore) age(d time.Duration) {
	for i := range s.events {
		s.events[i].ts = s.events[i].ts.Add(-d)
	}
}

func TestAdmitUpToLimitThenReject(t *testing.T) {
	store := &memStore{}
	limiter := NewLimiter(store)
	cfg := Config{EventType: "fetch_reviews", MaxRequests: 3, Window: time.Minute}

	for i := 0; i < 3; i++ {
		d := limiter.Admit(1, cfg)
		if d.Outcome != Admitted {
			t.Fatalf("call %d: expected Admitted, got %v", i+1, d.Outcome)
		}
	}

	d := limiter.Admit(1, cfg)
	if d.Outcome != Rejected {
		t.Fatalf("expected Rejected after limit, got %v", d.Outcome)
	}
	if d.RetryAfter != time.Minute {
		t.Fatalf("expected retry-after %v, got %v", time.Minute, d.RetryAfter)
	}
}

func TestRejectedCallWritesNothing(t *testing.T) {
	store := &memStore{}
	limiter := NewLimiter(store)
	cfg := Config{EventType: "update_reviews", MaxRequests: 1, Window: time.Minute}

	limiter.Admit(7, cfg)
	before := len(store.events)

	d := limiter.Admit(7, cfg)
	if d.Outcome != Rejected {
		t.Fatalf("expected Rejected, got %v", d.Outcome)
	}
	if len(store.events) != before {
		t.Fatalf("rejected call wrote a record: %d -> %d", before, len(store.events))
	}
}

func TestOldRecordsFallOutOfWindow(t *testing.T) {
	store := &memStore{}
	limiter := NewLimiter(store)
	cfg := Config{EventType: "fetch_reviews", MaxRequests: 1, Window: time.Second}

	if d := limiter.Admit(1, cfg); d.Outcome != Admitted {
		t.Fatalf("expected first call admitted, got %v", d.Outcome)
	}
	if d := limiter.Admit(1, cfg); d.Outcome != Rejected {
		t.Fatalf("expected second call rejected, got %v", d.Outcome)
	}

	store.age(1100 * time.Millisecond)

	if d := limiter.Admit(1, cfg); d.Outcome != Admitted {
		t.Fatalf("expected call after window elapsed to be admitted, got %v", d.Outcome)
	}
}

func TestFailOpenOnStoreError(t *testing.T) {
	limiter := NewLimiter(&memStore{countErr: errors.New("connection refused")})
	cfg := Config{EventType: "fetch_reviews", MaxRequests: 1, Window: time.Minute}

	d := limiter.Admit(1, cfg)
	if d.Outcome != DegradedAdmitted {
		t.Fatalf("expected DegradedAdmitted on count error, got %v", d.Outcome)
	}
	if !d.Allowed() {
		t.Fatalf("degraded admission must allow the request")
	}

	limiter = NewLimiter(&memStore{recordErr: errors.New("connection refused")})
	d = limiter.Admit(1, cfg)
	if d.Outcome != DegradedAdmitted {
		t.Fatalf("expected DegradedAdmitted on record error, got %v", d.Outcome)
	}
}

func TestIndependentLimitsPerEventType(t *testing.T) {
	store := &memStore{}
	limiter := NewLimiter(store)
	daily := Config{EventType: "fetch_reviews", MaxRequests: 1, Window: 24 * time.Hour}
	burst := Config{EventType: "update_reviews", MaxRequests: 1, Window: 15 * time.Minute}

	if d := limiter.Admit(1, daily); d.Outcome != Admitted {
		t.Fatalf("expected daily limit admitted, got %v", d.Outcome)
	}
	if d := limiter.Admit(1, burst); d.Outcome != Admitted {
		t.Fatalf("expected burst limit unaffected by daily events, got %v", d.Outcome)
	}
	if d := limiter.Admit(1, daily); d.Outcome != Rejected {
		t.Fatalf("expected daily limit exhausted, got %v", d.Outcome)
	}
}

func TestConcreteScenario(t *testing.T) {
	// config {eventType:"fetch_reviews", maxRequests:2, windowMs:1000};
	// calls at 0ms, 100ms, 200ms -> Admitted, Admitted, Rejected{retryAfter:1};
	// a fourth call at 1100ms -> Admitted.
	store := &memStore{}
	limiter := NewLimiter(store)
	cfg := Config{EventType: "fetch_reviews", MaxRequests: 2, Window: time.Second}

	d1 := limiter.Admit(1, cfg)
	store.age(100 * time.Millisecond)
	d2 := limiter.Admit(1, cfg)
	store.age(100 * time.Millisecond)
	d3 := limiter.Admit(1, cfg)

	if d1.Outcome != Admitted || d2.Outcome != Admitted {
		t.Fatalf("expected first two calls admitted, got %v, %v", d1.Outcome, d2.Outcome)
	}
	if d3.Outcome != Rejected {
		t.Fatalf("expected third call rejected, got %v", d3.Outcome)
	}
	if d3.RetryAfterSeconds() != 1 {
		t.Fatalf("expected retryAfter 1s, got %d", d3.RetryAfterSeconds())
	}

	store.age(900 * time.Millisecond) // now at t=1100ms relative to first call

	d4 := limiter.Admit(1, cfg)
	if d4.Outcome != Admitted {
		t.Fatalf("expected fourth call at t=1100ms admitted, got %v", d4.Outcome)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := Config{EventType: "fetch_reviews", MaxRequests: 1, Window: time.Minute}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	invalid := []Config{
		{MaxRequests: 1, Window: time.Minute},
		{EventType: "fetch_reviews", Window: time.Minute},
		{EventType: "fetch_reviews", MaxRequests: -1, Window: time.Minute},
		{EventType: "fetch_reviews", MaxRequests: 1},
		{EventType: "fetch_reviews", MaxRequests: 1, Window: -time.Second},
	}
	for i, cfg := range invalid {
		if err := cfg.Validate(); err == nil {
			t.Fatalf("config %d: expected validation error for %+v", i, cfg)
		}
	}
}

func TestAdmitPanicsOnInvalidConfig(t *testing.T) {
	limiter := NewLimiter(&memStore{})
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for zero-limit config, got a decision instead")
		}
	}()
	limiter.Admit(1, Config{EventType: "fetch_reviews", MaxRequests: 0, Window: time.Minute})
}

func TestRejectionMessage(t *testing.T) {
	cfg := Config{EventType: "fetch_reviews", MaxRequests: 100, Window: 24 * time.Hour}
	want := "Too many fetch_reviews requests. Limit: 100 per 86400 seconds"
	if got := RejectionMessage(cfg); got != want {
		t.Fatalf("RejectionMessage = %q, want %q", got, want)
	}
}
