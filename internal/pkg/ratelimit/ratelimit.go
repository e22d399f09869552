package ratelimit

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"
)

// Config describes one limit for an event type. Limits are supplied by the
// route that installs them, not by this package.
type Config struct {
	EventType   string
	MaxRequests int
	Window      time.Duration
}

// Validate reports whether the config describes an enforceable limit. A
// malformed config is a programmer error and is surfaced as such rather than
// being served to callers as a rate-limit rejection.
func (cfg Config) Validate() error {
	if cfg.EventType == "" {
		return errors.New("ratelimit: config requires an event type")
	}
	if cfg.MaxRequests <= 0 {
		return fmt.Errorf("ratelimit: config for %q requires a positive max request count", cfg.EventType)
	}
	if cfg.Window <= 0 {
		return fmt.Errorf("ratelimit: config for %q requires a positive window", cfg.EventType)
	}
	return nil
}

// Outcome classifies an admission decision.
type Outcome int

const (
	// Admitted means the request is within the limit and was recorded.
	Admitted Outcome = iota
	// DegradedAdmitted means the durable store failed and the request was
	// let through without being recorded (fail-open).
	DegradedAdmitted
	// Rejected means the limit is exhausted for the current window.
	Rejected
)

// Decision is the result of one Admit call.
type Decision struct {
	Outcome    Outcome
	RetryAfter time.Duration
}

// Allowed reports whether the request may proceed.
func (d Decision) Allowed() bool {
	return d.Outcome != Rejected
}

// RetryAfterSeconds returns the retry hint rounded to whole seconds.
func (d Decision) RetryAfterSeconds() int {
	return int(math.Round(d.RetryAfter.Seconds()))
}

// Store is the durable append-only event log backing the limiter.
type Store interface {
	CountSince(userID uint, eventType string, since time.Time) (int64, error)
	Record(userID uint, eventType string) error
}

// Limiter admits or rejects actions keyed by (user, event type) using a
// trailing time window over the durable event log.
type Limiter struct {
	store Store
}

// NewLimiter creates a limiter over the given store.
func NewLimiter(store Store) *Limiter {
	return &Limiter{store: store}
}

// Admit counts events for (user, event type) inside the trailing window and
// either records a new event (Admitted) or rejects with a retry hint.
//
// Failure semantics are deliberately fail-open: if the store is unreachable
// the request is admitted without a record, so an infrastructure outage
// degrades rate-limiting accuracy but never availability. The count-then-
// insert pair is not transactional; two racing calls at the boundary can
// both be admitted.
func (l *Limiter) Admit(userID uint, cfg Config) Decision {
	if err := cfg.Validate(); err != nil {
		// Middleware validates at install time, so reaching this is a bug
		// in a direct caller, not a rate-limit condition.
		panic(err)
	}
	if userID == 0 {
		return Decision{Outcome: Rejected, RetryAfter: cfg.Window}
	}

	windowStart := time.Now().Add(-cfg.Window)

	count, err := l.store.CountSince(userID, cfg.EventType, windowStart)
	if err != nil {
		log.Printf("rate limit count failed for user %d event %s, failing open: %v", userID, cfg.EventType, err)
		return Decision{Outcome: DegradedAdmitted}
	}

	if count >= int64(cfg.MaxRequests) {
		return Decision{Outcome: Rejected, RetryAfter: cfg.Window}
	}

	if err := l.store.Record(userID, cfg.EventType); err != nil {
		log.Printf("rate limit record failed for user %d event %s, failing open: %v", userID, cfg.EventType, err)
		return Decision{Outcome: DegradedAdmitted}
	}

	return Decision{Outcome: Admitted}
}

// RejectionMessage builds the user-facing message for a rejected request.
func RejectionMessage(cfg Config) string {
	return fmt.Sprintf("Too many %s requests. Limit: %d per %d seconds",
		cfg.EventType, cfg.MaxRequests, int(math.Round(cfg.Window.Seconds())))
}
