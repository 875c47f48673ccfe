package ratelimit

import (
	"sync"
	"time"
)

// Scope namespaces a bucket key so two callers can never collide on the same
// underlying entry even if they happen to pick the same id — an API key's ID
// and a search property tag are drawn from unrelated spaces.
type Scope string

const (
	// ScopeAPIKey buckets by the requesting key's id (§the httpapi
	// middleware, one bucket per caller regardless of which searchProperty
	// they query).
	ScopeAPIKey Scope = "apikey"
)

func bucketKey(scope Scope, id string) string {
	return string(scope) + ":" + id
}

// entry tracks the token-bucket state for a single key.
type entry struct {
	tokens    float64
	lastCheck time.Time
}

// Limiter implements an in-memory token-bucket rate limiter.
// Tokens refill at a rate of (limit / window) per second.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	window  time.Duration
}

// New creates a rate limiter with the given refill window.
// Each key gets `limit` tokens per window, refilled continuously.
func New(window time.Duration) *Limiter {
	l := &Limiter{
		entries: make(map[string]*entry),
		window:  window,
	}
	go l.cleanup()
	return l
}

// Allow checks whether scope/id has remaining capacity (e.g. ScopeAPIKey and
// a validated key's KeyInfo.ID). It consumes one token on success and
// returns true. Returns false when the rate limit has been exceeded.
func (l *Limiter) Allow(scope Scope, id string, limit int) bool {
	key := bucketKey(scope, id)

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	e, exists := l.entries[key]
	if !exists {
		l.entries[key] = &entry{
			tokens:    float64(limit - 1),
			lastCheck: now,
		}
		return true
	}

	elapsed := now.Sub(e.lastCheck)
	e.lastCheck = now

	// Refill tokens proportionally to elapsed time.
	rate := float64(limit) / l.window.Seconds()
	e.tokens += elapsed.Seconds() * rate
	if e.tokens > float64(limit) {
		e.tokens = float64(limit)
	}

	if e.tokens < 1 {
		return false
	}

	e.tokens--
	return true
}

// Reset clears the rate-limit state for scope/id, e.g. after RevokeKey so a
// revoked and later re-issued key with the same id doesn't inherit a stale
// bucket.
func (l *Limiter) Reset(scope Scope, id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, bucketKey(scope, id))
}

// cleanup periodically removes stale entries to prevent memory leaks.
func (l *Limiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		l.mu.Lock()
		cutoff := time.Now().Add(-2 * l.window)
		for key, e := range l.entries {
			if e.lastCheck.Before(cutoff) {
				delete(l.entries, key)
			}
		}
		l.mu.Unlock()
	}
}
