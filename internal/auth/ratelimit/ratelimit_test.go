package ratelimit

import (
	"testing"
	"time"
)

func TestAllow_GrantsUpToLimitThenRejects(t *testing.T) {
	l := New(time.Minute)
	for i := 0; i < 3; i++ {
		if !l.Allow(ScopeAPIKey, "key", 3) {
			t.Fatalf("request %d: expected allow within limit", i)
		}
	}
	if l.Allow(ScopeAPIKey, "key", 3) {
		t.Errorf("expected request beyond limit to be rejected")
	}
}

func TestAllow_SeparateKeysTrackedIndependently(t *testing.T) {
	l := New(time.Minute)
	if !l.Allow(ScopeAPIKey, "a", 1) {
		t.Fatalf("expected first request for key a to be allowed")
	}
	if !l.Allow(ScopeAPIKey, "b", 1) {
		t.Errorf("expected first request for key b to be allowed independently of key a")
	}
}

func TestReset_ClearsKeyState(t *testing.T) {
	l := New(time.Minute)
	l.Allow(ScopeAPIKey, "key", 1)
	if l.Allow(ScopeAPIKey, "key", 1) {
		t.Fatalf("expected second request to be rejected before reset")
	}
	l.Reset(ScopeAPIKey, "key")
	if !l.Allow(ScopeAPIKey, "key", 1) {
		t.Errorf("expected request to be allowed again after Reset")
	}
}
