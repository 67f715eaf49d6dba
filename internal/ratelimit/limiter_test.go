package ratelimit

import (
	"testing"
	"time"
)

func TestAllowWithinLimit(t *testing.T) {
	limiter := New(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !limiter.Allow("key-a") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if limiter.Allow("key-a") {
		t.Fatalf("request over limit should be rejected")
	}
	if !limiter.Allow("key-b") {
		t.Fatalf("independent key should be allowed")
	}
}

func TestAllowResetsAfterWindow(t *testing.T) {
	limiter := New(1, 10*time.Millisecond)

	if !limiter.Allow("key") {
		t.Fatalf("first request should be allowed")
	}
	if limiter.Allow("key") {
		t.Fatalf("second request should be rejected")
	}

	time.Sleep(15 * time.Millisecond)
	if !limiter.Allow("key") {
		t.Fatalf("request after window should be allowed")
	}
}

func TestAllowDisabledLimiter(t *testing.T) {
	limiter := New(0, time.Minute)
	for i := 0; i < 100; i++ {
		if !limiter.Allow("key") {
			t.Fatalf("disabled limiter should always allow")
		}
	}
}

func TestAllowEmptyKey(t *testing.T) {
	limiter := New(5, time.Minute)
	if limiter.Allow("") {
		t.Fatalf("empty key should be rejected")
	}
}
