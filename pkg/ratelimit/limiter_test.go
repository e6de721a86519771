package ratelimit

import (
	"testing"
	"time"
)

func TestTokenBucket(t *testing.T) {
	tb := NewTokenBucket(5, time.Second)

	// Test initial capacity
	for i := 0; i < 5; i++ {
		if !tb.Allow() {
			t.Errorf("Expected token %d to be available", i+1)
		}
	}

	// Test exhaustion
	if tb.Allow() {
		t.Error("Expected no more tokens to be available")
	}

	// Test refill after waiting
	time.Sleep(time.Second + 100*time.Millisecond)
	if !tb.Allow() {
		t.Error("Expected tokens to be refilled after waiting")
	}

	// Test reset
	tb.tokens = 0
	tb.Reset()
	if tb.tokens != tb.capacity {
		t.Error("Expected tokens to be reset to capacity")
	}
}

func TestIntervalUnlimited(t *testing.T) {
	i := NewInterval(0)

	for n := 0; n < 100; n++ {
		if !i.Allow() {
			t.Fatal("Expected unlimited limiter to always allow")
		}
	}
}

func TestIntervalSpacing(t *testing.T) {
	i := NewInterval(10) // 100ms spacing

	if !i.Allow() {
		t.Fatal("Expected first request to be allowed")
	}
	if i.Allow() {
		t.Error("Expected immediate second request to be denied")
	}

	time.Sleep(120 * time.Millisecond)
	if !i.Allow() {
		t.Error("Expected request to be allowed after interval elapsed")
	}
}

func TestIntervalWait(t *testing.T) {
	i := NewInterval(20) // 50ms spacing

	start := time.Now()
	i.Wait()
	i.Wait()
	elapsed := time.Since(start)

	if elapsed < 40*time.Millisecond {
		t.Errorf("Expected second Wait to block ~50ms, elapsed %v", elapsed)
	}
}

func TestIntervalReset(t *testing.T) {
	i := NewInterval(1) // 1s spacing

	if !i.Allow() {
		t.Fatal("Expected first request to be allowed")
	}
	i.Reset()
	if !i.Allow() {
		t.Error("Expected request to be allowed after reset")
	}
}

func TestSlidingWindow(t *testing.T) {
	sw := NewSlidingWindow(3, time.Second)

	// Test initial requests
	for i := 0; i < 3; i++ {
		if !sw.Allow() {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
	}

	// Test limit reached
	if sw.Allow() {
		t.Error("Expected request to be denied when limit is reached")
	}

	// Test window sliding
	time.Sleep(time.Second + 100*time.Millisecond)
	if !sw.Allow() {
		t.Error("Expected request to be allowed after window slides")
	}

	// Test reset
	sw.Reset()
	if len(sw.requests) != 0 {
		t.Error("Expected requests to be cleared after reset")
	}
}
