package ratelimit

import "testing"

func TestLimiterConsumesCapacity(t *testing.T) {
	l := New()

	if !l.Allow("train", 2, 0) {
		t.Fatalf("first request must pass")
	}
	if !l.Allow("train", 2, 0) {
		t.Fatalf("second request must pass")
	}
	if l.Allow("train", 2, 0) {
		t.Fatalf("third request must be limited with no refill")
	}
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	l := New()

	if !l.Allow("a", 1, 0) {
		t.Fatalf("key a must pass")
	}
	if l.Allow("a", 1, 0) {
		t.Fatalf("key a must be exhausted")
	}
	if !l.Allow("b", 1, 0) {
		t.Fatalf("key b must be unaffected")
	}
}
