package cache

import "testing"

func TestHashToken(t *testing.T) {
	h1 := hashToken("session-token")
	h2 := hashToken("session-token")
	h3 := hashToken("other-token")

	if h1 != h2 {
		t.Error("expected deterministic hashing")
	}
	if h1 == h3 {
		t.Error("expected distinct tokens to hash differently")
	}
	if len(h1) != 32 {
		t.Errorf("expected 32 hex chars, got %d", len(h1))
	}
	if h1 == "session-token" {
		t.Error("raw token must never be used as a key")
	}
}

func TestHashIP(t *testing.T) {
	h1 := hashIP("203.0.113.7")
	h2 := hashIP("203.0.113.7")
	h3 := hashIP("203.0.113.8")

	if h1 != h2 {
		t.Error("expected deterministic hashing")
	}
	if h1 == h3 {
		t.Error("expected distinct IPs to hash differently")
	}
	if len(h1) != 16 {
		t.Errorf("expected 16 hex chars, got %d", len(h1))
	}
}
