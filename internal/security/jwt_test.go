package security

import (
	"errors"
	"testing"
	"time"
)

func TestIssueAndParseRoundTrip(t *testing.T) {
	mgr := NewJWTManager("0123456789abcdef0123456789abcdef", time.Hour)
	tok, err := mgr.Issue(7, "asha@example.com", "vendor")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := mgr.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	id, err := claims.UserID()
	if err != nil {
		t.Fatalf("user id: %v", err)
	}
	if id != 7 || claims.Email != "asha@example.com" || claims.Role != "vendor" {
		t.Fatalf("claims mismatch: id=%d email=%q role=%q", id, claims.Email, claims.Role)
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		t.Fatal("expected issued-at and expiry claims")
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != time.Hour {
		t.Fatalf("expected 1h lifetime, got %v", got)
	}
}

func TestParseExpiredToken(t *testing.T) {
	mgr := NewJWTManager("0123456789abcdef0123456789abcdef", -time.Minute)
	tok, err := mgr.Issue(1, "user@example.com", "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	_, err = mgr.Parse(tok)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParseExpiryBoundary(t *testing.T) {
	t.Run("accepted shortly before expiry", func(t *testing.T) {
		mgr := NewJWTManager("0123456789abcdef0123456789abcdef", 3*time.Second)
		tok, err := mgr.Issue(1, "user@example.com", "user")
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		if _, err := mgr.Parse(tok); err != nil {
			t.Fatalf("token with remaining lifetime rejected: %v", err)
		}
	})

	t.Run("rejected once the expiry instant passes", func(t *testing.T) {
		// A zero lifetime puts the expiry claim at issue time, so any
		// later parse sits past the boundary. No grace period applies.
		mgr := NewJWTManager("0123456789abcdef0123456789abcdef", 0)
		tok, err := mgr.Issue(1, "user@example.com", "user")
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		if _, err := mgr.Parse(tok); !errors.Is(err, ErrTokenExpired) {
			t.Fatalf("expected ErrTokenExpired at the expiry instant, got %v", err)
		}
	})
}

func TestParseMalformedToken(t *testing.T) {
	mgr := NewJWTManager("0123456789abcdef0123456789abcdef", time.Hour)

	t.Run("garbage", func(t *testing.T) {
		if _, err := mgr.Parse("not.a.jwt"); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("expected ErrTokenMalformed, got %v", err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTManager("ffffffffffffffffffffffffffffffff", time.Hour)
		tok, err := other.Issue(1, "user@example.com", "user")
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		if _, err := mgr.Parse(tok); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("expected ErrTokenMalformed, got %v", err)
		}
	})

	t.Run("expired and tampered reports malformed", func(t *testing.T) {
		other := NewJWTManager("ffffffffffffffffffffffffffffffff", -time.Minute)
		tok, err := other.Issue(1, "user@example.com", "user")
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		if _, err := mgr.Parse(tok); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("expected ErrTokenMalformed for bad signature, got %v", err)
		}
	})
}

func TestOneTimeTokenHashing(t *testing.T) {
	tok, err := NewOneTimeToken()
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if len(tok) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(tok))
	}
	if HashToken(tok) == tok {
		t.Fatal("hash must differ from plaintext")
	}
	if HashToken(tok) != HashToken(tok) {
		t.Fatal("hash must be deterministic")
	}
	other, _ := NewOneTimeToken()
	if other == tok {
		t.Fatal("tokens must be unique")
	}
}
