package auth

import (
	"strings"
	"testing"
	"time"
)

const testSecret = "test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := NewAccessToken(42, "a@x.com", "admin", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}

	claims, err := Parse(token, testSecret)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Sub != 42 {
		t.Errorf("sub = %d, want 42", claims.Sub)
	}
	if claims.Email != "a@x.com" {
		t.Errorf("email = %q, want a@x.com", claims.Email)
	}
	if claims.Role != "admin" {
		t.Errorf("role = %q, want admin", claims.Role)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := NewAccessToken(1, "a@x.com", "user", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if _, err := Parse(token, "other-secret"); err == nil {
		t.Fatal("expected signature verification to fail")
	}
}

func TestParseRejectsTamperedToken(t *testing.T) {
	token, err := NewAccessToken(1, "a@x.com", "user", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape %q", token)
	}
	// Flip a byte in the payload; the signature no longer covers it.
	payload := []byte(parts[1])
	payload[0] ^= 0x01
	tampered := parts[0] + "." + string(payload) + "." + parts[2]
	if _, err := Parse(tampered, testSecret); err != nil {
		if IsExpired(err) {
			t.Fatalf("tampering reported as expiry: %v", err)
		}
	} else {
		t.Fatal("expected tampered token to be rejected")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	// Zero TTL expires the token at its own issuance instant; the expiry
	// boundary itself counts as expired.
	token, err := NewAccessToken(1, "a@x.com", "user", testSecret, 0)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	_, err = Parse(token, testSecret)
	if err == nil {
		t.Fatal("expected expired token to be rejected")
	}
	if !IsExpired(err) {
		t.Fatalf("expected expiry error, got %v", err)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse("not-a-token", testSecret); err == nil {
		t.Fatal("expected malformed token to be rejected")
	}
}
