package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTokenRoundTrip(t *testing.T) {
	userID := uuid.New()

	token, err := GenerateToken("secret", userID, "maria@example.com", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	parsed, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != userID {
		t.Fatalf("parsed id = %s, want %s", parsed, userID)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret", uuid.New(), "maria@example.com", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ParseToken("other", token); err == nil {
		t.Fatal("expected signature verification to fail")
	}
}

func TestTokenExpired(t *testing.T) {
	token, err := GenerateToken("secret", uuid.New(), "maria@example.com", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ParseToken("secret", token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}
