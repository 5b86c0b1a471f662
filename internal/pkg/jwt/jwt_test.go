package jwt_test

import (
	"testing"
	"time"

	"github.com/eduflash/core/internal/pkg/jwt"
)

func TestSignAndParse(t *testing.T) {
	token, err := jwt.Sign("user-1", "sess-1", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := jwt.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Fatalf("expected user-1, got %q", claims.UserID)
	}
	if claims.SessionID != "sess-1" {
		t.Fatalf("expected sess-1, got %q", claims.SessionID)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	token, err := jwt.Sign("user-1", "sess-1", -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := jwt.Parse(token); err == nil {
		t.Fatal("expected error for expired token, got nil")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := jwt.Parse("not.a.token"); err == nil {
		t.Fatal("expected error for malformed token, got nil")
	}
}
