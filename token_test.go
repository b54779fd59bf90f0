package main

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenTestConfig returns a minimal config for token tests. Only the secret
// and TTL matter here.
func tokenTestConfig() appConfig {
	return appConfig{JWTSecret: "test-secret", TokenTTL: time.Hour}
}

// TestToken_Roundtrip verifies that a generated token parses back to the same
// user id and role.
func TestToken_Roundtrip(t *testing.T) {
	cfg := tokenTestConfig()

	raw, err := generateToken(cfg, 42, roleDoctor)
	if err != nil {
		t.Fatalf("generateToken failed: %v", err)
	}

	userID, role, err := parseToken(cfg, raw)
	if err != nil {
		t.Fatalf("parseToken failed: %v", err)
	}
	if userID != 42 {
		t.Errorf("user id = %d, want 42", userID)
	}
	if role != roleDoctor {
		t.Errorf("role = %q, want %q", role, roleDoctor)
	}
}

// TestToken_WrongSecretRejected verifies that a token signed with one secret
// does not verify under another.
func TestToken_WrongSecretRejected(t *testing.T) {
	raw, err := generateToken(tokenTestConfig(), 42, rolePatient)
	if err != nil {
		t.Fatalf("generateToken failed: %v", err)
	}

	other := appConfig{JWTSecret: "different-secret", TokenTTL: time.Hour}
	if _, _, err := parseToken(other, raw); err == nil {
		t.Error("expected error for wrong secret, got nil")
	}
}

// TestToken_ExpiredRejected verifies that an expired token fails to parse.
func TestToken_ExpiredRejected(t *testing.T) {
	cfg := tokenTestConfig()
	cfg.TokenTTL = -time.Hour

	raw, err := generateToken(cfg, 42, rolePatient)
	if err != nil {
		t.Fatalf("generateToken failed: %v", err)
	}
	if _, _, err := parseToken(cfg, raw); err == nil {
		t.Error("expected error for expired token, got nil")
	}
}

// TestToken_TamperedPayloadRejected verifies that editing the payload breaks
// the signature check.
func TestToken_TamperedPayloadRejected(t *testing.T) {
	cfg := tokenTestConfig()

	raw, err := generateToken(cfg, 42, rolePatient)
	if err != nil {
		t.Fatalf("generateToken failed: %v", err)
	}

	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		t.Fatalf("expected 3 token parts, got %d", len(parts))
	}
	// Flip a character in the claims segment; the signature no longer matches.
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	if _, _, err := parseToken(cfg, tampered); err == nil {
		t.Error("expected error for tampered token, got nil")
	}
}

// TestToken_UnsignedAlgRejected verifies that a token claiming alg=none is
// rejected outright — only HMAC signatures are accepted.
func TestToken_UnsignedAlgRejected(t *testing.T) {
	cfg := tokenTestConfig()

	claims := jwt.MapClaims{
		"user_id": 42,
		"role":    roleDoctor,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("building unsigned token failed: %v", err)
	}

	if _, _, err := parseToken(cfg, raw); err == nil {
		t.Error("expected error for alg=none token, got nil")
	}
}

// TestToken_MissingClaimsRejected verifies that a validly-signed token without
// the expected claims fails to parse.
func TestToken_MissingClaimsRejected(t *testing.T) {
	cfg := tokenTestConfig()

	claims := jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		t.Fatalf("signing token failed: %v", err)
	}

	if _, _, err := parseToken(cfg, raw); err == nil {
		t.Error("expected error for token without user_id/role claims, got nil")
	}
}

// TestToken_GarbageRejected verifies that non-JWT input fails cleanly.
func TestToken_GarbageRejected(t *testing.T) {
	if _, _, err := parseToken(tokenTestConfig(), "not-a-token"); err == nil {
		t.Error("expected error for garbage input, got nil")
	}
}
