package auth

import (
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func newTestAuth(t *testing.T) *LocalJWTAuth {
	t.Helper()
	a, err := NewLocalJWTAuth(testSecret, 15*time.Minute, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("Failed to create auth: %v", err)
	}
	return a
}

func TestGenerateAndVerifyTokens(t *testing.T) {
	a := newTestAuth(t)

	access, refresh, err := a.GenerateTokens("user-123", "alice@example.com", "user", 3)
	if err != nil {
		t.Fatalf("GenerateTokens failed: %v", err)
	}
	if access == "" || refresh == "" {
		t.Fatal("Tokens must not be empty")
	}
	if access == refresh {
		t.Error("Access and refresh tokens must differ")
	}

	user, err := a.VerifyAccessToken(access)
	if err != nil {
		t.Fatalf("VerifyAccessToken failed: %v", err)
	}
	if user.ID != "user-123" || user.Email != "alice@example.com" || user.Role != "user" {
		t.Errorf("Unexpected user from access token: %+v", user)
	}

	claims, err := a.VerifyRefreshToken(refresh)
	if err != nil {
		t.Fatalf("VerifyRefreshToken failed: %v", err)
	}
	if claims.UserID != "user-123" {
		t.Errorf("Expected user-123, got %s", claims.UserID)
	}
	if claims.TokenVersion != 3 {
		t.Errorf("Expected token version 3 in refresh claims, got %d", claims.TokenVersion)
	}
}

func TestVerifyAccessToken_Tampered(t *testing.T) {
	a := newTestAuth(t)
	access, _, err := a.GenerateTokens("user-123", "alice@example.com", "user", 0)
	if err != nil {
		t.Fatalf("GenerateTokens failed: %v", err)
	}

	if _, err := a.VerifyAccessToken(access + "x"); err == nil {
		t.Error("Tampered token must be rejected")
	}
	if _, err := a.VerifyAccessToken("not.a.token"); err == nil {
		t.Error("Garbage token must be rejected")
	}
}

func TestVerifyAccessToken_WrongSecret(t *testing.T) {
	a := newTestAuth(t)
	access, _, err := a.GenerateTokens("user-123", "alice@example.com", "user", 0)
	if err != nil {
		t.Fatalf("GenerateTokens failed: %v", err)
	}

	other, err := NewLocalJWTAuth(strings.Repeat("f", 64), 15*time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("Failed to create second auth: %v", err)
	}
	if _, err := other.VerifyAccessToken(access); err == nil {
		t.Error("Token signed with a different secret must be rejected")
	}
}

func TestExtractToken(t *testing.T) {
	token, err := ExtractToken("Bearer abc123")
	if err != nil {
		t.Fatalf("ExtractToken failed: %v", err)
	}
	if token != "abc123" {
		t.Errorf("Expected abc123, got %s", token)
	}

	if _, err := ExtractToken(""); err == nil {
		t.Error("Empty header must be rejected")
	}
	if _, err := ExtractToken("abc123"); err == nil {
		t.Error("Missing Bearer prefix must be rejected")
	}
	if _, err := ExtractToken("Basic abc123"); err == nil {
		t.Error("Non-Bearer scheme must be rejected")
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse-1")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !strings.HasPrefix(hash, "argon2id$") {
		t.Errorf("Unexpected hash format: %s", hash)
	}

	ok, err := VerifyPassword(hash, "correct-horse-1")
	if err != nil {
		t.Fatalf("VerifyPassword failed: %v", err)
	}
	if !ok {
		t.Error("Correct password must verify")
	}

	ok, err = VerifyPassword(hash, "wrong-password-1")
	if err != nil {
		t.Fatalf("VerifyPassword failed: %v", err)
	}
	if ok {
		t.Error("Wrong password must not verify")
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	h1, err := HashPassword("same-password-1")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	h2, err := HashPassword("same-password-1")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if h1 == h2 {
		t.Error("Two hashes of the same password must differ (random salt)")
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	if _, err := VerifyPassword("not-a-valid-hash", "anything"); err == nil {
		t.Error("Malformed hash must return an error")
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		valid    bool
	}{
		{"abcdefg1", true},
		{"A1bcdefg", true},
		{"short1", false},      // under 8 chars
		{"abcdefgh", false},    // no digit
		{"12345678", false},    // no letter
		{"", false},
	}
	for _, tt := range tests {
		err := ValidatePassword(tt.password)
		if tt.valid && err != nil {
			t.Errorf("ValidatePassword(%q) unexpectedly failed: %v", tt.password, err)
		}
		if !tt.valid && err == nil {
			t.Errorf("ValidatePassword(%q) should have failed", tt.password)
		}
	}
}
