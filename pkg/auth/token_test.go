package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"tradepost/pkg/config"
	"tradepost/pkg/enums"
)

var testJWT = config.JWTConfig{Secret: "test-secret", Issuer: "tradepost-identity"}

func TestMintAndParseRoundTrip(t *testing.T) {
	userID := uuid.New()
	token, err := MintAccessToken(testJWT, time.Now(), time.Hour, userID, enums.UserRoleSeller)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	claims, err := ParseAccessToken(testJWT, token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("user id mismatch: %s", claims.UserID)
	}
	if claims.Role != enums.UserRoleSeller {
		t.Fatalf("role mismatch: %s", claims.Role)
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	other := config.JWTConfig{Secret: "test-secret", Issuer: "someone-else"}
	token, err := MintAccessToken(other, time.Now(), time.Hour, uuid.New(), enums.UserRoleAdmin)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(testJWT, token); err == nil {
		t.Fatal("expected issuer mismatch to fail")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	token, err := MintAccessToken(testJWT, time.Now().Add(-2*time.Hour), time.Hour, uuid.New(), enums.UserRoleBuyer)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(testJWT, token); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestParseRejectsBogusRole(t *testing.T) {
	if _, err := MintAccessToken(testJWT, time.Now(), time.Hour, uuid.New(), enums.UserRole("superuser")); err == nil {
		t.Fatal("expected mint to reject unknown role")
	}
}

func TestParseRejectsTamperedSecret(t *testing.T) {
	token, err := MintAccessToken(config.JWTConfig{Secret: "other", Issuer: testJWT.Issuer}, time.Now(), time.Hour, uuid.New(), enums.UserRoleAdmin)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(testJWT, token); err == nil {
		t.Fatal("expected signature verification to fail")
	}
}
