package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"doctors-portal-api/internal/model"
	"doctors-portal-api/internal/store"
	"doctors-portal-api/internal/store/memstore"
)

const secret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	tok, err := MakeToken("a@test.com", secret)
	if err != nil {
		t.Fatalf("make token: %v", err)
	}
	claims, err := ParseToken(tok, secret)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Email != "a@test.com" || claims.Subject != "a@test.com" {
		t.Errorf("claims: %+v", claims)
	}

	// ~2 days
	diff := time.Until(claims.ExpiresAt.Time)
	if diff < TokenTTL-time.Minute || diff > TokenTTL+time.Minute {
		t.Errorf("expected ~48h expiry, got %v", diff)
	}
}

func TestTokenLifecycle(t *testing.T) {
	// issued 47h ago: still valid
	fresh, _ := makeToken("a@test.com", secret, time.Now().Add(-47*time.Hour))
	if _, err := ParseToken(fresh, secret); err != nil {
		t.Errorf("token inside window rejected: %v", err)
	}

	// issued 49h ago: expired
	stale, _ := makeToken("a@test.com", secret, time.Now().Add(-49*time.Hour))
	_, err := ParseToken(stale, secret)
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestAlgorithmConfusion(t *testing.T) {
	tok, _ := MakeToken("a@test.com", secret)

	if _, err := ParseToken(tok, "wrong-secret"); err == nil {
		t.Fatal("expected error for wrong secret")
	}
	if _, err := ParseToken("not.a.token", secret); err == nil {
		t.Fatal("expected error for garbage token")
	}

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Email: "a@test.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := ParseToken(none, secret); err == nil {
		t.Fatal("expected error for alg=none token")
	}
}

func TestTokenWithoutExpiryRejected(t *testing.T) {
	tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Email: "a@test.com"}).SignedString([]byte(secret))
	if _, err := ParseToken(tok, secret); err == nil {
		t.Fatal("expected error for token without exp")
	}
}

func TestPasswordHash(t *testing.T) {
	h, err := HashPassword("testpass123")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPassword(h, "testpass123") {
		t.Error("correct password rejected")
	}
	if CheckPassword(h, "wrong") {
		t.Error("wrong password accepted")
	}
}

type failingUsers struct{}

func (failingUsers) UserByEmail(context.Context, string) (*model.User, error) {
	return nil, errors.New("connection refused")
}

func TestIssuer(t *testing.T) {
	st := memstore.New()
	hash, _ := HashPassword("testpass123")
	st.CreateUser(context.Background(), &model.User{ID: "u1", Email: "a@test.com", PasswordHash: hash, Role: model.RolePatient})
	iss := NewIssuer(st, secret)

	tok, err := iss.Issue(context.Background(), "a@test.com", "testpass123")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := ParseToken(tok, secret)
	if err != nil || claims.Email != "a@test.com" {
		t.Fatalf("issued token invalid: %+v %v", claims, err)
	}

	tests := []struct {
		name, email, password string
	}{
		{"unknown email", "nobody@test.com", "testpass123"},
		{"wrong password", "a@test.com", "wrongpassword"},
		{"email only", "a@test.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := iss.Issue(context.Background(), tt.email, tt.password)
			if err != ErrInvalidCredentials {
				t.Errorf("expected ErrInvalidCredentials, got %v", err)
			}
			if tok != "" {
				t.Error("expected empty token")
			}
		})
	}
}

func TestIssuerStoreFailure(t *testing.T) {
	_, err := NewIssuer(failingUsers{}, secret).Issue(context.Background(), "a@test.com", "pw")
	if err == nil || err == ErrInvalidCredentials || errors.Is(err, store.ErrNotFound) {
		t.Errorf("store failure should surface as-is, got %v", err)
	}
}
