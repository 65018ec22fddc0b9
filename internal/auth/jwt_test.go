package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/justestif/songquiz/internal/errs"
)

func TestTokenIssuer_IssueAndVerify(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret"), time.Hour)
	userID := uuid.New()

	token, err := issuer.Issue(userID)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if token == "" {
		t.Fatal("Issue() returned empty token")
	}

	got, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if got != userID {
		t.Errorf("Verify() = %s, want %s", got, userID)
	}
}

func TestTokenIssuer_VerifyRejects(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret"), time.Hour)
	userID := uuid.New()

	valid, err := issuer.Issue(userID)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	expiredIssuer := NewTokenIssuer([]byte("test-secret"), -time.Hour)
	expired, err := expiredIssuer.Issue(userID)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	otherKey := NewTokenIssuer([]byte("other-secret"), time.Hour)
	foreign, err := otherKey.Issue(userID)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-jwt"},
		{name: "empty", token: ""},
		{name: "expired", token: expired},
		{name: "wrong key", token: foreign},
		{name: "tampered", token: valid + "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := issuer.Verify(tt.token); !errors.Is(err, errs.ErrUnauthenticated) {
				t.Errorf("Verify(%q) error = %v, want ErrUnauthenticated", tt.name, err)
			}
		})
	}
}

func TestNewTokenIssuer_DefaultTTL(t *testing.T) {
	issuer := NewTokenIssuer([]byte("k"), 0)
	if issuer.ttl != DefaultTokenTTL {
		t.Errorf("ttl = %v, want %v", issuer.ttl, DefaultTokenTTL)
	}
}
