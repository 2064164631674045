package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndParse(t *testing.T) {
	ti := NewTokenIssuer("secret", 30*time.Minute)

	issued, err := ti.Issue(42)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if issued.ID == "" {
		t.Error("expected a token id")
	}
	if strings.Count(issued.Token, ".") != 2 {
		t.Errorf("token %q is not a compact JWT", issued.Token)
	}

	claims, err := ti.Parse(issued.Token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	id, err := claims.UserID()
	if err != nil {
		t.Fatalf("user id: %v", err)
	}
	if id != 42 {
		t.Errorf("user id = %d, want 42", id)
	}
	if claims.ID != issued.ID {
		t.Errorf("jti = %q, want %q", claims.ID, issued.ID)
	}
}

func TestParseExpired(t *testing.T) {
	ti := NewTokenIssuer("secret", 30*time.Minute)
	ti.now = func() time.Time { return time.Now().Add(-time.Hour) }
	issued, err := ti.Issue(1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	ti.now = time.Now
	if _, err := ti.Parse(issued.Token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParseWrongSecret(t *testing.T) {
	issued, _ := NewTokenIssuer("secret", time.Minute).Issue(1)

	if _, err := NewTokenIssuer("other", time.Minute).Parse(issued.Token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParseRejectsOtherAlgorithms(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Issuer:    "nutribox",
		Subject:   "1",
		ID:        "x",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := NewTokenIssuer("secret", time.Minute).Parse(raw); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParseGarbage(t *testing.T) {
	if _, err := NewTokenIssuer("secret", time.Minute).Parse("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}
