package auth

import (
	"testing"
	"time"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatal(err)
	}
	if err := CheckPassword("correct horse", hash); err != nil {
		t.Errorf("expected match, got %v", err)
	}
	if err := CheckPassword("wrong", hash); err == nil {
		t.Error("expected mismatch")
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("short"); err != ErrWeakPassword {
		t.Errorf("expected ErrWeakPassword, got %v", err)
	}
	if err := ValidatePassword("longenough"); err != nil {
		t.Errorf("unexpected %v", err)
	}
}

func TestIssueAndParse(t *testing.T) {
	iss := NewIssuer([]byte("secret"), time.Hour)
	tok, err := iss.Issue(42)
	if err != nil {
		t.Fatal(err)
	}
	id, err := iss.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if id != 42 {
		t.Errorf("expected 42, got %d", id)
	}

	other := NewIssuer([]byte("other"), time.Hour)
	if _, err := other.Parse(tok); err == nil {
		t.Error("expected signature failure with a different secret")
	}
}

func TestExpiredToken(t *testing.T) {
	iss := NewIssuer([]byte("secret"), time.Minute)
	issued := time.Now().Add(-time.Hour)
	iss.now = func() time.Time { return issued }
	tok, err := iss.Issue(1)
	if err != nil {
		t.Fatal(err)
	}
	iss.now = time.Now
	if _, err := iss.Parse(tok); err == nil {
		t.Error("expected expired token to be rejected")
	}
}
