package models

import (
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	for _, s := range []string{"rider", "driver", "admin"} {
		if r, ok := ParseRole(s); !ok || string(r) != s {
			t.Fatalf("expected %q to parse, got %q ok=%v", s, r, ok)
		}
	}
	if _, ok := ParseRole("superuser"); ok {
		t.Fatal("unexpected role accepted")
	}
}

func TestValidateRejectsMissingFields(t *testing.T) {
	err := Validate(&RideOffer{ID: "o1", DriverID: "d1", Origin: "A"})
	if !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
	ok := &RideOffer{ID: "o1", DriverID: "d1", Origin: "A", Destination: "B", Date: "2026-01-01", Time: "09:00"}
	if err := Validate(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateAccountEmail(t *testing.T) {
	a := &Account{ID: "a1", Name: "n", Email: "not-an-email", Phone: "1", PasswordHash: "h"}
	if err := Validate(a); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected invalid email rejected, got %v", err)
	}
}
