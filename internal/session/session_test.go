package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/ridewise/internal/models"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore(time.Hour)
	s := New(&models.Account{ID: "a1", Name: "Asha"}, models.RoleDriver)
	if err := st.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := st.Get(ctx, s.ID)
	if err != nil || got.AccountID != "a1" || got.Role != models.RoleDriver {
		t.Fatalf("get: %+v %v", got, err)
	}
	_ = st.Delete(ctx, s.ID)
	if _, err := st.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore(time.Minute)
	now := time.Now()
	st.now = func() time.Time { return now }
	s := New(&models.Account{ID: "a1"}, models.RoleRider)
	_ = st.Save(ctx, s)
	st.now = func() time.Time { return now.Add(2 * time.Minute) }
	if _, err := st.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired session, got %v", err)
	}
}

func TestPolicy(t *testing.T) {
	p := NewPolicy([]string{"Boss@example.com"})
	user := &models.Account{Email: "user@example.com"}
	boss := &models.Account{Email: "boss@example.com"}
	if !p.Allows(user, models.RoleRider) || !p.Allows(user, models.RoleDriver) {
		t.Fatal("rider and driver are self-service")
	}
	if p.Allows(user, models.RoleAdmin) {
		t.Fatal("admin must require a grant")
	}
	if !p.Allows(boss, models.RoleAdmin) {
		t.Fatal("granted account should be allowed admin")
	}
	if p.Allows(boss, models.Role("root")) {
		t.Fatal("unknown role allowed")
	}
}

func TestContextRoundTrip(t *testing.T) {
	if FromContext(context.Background()) != nil {
		t.Fatal("expected anonymous")
	}
	s := &Session{ID: "x"}
	if FromContext(WithSession(context.Background(), s)) != s {
		t.Fatal("session not carried")
	}
}
