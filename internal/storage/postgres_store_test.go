package storage

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
)

// Runs only when PG_TEST_DSN points at a disposable database.
func newTestPostgres(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("PG_TEST_DSN")
	if dsn == "" {
		t.Skip("PG_TEST_DSN not set")
	}
	ctx := context.Background()
	p, err := NewPostgresStore(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := p.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = p.Close(ctx) })
	return p
}

func TestPostgresDuplicateEmail(t *testing.T) {
	p := newTestPostgres(t)
	ctx := context.Background()
	email := uuid.NewString() + "@example.com"
	if err := p.CreateAccount(ctx, account(uuid.NewString(), email)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := p.CreateAccount(ctx, account(uuid.NewString(), email)); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestPostgresReserveAndBookConcurrent(t *testing.T) {
	p := newTestPostgres(t)
	ctx := context.Background()
	o := offer(uuid.NewString(), 3)
	if err := p.CreateOffer(ctx, o); err != nil {
		t.Fatalf("create offer: %v", err)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := p.ReserveAndBook(ctx, booking(uuid.NewString(), o.ID, 2))
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			} else if !errors.Is(err, ErrInsufficientSeats) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if success != 1 {
		t.Fatalf("expected exactly one booking, got %d", success)
	}
	got, err := p.OfferByID(ctx, o.ID)
	if err != nil {
		t.Fatalf("offer: %v", err)
	}
	if got.AvailableSeats != 1 {
		t.Fatalf("expected 1 seat left, got %d", got.AvailableSeats)
	}
}
