package storage

import (
	"context"
	"errors"

	"github.com/example/ridewise/internal/models"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrInsufficientSeats = errors.New("insufficient seats")
)

// AccountStore persists accounts. Email is unique.
type AccountStore interface {
	CreateAccount(ctx context.Context, a *models.Account) error
	AccountByEmail(ctx context.Context, email string) (*models.Account, error)
	AccountByID(ctx context.Context, id string) (*models.Account, error)
}

// OfferQuery matches offers by exact string equality and remaining seats.
type OfferQuery struct {
	Origin      string
	Destination string
	Date        string
	Time        string
	MinSeats    int
}

type OfferStore interface {
	CreateOffer(ctx context.Context, o *models.RideOffer) error
	// FindMatchingOffer returns the first offer in insertion order, or ErrNotFound.
	FindMatchingOffer(ctx context.Context, q OfferQuery) (*models.RideOffer, error)
	OfferByID(ctx context.Context, id string) (*models.RideOffer, error)
	OffersByDriver(ctx context.Context, driverID string) ([]models.RideOffer, error)
}

type BookingStore interface {
	// ReserveAndBook decrements the offer's seats by b.People only if enough
	// remain and records b. Either both happen or neither does.
	ReserveAndBook(ctx context.Context, b *models.Booking) error
	BookingsByRider(ctx context.Context, riderID string) ([]models.Booking, error)
	BookingsByDriver(ctx context.Context, driverID string) ([]models.Booking, error)
}

// Store is the full persistence surface used by the server.
type Store interface {
	AccountStore
	OfferStore
	BookingStore
	Close(ctx context.Context) error
}
