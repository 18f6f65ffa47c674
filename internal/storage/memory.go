package storage

import (
	"context"
	"strings"
	"sync"

	"github.com/example/ridewise/internal/models"
)

// MemoryStore keeps every collection in process memory.
type MemoryStore struct {
	mu           sync.RWMutex
	accounts     map[string]*models.Account
	accountEmail map[string]string
	offers       []*models.RideOffer
	offerIndex   map[string]*models.RideOffer
	bookings     []*models.Booking
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:     make(map[string]*models.Account),
		accountEmail: make(map[string]string),
		offerIndex:   make(map[string]*models.RideOffer),
	}
}

func (m *MemoryStore) CreateAccount(ctx context.Context, a *models.Account) error {
	if err := models.Validate(a); err != nil {
		return err
	}
	key := strings.ToLower(a.Email)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accountEmail[key]; ok {
		return ErrDuplicateEmail
	}
	cp := *a
	m.accounts[a.ID] = &cp
	m.accountEmail[key] = a.ID
	return nil
}

func (m *MemoryStore) AccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.accountEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m.accounts[id]
	return &cp, nil
}

func (m *MemoryStore) AccountByID(ctx context.Context, id string) (*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MemoryStore) CreateOffer(ctx context.Context, o *models.RideOffer) error {
	if err := models.Validate(o); err != nil {
		return err
	}
	cp := *o
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offers = append(m.offers, &cp)
	m.offerIndex[cp.ID] = &cp
	return nil
}

func (m *MemoryStore) FindMatchingOffer(ctx context.Context, q OfferQuery) (*models.RideOffer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.offers {
		if o.Origin == q.Origin && o.Destination == q.Destination &&
			o.Date == q.Date && o.Time == q.Time && o.AvailableSeats >= q.MinSeats {
			cp := *o
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) OfferByID(ctx context.Context, id string) (*models.RideOffer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.offerIndex[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *MemoryStore) OffersByDriver(ctx context.Context, driverID string) ([]models.RideOffer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.RideOffer{}
	for _, o := range m.offers {
		if o.DriverID == driverID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *MemoryStore) ReserveAndBook(ctx context.Context, b *models.Booking) error {
	if err := models.Validate(b); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.offerIndex[b.OfferID]
	if !ok {
		return ErrNotFound
	}
	if o.AvailableSeats < b.People {
		return ErrInsufficientSeats
	}
	o.AvailableSeats -= b.People
	cp := *b
	m.bookings = append(m.bookings, &cp)
	return nil
}

func (m *MemoryStore) BookingsByRider(ctx context.Context, riderID string) ([]models.Booking, error) {
	return m.filterBookings(func(b *models.Booking) bool { return b.RiderID == riderID }), nil
}

func (m *MemoryStore) BookingsByDriver(ctx context.Context, driverID string) ([]models.Booking, error) {
	return m.filterBookings(func(b *models.Booking) bool { return b.DriverID == driverID }), nil
}

func (m *MemoryStore) filterBookings(keep func(*models.Booking) bool) []models.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Booking{}
	for _, b := range m.bookings {
		if keep(b) {
			out = append(out, *b)
		}
	}
	return out
}

func (m *MemoryStore) Close(ctx context.Context) error { return nil }
