package dispatch

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/example/ridewise/internal/models"
)

var ErrNoSession = errors.New("no ws session")

// defaultWriteWait caps a push to a driver; notices are sent from the
// rider's booking request.
const defaultWriteWait = 2 * time.Second

// BookingNotice is pushed to a driver when a rider books one of their offers.
type BookingNotice struct {
	Type    string         `json:"type"`
	Booking models.Booking `json:"booking"`
}

// WSSession represents a connected driver session
type WSSession struct {
	conn      *websocket.Conn
	writeWait time.Duration
	mu        sync.Mutex
}

func (s *WSSession) Send(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeWait)); err != nil {
		return err
	}
	return s.conn.WriteJSON(v)
}

// WSRegistry holds one live connection per driver account.
type WSRegistry struct {
	mu        sync.RWMutex
	sessions  map[string]*WSSession
	writeWait time.Duration
}

func NewWSRegistry() *WSRegistry {
	return &WSRegistry{sessions: make(map[string]*WSSession), writeWait: defaultWriteWait}
}

// Add registers conn for driverID, closing any connection it replaces.
func (r *WSRegistry) Add(driverID string, conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.sessions[driverID]; ok {
		_ = old.conn.Close()
	}
	r.sessions[driverID] = &WSSession{conn: conn, writeWait: r.writeWait}
}

// Remove drops conn if it is still the registered one for driverID.
func (r *WSRegistry) Remove(driverID string, conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[driverID]; ok && s.conn == conn {
		delete(r.sessions, driverID)
	}
}

func (r *WSRegistry) NotifyBooking(driverID string, b models.Booking) error {
	r.mu.RLock()
	s, ok := r.sessions[driverID]
	r.mu.RUnlock()
	if !ok {
		return ErrNoSession
	}
	if err := s.Send(BookingNotice{Type: models.EventBookingCreated, Booking: b}); err != nil {
		r.Remove(driverID, s.conn)
		return err
	}
	return nil
}
