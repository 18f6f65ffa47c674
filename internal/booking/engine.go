package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/ridewise/internal/geocode"
	"github.com/example/ridewise/internal/models"
	"github.com/example/ridewise/internal/observability"
	"github.com/example/ridewise/internal/routing"
	"github.com/example/ridewise/internal/storage"
)

var (
	ErrInvalidLocation     = errors.New("invalid location entered")
	ErrDistanceUnavailable = errors.New("unable to calculate distance")
	// ErrNoMatchingOffer is an expected outcome, not a failure.
	ErrNoMatchingOffer  = errors.New("no matching ride offer")
	ErrInvalidPartySize = errors.New("party size must be at least 1")
	ErrMissingField     = errors.New("missing required field")
	ErrFareHold         = errors.New("fare hold failed")
)

const notAvailable = "N/A"

// EventPublisher receives booking events after they are persisted.
type EventPublisher interface {
	PublishBooking(ctx context.Context, ev models.BookingEvent) error
}

// Notifier pushes new bookings to the owning driver.
type Notifier interface {
	NotifyBooking(driverID string, b models.Booking) error
}

// FareHolder authorises the fare before seats are reserved.
type FareHolder interface {
	Hold(ctx context.Context, fare float64, reference string) (string, error)
	Cancel(ctx context.Context, holdID string) error
}

// Deps wires the engine to its stores and clients.
type Deps struct {
	Geocoder geocode.Geocoder
	Router   routing.Router
	Accounts storage.AccountStore
	Offers   storage.OfferStore
	Bookings storage.BookingStore

	// optional
	Events   EventPublisher
	Notifier Notifier
	Fares    FareHolder
	Logger   *slog.Logger
}

// Engine matches riders to offers and records bookings.
type Engine struct {
	geocoder geocode.Geocoder
	router   routing.Router
	accounts storage.AccountStore
	offers   storage.OfferStore
	bookings storage.BookingStore
	events   EventPublisher
	notifier Notifier
	fares    FareHolder
	logger   *slog.Logger
	now      func() time.Time
}

// NewEngine defaults the logger to slog.Default.
func NewEngine(d Deps) *Engine {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		geocoder: d.Geocoder,
		router:   d.Router,
		accounts: d.Accounts,
		offers:   d.Offers,
		bookings: d.Bookings,
		events:   d.Events,
		notifier: d.Notifier,
		fares:    d.Fares,
		logger:   logger,
		now:      time.Now,
	}
}

// BookRequest is a rider asking for seats on an exact route and departure.
type BookRequest struct {
	RiderID     string
	Origin      string
	Destination string
	Date        string
	Time        string
	PartySize   int
}

// BookRide matches the request against an offer and reserves seats on it.
func (e *Engine) BookRide(ctx context.Context, req BookRequest) (*models.Booking, error) {
	b, err := e.bookRide(ctx, req)
	observability.BookingsTotal.WithLabelValues(outcome(err)).Inc()
	return b, err
}

func (e *Engine) bookRide(ctx context.Context, req BookRequest) (*models.Booking, error) {
	if req.RiderID == "" || req.Origin == "" || req.Destination == "" || req.Date == "" || req.Time == "" {
		return nil, ErrMissingField
	}
	if req.PartySize < 1 {
		return nil, ErrInvalidPartySize
	}

	from, ok, err := e.geocoder.Geocode(ctx, req.Origin)
	if err != nil || !ok {
		e.logger.Warn("origin unresolved", "address", req.Origin, "error", err)
		return nil, ErrInvalidLocation
	}
	to, ok, err := e.geocoder.Geocode(ctx, req.Destination)
	if err != nil || !ok {
		e.logger.Warn("destination unresolved", "address", req.Destination, "error", err)
		return nil, ErrInvalidLocation
	}

	distance, err := e.router.DistanceKm(ctx, from, to)
	if err != nil || distance == 0 {
		e.logger.Warn("distance unavailable", "from", from, "to", to, "error", err)
		return nil, ErrDistanceUnavailable
	}

	offer, err := e.offers.FindMatchingOffer(ctx, storage.OfferQuery{
		Origin:      req.Origin,
		Destination: req.Destination,
		Date:        req.Date,
		Time:        req.Time,
		MinSeats:    req.PartySize,
	})
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoMatchingOffer
	}
	if err != nil {
		return nil, fmt.Errorf("find offer: %w", err)
	}

	driverName, driverPhone := notAvailable, notAvailable
	if d, err := e.accounts.AccountByID(ctx, offer.DriverID); err == nil {
		driverName, driverPhone = d.Name, d.Phone
	} else {
		e.logger.Warn("driver lookup failed", "driver_id", offer.DriverID, "error", err)
	}
	vehicle := offer.Vehicle
	if strings.TrimSpace(vehicle) == "" {
		vehicle = notAvailable
	}

	m := ComputeEcoMetrics(distance)
	b := &models.Booking{
		ID:          uuid.NewString(),
		OfferID:     offer.ID,
		DriverID:    offer.DriverID,
		RiderID:     req.RiderID,
		DriverName:  driverName,
		DriverPhone: driverPhone,
		Vehicle:     vehicle,
		Origin:      req.Origin,
		Destination: req.Destination,
		DistanceKm:  distance,
		People:      req.PartySize,
		Fare:        m.Fare,
		FuelSaved:   m.FuelSaved,
		CO2Saved:    m.CO2Saved,
		EcoPoints:   m.EcoPoints,
		Status:      models.BookingUpcoming,
		CreatedAt:   e.now().UTC(),
	}

	var holdID string
	if e.fares != nil {
		holdID, err = e.fares.Hold(ctx, b.Fare, b.ID)
		if err != nil {
			e.logger.Error("fare hold failed", "booking_id", b.ID, "error", err)
			return nil, fmt.Errorf("%w: %v", ErrFareHold, err)
		}
	}

	if err := e.bookings.ReserveAndBook(ctx, b); err != nil {
		e.releaseHold(ctx, holdID)
		if errors.Is(err, storage.ErrInsufficientSeats) {
			// another rider took the seats between match and reservation
			return nil, ErrNoMatchingOffer
		}
		return nil, fmt.Errorf("reserve seats: %w", err)
	}

	observability.SeatsBooked.Add(float64(b.People))
	observability.CO2SavedKg.Add(b.CO2Saved)
	e.logger.Info("ride booked", "booking_id", b.ID, "ride_id", b.OfferID, "rider_id", b.RiderID,
		"people", b.People, "distance_km", b.DistanceKm)
	e.announce(ctx, b)
	return b, nil
}

func (e *Engine) releaseHold(ctx context.Context, holdID string) {
	if holdID == "" {
		return
	}
	if err := e.fares.Cancel(context.WithoutCancel(ctx), holdID); err != nil {
		e.logger.Error("fare hold release failed", "hold_id", holdID, "error", err)
	}
}

// announce is best-effort; the booking is already committed.
func (e *Engine) announce(ctx context.Context, b *models.Booking) {
	if e.events != nil {
		if err := e.events.PublishBooking(context.WithoutCancel(ctx), models.NewBookingEvent(b)); err != nil {
			e.logger.Error("publish booking event failed", "booking_id", b.ID, "error", err)
		}
	}
	if e.notifier != nil {
		if err := e.notifier.NotifyBooking(b.DriverID, *b); err != nil {
			e.logger.Debug("driver not notified", "driver_id", b.DriverID, "error", err)
		}
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "booked"
	case errors.Is(err, ErrNoMatchingOffer):
		return "no_match"
	case errors.Is(err, ErrInvalidLocation):
		return "invalid_location"
	case errors.Is(err, ErrDistanceUnavailable):
		return "distance_unavailable"
	case errors.Is(err, ErrInvalidPartySize), errors.Is(err, ErrMissingField):
		return "bad_request"
	case errors.Is(err, ErrFareHold):
		return "fare_hold_failed"
	default:
		return "error"
	}
}
