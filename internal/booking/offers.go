package booking

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/example/ridewise/internal/models"
	"github.com/example/ridewise/internal/observability"
	"github.com/example/ridewise/internal/storage"
)

// AddOfferInput describes a ride a driver is offering.
type AddOfferInput struct {
	DriverID    string
	Vehicle     string
	Origin      string
	Destination string
	Date        string
	Time        string
	Capacity    int
}

// AddOffer publishes a ride with every seat available. Capacity is not
// range-checked and identical offers are not merged.
func (e *Engine) AddOffer(ctx context.Context, in AddOfferInput) (*models.RideOffer, error) {
	if in.DriverID == "" || in.Origin == "" || in.Destination == "" || in.Date == "" || in.Time == "" {
		return nil, ErrMissingField
	}
	o := &models.RideOffer{
		ID:             uuid.NewString(),
		DriverID:       in.DriverID,
		Vehicle:        in.Vehicle,
		Origin:         in.Origin,
		Destination:    in.Destination,
		Date:           in.Date,
		Time:           in.Time,
		Capacity:       in.Capacity,
		AvailableSeats: in.Capacity,
		CreatedAt:      e.now().UTC(),
	}
	if err := e.offers.CreateOffer(ctx, o); err != nil {
		return nil, err
	}
	observability.OffersCreated.Inc()
	e.logger.Info("ride offer added", "ride_id", o.ID, "driver_id", o.DriverID, "capacity", o.Capacity)
	return o, nil
}

func (e *Engine) DriverOffers(ctx context.Context, driverID string) ([]models.RideOffer, error) {
	return e.offers.OffersByDriver(ctx, driverID)
}

func (e *Engine) RiderHistory(ctx context.Context, riderID string) ([]models.Booking, error) {
	return e.bookings.BookingsByRider(ctx, riderID)
}

// DriverBooking carries the rider's current contact details, looked up at read time.
type DriverBooking struct {
	models.Booking
	RiderName  string `json:"rider_name"`
	RiderPhone string `json:"rider_phone"`
}

func (e *Engine) DriverHistory(ctx context.Context, driverID string) ([]DriverBooking, error) {
	bookings, err := e.bookings.BookingsByDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	out := make([]DriverBooking, 0, len(bookings))
	for _, b := range bookings {
		db := DriverBooking{Booking: b, RiderName: notAvailable, RiderPhone: notAvailable}
		rider, err := e.accounts.AccountByID(ctx, b.RiderID)
		switch {
		case err == nil:
			db.RiderName, db.RiderPhone = rider.Name, rider.Phone
		case !errors.Is(err, storage.ErrNotFound):
			return nil, err
		}
		out = append(out, db)
	}
	return out, nil
}
