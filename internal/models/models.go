package models

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Role is chosen at login and lives only in the session.
type Role string

const (
	RoleRider  Role = "rider"
	RoleDriver Role = "driver"
	RoleAdmin  Role = "admin"
)

func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleRider, RoleDriver, RoleAdmin:
		return r, true
	}
	return "", false
}

type Account struct {
	ID           string    `json:"id" bson:"_id" validate:"required"`
	Name         string    `json:"name" bson:"name" validate:"required"`
	Email        string    `json:"email" bson:"email" validate:"required,email"`
	Phone        string    `json:"phone" bson:"phone" validate:"required"`
	PasswordHash string    `json:"-" bson:"password" validate:"required"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// RideOffer is a driver-posted ride. AvailableSeats only ever decreases.
type RideOffer struct {
	ID             string    `json:"id" bson:"_id" validate:"required"`
	DriverID       string    `json:"driver_id" bson:"driver_id" validate:"required"`
	Vehicle        string    `json:"vehicle_info" bson:"vehicle_info"`
	Origin         string    `json:"start_location" bson:"start_location" validate:"required"`
	Destination    string    `json:"end_location" bson:"end_location" validate:"required"`
	Date           string    `json:"date" bson:"date" validate:"required"`
	Time           string    `json:"time" bson:"time" validate:"required"`
	Capacity       int       `json:"capacity" bson:"capacity"`
	AvailableSeats int       `json:"available_seats" bson:"available_seats"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
}

type BookingStatus string

const BookingUpcoming BookingStatus = "upcoming"

// Booking is a snapshot taken at booking time; driver fields are not refreshed.
type Booking struct {
	ID          string        `json:"id" bson:"_id" validate:"required"`
	OfferID     string        `json:"ride_id" bson:"ride_id" validate:"required"`
	DriverID    string        `json:"driver_id" bson:"driver_id" validate:"required"`
	RiderID     string        `json:"rider_id" bson:"rider_id" validate:"required"`
	DriverName  string        `json:"driver_name" bson:"driver_name" validate:"required"`
	DriverPhone string        `json:"driver_phone" bson:"driver_phone" validate:"required"`
	Vehicle     string        `json:"vehicle_number" bson:"vehicle_number" validate:"required"`
	Origin      string        `json:"start_location" bson:"start_location" validate:"required"`
	Destination string        `json:"end_location" bson:"end_location" validate:"required"`
	DistanceKm  float64       `json:"distance_km" bson:"distance_km" validate:"gt=0"`
	People      int           `json:"people" bson:"people" validate:"gte=1"`
	Fare        float64       `json:"fare" bson:"fare"`
	FuelSaved   float64       `json:"fuel_saved" bson:"fuel_saved"`
	CO2Saved    float64       `json:"co2_saved" bson:"co2_saved"`
	EcoPoints   int           `json:"eco_points" bson:"eco_points"`
	Status      BookingStatus `json:"status" bson:"status" validate:"required"`
	CreatedAt   time.Time     `json:"created_at" bson:"created_at"`
}

// BookingEvent is published after a booking is persisted.
type BookingEvent struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"booking_id"`
	OfferID    string    `json:"ride_id"`
	DriverID   string    `json:"driver_id"`
	RiderID    string    `json:"rider_id"`
	DistanceKm float64   `json:"distance_km"`
	People     int       `json:"people"`
	Fare       float64   `json:"fare"`
	FuelSaved  float64   `json:"fuel_saved"`
	CO2Saved   float64   `json:"co2_saved"`
	EcoPoints  int       `json:"eco_points"`
	At         time.Time `json:"at"`
}

const EventBookingCreated = "booking.created"

func NewBookingEvent(b *Booking) BookingEvent {
	return BookingEvent{
		Type:       EventBookingCreated,
		BookingID:  b.ID,
		OfferID:    b.OfferID,
		DriverID:   b.DriverID,
		RiderID:    b.RiderID,
		DistanceKm: b.DistanceKm,
		People:     b.People,
		Fare:       b.Fare,
		FuelSaved:  b.FuelSaved,
		CO2Saved:   b.CO2Saved,
		EcoPoints:  b.EcoPoints,
		At:         b.CreatedAt,
	}
}

var ErrInvalidRecord = errors.New("invalid record")

var validate = validator.New()

// Validate rejects records that omit required fields.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return errors.Join(ErrInvalidRecord, err)
	}
	return nil
}
