package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/example/ridewise/internal/models"
)

//go:embed migrations/001_init.sql
var initSchema string

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

// Migrate applies the bundled schema. Statements are idempotent.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, initSchema)
	return err
}

func (p *PostgresStore) Close(ctx context.Context) error { return p.db.Close() }

func (p *PostgresStore) CreateAccount(ctx context.Context, a *models.Account) error {
	if err := models.Validate(a); err != nil {
		return err
	}
	_, err := p.db.ExecContext(ctx, `INSERT INTO accounts(id, name, email, phone, password_hash, created_at) VALUES($1,$2,$3,$4,$5,$6)`,
		a.ID, a.Name, strings.ToLower(a.Email), a.Phone, a.PasswordHash, a.CreatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicateEmail
	}
	return err
}

func (p *PostgresStore) AccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return p.scanAccount(p.db.QueryRowContext(ctx,
		`SELECT id, name, email, phone, password_hash, created_at FROM accounts WHERE email = $1`, strings.ToLower(email)))
}

func (p *PostgresStore) AccountByID(ctx context.Context, id string) (*models.Account, error) {
	return p.scanAccount(p.db.QueryRowContext(ctx,
		`SELECT id, name, email, phone, password_hash, created_at FROM accounts WHERE id = $1`, id))
}

func (p *PostgresStore) scanAccount(row *sql.Row) (*models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.Phone, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

const offerColumns = `id, driver_id, vehicle_info, start_location, end_location, ride_date, ride_time, capacity, available_seats, created_at`

func (p *PostgresStore) CreateOffer(ctx context.Context, o *models.RideOffer) error {
	if err := models.Validate(o); err != nil {
		return err
	}
	_, err := p.db.ExecContext(ctx, `INSERT INTO ride_offers(`+offerColumns+`) VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		o.ID, o.DriverID, o.Vehicle, o.Origin, o.Destination, o.Date, o.Time, o.Capacity, o.AvailableSeats, o.CreatedAt)
	return err
}

func (p *PostgresStore) FindMatchingOffer(ctx context.Context, q OfferQuery) (*models.RideOffer, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+offerColumns+` FROM ride_offers
		WHERE start_location = $1 AND end_location = $2 AND ride_date = $3 AND ride_time = $4 AND available_seats >= $5
		ORDER BY seq LIMIT 1`, q.Origin, q.Destination, q.Date, q.Time, q.MinSeats)
	o, err := scanOffer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

func (p *PostgresStore) OfferByID(ctx context.Context, id string) (*models.RideOffer, error) {
	o, err := scanOffer(p.db.QueryRowContext(ctx, `SELECT `+offerColumns+` FROM ride_offers WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

func (p *PostgresStore) OffersByDriver(ctx context.Context, driverID string) ([]models.RideOffer, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+offerColumns+` FROM ride_offers WHERE driver_id = $1 ORDER BY seq`, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.RideOffer{}
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOffer(s scanner) (*models.RideOffer, error) {
	var o models.RideOffer
	if err := s.Scan(&o.ID, &o.DriverID, &o.Vehicle, &o.Origin, &o.Destination, &o.Date, &o.Time, &o.Capacity, &o.AvailableSeats, &o.CreatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

func (p *PostgresStore) ReserveAndBook(ctx context.Context, b *models.Booking) (err error) {
	if err := models.Validate(b); err != nil {
		return err
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `UPDATE ride_offers SET available_seats = available_seats - $1
		WHERE id = $2 AND available_seats >= $1`, b.People, b.OfferID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return ErrInsufficientSeats
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO bookings(id, ride_id, driver_id, rider_id, driver_name, driver_phone, vehicle_number,
		start_location, end_location, distance_km, people, fare, fuel_saved, co2_saved, eco_points, status, created_at)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		b.ID, b.OfferID, b.DriverID, b.RiderID, b.DriverName, b.DriverPhone, b.Vehicle,
		b.Origin, b.Destination, b.DistanceKm, b.People, b.Fare, b.FuelSaved, b.CO2Saved, b.EcoPoints, string(b.Status), b.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return tx.Commit()
}

const bookingColumns = `id, ride_id, driver_id, rider_id, driver_name, driver_phone, vehicle_number,
	start_location, end_location, distance_km, people, fare, fuel_saved, co2_saved, eco_points, status, created_at`

func (p *PostgresStore) BookingsByRider(ctx context.Context, riderID string) ([]models.Booking, error) {
	return p.queryBookings(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE rider_id = $1 ORDER BY seq`, riderID)
}

func (p *PostgresStore) BookingsByDriver(ctx context.Context, driverID string) ([]models.Booking, error) {
	return p.queryBookings(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE driver_id = $1 ORDER BY seq`, driverID)
}

func (p *PostgresStore) queryBookings(ctx context.Context, query string, arg string) ([]models.Booking, error) {
	rows, err := p.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Booking{}
	for rows.Next() {
		var b models.Booking
		var status string
		if err := rows.Scan(&b.ID, &b.OfferID, &b.DriverID, &b.RiderID, &b.DriverName, &b.DriverPhone, &b.Vehicle,
			&b.Origin, &b.Destination, &b.DistanceKm, &b.People, &b.Fare, &b.FuelSaved, &b.CO2Saved, &b.EcoPoints, &status, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.Status = models.BookingStatus(status)
		out = append(out, b)
	}
	return out, rows.Err()
}
