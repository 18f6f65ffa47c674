package ecostats

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/example/ridewise/internal/models"
)

// Hash fields maintained per booking event.
const (
	FieldBookings   = "bookings"
	FieldSeats      = "seats"
	FieldDistanceKm = "distance_km"
	FieldCO2Saved   = "co2_saved"
	FieldFuelSaved  = "fuel_saved"
	FieldEcoPoints  = "eco_points"
	FieldFare       = "fare"
)

// Incrementer is the subset of redis used to apply an event; tests fake it.
type Incrementer interface {
	HIncrBy(ctx context.Context, key, field string, incr int64) error
	HIncrByFloat(ctx context.Context, key, field string, incr float64) error
}

// Apply adds one booking event to the totals hash.
func Apply(ctx context.Context, inc Incrementer, key string, ev models.BookingEvent) error {
	if err := inc.HIncrBy(ctx, key, FieldBookings, 1); err != nil {
		return err
	}
	if err := inc.HIncrBy(ctx, key, FieldSeats, int64(ev.People)); err != nil {
		return err
	}
	if err := inc.HIncrBy(ctx, key, FieldEcoPoints, int64(ev.EcoPoints)); err != nil {
		return err
	}
	for field, v := range map[string]float64{
		FieldDistanceKm: ev.DistanceKm,
		FieldCO2Saved:   ev.CO2Saved,
		FieldFuelSaved:  ev.FuelSaved,
		FieldFare:       ev.Fare,
	} {
		if err := inc.HIncrByFloat(ctx, key, field, v); err != nil {
			return err
		}
	}
	return nil
}

// RedisTotals reads and writes the totals hash.
type RedisTotals struct {
	client *redis.Client
	key    string
}

func NewRedisTotals(client *redis.Client, key string) *RedisTotals {
	return &RedisTotals{client: client, key: key}
}

func (r *RedisTotals) Key() string { return r.key }

func (r *RedisTotals) HIncrBy(ctx context.Context, key, field string, incr int64) error {
	return r.client.HIncrBy(ctx, key, field, incr).Err()
}

func (r *RedisTotals) HIncrByFloat(ctx context.Context, key, field string, incr float64) error {
	return r.client.HIncrByFloat(ctx, key, field, incr).Err()
}

func (r *RedisTotals) Totals(ctx context.Context) (map[string]float64, error) {
	raw, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, err
	}
	return parseTotals(raw), nil
}

func parseTotals(raw map[string]string) map[string]float64 {
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			continue
		}
		out[k] = f
	}
	return out
}
