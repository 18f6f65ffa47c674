package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/example/ridewise/internal/models"
)

// MongoStore uses the users, driver_rides and booked_rides collections of ridewise_db.
type MongoStore struct {
	client   *mongo.Client
	users    *mongo.Collection
	offers   *mongo.Collection
	bookings *mongo.Collection
}

var naturalOrder = bson.D{{Key: "$natural", Value: 1}}

func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	db := client.Database(database)
	m := &MongoStore{
		client:   client,
		users:    db.Collection("users"),
		offers:   db.Collection("driver_rides"),
		bookings: db.Collection("booked_rides"),
	}
	return m, nil
}

// EnsureIndexes creates the unique email index and the lookup indexes.
func (m *MongoStore) EnsureIndexes(ctx context.Context) error {
	if _, err := m.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("users email index: %w", err)
	}
	if _, err := m.offers.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "start_location", Value: 1}, {Key: "end_location", Value: 1}, {Key: "date", Value: 1}, {Key: "time", Value: 1}},
	}); err != nil {
		return fmt.Errorf("driver_rides match index: %w", err)
	}
	if _, err := m.bookings.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "rider_id", Value: 1}}},
		{Keys: bson.D{{Key: "driver_id", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("booked_rides indexes: %w", err)
	}
	return nil
}

func (m *MongoStore) Close(ctx context.Context) error { return m.client.Disconnect(ctx) }

func (m *MongoStore) CreateAccount(ctx context.Context, a *models.Account) error {
	if err := models.Validate(a); err != nil {
		return err
	}
	cp := *a
	cp.Email = strings.ToLower(cp.Email)
	_, err := m.users.InsertOne(ctx, &cp)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (m *MongoStore) AccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var a models.Account
	if err := findOne(ctx, m.users, bson.M{"email": strings.ToLower(email)}, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (m *MongoStore) AccountByID(ctx context.Context, id string) (*models.Account, error) {
	var a models.Account
	if err := findOne(ctx, m.users, bson.M{"_id": id}, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (m *MongoStore) CreateOffer(ctx context.Context, o *models.RideOffer) error {
	if err := models.Validate(o); err != nil {
		return err
	}
	_, err := m.offers.InsertOne(ctx, o)
	return err
}

func (m *MongoStore) FindMatchingOffer(ctx context.Context, q OfferQuery) (*models.RideOffer, error) {
	var o models.RideOffer
	err := findOne(ctx, m.offers, bson.M{
		"start_location":  q.Origin,
		"end_location":    q.Destination,
		"date":            q.Date,
		"time":            q.Time,
		"available_seats": bson.M{"$gte": q.MinSeats},
	}, &o)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (m *MongoStore) OfferByID(ctx context.Context, id string) (*models.RideOffer, error) {
	var o models.RideOffer
	if err := findOne(ctx, m.offers, bson.M{"_id": id}, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (m *MongoStore) OffersByDriver(ctx context.Context, driverID string) ([]models.RideOffer, error) {
	cur, err := m.offers.Find(ctx, bson.M{"driver_id": driverID}, options.Find().SetSort(naturalOrder))
	if err != nil {
		return nil, err
	}
	out := []models.RideOffer{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReserveAndBook applies a conditional $inc and then inserts the booking.
// A failed insert gives the seats back so neither write survives.
func (m *MongoStore) ReserveAndBook(ctx context.Context, b *models.Booking) error {
	if err := models.Validate(b); err != nil {
		return err
	}
	res, err := m.offers.UpdateOne(ctx,
		bson.M{"_id": b.OfferID, "available_seats": bson.M{"$gte": b.People}},
		bson.M{"$inc": bson.M{"available_seats": -b.People}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount != 1 {
		return ErrInsufficientSeats
	}
	if _, err := m.bookings.InsertOne(ctx, b); err != nil {
		_, undoErr := m.offers.UpdateOne(context.WithoutCancel(ctx),
			bson.M{"_id": b.OfferID},
			bson.M{"$inc": bson.M{"available_seats": b.People}},
		)
		return errors.Join(fmt.Errorf("insert booking: %w", err), undoErr)
	}
	return nil
}

func (m *MongoStore) BookingsByRider(ctx context.Context, riderID string) ([]models.Booking, error) {
	return m.findBookings(ctx, bson.M{"rider_id": riderID})
}

func (m *MongoStore) BookingsByDriver(ctx context.Context, driverID string) ([]models.Booking, error) {
	return m.findBookings(ctx, bson.M{"driver_id": driverID})
}

func (m *MongoStore) findBookings(ctx context.Context, filter bson.M) ([]models.Booking, error) {
	cur, err := m.bookings.Find(ctx, filter, options.Find().SetSort(naturalOrder))
	if err != nil {
		return nil, err
	}
	out := []models.Booking{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func findOne(ctx context.Context, c *mongo.Collection, filter bson.M, dst any) error {
	err := c.FindOne(ctx, filter, options.FindOne().SetSort(naturalOrder)).Decode(dst)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
