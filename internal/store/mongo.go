// Package store owns the MongoDB client for the lifetime of the process and
// hands out the named collections the repositories work on.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/ishantswami13-crypto/bms-backend/internal/apperr"
)

const (
	Users      = "users"
	Cities     = "cities"
	Apartments = "apartments"
	Flats      = "flats"
	Coupons    = "coupons"
	Agreements = "agreements"
	Payments   = "payments"
	AuditLogs  = "audit_logs"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect opens the client pool and pings the primary.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Store{client: client, db: client.Database(dbName)}, nil
}

// New wraps an existing database handle.
func New(db *mongo.Database) *Store {
	return &Store{client: db.Client(), db: db}
}

func (s *Store) Collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client; safe to call once on shutdown.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// ErrRequiredIndex marks a failure to build an index that duplicate
// detection depends on. The API must not serve writes without it.
var ErrRequiredIndex = errors.New("required index missing")

type collectionIndexes struct {
	coll     string
	required bool
	models   []mongo.IndexModel
}

var indexPlan = []collectionIndexes{
	{coll: Users, models: []mongo.IndexModel{{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_email"),
	}}},
	{coll: Flats, required: true, models: []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "apartId", Value: 1}, {Key: "floor", Value: 1}, {Key: "flat.flatNo", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_apart_floor_flatno"),
		},
		{Keys: bson.D{{Key: "rent", Value: 1}}, Options: options.Index().SetName("rent")},
	}},
	{coll: Coupons, required: true, models: []mongo.IndexModel{{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_code"),
	}}},
	{coll: Payments, required: true, models: []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("email_created"),
		},
		{
			Keys:    bson.D{{Key: "transactionId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_transaction"),
		},
	}},
	{coll: Apartments, models: []mongo.IndexModel{{
		Keys:    bson.D{{Key: "user.email", Value: 1}},
		Options: options.Index().SetName("owner_email"),
	}}},
	{coll: Agreements, models: []mongo.IndexModel{{
		Keys:    bson.D{{Key: "userEmail", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("user_created"),
	}}},
}

// EnsureIndexes creates every index in the plan, even after a failure, and
// returns the joined errors. Failures on collections whose uniqueness the
// API relies on for 409s also match ErrRequiredIndex. Creating an existing
// index is a no-op.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	var errs []error
	for _, ix := range indexPlan {
		if _, err := s.db.Collection(ix.coll).Indexes().CreateMany(ctx, ix.models); err != nil {
			if ix.required {
				err = fmt.Errorf("create indexes on %s: %w: %w", ix.coll, ErrRequiredIndex, err)
			} else {
				err = fmt.Errorf("create indexes on %s: %w", ix.coll, err)
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ObjectID parses a hex id, wrapping failures as apperr.ErrInvalidID.
func ObjectID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w %q", apperr.ErrInvalidID, hex)
	}
	return id, nil
}

// Translate maps driver errors onto apperr kinds.
func Translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperr.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return apperr.ErrConflict
	default:
		return err
	}
}

// WithTimeout bounds a single database call.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 5 * time.Second
	}
	return context.WithTimeout(ctx, d)
}
