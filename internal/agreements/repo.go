package agreements

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ishantswami13-crypto/bms-backend/internal/apperr"
	"github.com/ishantswami13-crypto/bms-backend/internal/store"
)

type MongoRepository struct {
	Coll    *mongo.Collection
	Timeout time.Duration
}

func NewRepository(coll *mongo.Collection, timeout time.Duration) *MongoRepository {
	return &MongoRepository{Coll: coll, Timeout: timeout}
}

func (r *MongoRepository) Insert(ctx context.Context, a *Agreement) error {
	ctx, cancel := store.WithTimeout(ctx, r.Timeout)
	defer cancel()

	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	_, err := r.Coll.InsertOne(ctx, a)
	return store.Translate(err)
}

func (r *MongoRepository) List(ctx context.Context) ([]Agreement, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoRepository) ListByEmail(ctx context.Context, email string) ([]Agreement, error) {
	return r.find(ctx, bson.M{"userEmail": email})
}

func (r *MongoRepository) find(ctx context.Context, filter bson.M) ([]Agreement, error) {
	ctx, cancel := store.WithTimeout(ctx, r.Timeout)
	defer cancel()

	cur, err := r.Coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	out := []Agreement{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoRepository) FindByID(ctx context.Context, id string) (Agreement, error) {
	oid, err := store.ObjectID(id)
	if err != nil {
		return Agreement{}, err
	}
	ctx, cancel := store.WithTimeout(ctx, r.Timeout)
	defer cancel()

	var out Agreement
	if err := r.Coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&out); err != nil {
		return Agreement{}, store.Translate(err)
	}
	return out, nil
}

// Decide moves a pending agreement to status in one conditional update. An
// agreement that exists but is no longer pending is apperr.ErrConflict.
func (r *MongoRepository) Decide(ctx context.Context, id string, status Status, at time.Time) (Agreement, error) {
	oid, err := store.ObjectID(id)
	if err != nil {
		return Agreement{}, err
	}
	ctx, cancel := store.WithTimeout(ctx, r.Timeout)
	defer cancel()

	var out Agreement
	err = r.Coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "status": StatusPending},
		bson.M{"$set": bson.M{"status": status, "decidedAt": at}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return Agreement{}, err
	}

	n, err := r.Coll.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return Agreement{}, err
	}
	if n == 0 {
		return Agreement{}, apperr.ErrNotFound
	}
	return Agreement{}, apperr.ErrConflict
}

// Reopen puts a decided agreement back to pending.
func (r *MongoRepository) Reopen(ctx context.Context, id string) error {
	oid, err := store.ObjectID(id)
	if err != nil {
		return err
	}
	ctx, cancel := store.WithTimeout(ctx, r.Timeout)
	defer cancel()

	_, err = r.Coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set":   bson.M{"status": StatusPending},
		"$unset": bson.M{"decidedAt": ""},
	})
	return err
}
