package apartments

import (
	"context"
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

func (r *MongoRepository) Insert(ctx context.Context, a *Apartment) error {
	ctx, cancel := store.WithTimeout(ctx, r.Timeout)
	defer cancel()

	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	_, err := r.Coll.InsertOne(ctx, a)
	return store.Translate(err)
}

func (r *MongoRepository) List(ctx context.Context) ([]Apartment, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoRepository) ListByOwner(ctx context.Context, email string) ([]Apartment, error) {
	return r.find(ctx, bson.M{"user.email": email})
}

func (r *MongoRepository) find(ctx context.Context, filter bson.M) ([]Apartment, error) {
	ctx, cancel := store.WithTimeout(ctx, r.Timeout)
	defer cancel()

	cur, err := r.Coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	out := []Apartment{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoRepository) FindByID(ctx context.Context, id string) (Apartment, error) {
	oid, err := store.ObjectID(id)
	if err != nil {
		return Apartment{}, err
	}
	ctx, cancel := store.WithTimeout(ctx, r.Timeout)
	defer cancel()

	var out Apartment
	if err := r.Coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&out); err != nil {
		return Apartment{}, store.Translate(err)
	}
	return out, nil
}

// TakeFlat decrements availableFlat, refusing to go below zero.
func (r *MongoRepository) TakeFlat(ctx context.Context, id string) error {
	oid, err := store.ObjectID(id)
	if err != nil {
		return err
	}
	ctx, cancel := store.WithTimeout(ctx, r.Timeout)
	defer cancel()

	res, err := r.Coll.UpdateOne(ctx,
		bson.M{"_id": oid, "availableFlat": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"availableFlat": -1}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.ErrConflict
	}
	return nil
}

// ReleaseFlat gives back a flat taken by TakeFlat. availableFlat never grows
// past flatQty.
func (r *MongoRepository) ReleaseFlat(ctx context.Context, id string) error {
	oid, err := store.ObjectID(id)
	if err != nil {
		return err
	}
	ctx, cancel := store.WithTimeout(ctx, r.Timeout)
	defer cancel()

	res, err := r.Coll.UpdateOne(ctx,
		bson.M{"_id": oid, "$expr": bson.M{"$lt": bson.A{"$availableFlat", "$flatQty"}}},
		bson.M{"$inc": bson.M{"availableFlat": 1}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.ErrConflict
	}
	return nil
}
