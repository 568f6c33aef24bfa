package flats

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

// Insert relies on the unique (apartId, floor, flat.flatNo) index; a
// duplicate surfaces as apperr.ErrConflict.
func (r *MongoRepository) Insert(ctx context.Context, f *Flat) error {
	ctx, cancel := store.WithTimeout(ctx, r.Timeout)
	defer cancel()

	if f.ID.IsZero() {
		f.ID = primitive.NewObjectID()
	}
	_, err := r.Coll.InsertOne(ctx, f)
	return store.Translate(err)
}

func (r *MongoRepository) Page(ctx context.Context, skip, limit int64) ([]Flat, int64, error) {
	ctx, cancel := store.WithTimeout(ctx, r.Timeout)
	defer cancel()

	total, err := r.Coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(skip).
		SetLimit(limit)
	cur, err := r.Coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	out := []Flat{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *MongoRepository) FindByID(ctx context.Context, id string) (Flat, error) {
	oid, err := store.ObjectID(id)
	if err != nil {
		return Flat{}, err
	}
	ctx, cancel := store.WithTimeout(ctx, r.Timeout)
	defer cancel()

	var out Flat
	if err := r.Coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&out); err != nil {
		return Flat{}, store.Translate(err)
	}
	return out, nil
}

// ListByOwner joins flats to apartments and keeps those owned by email.
func (r *MongoRepository) ListByOwner(ctx context.Context, email string) ([]Detail, error) {
	pipeline := append(joinApartment(false),
		bson.D{{Key: "$match", Value: bson.M{"apartment.user.email": email}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
	)
	return r.aggregate(ctx, pipeline)
}

// Detail returns one flat merged with its apartment.
func (r *MongoRepository) Detail(ctx context.Context, id string) (Detail, error) {
	oid, err := store.ObjectID(id)
	if err != nil {
		return Detail{}, err
	}
	pipeline := append(mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": oid}}},
	}, joinApartment(true)...)
	pipeline = append(pipeline, bson.D{{Key: "$limit", Value: 1}})

	items, err := r.aggregate(ctx, pipeline)
	if err != nil {
		return Detail{}, err
	}
	if len(items) == 0 {
		return Detail{}, apperr.ErrNotFound
	}
	return items[0], nil
}

func (r *MongoRepository) SearchRent(ctx context.Context, rng RentRange) ([]Flat, error) {
	ctx, cancel := store.WithTimeout(ctx, r.Timeout)
	defer cancel()

	cond := bson.M{"$gte": rng.Min}
	if rng.Max != nil {
		cond["$lte"] = *rng.Max
	}
	cur, err := r.Coll.Find(ctx, bson.M{"rent": cond}, options.Find().SetSort(bson.D{{Key: "rent", Value: 1}}))
	if err != nil {
		return nil, err
	}
	out := []Flat{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]Detail, error) {
	ctx, cancel := store.WithTimeout(ctx, r.Timeout)
	defer cancel()

	cur, err := r.Coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	out := []Detail{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// joinApartment casts the stored apartId string to an ObjectId (null when
// malformed, so one bad document cannot fail the whole query) and looks the
// apartment up.
func joinApartment(keepOrphans bool) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$addFields", Value: bson.M{
			"apartObjId": bson.M{"$convert": bson.M{
				"input":   "$apartId",
				"to":      "objectId",
				"onError": nil,
				"onNull":  nil,
			}},
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         store.Apartments,
			"localField":   "apartObjId",
			"foreignField": "_id",
			"as":           "apartment",
		}}},
		{{Key: "$unwind", Value: bson.M{
			"path":                       "$apartment",
			"preserveNullAndEmptyArrays": keepOrphans,
		}}},
		{{Key: "$project", Value: bson.M{"apartObjId": 0}}},
	}
}
