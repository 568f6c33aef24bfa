package users

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
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

// CreateIfAbsent upserts on email so concurrent first logins cannot create two
// records. created reports whether this call inserted the document.
func (r *MongoRepository) CreateIfAbsent(ctx context.Context, u User) (User, bool, error) {
	ctx, cancel := store.WithTimeout(ctx, r.Timeout)
	defer cancel()

	onInsert := bson.M{"role": RoleUser, "createdAt": time.Now().UTC()}
	if u.Name != "" {
		onInsert["name"] = u.Name
	}
	if u.Photo != "" {
		onInsert["photo"] = u.Photo
	}

	created := false
	res, err := r.Coll.UpdateOne(ctx,
		bson.M{"email": u.Email},
		bson.M{"$setOnInsert": onInsert},
		options.Update().SetUpsert(true),
	)
	switch {
	case err == nil:
		created = res.UpsertedCount > 0
	case mongo.IsDuplicateKeyError(err):
		// lost the race to a concurrent upsert; the record exists now
	default:
		return User{}, false, err
	}

	var out User
	if err := r.Coll.FindOne(ctx, bson.M{"email": u.Email}).Decode(&out); err != nil {
		return User{}, false, store.Translate(err)
	}
	return out, created, nil
}

func (r *MongoRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	ctx, cancel := store.WithTimeout(ctx, r.Timeout)
	defer cancel()

	var out User
	if err := r.Coll.FindOne(ctx, bson.M{"email": email}).Decode(&out); err != nil {
		return User{}, store.Translate(err)
	}
	return out, nil
}

func (r *MongoRepository) List(ctx context.Context) ([]User, error) {
	ctx, cancel := store.WithTimeout(ctx, r.Timeout)
	defer cancel()

	cur, err := r.Coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	out := []User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateRole moves email from one role to another only if the stored role is
// still from; otherwise it reports apperr.ErrConflict.
func (r *MongoRepository) UpdateRole(ctx context.Context, email string, from, to Role) error {
	ctx, cancel := store.WithTimeout(ctx, r.Timeout)
	defer cancel()

	filter := bson.M{"email": email, "role": from}
	if from == RoleUser || from == "" {
		// a missing role counts as user; null matches absent fields
		filter["role"] = bson.M{"$in": bson.A{string(RoleUser), nil}}
	}
	res, err := r.Coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"role": to}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.ErrConflict
	}
	return nil
}

// GrantAdmin makes email an admin, creating the user if needed. It is only
// reachable from the operator CLI.
func (r *MongoRepository) GrantAdmin(ctx context.Context, email string) (bool, error) {
	ctx, cancel := store.WithTimeout(ctx, r.Timeout)
	defer cancel()

	res, err := r.Coll.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{
			"$set":         bson.M{"role": RoleAdmin},
			"$setOnInsert": bson.M{"email": email, "createdAt": time.Now().UTC()},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, store.Translate(err)
	}
	return res.UpsertedCount > 0, nil
}
