package billing

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ishantswami13-crypto/bms-backend/internal/store"
)

// Payment is a completed rent payment reported by the client after the
// provider confirmed the intent.
type Payment struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Email         string             `bson:"email" json:"email"`
	Amount        float64            `bson:"amount" json:"amount"`
	Month         string             `bson:"month,omitempty" json:"month,omitempty"`
	Coupon        string             `bson:"coupon,omitempty" json:"coupon,omitempty"`
	TransactionID string             `bson:"transactionId" json:"transactionId"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}

type Store struct {
	Coll    *mongo.Collection
	Timeout time.Duration
}

func NewStore(coll *mongo.Collection, timeout time.Duration) *Store {
	return &Store{Coll: coll, Timeout: timeout}
}

func (s *Store) Insert(ctx context.Context, p *Payment) error {
	ctx, cancel := store.WithTimeout(ctx, s.Timeout)
	defer cancel()

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	_, err := s.Coll.InsertOne(ctx, p)
	return store.Translate(err)
}

// ListByEmail returns one payer's history, newest first.
func (s *Store) ListByEmail(ctx context.Context, email string) ([]Payment, error) {
	ctx, cancel := store.WithTimeout(ctx, s.Timeout)
	defer cancel()

	cur, err := s.Coll.Find(ctx, bson.M{"email": email}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	out := []Payment{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
