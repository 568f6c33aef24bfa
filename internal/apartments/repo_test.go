package apartments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/ishantswami13-crypto/bms-backend/internal/apperr"
)

func TestMongoRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("insert assigns id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		a := &Apartment{Name: "A", FlatQty: 2, AvailableFlat: 2}
		require.NoError(mt, NewRepository(mt.Coll, 0).Insert(context.Background(), a))
		assert.False(mt, a.ID.IsZero())
	})

	mt.Run("find by id", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "bms.apartments", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "name", Value: "Lake View"},
			{Key: "user", Value: bson.D{{Key: "email", Value: "admin@bms.io"}}},
			{Key: "flatQty", Value: 4},
			{Key: "availableFlat", Value: 3},
		}))
		a, err := NewRepository(mt.Coll, 0).FindByID(context.Background(), id.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, "admin@bms.io", a.Owner.Email)
		assert.Equal(mt, 3, a.AvailableFlat)
	})

	mt.Run("find by malformed id skips the database", func(mt *mtest.T) {
		_, err := NewRepository(mt.Coll, 0).FindByID(context.Background(), "zzz")
		assert.ErrorIs(mt, err, apperr.ErrInvalidID)
	})

	mt.Run("take flat when none left", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 0}, {Key: "nModified", Value: 0}})
		err := NewRepository(mt.Coll, 0).TakeFlat(context.Background(), primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, apperr.ErrConflict)
	})

	mt.Run("release flat", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 1}, {Key: "nModified", Value: 1}})
		require.NoError(mt, NewRepository(mt.Coll, 0).ReleaseFlat(context.Background(), primitive.NewObjectID().Hex()))

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "update", evt.CommandName)
		assert.Contains(mt, evt.Command.String(), `"$expr"`)
	})

	mt.Run("release flat when all are free", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 0}, {Key: "nModified", Value: 0}})
		err := NewRepository(mt.Coll, 0).ReleaseFlat(context.Background(), primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, apperr.ErrConflict)
	})
}
