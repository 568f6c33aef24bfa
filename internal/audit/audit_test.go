package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestNilLogDiscards(t *testing.T) {
	var l *Log
	assert.NoError(t, l.Write(context.Background(), Entry{Action: "create"}))
}

func TestWriteInsertsEntry(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("insert", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		l := New(mt.Coll, nil)
		err := l.Write(context.Background(), Entry{Actor: "admin@bms.io", Action: "create", EntityType: "coupon"})
		require.NoError(mt, err)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "insert", started.CommandName)
	})

	mt.Run("insert error surfaces", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad"}))

		l := New(mt.Coll, nil)
		err := l.Write(context.Background(), Entry{Action: "create"})
		assert.Error(mt, err)
	})
}
