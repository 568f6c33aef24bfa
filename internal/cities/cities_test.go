package cities

import (
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

type staticRepo []City

func (s staticRepo) List(context.Context) ([]City, error) { return s, nil }

func TestListHandler(t *testing.T) {
	app := fiber.New()
	app.Get("/cities", NewHandler(staticRepo{{Name: "Dhaka", Country: "Bangladesh"}}).List)

	resp, err := app.Test(httptest.NewRequest("GET", "/cities", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"name":"Dhaka"`)
}

func TestLoadSeed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cities.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cities:\n  - name: Dhaka\n    country: Bangladesh\n  - name: Chattogram\n"), 0o600))

	items, err := LoadSeed(path)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Chattogram", items[1].Name)

	require.NoError(t, os.WriteFile(path, []byte("cities:\n  - country: Nowhere\n"), 0o600))
	_, err = LoadSeed(path)
	assert.Error(t, err)
}

func TestShippedSeedParses(t *testing.T) {
	items, err := LoadSeed("../../seed/cities.yaml")
	require.NoError(t, err)
	assert.NotEmpty(t, items)
}

func TestMongoList(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("list", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "bms.cities", mtest.FirstBatch,
			bson.D{{Key: "name", Value: "Dhaka"}},
			bson.D{{Key: "name", Value: "Sylhet"}},
		))
		items, err := NewRepository(mt.Coll, 0).List(context.Background())
		require.NoError(mt, err)
		assert.Len(mt, items, 2)
	})
}
