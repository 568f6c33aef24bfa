package apartments

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ishantswami13-crypto/bms-backend/internal/apperr"
	"github.com/ishantswami13-crypto/bms-backend/internal/store"
)

type memoryRepo struct {
	mu    sync.Mutex
	items []Apartment
}

func (r *memoryRepo) Insert(_ context.Context, a *Apartment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = primitive.NewObjectID()
	r.items = append(r.items, *a)
	return nil
}

func (r *memoryRepo) List(context.Context) ([]Apartment, error) {
	return append([]Apartment{}, r.items...), nil
}

func (r *memoryRepo) ListByOwner(_ context.Context, email string) ([]Apartment, error) {
	out := []Apartment{}
	for _, a := range r.items {
		if a.Owner.Email == email {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memoryRepo) FindByID(_ context.Context, id string) (Apartment, error) {
	oid, err := store.ObjectID(id)
	if err != nil {
		return Apartment{}, err
	}
	for _, a := range r.items {
		if a.ID == oid {
			return a, nil
		}
	}
	return Apartment{}, apperr.ErrNotFound
}

func newApp(repo Repository) *fiber.App {
	h := NewHandler(repo, nil)
	app := fiber.New(fiber.Config{ErrorHandler: apperr.Handler(nil)})
	app.Post("/apartments/:email", h.Create)
	app.Get("/apartments/:email", h.ListOwned)
	app.Get("/apartments", h.List)
	app.Get("/apartment/:id", h.Get)
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out
}

func TestCreateSetsOwnerAndAvailability(t *testing.T) {
	repo := &memoryRepo{}
	app := newApp(repo)

	status, body := do(t, app, "POST", "/apartments/admin@bms.io",
		`{"name":"Lake View","city":"Dhaka","flatQty":12,"floors":[{"floor":1,"rent":800}]}`)
	require.Equal(t, fiber.StatusCreated, status, string(body))

	var got Apartment
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "admin@bms.io", got.Owner.Email)
	assert.Equal(t, 12, got.FlatQty)
	assert.Equal(t, 12, got.AvailableFlat)
	assert.False(t, got.ID.IsZero())
}

func TestCreateValidates(t *testing.T) {
	app := newApp(&memoryRepo{})

	status, _ := do(t, app, "POST", "/apartments/admin@bms.io", `{"name":"No Flats","flatQty":0}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = do(t, app, "POST", "/apartments/admin@bms.io", `{"flatQty":3}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestOwnedVersusPublicListing(t *testing.T) {
	repo := &memoryRepo{}
	app := newApp(repo)
	do(t, app, "POST", "/apartments/a@bms.io", `{"name":"A","flatQty":1}`)
	do(t, app, "POST", "/apartments/b@bms.io", `{"name":"B","flatQty":1}`)

	var owned, all []Apartment
	_, body := do(t, app, "GET", "/apartments/a@bms.io", "")
	require.NoError(t, json.Unmarshal(body, &owned))
	_, body = do(t, app, "GET", "/apartments", "")
	require.NoError(t, json.Unmarshal(body, &all))

	assert.Len(t, owned, 1)
	assert.Len(t, all, 2)
}

func TestGetApartment(t *testing.T) {
	repo := &memoryRepo{}
	app := newApp(repo)
	do(t, app, "POST", "/apartments/a@bms.io", `{"name":"A","flatQty":1}`)

	status, _ := do(t, app, "GET", "/apartment/"+repo.items[0].ID.Hex(), "")
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = do(t, app, "GET", "/apartment/"+primitive.NewObjectID().Hex(), "")
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = do(t, app, "GET", "/apartment/not-an-id", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}
