package flats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ishantswami13-crypto/bms-backend/internal/apartments"
	"github.com/ishantswami13-crypto/bms-backend/internal/apperr"
	"github.com/ishantswami13-crypto/bms-backend/internal/store"
)

type memoryRepo struct {
	mu    sync.Mutex
	items []Flat
	apts  *apartmentFake
}

func (r *memoryRepo) Insert(_ context.Context, f *Flat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.ApartID == f.ApartID && existing.Floor == f.Floor && existing.Unit.FlatNo == f.Unit.FlatNo {
			return apperr.ErrConflict
		}
	}
	f.ID = primitive.NewObjectID()
	r.items = append(r.items, *f)
	return nil
}

func (r *memoryRepo) Page(_ context.Context, skip, limit int64) ([]Flat, int64, error) {
	total := int64(len(r.items))
	if skip >= total {
		return []Flat{}, total, nil
	}
	end := skip + limit
	if end > total {
		end = total
	}
	return append([]Flat{}, r.items[skip:end]...), total, nil
}

func (r *memoryRepo) ListByOwner(ctx context.Context, email string) ([]Detail, error) {
	out := []Detail{}
	for _, f := range r.items {
		a, err := r.apts.FindByID(ctx, f.ApartID)
		if err == nil && a.Owner.Email == email {
			out = append(out, Detail{Flat: f, Apartment: &a})
		}
	}
	return out, nil
}

func (r *memoryRepo) Detail(ctx context.Context, id string) (Detail, error) {
	oid, err := store.ObjectID(id)
	if err != nil {
		return Detail{}, err
	}
	for _, f := range r.items {
		if f.ID == oid {
			d := Detail{Flat: f}
			if a, err := r.apts.FindByID(ctx, f.ApartID); err == nil {
				d.Apartment = &a
			}
			return d, nil
		}
	}
	return Detail{}, apperr.ErrNotFound
}

func (r *memoryRepo) SearchRent(_ context.Context, rng RentRange) ([]Flat, error) {
	out := []Flat{}
	for _, f := range r.items {
		if f.Rent < rng.Min || (rng.Max != nil && f.Rent > *rng.Max) {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rent < out[j].Rent })
	return out, nil
}

type apartmentFake struct {
	items map[primitive.ObjectID]apartments.Apartment
}

func (f *apartmentFake) add(owner string) string {
	a := apartments.Apartment{ID: primitive.NewObjectID(), Name: "Block", Owner: apartments.Owner{Email: owner}}
	f.items[a.ID] = a
	return a.ID.Hex()
}

func (f *apartmentFake) FindByID(_ context.Context, id string) (apartments.Apartment, error) {
	oid, err := store.ObjectID(id)
	if err != nil {
		return apartments.Apartment{}, err
	}
	a, ok := f.items[oid]
	if !ok {
		return apartments.Apartment{}, apperr.ErrNotFound
	}
	return a, nil
}

func newApp(t *testing.T) (*fiber.App, *memoryRepo, *apartmentFake) {
	t.Helper()
	apts := &apartmentFake{items: map[primitive.ObjectID]apartments.Apartment{}}
	repo := &memoryRepo{apts: apts}
	h := NewHandler(repo, apts, nil)

	app := fiber.New(fiber.Config{ErrorHandler: apperr.Handler(nil)})
	app.Post("/flats/:email", h.Create)
	app.Get("/flats", h.List)
	app.Get("/flats/:email", h.ListOwned)
	app.Get("/flats-details/:id", h.Details)
	app.Get("/searching", h.Search)
	return app, repo, apts
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

func flatBody(apartID string, floor int, no string, rent int64) string {
	return fmt.Sprintf(`{"apartId":%q,"floor":%d,"flat":{"flatNo":%q,"bedrooms":2},"rent":%d}`, apartID, floor, no, rent)
}

func TestCreateFlat(t *testing.T) {
	app, repo, apts := newApp(t)
	apartID := apts.add("owner@bms.io")

	status, body := do(t, app, "POST", "/flats/owner@bms.io", flatBody(apartID, 2, "2B", 900))
	require.Equal(t, fiber.StatusCreated, status, string(body))
	require.Len(t, repo.items, 1)
	assert.Equal(t, "2B", repo.items[0].Unit.FlatNo)
	assert.WithinDuration(t, time.Now(), repo.items[0].CreatedAt, time.Minute)

	status, body = do(t, app, "POST", "/flats/owner@bms.io", flatBody(apartID, 2, "2B", 950))
	assert.Equal(t, fiber.StatusConflict, status, string(body))

	status, _ = do(t, app, "POST", "/flats/owner@bms.io", flatBody(apartID, 3, "2B", 950))
	assert.Equal(t, fiber.StatusCreated, status)
}

func TestCreateFlatRejectsBadInput(t *testing.T) {
	app, _, apts := newApp(t)
	apartID := apts.add("owner@bms.io")

	status, _ := do(t, app, "POST", "/flats/owner@bms.io", flatBody(apartID, 1, "", 900))
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = do(t, app, "POST", "/flats/owner@bms.io", flatBody(apartID, 1, "1A", 0))
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body := do(t, app, "POST", "/flats/owner@bms.io", flatBody("not-an-id", 1, "1A", 500))
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.JSONEq(t, `{"error":"apartment: invalid id \"not-an-id\""}`, string(body))

	status, body = do(t, app, "POST", "/flats/owner@bms.io", flatBody(primitive.NewObjectID().Hex(), 1, "1A", 500))
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.JSONEq(t, `{"error":"apartment: not found"}`, string(body))
}

func TestListPaginates(t *testing.T) {
	app, _, apts := newApp(t)
	apartID := apts.add("owner@bms.io")
	for i := 0; i < 10; i++ {
		status, _ := do(t, app, "POST", "/flats/owner@bms.io", flatBody(apartID, i, "A", int64(100*(i+1))))
		require.Equal(t, fiber.StatusCreated, status)
	}

	var page Page
	_, body := do(t, app, "GET", "/flats?page=2&limit=6", "")
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Len(t, page.Flats, 4)
	assert.Equal(t, int64(10), page.Total)
	assert.Equal(t, int64(2), page.TotalPages)
	assert.Equal(t, int64(2), page.Page)

	_, body = do(t, app, "GET", "/flats", "")
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Len(t, page.Flats, 6)
	assert.Equal(t, int64(1), page.Page)
	assert.Equal(t, int64(6), page.Limit)

	_, body = do(t, app, "GET", "/flats?page=9", "")
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Empty(t, page.Flats)

	status, _ := do(t, app, "GET", "/flats?limit=abc", "")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = do(t, app, "GET", "/flats?page=9223372036854775807&limit=6", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.JSONEq(t, `{"error":"page out of range"}`, string(body))

	status, _ = do(t, app, "GET", "/flats?page=1537228672809129301&limit=6", "")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, int64(0), totalPages(0, 6))
	assert.Equal(t, int64(1), totalPages(6, 6))
	assert.Equal(t, int64(2), totalPages(7, 6))
}

func TestOwnedAndDetails(t *testing.T) {
	app, repo, apts := newApp(t)
	mine := apts.add("me@bms.io")
	theirs := apts.add("them@bms.io")
	do(t, app, "POST", "/flats/me@bms.io", flatBody(mine, 1, "1A", 500))
	do(t, app, "POST", "/flats/them@bms.io", flatBody(theirs, 1, "1A", 600))

	var owned []Detail
	_, body := do(t, app, "GET", "/flats/me@bms.io", "")
	require.NoError(t, json.Unmarshal(body, &owned))
	require.Len(t, owned, 1)
	assert.Equal(t, mine, owned[0].ApartID)

	var d Detail
	status, body := do(t, app, "GET", "/flats-details/"+repo.items[1].ID.Hex(), "")
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &d))
	require.NotNil(t, d.Apartment)
	assert.Equal(t, "them@bms.io", d.Apartment.Owner.Email)

	status, _ = do(t, app, "GET", "/flats-details/"+primitive.NewObjectID().Hex(), "")
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = do(t, app, "GET", "/flats-details/xyz", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestSearchByRent(t *testing.T) {
	app, _, apts := newApp(t)
	apartID := apts.add("owner@bms.io")
	for i, rent := range []int64{400, 500, 750, 1000, 1200} {
		do(t, app, "POST", "/flats/owner@bms.io", flatBody(apartID, i, "A", rent))
	}

	var got []Flat
	_, body := do(t, app, "GET", "/searching?min=500&max=1000", "")
	require.NoError(t, json.Unmarshal(body, &got))
	require.Len(t, got, 3)
	assert.Equal(t, int64(500), got[0].Rent)
	assert.Equal(t, int64(1000), got[2].Rent)

	_, body = do(t, app, "GET", "/searching?min=1000", "")
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Len(t, got, 2)

	_, body = do(t, app, "GET", "/searching", "")
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Len(t, got, 5)

	status, _ := do(t, app, "GET", "/searching?min=1000&max=500", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}
