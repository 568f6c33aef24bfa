package admin

import (
	"context"
	"math"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ishantswami13-crypto/bms-backend/internal/store"
	"github.com/ishantswami13-crypto/bms-backend/internal/users"
)

type Stats struct {
	Users            int64   `json:"users"`
	Members          int64   `json:"members"`
	Apartments       int64   `json:"apartments"`
	Flats            int64   `json:"flats"`
	TotalSlots       int64   `json:"totalSlots"`
	AvailableSlots   int64   `json:"availableSlots"`
	AvailablePercent float64 `json:"availablePercent"`
	RentedPercent    float64 `json:"rentedPercent"`
}

// StatsSource loads the raw counts behind the admin overview.
type StatsSource interface {
	Stats(ctx context.Context) (Stats, error)
}

type Handler struct {
	Source StatsSource
}

func NewHandler(src StatsSource) *Handler {
	return &Handler{Source: src}
}

// Overview handles GET /admin-stats/:email.
func (h *Handler) Overview(c *fiber.Ctx) error {
	s, err := h.Source.Stats(c.UserContext())
	if err != nil {
		return err
	}
	s.AvailablePercent, s.RentedPercent = percentages(s.AvailableSlots, s.TotalSlots)
	return c.JSON(s)
}

func percentages(available, total int64) (float64, float64) {
	if total <= 0 {
		return 0, 0
	}
	avail := math.Round(float64(available)/float64(total)*10000) / 100
	return avail, math.Round((100-avail)*100) / 100
}

// MongoStats counts straight from the collections.
type MongoStats struct {
	Store   *store.Store
	Timeout time.Duration
}

func (m *MongoStats) Stats(ctx context.Context) (Stats, error) {
	ctx, cancel := store.WithTimeout(ctx, m.Timeout)
	defer cancel()

	var s Stats
	var err error
	usersColl := m.Store.Collection(store.Users)
	if s.Users, err = usersColl.CountDocuments(ctx, bson.M{"role": bson.M{"$in": bson.A{string(users.RoleUser), nil}}}); err != nil {
		return Stats{}, err
	}
	if s.Members, err = usersColl.CountDocuments(ctx, bson.M{"role": users.RoleMember}); err != nil {
		return Stats{}, err
	}
	if s.Apartments, err = m.Store.Collection(store.Apartments).CountDocuments(ctx, bson.M{}); err != nil {
		return Stats{}, err
	}
	if s.Flats, err = m.Store.Collection(store.Flats).CountDocuments(ctx, bson.M{}); err != nil {
		return Stats{}, err
	}
	if err := slotTotals(ctx, m.Store.Collection(store.Apartments), &s); err != nil {
		return Stats{}, err
	}
	return s, nil
}

func slotTotals(ctx context.Context, coll *mongo.Collection, s *Stats) error {
	cur, err := coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$flatQty"}}},
			{Key: "available", Value: bson.D{{Key: "$sum", Value: "$availableFlat"}}},
		}}},
	})
	if err != nil {
		return err
	}
	var rows []struct {
		Total     int64 `bson:"total"`
		Available int64 `bson:"available"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return err
	}
	if len(rows) > 0 {
		s.TotalSlots = rows[0].Total
		s.AvailableSlots = rows[0].Available
	}
	return nil
}
