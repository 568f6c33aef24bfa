package cities

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/yaml.v3"

	"github.com/ishantswami13-crypto/bms-backend/internal/store"
)

type City struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"_id" yaml:"-"`
	Name    string             `bson:"name" json:"name" yaml:"name"`
	Country string             `bson:"country,omitempty" json:"country,omitempty" yaml:"country"`
	Image   string             `bson:"image,omitempty" json:"image,omitempty" yaml:"image"`
}

type Repository interface {
	List(ctx context.Context) ([]City, error)
}

type MongoRepository struct {
	Coll    *mongo.Collection
	Timeout time.Duration
}

func NewRepository(coll *mongo.Collection, timeout time.Duration) *MongoRepository {
	return &MongoRepository{Coll: coll, Timeout: timeout}
}

func (r *MongoRepository) List(ctx context.Context) ([]City, error) {
	ctx, cancel := store.WithTimeout(ctx, r.Timeout)
	defer cancel()

	cur, err := r.Coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	out := []City{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Upsert inserts or refreshes cities keyed by name and returns how many were new.
func (r *MongoRepository) Upsert(ctx context.Context, items []City) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	models := make([]mongo.WriteModel, 0, len(items))
	for _, c := range items {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"name": c.Name}).
			SetUpdate(bson.M{"$set": bson.M{"country": c.Country, "image": c.Image}}).
			SetUpsert(true))
	}
	res, err := r.Coll.BulkWrite(ctx, models)
	if err != nil {
		return 0, err
	}
	return res.UpsertedCount, nil
}

type seedFile struct {
	Cities []City `yaml:"cities"`
}

// LoadSeed reads a YAML file of the form `cities: [{name, country, image}]`.
func LoadSeed(path string) ([]City, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i, c := range f.Cities {
		if c.Name == "" {
			return nil, fmt.Errorf("parse %s: city %d has no name", path, i)
		}
	}
	return f.Cities, nil
}

type Handler struct {
	Repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{Repo: repo}
}

func (h *Handler) List(c *fiber.Ctx) error {
	items, err := h.Repo.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(items)
}
