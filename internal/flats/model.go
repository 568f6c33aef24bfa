package flats

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ishantswami13-crypto/bms-backend/internal/apartments"
)

// Unit is the per-flat block stored under "flat".
type Unit struct {
	FlatNo    string `bson:"flatNo" json:"flatNo" validate:"required"`
	Image     string `bson:"image,omitempty" json:"image,omitempty" validate:"omitempty,url"`
	Bedrooms  int    `bson:"bedrooms,omitempty" json:"bedrooms,omitempty" validate:"gte=0"`
	Bathrooms int    `bson:"bathrooms,omitempty" json:"bathrooms,omitempty" validate:"gte=0"`
}

// Flat belongs to one apartment; ApartID is the hex string of its _id.
type Flat struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	ApartID   string             `bson:"apartId" json:"apartId"`
	Floor     int                `bson:"floor" json:"floor"`
	Unit      Unit               `bson:"flat" json:"flat"`
	Rent      int64              `bson:"rent" json:"rent"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Detail is a flat joined with its parent apartment.
type Detail struct {
	Flat      `bson:",inline"`
	Apartment *apartments.Apartment `bson:"apartment,omitempty" json:"apartment,omitempty"`
}

type Page struct {
	Flats      []Flat `json:"flats"`
	Total      int64  `json:"total"`
	Page       int64  `json:"page"`
	Limit      int64  `json:"limit"`
	TotalPages int64  `json:"totalPages"`
}

// RentRange is inclusive; a nil Max means unbounded.
type RentRange struct {
	Min int64
	Max *int64
}

type createRequest struct {
	ApartID string `json:"apartId" validate:"required"`
	Floor   int    `json:"floor" validate:"gte=0"`
	Unit    Unit   `json:"flat"`
	Rent    int64  `json:"rent" validate:"gt=0"`
}
