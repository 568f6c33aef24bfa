package apartments

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Owner is the admin that registered the apartment.
type Owner struct {
	Email string `bson:"email" json:"email"`
	Name  string `bson:"name,omitempty" json:"name,omitempty"`
}

type FloorRent struct {
	Floor int   `bson:"floor" json:"floor" validate:"gte=0"`
	Rent  int64 `bson:"rent" json:"rent" validate:"gte=0"`
}

type Apartment struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name          string             `bson:"name" json:"name"`
	Address       string             `bson:"address,omitempty" json:"address,omitempty"`
	City          string             `bson:"city,omitempty" json:"city,omitempty"`
	Image         string             `bson:"image,omitempty" json:"image,omitempty"`
	Owner         Owner              `bson:"user" json:"user"`
	Floors        []FloorRent        `bson:"floors,omitempty" json:"floors,omitempty"`
	FlatQty       int                `bson:"flatQty" json:"flatQty"`
	AvailableFlat int                `bson:"availableFlat" json:"availableFlat"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}

type createRequest struct {
	Name      string      `json:"name" validate:"required"`
	Address   string      `json:"address"`
	City      string      `json:"city"`
	Image     string      `json:"image" validate:"omitempty,url"`
	OwnerName string      `json:"ownerName"`
	Floors    []FloorRent `json:"floors" validate:"dive"`
	FlatQty   int         `json:"flatQty" validate:"gt=0"`
}
