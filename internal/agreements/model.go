package agreements

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Agreement is a user's request to rent one flat. The flat's placement and
// rent are copied in at request time.
type Agreement struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserEmail string             `bson:"userEmail" json:"userEmail"`
	UserName  string             `bson:"userName,omitempty" json:"userName,omitempty"`
	FlatID    string             `bson:"flatId" json:"flatId"`
	ApartID   string             `bson:"apartId,omitempty" json:"apartId,omitempty"`
	Floor     int                `bson:"floor" json:"floor"`
	FlatNo    string             `bson:"flatNo,omitempty" json:"flatNo,omitempty"`
	Rent      int64              `bson:"rent" json:"rent"`
	Status    Status             `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	DecidedAt *time.Time         `bson:"decidedAt,omitempty" json:"decidedAt,omitempty"`
}

type createRequest struct {
	UserEmail string `json:"userEmail" validate:"required,email"`
	UserName  string `json:"userName"`
	FlatID    string `json:"flatId" validate:"required"`
	ApartID   string `json:"apartId"`
	Floor     int    `json:"floor" validate:"gte=0"`
	FlatNo    string `json:"flatNo"`
	Rent      int64  `json:"rent" validate:"gte=0"`
}

type decideRequest struct {
	Status Status `json:"status" validate:"required,oneof=accepted rejected"`
}
