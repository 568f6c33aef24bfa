package audit

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ishantswami13-crypto/bms-backend/internal/auth"
)

type Entry struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Actor      string             `bson:"actor" json:"actor"`
	Action     string             `bson:"action" json:"action"`
	EntityType string             `bson:"entityType" json:"entityType"`
	EntityID   string             `bson:"entityId,omitempty" json:"entityId,omitempty"`
	IP         string             `bson:"ip,omitempty" json:"ip,omitempty"`
	UserAgent  string             `bson:"userAgent,omitempty" json:"userAgent,omitempty"`
	Metadata   map[string]any     `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

// Log writes audit entries for admin mutations. A nil *Log discards entries.
type Log struct {
	Coll *mongo.Collection
	Log  logrus.FieldLogger
}

func New(coll *mongo.Collection, log logrus.FieldLogger) *Log {
	return &Log{Coll: coll, Log: log}
}

// Write records an audit entry; failures are returned so callers can ignore if needed.
func (l *Log) Write(ctx context.Context, e Entry) error {
	if l == nil || l.Coll == nil {
		return nil
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := l.Coll.InsertOne(ctx, e)
	return err
}

// Record fills actor and client details from the request and writes the entry
// without failing the request; errors are only logged.
func (l *Log) Record(c *fiber.Ctx, action, entityType, entityID string, metadata map[string]any) {
	if l == nil {
		return
	}
	e := Entry{
		Actor:      auth.EmailFrom(c),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		IP:         c.IP(),
		UserAgent:  string(c.Request().Header.UserAgent()),
		Metadata:   metadata,
	}
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	if err := l.Write(ctx, e); err != nil && l.Log != nil {
		l.Log.WithError(err).WithFields(logrus.Fields{
			"action": action,
			"entity": entityType,
		}).Warn("audit write failed")
	}
}
