package token

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Token is a single-use secret sent by mail. ObjectID references the owning
// user or admin.
type Token struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Token     string             `bson:"token" json:"token"`
	ObjectID  primitive.ObjectID `bson:"objectId" json:"objectId"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

func (t *Token) OlderThan(maxAge time.Duration, now time.Time) bool {
	return maxAge > 0 && t.CreatedAt.Before(now.Add(-maxAge))
}
