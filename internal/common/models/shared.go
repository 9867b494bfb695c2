package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Timestamps is embedded in every stored document.
type Timestamps struct {
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Touch sets UpdatedAt, and CreatedAt when it is still zero.
func (t *Timestamps) Touch(now time.Time) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
}

// ServerLog is a persisted warn+ log entry.
type ServerLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Level     string             `bson:"level" json:"level"`
	Message   string             `bson:"message" json:"message"`
	Caller    string             `bson:"caller,omitempty" json:"caller,omitempty"`
	IpAddress string             `bson:"ip,omitempty" json:"ip,omitempty"`
	UserID    string             `bson:"userId,omitempty" json:"userId,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
