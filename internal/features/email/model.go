package email

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind names a mail template. It is used as metrics label.
type Kind string

const (
	KindPasswordReset      Kind = "password_reset"
	KindActivation         Kind = "activation"
	KindNotAvailableNotice Kind = "not_available_notice"
)

// Email is one rendered outbound message.
type Email struct {
	Kind     Kind
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// FailedMail keeps a message that could not be delivered so an admin can
// resend it by hand.
type FailedMail struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Kind      Kind               `bson:"kind" json:"kind"`
	To        string             `bson:"to" json:"to"`
	Subject   string             `bson:"subject" json:"subject"`
	Body      string             `bson:"body" json:"body"`
	Error     string             `bson:"error" json:"error"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
