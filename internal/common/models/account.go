package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Account is implemented by *User and *Admin. Lookups that may return either
// kind (login, password reset) work with this interface.
type Account interface {
	AccountID() primitive.ObjectID
	AccountRole() Role
	AccountEmail() string
	AccountContact() Contact
	PasswordHash() string
	IsDisabled() bool
}
