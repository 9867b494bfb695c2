package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Admin lives in its own collection and never shares documents with users.
type Admin struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id" yaml:"-"`
	Password string             `bson:"password" json:"password" yaml:"password"`
	Disabled bool               `bson:"disabled" json:"disabled" yaml:"disabled"`
	Contact  Contact            `bson:"contact" json:"contact" yaml:"contact"`
	Role     Role               `bson:"role" json:"role" yaml:"role"`

	Timestamps `bson:",inline" yaml:"-"`
}

func (a *Admin) AccountID() primitive.ObjectID { return a.ID }
func (a *Admin) AccountRole() Role             { return RoleAdmin }
func (a *Admin) AccountEmail() string          { return a.Contact.Email }
func (a *Admin) AccountContact() Contact       { return a.Contact }
func (a *Admin) PasswordHash() string          { return a.Password }
func (a *Admin) IsDisabled() bool              { return a.Disabled }
