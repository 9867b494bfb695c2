package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the discriminator stored in users.role.
type Role string

const (
	RoleVolunteer   Role = "volunteer"
	RoleLabDiag     Role = "lab-diagnostic"
	RoleLabResearch Role = "lab-research"

	// RoleAdmin is never stored in the users collection.
	RoleAdmin Role = "admin"
)

// UserRoles lists every role a regular user may register with.
var UserRoles = []Role{RoleVolunteer, RoleLabDiag, RoleLabResearch}

// ParseRole maps a string onto a user role. Admin is not a user role.
func ParseRole(s string) (Role, bool) {
	for _, r := range UserRoles {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

func (r Role) IsLab() bool {
	return r == RoleLabDiag || r == RoleLabResearch
}

type Contact struct {
	Email     string `bson:"email" json:"email"`
	Firstname string `bson:"firstname" json:"firstname"`
	Lastname  string `bson:"lastname" json:"lastname"`
	Phone     string `bson:"phone,omitempty" json:"phone,omitempty"`
}

func (c Contact) FullName() string {
	if c.Lastname == "" {
		return c.Firstname
	}
	if c.Firstname == "" {
		return c.Lastname
	}
	return c.Firstname + " " + c.Lastname
}

type Consent struct {
	PublicSearch bool `bson:"publicSearch" json:"publicSearch"`
	Processing   bool `bson:"processing" json:"processing"`
}

type Verified struct {
	Mail   bool `bson:"mail" json:"mail"`
	Manual bool `bson:"manual" json:"manual"`
}

type Address struct {
	Street  string `bson:"street,omitempty" json:"street,omitempty"`
	Zipcode string `bson:"zipcode,omitempty" json:"zipcode,omitempty"`
	City    string `bson:"city,omitempty" json:"city,omitempty"`
}

type Availability struct {
	Available bool      `bson:"available" json:"available"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// VolunteerDetails is only set on volunteer documents.
type VolunteerDetails struct {
	Qualification string       `bson:"qualification,omitempty" json:"qualification,omitempty"`
	Skills        []string     `bson:"skills,omitempty" json:"skills,omitempty"`
	Description   string       `bson:"description,omitempty" json:"description,omitempty"`
	Availability  Availability `bson:"availability" json:"availability"`
}

// TestCapacity is only set on lab-diagnostic documents.
type TestCapacity struct {
	Capacity  int       `bson:"capacity" json:"capacity"`
	Used      int       `bson:"used" json:"used"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// User is one document of the users collection. The fields under the
// role-specific section are only populated for the matching Role.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Version  int                `bson:"__v" json:"__v"`
	Role     Role               `bson:"role" json:"role"`
	Slug     string             `bson:"slug" json:"slug"`
	Contact  Contact            `bson:"contact" json:"contact"`
	Password string             `bson:"password" json:"password"`
	Consent  Consent            `bson:"consent" json:"consent"`
	Verified Verified           `bson:"verified" json:"verified"`
	Disabled bool               `bson:"disabled" json:"disabled"`
	Location *GeoPoint          `bson:"location,omitempty" json:"location,omitempty"`
	Address  Address            `bson:"address" json:"address"`
	Language string             `bson:"language,omitempty" json:"language,omitempty"`

	// volunteer
	Details *VolunteerDetails `bson:"details,omitempty" json:"details,omitempty"`

	// lab-diagnostic, lab-research
	Organization string   `bson:"organization,omitempty" json:"organization,omitempty"`
	Website      string   `bson:"website,omitempty" json:"website,omitempty"`
	Description  string   `bson:"description,omitempty" json:"description,omitempty"`
	Offers       []string `bson:"offers,omitempty" json:"offers,omitempty"`

	// lab-diagnostic
	TestCapacity *TestCapacity `bson:"testCapacity,omitempty" json:"testCapacity,omitempty"`

	Timestamps `bson:",inline"`
}

// Normalize clears fields that do not belong to the user's role, so a
// document never carries data of another variant.
func (u *User) Normalize() {
	switch u.Role {
	case RoleVolunteer:
		u.Organization, u.Website, u.Description, u.Offers = "", "", "", nil
		u.TestCapacity = nil
		if u.Details == nil {
			u.Details = &VolunteerDetails{}
		}
	case RoleLabDiag:
		u.Details = nil
	case RoleLabResearch:
		u.Details = nil
		u.TestCapacity = nil
	}
}

// IsPublic reports whether the user satisfies the public-search conditions.
func (u *User) IsPublic() bool {
	return u.Consent.PublicSearch && u.Verified.Mail && u.Verified.Manual && !u.Disabled
}

func (u *User) AccountID() primitive.ObjectID { return u.ID }
func (u *User) AccountRole() Role             { return u.Role }
func (u *User) AccountEmail() string          { return u.Contact.Email }
func (u *User) AccountContact() Contact       { return u.Contact }
func (u *User) PasswordHash() string          { return u.Password }
func (u *User) IsDisabled() bool              { return u.Disabled }
