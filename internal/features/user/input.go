package user

import (
	"time"

	"labhive/internal/common/models"
	"labhive/pkg/utils"

	"go.mongodb.org/mongo-driver/bson"
)

type LocationInput struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

type ContactInput struct {
	Firstname string `json:"firstname" validate:"required,max=100"`
	Lastname  string `json:"lastname" validate:"required,max=100"`
	Phone     string `json:"phone" validate:"omitempty,max=40"`
}

type DetailsInput struct {
	Qualification string   `json:"qualification" validate:"max=200"`
	Skills        []string `json:"skills" validate:"max=50,dive,max=100"`
	Description   string   `json:"description" validate:"max=5000"`
	Available     *bool    `json:"available"`
}

// ProfileInput holds the fields a user may set on registration and when
// editing the own profile. Fields of other roles are ignored.
type ProfileInput struct {
	Contact      ContactInput   `json:"contact"`
	Location     *LocationInput `json:"location"`
	Address      models.Address `json:"address"`
	Language     string         `json:"language" validate:"omitempty,oneof=de en"`
	PublicSearch bool           `json:"publicSearch"`

	Details *DetailsInput `json:"details"`

	Organization string   `json:"organization" validate:"max=200"`
	Website      string   `json:"website" validate:"omitempty,url,max=300"`
	Description  string   `json:"description" validate:"max=5000"`
	Offers       []string `json:"offers" validate:"max=50,dive,max=200"`
}

// Apply copies the sanitized input onto u.
func (in *ProfileInput) Apply(u *models.User) {
	u.Contact.Firstname = utils.SanitizeText(in.Contact.Firstname)
	u.Contact.Lastname = utils.SanitizeText(in.Contact.Lastname)
	u.Contact.Phone = utils.SanitizeText(in.Contact.Phone)
	u.Address = models.Address{
		Street:  utils.SanitizeText(in.Address.Street),
		Zipcode: utils.SanitizeText(in.Address.Zipcode),
		City:    utils.SanitizeText(in.Address.City),
	}
	if in.Location != nil {
		u.Location = models.NewGeoPoint(in.Location.Lat, in.Location.Lng)
	}
	if in.Language != "" {
		u.Language = in.Language
	}
	u.Consent.PublicSearch = in.PublicSearch

	switch u.Role {
	case models.RoleVolunteer:
		details := u.Details
		if details == nil {
			details = &models.VolunteerDetails{}
		}
		if in.Details != nil {
			details.Qualification = utils.SanitizeText(in.Details.Qualification)
			details.Skills = utils.SanitizeList(in.Details.Skills)
			details.Description = utils.SanitizeRichText(in.Details.Description)
			if in.Details.Available != nil && *in.Details.Available != details.Availability.Available {
				details.Availability = models.Availability{Available: *in.Details.Available, UpdatedAt: time.Now().UTC()}
			}
		}
		u.Details = details
	case models.RoleLabDiag, models.RoleLabResearch:
		u.Organization = utils.SanitizeText(in.Organization)
		u.Website = in.Website
		u.Description = utils.SanitizeRichText(in.Description)
		u.Offers = utils.SanitizeList(in.Offers)
	}
	u.Normalize()
}

// UpdateSet returns the $set document that persists the fields Apply
// touches.
func UpdateSet(u *models.User) bson.M {
	set := bson.M{
		"contact.firstname":    u.Contact.Firstname,
		"contact.lastname":     u.Contact.Lastname,
		"contact.phone":        u.Contact.Phone,
		"address":              u.Address,
		"language":             u.Language,
		"consent.publicSearch": u.Consent.PublicSearch,
	}
	if u.Location != nil {
		set["location"] = u.Location
	}
	switch u.Role {
	case models.RoleVolunteer:
		set["details"] = u.Details
	case models.RoleLabDiag, models.RoleLabResearch:
		set["organization"] = u.Organization
		set["website"] = u.Website
		set["description"] = u.Description
		set["offers"] = u.Offers
	}
	return set
}
