package user

import (
	"encoding/json"

	"labhive/internal/common/models"
	"labhive/pkg/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Viewer is the authenticated caller a payload is rendered for. A nil
// *Viewer is an anonymous visitor.
type Viewer struct {
	ID   primitive.ObjectID
	Role models.Role
}

func ViewerFromClaims(claims *utils.UserClaims) *Viewer {
	if claims == nil {
		return nil
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil
	}
	return &Viewer{ID: id, Role: models.Role(claims.Role)}
}

// seesContact reports whether the viewer may read contact data of others.
func (v *Viewer) seesContact() bool {
	return v != nil && v.Role != "" && v.Role != models.RoleVolunteer
}

var alwaysHidden = []string{"__v", "password", "consent", "verified", "disabled"}

// Redact renders an account for other users and the public.
func Redact(viewer *Viewer, account models.Account) map[string]any {
	doc := toDocument(account)
	if doc == nil {
		return nil
	}
	for _, key := range alwaysHidden {
		delete(doc, key)
	}
	if !viewer.seesContact() {
		delete(doc, "contact")
	}
	if account.AccountRole() == models.RoleVolunteer {
		delete(doc, "organization")
		delete(doc, "website")
	}
	return doc
}

// RedactForOwner renders an account for its owner.
func RedactForOwner(account models.Account) map[string]any {
	return stripSecrets(account)
}

// RedactForAdmin renders an account for the admin listing.
func RedactForAdmin(account models.Account) map[string]any {
	return stripSecrets(account)
}

func stripSecrets(account models.Account) map[string]any {
	doc := toDocument(account)
	if doc == nil {
		return nil
	}
	delete(doc, "password")
	delete(doc, "__v")
	return doc
}

// toDocument converts an account to its JSON shape. Conversion of the model
// types cannot fail; a nil result only happens for a nil account.
func toDocument(account models.Account) map[string]any {
	if account == nil {
		return nil
	}
	raw, err := json.Marshal(account)
	if err != nil {
		return nil
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil
	}
	return doc
}
