package user_test

import (
	"testing"

	"labhive/internal/common/models"
	"labhive/internal/features/user"
	"labhive/pkg/utils"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func sampleAccounts() []models.Account {
	return []models.Account{
		&models.User{
			ID:       primitive.NewObjectID(),
			Role:     models.RoleVolunteer,
			Contact:  models.Contact{Email: "v@example.org", Firstname: "Vera"},
			Password: "$2a$10$hash",
			Consent:  models.Consent{PublicSearch: true, Processing: true},
			Verified: models.Verified{Mail: true, Manual: true},
			Details:  &models.VolunteerDetails{Skills: []string{"pcr"}},
		},
		&models.User{
			ID:           primitive.NewObjectID(),
			Role:         models.RoleLabDiag,
			Contact:      models.Contact{Email: "d@example.org"},
			Password:     "$2a$10$hash",
			Organization: "Diagnostics Lab",
			Website:      "https://lab.example.org",
			TestCapacity: &models.TestCapacity{Capacity: 100},
		},
		&models.User{
			ID:           primitive.NewObjectID(),
			Role:         models.RoleLabResearch,
			Contact:      models.Contact{Email: "r@example.org"},
			Password:     "$2a$10$hash",
			Organization: "Research Lab",
		},
		&models.Admin{
			ID:       primitive.NewObjectID(),
			Contact:  models.Contact{Email: "admin@example.org"},
			Password: "$2a$10$hash",
		},
	}
}

func sampleViewers() []*user.Viewer {
	return []*user.Viewer{
		nil,
		{Role: models.RoleVolunteer},
		{Role: models.RoleLabDiag},
		{Role: models.RoleLabResearch},
		{Role: models.RoleAdmin},
	}
}

func TestRedact_NeverLeaksSecrets(t *testing.T) {
	for _, account := range sampleAccounts() {
		for _, viewer := range sampleViewers() {
			doc := user.Redact(viewer, account)
			for _, key := range []string{"password", "consent", "verified", "disabled", "__v"} {
				assert.NotContains(t, doc, key, "role %s viewer %+v", account.AccountRole(), viewer)
			}
		}
	}
}

func TestRedact_ContactVisibility(t *testing.T) {
	volunteer := sampleAccounts()[0]

	assert.NotContains(t, user.Redact(nil, volunteer), "contact")
	assert.NotContains(t, user.Redact(&user.Viewer{Role: models.RoleVolunteer}, volunteer), "contact")
	assert.Contains(t, user.Redact(&user.Viewer{Role: models.RoleLabDiag}, volunteer), "contact")
	assert.Contains(t, user.Redact(&user.Viewer{Role: models.RoleAdmin}, volunteer), "contact")
}

func TestRedact_VolunteerHasNoOrganization(t *testing.T) {
	volunteer := sampleAccounts()[0].(*models.User)
	volunteer.Organization = "should not be here"
	volunteer.Website = "https://nope.example.org"

	doc := user.Redact(&user.Viewer{Role: models.RoleLabDiag}, volunteer)
	assert.NotContains(t, doc, "organization")
	assert.NotContains(t, doc, "website")
	assert.Contains(t, doc, "details")

	lab := user.Redact(nil, sampleAccounts()[1])
	assert.Equal(t, "Diagnostics Lab", lab["organization"])
	assert.Equal(t, "https://lab.example.org", lab["website"])
}

func TestRedactForOwnerAndAdmin(t *testing.T) {
	for _, account := range sampleAccounts() {
		for _, doc := range []map[string]any{user.RedactForOwner(account), user.RedactForAdmin(account)} {
			assert.NotContains(t, doc, "password")
			assert.NotContains(t, doc, "__v")
			assert.Contains(t, doc, "contact")
		}
	}
}

func TestRedact_NilAccount(t *testing.T) {
	assert.Nil(t, user.Redact(nil, nil))
	var u *models.User
	assert.Nil(t, user.Redact(nil, u))
}

func TestViewerFromClaims(t *testing.T) {
	assert.Nil(t, user.ViewerFromClaims(nil))
	assert.Nil(t, user.ViewerFromClaims(&utils.UserClaims{UserID: "not-hex"}))

	id := primitive.NewObjectID()
	v := user.ViewerFromClaims(&utils.UserClaims{UserID: id.Hex(), Role: "lab-research"})
	assert.Equal(t, &user.Viewer{ID: id, Role: models.RoleLabResearch}, v)
}
