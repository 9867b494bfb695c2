package profile

import (
	"context"
	"errors"
	"time"

	"labhive/internal/common/models"
	"labhive/internal/features/email"
	"labhive/internal/features/user"
	"labhive/pkg/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotAUser     = errors.New("account has no profile")
	ErrForbidden    = errors.New("not allowed for this role")
	ErrNotVolunteer = errors.New("profile is not a volunteer")
)

type ProfileService interface {
	Own(ctx context.Context, claims *utils.UserClaims) (models.Account, error)
	Update(ctx context.Context, claims *utils.UserClaims, in *user.ProfileInput) (*models.User, error)
	Delete(ctx context.Context, claims *utils.UserClaims) error
	Revoke(ctx context.Context, claims *utils.UserClaims) error
	Public(ctx context.Context, viewer *user.Viewer, idOrSlug string) (*models.User, error)
	NotAvailableNotice(ctx context.Context, claims *utils.UserClaims, idOrSlug, lang string) error
	UpdateAvailability(ctx context.Context, idOrSlug, availabilityToken string, available bool) error
}

type ProfileServiceImpl struct {
	Users user.UserService
	Mail  email.EmailService
}

func NewProfileService(users user.UserService, mail email.EmailService) ProfileService {
	return &ProfileServiceImpl{Users: users, Mail: mail}
}

// lookupFilter matches a profile by object id or by slug.
func lookupFilter(idOrSlug string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(idOrSlug); err == nil {
		return bson.M{"_id": oid}
	}
	return bson.M{"slug": idOrSlug}
}

func (s *ProfileServiceImpl) Own(ctx context.Context, claims *utils.UserClaims) (models.Account, error) {
	account, err := s.Users.GetUserByID(ctx, claims.UserID, claims.IsAdmin())
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, user.ErrNotFound
	}
	return account, nil
}

func (s *ProfileServiceImpl) ownUser(ctx context.Context, claims *utils.UserClaims) (*models.User, error) {
	if claims.IsAdmin() {
		return nil, ErrNotAUser
	}
	account, err := s.Own(ctx, claims)
	if err != nil {
		return nil, err
	}
	u, ok := account.(*models.User)
	if !ok {
		return nil, ErrNotAUser
	}
	return u, nil
}

func (s *ProfileServiceImpl) Update(ctx context.Context, claims *utils.UserClaims, in *user.ProfileInput) (*models.User, error) {
	u, err := s.ownUser(ctx, claims)
	if err != nil {
		return nil, err
	}
	in.Apply(u)
	if err := s.Users.UpdateUser(ctx, u.ID, user.UpdateSet(u)); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *ProfileServiceImpl) Delete(ctx context.Context, claims *utils.UserClaims) error {
	u, err := s.ownUser(ctx, claims)
	if err != nil {
		return err
	}
	return s.Users.DeleteUser(ctx, u.ID)
}

// Revoke withdraws the consent to appear in public search.
func (s *ProfileServiceImpl) Revoke(ctx context.Context, claims *utils.UserClaims) error {
	u, err := s.ownUser(ctx, claims)
	if err != nil {
		return err
	}
	return s.Users.UpdateUser(ctx, u.ID, bson.M{"consent.publicSearch": false})
}

// Public returns a profile visible to viewer. Non public profiles are only
// visible to their owner and admins.
func (s *ProfileServiceImpl) Public(ctx context.Context, viewer *user.Viewer, idOrSlug string) (*models.User, error) {
	u, err := s.Users.FindUser(ctx, lookupFilter(idOrSlug))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, user.ErrNotFound
	}
	if u.IsPublic() {
		return u, nil
	}
	if viewer != nil && (viewer.ID == u.ID || viewer.Role == models.RoleAdmin) {
		return u, nil
	}
	return nil, user.ErrNotFound
}

// NotAvailableNotice lets a lab report that a volunteer could not be
// reached. The volunteer is marked unavailable and receives a link to
// confirm the availability again.
func (s *ProfileServiceImpl) NotAvailableNotice(ctx context.Context, claims *utils.UserClaims, idOrSlug, lang string) error {
	sender, err := s.ownUser(ctx, claims)
	if err != nil {
		return err
	}
	if !sender.Role.IsLab() {
		return ErrForbidden
	}

	volunteer, err := s.Public(ctx, user.ViewerFromClaims(claims), idOrSlug)
	if err != nil {
		return err
	}
	if volunteer.Role != models.RoleVolunteer {
		return ErrNotVolunteer
	}

	if err := s.setAvailability(ctx, volunteer.ID, false); err != nil {
		return err
	}

	availabilityToken, err := utils.GenerateAvailabilityToken(volunteer.ID)
	if err != nil {
		return err
	}
	senderName := sender.Organization
	if senderName == "" {
		senderName = sender.Contact.FullName()
	}
	if volunteer.Language != "" {
		lang = volunteer.Language
	}
	s.Mail.SendNotAvailableNotice(ctx, email.Recipient{
		Email:    volunteer.Contact.Email,
		Name:     volunteer.Contact.FullName(),
		Language: lang,
	}, senderName, volunteer.ID.Hex(), availabilityToken)
	return nil
}

func (s *ProfileServiceImpl) UpdateAvailability(ctx context.Context, idOrSlug, availabilityToken string, available bool) error {
	claims, err := utils.ValidateAvailabilityToken(availabilityToken)
	if err != nil {
		return err
	}

	u, err := s.Users.FindUser(ctx, lookupFilter(idOrSlug))
	if err != nil {
		return err
	}
	if u == nil || u.ID.Hex() != claims.UserID {
		return user.ErrNotFound
	}
	if u.Role != models.RoleVolunteer {
		return ErrNotVolunteer
	}
	return s.setAvailability(ctx, u.ID, available)
}

func (s *ProfileServiceImpl) setAvailability(ctx context.Context, id primitive.ObjectID, available bool) error {
	return s.Users.UpdateUser(ctx, id, bson.M{
		"details.availability": models.Availability{Available: available, UpdatedAt: time.Now().UTC()},
	})
}
