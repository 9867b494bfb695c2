package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"labhive/internal/common/models"
	"labhive/internal/database"
	"labhive/pkg/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type UserService interface {
	GetUserForMail(ctx context.Context, email string, includeAdmin bool) (models.Account, error)
	GetUserByID(ctx context.Context, id string, includeAdmin bool) (models.Account, error)
	GetUserOrAdmin(ctx context.Context, filter bson.M) (models.Account, error)
	ModelForRole(role string) (*RoleScope, bool)

	FindUser(ctx context.Context, filter bson.M) (*models.User, error)
	ListUsers(ctx context.Context, filter bson.M, opts ListOptions) ([]models.User, int64, error)
	SearchPublic(ctx context.Context, extra bson.M, opts ListOptions) ([]models.User, int64, error)

	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, id primitive.ObjectID, set bson.M) error
	DeleteUser(ctx context.Context, id primitive.ObjectID) error
	SetPassword(ctx context.Context, account models.Account, hash string) error

	GetTestCoverage(ctx context.Context) (*Coverage, error)
	LabLocations(ctx context.Context) ([]models.Marker, error)
	SeedAdmins(ctx context.Context, admins []models.Admin) (int, error)
}

type UserServiceImpl struct {
	UserRepo  UserRepository
	AdminRepo AdminRepository
	logger    *zap.Logger
}

func NewUserService(userRepo UserRepository, adminRepo AdminRepository, logger *zap.Logger) UserService {
	return &UserServiceImpl{
		UserRepo:  userRepo,
		AdminRepo: adminRepo,
		logger:    logger.Named("user"),
	}
}

// NormalizeEmail is applied to every address before it is stored or looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// checked reports store inconsistencies loudly. In development builds DPanic
// panics; in production it logs and the caller receives the error.
func (s *UserServiceImpl) checked(err error, filter bson.M) error {
	if errors.Is(err, database.ErrInconsistentStore) {
		s.logger.DPanic("Lookup matched more than one document", zap.Any("filter", filter), zap.Error(err))
	}
	return err
}

func (s *UserServiceImpl) GetUserForMail(ctx context.Context, email string, includeAdmin bool) (models.Account, error) {
	filter := bson.M{"contact.email": NormalizeEmail(email)}
	if includeAdmin {
		return s.GetUserOrAdmin(ctx, filter)
	}
	return s.findUserAccount(ctx, filter)
}

// GetUserByID treats malformed ids like unknown ones.
func (s *UserServiceImpl) GetUserByID(ctx context.Context, id string, includeAdmin bool) (models.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	filter := bson.M{"_id": oid}
	if includeAdmin {
		return s.GetUserOrAdmin(ctx, filter)
	}
	return s.findUserAccount(ctx, filter)
}

// GetUserOrAdmin looks in users first and falls back to admins.
func (s *UserServiceImpl) GetUserOrAdmin(ctx context.Context, filter bson.M) (models.Account, error) {
	account, err := s.findUserAccount(ctx, filter)
	if err != nil || account != nil {
		return account, err
	}

	admin, err := s.AdminRepo.FindOne(ctx, filter)
	if err != nil {
		return nil, s.checked(err, filter)
	}
	if admin == nil {
		return nil, nil
	}
	return admin, nil
}

// findUserAccount avoids returning a typed nil inside the interface.
func (s *UserServiceImpl) findUserAccount(ctx context.Context, filter bson.M) (models.Account, error) {
	u, err := s.FindUser(ctx, filter)
	if err != nil || u == nil {
		return nil, err
	}
	return u, nil
}

func (s *UserServiceImpl) ModelForRole(role string) (*RoleScope, bool) {
	r, ok := models.ParseRole(role)
	if !ok {
		return nil, false
	}
	return &RoleScope{Role: r, repo: s.UserRepo}, true
}

func (s *UserServiceImpl) FindUser(ctx context.Context, filter bson.M) (*models.User, error) {
	u, err := s.UserRepo.FindOne(ctx, filter)
	if err != nil {
		return nil, s.checked(err, filter)
	}
	return u, nil
}

func (s *UserServiceImpl) ListUsers(ctx context.Context, filter bson.M, opts ListOptions) ([]models.User, int64, error) {
	if filter == nil {
		filter = bson.M{}
	}
	users, err := s.UserRepo.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.UserRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (s *UserServiceImpl) SearchPublic(ctx context.Context, extra bson.M, opts ListOptions) ([]models.User, int64, error) {
	return s.ListUsers(ctx, PublicUsersFilter(extra), opts)
}

func (s *UserServiceImpl) CreateUser(ctx context.Context, user *models.User) error {
	user.Contact.Email = NormalizeEmail(user.Contact.Email)
	user.Normalize()

	existing, err := s.GetUserForMail(ctx, user.Contact.Email, true)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrEmailTaken
	}
	return s.UserRepo.Create(ctx, user)
}

func (s *UserServiceImpl) UpdateUser(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	return s.UserRepo.Update(ctx, id, set)
}

func (s *UserServiceImpl) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	return s.UserRepo.Delete(ctx, id)
}

func (s *UserServiceImpl) SetPassword(ctx context.Context, account models.Account, hash string) error {
	set := bson.M{"password": hash}
	if account.AccountRole() == models.RoleAdmin {
		return s.AdminRepo.Update(ctx, account.AccountID(), set)
	}
	return s.UserRepo.Update(ctx, account.AccountID(), set)
}

// SeedAdmins creates the configured admins that do not exist yet. Plain
// passwords are hashed before they are stored.
func (s *UserServiceImpl) SeedAdmins(ctx context.Context, admins []models.Admin) (int, error) {
	created := 0
	for _, a := range admins {
		a.Contact.Email = NormalizeEmail(a.Contact.Email)
		if a.Contact.Email == "" {
			continue
		}

		existing, err := s.AdminRepo.FindOne(ctx, bson.M{"contact.email": a.Contact.Email})
		if err != nil {
			return created, s.checked(err, bson.M{"contact.email": a.Contact.Email})
		}
		if existing != nil {
			continue
		}

		if !utils.IsPasswordHash(a.Password) {
			hash, err := utils.HashPassword(a.Password)
			if err != nil {
				return created, fmt.Errorf("hash password of admin %s: %w", a.Contact.Email, err)
			}
			a.Password = hash
		}
		if err := s.AdminRepo.Create(ctx, &a); err != nil {
			return created, fmt.Errorf("create admin %s: %w", a.Contact.Email, err)
		}
		s.logger.Info("Seeded admin user", zap.String("email", a.Contact.Email))
		created++
	}
	return created, nil
}
