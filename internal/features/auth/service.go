package auth

import (
	"context"
	"errors"
	"fmt"

	"labhive/internal/common/models"
	"labhive/internal/config"
	"labhive/internal/features/email"
	"labhive/internal/features/token"
	"labhive/internal/features/user"
	"labhive/internal/metrics"
	"labhive/pkg/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrWrongPassword      = errors.New("wrong password")
)

type LoginResult struct {
	Token string      `json:"token"`
	ID    string      `json:"id"`
	Role  models.Role `json:"role"`
}

type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest, lang string) (*models.User, error)
	Login(ctx context.Context, emailAddr, password string) (*LoginResult, error)
	Activate(ctx context.Context, activationToken string) error
	ForgotPassword(ctx context.Context, emailAddr, lang string) error
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
	ChangePassword(ctx context.Context, claims *utils.UserClaims, oldPassword, newPassword string) error
}

type AuthServiceImpl struct {
	Users            user.UserService
	ResetTokens      token.TokenService
	ActivationTokens token.TokenService
	Mail             email.EmailService

	autoVerify bool
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

func NewAuthService(
	cfg *config.Config,
	users user.UserService,
	resetTokens *token.ResetTokens,
	activationTokens *token.ActivationTokens,
	mail email.EmailService,
	m *metrics.Metrics,
	logger *zap.Logger,
) AuthService {
	return &AuthServiceImpl{
		Users:            users,
		ResetTokens:      resetTokens,
		ActivationTokens: activationTokens,
		Mail:             mail,
		autoVerify:       cfg.DisableVerification,
		metrics:          m,
		logger:           logger.Named("auth"),
	}
}

func recipient(account models.Account, lang string) email.Recipient {
	if lang == "" {
		if u, ok := account.(*models.User); ok && u.Language != "" {
			lang = u.Language
		}
	}
	return email.Recipient{
		Email:    account.AccountEmail(),
		Name:     account.AccountContact().FullName(),
		Language: lang,
	}
}

func (s *AuthServiceImpl) Register(ctx context.Context, req *RegisterRequest, lang string) (*models.User, error) {
	role, ok := models.ParseRole(req.Role)
	if !ok {
		return nil, fmt.Errorf("unknown role %q", req.Role)
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		Role:     role,
		Contact:  models.Contact{Email: user.NormalizeEmail(req.Email)},
		Password: hash,
		Consent:  models.Consent{Processing: req.ConsentProcessing},
		Verified: models.Verified{Manual: s.autoVerify},
		Language: lang,
	}
	req.Profile.Apply(u)
	u.Slug = utils.ProfileSlug(slugSource(u))

	if err := s.Users.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	activation, err := s.ActivationTokens.Issue(ctx, u.ID)
	if err != nil {
		// An account without an activation token can never be activated.
		if delErr := s.Users.DeleteUser(context.WithoutCancel(ctx), u.ID); delErr != nil {
			s.logger.Error("Failed to remove user after activation token error",
				zap.String("userId", u.ID.Hex()), zap.Error(delErr))
		}
		return nil, fmt.Errorf("issue activation token: %w", err)
	}
	s.metrics.Registrations.WithLabelValues(string(role)).Inc()
	s.Mail.SendActivation(ctx, recipient(u, lang), activation)
	return u, nil
}

func slugSource(u *models.User) string {
	if u.Role.IsLab() && u.Organization != "" {
		return u.Organization
	}
	return u.Contact.FullName()
}

func (s *AuthServiceImpl) Login(ctx context.Context, emailAddr, password string) (*LoginResult, error) {
	account, err := s.Users.GetUserForMail(ctx, emailAddr, true)
	if err != nil {
		return nil, err
	}
	if account == nil || !utils.CheckPassword(account.PasswordHash(), password) {
		s.metrics.Logins.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidCredentials
	}
	if account.IsDisabled() {
		s.metrics.Logins.WithLabelValues("disabled").Inc()
		return nil, ErrAccountDisabled
	}

	jwtToken, err := utils.GenerateToken(account.AccountID(), string(account.AccountRole()))
	if err != nil {
		return nil, err
	}
	s.metrics.Logins.WithLabelValues("success").Inc()
	return &LoginResult{
		Token: jwtToken,
		ID:    account.AccountID().Hex(),
		Role:  account.AccountRole(),
	}, nil
}

func (s *AuthServiceImpl) Activate(ctx context.Context, activationToken string) error {
	owner, err := s.ActivationTokens.Redeem(ctx, activationToken)
	if err != nil {
		return err
	}
	return s.Users.UpdateUser(ctx, owner, bson.M{"verified.mail": true})
}

// ForgotPassword succeeds for unknown addresses so callers cannot find out
// which addresses are registered.
func (s *AuthServiceImpl) ForgotPassword(ctx context.Context, emailAddr, lang string) error {
	account, err := s.Users.GetUserForMail(ctx, emailAddr, true)
	if err != nil {
		return err
	}
	if account == nil {
		s.metrics.PasswordResets.WithLabelValues("request", "unknown").Inc()
		return nil
	}

	resetToken, err := s.ResetTokens.Issue(ctx, account.AccountID())
	if err != nil {
		return err
	}
	s.Mail.SendPasswordReset(ctx, recipient(account, lang), resetToken)
	s.metrics.PasswordResets.WithLabelValues("request", "sent").Inc()
	return nil
}

func (s *AuthServiceImpl) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	owner, err := s.ResetTokens.Redeem(ctx, resetToken)
	if err != nil {
		s.metrics.PasswordResets.WithLabelValues("redeem", "rejected").Inc()
		return err
	}

	account, err := s.Users.GetUserByID(ctx, owner.Hex(), true)
	if err != nil {
		return err
	}
	if account == nil {
		return fmt.Errorf("owner %s of reset token: %w", owner.Hex(), user.ErrNotFound)
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.Users.SetPassword(ctx, account, hash); err != nil {
		return err
	}
	s.metrics.PasswordResets.WithLabelValues("redeem", "success").Inc()
	return nil
}

func (s *AuthServiceImpl) ChangePassword(ctx context.Context, claims *utils.UserClaims, oldPassword, newPassword string) error {
	account, err := s.Users.GetUserByID(ctx, claims.UserID, claims.IsAdmin())
	if err != nil {
		return err
	}
	if account == nil {
		return ErrInvalidCredentials
	}
	if !utils.CheckPassword(account.PasswordHash(), oldPassword) {
		return ErrWrongPassword
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.Users.SetPassword(ctx, account, hash)
}
