package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var jwtSecret = []byte("randomKey")

const (
	// SessionTokenTTL is the lifetime of a login token.
	SessionTokenTTL = 72 * time.Hour
	// AvailabilityTokenTTL is the lifetime of a link sent with a not-available notice.
	AvailabilityTokenTTL = 14 * 24 * time.Hour

	PurposeSession      = "session"
	PurposeAvailability = "availability"
)

// UserClaimsKey is the fiber Locals key holding *UserClaims.
const UserClaimsKey = "userClaims"

var ErrWrongPurpose = errors.New("token issued for a different purpose")

// SetSecret allows injecting the secret from config
func SetSecret(secret string) {
	jwtSecret = []byte(secret)
}

type UserClaims struct {
	UserID  string `json:"user_id"`
	Role    string `json:"role"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

func (c *UserClaims) IsAdmin() bool {
	return c != nil && c.Role == "admin"
}

// GenerateToken issues a session token for a user or admin.
func GenerateToken(userID primitive.ObjectID, role string) (string, error) {
	return sign(userID, role, PurposeSession, SessionTokenTTL)
}

// GenerateAvailabilityToken issues a token that only allows changing the
// availability of the given volunteer.
func GenerateAvailabilityToken(userID primitive.ObjectID) (string, error) {
	return sign(userID, "volunteer", PurposeAvailability, AvailabilityTokenTTL)
}

func sign(userID primitive.ObjectID, role, purpose string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := UserClaims{
		UserID:  userID.Hex(),
		Role:    role,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.Hex(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

func ValidateToken(tokenString string) (*UserClaims, error) {
	return validate(tokenString, PurposeSession)
}

func ValidateAvailabilityToken(tokenString string) (*UserClaims, error) {
	return validate(tokenString, PurposeAvailability)
}

func validate(tokenString, purpose string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	if claims.Purpose != purpose {
		return nil, ErrWrongPurpose
	}
	return claims, nil
}
