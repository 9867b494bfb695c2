package user

import (
	"context"

	"labhive/internal/common/models"

	"go.mongodb.org/mongo-driver/bson"
)

// publicBase lists the conditions every publicly visible user satisfies.
func publicBase() bson.M {
	return bson.M{
		"consent.publicSearch": true,
		"verified.manual":      true,
		"verified.mail":        true,
		"disabled":             bson.M{"$ne": true},
	}
}

// PublicUsersFilter combines extra with the public visibility conditions.
// The conditions are joined with $and, so extra can narrow the result but
// never widen it.
func PublicUsersFilter(extra bson.M) bson.M {
	clauses := []bson.M{publicBase()}
	if len(extra) > 0 {
		clauses = append(clauses, extra)
	}
	return bson.M{"$and": clauses}
}

// RoleScope is a view of the users collection restricted to one role.
type RoleScope struct {
	Role models.Role
	repo UserRepository
}

func (s *RoleScope) scoped(filter bson.M) bson.M {
	clauses := []bson.M{{"role": string(s.Role)}}
	if len(filter) > 0 {
		clauses = append(clauses, filter)
	}
	return bson.M{"$and": clauses}
}

func (s *RoleScope) FindOne(ctx context.Context, filter bson.M) (*models.User, error) {
	return s.repo.FindOne(ctx, s.scoped(filter))
}

func (s *RoleScope) Find(ctx context.Context, filter bson.M, opts ListOptions) ([]models.User, error) {
	return s.repo.Find(ctx, s.scoped(filter), opts)
}

func (s *RoleScope) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.repo.Count(ctx, s.scoped(filter))
}
