package user

import (
	"context"

	"labhive/internal/common/models"

	"go.mongodb.org/mongo-driver/bson"
)

// Coverage summarizes the publicly visible users per role and where
// diagnostic labs are located.
type Coverage struct {
	Counts  map[models.Role]int64 `json:"counts"`
	Markers []models.Marker       `json:"markers"`
}

func (s *UserServiceImpl) GetTestCoverage(ctx context.Context) (*Coverage, error) {
	coverage := &Coverage{Counts: make(map[models.Role]int64, len(models.UserRoles))}
	for _, role := range models.UserRoles {
		n, err := s.UserRepo.Count(ctx, PublicUsersFilter(bson.M{"role": string(role)}))
		if err != nil {
			return nil, err
		}
		coverage.Counts[role] = n
	}

	markers, err := s.markers(ctx, []models.Role{models.RoleLabDiag})
	if err != nil {
		return nil, err
	}
	coverage.Markers = markers
	return coverage, nil
}

// LabLocations returns rounded positions of all public labs.
func (s *UserServiceImpl) LabLocations(ctx context.Context) ([]models.Marker, error) {
	return s.markers(ctx, []models.Role{models.RoleLabDiag, models.RoleLabResearch})
}

func (s *UserServiceImpl) markers(ctx context.Context, roles []models.Role) ([]models.Marker, error) {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}

	users, err := s.UserRepo.Find(ctx, PublicUsersFilter(bson.M{
		"role":     bson.M{"$in": names},
		"location": bson.M{"$exists": true},
	}), ListOptions{})
	if err != nil {
		return nil, err
	}

	markers := make([]models.Marker, 0, len(users))
	for _, u := range users {
		if !u.Location.Valid() {
			continue
		}
		markers = append(markers, u.Location.Marker(u.Role))
	}
	return markers, nil
}
