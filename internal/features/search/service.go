package search

import (
	"context"
	"strings"

	"labhive/internal/common/models"
	"labhive/internal/features/user"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	earthRadiusKm = 6378.1
	defaultLimit  = 20
	maxLimit      = 100
	maxPage       = 10000
	defaultRadius = 25.0
)

// Query is the parsed search request. Lat and Lng are only used when
// HasLocation is set.
type Query struct {
	Role          string  `query:"role" validate:"omitempty,oneof=volunteer lab-diagnostic lab-research"`
	Lat           float64 `query:"lat" validate:"gte=-90,lte=90"`
	Lng           float64 `query:"lng" validate:"gte=-180,lte=180"`
	Radius        float64 `query:"radius" validate:"gte=0,lte=1000"`
	Skills        string  `query:"skills" validate:"max=500"`
	Qualification string  `query:"qualification" validate:"max=200"`
	Available     bool    `query:"available"`
	Page          int64   `query:"page" validate:"gte=0,lte=10000"`
	Limit         int64   `query:"limit" validate:"gte=0,lte=100"`

	HasLocation bool `query:"-"`
}

// Filter builds the extra conditions that are combined with the public
// visibility conditions.
func (q *Query) Filter() bson.M {
	filter := bson.M{}
	if q.Role != "" {
		filter["role"] = q.Role
	}
	if q.HasLocation {
		radius := q.Radius
		if radius <= 0 {
			radius = defaultRadius
		}
		filter["location"] = bson.M{
			"$geoWithin": bson.M{
				"$centerSphere": bson.A{bson.A{q.Lng, q.Lat}, radius / earthRadiusKm},
			},
		}
	}
	if skills := splitList(q.Skills); len(skills) > 0 {
		filter["details.skills"] = bson.M{"$in": skills}
	}
	if q.Qualification != "" {
		filter["details.qualification"] = q.Qualification
	}
	if q.Available {
		filter["details.availability.available"] = true
	}
	return filter
}

func (q *Query) Options() user.ListOptions {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	page := min(max(q.Page, 1), maxPage)
	return user.ListOptions{Limit: limit, Offset: (page - 1) * limit}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

type Result struct {
	Users []models.User
	Total int64
	Page  int64
	Limit int64
}

type SearchService interface {
	Search(ctx context.Context, q *Query) (*Result, error)
	LabLocations(ctx context.Context) ([]models.Marker, error)
	TestCoverage(ctx context.Context) (*user.Coverage, error)
}

type SearchServiceImpl struct {
	Users user.UserService
}

func NewSearchService(users user.UserService) SearchService {
	return &SearchServiceImpl{Users: users}
}

func (s *SearchServiceImpl) Search(ctx context.Context, q *Query) (*Result, error) {
	opts := q.Options()
	users, total, err := s.Users.SearchPublic(ctx, q.Filter(), opts)
	if err != nil {
		return nil, err
	}
	return &Result{
		Users: users,
		Total: total,
		Page:  opts.Offset/opts.Limit + 1,
		Limit: opts.Limit,
	}, nil
}

func (s *SearchServiceImpl) LabLocations(ctx context.Context) ([]models.Marker, error) {
	return s.Users.LabLocations(ctx)
}

func (s *SearchServiceImpl) TestCoverage(ctx context.Context) (*user.Coverage, error) {
	return s.Users.GetTestCoverage(ctx)
}
