package capacity

import (
	"context"
	"errors"
	"time"

	"labhive/internal/common/models"
	"labhive/internal/features/user"
	"labhive/pkg/utils"

	"go.mongodb.org/mongo-driver/bson"
)

var ErrNotDiagnosticLab = errors.New("test capacity is only kept for diagnostic labs")

type UpdateRequest struct {
	Capacity *int `json:"capacity" validate:"required,gte=0,lte=10000000"`
	Used     *int `json:"used" validate:"required,gte=0,lte=10000000"`
}

// LabCapacity is the capacity of one public lab.
type LabCapacity struct {
	Slug         string              `json:"slug"`
	Organization string              `json:"organization"`
	Marker       *models.Marker      `json:"marker,omitempty"`
	TestCapacity models.TestCapacity `json:"testCapacity"`
}

// Summary aggregates the capacity of all public diagnostic labs.
type Summary struct {
	Labs      int           `json:"labs"`
	Capacity  int           `json:"capacity"`
	Used      int           `json:"used"`
	Free      int           `json:"free"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Entries   []LabCapacity `json:"entries"`
}

type CapacityService interface {
	Get(ctx context.Context, claims *utils.UserClaims) (*models.TestCapacity, error)
	Update(ctx context.Context, claims *utils.UserClaims, req *UpdateRequest) (*models.TestCapacity, error)
	Query(ctx context.Context) (*Summary, error)
}

type CapacityServiceImpl struct {
	Users user.UserService
	now   func() time.Time
}

func NewCapacityService(users user.UserService) CapacityService {
	return &CapacityServiceImpl{Users: users, now: time.Now}
}

func (s *CapacityServiceImpl) lab(ctx context.Context, claims *utils.UserClaims) (*models.User, error) {
	if claims.Role != string(models.RoleLabDiag) {
		return nil, ErrNotDiagnosticLab
	}
	account, err := s.Users.GetUserByID(ctx, claims.UserID, false)
	if err != nil {
		return nil, err
	}
	u, ok := account.(*models.User)
	if !ok || u == nil {
		return nil, user.ErrNotFound
	}
	if u.Role != models.RoleLabDiag {
		return nil, ErrNotDiagnosticLab
	}
	return u, nil
}

func (s *CapacityServiceImpl) Get(ctx context.Context, claims *utils.UserClaims) (*models.TestCapacity, error) {
	u, err := s.lab(ctx, claims)
	if err != nil {
		return nil, err
	}
	if u.TestCapacity == nil {
		return &models.TestCapacity{}, nil
	}
	return u.TestCapacity, nil
}

func (s *CapacityServiceImpl) Update(ctx context.Context, claims *utils.UserClaims, req *UpdateRequest) (*models.TestCapacity, error) {
	u, err := s.lab(ctx, claims)
	if err != nil {
		return nil, err
	}
	tc := &models.TestCapacity{
		Capacity:  *req.Capacity,
		Used:      *req.Used,
		UpdatedAt: s.now().UTC(),
	}
	if err := s.Users.UpdateUser(ctx, u.ID, bson.M{"testCapacity": tc}); err != nil {
		return nil, err
	}
	return tc, nil
}

// Query sums the reported capacity of every public diagnostic lab.
func (s *CapacityServiceImpl) Query(ctx context.Context) (*Summary, error) {
	labs, _, err := s.Users.SearchPublic(ctx, bson.M{
		"role":         string(models.RoleLabDiag),
		"testCapacity": bson.M{"$exists": true},
	}, user.ListOptions{})
	if err != nil {
		return nil, err
	}

	summary := &Summary{Entries: make([]LabCapacity, 0, len(labs))}
	for _, lab := range labs {
		if lab.TestCapacity == nil {
			continue
		}
		tc := *lab.TestCapacity
		entry := LabCapacity{Slug: lab.Slug, Organization: lab.Organization, TestCapacity: tc}
		if lab.Location.Valid() {
			m := lab.Location.Marker(lab.Role)
			entry.Marker = &m
		}
		summary.Entries = append(summary.Entries, entry)

		summary.Labs++
		summary.Capacity += tc.Capacity
		summary.Used += tc.Used
		if free := tc.Capacity - tc.Used; free > 0 {
			summary.Free += free
		}
		if tc.UpdatedAt.After(summary.UpdatedAt) {
			summary.UpdatedAt = tc.UpdatedAt.UTC()
		}
	}
	return summary, nil
}
