// Package usertest provides in-memory repositories for tests of packages
// that depend on the user layer.
package usertest

import (
	"context"
	"sync"
	"time"

	"labhive/internal/common/models"
	"labhive/internal/database"
	"labhive/internal/features/user"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// store holds documents as BSON maps so filters behave like the real
// collection.
type store struct {
	mu   sync.Mutex
	docs []bson.M
}

func (s *store) find(filter bson.M) []bson.M {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []bson.M
	for _, d := range s.docs {
		if Matches(d, filter) {
			out = append(out, d)
		}
	}
	return out
}

func (s *store) insert(doc any, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.docs {
		if v, _ := lookup(d, "contact.email"); v == email {
			return user.ErrEmailTaken
		}
	}
	s.docs = append(s.docs, toMap(doc))
	return nil
}

func (s *store) update(id primitive.ObjectID, set bson.M) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.docs {
		if d["_id"] == id {
			for k, v := range set {
				setPath(d, k, v)
			}
			setPath(d, "updatedAt", time.Now().UTC())
			return nil
		}
	}
	return user.ErrNotFound
}

func (s *store) delete(id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, d := range s.docs {
		if d["_id"] == id {
			s.docs = append(s.docs[:i], s.docs[i+1:]...)
			return nil
		}
	}
	return user.ErrNotFound
}

func toMap(v any) bson.M {
	raw, err := bson.Marshal(v)
	if err != nil {
		panic(err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		panic(err)
	}
	return m
}

func fromMap(m bson.M, out any) {
	raw, err := bson.Marshal(m)
	if err != nil {
		panic(err)
	}
	if err := bson.Unmarshal(raw, out); err != nil {
		panic(err)
	}
}

// Users is an in-memory user.UserRepository.
type Users struct {
	store
}

func NewUsers(seed ...*models.User) *Users {
	r := &Users{}
	for _, u := range seed {
		if err := r.Create(context.Background(), u); err != nil {
			panic(err)
		}
	}
	return r
}

// Put stores u without the unique email check, e.g. to create an
// inconsistent store on purpose.
func (r *Users) Put(u *models.User) {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	r.mu.Lock()
	r.docs = append(r.docs, toMap(u))
	r.mu.Unlock()
}

func (r *Users) FindOne(ctx context.Context, filter bson.M) (*models.User, error) {
	docs := r.find(filter)
	switch len(docs) {
	case 0:
		return nil, nil
	case 1:
		var u models.User
		fromMap(docs[0], &u)
		return &u, nil
	default:
		return nil, database.ErrInconsistentStore
	}
}

func (r *Users) Find(ctx context.Context, filter bson.M, opts user.ListOptions) ([]models.User, error) {
	docs := r.find(filter)
	if opts.Offset > 0 {
		if int(opts.Offset) >= len(docs) {
			docs = nil
		} else {
			docs = docs[opts.Offset:]
		}
	}
	if opts.Limit > 0 && int(opts.Limit) < len(docs) {
		docs = docs[:opts.Limit]
	}
	users := make([]models.User, len(docs))
	for i, d := range docs {
		fromMap(d, &users[i])
	}
	return users, nil
}

func (r *Users) Count(ctx context.Context, filter bson.M) (int64, error) {
	return int64(len(r.find(filter))), nil
}

func (r *Users) Create(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return r.insert(u, u.Contact.Email)
}

func (r *Users) Update(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	return r.update(id, set)
}

func (r *Users) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.delete(id)
}

// Get returns the stored user or nil.
func (r *Users) Get(id primitive.ObjectID) *models.User {
	u, _ := r.FindOne(context.Background(), bson.M{"_id": id})
	return u
}

// Admins is an in-memory user.AdminRepository.
type Admins struct {
	store
}

func NewAdmins(seed ...*models.Admin) *Admins {
	r := &Admins{}
	for _, a := range seed {
		if err := r.Create(context.Background(), a); err != nil {
			panic(err)
		}
	}
	return r
}

func (r *Admins) FindOne(ctx context.Context, filter bson.M) (*models.Admin, error) {
	docs := r.find(filter)
	switch len(docs) {
	case 0:
		return nil, nil
	case 1:
		var a models.Admin
		fromMap(docs[0], &a)
		return &a, nil
	default:
		return nil, database.ErrInconsistentStore
	}
}

func (r *Admins) Create(ctx context.Context, a *models.Admin) error {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	a.Role = models.RoleAdmin
	return r.insert(a, a.Contact.Email)
}

func (r *Admins) Update(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	return r.update(id, set)
}
