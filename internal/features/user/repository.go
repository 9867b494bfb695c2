package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"labhive/internal/common/models"
	"labhive/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

// ListOptions pages a Find. Zero values mean no limit and no offset.
type ListOptions struct {
	Limit  int64
	Offset int64
}

// UserRepository reads and writes the users collection. FindOne returns
// (nil, nil) when nothing matches and database.ErrInconsistentStore when
// more than one document matches.
type UserRepository interface {
	FindOne(ctx context.Context, filter bson.M) (*models.User, error)
	Find(ctx context.Context, filter bson.M, opts ListOptions) ([]models.User, error)
	Count(ctx context.Context, filter bson.M) (int64, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type UserRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewUserRepository(mongodb *database.MongodbDB) UserRepository {
	return &UserRepositoryImpl{
		Collection: mongodb.DB.Collection(database.UsersCollection),
	}
}

func (r *UserRepositoryImpl) FindOne(ctx context.Context, filter bson.M) (*models.User, error) {
	cursor, err := r.Collection.Find(ctx, filter, options.Find().SetLimit(2))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return exactlyOne(users)
}

func (r *UserRepositoryImpl) Find(ctx context.Context, filter bson.M, opts ListOptions) ([]models.User, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}
	if opts.Offset > 0 {
		findOpts.SetSkip(opts.Offset)
	}

	cursor, err := r.Collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepositoryImpl) Count(ctx context.Context, filter bson.M) (int64, error) {
	return r.Collection.CountDocuments(ctx, filter)
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.Touch(time.Now().UTC())

	_, err := r.Collection.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrEmailTaken
	}
	return err
}

func (r *UserRepositoryImpl) Update(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	update := bson.M{}
	for k, v := range set {
		update[k] = v
	}
	update["updatedAt"] = time.Now().UTC()

	res, err := r.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepositoryImpl) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func exactlyOne[T any](docs []T) (*T, error) {
	switch len(docs) {
	case 0:
		return nil, nil
	case 1:
		return &docs[0], nil
	default:
		return nil, fmt.Errorf("%d documents matched: %w", len(docs), database.ErrInconsistentStore)
	}
}

// AdminRepository reads and writes the user_admins collection.
type AdminRepository interface {
	FindOne(ctx context.Context, filter bson.M) (*models.Admin, error)
	Create(ctx context.Context, admin *models.Admin) error
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) error
}

type AdminRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewAdminRepository(mongodb *database.MongodbDB) AdminRepository {
	return &AdminRepositoryImpl{
		Collection: mongodb.DB.Collection(database.AdminsCollection),
	}
}

func (r *AdminRepositoryImpl) FindOne(ctx context.Context, filter bson.M) (*models.Admin, error) {
	cursor, err := r.Collection.Find(ctx, filter, options.Find().SetLimit(2))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var admins []models.Admin
	if err := cursor.All(ctx, &admins); err != nil {
		return nil, err
	}
	return exactlyOne(admins)
}

func (r *AdminRepositoryImpl) Create(ctx context.Context, admin *models.Admin) error {
	if admin.ID.IsZero() {
		admin.ID = primitive.NewObjectID()
	}
	admin.Role = models.RoleAdmin
	admin.Touch(time.Now().UTC())

	_, err := r.Collection.InsertOne(ctx, admin)
	if mongo.IsDuplicateKeyError(err) {
		return ErrEmailTaken
	}
	return err
}

func (r *AdminRepositoryImpl) Update(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	update := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range set {
		update[k] = v
	}

	res, err := r.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
