package token

import (
	"context"
	"errors"
	"time"

	"labhive/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type TokenRepository interface {
	Create(ctx context.Context, t *Token) error
	DeleteAllForOwner(ctx context.Context, owner primitive.ObjectID) error
	// FindOneAndDelete returns (nil, nil) when the token does not exist.
	FindOneAndDelete(ctx context.Context, token string) (*Token, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type TokenRepositoryImpl struct {
	Collection *mongo.Collection
}

func newTokenRepository(mongodb *database.MongodbDB, collection string) *TokenRepositoryImpl {
	return &TokenRepositoryImpl{Collection: mongodb.DB.Collection(collection)}
}

func (r *TokenRepositoryImpl) Create(ctx context.Context, t *Token) error {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, t)
	return err
}

func (r *TokenRepositoryImpl) DeleteAllForOwner(ctx context.Context, owner primitive.ObjectID) error {
	_, err := r.Collection.DeleteMany(ctx, bson.M{"objectId": owner})
	return err
}

func (r *TokenRepositoryImpl) FindOneAndDelete(ctx context.Context, token string) (*Token, error) {
	var t Token
	err := r.Collection.FindOneAndDelete(ctx, bson.M{"token": token}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TokenRepositoryImpl) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.Collection.DeleteMany(ctx, bson.M{"createdAt": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
