package email

import (
	"context"
	"time"

	"labhive/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FailedMailRepository is append-only.
type FailedMailRepository interface {
	Create(ctx context.Context, mail *FailedMail) error
	List(ctx context.Context, limit, offset int64) ([]FailedMail, int64, error)
}

type FailedMailRepositoryImpl struct {
	col *mongo.Collection
}

func NewFailedMailRepository(db *database.MongodbDB) FailedMailRepository {
	return &FailedMailRepositoryImpl{
		col: db.DB.Collection(database.FailedMailsCollection),
	}
}

func (r *FailedMailRepositoryImpl) Create(ctx context.Context, mail *FailedMail) error {
	if mail.ID.IsZero() {
		mail.ID = primitive.NewObjectID()
	}
	mail.CreatedAt = time.Now().UTC()
	_, err := r.col.InsertOne(ctx, mail)
	return err
}

func (r *FailedMailRepositoryImpl) List(ctx context.Context, limit, offset int64) ([]FailedMail, int64, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	if offset > 0 {
		opts.SetSkip(offset)
	}

	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	mails := []FailedMail{}
	if err := cursor.All(ctx, &mails); err != nil {
		return nil, 0, err
	}

	total, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}
	return mails, total, nil
}
