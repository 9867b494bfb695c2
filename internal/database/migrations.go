package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ErrInconsistentStore means a lookup that must match at most one document
// matched several. It indicates corrupted data, never bad input.
var ErrInconsistentStore = errors.New("inconsistent store: more than one document matched")

// maxMigrationRounds bounds the apply/recheck loop in Run.
const maxMigrationRounds = 3

type Migration struct {
	Version int
	Name    string
	Up      func(ctx context.Context, db *mongo.Database) error
}

type AppliedMigration struct {
	Version   int       `bson:"version"`
	Name      string    `bson:"name"`
	AppliedAt time.Time `bson:"appliedAt"`
}

// MigrationStore records which migrations already ran.
type MigrationStore interface {
	AppliedVersions(ctx context.Context) (map[int]bool, error)
	MarkApplied(ctx context.Context, m Migration) error
}

type MigrationStoreImpl struct {
	Collection *mongo.Collection
}

func NewMigrationStore(mongodb *MongodbDB) MigrationStore {
	return &MigrationStoreImpl{
		Collection: mongodb.DB.Collection(MigrationsCollection),
	}
}

func (s *MigrationStoreImpl) AppliedVersions(ctx context.Context) (map[int]bool, error) {
	cursor, err := s.Collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var applied []AppliedMigration
	if err := cursor.All(ctx, &applied); err != nil {
		return nil, err
	}

	versions := make(map[int]bool, len(applied))
	for _, a := range applied {
		versions[a.Version] = true
	}
	return versions, nil
}

func (s *MigrationStoreImpl) MarkApplied(ctx context.Context, m Migration) error {
	_, err := s.Collection.UpdateOne(ctx,
		bson.M{"version": m.Version},
		bson.M{"$set": AppliedMigration{Version: m.Version, Name: m.Name, AppliedAt: time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	return err
}

type Migrator struct {
	store      MigrationStore
	db         *mongo.Database
	migrations []Migration
	logger     *zap.Logger
}

func NewMigrator(store MigrationStore, mongodb *MongodbDB, logger *zap.Logger) *Migrator {
	return &Migrator{
		store:      store,
		db:         mongodb.DB,
		migrations: DefaultMigrations(),
		logger:     logger,
	}
}

// Pending returns the migrations not yet applied, ordered by version.
func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	applied, err := m.store.AppliedVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("read applied migrations: %w", err)
	}

	var pending []Migration
	for _, mig := range m.migrations {
		if !applied[mig.Version] {
			pending = append(pending, mig)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].Version < pending[j].Version })
	return pending, nil
}

// Run applies pending migrations until the store reports none left.
func (m *Migrator) Run(ctx context.Context) error {
	for round := 0; round < maxMigrationRounds; round++ {
		pending, err := m.Pending(ctx)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			return nil
		}

		for _, mig := range pending {
			m.logger.Info("Applying migration", zap.Int("version", mig.Version), zap.String("name", mig.Name))
			if err := mig.Up(ctx, m.db); err != nil {
				return fmt.Errorf("migration %d (%s): %w", mig.Version, mig.Name, err)
			}
			if err := m.store.MarkApplied(ctx, mig); err != nil {
				return fmt.Errorf("record migration %d: %w", mig.Version, err)
			}
		}
	}
	return errors.New("migrations still pending after repeated runs")
}

func DefaultMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_indexes", Up: createIndexes},
		{Version: MergeLegacyRolesVersion, Name: "merge_legacy_role_collections", Up: mergeLegacyRoleCollections},
		{Version: 3, Name: "backfill_disabled_flag", Up: backfillDisabledFlag},
	}
}

func createIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "contact.email", Value: 1}}, Options: options.Index().SetName("idx_users_email").SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}}, Options: options.Index().SetName("idx_users_role")},
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetName("idx_users_slug").SetUnique(true).SetSparse(true)},
			{Keys: bson.D{{Key: "location", Value: "2dsphere"}}, Options: options.Index().SetName("idx_users_location")},
		},
		AdminsCollection: {
			{Keys: bson.D{{Key: "contact.email", Value: 1}}, Options: options.Index().SetName("idx_admins_email").SetUnique(true)},
		},
		ResetTokensCollection: {
			{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetName("idx_reset_token").SetUnique(true)},
			{Keys: bson.D{{Key: "objectId", Value: 1}}, Options: options.Index().SetName("idx_reset_owner")},
		},
		ActivationTokensCollection: {
			{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetName("idx_activation_token").SetUnique(true)},
			{Keys: bson.D{{Key: "objectId", Value: 1}}, Options: options.Index().SetName("idx_activation_owner")},
		},
	}

	for coll, models := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("%s: %w", coll, err)
		}
	}
	return nil
}

// legacyRoleCollections are the per-role collections used before all users
// moved into one collection with a role discriminator.
var legacyRoleCollections = []struct {
	name string
	role string
}{
	{"user_volunteers", "volunteer"},
	{"user_labdiags", "lab-diagnostic"},
	{"user_labresearches", "lab-research"},
}

// MergeLegacyRolesVersion is the migration that copies the legacy per-role
// collections into users. The legacy collections may be dropped after it.
const MergeLegacyRolesVersion = 2

func LegacyRoleCollections() []string {
	names := make([]string, len(legacyRoleCollections))
	for i, c := range legacyRoleCollections {
		names[i] = c.name
	}
	return names
}

func mergeLegacyRoleCollections(ctx context.Context, db *mongo.Database) error {
	users := db.Collection(UsersCollection)

	for _, legacy := range legacyRoleCollections {
		cursor, err := db.Collection(legacy.name).Find(ctx, bson.M{})
		if err != nil {
			return err
		}

		for cursor.Next(ctx) {
			var doc bson.M
			if err := cursor.Decode(&doc); err != nil {
				cursor.Close(ctx)
				return err
			}

			// already copied by an earlier, interrupted run
			n, err := users.CountDocuments(ctx, bson.M{"_id": doc["_id"]})
			if err != nil {
				cursor.Close(ctx)
				return err
			}
			if n > 0 {
				continue
			}

			doc["role"] = legacy.role
			if _, ok := doc["disabled"]; !ok {
				doc["disabled"] = false
			}
			if _, err := users.InsertOne(ctx, doc); err != nil {
				cursor.Close(ctx)
				if mongo.IsDuplicateKeyError(err) {
					return fmt.Errorf("%w: %s document %v shares its email with another role", ErrInconsistentStore, legacy.name, doc["_id"])
				}
				return err
			}
		}
		err = cursor.Err()
		cursor.Close(ctx)
		if err != nil {
			return err
		}
	}
	return nil
}

func backfillDisabledFlag(ctx context.Context, db *mongo.Database) error {
	for _, coll := range []string{UsersCollection, AdminsCollection} {
		_, err := db.Collection(coll).UpdateMany(ctx,
			bson.M{"disabled": bson.M{"$exists": false}},
			bson.M{"$set": bson.M{"disabled": false}},
		)
		if err != nil {
			return fmt.Errorf("%s: %w", coll, err)
		}
	}
	return nil
}
