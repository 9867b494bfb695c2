package main

import (
	"context"
	"flag"
	"log"
	"slices"
	"time"

	"labhive/internal/config"
	"labhive/internal/database"
	"labhive/internal/features/token"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	dropLegacy := flag.Bool("drop-legacy", false, "drop the per-role collections once they were merged into users")
	logsOlderThan := flag.Duration("logs-older-than", 90*24*time.Hour, "delete server logs older than this, 0 keeps all")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(context.Background())
	mongodb := &database.MongodbDB{Client: client, DB: client.Database(cfg.DBName)}

	purged, err := token.NewResetTokens(mongodb).PurgeExpired(ctx)
	if err != nil {
		log.Fatalf("Failed to purge reset tokens: %v", err)
	}
	log.Printf("Purged %d expired reset tokens", purged)

	if *logsOlderThan > 0 {
		res, err := mongodb.DB.Collection(database.ServerLogsCollection).DeleteMany(ctx, bson.M{
			"createdAt": bson.M{"$lt": time.Now().UTC().Add(-*logsOlderThan)},
		})
		if err != nil {
			log.Fatalf("Failed to delete server logs: %v", err)
		}
		log.Printf("Deleted %d server logs", res.DeletedCount)
	}

	if *dropLegacy {
		dropLegacyCollections(ctx, mongodb)
	}
	log.Println("Cleanup complete.")
}

func dropLegacyCollections(ctx context.Context, mongodb *database.MongodbDB) {
	applied, err := database.NewMigrationStore(mongodb).AppliedVersions(ctx)
	if err != nil {
		log.Fatalf("Failed to read migrations: %v", err)
	}
	if !applied[database.MergeLegacyRolesVersion] {
		log.Fatal("Legacy collections were not merged yet, run the migrations first")
	}

	collections, err := mongodb.DB.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		log.Fatalf("Failed to list collections: %v", err)
	}
	for _, name := range database.LegacyRoleCollections() {
		if !slices.Contains(collections, name) {
			continue
		}
		if err := mongodb.DB.Collection(name).Drop(ctx); err != nil {
			log.Printf("Failed to drop collection %s: %v", name, err)
			continue
		}
		log.Printf("Dropped %s", name)
	}
}
