package database

import (
	"context"
	"log"
	"time"

	"labhive/internal/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
)

// Collection names shared by repositories and migrations.
const (
	UsersCollection            = "users"
	AdminsCollection           = "user_admins"
	ResetTokensCollection      = "reset_tokens"
	ActivationTokensCollection = "activation_tokens"
	FailedMailsCollection      = "failed_mails"
	MigrationsCollection       = "migrations"
	ServerLogsCollection       = "server_logs"
)

// MongodbDB is the single shared connection of the process.
type MongodbDB struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// NewDatabase creates a new MongoDB database connection with lifecycle management
func NewDatabase(lc fx.Lifecycle, cfg *config.Config) (*MongodbDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Client().ApplyURI(cfg.MongoURI)
	if creds := cfg.Secrets.DB; creds != nil && creds.Username != "" {
		opts.SetAuth(options.Credential{
			Username: creds.Username,
			Password: creds.Password,
		})
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	log.Println("Connected to MongoDB!")

	db := client.Database(cfg.DBName)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Println("Disconnecting from MongoDB...")
			return client.Disconnect(ctx)
		},
	})

	return &MongodbDB{Client: client, DB: db}, nil
}
