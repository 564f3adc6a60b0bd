package database

import (
	"context"
	"log"
	"time"

	"github.com/kienquocIT/mis-api-sub003/internal/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
)

// MongodbDB wraps the database handle plus the client, which the engine needs
// for multi-document transactions.
type MongodbDB struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// NewDatabase creates a new MongoDB database connection with lifecycle management
func NewDatabase(lc fx.Lifecycle, cfg *config.Config) (*MongodbDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	log.Println("Connected to MongoDB!")

	db := client.Database(cfg.DBName)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return ensureIndexes(ctx, db)
		},
		OnStop: func(ctx context.Context) error {
			log.Println("Disconnecting from MongoDB...")
			return client.Disconnect(ctx)
		},
	})

	return &MongodbDB{Client: client, DB: db}, nil
}

// ensureIndexes declares the lookup paths the engine depends on. The unique
// action tuple backs duplicate detection at the storage layer, under the
// rev-conditioned document writes.
func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("workflow_actions").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "tenant_id", Value: 1},
			{Key: "document_id", Value: 1},
			{Key: "node_id", Value: 1},
			{Key: "action", Value: 1},
			{Key: "actor", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("workflow_collaborators").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "document_id", Value: 1},
			{Key: "node_id", Value: 1},
		},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("documents").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "tenant_id", Value: 1},
			{Key: "app_code", Value: 1},
		},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("workflow_audit").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "document_id", Value: 1},
			{Key: "timestamp", Value: 1},
		},
	})
	return err
}
