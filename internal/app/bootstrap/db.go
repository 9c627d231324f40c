// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/hiveflow/hiveflow/internal/app/store/blob"
	"github.com/hiveflow/hiveflow/internal/app/store/docstore"
	"github.com/hiveflow/hiveflow/internal/app/system/timeouts"
)

// ConnectDB builds the storage backends: the document store (Mongo or
// in-memory) and the local blob store for uploads.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	var deps DBDeps

	blobs, err := blob.NewLocal(appCfg.StorageLocalPath)
	if err != nil {
		return DBDeps{}, fmt.Errorf("init blob storage at %q: %w", appCfg.StorageLocalPath, err)
	}
	deps.Blobs = blobs

	if appCfg.StoreBackend == "memory" {
		deps.Docs = docstore.NewMemory()
		return deps, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)
	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("ping MongoDB: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	deps.MongoClient = client
	deps.Docs = docstore.NewMongo(client.Database(appCfg.MongoDatabase))
	return deps, nil
}

// EnsureSchema creates the indexes the resolver and feature queries
// depend on. It is safe to run on every startup.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.MongoClient == nil {
		return nil
	}
	db := deps.MongoClient.Database(appCfg.MongoDatabase)

	indexes := map[string][]mongo.IndexModel{
		docstore.Members: {
			{Keys: bson.D{{Key: "data.authUserId", Value: 1}}},
			{Keys: bson.D{{Key: "data.email", Value: 1}}},
			{Keys: bson.D{{Key: "data.ownerId", Value: 1}}},
		},
		docstore.Announcements: {
			{Keys: bson.D{{Key: "data.ownerId", Value: 1}}},
		},
		docstore.Events: {
			{Keys: bson.D{{Key: "data.ownerId", Value: 1}}},
		},
		docstore.Comments: {
			{Keys: bson.D{{Key: "data.eventId", Value: 1}}},
		},
		docstore.Reactions: {
			{Keys: bson.D{{Key: "data.eventId", Value: 1}, {Key: "data.userId", Value: 1}}},
		},
		docstore.Workspaces: {
			{Keys: bson.D{{Key: "data.workspaceId", Value: 1}}},
		},
		docstore.Messages: {
			{Keys: bson.D{{Key: "data.ownerId", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		docstore.Notifications: {
			{Keys: bson.D{{Key: "data.recipientId", Value: 1}}},
		},
		docstore.Files: {
			{Keys: bson.D{{Key: "data.ownerId", Value: 1}}},
		},
		docstore.OAuthStates: {
			{Keys: bson.D{{Key: "data.state", Value: 1}}},
		},
	}
	for collection, models := range indexes {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", collection, err)
		}
	}
	logger.Info("ensured store indexes")
	return nil
}
