// server/internal/database/mongo.go
package database

import (
	"context"
	"fmt"
	"time"

	"blood-donation-api-server/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Connect mở kết nối tới MongoDB và ping để chắc chắn server sống.
func Connect(ctx context.Context, cfg config.MongoConfig) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(cfg.DBName), nil
}

// EnsureIndexes tạo các index cần thiết lúc khởi động.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)

	indexes := []struct {
		collection string
		model      mongo.IndexModel
	}{
		{"users", mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique}},
		{"users", mongo.IndexModel{Keys: bson.D{{Key: "role", Value: 1}}}},
		{"users", mongo.IndexModel{Keys: bson.D{{Key: "bloodType", Value: 1}}}},
		{"blood_banks", mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique}},
		{"requests", mongo.IndexModel{Keys: bson.D{{Key: "status", Value: 1}}}},
		{"requests", mongo.IndexModel{Keys: bson.D{{Key: "hospital", Value: 1}}}},
		{"alerts", mongo.IndexModel{Keys: bson.D{{Key: "bloodType", Value: 1}, {Key: "status", Value: 1}}}},
	}

	for _, idx := range indexes {
		if _, err := db.Collection(idx.collection).Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", idx.collection, err)
		}
	}
	return nil
}
