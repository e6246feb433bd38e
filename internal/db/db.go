package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connect opens the MongoDB connection and verifies it with a ping.
func Connect(ctx context.Context, uri, name string) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client.Database(name), nil
}

// EnsureIndexes creates the indexes the service relies on. Safe to run on
// every startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	type coll struct {
		name    string
		indexes []mongo.IndexModel
	}

	colls := []coll{
		{"groups", []mongo.IndexModel{
			{Keys: bson.D{{Key: "members.userId", Value: 1}}},
		}},
		{"shopping_lists", []mongo.IndexModel{
			// clientId is the offline-sync merge key: one canonical record per id.
			{Keys: bson.D{{Key: "clientId", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
			{Keys: bson.D{{Key: "groupId", Value: 1}}},
		}},
		{"shopping_list_items", []mongo.IndexModel{
			{Keys: bson.D{{Key: "listId", Value: 1}, {Key: "updatedAt", Value: 1}}},
		}},
		{"notes", []mongo.IndexModel{
			{Keys: bson.D{{Key: "groupId", Value: 1}}},
		}},
		{"note_comments", []mongo.IndexModel{
			{Keys: bson.D{{Key: "noteId", Value: 1}, {Key: "createdAt", Value: 1}}},
		}},
		{"polls", []mongo.IndexModel{
			{Keys: bson.D{{Key: "groupId", Value: 1}, {Key: "createdAt", Value: -1}}},
		}},
		{"invites", []mongo.IndexModel{
			{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
			// Mongo removes expired tokens on its own; handlers still check.
			{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		}},
		{"group_invitations", []mongo.IndexModel{
			{
				Keys: bson.D{{Key: "groupId", Value: 1}, {Key: "recipientId", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"status": "pending"}),
			},
		}},
		{"activity_logs", []mongo.IndexModel{
			{Keys: bson.D{{Key: "groupId", Value: 1}, {Key: "createdAt", Value: -1}}},
		}},
		{"notifications", []mongo.IndexModel{
			{Keys: bson.D{{Key: "recipientId", Value: 1}, {Key: "createdAt", Value: -1}}},
		}},
		{"users", []mongo.IndexModel{
			{Keys: bson.D{{Key: "username", Value: 1}}},
		}},
	}

	for _, c := range colls {
		if _, err := db.Collection(c.name).Indexes().CreateMany(ctx, c.indexes); err != nil {
			return fmt.Errorf("ensure indexes on %s: %w", c.name, err)
		}
	}
	return nil
}
