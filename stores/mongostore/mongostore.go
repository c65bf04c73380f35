// Package mongostore implements the store contracts on MongoDB collections.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collections groups the entity collections of the tracking database.
type Collections struct {
	Projects *mongo.Collection
	Boards   *mongo.Collection
	Tasks    *mongo.Collection
	Subtasks *mongo.Collection
	Users    *mongo.Collection
	Activity *mongo.Collection
}

// NewCollections binds the standard collection names on the given database.
func NewCollections(db *mongo.Database) *Collections {
	return &Collections{
		Projects: db.Collection("projects"),
		Boards:   db.Collection("boards"),
		Tasks:    db.Collection("tasks"),
		Subtasks: db.Collection("subtasks"),
		Users:    db.Collection("users"),
		Activity: db.Collection("activity_logs"),
	}
}

// EnsureIndexes creates the indexes the stores rely on: unique user emails,
// parent-scoped order sorts and activity log lookups.
func (c *Collections) EnsureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{c.Users, mongo.IndexModel{Keys: bson.M{"email": 1}, Options: options.Index().SetUnique(true)}},
		{c.Boards, mongo.IndexModel{Keys: bson.D{{Key: "projectId", Value: 1}, {Key: "order", Value: 1}}}},
		{c.Tasks, mongo.IndexModel{Keys: bson.D{{Key: "boardId", Value: 1}, {Key: "order", Value: 1}}}},
		{c.Subtasks, mongo.IndexModel{Keys: bson.D{{Key: "taskId", Value: 1}, {Key: "order", Value: 1}}}},
		{c.Activity, mongo.IndexModel{Keys: bson.D{{Key: "relatedItem.itemId", Value: 1}, {Key: "createdAt", Value: -1}}}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

func skipLimit(page, limit int) (int64, int64) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	return int64((page - 1) * limit), int64(limit)
}
