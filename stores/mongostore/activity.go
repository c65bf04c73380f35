package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"trello-project/tracking-service/models"
)

type ActivityStore struct {
	collection *mongo.Collection
}

func NewActivityStore(c *Collections) *ActivityStore {
	return &ActivityStore{collection: c.Activity}
}

func (s *ActivityStore) Insert(ctx context.Context, entry *models.ActivityLog) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if _, err := s.collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert activity log: %w", err)
	}
	return nil
}

func (s *ActivityStore) FindByUser(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]models.ActivityLog, int64, error) {
	return s.findPage(ctx, bson.M{"userId": userID}, page, limit)
}

func (s *ActivityStore) FindByItem(ctx context.Context, itemType models.ItemType, itemID primitive.ObjectID, page, limit int) ([]models.ActivityLog, int64, error) {
	filter := bson.M{"relatedItem.itemId": itemID, "relatedItem.itemType": itemType}
	return s.findPage(ctx, filter, page, limit)
}

func (s *ActivityStore) FindByItemIDs(ctx context.Context, itemIDs []primitive.ObjectID, page, limit int) ([]models.ActivityLog, int64, error) {
	return s.findPage(ctx, bson.M{"relatedItem.itemId": bson.M{"$in": itemIDs}}, page, limit)
}

func (s *ActivityStore) findPage(ctx context.Context, filter bson.M, page, limit int) ([]models.ActivityLog, int64, error) {
	total, err := s.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count activity logs: %w", err)
	}

	skip, size := skipLimit(page, limit)
	opts := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetSkip(skip).
		SetLimit(size)

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query activity logs: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []models.ActivityLog
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, 0, fmt.Errorf("failed to decode activity logs: %w", err)
	}
	return entries, total, nil
}

func (s *ActivityStore) DeleteByItemIDs(ctx context.Context, itemIDs []primitive.ObjectID) error {
	filter := bson.M{"relatedItem.itemId": bson.M{"$in": itemIDs}}
	if _, err := s.collection.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("failed to delete activity logs: %w", err)
	}
	return nil
}
