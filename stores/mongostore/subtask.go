package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"trello-project/tracking-service/errs"
	"trello-project/tracking-service/models"
)

type SubtaskStore struct {
	collection *mongo.Collection
}

func NewSubtaskStore(c *Collections) *SubtaskStore {
	return &SubtaskStore{collection: c.Subtasks}
}

func (s *SubtaskStore) Insert(ctx context.Context, subtask *models.Subtask) error {
	if subtask.ID.IsZero() {
		subtask.ID = primitive.NewObjectID()
	}
	if _, err := s.collection.InsertOne(ctx, subtask); err != nil {
		return fmt.Errorf("failed to insert subtask: %w", err)
	}
	return nil
}

func (s *SubtaskStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Subtask, error) {
	var subtask models.Subtask
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&subtask)
	if err != nil {
		if isNoDocuments(err) {
			return nil, errs.NotFound("subtask %s not found", id.Hex())
		}
		return nil, fmt.Errorf("failed to fetch subtask: %w", err)
	}
	return &subtask, nil
}

func (s *SubtaskStore) FindByTask(ctx context.Context, taskID primitive.ObjectID) ([]models.Subtask, error) {
	cursor, err := s.collection.Find(ctx, bson.M{"taskId": taskID}, options.Find().SetSort(bson.M{"order": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to query subtasks: %w", err)
	}
	defer cursor.Close(ctx)

	var subtasks []models.Subtask
	if err := cursor.All(ctx, &subtasks); err != nil {
		return nil, fmt.Errorf("failed to decode subtasks: %w", err)
	}
	return subtasks, nil
}

func (s *SubtaskStore) UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update subtask: %w", err)
	}
	if result.MatchedCount == 0 {
		return errs.NotFound("subtask %s not found", id.Hex())
	}
	return nil
}

func (s *SubtaskStore) SetOrder(ctx context.Context, id primitive.ObjectID, order int) error {
	return s.UpdateFields(ctx, id, bson.M{"order": order})
}

func (s *SubtaskStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete subtask: %w", err)
	}
	return nil
}
