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

type TaskStore struct {
	collection *mongo.Collection
}

func NewTaskStore(c *Collections) *TaskStore {
	return &TaskStore{collection: c.Tasks}
}

func (s *TaskStore) Insert(ctx context.Context, task *models.Task) error {
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	if _, err := s.collection.InsertOne(ctx, task); err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

func (s *TaskStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	var task models.Task
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&task)
	if err != nil {
		if isNoDocuments(err) {
			return nil, errs.NotFound("task %s not found", id.Hex())
		}
		return nil, fmt.Errorf("failed to fetch task: %w", err)
	}
	return &task, nil
}

func (s *TaskStore) FindByBoard(ctx context.Context, boardID primitive.ObjectID) ([]models.Task, error) {
	return s.findMany(ctx, bson.M{"boardId": boardID}, options.Find().SetSort(bson.M{"order": 1}))
}

func (s *TaskStore) FindByAssignee(ctx context.Context, userID primitive.ObjectID) ([]models.Task, error) {
	return s.findMany(ctx, bson.M{"assignees": userID}, options.Find().SetSort(bson.M{"createdAt": -1}))
}

func (s *TaskStore) findMany(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Task, error) {
	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskStore) UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if result.MatchedCount == 0 {
		return errs.NotFound("task %s not found", id.Hex())
	}
	return nil
}

func (s *TaskStore) SetOrder(ctx context.Context, id primitive.ObjectID, order int) error {
	return s.UpdateFields(ctx, id, bson.M{"order": order})
}

func (s *TaskStore) SetBoard(ctx context.Context, id, boardID primitive.ObjectID, order int) error {
	return s.UpdateFields(ctx, id, bson.M{"boardId": boardID, "order": order})
}

func (s *TaskStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

func (s *TaskStore) CountByStatus(ctx context.Context, boardIDs []primitive.ObjectID) (map[models.TaskStatus]int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"boardId": bson.M{"$in": boardIDs}}}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate task counts: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status models.TaskStatus `bson:"_id"`
		Count  int               `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode task counts: %w", err)
	}

	counts := make(map[models.TaskStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (s *TaskStore) HasAssignedWithStatus(ctx context.Context, boardIDs []primitive.ObjectID, userID primitive.ObjectID, status models.TaskStatus) (bool, error) {
	filter := bson.M{
		"boardId":   bson.M{"$in": boardIDs},
		"status":    status,
		"assignees": userID,
	}
	count, err := s.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check task assignments: %w", err)
	}
	return count > 0, nil
}
