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

type ProjectStore struct {
	collection *mongo.Collection
}

func NewProjectStore(c *Collections) *ProjectStore {
	return &ProjectStore{collection: c.Projects}
}

func (s *ProjectStore) Insert(ctx context.Context, project *models.Project) error {
	if project.ID.IsZero() {
		project.ID = primitive.NewObjectID()
	}
	if _, err := s.collection.InsertOne(ctx, project); err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	return nil
}

func (s *ProjectStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var project models.Project
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&project)
	if err != nil {
		if isNoDocuments(err) {
			return nil, errs.NotFound("project %s not found", id.Hex())
		}
		return nil, fmt.Errorf("failed to fetch project: %w", err)
	}
	return &project, nil
}

func (s *ProjectStore) FindByMember(ctx context.Context, userID primitive.ObjectID) ([]models.Project, error) {
	return s.findMany(ctx, bson.M{"members": userID})
}

func (s *ProjectStore) FindAll(ctx context.Context) ([]models.Project, error) {
	return s.findMany(ctx, bson.M{})
}

func (s *ProjectStore) findMany(ctx context.Context, filter bson.M) ([]models.Project, error) {
	cursor, err := s.collection.Find(ctx, filter, options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer cursor.Close(ctx)

	var projects []models.Project
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %w", err)
	}
	return projects, nil
}

func (s *ProjectStore) UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if result.MatchedCount == 0 {
		return errs.NotFound("project %s not found", id.Hex())
	}
	return nil
}

func (s *ProjectStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}
