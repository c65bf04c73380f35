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

type BoardStore struct {
	collection *mongo.Collection
}

func NewBoardStore(c *Collections) *BoardStore {
	return &BoardStore{collection: c.Boards}
}

func (s *BoardStore) Insert(ctx context.Context, board *models.Board) error {
	if board.ID.IsZero() {
		board.ID = primitive.NewObjectID()
	}
	if _, err := s.collection.InsertOne(ctx, board); err != nil {
		return fmt.Errorf("failed to insert board: %w", err)
	}
	return nil
}

func (s *BoardStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Board, error) {
	var board models.Board
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&board)
	if err != nil {
		if isNoDocuments(err) {
			return nil, errs.NotFound("board %s not found", id.Hex())
		}
		return nil, fmt.Errorf("failed to fetch board: %w", err)
	}
	return &board, nil
}

func (s *BoardStore) FindByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Board, error) {
	cursor, err := s.collection.Find(ctx, bson.M{"projectId": projectID}, options.Find().SetSort(bson.M{"order": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to query boards: %w", err)
	}
	defer cursor.Close(ctx)

	var boards []models.Board
	if err := cursor.All(ctx, &boards); err != nil {
		return nil, fmt.Errorf("failed to decode boards: %w", err)
	}
	return boards, nil
}

func (s *BoardStore) UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update board: %w", err)
	}
	if result.MatchedCount == 0 {
		return errs.NotFound("board %s not found", id.Hex())
	}
	return nil
}

func (s *BoardStore) SetOrder(ctx context.Context, id primitive.ObjectID, order int) error {
	return s.UpdateFields(ctx, id, bson.M{"order": order})
}

func (s *BoardStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
	}
	return nil
}
