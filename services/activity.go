package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"trello-project/tracking-service/activity"
	"trello-project/tracking-service/auth"
	"trello-project/tracking-service/errs"
	"trello-project/tracking-service/models"
)

// ActivityService guards audit trail reads behind the same permission
// resolution as the items they describe.
type ActivityService struct {
	resolver *auth.Resolver
	recorder *activity.Recorder
}

func NewActivityService(resolver *auth.Resolver, recorder *activity.Recorder) *ActivityService {
	return &ActivityService{resolver: resolver, recorder: recorder}
}

// ForItem returns the trail of one item; the actor needs read permission on
// it.
func (s *ActivityService) ForItem(ctx context.Context, actor auth.Actor, itemType models.ItemType, itemID primitive.ObjectID, page, limit int) ([]models.ActivityLog, int64, error) {
	if _, err := s.resolver.Authorize(ctx, actor, auth.OpRead, itemType, itemID); err != nil {
		return nil, 0, err
	}
	return s.recorder.ForItem(ctx, itemType, itemID, page, limit)
}

// ForProject returns the combined trail of a project and all of its
// descendants.
func (s *ActivityService) ForProject(ctx context.Context, actor auth.Actor, projectID primitive.ObjectID, page, limit int) ([]models.ActivityLog, int64, error) {
	if _, err := s.resolver.Authorize(ctx, actor, auth.OpRead, models.ItemProject, projectID); err != nil {
		return nil, 0, err
	}
	return s.recorder.ForProject(ctx, projectID, page, limit)
}

// ForUser returns the actions a user performed. Only the user themselves or
// an admin may read it.
func (s *ActivityService) ForUser(ctx context.Context, actor auth.Actor, userID primitive.ObjectID, page, limit int) ([]models.ActivityLog, int64, error) {
	if actor.ID != userID && actor.GlobalRole != models.RoleAdmin {
		return nil, 0, errs.Unauthorized("not allowed to read this user's activity")
	}
	return s.recorder.ForUser(ctx, userID, page, limit)
}
