package services

import (
	"context"

	"trello-project/tracking-service/auth"
	"trello-project/tracking-service/models"
	"trello-project/tracking-service/stores"
)

// NotificationService scopes every read and write to the actor's own inbox;
// a recipient can never touch another user's notifications.
type NotificationService struct {
	store stores.NotificationStore
}

func NewNotificationService(store stores.NotificationStore) *NotificationService {
	return &NotificationService{store: store}
}

func (s *NotificationService) List(ctx context.Context, actor auth.Actor, page, limit int) ([]models.Notification, int64, error) {
	return s.store.FindByRecipient(ctx, actor.ID.Hex(), page, limit)
}

func (s *NotificationService) UnreadCount(ctx context.Context, actor auth.Actor) (int64, error) {
	return s.store.UnreadCount(ctx, actor.ID.Hex())
}

func (s *NotificationService) MarkRead(ctx context.Context, actor auth.Actor, id string) error {
	return s.store.MarkRead(ctx, actor.ID.Hex(), id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, actor auth.Actor) error {
	return s.store.MarkAllRead(ctx, actor.ID.Hex())
}

func (s *NotificationService) Delete(ctx context.Context, actor auth.Actor, id string) error {
	return s.store.Delete(ctx, actor.ID.Hex(), id)
}
