package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"trello-project/tracking-service/activity"
	"trello-project/tracking-service/auth"
	"trello-project/tracking-service/errs"
	"trello-project/tracking-service/logging"
	"trello-project/tracking-service/models"
	"trello-project/tracking-service/notifications"
	"trello-project/tracking-service/ordering"
	"trello-project/tracking-service/stores"
)

type SubtaskService struct {
	subtasks      stores.SubtaskStore
	notifications stores.NotificationStore
	resolver      *auth.Resolver
	order         *ordering.Manager
	recorder      *activity.Recorder
	fanout        *notifications.Fanout
}

func NewSubtaskService(
	subtasks stores.SubtaskStore,
	notificationStore stores.NotificationStore,
	resolver *auth.Resolver,
	order *ordering.Manager,
	recorder *activity.Recorder,
	fanout *notifications.Fanout,
) *SubtaskService {
	return &SubtaskService{
		subtasks:      subtasks,
		notifications: notificationStore,
		resolver:      resolver,
		order:         order,
		recorder:      recorder,
		fanout:        fanout,
	}
}

type CreateSubtaskInput struct {
	Title    string     `json:"title"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

// Create appends a subtask at the end of the task's checklist.
func (s *SubtaskService) Create(ctx context.Context, actor auth.Actor, taskID primitive.ObjectID, input CreateSubtaskInput) (*models.Subtask, error) {
	res, err := s.resolver.Authorize(ctx, actor, auth.OpCreate, models.ItemSubtask, taskID)
	if err != nil {
		return nil, refError(err)
	}
	if input.Title == "" {
		return nil, errs.ValidationFailed("subtask title is required")
	}
	if input.Deadline != nil && input.Deadline.Before(time.Now()) {
		return nil, errs.ValidationFailed("subtask deadline cannot be in the past")
	}

	now := time.Now()
	subtask := &models.Subtask{
		Title:     input.Title,
		TaskID:    taskID,
		Deadline:  input.Deadline,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.order.Append(ctx, subtaskSiblings{s.subtasks}, taskID, func(order int) error {
		subtask.Order = order
		return s.subtasks.Insert(ctx, subtask)
	})
	if err != nil {
		return nil, err
	}

	item := models.RelatedItem{ItemID: subtask.ID, ItemType: models.ItemSubtask}
	s.recorder.Record(ctx, actor.ID, "subtask_created",
		fmt.Sprintf("Created subtask %q under task %q", subtask.Title, res.Task.Title), item)
	s.fanout.Notify(ctx, withoutActor(res.Task.Assignees, actor.ID), actor.ID,
		fmt.Sprintf("Subtask %q was added to task %q", subtask.Title, res.Task.Title), item)
	return subtask, nil
}

// ListForTask returns the task's subtasks sorted by order.
func (s *SubtaskService) ListForTask(ctx context.Context, actor auth.Actor, taskID primitive.ObjectID) ([]models.Subtask, error) {
	if _, err := s.resolver.Authorize(ctx, actor, auth.OpRead, models.ItemTask, taskID); err != nil {
		return nil, err
	}
	return s.subtasks.FindByTask(ctx, taskID)
}

type UpdateSubtaskInput struct {
	Title       *string    `json:"title,omitempty"`
	IsCompleted *bool      `json:"isCompleted,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
}

func (s *SubtaskService) Update(ctx context.Context, actor auth.Actor, id primitive.ObjectID, input UpdateSubtaskInput) (*models.Subtask, error) {
	res, err := s.resolver.Authorize(ctx, actor, auth.OpUpdate, models.ItemSubtask, id)
	if err != nil {
		return nil, err
	}

	fields := bson.M{}
	if input.Title != nil {
		if *input.Title == "" {
			return nil, errs.ValidationFailed("subtask title cannot be empty")
		}
		fields["title"] = *input.Title
	}
	if input.IsCompleted != nil {
		fields["isCompleted"] = *input.IsCompleted
	}
	if input.Deadline != nil {
		fields["deadline"] = input.Deadline
	}
	if len(fields) == 0 {
		return nil, errs.ValidationFailed("update request contains no fields")
	}
	fields["updatedAt"] = time.Now()

	if err := s.subtasks.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}
	subtask, err := s.subtasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	action := "subtask_updated"
	details := fmt.Sprintf("Updated subtask %q", subtask.Title)
	if input.IsCompleted != nil && *input.IsCompleted {
		action = "subtask_completed"
		details = fmt.Sprintf("Completed subtask %q", subtask.Title)
	}
	item := models.RelatedItem{ItemID: subtask.ID, ItemType: models.ItemSubtask}
	s.recorder.Record(ctx, actor.ID, action, details, item)
	s.fanout.Notify(ctx, withoutActor(res.Task.Assignees, actor.ID), actor.ID,
		fmt.Sprintf("Subtask %q of task %q was updated", subtask.Title, res.Task.Title), item)
	return subtask, nil
}

// Reorder applies a batch of explicit order keys to the task's subtasks.
func (s *SubtaskService) Reorder(ctx context.Context, actor auth.Actor, taskID primitive.ObjectID, orders []ordering.ItemOrder) error {
	res, err := s.resolver.Authorize(ctx, actor, auth.OpReorder, models.ItemSubtask, taskID)
	if err != nil {
		return err
	}
	if err := s.order.ReorderBatch(ctx, subtaskSiblings{s.subtasks}, taskID, orders); err != nil {
		return err
	}

	s.recorder.Record(ctx, actor.ID, "subtasks_reordered",
		fmt.Sprintf("Reordered subtasks of task %q", res.Task.Title),
		models.RelatedItem{ItemID: taskID, ItemType: models.ItemTask})
	return nil
}

// Delete removes the subtask, purges its audit entries and notifications,
// and compacts the surviving checklist. The deletion entry is attached to
// the parent task.
func (s *SubtaskService) Delete(ctx context.Context, actor auth.Actor, id primitive.ObjectID) error {
	res, err := s.resolver.Authorize(ctx, actor, auth.OpDelete, models.ItemSubtask, id)
	if err != nil {
		return err
	}

	if err := s.subtasks.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.order.Compact(ctx, subtaskSiblings{s.subtasks}, res.Subtask.TaskID); err != nil {
		return err
	}

	if err := s.recorder.PurgeForItems(ctx, []primitive.ObjectID{id}); err != nil {
		logging.Logger.Warnf("Failed to purge activity logs for subtask %s: %v", id.Hex(), err)
	}
	if err := s.notifications.DeleteByItemIDs(ctx, []string{id.Hex()}); err != nil {
		logging.Logger.Warnf("Failed to purge notifications for subtask %s: %v", id.Hex(), err)
	}

	item := models.RelatedItem{ItemID: res.Subtask.TaskID, ItemType: models.ItemTask}
	s.recorder.Record(ctx, actor.ID, "subtask_deleted",
		fmt.Sprintf("Deleted subtask %q from task %q", res.Subtask.Title, res.Task.Title), item)
	s.fanout.Notify(ctx, withoutActor(res.Task.Assignees, actor.ID), actor.ID,
		fmt.Sprintf("Subtask %q was removed from task %q", res.Subtask.Title, res.Task.Title), item)
	return nil
}
