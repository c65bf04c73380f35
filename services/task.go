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

type TaskService struct {
	boards        stores.BoardStore
	tasks         stores.TaskStore
	subtasks      stores.SubtaskStore
	notifications stores.NotificationStore
	resolver      *auth.Resolver
	order         *ordering.Manager
	recorder      *activity.Recorder
	fanout        *notifications.Fanout
}

func NewTaskService(
	boards stores.BoardStore,
	tasks stores.TaskStore,
	subtasks stores.SubtaskStore,
	notificationStore stores.NotificationStore,
	resolver *auth.Resolver,
	order *ordering.Manager,
	recorder *activity.Recorder,
	fanout *notifications.Fanout,
) *TaskService {
	return &TaskService{
		boards:        boards,
		tasks:         tasks,
		subtasks:      subtasks,
		notifications: notificationStore,
		resolver:      resolver,
		order:         order,
		recorder:      recorder,
		fanout:        fanout,
	}
}

type CreateTaskInput struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Assignees   []primitive.ObjectID `json:"assignees"`
	Status      models.TaskStatus    `json:"status"`
	Priority    models.TaskPriority  `json:"priority"`
	Deadline    *time.Time           `json:"deadline,omitempty"`
}

// Create appends a task at the end of the board. Assignees must be members
// of the board's project.
func (s *TaskService) Create(ctx context.Context, actor auth.Actor, boardID primitive.ObjectID, input CreateTaskInput) (*models.Task, error) {
	res, err := s.resolver.Authorize(ctx, actor, auth.OpCreate, models.ItemTask, boardID)
	if err != nil {
		return nil, refError(err)
	}
	if input.Title == "" {
		return nil, errs.ValidationFailed("task title is required")
	}
	if input.Status == "" {
		input.Status = models.TaskToDo
	}
	if !input.Status.Valid() {
		return nil, errs.ValidationFailed("unknown task status %q", input.Status)
	}
	if input.Priority == "" {
		input.Priority = models.PriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, errs.ValidationFailed("unknown task priority %q", input.Priority)
	}
	if input.Deadline != nil && input.Deadline.Before(time.Now()) {
		return nil, errs.ValidationFailed("task deadline cannot be in the past")
	}
	for _, assignee := range input.Assignees {
		if !res.Project.HasMember(assignee) {
			return nil, errs.ValidationFailed("assignee %s is not a member of the project", assignee.Hex())
		}
	}

	now := time.Now()
	task := &models.Task{
		Title:       input.Title,
		Description: input.Description,
		BoardID:     boardID,
		Assignees:   input.Assignees,
		Status:      input.Status,
		Priority:    input.Priority,
		Deadline:    input.Deadline,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = s.order.Append(ctx, taskSiblings{s.tasks}, boardID, func(order int) error {
		task.Order = order
		return s.tasks.Insert(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	item := models.RelatedItem{ItemID: task.ID, ItemType: models.ItemTask}
	s.recorder.Record(ctx, actor.ID, "task_created",
		fmt.Sprintf("Created task %q on board %q", task.Title, res.Board.Title), item)
	s.fanout.Notify(ctx, withoutActor(task.Assignees, actor.ID), actor.ID,
		fmt.Sprintf("You have been assigned to task %q", task.Title), item)
	s.fanout.Notify(ctx, notifications.Recipients(res.Project, actor.ID), actor.ID,
		fmt.Sprintf("Task %q was created on board %q", task.Title, res.Board.Title), item)
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, actor auth.Actor, id primitive.ObjectID) (*models.Task, error) {
	res, err := s.resolver.Authorize(ctx, actor, auth.OpRead, models.ItemTask, id)
	if err != nil {
		return nil, err
	}
	return res.Task, nil
}

// ListForBoard returns the board's tasks sorted by order.
func (s *TaskService) ListForBoard(ctx context.Context, actor auth.Actor, boardID primitive.ObjectID) ([]models.Task, error) {
	if _, err := s.resolver.Authorize(ctx, actor, auth.OpRead, models.ItemBoard, boardID); err != nil {
		return nil, err
	}
	return s.tasks.FindByBoard(ctx, boardID)
}

// ListForActor returns the tasks the actor is assigned to, newest first.
func (s *TaskService) ListForActor(ctx context.Context, actor auth.Actor) ([]models.Task, error) {
	return s.tasks.FindByAssignee(ctx, actor.ID)
}

type UpdateTaskInput struct {
	Title       *string               `json:"title,omitempty"`
	Description *string               `json:"description,omitempty"`
	Status      *models.TaskStatus    `json:"status,omitempty"`
	Priority    *models.TaskPriority  `json:"priority,omitempty"`
	Deadline    *time.Time            `json:"deadline,omitempty"`
	Assignees   *[]primitive.ObjectID `json:"assignees,omitempty"`
}

// Update edits a task's fields. Newly added assignees must be project
// members and are notified individually.
func (s *TaskService) Update(ctx context.Context, actor auth.Actor, id primitive.ObjectID, input UpdateTaskInput) (*models.Task, error) {
	res, err := s.resolver.Authorize(ctx, actor, auth.OpUpdate, models.ItemTask, id)
	if err != nil {
		return nil, err
	}

	fields := bson.M{}
	if input.Title != nil {
		if *input.Title == "" {
			return nil, errs.ValidationFailed("task title cannot be empty")
		}
		fields["title"] = *input.Title
	}
	if input.Description != nil {
		fields["description"] = *input.Description
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, errs.ValidationFailed("unknown task status %q", *input.Status)
		}
		fields["status"] = *input.Status
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, errs.ValidationFailed("unknown task priority %q", *input.Priority)
		}
		fields["priority"] = *input.Priority
	}
	if input.Deadline != nil {
		fields["deadline"] = input.Deadline
	}

	var added []primitive.ObjectID
	if input.Assignees != nil {
		for _, assignee := range *input.Assignees {
			if !res.Project.HasMember(assignee) {
				return nil, errs.ValidationFailed("assignee %s is not a member of the project", assignee.Hex())
			}
			if !res.Task.HasAssignee(assignee) {
				added = append(added, assignee)
			}
		}
		fields["assignees"] = *input.Assignees
	}
	if len(fields) == 0 {
		return nil, errs.ValidationFailed("update request contains no fields")
	}
	fields["updatedAt"] = time.Now()

	if err := s.tasks.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	item := models.RelatedItem{ItemID: task.ID, ItemType: models.ItemTask}
	s.recorder.Record(ctx, actor.ID, "task_updated", fmt.Sprintf("Updated task %q", task.Title), item)
	s.fanout.Notify(ctx, withoutActor(added, actor.ID), actor.ID,
		fmt.Sprintf("You have been assigned to task %q", task.Title), item)
	s.fanout.Notify(ctx, notifications.Recipients(res.Project, actor.ID), actor.ID,
		fmt.Sprintf("Task %q was updated", task.Title), item)
	return task, nil
}

// MoveToBoard relocates a task to another board of the same project. The
// task is appended at the destination and the vacated board is compacted.
func (s *TaskService) MoveToBoard(ctx context.Context, actor auth.Actor, taskID, dstBoardID primitive.ObjectID) (*models.Task, error) {
	res, err := s.resolver.Authorize(ctx, actor, auth.OpMove, models.ItemTask, taskID)
	if err != nil {
		return nil, err
	}

	dst, err := s.boards.FindByID(ctx, dstBoardID)
	if err != nil {
		return nil, refError(err)
	}
	if dst.ProjectID != res.Board.ProjectID {
		return nil, errs.InvalidReference("destination board belongs to a different project")
	}
	if dst.ID == res.Board.ID {
		return res.Task, nil
	}

	srcBoardID := res.Task.BoardID
	err = s.order.MoveAcross(ctx, taskSiblings{s.tasks}, srcBoardID, dstBoardID, func(order int) error {
		return s.tasks.SetBoard(ctx, taskID, dstBoardID, order)
	})
	if err != nil {
		return nil, err
	}

	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	item := models.RelatedItem{ItemID: taskID, ItemType: models.ItemTask}
	s.recorder.Record(ctx, actor.ID, "task_moved",
		fmt.Sprintf("Moved task %q from board %q to board %q", task.Title, res.Board.Title, dst.Title), item)
	s.fanout.Notify(ctx, notifications.Recipients(res.Project, actor.ID), actor.ID,
		fmt.Sprintf("Task %q was moved to board %q", task.Title, dst.Title), item)
	return task, nil
}

// MoveToPosition moves a task to the given position within its board.
func (s *TaskService) MoveToPosition(ctx context.Context, actor auth.Actor, taskID primitive.ObjectID, position int) error {
	res, err := s.resolver.Authorize(ctx, actor, auth.OpMove, models.ItemTask, taskID)
	if err != nil {
		return err
	}
	err = s.order.MoveToPosition(ctx, taskSiblings{s.tasks}, res.Task.BoardID, taskID, position)
	if err != nil {
		return err
	}

	s.recorder.Record(ctx, actor.ID, "task_moved",
		fmt.Sprintf("Moved task %q to position %d", res.Task.Title, position),
		models.RelatedItem{ItemID: taskID, ItemType: models.ItemTask})
	return nil
}

// Reorder applies a batch of explicit order keys to the board's tasks.
func (s *TaskService) Reorder(ctx context.Context, actor auth.Actor, boardID primitive.ObjectID, orders []ordering.ItemOrder) error {
	res, err := s.resolver.Authorize(ctx, actor, auth.OpReorder, models.ItemTask, boardID)
	if err != nil {
		return err
	}
	if err := s.order.ReorderBatch(ctx, taskSiblings{s.tasks}, boardID, orders); err != nil {
		return err
	}

	s.recorder.Record(ctx, actor.ID, "tasks_reordered",
		fmt.Sprintf("Reordered tasks on board %q", res.Board.Title),
		models.RelatedItem{ItemID: boardID, ItemType: models.ItemBoard})
	return nil
}

// Delete removes the task and its subtasks, purges their audit entries and
// notifications, and compacts the surviving tasks on the board. The deletion
// entry is attached to the parent board.
func (s *TaskService) Delete(ctx context.Context, actor auth.Actor, id primitive.ObjectID) error {
	res, err := s.resolver.Authorize(ctx, actor, auth.OpDelete, models.ItemTask, id)
	if err != nil {
		return err
	}

	deleted := []primitive.ObjectID{}
	subtasks, err := s.subtasks.FindByTask(ctx, id)
	if err != nil {
		return err
	}
	for _, subtask := range subtasks {
		if err := s.subtasks.Delete(ctx, subtask.ID); err != nil {
			return err
		}
		deleted = append(deleted, subtask.ID)
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return err
	}
	deleted = append(deleted, id)

	if err := s.order.Compact(ctx, taskSiblings{s.tasks}, res.Task.BoardID); err != nil {
		return err
	}

	if err := s.recorder.PurgeForItems(ctx, deleted); err != nil {
		logging.Logger.Warnf("Failed to purge activity logs for task %s: %v", id.Hex(), err)
	}
	if err := s.notifications.DeleteByItemIDs(ctx, hexIDs(deleted)); err != nil {
		logging.Logger.Warnf("Failed to purge notifications for task %s: %v", id.Hex(), err)
	}

	item := models.RelatedItem{ItemID: res.Task.BoardID, ItemType: models.ItemBoard}
	s.recorder.Record(ctx, actor.ID, "task_deleted",
		fmt.Sprintf("Deleted task %q from board %q", res.Task.Title, res.Board.Title), item)
	s.fanout.Notify(ctx, notifications.Recipients(res.Project, actor.ID), actor.ID,
		fmt.Sprintf("Task %q was deleted from board %q", res.Task.Title, res.Board.Title), item)
	return nil
}

func withoutActor(ids []primitive.ObjectID, actorID primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if id != actorID {
			out = append(out, id)
		}
	}
	return out
}
