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

type BoardService struct {
	boards        stores.BoardStore
	tasks         stores.TaskStore
	subtasks      stores.SubtaskStore
	notifications stores.NotificationStore
	resolver      *auth.Resolver
	order         *ordering.Manager
	recorder      *activity.Recorder
	fanout        *notifications.Fanout
}

func NewBoardService(
	boards stores.BoardStore,
	tasks stores.TaskStore,
	subtasks stores.SubtaskStore,
	notificationStore stores.NotificationStore,
	resolver *auth.Resolver,
	order *ordering.Manager,
	recorder *activity.Recorder,
	fanout *notifications.Fanout,
) *BoardService {
	return &BoardService{
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

// Create appends a board at the end of the project's board list.
func (s *BoardService) Create(ctx context.Context, actor auth.Actor, projectID primitive.ObjectID, title string) (*models.Board, error) {
	res, err := s.resolver.Authorize(ctx, actor, auth.OpCreate, models.ItemBoard, projectID)
	if err != nil {
		return nil, refError(err)
	}
	if title == "" {
		return nil, errs.ValidationFailed("board title is required")
	}

	now := time.Now()
	board := &models.Board{
		Title:     title,
		ProjectID: projectID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.order.Append(ctx, boardSiblings{s.boards}, projectID, func(order int) error {
		board.Order = order
		return s.boards.Insert(ctx, board)
	})
	if err != nil {
		return nil, err
	}

	item := models.RelatedItem{ItemID: board.ID, ItemType: models.ItemBoard}
	s.recorder.Record(ctx, actor.ID, "board_created",
		fmt.Sprintf("Created board %q in project %q", board.Title, res.Project.Title), item)
	s.fanout.Notify(ctx, notifications.Recipients(res.Project, actor.ID), actor.ID,
		fmt.Sprintf("Board %q was added to project %q", board.Title, res.Project.Title), item)
	return board, nil
}

func (s *BoardService) Get(ctx context.Context, actor auth.Actor, id primitive.ObjectID) (*models.Board, error) {
	res, err := s.resolver.Authorize(ctx, actor, auth.OpRead, models.ItemBoard, id)
	if err != nil {
		return nil, err
	}
	return res.Board, nil
}

// ListForProject returns the project's boards sorted by order.
func (s *BoardService) ListForProject(ctx context.Context, actor auth.Actor, projectID primitive.ObjectID) ([]models.Board, error) {
	if _, err := s.resolver.Authorize(ctx, actor, auth.OpRead, models.ItemProject, projectID); err != nil {
		return nil, err
	}
	return s.boards.FindByProject(ctx, projectID)
}

func (s *BoardService) Update(ctx context.Context, actor auth.Actor, id primitive.ObjectID, title string) (*models.Board, error) {
	res, err := s.resolver.Authorize(ctx, actor, auth.OpUpdate, models.ItemBoard, id)
	if err != nil {
		return nil, err
	}
	if title == "" {
		return nil, errs.ValidationFailed("board title cannot be empty")
	}

	fields := bson.M{"title": title, "updatedAt": time.Now()}
	if err := s.boards.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}
	res.Board.Title = title

	item := models.RelatedItem{ItemID: id, ItemType: models.ItemBoard}
	s.recorder.Record(ctx, actor.ID, "board_updated",
		fmt.Sprintf("Renamed board to %q", title), item)
	s.fanout.Notify(ctx, notifications.Recipients(res.Project, actor.ID), actor.ID,
		fmt.Sprintf("Board %q was updated in project %q", title, res.Project.Title), item)
	return res.Board, nil
}

// Reorder applies a batch of explicit order keys to the project's boards.
func (s *BoardService) Reorder(ctx context.Context, actor auth.Actor, projectID primitive.ObjectID, orders []ordering.ItemOrder) error {
	res, err := s.resolver.Authorize(ctx, actor, auth.OpReorder, models.ItemBoard, projectID)
	if err != nil {
		return err
	}
	if err := s.order.ReorderBatch(ctx, boardSiblings{s.boards}, projectID, orders); err != nil {
		return err
	}

	s.recorder.Record(ctx, actor.ID, "boards_reordered",
		fmt.Sprintf("Reordered boards in project %q", res.Project.Title),
		models.RelatedItem{ItemID: projectID, ItemType: models.ItemProject})
	return nil
}

// Delete removes the board, its tasks and their subtasks, purges audit
// entries and notifications for all removed items, and compacts the orders
// of the surviving boards. The deletion entry is attached to the parent
// project.
func (s *BoardService) Delete(ctx context.Context, actor auth.Actor, id primitive.ObjectID) error {
	res, err := s.resolver.Authorize(ctx, actor, auth.OpDelete, models.ItemBoard, id)
	if err != nil {
		return err
	}

	deleted := []primitive.ObjectID{}
	tasks, err := s.tasks.FindByBoard(ctx, id)
	if err != nil {
		return err
	}
	for _, task := range tasks {
		subtasks, err := s.subtasks.FindByTask(ctx, task.ID)
		if err != nil {
			return err
		}
		for _, subtask := range subtasks {
			if err := s.subtasks.Delete(ctx, subtask.ID); err != nil {
				return err
			}
			deleted = append(deleted, subtask.ID)
		}
		if err := s.tasks.Delete(ctx, task.ID); err != nil {
			return err
		}
		deleted = append(deleted, task.ID)
	}
	if err := s.boards.Delete(ctx, id); err != nil {
		return err
	}
	deleted = append(deleted, id)

	if err := s.order.Compact(ctx, boardSiblings{s.boards}, res.Board.ProjectID); err != nil {
		return err
	}

	if err := s.recorder.PurgeForItems(ctx, deleted); err != nil {
		logging.Logger.Warnf("Failed to purge activity logs for board %s: %v", id.Hex(), err)
	}
	if err := s.notifications.DeleteByItemIDs(ctx, hexIDs(deleted)); err != nil {
		logging.Logger.Warnf("Failed to purge notifications for board %s: %v", id.Hex(), err)
	}

	item := models.RelatedItem{ItemID: res.Board.ProjectID, ItemType: models.ItemProject}
	s.recorder.Record(ctx, actor.ID, "board_deleted",
		fmt.Sprintf("Deleted board %q from project %q", res.Board.Title, res.Project.Title), item)
	s.fanout.Notify(ctx, notifications.Recipients(res.Project, actor.ID), actor.ID,
		fmt.Sprintf("Board %q was deleted from project %q", res.Board.Title, res.Project.Title), item)
	return nil
}
