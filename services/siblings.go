package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"trello-project/tracking-service/ordering"
	"trello-project/tracking-service/stores"
)

// boardSiblings exposes a project's boards to the order manager.
type boardSiblings struct {
	boards stores.BoardStore
}

func (s boardSiblings) ListByParent(ctx context.Context, parentID primitive.ObjectID) ([]ordering.Sibling, error) {
	boards, err := s.boards.FindByProject(ctx, parentID)
	if err != nil {
		return nil, err
	}
	siblings := make([]ordering.Sibling, len(boards))
	for i, board := range boards {
		siblings[i] = ordering.Sibling{ID: board.ID, Order: board.Order}
	}
	return siblings, nil
}

func (s boardSiblings) SetOrder(ctx context.Context, id primitive.ObjectID, order int) error {
	return s.boards.SetOrder(ctx, id, order)
}

// taskSiblings exposes a board's tasks to the order manager.
type taskSiblings struct {
	tasks stores.TaskStore
}

func (s taskSiblings) ListByParent(ctx context.Context, parentID primitive.ObjectID) ([]ordering.Sibling, error) {
	tasks, err := s.tasks.FindByBoard(ctx, parentID)
	if err != nil {
		return nil, err
	}
	siblings := make([]ordering.Sibling, len(tasks))
	for i, task := range tasks {
		siblings[i] = ordering.Sibling{ID: task.ID, Order: task.Order}
	}
	return siblings, nil
}

func (s taskSiblings) SetOrder(ctx context.Context, id primitive.ObjectID, order int) error {
	return s.tasks.SetOrder(ctx, id, order)
}

// subtaskSiblings exposes a task's subtasks to the order manager.
type subtaskSiblings struct {
	subtasks stores.SubtaskStore
}

func (s subtaskSiblings) ListByParent(ctx context.Context, parentID primitive.ObjectID) ([]ordering.Sibling, error) {
	subtasks, err := s.subtasks.FindByTask(ctx, parentID)
	if err != nil {
		return nil, err
	}
	siblings := make([]ordering.Sibling, len(subtasks))
	for i, subtask := range subtasks {
		siblings[i] = ordering.Sibling{ID: subtask.ID, Order: subtask.Order}
	}
	return siblings, nil
}

func (s subtaskSiblings) SetOrder(ctx context.Context, id primitive.ObjectID, order int) error {
	return s.subtasks.SetOrder(ctx, id, order)
}
