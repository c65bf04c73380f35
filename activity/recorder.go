// Package activity records and queries the audit trail of hierarchy
// mutations. Recording is best-effort: a failed write is logged and never
// fails the mutation that produced it.
package activity

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"trello-project/tracking-service/errs"
	"trello-project/tracking-service/logging"
	"trello-project/tracking-service/models"
	"trello-project/tracking-service/stores"
)

type Recorder struct {
	store    stores.ActivityStore
	boards   stores.BoardStore
	tasks    stores.TaskStore
	subtasks stores.SubtaskStore
}

func NewRecorder(store stores.ActivityStore, boards stores.BoardStore, tasks stores.TaskStore, subtasks stores.SubtaskStore) *Recorder {
	return &Recorder{store: store, boards: boards, tasks: tasks, subtasks: subtasks}
}

// Record appends an audit entry for an action the actor performed on an item.
func (r *Recorder) Record(ctx context.Context, actorID primitive.ObjectID, action, details string, item models.RelatedItem) {
	entry := &models.ActivityLog{
		UserID:      actorID,
		Action:      action,
		Details:     details,
		RelatedItem: item,
		CreatedAt:   time.Now(),
	}
	if err := r.store.Insert(ctx, entry); err != nil {
		logging.Logger.Warnf("Failed to record activity %q for item %s: %v", action, item.ItemID.Hex(), err)
	}
}

func (r *Recorder) ForUser(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]models.ActivityLog, int64, error) {
	return r.store.FindByUser(ctx, userID, page, limit)
}

func (r *Recorder) ForItem(ctx context.Context, itemType models.ItemType, itemID primitive.ObjectID, page, limit int) ([]models.ActivityLog, int64, error) {
	return r.store.FindByItem(ctx, itemType, itemID, page, limit)
}

// ForProject returns the combined trail of a project and everything under it:
// its boards, their tasks and their subtasks.
func (r *Recorder) ForProject(ctx context.Context, projectID primitive.ObjectID, page, limit int) ([]models.ActivityLog, int64, error) {
	ids, err := r.ProjectClosure(ctx, projectID)
	if err != nil {
		return nil, 0, err
	}
	return r.store.FindByItemIDs(ctx, ids, page, limit)
}

// ProjectClosure collects the ids of a project and all of its descendants.
func (r *Recorder) ProjectClosure(ctx context.Context, projectID primitive.ObjectID) ([]primitive.ObjectID, error) {
	ids := []primitive.ObjectID{projectID}

	boards, err := r.boards.FindByProject(ctx, projectID)
	if err != nil {
		return nil, errs.Internal(err, "failed to collect boards for project %s", projectID.Hex())
	}
	for _, board := range boards {
		ids = append(ids, board.ID)
		tasks, err := r.tasks.FindByBoard(ctx, board.ID)
		if err != nil {
			return nil, errs.Internal(err, "failed to collect tasks for board %s", board.ID.Hex())
		}
		for _, task := range tasks {
			ids = append(ids, task.ID)
			subtasks, err := r.subtasks.FindByTask(ctx, task.ID)
			if err != nil {
				return nil, errs.Internal(err, "failed to collect subtasks for task %s", task.ID.Hex())
			}
			for _, subtask := range subtasks {
				ids = append(ids, subtask.ID)
			}
		}
	}
	return ids, nil
}

// PurgeForItems removes all audit entries attached to the given items. Used
// by cascading deletes so no entry outlives the item it references.
func (r *Recorder) PurgeForItems(ctx context.Context, itemIDs []primitive.ObjectID) error {
	if len(itemIDs) == 0 {
		return nil
	}
	return r.store.DeleteByItemIDs(ctx, itemIDs)
}
