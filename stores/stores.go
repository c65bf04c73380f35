// Package stores defines the persistence contracts for the hierarchy
// collections. Production implementations live in mongostore (entities,
// activity logs) and notifications (Cassandra rows); memstore mirrors the
// same behavior in memory for tests.
//
// Lookups for missing documents return an errs.NotFound error so callers can
// branch on the kind instead of driver sentinels.
package stores

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"trello-project/tracking-service/models"
)

type ProjectStore interface {
	Insert(ctx context.Context, project *models.Project) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error)
	FindByMember(ctx context.Context, userID primitive.ObjectID) ([]models.Project, error)
	FindAll(ctx context.Context) ([]models.Project, error)
	UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type BoardStore interface {
	Insert(ctx context.Context, board *models.Board) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Board, error)
	// FindByProject returns the project's boards sorted by order ascending.
	FindByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Board, error)
	UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error
	SetOrder(ctx context.Context, id primitive.ObjectID, order int) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type TaskStore interface {
	Insert(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	// FindByBoard returns the board's tasks sorted by order ascending.
	FindByBoard(ctx context.Context, boardID primitive.ObjectID) ([]models.Task, error)
	FindByAssignee(ctx context.Context, userID primitive.ObjectID) ([]models.Task, error)
	UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error
	SetOrder(ctx context.Context, id primitive.ObjectID, order int) error
	// SetBoard re-parents a task and assigns its order under the new board.
	SetBoard(ctx context.Context, id, boardID primitive.ObjectID, order int) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	CountByStatus(ctx context.Context, boardIDs []primitive.ObjectID) (map[models.TaskStatus]int, error)
	// HasAssignedWithStatus reports whether userID is assigned to any task
	// with the given status on one of the boards.
	HasAssignedWithStatus(ctx context.Context, boardIDs []primitive.ObjectID, userID primitive.ObjectID, status models.TaskStatus) (bool, error)
}

type SubtaskStore interface {
	Insert(ctx context.Context, subtask *models.Subtask) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Subtask, error)
	// FindByTask returns the task's subtasks sorted by order ascending.
	FindByTask(ctx context.Context, taskID primitive.ObjectID) ([]models.Subtask, error)
	UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error
	SetOrder(ctx context.Context, id primitive.ObjectID, order int) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type UserStore interface {
	Insert(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindAll(ctx context.Context) ([]models.User, error)
}

// ActivityStore reads are paginated and sorted by createdAt descending.
type ActivityStore interface {
	Insert(ctx context.Context, entry *models.ActivityLog) error
	FindByUser(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]models.ActivityLog, int64, error)
	FindByItem(ctx context.Context, itemType models.ItemType, itemID primitive.ObjectID, page, limit int) ([]models.ActivityLog, int64, error)
	FindByItemIDs(ctx context.Context, itemIDs []primitive.ObjectID, page, limit int) ([]models.ActivityLog, int64, error)
	DeleteByItemIDs(ctx context.Context, itemIDs []primitive.ObjectID) error
}

// NotificationStore reads are scoped to a single recipient and sorted by
// createdAt descending.
type NotificationStore interface {
	Insert(ctx context.Context, notification *models.Notification) error
	FindByRecipient(ctx context.Context, recipient string, page, limit int) ([]models.Notification, int64, error)
	UnreadCount(ctx context.Context, recipient string) (int64, error)
	MarkRead(ctx context.Context, recipient, id string) error
	MarkAllRead(ctx context.Context, recipient string) error
	Delete(ctx context.Context, recipient, id string) error
	DeleteByItemIDs(ctx context.Context, itemIDs []string) error
}
