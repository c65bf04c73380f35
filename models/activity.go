package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ItemType string

const (
	ItemProject ItemType = "Project"
	ItemBoard   ItemType = "Board"
	ItemTask    ItemType = "Task"
	ItemSubtask ItemType = "Subtask"
	ItemUser    ItemType = "User"
)

type RelatedItem struct {
	ItemID   primitive.ObjectID `bson:"itemId" json:"itemId"`
	ItemType ItemType           `bson:"itemType" json:"itemType"`
}

// ActivityLog is an append-only record of who did what to which node.
// Entries are never mutated; they are removed only when the related item
// (or an ancestor of it) is deleted.
type ActivityLog struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	Action      string             `bson:"action" json:"action"`
	Details     string             `bson:"details" json:"details"`
	RelatedItem RelatedItem        `bson:"relatedItem" json:"relatedItem"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
