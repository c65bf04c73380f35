package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Subtask struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	TaskID      primitive.ObjectID `bson:"taskId" json:"taskId"`
	IsCompleted bool               `bson:"isCompleted" json:"isCompleted"`
	Deadline    *time.Time         `bson:"deadline,omitempty" json:"deadline,omitempty"`
	Order       int                `bson:"order" json:"order"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
