package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProjectStatus string

const (
	ProjectPlanning   ProjectStatus = "Planning"
	ProjectInProgress ProjectStatus = "In Progress"
	ProjectOnHold     ProjectStatus = "On Hold"
	ProjectCompleted  ProjectStatus = "Completed"
	ProjectCancelled  ProjectStatus = "Cancelled"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectPlanning, ProjectInProgress, ProjectOnHold, ProjectCompleted, ProjectCancelled:
		return true
	}
	return false
}

type Project struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title       string               `bson:"title" json:"title"`
	Description string               `bson:"description" json:"description"`
	ManagerID   primitive.ObjectID   `bson:"managerId" json:"managerId"`
	Members     []primitive.ObjectID `bson:"members" json:"members"`
	Status      ProjectStatus        `bson:"status" json:"status"`
	Deadline    *time.Time           `bson:"deadline,omitempty" json:"deadline,omitempty"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// HasMember reports whether userID is in the project's member list.
// The manager is always a member, enforced on every write.
func (p *Project) HasMember(userID primitive.ObjectID) bool {
	for _, m := range p.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// EnsureManagerMembership appends the manager to the member list if missing.
func (p *Project) EnsureManagerMembership() {
	if !p.HasMember(p.ManagerID) {
		p.Members = append(p.Members, p.ManagerID)
	}
}
