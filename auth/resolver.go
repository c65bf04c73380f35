// Package auth resolves a caller's effective permission on any node of the
// Project -> Board -> Task -> Subtask tree. Every mutating code path goes
// through one resolver and one policy table instead of per-handler role
// checks.
package auth

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"trello-project/tracking-service/errs"
	"trello-project/tracking-service/models"
	"trello-project/tracking-service/stores"
)

// Actor is the authenticated caller, as established by the token middleware.
type Actor struct {
	ID         primitive.ObjectID
	GlobalRole models.GlobalRole
}

// Role is the effective permission level on a specific node. The values form
// a ladder; Assignee sits below Member because it only grants rights on one
// task and its subtasks.
type Role int

const (
	RoleNone Role = iota
	RoleAssignee
	RoleMember
	RoleManager
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleAssignee:
		return "Assignee"
	case RoleMember:
		return "Member"
	case RoleManager:
		return "Manager"
	case RoleAdmin:
		return "Admin"
	default:
		return "None"
	}
}

type Operation string

const (
	OpCreate  Operation = "create"
	OpRead    Operation = "read"
	OpUpdate  Operation = "update"
	OpDelete  Operation = "delete"
	OpMove    Operation = "move"
	OpReorder Operation = "reorder"
)

// Resolution is the outcome of walking a node's parent chain to its project.
// The traversed nodes are kept so callers do not refetch them.
type Resolution struct {
	Role Role
	// IsTaskAssignee is set when the walk passed through a task the actor is
	// assigned to. It upgrades update/delete rights on that task and its
	// subtasks regardless of the ladder role.
	IsTaskAssignee bool
	Project        *models.Project
	Board          *models.Board
	Task           *models.Task
	Subtask        *models.Subtask
}

type Resolver struct {
	projects stores.ProjectStore
	boards   stores.BoardStore
	tasks    stores.TaskStore
	subtasks stores.SubtaskStore
}

func NewResolver(projects stores.ProjectStore, boards stores.BoardStore, tasks stores.TaskStore, subtasks stores.SubtaskStore) *Resolver {
	return &Resolver{
		projects: projects,
		boards:   boards,
		tasks:    tasks,
		subtasks: subtasks,
	}
}

// Resolve walks from the target node up to its root project and computes the
// actor's effective role there.
func (r *Resolver) Resolve(ctx context.Context, actor Actor, itemType models.ItemType, id primitive.ObjectID) (*Resolution, error) {
	res := &Resolution{}

	switch itemType {
	case models.ItemProject, models.ItemBoard, models.ItemTask, models.ItemSubtask:
	default:
		return nil, errs.ValidationFailed("unknown item type %q", itemType)
	}

	var err error
	cur := id
	if itemType == models.ItemSubtask {
		if res.Subtask, err = r.subtasks.FindByID(ctx, cur); err != nil {
			return nil, err
		}
		cur = res.Subtask.TaskID
	}
	if itemType == models.ItemSubtask || itemType == models.ItemTask {
		if res.Task, err = r.tasks.FindByID(ctx, cur); err != nil {
			return nil, err
		}
		cur = res.Task.BoardID
	}
	if itemType != models.ItemProject {
		if res.Board, err = r.boards.FindByID(ctx, cur); err != nil {
			return nil, err
		}
		cur = res.Board.ProjectID
	}
	if res.Project, err = r.projects.FindByID(ctx, cur); err != nil {
		return nil, err
	}

	isAssignee := res.Task != nil && res.Task.HasAssignee(actor.ID)

	switch {
	case actor.GlobalRole == models.RoleAdmin:
		res.Role = RoleAdmin
	case res.Project.ManagerID == actor.ID:
		res.Role = RoleManager
	case res.Project.HasMember(actor.ID):
		res.Role = RoleMember
		res.IsTaskAssignee = isAssignee
	case isAssignee:
		res.Role = RoleAssignee
		res.IsTaskAssignee = true
	default:
		res.Role = RoleNone
	}

	return res, nil
}

// Authorize resolves the actor against the node and checks the policy table
// for the operation. For OpCreate and OpReorder the node does not exist yet
// (or the operation targets the whole sibling collection), so id names the
// PARENT node and the walk starts there.
func (r *Resolver) Authorize(ctx context.Context, actor Actor, op Operation, itemType models.ItemType, id primitive.ObjectID) (*Resolution, error) {
	resolveType := itemType
	if op == OpCreate || op == OpReorder {
		resolveType = parentTypeOf(itemType)
		if resolveType == "" {
			return nil, errs.ValidationFailed("operation %s is not parent-scoped for %s", op, itemType)
		}
	}

	res, err := r.Resolve(ctx, actor, resolveType, id)
	if err != nil {
		return nil, err
	}

	req, ok := policy[itemType][op]
	if !ok {
		return nil, errs.Unauthorized("operation %s is not permitted on %s", op, itemType)
	}

	if res.Role >= req.min || (req.allowAssignee && res.IsTaskAssignee) {
		return res, nil
	}
	return nil, errs.Unauthorized("not allowed to %s this %s", op, itemType)
}

func parentTypeOf(itemType models.ItemType) models.ItemType {
	switch itemType {
	case models.ItemBoard:
		return models.ItemProject
	case models.ItemTask:
		return models.ItemBoard
	case models.ItemSubtask:
		return models.ItemTask
	default:
		return ""
	}
}
