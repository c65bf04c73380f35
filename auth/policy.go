package auth

import "trello-project/tracking-service/models"

// requirement is the minimum effective role an operation demands. When
// allowAssignee is set, being assigned to the task in the target's chain is
// sufficient even below the minimum role.
type requirement struct {
	min           Role
	allowAssignee bool
}

// policy is the single source of truth for per-operation role requirements.
// Project creation is absent on purpose: it is gated on the caller's global
// role before any node exists.
var policy = map[models.ItemType]map[Operation]requirement{
	models.ItemProject: {
		OpRead:   {min: RoleMember},
		OpUpdate: {min: RoleManager},
		OpDelete: {min: RoleManager},
	},
	models.ItemBoard: {
		OpCreate:  {min: RoleMember},
		OpRead:    {min: RoleMember},
		OpUpdate:  {min: RoleManager},
		OpDelete:  {min: RoleManager},
		OpReorder: {min: RoleMember},
	},
	models.ItemTask: {
		OpCreate:  {min: RoleMember},
		OpRead:    {min: RoleAssignee},
		OpUpdate:  {min: RoleManager, allowAssignee: true},
		OpDelete:  {min: RoleManager, allowAssignee: true},
		OpMove:    {min: RoleMember},
		OpReorder: {min: RoleMember},
	},
	models.ItemSubtask: {
		OpCreate:  {min: RoleMember},
		OpRead:    {min: RoleAssignee},
		OpUpdate:  {min: RoleManager, allowAssignee: true},
		OpDelete:  {min: RoleManager, allowAssignee: true},
		OpReorder: {min: RoleMember},
	},
}
