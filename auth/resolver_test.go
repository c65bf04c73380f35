package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"trello-project/tracking-service/errs"
	"trello-project/tracking-service/models"
	"trello-project/tracking-service/stores/memstore"
)

type fixture struct {
	resolver *Resolver

	admin    Actor
	manager  Actor
	member   Actor
	assignee Actor
	outsider Actor

	project *models.Project
	board   *models.Board
	task    *models.Task
	subtask *models.Subtask
}

// newFixture builds one project with a board, a task and a subtask. The
// assignee is a project member assigned to the task; the outsider belongs to
// nothing.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()

	f := &fixture{
		admin:    Actor{ID: primitive.NewObjectID(), GlobalRole: models.RoleAdmin},
		manager:  Actor{ID: primitive.NewObjectID(), GlobalRole: models.RoleProjectManager},
		member:   Actor{ID: primitive.NewObjectID(), GlobalRole: models.RoleMember},
		assignee: Actor{ID: primitive.NewObjectID(), GlobalRole: models.RoleMember},
		outsider: Actor{ID: primitive.NewObjectID(), GlobalRole: models.RoleMember},
	}

	f.project = &models.Project{
		Title:     "Atlas",
		ManagerID: f.manager.ID,
		Members:   []primitive.ObjectID{f.manager.ID, f.member.ID, f.assignee.ID},
		Status:    models.ProjectInProgress,
	}
	require.NoError(t, store.Projects().Insert(ctx, f.project))

	f.board = &models.Board{Title: "Backlog", ProjectID: f.project.ID}
	require.NoError(t, store.Boards().Insert(ctx, f.board))

	f.task = &models.Task{
		Title:     "Ship it",
		BoardID:   f.board.ID,
		Assignees: []primitive.ObjectID{f.assignee.ID},
		Status:    models.TaskToDo,
		Priority:  models.PriorityMedium,
	}
	require.NoError(t, store.Tasks().Insert(ctx, f.task))

	f.subtask = &models.Subtask{Title: "Write docs", TaskID: f.task.ID}
	require.NoError(t, store.Subtasks().Insert(ctx, f.subtask))

	f.resolver = NewResolver(store.Projects(), store.Boards(), store.Tasks(), store.Subtasks())
	return f
}

func TestResolveWalksChainToProject(t *testing.T) {
	f := newFixture(t)

	res, err := f.resolver.Resolve(context.Background(), f.member, models.ItemSubtask, f.subtask.ID)
	require.NoError(t, err)

	assert.Equal(t, f.project.ID, res.Project.ID)
	assert.Equal(t, f.board.ID, res.Board.ID)
	assert.Equal(t, f.task.ID, res.Task.ID)
	assert.Equal(t, f.subtask.ID, res.Subtask.ID)
}

func TestResolveRoles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		actor    Actor
		wantRole Role
	}{
		{"admin", f.admin, RoleAdmin},
		{"manager", f.manager, RoleManager},
		{"member", f.member, RoleMember},
		{"assignee member", f.assignee, RoleMember},
		{"outsider", f.outsider, RoleNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := f.resolver.Resolve(ctx, tc.actor, models.ItemTask, f.task.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.wantRole, res.Role)
		})
	}
}

func TestResolveMarksTaskAssignee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.resolver.Resolve(ctx, f.assignee, models.ItemSubtask, f.subtask.ID)
	require.NoError(t, err)
	assert.True(t, res.IsTaskAssignee)

	// The flag never leaks onto nodes outside the task's chain.
	res, err = f.resolver.Resolve(ctx, f.assignee, models.ItemBoard, f.board.ID)
	require.NoError(t, err)
	assert.False(t, res.IsTaskAssignee)
}

func TestAssigneeOutsideMembershipGetsAssigneeRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// An assignee who was never added as a member still resolves above None
	// on their own task.
	store := memstore.New()
	ghost := Actor{ID: primitive.NewObjectID(), GlobalRole: models.RoleMember}
	project := &models.Project{Title: "Solo", ManagerID: f.manager.ID, Members: []primitive.ObjectID{f.manager.ID}}
	require.NoError(t, store.Projects().Insert(ctx, project))
	board := &models.Board{Title: "Only", ProjectID: project.ID}
	require.NoError(t, store.Boards().Insert(ctx, board))
	task := &models.Task{Title: "Orphaned", BoardID: board.ID, Assignees: []primitive.ObjectID{ghost.ID}}
	require.NoError(t, store.Tasks().Insert(ctx, task))

	resolver := NewResolver(store.Projects(), store.Boards(), store.Tasks(), store.Subtasks())
	res, err := resolver.Resolve(ctx, ghost, models.ItemTask, task.ID)
	require.NoError(t, err)
	assert.Equal(t, RoleAssignee, res.Role)
	assert.True(t, res.IsTaskAssignee)
}

func TestAuthorizePolicy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		actor    Actor
		op       Operation
		itemType models.ItemType
		id       int
		allowed  bool
	}{
		{"member reads task", f.member, OpRead, models.ItemTask, 0, true},
		{"member creates task", f.member, OpCreate, models.ItemTask, 1, true},
		{"member cannot update task", f.member, OpUpdate, models.ItemTask, 0, false},
		{"assignee updates own task", f.assignee, OpUpdate, models.ItemTask, 0, true},
		{"assignee deletes own task", f.assignee, OpDelete, models.ItemTask, 0, true},
		{"manager updates task", f.manager, OpUpdate, models.ItemTask, 0, true},
		{"member moves task", f.member, OpMove, models.ItemTask, 0, true},
		{"outsider reads task", f.outsider, OpRead, models.ItemTask, 0, false},
		{"member cannot delete project", f.member, OpDelete, models.ItemProject, 2, false},
		{"manager deletes project", f.manager, OpDelete, models.ItemProject, 2, true},
		{"admin deletes project", f.admin, OpDelete, models.ItemProject, 2, true},
		{"member reorders boards", f.member, OpReorder, models.ItemBoard, 2, true},
		{"outsider cannot reorder boards", f.outsider, OpReorder, models.ItemBoard, 2, false},
	}

	ids := []primitive.ObjectID{f.task.ID, f.board.ID, f.project.ID}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.resolver.Authorize(ctx, tc.actor, tc.op, tc.itemType, ids[tc.id])
			if tc.allowed {
				assert.NoError(t, err)
			} else {
				assert.True(t, errs.IsKind(err, errs.KindUnauthorized), "got %v", err)
			}
		})
	}
}

func TestAuthorizeCreateResolvesParent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Creating a board is authorized against the project it lands in.
	_, err := f.resolver.Authorize(ctx, f.member, OpCreate, models.ItemBoard, f.project.ID)
	assert.NoError(t, err)

	// A nonexistent parent surfaces as a missing document.
	_, err = f.resolver.Authorize(ctx, f.member, OpCreate, models.ItemBoard, primitive.NewObjectID())
	assert.True(t, errs.IsKind(err, errs.KindNotFound))
}

func TestResolveUnknownItemType(t *testing.T) {
	f := newFixture(t)

	_, err := f.resolver.Resolve(context.Background(), f.member, models.ItemType("Gadget"), f.task.ID)
	assert.True(t, errs.IsKind(err, errs.KindValidationFailed))
}
