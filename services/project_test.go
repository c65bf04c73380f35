package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"trello-project/tracking-service/errs"
	"trello-project/tracking-service/models"
)

func TestCreateProjectManagerBecomesMember(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	project := e.createProject(t, ctx, e.member.ID)

	assert.Equal(t, e.manager.ID, project.ManagerID)
	assert.True(t, project.HasMember(e.manager.ID))
	assert.True(t, project.HasMember(e.member.ID))
	assert.Equal(t, models.ProjectPlanning, project.Status)
}

func TestCreateProjectRequiresManagerRole(t *testing.T) {
	e := newEnv(t)

	_, err := e.projects.Create(context.Background(), e.member, CreateProjectInput{Title: "Nope"})
	assert.True(t, errs.IsKind(err, errs.KindUnauthorized))
}

func TestCreateProjectRejectsUnknownMember(t *testing.T) {
	e := newEnv(t)

	_, err := e.projects.Create(context.Background(), e.manager, CreateProjectInput{
		Title:   "Ghosts",
		Members: []primitive.ObjectID{primitive.NewObjectID()},
	})
	assert.True(t, errs.IsKind(err, errs.KindInvalidReference))
}

func TestAddMemberNotifiesUser(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	project := e.createProject(t, ctx)

	_, err := e.projects.AddMember(ctx, e.manager, project.ID, e.member.ID)
	require.NoError(t, err)

	inbox, total, err := e.store.Notifications().FindByRecipient(ctx, e.member.ID.Hex(), 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Contains(t, inbox[0].Message, "added to project")

	// Adding twice conflicts.
	_, err = e.projects.AddMember(ctx, e.manager, project.ID, e.member.ID)
	assert.True(t, errs.IsKind(err, errs.KindConflict))
}

func TestAddMemberRequiresManager(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	project := e.createProject(t, ctx, e.member.ID)

	_, err := e.projects.AddMember(ctx, e.member, project.ID, e.second.ID)
	assert.True(t, errs.IsKind(err, errs.KindUnauthorized))
}

func TestRemoveMemberWithTaskInProgress(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	project := e.createProject(t, ctx, e.member.ID)
	board := e.createBoard(t, ctx, project.ID, "Doing")
	task := e.createTask(t, ctx, board.ID, "Busy work", e.member.ID)

	status := models.TaskInProgress
	_, err := e.tasks.Update(ctx, e.manager, task.ID, UpdateTaskInput{Status: &status})
	require.NoError(t, err)

	_, err = e.projects.RemoveMember(ctx, e.manager, project.ID, e.member.ID)
	assert.True(t, errs.IsKind(err, errs.KindConflict))

	// Once the task is done the member can leave, and loses the assignment.
	done := models.TaskDone
	_, err = e.tasks.Update(ctx, e.manager, task.ID, UpdateTaskInput{Status: &done})
	require.NoError(t, err)

	updated, err := e.projects.RemoveMember(ctx, e.manager, project.ID, e.member.ID)
	require.NoError(t, err)
	assert.False(t, updated.HasMember(e.member.ID))

	got, err := e.store.Tasks().FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, got.HasAssignee(e.member.ID))
}

func TestRemoveManagerRejected(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	project := e.createProject(t, ctx)

	_, err := e.projects.RemoveMember(ctx, e.manager, project.ID, e.manager.ID)
	assert.True(t, errs.IsKind(err, errs.KindValidationFailed))
}

func TestDeleteProjectCascades(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	project := e.createProject(t, ctx, e.member.ID)
	board := e.createBoard(t, ctx, project.ID, "Backlog")
	task := e.createTask(t, ctx, board.ID, "Ship it", e.member.ID)
	subtask := e.createSubtask(t, ctx, task.ID, "Write docs")

	require.NoError(t, e.projects.Delete(ctx, e.manager, project.ID))

	for _, check := range []func() error{
		func() error { _, err := e.store.Projects().FindByID(ctx, project.ID); return err },
		func() error { _, err := e.store.Boards().FindByID(ctx, board.ID); return err },
		func() error { _, err := e.store.Tasks().FindByID(ctx, task.ID); return err },
		func() error { _, err := e.store.Subtasks().FindByID(ctx, subtask.ID); return err },
	} {
		assert.True(t, errs.IsKind(check(), errs.KindNotFound))
	}

	// No audit entry references a deleted id anymore.
	for _, id := range []primitive.ObjectID{project.ID, board.ID, task.ID, subtask.ID} {
		entries, total, err := e.store.Activities().FindByItemIDs(ctx, []primitive.ObjectID{id}, 1, 50)
		require.NoError(t, err)
		assert.EqualValues(t, 0, total)
		assert.Empty(t, entries)
	}

	// The deletion itself is still on record, attached to the actor.
	entries, total, err := e.store.Activities().FindByUser(ctx, e.manager.ID, 1, 50)
	require.NoError(t, err)
	require.NotZero(t, total)
	assert.Equal(t, "project_deleted", entries[0].Action)
	assert.Equal(t, models.ItemUser, entries[0].RelatedItem.ItemType)

	// Members were told, even though the project rows are gone.
	inbox, _, err := e.store.Notifications().FindByRecipient(ctx, e.member.ID.Hex(), 1, 50)
	require.NoError(t, err)
	var sawDeletion bool
	for _, n := range inbox {
		if n.Message == `Project "Atlas" was deleted` {
			sawDeletion = true
		}
	}
	assert.True(t, sawDeletion)
}

func TestProjectStats(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	project := e.createProject(t, ctx, e.member.ID)
	board := e.createBoard(t, ctx, project.ID, "Backlog")
	other := e.createBoard(t, ctx, project.ID, "Doing")
	e.createTask(t, ctx, board.ID, "One")
	e.createTask(t, ctx, board.ID, "Two")
	task := e.createTask(t, ctx, other.ID, "Three")

	done := models.TaskDone
	_, err := e.tasks.Update(ctx, e.manager, task.ID, UpdateTaskInput{Status: &done})
	require.NoError(t, err)

	stats, err := e.projects.Stats(ctx, e.member, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalBoards)
	assert.Equal(t, 3, stats.TotalTasks)
	assert.Equal(t, 2, stats.ByStatus[models.TaskToDo])
	assert.Equal(t, 1, stats.ByStatus[models.TaskDone])
}

func TestListForActorScopesByMembership(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.createProject(t, ctx, e.member.ID)

	mine, err := e.projects.ListForActor(ctx, e.member)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	none, err := e.projects.ListForActor(ctx, e.outsider)
	require.NoError(t, err)
	assert.Empty(t, none)
}
