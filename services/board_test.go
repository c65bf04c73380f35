package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"trello-project/tracking-service/errs"
	"trello-project/tracking-service/models"
	"trello-project/tracking-service/ordering"
)

func TestCreateBoardAppendsOrder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	project := e.createProject(t, ctx, e.member.ID)

	first := e.createBoard(t, ctx, project.ID, "To Do")
	second := e.createBoard(t, ctx, project.ID, "Doing")
	third := e.createBoard(t, ctx, project.ID, "Done")

	assert.Equal(t, 0, first.Order)
	assert.Equal(t, 1, second.Order)
	assert.Equal(t, 2, third.Order)
}

func TestCreateBoardUnderMissingProject(t *testing.T) {
	e := newEnv(t)

	_, err := e.boards.Create(context.Background(), e.manager, primitive.NewObjectID(), "Orphan")
	assert.True(t, errs.IsKind(err, errs.KindInvalidReference))
}

func TestMemberCanCreateBoardOutsiderCannot(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	project := e.createProject(t, ctx, e.member.ID)

	_, err := e.boards.Create(ctx, e.member, project.ID, "Member board")
	assert.NoError(t, err)

	_, err = e.boards.Create(ctx, e.outsider, project.ID, "Intruder board")
	assert.True(t, errs.IsKind(err, errs.KindUnauthorized))
}

func TestReorderBoards(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	project := e.createProject(t, ctx, e.member.ID)
	a := e.createBoard(t, ctx, project.ID, "A")
	b := e.createBoard(t, ctx, project.ID, "B")
	c := e.createBoard(t, ctx, project.ID, "C")

	err := e.boards.Reorder(ctx, e.member, project.ID, []ordering.ItemOrder{
		{ID: c.ID, Order: 0},
		{ID: a.ID, Order: 1},
		{ID: b.ID, Order: 2},
	})
	require.NoError(t, err)

	boards, err := e.store.Boards().FindByProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, boards[0].ID)
	assert.Equal(t, a.ID, boards[1].ID)
	assert.Equal(t, b.ID, boards[2].ID)
}

func TestDeleteBoardCascadesAndCompacts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	project := e.createProject(t, ctx, e.member.ID)
	doomed := e.createBoard(t, ctx, project.ID, "Doomed")
	survivor := e.createBoard(t, ctx, project.ID, "Survivor")
	task := e.createTask(t, ctx, doomed.ID, "Lost work")
	subtask := e.createSubtask(t, ctx, task.ID, "Lost detail")

	require.NoError(t, e.boards.Delete(ctx, e.manager, doomed.ID))

	_, err := e.store.Boards().FindByID(ctx, doomed.ID)
	assert.True(t, errs.IsKind(err, errs.KindNotFound))
	_, err = e.store.Tasks().FindByID(ctx, task.ID)
	assert.True(t, errs.IsKind(err, errs.KindNotFound))
	_, err = e.store.Subtasks().FindByID(ctx, subtask.ID)
	assert.True(t, errs.IsKind(err, errs.KindNotFound))

	boards, err := e.store.Boards().FindByProject(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, boards, 1)
	assert.Equal(t, survivor.ID, boards[0].ID)
	assert.Equal(t, 0, boards[0].Order)

	// The deletion entry hangs off the surviving parent project.
	entries, total, err := e.store.Activities().FindByItem(ctx, models.ItemProject, project.ID, 1, 10)
	require.NoError(t, err)
	require.NotZero(t, total)
	assert.Equal(t, "board_deleted", entries[0].Action)
}

func TestSubtaskLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	project := e.createProject(t, ctx, e.member.ID)
	board := e.createBoard(t, ctx, project.ID, "Backlog")
	task := e.createTask(t, ctx, board.ID, "Parent", e.member.ID)

	first := e.createSubtask(t, ctx, task.ID, "First")
	second := e.createSubtask(t, ctx, task.ID, "Second")
	assert.Equal(t, 0, first.Order)
	assert.Equal(t, 1, second.Order)

	// The task's assignee may complete a subtask.
	completed := true
	got, err := e.subtasks.Update(ctx, e.member, first.ID, UpdateSubtaskInput{IsCompleted: &completed})
	require.NoError(t, err)
	assert.True(t, got.IsCompleted)

	require.NoError(t, e.subtasks.Delete(ctx, e.manager, first.ID))

	remaining, err := e.store.Subtasks().FindByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, second.ID, remaining[0].ID)
	assert.Equal(t, 0, remaining[0].Order)
}

func TestDeleteSubtaskNotifiesAssignees(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	project := e.createProject(t, ctx, e.member.ID)
	board := e.createBoard(t, ctx, project.ID, "Backlog")
	task := e.createTask(t, ctx, board.ID, "Parent", e.member.ID)
	subtask := e.createSubtask(t, ctx, task.ID, "Write changelog")

	require.NoError(t, e.subtasks.Delete(ctx, e.manager, subtask.ID))

	inbox, _, err := e.store.Notifications().FindByRecipient(ctx, e.member.ID.Hex(), 1, 50)
	require.NoError(t, err)
	var sawRemoval bool
	for _, n := range inbox {
		if n.Message == `Subtask "Write changelog" was removed from task "Parent"` {
			sawRemoval = true
		}
	}
	assert.True(t, sawRemoval)
}

func TestActivityTrailForProjectClosure(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	project := e.createProject(t, ctx, e.member.ID)
	board := e.createBoard(t, ctx, project.ID, "Backlog")
	task := e.createTask(t, ctx, board.ID, "Tracked")

	entries, total, err := e.activity.ForProject(ctx, e.member, project.ID, 1, 50)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)

	actions := make(map[string]bool, len(entries))
	for _, entry := range entries {
		actions[entry.Action] = true
	}
	assert.True(t, actions["project_created"])
	assert.True(t, actions["board_created"])
	assert.True(t, actions["task_created"])

	// An outsider cannot read the project's trail.
	_, _, err = e.activity.ForProject(ctx, e.outsider, project.ID, 1, 50)
	assert.True(t, errs.IsKind(err, errs.KindUnauthorized))

	// Item-level reads go through the same resolution.
	itemEntries, _, err := e.activity.ForItem(ctx, e.member, models.ItemTask, task.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, itemEntries, 1)
	assert.Equal(t, "task_created", itemEntries[0].Action)
}
