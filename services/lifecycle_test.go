package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trello-project/tracking-service/errs"
	"trello-project/tracking-service/models"
)

// Walks one project from creation through a cross-board move: membership,
// ordering, notifications, the audit trail and permission checks all in a
// single sequence.
func TestProjectLaunchScenario(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	project, err := e.projects.Create(ctx, e.manager, CreateProjectInput{Title: "Launch"})
	require.NoError(t, err)
	require.True(t, project.HasMember(e.manager.ID))

	// The new member shows up on the project and gets exactly one inbox row.
	project, err = e.projects.AddMember(ctx, e.manager, project.ID, e.member.ID)
	require.NoError(t, err)
	assert.True(t, project.HasMember(e.member.ID))

	inbox, total, err := e.store.Notifications().FindByRecipient(ctx, e.member.ID.Hex(), 1, 20)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Contains(t, inbox[0].Message, "added to project")

	backlog := e.createBoard(t, ctx, project.ID, "Backlog")
	sprint := e.createBoard(t, ctx, project.ID, "Sprint1")
	assert.Equal(t, 0, backlog.Order)
	assert.Equal(t, 1, sprint.Order)

	t1 := e.createTask(t, ctx, backlog.ID, "T1", e.member.ID)
	t2 := e.createTask(t, ctx, backlog.ID, "T2")
	assert.Equal(t, 0, t1.Order)
	assert.Equal(t, 1, t2.Order)

	inbox, _, err = e.store.Notifications().FindByRecipient(ctx, e.member.ID.Hex(), 1, 50)
	require.NoError(t, err)
	var assigned bool
	for _, n := range inbox {
		if n.Message == `You have been assigned to task "T1"` {
			assigned = true
		}
	}
	assert.True(t, assigned)

	// Move T1 to Sprint1: appended there, Backlog renumbers from 0.
	moved, err := e.tasks.MoveToBoard(ctx, e.manager, t1.ID, sprint.ID)
	require.NoError(t, err)
	assert.Equal(t, sprint.ID, moved.BoardID)
	assert.Equal(t, 0, moved.Order)

	remaining, err := e.store.Tasks().FindByBoard(ctx, backlog.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, t2.ID, remaining[0].ID)
	assert.Equal(t, 0, remaining[0].Order)

	entries, _, err := e.store.Activities().FindByItem(ctx, models.ItemTask, t1.ID, 1, 10)
	require.NoError(t, err)
	var sawMove bool
	for _, entry := range entries {
		if entry.Action == "task_moved" {
			sawMove = true
		}
	}
	assert.True(t, sawMove)

	// The assignee may finish their task; a stranger cannot even read it.
	done := models.TaskDone
	got, err := e.tasks.Update(ctx, e.member, t1.ID, UpdateTaskInput{Status: &done})
	require.NoError(t, err)
	assert.Equal(t, models.TaskDone, got.Status)

	_, err = e.tasks.Get(ctx, e.outsider, t1.ID)
	assert.True(t, errs.IsKind(err, errs.KindUnauthorized))
}
