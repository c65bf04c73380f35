package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"trello-project/tracking-service/activity"
	"trello-project/tracking-service/auth"
	"trello-project/tracking-service/models"
	"trello-project/tracking-service/notifications"
	"trello-project/tracking-service/ordering"
	"trello-project/tracking-service/stores/memstore"
)

// env wires every service against one in-memory store, with a manager, two
// members and an outsider registered as users.
type env struct {
	store *memstore.Store

	users    *UserService
	projects *ProjectService
	boards   *BoardService
	tasks    *TaskService
	subtasks *SubtaskService
	activity *ActivityService
	inbox    *NotificationService

	manager  auth.Actor
	member   auth.Actor
	second   auth.Actor
	outsider auth.Actor
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()

	resolver := auth.NewResolver(store.Projects(), store.Boards(), store.Tasks(), store.Subtasks())
	order := ordering.NewManager()
	recorder := activity.NewRecorder(store.Activities(), store.Boards(), store.Tasks(), store.Subtasks())
	fanout := notifications.NewFanout(store.Notifications(), nil)

	e := &env{
		store:    store,
		users:    NewUserService(store.Users()),
		projects: NewProjectService(store.Projects(), store.Boards(), store.Tasks(), store.Subtasks(), store.Users(), store.Notifications(), resolver, recorder, fanout),
		boards:   NewBoardService(store.Boards(), store.Tasks(), store.Subtasks(), store.Notifications(), resolver, order, recorder, fanout),
		tasks:    NewTaskService(store.Boards(), store.Tasks(), store.Subtasks(), store.Notifications(), resolver, order, recorder, fanout),
		subtasks: NewSubtaskService(store.Subtasks(), store.Notifications(), resolver, order, recorder, fanout),
		activity: NewActivityService(resolver, recorder),
		inbox:    NewNotificationService(store.Notifications()),
	}

	e.manager = e.addUser(t, ctx, "Mila", models.RoleProjectManager)
	e.member = e.addUser(t, ctx, "Janko", models.RoleMember)
	e.second = e.addUser(t, ctx, "Vera", models.RoleMember)
	e.outsider = e.addUser(t, ctx, "Rade", models.RoleMember)
	return e
}

func (e *env) addUser(t *testing.T, ctx context.Context, name string, role models.GlobalRole) auth.Actor {
	t.Helper()
	user := &models.User{Name: name, Email: name + "@example.com", Role: role}
	require.NoError(t, e.store.Users().Insert(ctx, user))
	return auth.Actor{ID: user.ID, GlobalRole: role}
}

func (e *env) createProject(t *testing.T, ctx context.Context, members ...primitive.ObjectID) *models.Project {
	t.Helper()
	project, err := e.projects.Create(ctx, e.manager, CreateProjectInput{
		Title:   "Atlas",
		Members: members,
	})
	require.NoError(t, err)
	return project
}

func (e *env) createBoard(t *testing.T, ctx context.Context, projectID primitive.ObjectID, title string) *models.Board {
	t.Helper()
	board, err := e.boards.Create(ctx, e.manager, projectID, title)
	require.NoError(t, err)
	return board
}

func (e *env) createTask(t *testing.T, ctx context.Context, boardID primitive.ObjectID, title string, assignees ...primitive.ObjectID) *models.Task {
	t.Helper()
	task, err := e.tasks.Create(ctx, e.manager, boardID, CreateTaskInput{
		Title:     title,
		Assignees: assignees,
	})
	require.NoError(t, err)
	return task
}

func (e *env) createSubtask(t *testing.T, ctx context.Context, taskID primitive.ObjectID, title string) *models.Subtask {
	t.Helper()
	subtask, err := e.subtasks.Create(ctx, e.manager, taskID, CreateSubtaskInput{Title: title})
	require.NoError(t, err)
	return subtask
}
