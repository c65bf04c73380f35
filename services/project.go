package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"trello-project/tracking-service/activity"
	"trello-project/tracking-service/auth"
	"trello-project/tracking-service/errs"
	"trello-project/tracking-service/logging"
	"trello-project/tracking-service/models"
	"trello-project/tracking-service/notifications"
	"trello-project/tracking-service/stores"
)

type ProjectService struct {
	projects      stores.ProjectStore
	boards        stores.BoardStore
	tasks         stores.TaskStore
	subtasks      stores.SubtaskStore
	users         stores.UserStore
	notifications stores.NotificationStore
	resolver      *auth.Resolver
	recorder      *activity.Recorder
	fanout        *notifications.Fanout
}

func NewProjectService(
	projects stores.ProjectStore,
	boards stores.BoardStore,
	tasks stores.TaskStore,
	subtasks stores.SubtaskStore,
	users stores.UserStore,
	notificationStore stores.NotificationStore,
	resolver *auth.Resolver,
	recorder *activity.Recorder,
	fanout *notifications.Fanout,
) *ProjectService {
	return &ProjectService{
		projects:      projects,
		boards:        boards,
		tasks:         tasks,
		subtasks:      subtasks,
		users:         users,
		notifications: notificationStore,
		resolver:      resolver,
		recorder:      recorder,
		fanout:        fanout,
	}
}

type CreateProjectInput struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Members     []primitive.ObjectID `json:"members"`
	Status      models.ProjectStatus `json:"status"`
	Deadline    *time.Time           `json:"deadline,omitempty"`
}

// Create makes the actor the manager of a new project. Only admins and
// project managers may create projects; listed members must exist.
func (s *ProjectService) Create(ctx context.Context, actor auth.Actor, input CreateProjectInput) (*models.Project, error) {
	if actor.GlobalRole != models.RoleAdmin && actor.GlobalRole != models.RoleProjectManager {
		return nil, errs.Unauthorized("not allowed to create projects")
	}
	if input.Title == "" {
		return nil, errs.ValidationFailed("project title is required")
	}
	if input.Status == "" {
		input.Status = models.ProjectPlanning
	}
	if !input.Status.Valid() {
		return nil, errs.ValidationFailed("unknown project status %q", input.Status)
	}
	if input.Deadline != nil && input.Deadline.Before(time.Now()) {
		return nil, errs.ValidationFailed("project deadline cannot be in the past")
	}
	for _, memberID := range input.Members {
		if _, err := s.users.FindByID(ctx, memberID); err != nil {
			return nil, refError(err)
		}
	}

	now := time.Now()
	project := &models.Project{
		Title:       input.Title,
		Description: input.Description,
		ManagerID:   actor.ID,
		Members:     input.Members,
		Status:      input.Status,
		Deadline:    input.Deadline,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	project.EnsureManagerMembership()

	if err := s.projects.Insert(ctx, project); err != nil {
		return nil, err
	}

	item := models.RelatedItem{ItemID: project.ID, ItemType: models.ItemProject}
	s.recorder.Record(ctx, actor.ID, "project_created", fmt.Sprintf("Created project %q", project.Title), item)
	s.fanout.Notify(ctx, notifications.Recipients(project, actor.ID), actor.ID,
		fmt.Sprintf("You have been added to project %q", project.Title), item)

	logging.Logger.Infof("Project %s created by %s", project.ID.Hex(), actor.ID.Hex())
	return project, nil
}

func (s *ProjectService) Get(ctx context.Context, actor auth.Actor, id primitive.ObjectID) (*models.Project, error) {
	res, err := s.resolver.Authorize(ctx, actor, auth.OpRead, models.ItemProject, id)
	if err != nil {
		return nil, err
	}
	return res.Project, nil
}

// ListForActor returns every project for admins, otherwise the projects the
// actor belongs to.
func (s *ProjectService) ListForActor(ctx context.Context, actor auth.Actor) ([]models.Project, error) {
	if actor.GlobalRole == models.RoleAdmin {
		return s.projects.FindAll(ctx)
	}
	return s.projects.FindByMember(ctx, actor.ID)
}

type UpdateProjectInput struct {
	Title       *string               `json:"title,omitempty"`
	Description *string               `json:"description,omitempty"`
	Status      *models.ProjectStatus `json:"status,omitempty"`
	Deadline    *time.Time            `json:"deadline,omitempty"`
}

func (s *ProjectService) Update(ctx context.Context, actor auth.Actor, id primitive.ObjectID, input UpdateProjectInput) (*models.Project, error) {
	res, err := s.resolver.Authorize(ctx, actor, auth.OpUpdate, models.ItemProject, id)
	if err != nil {
		return nil, err
	}

	fields := bson.M{}
	if input.Title != nil {
		if *input.Title == "" {
			return nil, errs.ValidationFailed("project title cannot be empty")
		}
		fields["title"] = *input.Title
	}
	if input.Description != nil {
		fields["description"] = *input.Description
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, errs.ValidationFailed("unknown project status %q", *input.Status)
		}
		fields["status"] = *input.Status
	}
	if input.Deadline != nil {
		fields["deadline"] = input.Deadline
	}
	if len(fields) == 0 {
		return nil, errs.ValidationFailed("update request contains no fields")
	}
	fields["updatedAt"] = time.Now()

	if err := s.projects.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}

	project, err := s.projects.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	item := models.RelatedItem{ItemID: project.ID, ItemType: models.ItemProject}
	s.recorder.Record(ctx, actor.ID, "project_updated", fmt.Sprintf("Updated project %q", project.Title), item)
	s.fanout.Notify(ctx, notifications.Recipients(res.Project, actor.ID), actor.ID,
		fmt.Sprintf("Project %q was updated", project.Title), item)
	return project, nil
}

// AddMember adds a user to the project's member list.
func (s *ProjectService) AddMember(ctx context.Context, actor auth.Actor, projectID, userID primitive.ObjectID) (*models.Project, error) {
	res, err := s.resolver.Authorize(ctx, actor, auth.OpUpdate, models.ItemProject, projectID)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, refError(err)
	}
	if res.Project.HasMember(userID) {
		return nil, errs.Conflict("user %s is already a member", userID.Hex())
	}

	members := append(res.Project.Members, userID)
	fields := bson.M{"members": members, "updatedAt": time.Now()}
	if err := s.projects.UpdateFields(ctx, projectID, fields); err != nil {
		return nil, err
	}
	res.Project.Members = members

	item := models.RelatedItem{ItemID: projectID, ItemType: models.ItemProject}
	s.recorder.Record(ctx, actor.ID, "member_added",
		fmt.Sprintf("Added %s to project %q", user.Name, res.Project.Title), item)
	s.fanout.Notify(ctx, []primitive.ObjectID{userID}, actor.ID,
		fmt.Sprintf("You have been added to project %q", res.Project.Title), item)
	return res.Project, nil
}

// RemoveMember drops a user from the member list. The manager cannot be
// removed, and neither can a member who still has a task in progress on one
// of the project's boards.
func (s *ProjectService) RemoveMember(ctx context.Context, actor auth.Actor, projectID, userID primitive.ObjectID) (*models.Project, error) {
	res, err := s.resolver.Authorize(ctx, actor, auth.OpUpdate, models.ItemProject, projectID)
	if err != nil {
		return nil, err
	}
	if userID == res.Project.ManagerID {
		return nil, errs.ValidationFailed("the project manager cannot be removed")
	}
	if !res.Project.HasMember(userID) {
		return nil, errs.NotFound("user %s is not a member of this project", userID.Hex())
	}

	boards, err := s.boards.FindByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	boardIDs := make([]primitive.ObjectID, len(boards))
	for i, board := range boards {
		boardIDs[i] = board.ID
	}
	if len(boardIDs) > 0 {
		busy, err := s.tasks.HasAssignedWithStatus(ctx, boardIDs, userID, models.TaskInProgress)
		if err != nil {
			return nil, err
		}
		if busy {
			return nil, errs.Conflict("user %s has tasks in progress and cannot be removed", userID.Hex())
		}
	}

	members := make([]primitive.ObjectID, 0, len(res.Project.Members)-1)
	for _, member := range res.Project.Members {
		if member != userID {
			members = append(members, member)
		}
	}
	fields := bson.M{"members": members, "updatedAt": time.Now()}
	if err := s.projects.UpdateFields(ctx, projectID, fields); err != nil {
		return nil, err
	}
	res.Project.Members = members

	// Unassign the removed member from every task in the project.
	for _, boardID := range boardIDs {
		tasks, err := s.tasks.FindByBoard(ctx, boardID)
		if err != nil {
			return nil, err
		}
		for _, task := range tasks {
			if !task.HasAssignee(userID) {
				continue
			}
			assignees := make([]primitive.ObjectID, 0, len(task.Assignees)-1)
			for _, assignee := range task.Assignees {
				if assignee != userID {
					assignees = append(assignees, assignee)
				}
			}
			if err := s.tasks.UpdateFields(ctx, task.ID, bson.M{"assignees": assignees, "updatedAt": time.Now()}); err != nil {
				return nil, err
			}
		}
	}

	item := models.RelatedItem{ItemID: projectID, ItemType: models.ItemProject}
	s.recorder.Record(ctx, actor.ID, "member_removed",
		fmt.Sprintf("Removed a member from project %q", res.Project.Title), item)
	s.fanout.Notify(ctx, []primitive.ObjectID{userID}, actor.ID,
		fmt.Sprintf("You have been removed from project %q", res.Project.Title), item)
	return res.Project, nil
}

// Delete removes the project and everything under it: subtasks, tasks and
// boards bottom-up, then the project, then every audit entry and notification
// referencing any of the deleted items. The deletion entry is attached to the
// actor because no deleted id may be referenced afterwards.
func (s *ProjectService) Delete(ctx context.Context, actor auth.Actor, id primitive.ObjectID) error {
	res, err := s.resolver.Authorize(ctx, actor, auth.OpDelete, models.ItemProject, id)
	if err != nil {
		return err
	}

	recipients := notifications.Recipients(res.Project, actor.ID)
	title := res.Project.Title

	deleted, err := s.deleteTree(ctx, res.Project)
	if err != nil {
		return err
	}

	if err := s.recorder.PurgeForItems(ctx, deleted); err != nil {
		logging.Logger.Warnf("Failed to purge activity logs for project %s: %v", id.Hex(), err)
	}
	if err := s.notifications.DeleteByItemIDs(ctx, hexIDs(deleted)); err != nil {
		logging.Logger.Warnf("Failed to purge notifications for project %s: %v", id.Hex(), err)
	}

	s.recorder.Record(ctx, actor.ID, "project_deleted", fmt.Sprintf("Deleted project %q", title),
		models.RelatedItem{ItemID: actor.ID, ItemType: models.ItemUser})
	s.fanout.Notify(ctx, recipients, actor.ID,
		fmt.Sprintf("Project %q was deleted", title),
		models.RelatedItem{ItemID: actor.ID, ItemType: models.ItemUser})

	logging.Logger.Infof("Project %s deleted by %s (%d items removed)", id.Hex(), actor.ID.Hex(), len(deleted))
	return nil
}

func (s *ProjectService) deleteTree(ctx context.Context, project *models.Project) ([]primitive.ObjectID, error) {
	var deleted []primitive.ObjectID

	boards, err := s.boards.FindByProject(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	for _, board := range boards {
		tasks, err := s.tasks.FindByBoard(ctx, board.ID)
		if err != nil {
			return nil, err
		}
		for _, task := range tasks {
			subtasks, err := s.subtasks.FindByTask(ctx, task.ID)
			if err != nil {
				return nil, err
			}
			for _, subtask := range subtasks {
				if err := s.subtasks.Delete(ctx, subtask.ID); err != nil {
					return nil, err
				}
				deleted = append(deleted, subtask.ID)
			}
			if err := s.tasks.Delete(ctx, task.ID); err != nil {
				return nil, err
			}
			deleted = append(deleted, task.ID)
		}
		if err := s.boards.Delete(ctx, board.ID); err != nil {
			return nil, err
		}
		deleted = append(deleted, board.ID)
	}

	if err := s.projects.Delete(ctx, project.ID); err != nil {
		return nil, err
	}
	deleted = append(deleted, project.ID)
	return deleted, nil
}

// ProjectStats summarizes a project's boards and task statuses.
type ProjectStats struct {
	ProjectID   primitive.ObjectID        `json:"projectId"`
	TotalBoards int                       `json:"totalBoards"`
	TotalTasks  int                       `json:"totalTasks"`
	ByStatus    map[models.TaskStatus]int `json:"byStatus"`
}

func (s *ProjectService) Stats(ctx context.Context, actor auth.Actor, projectID primitive.ObjectID) (*ProjectStats, error) {
	if _, err := s.resolver.Authorize(ctx, actor, auth.OpRead, models.ItemProject, projectID); err != nil {
		return nil, err
	}

	boards, err := s.boards.FindByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	boardIDs := make([]primitive.ObjectID, len(boards))
	for i, board := range boards {
		boardIDs[i] = board.ID
	}

	stats := &ProjectStats{
		ProjectID:   projectID,
		TotalBoards: len(boards),
		ByStatus:    map[models.TaskStatus]int{},
	}
	if len(boardIDs) > 0 {
		counts, err := s.tasks.CountByStatus(ctx, boardIDs)
		if err != nil {
			return nil, err
		}
		stats.ByStatus = counts
		for _, count := range counts {
			stats.TotalTasks += count
		}
	}
	return stats, nil
}

func hexIDs(ids []primitive.ObjectID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Hex()
	}
	return out
}
