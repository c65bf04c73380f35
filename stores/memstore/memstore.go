// Package memstore is an in-memory implementation of the store contracts.
// It mirrors the sorting and not-found behavior of the production stores and
// backs the service-level tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"trello-project/tracking-service/errs"
	"trello-project/tracking-service/models"
	"trello-project/tracking-service/stores"
)

type Store struct {
	mu            sync.RWMutex
	projects      map[primitive.ObjectID]models.Project
	boards        map[primitive.ObjectID]models.Board
	tasks         map[primitive.ObjectID]models.Task
	subtasks      map[primitive.ObjectID]models.Subtask
	users         map[primitive.ObjectID]models.User
	activities    []models.ActivityLog
	notifications []models.Notification
}

func New() *Store {
	return &Store{
		projects: make(map[primitive.ObjectID]models.Project),
		boards:   make(map[primitive.ObjectID]models.Board),
		tasks:    make(map[primitive.ObjectID]models.Task),
		subtasks: make(map[primitive.ObjectID]models.Subtask),
		users:    make(map[primitive.ObjectID]models.User),
	}
}

func (s *Store) Projects() stores.ProjectStore           { return projectStore{s} }
func (s *Store) Boards() stores.BoardStore               { return boardStore{s} }
func (s *Store) Tasks() stores.TaskStore                 { return taskStore{s} }
func (s *Store) Subtasks() stores.SubtaskStore           { return subtaskStore{s} }
func (s *Store) Users() stores.UserStore                 { return userStore{s} }
func (s *Store) Activities() stores.ActivityStore        { return activityStore{s} }
func (s *Store) Notifications() stores.NotificationStore { return notificationStore{s} }

func paginate(total, page, limit int) (lo, hi int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	lo = (page - 1) * limit
	if lo > total {
		lo = total
	}
	hi = lo + limit
	if hi > total {
		hi = total
	}
	return lo, hi
}

// --- projects ---

type projectStore struct{ s *Store }

func (p projectStore) Insert(ctx context.Context, project *models.Project) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	if project.ID.IsZero() {
		project.ID = primitive.NewObjectID()
	}
	p.s.projects[project.ID] = *project
	return nil
}

func (p projectStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	project, ok := p.s.projects[id]
	if !ok {
		return nil, errs.NotFound("project %s not found", id.Hex())
	}
	return &project, nil
}

func (p projectStore) FindByMember(ctx context.Context, userID primitive.ObjectID) ([]models.Project, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	var out []models.Project
	for _, project := range p.s.projects {
		if project.HasMember(userID) {
			out = append(out, project)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (p projectStore) FindAll(ctx context.Context) ([]models.Project, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	out := make([]models.Project, 0, len(p.s.projects))
	for _, project := range p.s.projects {
		out = append(out, project)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (p projectStore) UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	project, ok := p.s.projects[id]
	if !ok {
		return errs.NotFound("project %s not found", id.Hex())
	}
	for k, v := range fields {
		switch k {
		case "title":
			project.Title = v.(string)
		case "description":
			project.Description = v.(string)
		case "status":
			project.Status = v.(models.ProjectStatus)
		case "deadline":
			project.Deadline = v.(*time.Time)
		case "members":
			project.Members = v.([]primitive.ObjectID)
		case "updatedAt":
			project.UpdatedAt = v.(time.Time)
		}
	}
	p.s.projects[id] = project
	return nil
}

func (p projectStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	delete(p.s.projects, id)
	return nil
}

// --- boards ---

type boardStore struct{ s *Store }

func (b boardStore) Insert(ctx context.Context, board *models.Board) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if board.ID.IsZero() {
		board.ID = primitive.NewObjectID()
	}
	b.s.boards[board.ID] = *board
	return nil
}

func (b boardStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Board, error) {
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()
	board, ok := b.s.boards[id]
	if !ok {
		return nil, errs.NotFound("board %s not found", id.Hex())
	}
	return &board, nil
}

func (b boardStore) FindByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Board, error) {
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()
	var out []models.Board
	for _, board := range b.s.boards {
		if board.ProjectID == projectID {
			out = append(out, board)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (b boardStore) UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	board, ok := b.s.boards[id]
	if !ok {
		return errs.NotFound("board %s not found", id.Hex())
	}
	for k, v := range fields {
		switch k {
		case "title":
			board.Title = v.(string)
		case "updatedAt":
			board.UpdatedAt = v.(time.Time)
		}
	}
	b.s.boards[id] = board
	return nil
}

func (b boardStore) SetOrder(ctx context.Context, id primitive.ObjectID, order int) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	board, ok := b.s.boards[id]
	if !ok {
		return errs.NotFound("board %s not found", id.Hex())
	}
	board.Order = order
	b.s.boards[id] = board
	return nil
}

func (b boardStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	delete(b.s.boards, id)
	return nil
}

// --- tasks ---

type taskStore struct{ s *Store }

func (t taskStore) Insert(ctx context.Context, task *models.Task) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	t.s.tasks[task.ID] = *task
	return nil
}

func (t taskStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	task, ok := t.s.tasks[id]
	if !ok {
		return nil, errs.NotFound("task %s not found", id.Hex())
	}
	return &task, nil
}

func (t taskStore) FindByBoard(ctx context.Context, boardID primitive.ObjectID) ([]models.Task, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	var out []models.Task
	for _, task := range t.s.tasks {
		if task.BoardID == boardID {
			out = append(out, task)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (t taskStore) FindByAssignee(ctx context.Context, userID primitive.ObjectID) ([]models.Task, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	var out []models.Task
	for _, task := range t.s.tasks {
		if task.HasAssignee(userID) {
			out = append(out, task)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (t taskStore) UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	task, ok := t.s.tasks[id]
	if !ok {
		return errs.NotFound("task %s not found", id.Hex())
	}
	for k, v := range fields {
		switch k {
		case "title":
			task.Title = v.(string)
		case "description":
			task.Description = v.(string)
		case "status":
			task.Status = v.(models.TaskStatus)
		case "priority":
			task.Priority = v.(models.TaskPriority)
		case "assignees":
			task.Assignees = v.([]primitive.ObjectID)
		case "deadline":
			task.Deadline = v.(*time.Time)
		case "updatedAt":
			task.UpdatedAt = v.(time.Time)
		}
	}
	t.s.tasks[id] = task
	return nil
}

func (t taskStore) SetOrder(ctx context.Context, id primitive.ObjectID, order int) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	task, ok := t.s.tasks[id]
	if !ok {
		return errs.NotFound("task %s not found", id.Hex())
	}
	task.Order = order
	t.s.tasks[id] = task
	return nil
}

func (t taskStore) SetBoard(ctx context.Context, id, boardID primitive.ObjectID, order int) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	task, ok := t.s.tasks[id]
	if !ok {
		return errs.NotFound("task %s not found", id.Hex())
	}
	task.BoardID = boardID
	task.Order = order
	t.s.tasks[id] = task
	return nil
}

func (t taskStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	delete(t.s.tasks, id)
	return nil
}

func (t taskStore) CountByStatus(ctx context.Context, boardIDs []primitive.ObjectID) (map[models.TaskStatus]int, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	boards := make(map[primitive.ObjectID]bool, len(boardIDs))
	for _, id := range boardIDs {
		boards[id] = true
	}
	counts := make(map[models.TaskStatus]int)
	for _, task := range t.s.tasks {
		if boards[task.BoardID] {
			counts[task.Status]++
		}
	}
	return counts, nil
}

func (t taskStore) HasAssignedWithStatus(ctx context.Context, boardIDs []primitive.ObjectID, userID primitive.ObjectID, status models.TaskStatus) (bool, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	boards := make(map[primitive.ObjectID]bool, len(boardIDs))
	for _, id := range boardIDs {
		boards[id] = true
	}
	for _, task := range t.s.tasks {
		if boards[task.BoardID] && task.Status == status && task.HasAssignee(userID) {
			return true, nil
		}
	}
	return false, nil
}

// --- subtasks ---

type subtaskStore struct{ s *Store }

func (st subtaskStore) Insert(ctx context.Context, subtask *models.Subtask) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	if subtask.ID.IsZero() {
		subtask.ID = primitive.NewObjectID()
	}
	st.s.subtasks[subtask.ID] = *subtask
	return nil
}

func (st subtaskStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Subtask, error) {
	st.s.mu.RLock()
	defer st.s.mu.RUnlock()
	subtask, ok := st.s.subtasks[id]
	if !ok {
		return nil, errs.NotFound("subtask %s not found", id.Hex())
	}
	return &subtask, nil
}

func (st subtaskStore) FindByTask(ctx context.Context, taskID primitive.ObjectID) ([]models.Subtask, error) {
	st.s.mu.RLock()
	defer st.s.mu.RUnlock()
	var out []models.Subtask
	for _, subtask := range st.s.subtasks {
		if subtask.TaskID == taskID {
			out = append(out, subtask)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (st subtaskStore) UpdateFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	subtask, ok := st.s.subtasks[id]
	if !ok {
		return errs.NotFound("subtask %s not found", id.Hex())
	}
	for k, v := range fields {
		switch k {
		case "title":
			subtask.Title = v.(string)
		case "isCompleted":
			subtask.IsCompleted = v.(bool)
		case "deadline":
			subtask.Deadline = v.(*time.Time)
		case "updatedAt":
			subtask.UpdatedAt = v.(time.Time)
		}
	}
	st.s.subtasks[id] = subtask
	return nil
}

func (st subtaskStore) SetOrder(ctx context.Context, id primitive.ObjectID, order int) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	subtask, ok := st.s.subtasks[id]
	if !ok {
		return errs.NotFound("subtask %s not found", id.Hex())
	}
	subtask.Order = order
	st.s.subtasks[id] = subtask
	return nil
}

func (st subtaskStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	delete(st.s.subtasks, id)
	return nil
}

// --- users ---

type userStore struct{ s *Store }

func (u userStore) Insert(ctx context.Context, user *models.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	for _, existing := range u.s.users {
		if existing.Email == user.Email {
			return errs.Conflict("user with email %s already exists", user.Email)
		}
	}
	u.s.users[user.ID] = *user
	return nil
}

func (u userStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	user, ok := u.s.users[id]
	if !ok {
		return nil, errs.NotFound("user %s not found", id.Hex())
	}
	return &user, nil
}

func (u userStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	for _, user := range u.s.users {
		if user.Email == email {
			found := user
			return &found, nil
		}
	}
	return nil, errs.NotFound("user with email %s not found", email)
}

func (u userStore) FindAll(ctx context.Context) ([]models.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	out := make([]models.User, 0, len(u.s.users))
	for _, user := range u.s.users {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

// --- activity logs ---

type activityStore struct{ s *Store }

func (a activityStore) Insert(ctx context.Context, entry *models.ActivityLog) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	a.s.activities = append(a.s.activities, *entry)
	return nil
}

func (a activityStore) find(match func(models.ActivityLog) bool, page, limit int) ([]models.ActivityLog, int64, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	var out []models.ActivityLog
	for _, entry := range a.s.activities {
		if match(entry) {
			out = append(out, entry)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := int64(len(out))
	lo, hi := paginate(len(out), page, limit)
	return out[lo:hi], total, nil
}

func (a activityStore) FindByUser(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]models.ActivityLog, int64, error) {
	return a.find(func(e models.ActivityLog) bool { return e.UserID == userID }, page, limit)
}

func (a activityStore) FindByItem(ctx context.Context, itemType models.ItemType, itemID primitive.ObjectID, page, limit int) ([]models.ActivityLog, int64, error) {
	return a.find(func(e models.ActivityLog) bool {
		return e.RelatedItem.ItemType == itemType && e.RelatedItem.ItemID == itemID
	}, page, limit)
}

func (a activityStore) FindByItemIDs(ctx context.Context, itemIDs []primitive.ObjectID, page, limit int) ([]models.ActivityLog, int64, error) {
	ids := make(map[primitive.ObjectID]bool, len(itemIDs))
	for _, id := range itemIDs {
		ids[id] = true
	}
	return a.find(func(e models.ActivityLog) bool { return ids[e.RelatedItem.ItemID] }, page, limit)
}

func (a activityStore) DeleteByItemIDs(ctx context.Context, itemIDs []primitive.ObjectID) error {
	ids := make(map[primitive.ObjectID]bool, len(itemIDs))
	for _, id := range itemIDs {
		ids[id] = true
	}
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	kept := a.s.activities[:0]
	for _, entry := range a.s.activities {
		if !ids[entry.RelatedItem.ItemID] {
			kept = append(kept, entry)
		}
	}
	a.s.activities = kept
	return nil
}

// --- notifications ---

type notificationStore struct{ s *Store }

func (n notificationStore) Insert(ctx context.Context, notification *models.Notification) error {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()
	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}
	n.s.notifications = append(n.s.notifications, *notification)
	return nil
}

func (n notificationStore) FindByRecipient(ctx context.Context, recipient string, page, limit int) ([]models.Notification, int64, error) {
	n.s.mu.RLock()
	defer n.s.mu.RUnlock()
	var out []models.Notification
	for _, notification := range n.s.notifications {
		if notification.Recipient == recipient {
			out = append(out, notification)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := int64(len(out))
	lo, hi := paginate(len(out), page, limit)
	return out[lo:hi], total, nil
}

func (n notificationStore) UnreadCount(ctx context.Context, recipient string) (int64, error) {
	n.s.mu.RLock()
	defer n.s.mu.RUnlock()
	var count int64
	for _, notification := range n.s.notifications {
		if notification.Recipient == recipient && !notification.IsRead {
			count++
		}
	}
	return count, nil
}

func (n notificationStore) MarkRead(ctx context.Context, recipient, id string) error {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()
	for i, notification := range n.s.notifications {
		if notification.Recipient == recipient && notification.ID == id {
			n.s.notifications[i].IsRead = true
			return nil
		}
	}
	return errs.NotFound("notification %s not found", id)
}

func (n notificationStore) MarkAllRead(ctx context.Context, recipient string) error {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()
	for i, notification := range n.s.notifications {
		if notification.Recipient == recipient {
			n.s.notifications[i].IsRead = true
		}
	}
	return nil
}

func (n notificationStore) Delete(ctx context.Context, recipient, id string) error {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()
	for i, notification := range n.s.notifications {
		if notification.Recipient == recipient && notification.ID == id {
			n.s.notifications = append(n.s.notifications[:i], n.s.notifications[i+1:]...)
			return nil
		}
	}
	return errs.NotFound("notification %s not found", id)
}

func (n notificationStore) DeleteByItemIDs(ctx context.Context, itemIDs []string) error {
	ids := make(map[string]bool, len(itemIDs))
	for _, id := range itemIDs {
		ids[id] = true
	}
	n.s.mu.Lock()
	defer n.s.mu.Unlock()
	kept := n.s.notifications[:0]
	for _, notification := range n.s.notifications {
		if !ids[notification.RelatedItemID] {
			kept = append(kept, notification)
		}
	}
	n.s.notifications = kept
	return nil
}
