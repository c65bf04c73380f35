package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"trello-project/tracking-service/middleware"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Projects      *ProjectHandler
	Boards        *BoardHandler
	Tasks         *TaskHandler
	Subtasks      *SubtaskHandler
	Activity      *ActivityHandler
	Notifications *NotificationHandler
	WS            *WSHandler
}

// NewRouter mounts the API. Everything under /api except auth requires a
// valid token.
func NewRouter(h Handlers) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	r.HandleFunc("/api/auth/register", h.Auth.Register).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", h.Auth.Login).Methods(http.MethodPost)
	r.HandleFunc("/ws", h.WS.Join).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.JWTAuthMiddleware)

	api.HandleFunc("/users", h.Users.List).Methods(http.MethodGet)
	api.HandleFunc("/users/me", h.Users.Me).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}", h.Users.Get).Methods(http.MethodGet)

	api.HandleFunc("/projects", h.Projects.Create).Methods(http.MethodPost)
	api.HandleFunc("/projects", h.Projects.List).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}", h.Projects.Get).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}", h.Projects.Update).Methods(http.MethodPatch)
	api.HandleFunc("/projects/{id}", h.Projects.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/projects/{id}/members", h.Projects.AddMember).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}/members/{userId}", h.Projects.RemoveMember).Methods(http.MethodDelete)
	api.HandleFunc("/projects/{id}/stats", h.Projects.Stats).Methods(http.MethodGet)

	api.HandleFunc("/projects/{projectId}/boards", h.Boards.Create).Methods(http.MethodPost)
	api.HandleFunc("/projects/{projectId}/boards", h.Boards.ListForProject).Methods(http.MethodGet)
	api.HandleFunc("/projects/{projectId}/boards/reorder", h.Boards.Reorder).Methods(http.MethodPut)
	api.HandleFunc("/boards/{id}", h.Boards.Get).Methods(http.MethodGet)
	api.HandleFunc("/boards/{id}", h.Boards.Update).Methods(http.MethodPatch)
	api.HandleFunc("/boards/{id}", h.Boards.Delete).Methods(http.MethodDelete)

	api.HandleFunc("/boards/{boardId}/tasks", h.Tasks.Create).Methods(http.MethodPost)
	api.HandleFunc("/boards/{boardId}/tasks", h.Tasks.ListForBoard).Methods(http.MethodGet)
	api.HandleFunc("/boards/{boardId}/tasks/reorder", h.Tasks.Reorder).Methods(http.MethodPut)
	api.HandleFunc("/tasks/mine", h.Tasks.ListMine).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id}", h.Tasks.Get).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id}", h.Tasks.Update).Methods(http.MethodPatch)
	api.HandleFunc("/tasks/{id}", h.Tasks.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/tasks/{id}/move", h.Tasks.Move).Methods(http.MethodPut)

	api.HandleFunc("/tasks/{taskId}/subtasks", h.Subtasks.Create).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{taskId}/subtasks", h.Subtasks.ListForTask).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{taskId}/subtasks/reorder", h.Subtasks.Reorder).Methods(http.MethodPut)
	api.HandleFunc("/subtasks/{id}", h.Subtasks.Update).Methods(http.MethodPatch)
	api.HandleFunc("/subtasks/{id}", h.Subtasks.Delete).Methods(http.MethodDelete)

	api.HandleFunc("/activity-logs/projects/{projectId}", h.Activity.ForProject).Methods(http.MethodGet)
	api.HandleFunc("/activity-logs/users/{userId}", h.Activity.ForUser).Methods(http.MethodGet)
	api.HandleFunc("/activity-logs/{itemType}/{itemId}", h.Activity.ForItem).Methods(http.MethodGet)

	api.HandleFunc("/notifications", h.Notifications.List).Methods(http.MethodGet)
	api.HandleFunc("/notifications/unread-count", h.Notifications.UnreadCount).Methods(http.MethodGet)
	api.HandleFunc("/notifications/read-all", h.Notifications.MarkAllRead).Methods(http.MethodPut)
	api.HandleFunc("/notifications/{id}/read", h.Notifications.MarkRead).Methods(http.MethodPut)
	api.HandleFunc("/notifications/{id}", h.Notifications.Delete).Methods(http.MethodDelete)

	return middleware.CORS(r)
}
