package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"trello-project/tracking-service/models"
	"trello-project/tracking-service/services"
)

type ActivityHandler struct {
	activity *services.ActivityService
}

func NewActivityHandler(activity *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{activity: activity}
}

// ForItem serves /api/activity-logs/{itemType}/{itemId}.
func (h *ActivityHandler) ForItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "itemId")
	if !ok {
		return
	}
	itemType := models.ItemType(mux.Vars(r)["itemType"])
	page, limit := pageParams(r)

	entries, total, err := h.activity.ForItem(r.Context(), actor, itemType, itemID, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pagedResponse(entries, total, page, limit))
}

// ForProject serves the combined trail of a project and its descendants.
func (h *ActivityHandler) ForProject(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	projectID, ok := pathID(w, r, "projectId")
	if !ok {
		return
	}
	page, limit := pageParams(r)

	entries, total, err := h.activity.ForProject(r.Context(), actor, projectID, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pagedResponse(entries, total, page, limit))
}

func (h *ActivityHandler) ForUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	page, limit := pageParams(r)

	entries, total, err := h.activity.ForUser(r.Context(), actor, userID, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pagedResponse(entries, total, page, limit))
}
