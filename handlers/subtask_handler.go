package handlers

import (
	"encoding/json"
	"net/http"

	"trello-project/tracking-service/errs"
	"trello-project/tracking-service/ordering"
	"trello-project/tracking-service/services"
)

type SubtaskHandler struct {
	subtasks *services.SubtaskService
}

func NewSubtaskHandler(subtasks *services.SubtaskService) *SubtaskHandler {
	return &SubtaskHandler{subtasks: subtasks}
}

func (h *SubtaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	taskID, ok := pathID(w, r, "taskId")
	if !ok {
		return
	}
	var input services.CreateSubtaskInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, errs.ValidationFailed("invalid request body"))
		return
	}

	subtask, err := h.subtasks.Create(r.Context(), actor, taskID, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, subtask)
}

func (h *SubtaskHandler) ListForTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	taskID, ok := pathID(w, r, "taskId")
	if !ok {
		return
	}

	subtasks, err := h.subtasks.ListForTask(r.Context(), actor, taskID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subtasks)
}

func (h *SubtaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var input services.UpdateSubtaskInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, errs.ValidationFailed("invalid request body"))
		return
	}

	subtask, err := h.subtasks.Update(r.Context(), actor, id, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subtask)
}

func (h *SubtaskHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	taskID, ok := pathID(w, r, "taskId")
	if !ok {
		return
	}
	var orders []ordering.ItemOrder
	if err := json.NewDecoder(r.Body).Decode(&orders); err != nil {
		writeError(w, errs.ValidationFailed("invalid request body"))
		return
	}

	if err := h.subtasks.Reorder(r.Context(), actor, taskID, orders); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "subtasks reordered"})
}

func (h *SubtaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.subtasks.Delete(r.Context(), actor, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
