// Package handlers exposes the HTTP API. Handlers decode the request, pull
// the actor out of the context and delegate to the services; errors map to
// status codes through their kind.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"trello-project/tracking-service/auth"
	"trello-project/tracking-service/errs"
	"trello-project/tracking-service/logging"
	"trello-project/tracking-service/middleware"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logging.Logger.Warnf("Failed to encode response: %v", err)
		}
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := errs.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		logging.Logger.Errorf("Internal error: %v", err)
		writeJSON(w, status, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func requireActor(w http.ResponseWriter, r *http.Request) (auth.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return auth.Actor{}, false
	}
	return actor, true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)[name])
	if err != nil {
		writeError(w, errs.ValidationFailed("invalid %s", name))
		return primitive.NilObjectID, false
	}
	return id, true
}

// pageParams reads ?page= and ?limit=; the stores apply the defaults.
func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return page, limit
}

// paged is the envelope for paginated list responses.
type paged struct {
	Items any   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

func pagedResponse(items any, total int64, page, limit int) paged {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	return paged{Items: items, Total: total, Page: page, Limit: limit}
}
