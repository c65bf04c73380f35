package handlers

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"trello-project/tracking-service/logging"
	"trello-project/tracking-service/realtime"
	"trello-project/tracking-service/utils"
)

type WSHandler struct {
	hub *realtime.Hub
}

func NewWSHandler(hub *realtime.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// Join validates the token carried in the ?token query parameter (browsers
// cannot set headers on WebSocket requests) and subscribes the connection to
// the user's notification room.
func (h *WSHandler) Join(w http.ResponseWriter, r *http.Request) {
	claims, err := utils.ValidateToken(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}
	if _, err := primitive.ObjectIDFromHex(claims.UserID); err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	if err := h.hub.Join(w, r, claims.UserID); err != nil {
		logging.Logger.Warnf("WebSocket upgrade failed for user %s: %v", claims.UserID, err)
	}
}
