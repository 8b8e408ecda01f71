package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/repositories"
	"messenger-service/internal/ws"
)

// UserHandler serves the roster.
type UserHandler struct {
	userRepo repositories.UserRepository
	tracker  *ws.Tracker
}

// NewUserHandler builds a UserHandler.
func NewUserHandler(userRepo repositories.UserRepository, tracker *ws.Tracker) *UserHandler {
	return &UserHandler{userRepo: userRepo, tracker: tracker}
}

// ListUsers returns every other user with live presence. The online
// flag comes from the tracker, not the persisted column, so the roster
// never lags behind the registry.
func (h *UserHandler) ListUsers(c *gin.Context) {
	userID := c.GetInt("userID")

	users, err := h.userRepo.ListUsers(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load users"})
		return
	}

	online := map[int]bool{}
	for _, id := range h.tracker.Snapshot() {
		online[id] = true
	}

	type userResponse struct {
		ID        int       `json:"id"`
		Username  string    `json:"username"`
		AvatarURL string    `json:"avatar_url,omitempty"`
		IsOnline  bool      `json:"is_online"`
		LastSeen  time.Time `json:"last_seen"`
	}

	resp := make([]userResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, userResponse{
			ID:        u.ID,
			Username:  u.Username,
			AvatarURL: u.AvatarURL,
			IsOnline:  online[u.ID],
			LastSeen:  u.LastSeen,
		})
	}

	c.JSON(http.StatusOK, gin.H{"users": resp})
}
