package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
	"messenger-service/internal/ws"
)

// MessageHandler serves the REST side of messaging: history, status
// acknowledgements and deletes. Live submission goes through the same
// delivery pipeline the websocket path uses.
type MessageHandler struct {
	messageRepo repositories.MessageRepository
	pipeline    *ws.Pipeline
	acks        *ws.AckEngine
	hub         *ws.Hub
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(messageRepo repositories.MessageRepository, pipeline *ws.Pipeline, acks *ws.AckEngine, hub *ws.Hub) *MessageHandler {
	return &MessageHandler{
		messageRepo: messageRepo,
		pipeline:    pipeline,
		acks:        acks,
		hub:         hub,
	}
}

// SendMessage persists and delivers a message submitted over REST.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req struct {
		ReceiverID  int    `json:"receiver_id" binding:"required"`
		Body        string `json:"body" binding:"required"`
		MessageType string `json:"message_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	if userID == req.ReceiverID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot message yourself"})
		return
	}

	msg, err := h.pipeline.Submit(c.Request.Context(), userID, req.ReceiverID, req.Body, req.MessageType)
	if err != nil {
		if errors.Is(err, ws.ErrInvalidMessageType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message type"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// GetConversation returns a page of the two-way thread with a peer,
// oldest first.
func (h *MessageHandler) GetConversation(c *gin.Context) {
	peerID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit < 1 || limit > 500 {
		limit = 100
	}

	userID := c.GetInt("userID")
	msgs, err := h.messageRepo.ListConversation(c.Request.Context(), userID, peerID, limit, (page-1)*limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": msgs,
		"count":    len(msgs),
		"page":     page,
	})
}

// UnreadCount reports how many messages from the peer are not yet seen.
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	peerID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	userID := c.GetInt("userID")
	count, err := h.messageRepo.CountUnread(c.Request.Context(), userID, peerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count unread"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// UpdateStatus is the explicit single-message acknowledgement. Only the
// receiver may bump a message, and only forward.
func (h *MessageHandler) UpdateStatus(c *gin.Context) {
	messageID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Status != models.StatusDelivered && req.Status != models.StatusSeen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be 'delivered' or 'seen'"})
		return
	}

	userID := c.GetInt("userID")
	msg, err := h.messageRepo.GetMessage(c.Request.Context(), messageID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrMessageNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "message not found"})
		return
	}
	if msg.ReceiverID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the receiver can acknowledge"})
		return
	}

	if err := h.acks.Acknowledge(c.Request.Context(), messageID, req.Status); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message_id": messageID, "status": req.Status})
}

// MarkAllSeen bulk-marks a thread seen and notifies the sender.
func (h *MessageHandler) MarkAllSeen(c *gin.Context) {
	var req struct {
		SenderID int `json:"sender_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	count, err := h.acks.MarkAllSeen(c.Request.Context(), req.SenderID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not mark messages seen"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": count})
}

// DeleteForMe performs a soft delete of a message for the caller.
func (h *MessageHandler) DeleteForMe(c *gin.Context) {
	messageID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	userID := c.GetInt("userID")
	msg, err := h.messageRepo.GetMessage(c.Request.Context(), messageID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrMessageNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "message not found"})
		return
	}
	if msg.SenderID != userID && msg.ReceiverID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant"})
		return
	}

	if err := h.messageRepo.SoftDeleteForUser(c.Request.Context(), messageID, msg.SenderID == userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete message"})
		return
	}

	c.Status(http.StatusNoContent)
}

// DeleteForAll marks a message deleted for everyone (sender only) and
// notifies both parties' live connections.
func (h *MessageHandler) DeleteForAll(c *gin.Context) {
	messageID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	userID := c.GetInt("userID")
	msg, err := h.messageRepo.GetMessage(c.Request.Context(), messageID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrMessageNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "message not found"})
		return
	}
	if msg.SenderID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only sender can delete for all"})
		return
	}

	if err := h.messageRepo.DeleteForEveryone(c.Request.Context(), messageID, userID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrMessageNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not delete message"})
		return
	}

	h.hub.SendToUser(msg.SenderID, ws.EventMessageDeleted, ws.MessageDeleted{MessageID: messageID})
	h.hub.SendToUser(msg.ReceiverID, ws.EventMessageDeleted, ws.MessageDeleted{MessageID: messageID})
	c.Status(http.StatusNoContent)
}
