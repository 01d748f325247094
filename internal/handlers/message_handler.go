package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studybud-app/room-service/internal/services"
	"github.com/studybud-app/room-service/internal/utils"
	"github.com/studybud-app/room-service/internal/validator"
)

type MessageHandler struct {
	BaseHandler
	messageService services.MessageService
	validator      *validator.Validator
}

func NewMessageHandler(messageService services.MessageService, validator *validator.Validator, logger utils.Logger) *MessageHandler {
	return &MessageHandler{
		BaseHandler:    NewBaseHandler(logger),
		messageService: messageService,
		validator:      validator,
	}
}

// PostMessage posts a message to a room; payees only. Posting joins the
// room's participant set.
func (h *MessageHandler) PostMessage(c *gin.Context) {
	roomID := h.parseIDParam(c, "id")
	if roomID == 0 {
		return
	}

	var req services.CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	message, err := h.messageService.Post(c.Request.Context(), roomID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, message)
}

// DeleteMessage deletes a message; author only
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting message", "message_id", id)

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	if err := h.messageService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Message deleted"})
}

// ListRoomMessages lists a room's messages newest-first; payees only
func (h *MessageHandler) ListRoomMessages(c *gin.Context) {
	roomID := h.parseIDParam(c, "id")
	if roomID == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	limit, offset := h.parsePagination(c, 50)

	messages, err := h.messageService.ListByRoom(c.Request.Context(), roomID, userID, limit, offset)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

// RecentActivity returns the latest messages across all rooms, optionally
// narrowed to rooms whose topic matches the query
func (h *MessageHandler) RecentActivity(c *gin.Context) {
	limit, _ := h.parsePagination(c, 5)

	messages, err := h.messageService.RecentActivity(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}
