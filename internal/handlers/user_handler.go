package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studybud-app/room-service/internal/models"
	"github.com/studybud-app/room-service/internal/repositories"
	"github.com/studybud-app/room-service/internal/services"
	"github.com/studybud-app/room-service/internal/utils"
)

type UserHandler struct {
	BaseHandler
	userRepo       repositories.UserRepository
	roomService    services.RoomService
	messageService services.MessageService
}

func NewUserHandler(userRepo repositories.UserRepository, roomService services.RoomService, messageService services.MessageService, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler:    NewBaseHandler(logger),
		userRepo:       userRepo,
		roomService:    roomService,
		messageService: messageService,
	}
}

// ProfileResponse is the public profile view: the user plus the rooms they
// host and their recent messages.
type ProfileResponse struct {
	User           *models.User                  `json:"user"`
	HostedRooms    *services.RoomListResponse    `json:"hosted_rooms"`
	RecentMessages *services.MessageListResponse `json:"recent_messages"`
}

// GetProfile returns a user's public profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	profileID := c.Param("id")
	if profileID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid id parameter",
		})
		return
	}

	callerID := h.optionalUserID(c)

	user, err := h.userRepo.GetByID(c.Request.Context(), profileID)
	if err != nil {
		h.handleServiceError(c, services.ErrUserNotFound)
		return
	}

	rooms, err := h.roomService.List(c.Request.Context(), repositories.RoomFilters{
		HostID:    &profileID,
		SortBy:    "created_at",
		SortOrder: "desc",
		Limit:     20,
	}, callerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	messages, err := h.messageService.ListByUser(c.Request.Context(), profileID, 10, 0)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ProfileResponse{
		User:           user,
		HostedRooms:    rooms,
		RecentMessages: messages,
	})
}

// GetMe returns the authenticated user's own profile
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	user, err := h.userRepo.GetByID(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, services.ErrUserNotFound)
		return
	}

	c.JSON(http.StatusOK, user)
}

// SearchUsers searches users by name or email
func (h *UserHandler) SearchUsers(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Search query is required",
		})
		return
	}

	limit, offset := h.parsePagination(c, 20)

	users, total, err := h.userRepo.Search(c.Request.Context(), query, repositories.UserFilters{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.logger.Error("User search failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users, "total": total})
}
