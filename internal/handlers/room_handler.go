package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/studybud-app/room-service/internal/repositories"
	"github.com/studybud-app/room-service/internal/services"
	"github.com/studybud-app/room-service/internal/utils"
	"github.com/studybud-app/room-service/internal/validator"
)

type RoomHandler struct {
	BaseHandler
	roomService   services.RoomService
	ratingService services.RatingService
	exportService services.ExportService
	validator     *validator.Validator
}

func NewRoomHandler(
	roomService services.RoomService,
	ratingService services.RatingService,
	exportService services.ExportService,
	validator *validator.Validator,
	logger utils.Logger,
) *RoomHandler {
	return &RoomHandler{
		BaseHandler:   NewBaseHandler(logger),
		roomService:   roomService,
		ratingService: ratingService,
		exportService: exportService,
		validator:     validator,
	}
}

// Home returns the landing view: the caller's paid and unpaid rooms, a
// topic sample and recent activity, all filtered by the optional query.
func (h *RoomHandler) Home(c *gin.Context) {
	query := c.Query("q")
	userID := h.optionalUserID(c)

	home, err := h.roomService.Home(c.Request.Context(), query, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, home)
}

// CreateRoom creates a new room hosted by the caller
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req services.CreateRoomRequest
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

	room, err := h.roomService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, room)
}

// GetRoom retrieves the room summary, visible to any authenticated user
func (h *RoomHandler) GetRoom(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	room, err := h.roomService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, room)
}

// GetRoomWithDetails retrieves the full room body; payees only
func (h *RoomHandler) GetRoomWithDetails(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting room details", "room_id", id)

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	room, err := h.roomService.GetByIDWithDetails(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, room)
}

// UpdateRoom updates a room; host only
func (h *RoomHandler) UpdateRoom(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating room", "room_id", id)

	var req services.UpdateRoomRequest
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

	room, err := h.roomService.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, room)
}

// DeleteRoom deletes a room; host only
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting room", "room_id", id)

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	if err := h.roomService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Room deleted"})
}

// ListRooms lists rooms with optional filters
func (h *RoomHandler) ListRooms(c *gin.Context) {
	userID := h.optionalUserID(c)
	filters := h.parseRoomFilters(c)

	rooms, err := h.roomService.List(c.Request.Context(), filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, rooms)
}

// SearchRooms searches rooms over name, description and topic name
func (h *RoomHandler) SearchRooms(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Search query is required",
		})
		return
	}

	userID := h.optionalUserID(c)
	filters := h.parseRoomFilters(c)

	rooms, err := h.roomService.Search(c.Request.Context(), query, filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, rooms)
}

// ListTopics lists topics, optionally filtered by a name substring
func (h *RoomHandler) ListTopics(c *gin.Context) {
	limit, offset := h.parsePagination(c, 50)

	topics, err := h.roomService.ListTopics(c.Request.Context(), c.Query("q"), limit, offset)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, topics)
}

// RateRoom records the caller's 1-5 score for a room; payees only
func (h *RoomHandler) RateRoom(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.RateRoomRequest
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

	rating, err := h.ratingService.RecordRating(c.Request.Context(), id, userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, rating)
}

// ListRoomRatings lists the individual ratings of a room; payees only
func (h *RoomHandler) ListRoomRatings(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	ratings, err := h.ratingService.GetRoomRatings(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ratings)
}

// ExportRoomActivity streams an xlsx of the room's messages and ratings;
// host only
func (h *RoomHandler) ExportRoomActivity(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Exporting room activity", "room_id", id)

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	file, err := h.exportService.ExportRoomActivity(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("room_%d_activity.xlsx", id)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := file.Write(c.Writer); err != nil {
		h.logger.Error("Failed to stream export", "room_id", id, "error", err)
	}
}

func (h *RoomHandler) parseRoomFilters(c *gin.Context) repositories.RoomFilters {
	filters := repositories.RoomFilters{
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}
	filters.Limit, filters.Offset = h.parsePagination(c, 20)

	if raw := c.Query("topic_id"); raw != "" {
		if v, err := strconv.ParseUint(raw, 10, 32); err == nil {
			topicID := uint(v)
			filters.TopicID = &topicID
		}
	}
	if hostID := c.Query("host_id"); hostID != "" {
		filters.HostID = &hostID
	}
	if query := c.Query("q"); query != "" {
		filters.Query = &query
	}

	return filters
}
