package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/studybud-app/room-service/internal/events"
	"github.com/studybud-app/room-service/internal/models"
	"github.com/studybud-app/room-service/internal/repositories"
	"github.com/studybud-app/room-service/internal/validator"
)

type roomService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
}

func NewRoomService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, eventPublisher events.EventPublisher) RoomService {
	return &roomService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      validator,
		eventPublisher: eventPublisher,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *roomService) Create(ctx context.Context, req *CreateRoomRequest, creatorID string) (*RoomResponse, error) {
	s.logger.Info("Creating room", "creator_id", creatorID, "name", req.Name)

	if errs := s.validator.GetBusinessValidator().ValidateRoomCreate(req); len(errs) > 0 {
		return nil, errs
	}

	// Only teachers host rooms
	isTeacher, err := s.repo.User().HasRole(ctx, creatorID, models.RoleTeacher)
	if err != nil {
		return nil, fmt.Errorf("permission check failed: %w", err)
	}
	if !isTeacher {
		return nil, NewPermissionError(creatorID, 0, "room", "create", "only teachers can create rooms")
	}

	var room *models.Room
	var topicName string
	err = withTx(ctx, s.db, func(tx *gorm.DB) error {
		topic, err := s.repo.Topic().GetOrCreateByName(ctx, tx, req.Topic)
		if err != nil {
			return fmt.Errorf("failed to resolve topic: %w", err)
		}
		topicName = topic.Name

		room = &models.Room{
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			FileURL:     req.FileURL,
			HostID:      &creatorID,
			TopicID:     &topic.ID,
		}
		if err := s.repo.Room().Create(ctx, tx, room); err != nil {
			return fmt.Errorf("failed to create room: %w", err)
		}

		// The host gets access to their own room without paying.
		if err := s.repo.Room().AddPayee(ctx, tx, room.ID, creatorID); err != nil {
			return fmt.Errorf("failed to add host as payee: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.NewEvent(events.EventRoomCreated, events.RoomCreatedEvent{
		RoomID: room.ID,
		HostID: creatorID,
		Name:   room.Name,
		Topic:  topicName,
		Price:  room.Price,
	}))

	s.logger.Info("Room created", "room_id", room.ID)

	return s.GetByID(ctx, room.ID, creatorID)
}

func (s *roomService) GetByID(ctx context.Context, id uint, userID string) (*RoomResponse, error) {
	room, err := s.repo.Room().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	return s.buildRoomResponse(ctx, room, userID), nil
}

func (s *roomService) GetByIDWithDetails(ctx context.Context, id uint, userID string) (*RoomResponse, error) {
	canAccess, err := s.CanAccess(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if !canAccess {
		return nil, ErrRoomAccessDenied
	}

	room, err := s.repo.Room().GetByIDWithDetails(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to get room details: %w", err)
	}
	room.MessageCount = len(room.Messages)

	return s.buildRoomResponse(ctx, room, userID), nil
}

func (s *roomService) Update(ctx context.Context, id uint, req *UpdateRoomRequest, userID string) (*RoomResponse, error) {
	if errs := s.validator.GetBusinessValidator().ValidateRoomUpdate(req); len(errs) > 0 {
		return nil, errs
	}

	room, err := s.repo.Room().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	if !s.isHost(room, userID) {
		return nil, NewPermissionError(userID, id, "room", "update", "not the room host")
	}

	err = withTx(ctx, s.db, func(tx *gorm.DB) error {
		if req.Topic != nil {
			topic, err := s.repo.Topic().GetOrCreateByName(ctx, tx, *req.Topic)
			if err != nil {
				return fmt.Errorf("failed to resolve topic: %w", err)
			}
			room.TopicID = &topic.ID
		}
		if req.Name != nil {
			room.Name = *req.Name
		}
		if req.Description != nil {
			room.Description = req.Description
		}
		if req.Price != nil {
			room.Price = *req.Price
		}
		if req.FileURL != nil {
			room.FileURL = req.FileURL
		}

		return s.repo.Room().Update(ctx, tx, room)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Room updated", "room_id", id, "user_id", userID)

	return s.GetByID(ctx, id, userID)
}

func (s *roomService) Delete(ctx context.Context, id uint, userID string) error {
	room, err := s.repo.Room().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrRoomNotFound
		}
		return fmt.Errorf("failed to get room: %w", err)
	}

	if !s.isHost(room, userID) {
		return NewPermissionError(userID, id, "room", "delete", "not the room host")
	}

	// Rooms are soft-deleted, so the ratings and messages cascade is these
	// statements; they must commit or roll back together.
	err = withTx(ctx, s.db, func(tx *gorm.DB) error {
		return s.repo.Room().Delete(ctx, tx, id)
	})
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}

	s.logger.Info("Room deleted", "room_id", id, "user_id", userID)
	return nil
}

// ===== QUERY OPERATIONS =====

func (s *roomService) List(ctx context.Context, filters repositories.RoomFilters, userID string) (*RoomListResponse, error) {
	rooms, total, err := s.repo.Room().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	return s.buildRoomListResponse(ctx, rooms, total, filters, userID), nil
}

func (s *roomService) Search(ctx context.Context, query string, filters repositories.RoomFilters, userID string) (*RoomListResponse, error) {
	rooms, total, err := s.repo.Room().Search(ctx, nil, query, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to search rooms: %w", err)
	}

	return s.buildRoomListResponse(ctx, rooms, total, filters, userID), nil
}

func (s *roomService) Home(ctx context.Context, query string, userID string) (*HomeResponse, error) {
	base := repositories.RoomFilters{SortBy: "created_at", SortOrder: "desc"}
	if query != "" {
		base.Query = &query
	}

	resp := &HomeResponse{
		PaidRooms:   []*RoomResponse{},
		UnpaidRooms: []*RoomResponse{},
	}

	if userID != "" {
		paidFilters := base
		paidFilters.PayeeID = &userID
		paid, _, err := s.repo.Room().List(ctx, nil, paidFilters)
		if err != nil {
			return nil, fmt.Errorf("failed to list paid rooms: %w", err)
		}
		for _, room := range paid {
			resp.PaidRooms = append(resp.PaidRooms, s.buildRoomResponse(ctx, room, userID))
		}

		unpaidFilters := base
		unpaidFilters.ExcludePayeeID = &userID
		unpaid, _, err := s.repo.Room().List(ctx, nil, unpaidFilters)
		if err != nil {
			return nil, fmt.Errorf("failed to list unpaid rooms: %w", err)
		}
		for _, room := range unpaid {
			resp.UnpaidRooms = append(resp.UnpaidRooms, s.buildRoomResponse(ctx, room, userID))
		}
	} else {
		all, _, err := s.repo.Room().List(ctx, nil, base)
		if err != nil {
			return nil, fmt.Errorf("failed to list rooms: %w", err)
		}
		for _, room := range all {
			resp.UnpaidRooms = append(resp.UnpaidRooms, s.buildRoomResponse(ctx, room, userID))
		}
	}

	resp.RoomCount = int64(len(resp.PaidRooms) + len(resp.UnpaidRooms))

	topics, _, err := s.repo.Topic().List(ctx, nil, repositories.TopicFilters{Limit: 5})
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	resp.Topics = topics

	if query != "" {
		recent, _, err := s.repo.Message().List(ctx, nil, repositories.MessageFilters{
			TopicQuery: &query,
			Limit:      3,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list recent messages: %w", err)
		}
		resp.RecentMessages = recent
	} else {
		recent, _, err := s.repo.Message().List(ctx, nil, repositories.MessageFilters{Limit: 3})
		if err != nil {
			return nil, fmt.Errorf("failed to list recent messages: %w", err)
		}
		resp.RecentMessages = recent
	}

	return resp, nil
}

func (s *roomService) ListTopics(ctx context.Context, query string, limit, offset int) (*TopicListResponse, error) {
	filters := repositories.TopicFilters{Limit: limit, Offset: offset}
	if query != "" {
		filters.Query = &query
	}

	topics, total, err := s.repo.Topic().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}

	return &TopicListResponse{Topics: topics, Total: total}, nil
}

// ===== ACCESS CONTROL =====

func (s *roomService) CanAccess(ctx context.Context, roomID uint, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}

	isPayee, err := s.repo.Room().IsPayee(ctx, nil, roomID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check room access: %w", err)
	}

	return isPayee, nil
}

// ===== HELPERS =====

func (s *roomService) isHost(room *models.Room, userID string) bool {
	return room.HostID != nil && *room.HostID == userID
}

func (s *roomService) buildRoomResponse(ctx context.Context, room *models.Room, userID string) *RoomResponse {
	isHost := s.isHost(room, userID)

	canAccess := isHost
	if !canAccess && userID != "" {
		isPayee, err := s.repo.Room().IsPayee(ctx, nil, room.ID, userID)
		if err != nil {
			s.logger.Error("Failed to check payee set", "room_id", room.ID, "user_id", userID, "error", err)
		} else {
			canAccess = isPayee
		}
	}

	hasPayments := room.Paye
	if !hasPayments {
		stats, err := s.repo.Room().GetStats(ctx, nil, room.ID)
		if err != nil {
			s.logger.Error("Failed to load room stats", "room_id", room.ID, "error", err)
		} else {
			// The host is always a payee, so payments exist once anyone
			// else appears in the set.
			hasPayments = stats.PayeeCount > 1
		}
	}

	return &RoomResponse{
		Room:        room,
		CanEdit:     isHost,
		CanDelete:   isHost,
		CanAccess:   canAccess,
		HasPayments: hasPayments,
	}
}

func (s *roomService) buildRoomListResponse(ctx context.Context, rooms []*models.Room, total int64, filters repositories.RoomFilters, userID string) *RoomListResponse {
	responses := make([]*RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		responses = append(responses, s.buildRoomResponse(ctx, room, userID))
	}

	page := 1
	size := filters.Limit
	if size > 0 {
		page = filters.Offset/size + 1
	}

	return &RoomListResponse{
		Rooms: responses,
		Total: total,
		Page:  page,
		Size:  size,
	}
}

func (s *roomService) publishEvent(ctx context.Context, event *events.Event) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish event", "event_type", event.Type, "error", err)
	}
}
