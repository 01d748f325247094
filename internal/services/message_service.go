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

type messageService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	roomService    RoomService
	eventPublisher events.EventPublisher
}

func NewMessageService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, roomService RoomService, eventPublisher events.EventPublisher) MessageService {
	return &messageService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      validator,
		roomService:    roomService,
		eventPublisher: eventPublisher,
	}
}

func (s *messageService) Post(ctx context.Context, roomID uint, req *CreateMessageRequest, userID string) (*MessageResponse, error) {
	if errs := s.validator.GetBusinessValidator().ValidateMessageCreate(req); len(errs) > 0 {
		return nil, errs
	}

	canAccess, err := s.roomService.CanAccess(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	if !canAccess {
		return nil, ErrRoomAccessDenied
	}

	var message *models.Message
	err = withTx(ctx, s.db, func(tx *gorm.DB) error {
		if _, err := s.repo.Room().GetByID(ctx, tx, roomID); err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrRoomNotFound
			}
			return fmt.Errorf("failed to get room: %w", err)
		}

		message = &models.Message{
			RoomID:  roomID,
			UserID:  userID,
			Body:    req.Body,
			FileURL: req.FileURL,
		}
		if err := s.repo.Message().Create(ctx, tx, message); err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}

		// Posting joins the room's participant set.
		if err := s.repo.Room().AddParticipant(ctx, tx, roomID, userID); err != nil {
			return fmt.Errorf("failed to add participant: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.NewEvent(events.EventMessagePosted, events.MessagePostedEvent{
		MessageID: message.ID,
		RoomID:    roomID,
		UserID:    userID,
	}))

	s.logger.Info("Message posted", "message_id", message.ID, "room_id", roomID, "user_id", userID)

	return &MessageResponse{Message: message, CanDelete: true}, nil
}

func (s *messageService) Delete(ctx context.Context, messageID uint, userID string) error {
	message, err := s.repo.Message().GetByID(ctx, nil, messageID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrMessageNotFound
		}
		return fmt.Errorf("failed to get message: %w", err)
	}

	if message.UserID != userID {
		return NewPermissionError(userID, messageID, "message", "delete", "not the message author")
	}

	if err := s.repo.Message().Delete(ctx, nil, messageID); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	s.logger.Info("Message deleted", "message_id", messageID, "user_id", userID)
	return nil
}

func (s *messageService) ListByRoom(ctx context.Context, roomID uint, userID string, limit, offset int) (*MessageListResponse, error) {
	canAccess, err := s.roomService.CanAccess(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	if !canAccess {
		return nil, ErrRoomAccessDenied
	}

	messages, total, err := s.repo.Message().List(ctx, nil, repositories.MessageFilters{
		RoomID: &roomID,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	return s.buildMessageListResponse(messages, total, userID), nil
}

func (s *messageService) RecentActivity(ctx context.Context, topicQuery string, limit int) ([]*models.Message, error) {
	filters := repositories.MessageFilters{Limit: limit}
	if topicQuery != "" {
		filters.TopicQuery = &topicQuery
	}

	messages, _, err := s.repo.Message().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent activity: %w", err)
	}

	return messages, nil
}

func (s *messageService) ListByUser(ctx context.Context, userID string, limit, offset int) (*MessageListResponse, error) {
	messages, total, err := s.repo.Message().List(ctx, nil, repositories.MessageFilters{
		UserID: &userID,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list user messages: %w", err)
	}

	return s.buildMessageListResponse(messages, total, userID), nil
}

func (s *messageService) buildMessageListResponse(messages []*models.Message, total int64, userID string) *MessageListResponse {
	responses := make([]*MessageResponse, 0, len(messages))
	for _, message := range messages {
		responses = append(responses, &MessageResponse{
			Message:   message,
			CanDelete: message.UserID == userID,
		})
	}
	return &MessageListResponse{Messages: responses, Total: total}
}

func (s *messageService) publishEvent(ctx context.Context, event *events.Event) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish event", "event_type", event.Type, "error", err)
	}
}
