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

type ratingService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	roomService    RoomService
	eventPublisher events.EventPublisher
}

func NewRatingService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, roomService RoomService, eventPublisher events.EventPublisher) RatingService {
	return &ratingService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      validator,
		roomService:    roomService,
		eventPublisher: eventPublisher,
	}
}

func (s *ratingService) RecordRating(ctx context.Context, roomID uint, userID string, req *RateRoomRequest) (*RatingResponse, error) {
	if errs := s.validator.GetBusinessValidator().ValidateRating(req); len(errs) > 0 {
		return nil, errs
	}

	canAccess, err := s.roomService.CanAccess(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	if !canAccess {
		return nil, ErrRoomAccessDenied
	}

	var rating *models.RoomRating
	var mean float64
	var count int64

	// Upsert and mean recompute share one transaction so the cached value
	// on the room can never drift from the rating rows.
	err = withTx(ctx, s.db, func(tx *gorm.DB) error {
		room, err := s.repo.Room().GetByID(ctx, tx, roomID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrRoomNotFound
			}
			return fmt.Errorf("failed to get room: %w", err)
		}

		rating = &models.RoomRating{
			RoomID: roomID,
			UserID: userID,
			Score:  req.Score,
		}
		if err := s.repo.Rating().Upsert(ctx, tx, rating); err != nil {
			return fmt.Errorf("failed to record rating: %w", err)
		}

		mean, count, err = s.repo.Rating().AverageForRoom(ctx, tx, roomID)
		if err != nil {
			return fmt.Errorf("failed to recompute rating mean: %w", err)
		}

		room.Rating = mean
		if err := s.repo.Room().Update(ctx, tx, room); err != nil {
			return fmt.Errorf("failed to store rating mean: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.NewEvent(events.EventRoomRated, events.RoomRatedEvent{
		RoomID:    roomID,
		UserID:    userID,
		Score:     req.Score,
		NewRating: mean,
	}))

	s.logger.Info("Rating recorded", "room_id", roomID, "user_id", userID, "score", req.Score, "mean", mean)

	return &RatingResponse{
		RoomRating:     rating,
		RoomRatingMean: mean,
		RatingCount:    count,
	}, nil
}

func (s *ratingService) GetRoomRatings(ctx context.Context, roomID uint, userID string) ([]*models.RoomRating, error) {
	canAccess, err := s.roomService.CanAccess(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	if !canAccess {
		return nil, ErrRoomAccessDenied
	}

	ratings, err := s.repo.Rating().ListByRoom(ctx, nil, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}

	return ratings, nil
}

func (s *ratingService) publishEvent(ctx context.Context, event *events.Event) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish event", "event_type", event.Type, "error", err)
	}
}
