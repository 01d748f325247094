package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/studybud-app/room-service/internal/models"
	"github.com/studybud-app/room-service/internal/repositories"
)

type exportService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

const timeLayout = "2006-01-02 15:04:05"

func (s *exportService) ExportRoomActivity(ctx context.Context, roomID uint, userID string) (*excelize.File, error) {
	room, err := s.repo.Room().GetByIDWithDetails(ctx, nil, roomID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	if room.HostID == nil || *room.HostID != userID {
		return nil, NewPermissionError(userID, roomID, "room", "export", "not the room host")
	}

	f := excelize.NewFile()

	if err := s.writeMessagesSheet(f, room); err != nil {
		return nil, err
	}
	if err := s.writeRatingsSheet(f, room); err != nil {
		return nil, err
	}

	s.logger.Info("Room activity exported", "room_id", roomID, "messages", len(room.Messages), "ratings", len(room.Ratings))
	return f, nil
}

func (s *exportService) writeMessagesSheet(f *excelize.File, room *models.Room) error {
	sheet := "Messages"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Message ID", "User ID", "Body", "Posted At"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("failed to build header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for row, msg := range room.Messages {
		values := []interface{}{msg.ID, msg.UserID, msg.Body, msg.CreatedAt.Format(timeLayout)}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return fmt.Errorf("failed to build cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write message row: %w", err)
			}
		}
	}

	return nil
}

func (s *exportService) writeRatingsSheet(f *excelize.File, room *models.Room) error {
	sheet := "Ratings"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create ratings sheet: %w", err)
	}

	headers := []string{"User ID", "Score", "Rated At"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("failed to build header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for row, rating := range room.Ratings {
		values := []interface{}{rating.UserID, rating.Score, rating.UpdatedAt.Format(timeLayout)}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return fmt.Errorf("failed to build cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write rating row: %w", err)
			}
		}
	}

	summaryRow := len(room.Ratings) + 3
	cell, err := excelize.CoordinatesToCellName(1, summaryRow)
	if err != nil {
		return fmt.Errorf("failed to build summary cell: %w", err)
	}
	if err := f.SetCellValue(sheet, cell, fmt.Sprintf("Mean rating: %.2f", room.Rating)); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	return nil
}
