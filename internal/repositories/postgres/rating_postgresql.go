package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/studybud-app/room-service/internal/models"
	"github.com/studybud-app/room-service/internal/repositories"
)

type ratingRepository struct {
	db *gorm.DB
}

func NewRatingPostgreSQL(db *gorm.DB) repositories.RatingRepository {
	return &ratingRepository{db: db}
}

// Upsert writes the (user, room) rating row, overwriting the score when the
// pair already exists. The unique index on (room_id, user_id) guarantees at
// most one row per pair.
func (r *ratingRepository) Upsert(ctx context.Context, tx *gorm.DB, rating *models.RoomRating) error {
	db := r.getDB(tx)

	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "updated_at"}),
	}).Create(rating).Error

	return handleDBError(err, "upsert rating")
}

func (r *ratingRepository) GetByRoomAndUser(ctx context.Context, tx *gorm.DB, roomID uint, userID string) (*models.RoomRating, error) {
	db := r.getDB(tx)
	var rating models.RoomRating

	err := db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		First(&rating).Error
	if err != nil {
		return nil, handleDBError(err, "get rating")
	}

	return &rating, nil
}

func (r *ratingRepository) ListByRoom(ctx context.Context, tx *gorm.DB, roomID uint) ([]*models.RoomRating, error) {
	db := r.getDB(tx)
	var ratings []*models.RoomRating

	err := db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("updated_at DESC").
		Find(&ratings).Error
	if err != nil {
		return nil, handleDBError(err, "list ratings")
	}

	return ratings, nil
}

func (r *ratingRepository) AverageForRoom(ctx context.Context, tx *gorm.DB, roomID uint) (float64, int64, error) {
	db := r.getDB(tx)

	var result struct {
		Average float64
		Count   int64
	}

	err := db.WithContext(ctx).
		Model(&models.RoomRating{}).
		Select("COALESCE(AVG(score), 0) AS average, COUNT(*) AS count").
		Where("room_id = ?", roomID).
		Scan(&result).Error
	if err != nil {
		return 0, 0, handleDBError(err, "average rating")
	}

	return result.Average, result.Count, nil
}

func (r *ratingRepository) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
