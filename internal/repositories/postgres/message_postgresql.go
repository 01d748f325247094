package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/studybud-app/room-service/internal/models"
	"github.com/studybud-app/room-service/internal/repositories"
)

type messageRepository struct {
	db *gorm.DB
}

func NewMessagePostgreSQL(db *gorm.DB) repositories.MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, tx *gorm.DB, message *models.Message) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(message).Error; err != nil {
		return handleDBError(err, "create message")
	}
	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Message, error) {
	db := r.getDB(tx)
	var message models.Message

	if err := db.WithContext(ctx).
		Preload("User").
		Preload("Room").
		First(&message, id).Error; err != nil {
		return nil, handleDBError(err, "get message by id")
	}

	return &message, nil
}

func (r *messageRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Delete(&models.Message{}, id).Error; err != nil {
		return handleDBError(err, "delete message")
	}
	return nil
}

// List returns messages newest-first by (updated_at, created_at), matching
// the feed ordering of the room view and the activity page.
func (r *messageRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.MessageFilters) ([]*models.Message, int64, error) {
	db := r.getDB(tx)
	var messages []*models.Message
	var total int64

	query := db.WithContext(ctx).Model(&models.Message{}).
		Preload("User").
		Preload("Room")

	if filters.RoomID != nil {
		query = query.Where("messages.room_id = ?", *filters.RoomID)
	}
	if filters.UserID != nil {
		query = query.Where("messages.user_id = ?", *filters.UserID)
	}
	if filters.TopicQuery != nil && *filters.TopicQuery != "" {
		query = query.
			Joins("INNER JOIN rooms ON rooms.id = messages.room_id").
			Joins("LEFT JOIN topics ON topics.id = rooms.topic_id").
			Where("topics.name ILIKE ?", "%"+*filters.TopicQuery+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count messages")
	}

	query = query.Order("messages.updated_at DESC, messages.created_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Find(&messages).Error; err != nil {
		return nil, 0, handleDBError(err, "list messages")
	}

	return messages, total, nil
}

func (r *messageRepository) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
