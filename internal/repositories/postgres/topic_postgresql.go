package postgres

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/studybud-app/room-service/internal/models"
	"github.com/studybud-app/room-service/internal/repositories"
)

type topicRepository struct {
	db *gorm.DB
}

func NewTopicPostgreSQL(db *gorm.DB) repositories.TopicRepository {
	return &topicRepository{db: db}
}

func (r *topicRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Topic, error) {
	db := r.getDB(tx)
	var topic models.Topic

	if err := db.WithContext(ctx).First(&topic, id).Error; err != nil {
		return nil, handleDBError(err, "get topic by id")
	}

	return &topic, nil
}

// GetOrCreateByName finds a topic by its (trimmed, case-insensitive) name,
// creating it when no room has referenced that name before.
func (r *topicRepository) GetOrCreateByName(ctx context.Context, tx *gorm.DB, name string) (*models.Topic, error) {
	db := r.getDB(tx)
	name = strings.TrimSpace(name)

	var topic models.Topic
	err := db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&topic).Error
	if err == nil {
		return &topic, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, handleDBError(err, "get topic by name")
	}

	topic = models.Topic{Name: name}
	if err := db.WithContext(ctx).Create(&topic).Error; err != nil {
		return nil, handleDBError(err, "create topic")
	}

	return &topic, nil
}

func (r *topicRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.TopicFilters) ([]*models.Topic, int64, error) {
	db := r.getDB(tx)
	var topics []*models.Topic
	var total int64

	query := db.WithContext(ctx).Model(&models.Topic{})

	if filters.Query != nil && *filters.Query != "" {
		query = query.Where("name ILIKE ?", "%"+*filters.Query+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count topics")
	}

	query = query.Order("name ASC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Find(&topics).Error; err != nil {
		return nil, 0, handleDBError(err, "list topics")
	}

	return topics, total, nil
}

func (r *topicRepository) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
