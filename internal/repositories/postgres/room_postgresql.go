package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/studybud-app/room-service/internal/cache"
	"github.com/studybud-app/room-service/internal/models"
	"github.com/studybud-app/room-service/internal/repositories"
)

type roomRepository struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewRoomPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.RoomRepository {
	return &roomRepository{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// ===== BASIC CRUD OPERATIONS =====

func (r *roomRepository) Create(ctx context.Context, tx *gorm.DB, room *models.Room) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(room).Error; err != nil {
		return handleDBError(err, "create room")
	}

	cache.SafeInvalidatePattern(ctx, r.cacheManager.Room, "list:*")
	return nil
}

func (r *roomRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Room, error) {
	// Reads inside a transaction bypass the cache: they may observe rows
	// the cache has not seen yet.
	if tx != nil {
		return r.fetchByID(ctx, tx, id)
	}

	var room models.Room
	err := r.cacheManager.Room.CacheOrExecute(ctx, fmt.Sprintf("id:%d", id), &room, cache.RoomCacheConfig.TTL, func() (interface{}, error) {
		return r.fetchByID(ctx, nil, id)
	})
	if err != nil {
		return nil, err
	}

	return &room, nil
}

func (r *roomRepository) fetchByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Room, error) {
	db := r.getDB(tx)
	var room models.Room

	if err := db.WithContext(ctx).
		Preload("Host").
		Preload("Topic").
		First(&room, id).Error; err != nil {
		return nil, handleDBError(err, "get room by id")
	}

	return &room, nil
}

func (r *roomRepository) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Room, error) {
	db := r.getDB(tx)
	var room models.Room

	if err := db.WithContext(ctx).
		Preload("Host").
		Preload("Topic").
		Preload("Participants").
		Preload("Payees").
		Preload("Ratings").
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("updated_at DESC, created_at DESC").Preload("User")
		}).
		First(&room, id).Error; err != nil {
		return nil, handleDBError(err, "get room with details")
	}

	return &room, nil
}

func (r *roomRepository) Update(ctx context.Context, tx *gorm.DB, room *models.Room) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Save(room).Error; err != nil {
		return handleDBError(err, "update room")
	}

	cache.InvalidateRoomCache(ctx, r.cacheManager, room.ID)
	return nil
}

func (r *roomRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := r.getDB(tx)

	// Ratings and messages are owned by the room.
	if err := db.WithContext(ctx).Where("room_id = ?", id).Delete(&models.RoomRating{}).Error; err != nil {
		return handleDBError(err, "delete room ratings")
	}
	if err := db.WithContext(ctx).Where("room_id = ?", id).Delete(&models.Message{}).Error; err != nil {
		return handleDBError(err, "delete room messages")
	}
	if err := db.WithContext(ctx).Delete(&models.Room{}, id).Error; err != nil {
		return handleDBError(err, "delete room")
	}

	cache.InvalidateRoomCache(ctx, r.cacheManager, id)
	return nil
}

// ===== QUERY OPERATIONS =====

func (r *roomRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.RoomFilters) ([]*models.Room, int64, error) {
	db := r.getDB(tx)
	var rooms []*models.Room
	var total int64

	query := db.WithContext(ctx).Model(&models.Room{}).
		Preload("Host").
		Preload("Topic")

	query = r.applyRoomFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count rooms")
	}

	query = applyPaginationAndSort(query, "rooms", filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Find(&rooms).Error; err != nil {
		return nil, 0, handleDBError(err, "list rooms")
	}

	return rooms, total, nil
}

func (r *roomRepository) Search(ctx context.Context, tx *gorm.DB, query string, filters repositories.RoomFilters) ([]*models.Room, int64, error) {
	filters.Query = &query
	return r.List(ctx, tx, filters)
}

func (r *roomRepository) applyRoomFilters(query *gorm.DB, filters repositories.RoomFilters) *gorm.DB {
	if filters.Query != nil && *filters.Query != "" {
		pattern := "%" + *filters.Query + "%"
		query = query.
			Joins("LEFT JOIN topics ON topics.id = rooms.topic_id").
			Where("rooms.name ILIKE ? OR rooms.description ILIKE ? OR topics.name ILIKE ?",
				pattern, pattern, pattern)
	}
	if filters.TopicID != nil {
		query = query.Where("rooms.topic_id = ?", *filters.TopicID)
	}
	if filters.HostID != nil {
		query = query.Where("rooms.host_id = ?", *filters.HostID)
	}
	if filters.PayeeID != nil {
		query = query.Where("rooms.id IN (SELECT room_id FROM room_payees WHERE user_id = ?)", *filters.PayeeID)
	}
	if filters.ExcludePayeeID != nil {
		query = query.Where("rooms.id NOT IN (SELECT room_id FROM room_payees WHERE user_id = ?)", *filters.ExcludePayeeID)
	}
	return query
}

// ===== PAYEE / PARTICIPANT SET OPERATIONS =====

func (r *roomRepository) AddPayee(ctx context.Context, tx *gorm.DB, roomID uint, userID string) error {
	db := r.getDB(tx)

	// ON CONFLICT keeps the add idempotent: re-adding an existing payee is
	// a no-op, never an error.
	err := db.WithContext(ctx).Exec(
		"INSERT INTO room_payees (room_id, user_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
		roomID, userID,
	).Error
	if err != nil {
		return handleDBError(err, "add payee")
	}

	cache.InvalidateRoomCache(ctx, r.cacheManager, roomID)
	return nil
}

func (r *roomRepository) IsPayee(ctx context.Context, tx *gorm.DB, roomID uint, userID string) (bool, error) {
	db := r.getDB(tx)
	var count int64

	err := db.WithContext(ctx).
		Table("room_payees").
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	if err != nil {
		return false, handleDBError(err, "check payee")
	}

	return count > 0, nil
}

func (r *roomRepository) AddParticipant(ctx context.Context, tx *gorm.DB, roomID uint, userID string) error {
	db := r.getDB(tx)

	err := db.WithContext(ctx).Exec(
		"INSERT INTO room_participants (room_id, user_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
		roomID, userID,
	).Error
	return handleDBError(err, "add participant")
}

// ===== STATISTICS =====

func (r *roomRepository) GetStats(ctx context.Context, tx *gorm.DB, roomID uint) (*repositories.RoomStats, error) {
	db := r.getDB(tx)
	stats := &repositories.RoomStats{}

	row := db.WithContext(ctx).
		Model(&models.RoomRating{}).
		Select("COUNT(*), COALESCE(AVG(score), 0)").
		Where("room_id = ?", roomID).
		Row()
	if err := row.Scan(&stats.RatingCount, &stats.AverageRating); err != nil {
		return nil, handleDBError(err, "get rating stats")
	}

	var messageCount int64
	if err := db.WithContext(ctx).Model(&models.Message{}).
		Where("room_id = ?", roomID).Count(&messageCount).Error; err != nil {
		return nil, handleDBError(err, "count messages")
	}
	stats.MessageCount = int(messageCount)

	var participantCount int64
	if err := db.WithContext(ctx).Table("room_participants").
		Where("room_id = ?", roomID).Count(&participantCount).Error; err != nil {
		return nil, handleDBError(err, "count participants")
	}
	stats.ParticipantCount = int(participantCount)

	var payeeCount int64
	if err := db.WithContext(ctx).Table("room_payees").
		Where("room_id = ?", roomID).Count(&payeeCount).Error; err != nil {
		return nil, handleDBError(err, "count payees")
	}
	stats.PayeeCount = int(payeeCount)

	return stats, nil
}

func (r *roomRepository) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
