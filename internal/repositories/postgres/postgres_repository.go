package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/studybud-app/room-service/internal/cache"
	"github.com/studybud-app/room-service/internal/repositories"
	"github.com/studybud-app/room-service/internal/repositories/casdoor"
)

// PostgreSQLRepository implements the main Repository interface
type PostgreSQLRepository struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cacheManager *cache.CacheManager

	// Repository instances
	room    repositories.RoomRepository
	topic   repositories.TopicRepository
	rating  repositories.RatingRepository
	message repositories.MessageRepository
	payment repositories.PaymentRepository
	user    repositories.UserRepository
}

// RepositoryConfig holds configuration for repository initialization
type RepositoryConfig struct {
	DB            *gorm.DB
	RedisClient   *redis.Client
	CasdoorConfig casdoor.CasdoorConfig
}

// NewPostgreSQLRepository creates a new repository manager with all sub-repositories
func NewPostgreSQLRepository(config RepositoryConfig) repositories.Repository {
	repo := &PostgreSQLRepository{
		db:           config.DB,
		redisClient:  config.RedisClient,
		cacheManager: cache.NewCacheManager(config.RedisClient),
	}

	repo.room = NewRoomPostgreSQL(config.DB, config.RedisClient)
	repo.topic = NewTopicPostgreSQL(config.DB)
	repo.rating = NewRatingPostgreSQL(config.DB)
	repo.message = NewMessagePostgreSQL(config.DB)
	repo.payment = NewPaymentPostgreSQL(config.DB)

	// User repository uses Casdoor
	repo.user = casdoor.NewUserCasdoor(config.CasdoorConfig, config.RedisClient)

	return repo
}

func (r *PostgreSQLRepository) Room() repositories.RoomRepository       { return r.room }
func (r *PostgreSQLRepository) Topic() repositories.TopicRepository     { return r.topic }
func (r *PostgreSQLRepository) Rating() repositories.RatingRepository   { return r.rating }
func (r *PostgreSQLRepository) Message() repositories.MessageRepository { return r.message }
func (r *PostgreSQLRepository) Payment() repositories.PaymentRepository { return r.payment }
func (r *PostgreSQLRepository) User() repositories.UserRepository       { return r.user }

// WithTransaction executes a function within a database transaction
func (r *PostgreSQLRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &PostgreSQLRepository{
			db:           tx,
			redisClient:  r.redisClient,
			cacheManager: r.cacheManager,
		}

		txRepo.room = NewRoomPostgreSQL(tx, r.redisClient)
		txRepo.topic = NewTopicPostgreSQL(tx)
		txRepo.rating = NewRatingPostgreSQL(tx)
		txRepo.message = NewMessagePostgreSQL(tx)
		txRepo.payment = NewPaymentPostgreSQL(tx)

		// User repository doesn't need the transaction (it's external)
		txRepo.user = r.user

		return fn(txRepo)
	})
}

func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (r *PostgreSQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// ===== REPOSITORY MANAGER =====

type repositoryManager struct {
	config RepositoryConfig
	repo   repositories.Repository
}

// NewRepositoryManager creates a manager handling repository lifecycle
func NewRepositoryManager(config RepositoryConfig) repositories.RepositoryManager {
	return &repositoryManager{config: config}
}

func (m *repositoryManager) Initialize() error {
	if m.config.DB == nil {
		return fmt.Errorf("database connection is required")
	}

	m.repo = NewPostgreSQLRepository(m.config)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.repo.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}

func (m *repositoryManager) GetRepository() repositories.Repository {
	return m.repo
}

func (m *repositoryManager) HealthCheck(ctx context.Context) error {
	if m.repo == nil {
		return fmt.Errorf("repositories not initialized")
	}
	return m.repo.Ping(ctx)
}

func (m *repositoryManager) Shutdown(ctx context.Context) error {
	if m.repo == nil {
		return nil
	}
	return m.repo.Close()
}
