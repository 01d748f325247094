package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/studybud-app/room-service/internal/config"
	"github.com/studybud-app/room-service/internal/events"
	"github.com/studybud-app/room-service/internal/gateway"
	"github.com/studybud-app/room-service/internal/repositories"
	"github.com/studybud-app/room-service/internal/validator"
)

type serviceManager struct {
	room    RoomService
	rating  RatingService
	message MessageService
	payment PaymentService
	export  ExportService

	repo           repositories.Repository
	eventPublisher events.EventPublisher
	logger         *slog.Logger
}

// NewServiceManager wires every service against a shared repository,
// database handle, validator, gateway and event publisher.
func NewServiceManager(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator, gw gateway.PaymentGateway, paypalCfg config.PayPalConfig, eventPublisher events.EventPublisher) ServiceManager {
	roomService := NewRoomService(repo, db, logger, v, eventPublisher)

	return &serviceManager{
		room:           roomService,
		rating:         NewRatingService(repo, db, logger, v, roomService, eventPublisher),
		message:        NewMessageService(repo, db, logger, v, roomService, eventPublisher),
		payment:        NewPaymentService(repo, db, logger, gw, paypalCfg, eventPublisher),
		export:         NewExportService(repo, db, logger),
		repo:           repo,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

func (m *serviceManager) Room() RoomService       { return m.room }
func (m *serviceManager) Rating() RatingService   { return m.rating }
func (m *serviceManager) Message() MessageService { return m.message }
func (m *serviceManager) Payment() PaymentService { return m.payment }
func (m *serviceManager) Export() ExportService   { return m.export }

func (m *serviceManager) Initialize(ctx context.Context) error {
	if err := m.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository ping failed: %w", err)
	}
	m.logger.Info("Services initialized")
	return nil
}

func (m *serviceManager) Shutdown(ctx context.Context) error {
	if m.eventPublisher != nil {
		if err := m.eventPublisher.Close(); err != nil {
			m.logger.Error("Failed to close event publisher", "error", err)
		}
	}
	m.logger.Info("Services shut down")
	return nil
}
