package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/studybud-app/room-service/internal/config"
	"github.com/studybud-app/room-service/internal/events"
	"github.com/studybud-app/room-service/internal/gateway"
	"github.com/studybud-app/room-service/internal/models"
	"github.com/studybud-app/room-service/internal/repositories"
)

type paymentService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	gateway        gateway.PaymentGateway
	cfg            config.PayPalConfig
	eventPublisher events.EventPublisher
}

func NewPaymentService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, gw gateway.PaymentGateway, cfg config.PayPalConfig, eventPublisher events.EventPublisher) PaymentService {
	return &paymentService{
		repo:           repo,
		db:             db,
		logger:         logger,
		gateway:        gw,
		cfg:            cfg,
		eventPublisher: eventPublisher,
	}
}

// StartPayment opens a checkout at the gateway for the given room. Nothing
// about the room changes here; access is only granted when the approved
// checkout is executed.
func (s *paymentService) StartPayment(ctx context.Context, roomID uint, userID string) (*StartPaymentResponse, error) {
	room, err := s.repo.Room().GetByID(ctx, nil, roomID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	alreadyPayee, err := s.repo.Room().IsPayee(ctx, nil, roomID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check payee set: %w", err)
	}
	if alreadyPayee {
		return nil, ErrAlreadyPaid
	}

	description := ""
	if room.Description != nil {
		description = *room.Description
	}

	created, err := s.gateway.CreatePayment(ctx, gateway.CreatePaymentRequest{
		SKU:         strconv.FormatUint(uint64(room.ID), 10),
		Name:        room.Name,
		Description: description,
		Amount:      room.Price,
		Currency:    s.cfg.Currency,
		ReturnURL:   s.cfg.ReturnURL,
		CancelURL:   s.cfg.CancelURL,
	})
	if err != nil {
		s.logger.Error("Gateway checkout failed", "room_id", roomID, "user_id", userID, "error", err)
		return nil, err
	}

	payment := &models.Payment{
		GatewayOrderID: created.OrderID,
		RoomID:         room.ID,
		UserID:         userID,
		Amount:         room.Price,
		Currency:       s.cfg.Currency,
		Status:         models.PaymentPending,
		GatewayPayload: datatypes.JSON(created.Raw),
	}
	if err := s.repo.Payment().Create(ctx, nil, payment); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	s.logger.Info("Payment started", "payment_id", payment.ID, "gateway_order_id", created.OrderID, "room_id", roomID, "user_id", userID)

	return &StartPaymentResponse{
		PaymentID:      payment.ID,
		GatewayOrderID: created.OrderID,
		ApprovalURL:    created.ApprovalURL,
	}, nil
}

// ExecutePayment captures the approved checkout and, on success, adds the
// calling user to the room's payee set and marks the room paid. A capture
// that already completed is a successful no-op. A declined capture marks
// the payment failed and leaves the room untouched; executing the same
// order again retries the capture.
func (s *paymentService) ExecutePayment(ctx context.Context, gatewayOrderID, payerID, userID string) (*ExecutePaymentResponse, error) {
	payment, err := s.repo.Payment().GetByGatewayOrderID(ctx, nil, gatewayOrderID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	if payment.Status == models.PaymentCompleted {
		return &ExecutePaymentResponse{
			PaymentID: payment.ID,
			RoomID:    payment.RoomID,
			Status:    string(payment.Status),
		}, nil
	}

	captured, err := s.gateway.ExecutePayment(ctx, gatewayOrderID, payerID)
	if err != nil {
		s.logger.Error("Gateway capture failed", "gateway_order_id", gatewayOrderID, "user_id", userID, "error", err)
		payment.Status = models.PaymentFailed
		if updErr := s.repo.Payment().Update(ctx, nil, payment); updErr != nil {
			s.logger.Error("Failed to mark payment failed", "gateway_order_id", gatewayOrderID, "error", updErr)
		}
		return nil, err
	}

	// The capture carries the room id as its item reference; a mismatch
	// with the local payment row means the order belongs elsewhere.
	if captured.SKU != "" && captured.SKU != strconv.FormatUint(uint64(payment.RoomID), 10) {
		return nil, fmt.Errorf("capture for order %s references room %s, expected room %d", gatewayOrderID, captured.SKU, payment.RoomID)
	}

	err = withTx(ctx, s.db, func(tx *gorm.DB) error {
		room, err := s.repo.Room().GetByID(ctx, tx, payment.RoomID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrRoomNotFound
			}
			return fmt.Errorf("failed to get room: %w", err)
		}

		now := time.Now().UTC()
		payment.Status = models.PaymentCompleted
		payment.CompletedAt = &now
		if captured.PayerID != "" {
			payment.PayerID = &captured.PayerID
		}
		payment.GatewayPayload = datatypes.JSON(captured.Raw)
		if err := s.repo.Payment().Update(ctx, tx, payment); err != nil {
			return fmt.Errorf("failed to update payment: %w", err)
		}

		if err := s.repo.Room().AddPayee(ctx, tx, room.ID, userID); err != nil {
			return fmt.Errorf("failed to add payee: %w", err)
		}

		if !room.Paye {
			room.Paye = true
			if err := s.repo.Room().Update(ctx, tx, room); err != nil {
				return fmt.Errorf("failed to mark room paid: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.NewEvent(events.EventPaymentCompleted, events.PaymentCompletedEvent{
		PaymentID:      payment.ID,
		GatewayOrderID: payment.GatewayOrderID,
		RoomID:         payment.RoomID,
		UserID:         userID,
		Amount:         payment.Amount,
		Currency:       payment.Currency,
	}))

	s.logger.Info("Payment completed", "payment_id", payment.ID, "gateway_order_id", gatewayOrderID, "room_id", payment.RoomID, "user_id", userID)

	return &ExecutePaymentResponse{
		PaymentID: payment.ID,
		RoomID:    payment.RoomID,
		Status:    string(payment.Status),
	}, nil
}

func (s *paymentService) ListByUser(ctx context.Context, userID string, limit, offset int) (*PaymentListResponse, error) {
	payments, total, err := s.repo.Payment().List(ctx, nil, repositories.PaymentFilters{
		UserID: &userID,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	return &PaymentListResponse{Payments: payments, Total: total}, nil
}

func (s *paymentService) publishEvent(ctx context.Context, event *events.Event) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish event", "event_type", event.Type, "error", err)
	}
}
