package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/studybud-app/room-service/internal/models"
	"github.com/studybud-app/room-service/internal/repositories"
)

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentPostgreSQL(db *gorm.DB) repositories.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, tx *gorm.DB, payment *models.Payment) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(payment).Error; err != nil {
		return handleDBError(err, "create payment")
	}
	return nil
}

func (r *paymentRepository) GetByGatewayOrderID(ctx context.Context, tx *gorm.DB, gatewayOrderID string) (*models.Payment, error) {
	db := r.getDB(tx)
	var payment models.Payment

	err := db.WithContext(ctx).
		Where("gateway_order_id = ?", gatewayOrderID).
		First(&payment).Error
	if err != nil {
		return nil, handleDBError(err, "get payment by gateway order id")
	}

	return &payment, nil
}

func (r *paymentRepository) Update(ctx context.Context, tx *gorm.DB, payment *models.Payment) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Save(payment).Error; err != nil {
		return handleDBError(err, "update payment")
	}
	return nil
}

func (r *paymentRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.PaymentFilters) ([]*models.Payment, int64, error) {
	db := r.getDB(tx)
	var payments []*models.Payment
	var total int64

	query := db.WithContext(ctx).Model(&models.Payment{})

	if filters.RoomID != nil {
		query = query.Where("room_id = ?", *filters.RoomID)
	}
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count payments")
	}

	query = query.Order("created_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Find(&payments).Error; err != nil {
		return nil, 0, handleDBError(err, "list payments")
	}

	return payments, total, nil
}

func (r *paymentRepository) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
