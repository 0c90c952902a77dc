package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormStockReservationRepository implements ReservationRepository using GORM
type GormStockReservationRepository struct {
	db *gorm.DB
}

// NewGormStockReservationRepository creates a new GormStockReservationRepository
func NewGormStockReservationRepository(db *gorm.DB) *GormStockReservationRepository {
	return &GormStockReservationRepository{db: db}
}

// FindByID finds a reservation by its ID
func (r *GormStockReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockReservation, error) {
	var model models.StockReservationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindActiveByOrder finds the unresolved reservation of an order
func (r *GormStockReservationRepository) FindActiveByOrder(ctx context.Context, orderID uuid.UUID) (*inventory.StockReservation, error) {
	var model models.StockReservationModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ? AND status = ?", orderID, inventory.ReservationStatusActive).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindExpired finds active reservations that expired at or before now, oldest first
func (r *GormStockReservationRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]inventory.StockReservation, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []models.StockReservationModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND expire_at <= ?", inventory.ReservationStatusActive, now).
		Order("expire_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	reservations := make([]inventory.StockReservation, len(rows))
	for i := range rows {
		reservations[i] = *rows[i].ToDomain()
	}
	return reservations, nil
}

// Create inserts a new reservation
func (r *GormStockReservationRepository) Create(ctx context.Context, reservation *inventory.StockReservation) error {
	return translateError(r.db.WithContext(ctx).Create(models.StockReservationModelFromDomain(reservation)).Error)
}

// CountActive counts holds that are still unresolved
func (r *GormStockReservationRepository) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.StockReservationModel{}).
		Where("status = ?", inventory.ReservationStatusActive).
		Count(&n).Error
	return n, translateError(err)
}

// MarkResolved writes the resolution only while the row is still ACTIVE.
// False means another caller got there first and nothing was written.
func (r *GormStockReservationRepository) MarkResolved(ctx context.Context, reservation *inventory.StockReservation) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.StockReservationModel{}).
		Where("id = ? AND status = ?", reservation.ID, inventory.ReservationStatusActive).
		Updates(map[string]any{
			"status":      reservation.Status,
			"outcome":     reservation.Outcome,
			"resolved_at": reservation.ResolvedAt,
			"updated_at":  reservation.UpdatedAt,
		})
	if result.Error != nil {
		return false, translateError(result.Error)
	}
	return result.RowsAffected == 1, nil
}

var _ inventory.ReservationRepository = (*GormStockReservationRepository)(nil)
