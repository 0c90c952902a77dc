package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/inventory"
)

// StockReservationModel is the persistence model for a payment hold.
type StockReservationModel struct {
	BaseModel
	OrderID    uuid.UUID                   `gorm:"type:uuid;not null;index"`
	OrderCode  string                      `gorm:"type:varchar(50);not null"`
	Lines      StockLineList               `gorm:"type:jsonb;not null"`
	ExpireAt   time.Time                   `gorm:"not null;index"`
	Status     inventory.ReservationStatus `gorm:"type:varchar(20);not null;index"`
	Outcome    inventory.ResolutionOutcome `gorm:"type:varchar(20)"`
	ResolvedAt *time.Time
}

// TableName returns the table name for GORM
func (StockReservationModel) TableName() string {
	return "stock_reservations"
}

// ToDomain converts the persistence model to a domain StockReservation.
func (m *StockReservationModel) ToDomain() *inventory.StockReservation {
	return &inventory.StockReservation{
		BaseEntity: m.BaseModel.ToDomain(),
		OrderID:    m.OrderID,
		OrderCode:  m.OrderCode,
		Lines:      []inventory.StockLine(m.Lines),
		ExpireAt:   m.ExpireAt,
		Status:     m.Status,
		Outcome:    m.Outcome,
		ResolvedAt: m.ResolvedAt,
	}
}

// StockReservationModelFromDomain creates a new persistence model from a domain StockReservation.
func StockReservationModelFromDomain(r *inventory.StockReservation) *StockReservationModel {
	m := &StockReservationModel{
		OrderID:    r.OrderID,
		OrderCode:  r.OrderCode,
		Lines:      StockLineList(r.Lines),
		ExpireAt:   r.ExpireAt,
		Status:     r.Status,
		Outcome:    r.Outcome,
		ResolvedAt: r.ResolvedAt,
	}
	m.FromDomainBaseEntity(r.BaseEntity)
	return m
}

// StockMovementModel is the persistence model for the stock audit trail.
type StockMovementModel struct {
	BaseModel
	VariantID     uuid.UUID              `gorm:"type:uuid;not null;index"`
	MovementType  inventory.MovementType `gorm:"type:varchar(30);not null"`
	Quantity      int                    `gorm:"not null"`
	SourceType    inventory.SourceType   `gorm:"type:varchar(30);not null;index:idx_movement_source"`
	SourceID      uuid.UUID              `gorm:"type:uuid;not null;index:idx_movement_source"`
	ReferenceCode string                 `gorm:"type:varchar(50)"`
	Reason        string                 `gorm:"type:varchar(500)"`
	OccurredAt    time.Time              `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (StockMovementModel) TableName() string {
	return "stock_movements"
}

// ToDomain converts the persistence model to a domain StockMovement.
func (m *StockMovementModel) ToDomain() *inventory.StockMovement {
	return &inventory.StockMovement{
		BaseEntity:    m.BaseModel.ToDomain(),
		VariantID:     m.VariantID,
		MovementType:  m.MovementType,
		Quantity:      m.Quantity,
		SourceType:    m.SourceType,
		SourceID:      m.SourceID,
		ReferenceCode: m.ReferenceCode,
		Reason:        m.Reason,
		OccurredAt:    m.OccurredAt,
	}
}

// StockMovementModelFromDomain creates a new persistence model from a domain StockMovement.
func StockMovementModelFromDomain(mv *inventory.StockMovement) *StockMovementModel {
	m := &StockMovementModel{
		VariantID:     mv.VariantID,
		MovementType:  mv.MovementType,
		Quantity:      mv.Quantity,
		SourceType:    mv.SourceType,
		SourceID:      mv.SourceID,
		ReferenceCode: mv.ReferenceCode,
		Reason:        mv.Reason,
		OccurredAt:    mv.OccurredAt,
	}
	m.FromDomainBaseEntity(mv.BaseEntity)
	return m
}
