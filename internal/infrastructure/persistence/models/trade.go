package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/domain/trade"
)

// BankColumns stores an optional BankInfo as three nullable columns.
type BankColumns struct {
	BankName      *string `gorm:"type:varchar(100)"`
	AccountNumber *string `gorm:"type:varchar(30)"`
	AccountHolder *string `gorm:"type:varchar(200)"`
}

func bankColumnsFromDomain(b *valueobject.BankInfo) BankColumns {
	if b == nil || b.IsZero() {
		return BankColumns{}
	}
	name, number, holder := b.BankName, b.AccountNumber, b.AccountHolder
	return BankColumns{BankName: &name, AccountNumber: &number, AccountHolder: &holder}
}

func (c BankColumns) toDomain() *valueobject.BankInfo {
	if c.AccountNumber == nil {
		return nil
	}
	info := valueobject.BankInfo{AccountNumber: *c.AccountNumber}
	if c.BankName != nil {
		info.BankName = *c.BankName
	}
	if c.AccountHolder != nil {
		info.AccountHolder = *c.AccountHolder
	}
	return &info
}

// OrderModel is the persistence model for the Order aggregate root.
type OrderModel struct {
	AggregateModel
	OrderCode     string              `gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerName  string              `gorm:"type:varchar(200);not null"`
	CustomerPhone string              `gorm:"type:varchar(20);not null;index"`
	CustomerEmail string              `gorm:"type:varchar(200)"`
	AddressLine1  string              `gorm:"type:varchar(300);not null"`
	Ward          string              `gorm:"type:varchar(100)"`
	District      string              `gorm:"type:varchar(100);not null"`
	City          string              `gorm:"type:varchar(100);not null"`
	Items         []OrderItemModel    `gorm:"foreignKey:OrderID;references:ID"`
	Subtotal      decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	ShippingFee   decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	TotalAmount   decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	PaymentMethod trade.PaymentMethod `gorm:"type:varchar(10);not null"`
	Status        trade.OrderStatus   `gorm:"type:varchar(30);not null;index"`
	PaymentStatus trade.PaymentStatus `gorm:"type:varchar(20);not null;index"`
	Notes         string              `gorm:"type:text"`
	RefundBank    BankColumns         `gorm:"embedded;embeddedPrefix:refund_"`
	CancelReason  string              `gorm:"type:varchar(500)"`
	PaidAt        *time.Time
	ConfirmedAt   *time.Time
	PackedAt      *time.Time
	ShippedAt     *time.Time
	CompletedAt   *time.Time `gorm:"index"`
	CancelledAt   *time.Time
	RefundedAt    *time.Time
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order. It fails when
// the stored status pair is not a legal combination.
func (m *OrderModel) ToDomain() (*trade.Order, error) {
	state, err := trade.NewOrderState(m.PaymentMethod, m.Status, m.PaymentStatus)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", m.OrderCode, err)
	}
	order := &trade.Order{
		BaseAggregateRoot: m.ToAggregateRoot(),
		OrderCode:         m.OrderCode,
		Customer: valueobject.RestoreShippingContact(
			m.CustomerName, m.CustomerPhone, m.CustomerEmail,
			m.AddressLine1, m.Ward, m.District, m.City,
		),
		Items:          make([]trade.OrderItem, len(m.Items)),
		Subtotal:       m.Subtotal,
		ShippingFee:    m.ShippingFee,
		TotalAmount:    m.TotalAmount,
		PaymentMethod:  m.PaymentMethod,
		Notes:          m.Notes,
		RefundBankInfo: m.RefundBank.toDomain(),
		CancelReason:   m.CancelReason,
		PaidAt:         m.PaidAt,
		ConfirmedAt:    m.ConfirmedAt,
		PackedAt:       m.PackedAt,
		ShippedAt:      m.ShippedAt,
		CompletedAt:    m.CompletedAt,
		CancelledAt:    m.CancelledAt,
		RefundedAt:     m.RefundedAt,
	}
	order.LoadState(state)
	for i := range m.Items {
		order.Items[i] = m.Items[i].ToDomain()
	}
	return order, nil
}

// FromDomain populates the persistence model from a domain Order.
func (m *OrderModel) FromDomain(o *trade.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.OrderCode = o.OrderCode
	m.CustomerName = o.Customer.Recipient()
	m.CustomerPhone = o.Customer.Phone()
	m.CustomerEmail = o.Customer.Email()
	m.AddressLine1 = o.Customer.Line1()
	m.Ward = o.Customer.Ward()
	m.District = o.Customer.District()
	m.City = o.Customer.City()
	m.Subtotal = o.Subtotal
	m.ShippingFee = o.ShippingFee
	m.TotalAmount = o.TotalAmount
	m.PaymentMethod = o.PaymentMethod
	m.Status = o.Status()
	m.PaymentStatus = o.PaymentStatus()
	m.Notes = o.Notes
	m.RefundBank = bankColumnsFromDomain(o.RefundBankInfo)
	m.CancelReason = o.CancelReason
	m.PaidAt = o.PaidAt
	m.ConfirmedAt = o.ConfirmedAt
	m.PackedAt = o.PackedAt
	m.ShippedAt = o.ShippedAt
	m.CompletedAt = o.CompletedAt
	m.CancelledAt = o.CancelledAt
	m.RefundedAt = o.RefundedAt
	m.Items = make([]OrderItemModel, len(o.Items))
	for i := range o.Items {
		m.Items[i] = *OrderItemModelFromDomain(&o.Items[i])
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order.
func OrderModelFromDomain(o *trade.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// OrderItemModel is the persistence model for an order line.
type OrderItemModel struct {
	BaseModel
	OrderID            uuid.UUID              `gorm:"type:uuid;not null;index"`
	ProductID          uuid.UUID              `gorm:"type:uuid;not null"`
	VariantID          uuid.UUID              `gorm:"type:uuid;not null;index"`
	ProductName        string                 `gorm:"type:varchar(200);not null"`
	VariantLabel       string                 `gorm:"type:varchar(100)"`
	ThumbnailURL       string                 `gorm:"type:varchar(500)"`
	UnitPrice          decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	Quantity           int                    `gorm:"not null"`
	Amount             decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	ShippingAllocation decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	ReturnStatus       trade.ItemReturnStatus `gorm:"type:varchar(20);not null;default:'NONE'"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain OrderItem.
func (m *OrderItemModel) ToDomain() trade.OrderItem {
	return trade.OrderItem{
		ID:                 m.ID,
		OrderID:            m.OrderID,
		ProductID:          m.ProductID,
		VariantID:          m.VariantID,
		ProductName:        m.ProductName,
		VariantLabel:       m.VariantLabel,
		ThumbnailURL:       m.ThumbnailURL,
		UnitPrice:          m.UnitPrice,
		Quantity:           m.Quantity,
		Amount:             m.Amount,
		ShippingAllocation: m.ShippingAllocation,
		ReturnStatus:       m.ReturnStatus,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

// OrderItemModelFromDomain creates a new persistence model from a domain OrderItem.
func OrderItemModelFromDomain(i *trade.OrderItem) *OrderItemModel {
	return &OrderItemModel{
		BaseModel: BaseModel{
			ID:        i.ID,
			CreatedAt: i.CreatedAt,
			UpdatedAt: i.UpdatedAt,
		},
		OrderID:            i.OrderID,
		ProductID:          i.ProductID,
		VariantID:          i.VariantID,
		ProductName:        i.ProductName,
		VariantLabel:       i.VariantLabel,
		ThumbnailURL:       i.ThumbnailURL,
		UnitPrice:          i.UnitPrice,
		Quantity:           i.Quantity,
		Amount:             i.Amount,
		ShippingAllocation: i.ShippingAllocation,
		ReturnStatus:       i.ReturnStatus,
	}
}

// ReturnRequestModel is the persistence model for the ReturnRequest aggregate root.
type ReturnRequestModel struct {
	AggregateModel
	RequestCode      string                    `gorm:"type:varchar(50);not null;uniqueIndex"`
	OrderID          uuid.UUID                 `gorm:"type:uuid;not null;index"`
	OrderCode        string                    `gorm:"type:varchar(50);not null"`
	OrderItemID      uuid.UUID                 `gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID                 `gorm:"type:uuid;not null"`
	VariantID        uuid.UUID                 `gorm:"type:uuid;not null"`
	Quantity         int                       `gorm:"not null"`
	Type             trade.ReturnType          `gorm:"type:varchar(20);not null"`
	Reason           string                    `gorm:"type:text;not null"`
	EvidenceImages   StringList                `gorm:"type:jsonb;not null"`
	Bank             BankColumns               `gorm:"embedded;embeddedPrefix:refund_"`
	ExchangeSize     string                    `gorm:"type:varchar(50)"`
	ExchangeColor    string                    `gorm:"type:varchar(50)"`
	TargetVariantID  *uuid.UUID                `gorm:"type:uuid"`
	Status           trade.ReturnRequestStatus `gorm:"type:varchar(20);not null;index"`
	StaffNotes       string                    `gorm:"type:text"`
	ExchangeOrderRef string                    `gorm:"type:varchar(50)"`
	RefundMarked     bool                      `gorm:"not null;default:false"`
	DecidedAt        *time.Time
	ReceivedAt       *time.Time
	CompletedAt      *time.Time
	CancelledAt      *time.Time
}

// TableName returns the table name for GORM
func (ReturnRequestModel) TableName() string {
	return "return_requests"
}

// ToDomain converts the persistence model to a domain ReturnRequest.
func (m *ReturnRequestModel) ToDomain() *trade.ReturnRequest {
	r := &trade.ReturnRequest{
		BaseAggregateRoot: m.ToAggregateRoot(),
		RequestCode:       m.RequestCode,
		OrderID:           m.OrderID,
		OrderCode:         m.OrderCode,
		OrderItemID:       m.OrderItemID,
		ProductID:         m.ProductID,
		VariantID:         m.VariantID,
		Quantity:          m.Quantity,
		Type:              m.Type,
		Reason:            m.Reason,
		EvidenceImages:    []string(m.EvidenceImages),
		BankInfo:          m.Bank.toDomain(),
		TargetVariantID:   m.TargetVariantID,
		Status:            m.Status,
		StaffNotes:        m.StaffNotes,
		ExchangeOrderRef:  m.ExchangeOrderRef,
		RefundMarked:      m.RefundMarked,
		DecidedAt:         m.DecidedAt,
		ReceivedAt:        m.ReceivedAt,
		CompletedAt:       m.CompletedAt,
		CancelledAt:       m.CancelledAt,
	}
	if m.ExchangeSize != "" || m.ExchangeColor != "" {
		r.ExchangeTarget = &trade.ExchangeTarget{Size: m.ExchangeSize, Color: m.ExchangeColor}
	}
	return r
}

// ReturnRequestModelFromDomain creates a new persistence model from a domain ReturnRequest.
func ReturnRequestModelFromDomain(r *trade.ReturnRequest) *ReturnRequestModel {
	m := &ReturnRequestModel{
		RequestCode:      r.RequestCode,
		OrderID:          r.OrderID,
		OrderCode:        r.OrderCode,
		OrderItemID:      r.OrderItemID,
		ProductID:        r.ProductID,
		VariantID:        r.VariantID,
		Quantity:         r.Quantity,
		Type:             r.Type,
		Reason:           r.Reason,
		EvidenceImages:   StringList(r.EvidenceImages),
		Bank:             bankColumnsFromDomain(r.BankInfo),
		TargetVariantID:  r.TargetVariantID,
		Status:           r.Status,
		StaffNotes:       r.StaffNotes,
		ExchangeOrderRef: r.ExchangeOrderRef,
		RefundMarked:     r.RefundMarked,
		DecidedAt:        r.DecidedAt,
		ReceivedAt:       r.ReceivedAt,
		CompletedAt:      r.CompletedAt,
		CancelledAt:      r.CancelledAt,
	}
	if r.ExchangeTarget != nil {
		m.ExchangeSize = r.ExchangeTarget.Size
		m.ExchangeColor = r.ExchangeTarget.Color
	}
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	return m
}

// AllModels lists every model for AutoMigrate in tests and development.
func AllModels() []any {
	return []any{
		&ProductModel{},
		&ProductVariantModel{},
		&StockReservationModel{},
		&StockMovementModel{},
		&OrderModel{},
		&OrderItemModel{},
		&ReturnRequestModel{},
	}
}
