package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/domain/trade"
)

// ==================== Cart and checkout DTOs ====================

// CartLineInput is one line of a client cart
type CartLineInput struct {
	ProductID    uuid.UUID `json:"product_id" binding:"required"`
	VariantID    uuid.UUID `json:"variant_id" binding:"required"`
	Quantity     int       `json:"quantity"`
	ProductName  string    `json:"product_name"`
	VariantLabel string    `json:"variant_label"`
	ThumbnailURL string    `json:"thumbnail_url"`
}

// ValidateCartRequest represents a request to validate a cart
type ValidateCartRequest struct {
	Lines []CartLineInput `json:"lines" binding:"dive"`
}

// ShippingContactInput is the customer's delivery contact
type ShippingContactInput struct {
	Recipient    string `json:"recipient" binding:"required,min=1,max=200"`
	Phone        string `json:"phone" binding:"required"`
	Email        string `json:"email" binding:"omitempty,email"`
	AddressLine1 string `json:"address_line1" binding:"required,max=500"`
	Ward         string `json:"ward" binding:"max=100"`
	District     string `json:"district" binding:"required,max=100"`
	City         string `json:"city" binding:"required,max=100"`
}

// BankInfoInput is the account a refund is paid to
type BankInfoInput struct {
	BankName      string `json:"bank_name" binding:"required"`
	AccountNumber string `json:"account_number" binding:"required"`
	AccountHolder string `json:"account_holder" binding:"required"`
}

// CreateOrderRequest represents a checkout request
type CreateOrderRequest struct {
	Lines         []CartLineInput      `json:"lines" binding:"required,min=1,dive"`
	Customer      ShippingContactInput `json:"customer" binding:"required"`
	PaymentMethod string               `json:"payment_method" binding:"required,oneof=COD ONLINE"`
	Notes         string               `json:"notes" binding:"max=1000"`
}

// ==================== Order DTOs ====================

// OrderListFilter represents filter options for order list
type OrderListFilter struct {
	Status        string `form:"status"`
	PaymentStatus string `form:"payment_status"`
	PaymentMethod string `form:"payment_method" binding:"omitempty,oneof=COD ONLINE"`
	Phone         string `form:"phone"`
	Page          int    `form:"page" binding:"omitempty,min=1"`
	PageSize      int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy       string `form:"order_by"`
	OrderDir      string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// CancelOrderRequest represents a request to cancel an order
type CancelOrderRequest struct {
	Reason   string         `json:"reason" binding:"required,min=1,max=500"`
	BankInfo *BankInfoInput `json:"bank_info"`
}

// ResolvePaymentRequest carries the payment provider's verdict
type ResolvePaymentRequest struct {
	Outcome        string `json:"outcome" binding:"required,oneof=SUCCESS FAILURE CANCEL TIMEOUT"`
	IdempotencyKey string `json:"idempotency_key" binding:"max=200"`
}

// OrderItemResponse represents an order item in API responses
type OrderItemResponse struct {
	ID                 uuid.UUID       `json:"id"`
	ProductID          uuid.UUID       `json:"product_id"`
	VariantID          uuid.UUID       `json:"variant_id"`
	ProductName        string          `json:"product_name"`
	VariantLabel       string          `json:"variant_label"`
	ThumbnailURL       string          `json:"thumbnail_url,omitempty"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	Quantity           int             `json:"quantity"`
	Amount             decimal.Decimal `json:"amount"`
	ShippingAllocation decimal.Decimal `json:"shipping_allocation"`
	ReturnStatus       string          `json:"return_status"`
}

// ShippingContactResponse is the delivery contact snapshot of an order
type ShippingContactResponse struct {
	Recipient    string `json:"recipient"`
	Phone        string `json:"phone"`
	Email        string `json:"email,omitempty"`
	AddressLine1 string `json:"address_line1"`
	Ward         string `json:"ward,omitempty"`
	District     string `json:"district"`
	City         string `json:"city"`
}

// BankInfoResponse shows refund bank info with the account number masked
type BankInfoResponse struct {
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountHolder string `json:"account_holder"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID             uuid.UUID               `json:"id"`
	OrderCode      string                  `json:"order_code"`
	Customer       ShippingContactResponse `json:"customer"`
	Items          []OrderItemResponse     `json:"items"`
	ItemCount      int                     `json:"item_count"`
	TotalQuantity  int                     `json:"total_quantity"`
	Subtotal       decimal.Decimal         `json:"subtotal"`
	ShippingFee    decimal.Decimal         `json:"shipping_fee"`
	TotalAmount    decimal.Decimal         `json:"total_amount"`
	PaymentMethod  string                  `json:"payment_method"`
	Status         string                  `json:"status"`
	PaymentStatus  string                  `json:"payment_status"`
	Notes          string                  `json:"notes,omitempty"`
	RefundBankInfo *BankInfoResponse       `json:"refund_bank_info,omitempty"`
	CancelReason   string                  `json:"cancel_reason,omitempty"`
	PaidAt         *time.Time              `json:"paid_at,omitempty"`
	ConfirmedAt    *time.Time              `json:"confirmed_at,omitempty"`
	PackedAt       *time.Time              `json:"packed_at,omitempty"`
	ShippedAt      *time.Time              `json:"shipped_at,omitempty"`
	CompletedAt    *time.Time              `json:"completed_at,omitempty"`
	CancelledAt    *time.Time              `json:"cancelled_at,omitempty"`
	RefundedAt     *time.Time              `json:"refunded_at,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
	Version        int                     `json:"version"`
}

// OrderListItemResponse represents an order in list responses
type OrderListItemResponse struct {
	ID            uuid.UUID       `json:"id"`
	OrderCode     string          `json:"order_code"`
	Recipient     string          `json:"recipient"`
	Phone         string          `json:"phone"`
	ItemCount     int             `json:"item_count"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentMethod string          `json:"payment_method"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ReservationHandle describes an armed payment hold
type ReservationHandle struct {
	ReservationID    uuid.UUID `json:"reservation_id"`
	OrderID          uuid.UUID `json:"order_id"`
	OrderCode        string    `json:"order_code"`
	ExpireAt         time.Time `json:"expire_at"`
	RemainingSeconds int       `json:"remaining_seconds"`
}

// ==================== Return request DTOs ====================

// SubmitReturnRequest represents a customer's return or exchange claim
type SubmitReturnRequest struct {
	OrderID        uuid.UUID      `json:"order_id" binding:"required"`
	OrderItemID    uuid.UUID      `json:"order_item_id" binding:"required"`
	Type           string         `json:"type" binding:"required,oneof=EXCHANGE REFUND"`
	Reason         string         `json:"reason" binding:"required,max=2000"`
	EvidenceImages []string       `json:"evidence_images" binding:"required,min=1,max=10"`
	BankInfo       *BankInfoInput `json:"bank_info"`
	ExchangeSize   string         `json:"exchange_size" binding:"max=50"`
	ExchangeColor  string         `json:"exchange_color" binding:"max=50"`
}

// DecideReturnRequest represents a staff decision on a pending request
type DecideReturnRequest struct {
	Decision string `json:"decision" binding:"required,oneof=APPROVE REJECT"`
	Notes    string `json:"notes" binding:"max=2000"`
}

// CompleteReturnRequest closes a received request
type CompleteReturnRequest struct {
	ExchangeOrderRef string `json:"exchange_order_ref" binding:"max=100"`
}

// EvidenceUploadRequest asks for a presigned upload URL
type EvidenceUploadRequest struct {
	OrderID     uuid.UUID `json:"order_id" binding:"required"`
	FileName    string    `json:"file_name" binding:"required,max=255"`
	ContentType string    `json:"content_type" binding:"required"`
}

// EvidenceUploadResponse is a presigned PUT URL for one evidence image
type EvidenceUploadResponse struct {
	StorageKey string    `json:"storage_key"`
	UploadURL  string    `json:"upload_url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// EvidenceLink is a presigned GET URL for one stored evidence image
type EvidenceLink struct {
	StorageKey string    `json:"storage_key"`
	URL        string    `json:"url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// ReturnRequestResponse represents a return request in API responses
type ReturnRequestResponse struct {
	ID               uuid.UUID             `json:"id"`
	RequestCode      string                `json:"request_code"`
	OrderID          uuid.UUID             `json:"order_id"`
	OrderCode        string                `json:"order_code"`
	OrderItemID      uuid.UUID             `json:"order_item_id"`
	ProductID        uuid.UUID             `json:"product_id"`
	VariantID        uuid.UUID             `json:"variant_id"`
	Quantity         int                   `json:"quantity"`
	Type             string                `json:"type"`
	Reason           string                `json:"reason"`
	EvidenceImages   []string              `json:"evidence_images"`
	BankInfo         *BankInfoResponse     `json:"bank_info,omitempty"`
	ExchangeTarget   *trade.ExchangeTarget `json:"exchange_target,omitempty"`
	TargetVariantID  *uuid.UUID            `json:"target_variant_id,omitempty"`
	Status           string                `json:"status"`
	StaffNotes       string                `json:"staff_notes,omitempty"`
	ExchangeOrderRef string                `json:"exchange_order_ref,omitempty"`
	RefundMarked     bool                  `json:"refund_marked"`
	DecidedAt        *time.Time            `json:"decided_at,omitempty"`
	ReceivedAt       *time.Time            `json:"received_at,omitempty"`
	CompletedAt      *time.Time            `json:"completed_at,omitempty"`
	CancelledAt      *time.Time            `json:"cancelled_at,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
	Version          int                   `json:"version"`
}

// ==================== Converters ====================

// ToOrderResponse converts a domain Order to a response DTO
func ToOrderResponse(order *trade.Order) OrderResponse {
	items := make([]OrderItemResponse, len(order.Items))
	for i := range order.Items {
		items[i] = ToOrderItemResponse(&order.Items[i])
	}
	c := order.Customer
	return OrderResponse{
		ID:        order.ID,
		OrderCode: order.OrderCode,
		Customer: ShippingContactResponse{
			Recipient:    c.Recipient(),
			Phone:        c.Phone(),
			Email:        c.Email(),
			AddressLine1: c.Line1(),
			Ward:         c.Ward(),
			District:     c.District(),
			City:         c.City(),
		},
		Items:          items,
		ItemCount:      order.ItemCount(),
		TotalQuantity:  order.TotalQuantity(),
		Subtotal:       order.Subtotal,
		ShippingFee:    order.ShippingFee,
		TotalAmount:    order.TotalAmount,
		PaymentMethod:  string(order.PaymentMethod),
		Status:         string(order.Status()),
		PaymentStatus:  string(order.PaymentStatus()),
		Notes:          order.Notes,
		RefundBankInfo: toBankInfoResponse(order.RefundBankInfo),
		CancelReason:   order.CancelReason,
		PaidAt:         order.PaidAt,
		ConfirmedAt:    order.ConfirmedAt,
		PackedAt:       order.PackedAt,
		ShippedAt:      order.ShippedAt,
		CompletedAt:    order.CompletedAt,
		CancelledAt:    order.CancelledAt,
		RefundedAt:     order.RefundedAt,
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
		Version:        order.Version,
	}
}

// ToOrderItemResponse converts a domain OrderItem to a response DTO
func ToOrderItemResponse(item *trade.OrderItem) OrderItemResponse {
	return OrderItemResponse{
		ID:                 item.ID,
		ProductID:          item.ProductID,
		VariantID:          item.VariantID,
		ProductName:        item.ProductName,
		VariantLabel:       item.VariantLabel,
		ThumbnailURL:       item.ThumbnailURL,
		UnitPrice:          item.UnitPrice,
		Quantity:           item.Quantity,
		Amount:             item.Amount,
		ShippingAllocation: item.ShippingAllocation,
		ReturnStatus:       string(item.ReturnStatus),
	}
}

// ToOrderListItemResponse converts a domain Order to a list response DTO
func ToOrderListItemResponse(order *trade.Order) OrderListItemResponse {
	return OrderListItemResponse{
		ID:            order.ID,
		OrderCode:     order.OrderCode,
		Recipient:     order.Customer.Recipient(),
		Phone:         order.Customer.Phone(),
		ItemCount:     order.ItemCount(),
		TotalAmount:   order.TotalAmount,
		PaymentMethod: string(order.PaymentMethod),
		Status:        string(order.Status()),
		PaymentStatus: string(order.PaymentStatus()),
		CreatedAt:     order.CreatedAt,
	}
}

// ToReturnRequestResponse converts a domain ReturnRequest to a response DTO
func ToReturnRequestResponse(r *trade.ReturnRequest) ReturnRequestResponse {
	return ReturnRequestResponse{
		ID:               r.ID,
		RequestCode:      r.RequestCode,
		OrderID:          r.OrderID,
		OrderCode:        r.OrderCode,
		OrderItemID:      r.OrderItemID,
		ProductID:        r.ProductID,
		VariantID:        r.VariantID,
		Quantity:         r.Quantity,
		Type:             string(r.Type),
		Reason:           r.Reason,
		EvidenceImages:   r.EvidenceImages,
		BankInfo:         toBankInfoResponse(r.BankInfo),
		ExchangeTarget:   r.ExchangeTarget,
		TargetVariantID:  r.TargetVariantID,
		Status:           string(r.Status),
		StaffNotes:       r.StaffNotes,
		ExchangeOrderRef: r.ExchangeOrderRef,
		RefundMarked:     r.RefundMarked,
		DecidedAt:        r.DecidedAt,
		ReceivedAt:       r.ReceivedAt,
		CompletedAt:      r.CompletedAt,
		CancelledAt:      r.CancelledAt,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
		Version:          r.Version,
	}
}

func toBankInfoResponse(b *valueobject.BankInfo) *BankInfoResponse {
	if b == nil {
		return nil
	}
	return &BankInfoResponse{
		BankName:      b.BankName,
		AccountNumber: b.Masked(),
		AccountHolder: b.AccountHolder,
	}
}

func toCartLines(in []CartLineInput) []trade.CartLine {
	lines := make([]trade.CartLine, len(in))
	for i, l := range in {
		lines[i] = trade.CartLine{
			ProductID:    l.ProductID,
			VariantID:    l.VariantID,
			Quantity:     l.Quantity,
			ProductName:  l.ProductName,
			VariantLabel: l.VariantLabel,
			ThumbnailURL: l.ThumbnailURL,
		}
	}
	return lines
}

// toBankInfo validates optional bank input
func toBankInfo(in *BankInfoInput) (*valueobject.BankInfo, error) {
	if in == nil {
		return nil, nil
	}
	info, err := valueobject.NewBankInfo(in.BankName, in.AccountNumber, in.AccountHolder)
	if err != nil {
		return nil, shared.NewValidationError("Invalid bank info: %s", err.Error())
	}
	return &info, nil
}
