// Package inventory models per-variant stock: the ledger contract used to
// check, deduct and restore quantities, the time-boxed reservations held
// during online payment, and the audit trail of every stock movement.
package inventory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// MaxLineQuantity caps the quantity of one variant in a single ledger call,
// duplicates included.
const MaxLineQuantity = 10000

// StockLine is a (variant, quantity) pair handled by the ledger
type StockLine struct {
	VariantID uuid.UUID `json:"variant_id"`
	Quantity  int       `json:"quantity"`
}

// NewStockLine creates a validated stock line
func NewStockLine(variantID uuid.UUID, quantity int) (StockLine, error) {
	l := StockLine{VariantID: variantID, Quantity: quantity}
	if err := l.Validate(); err != nil {
		return StockLine{}, err
	}
	return l, nil
}

// Validate checks the line refers to a variant and has a positive quantity
func (l StockLine) Validate() error {
	if l.VariantID == uuid.Nil {
		return shared.NewValidationError("Variant ID cannot be empty")
	}
	if l.Quantity <= 0 {
		return shared.NewValidationError("Quantity for variant %s must be positive", l.VariantID)
	}
	if l.Quantity > MaxLineQuantity {
		return shared.NewValidationError("Quantity for variant %s cannot exceed %d", l.VariantID, MaxLineQuantity)
	}
	return nil
}

// NormalizeLines validates lines, merges duplicates of the same variant and
// sorts the result by variant ID. Processing lines in a fixed order keeps
// concurrent multi-line deductions from locking rows in opposite orders.
func NormalizeLines(lines []StockLine) ([]StockLine, error) {
	if len(lines) == 0 {
		return nil, shared.NewValidationError("At least one stock line is required")
	}
	merged := make(map[uuid.UUID]int, len(lines))
	for _, l := range lines {
		if err := l.Validate(); err != nil {
			return nil, err
		}
		// both terms are within MaxLineQuantity, so the sum cannot overflow
		if merged[l.VariantID]+l.Quantity > MaxLineQuantity {
			return nil, shared.NewValidationError("Total quantity for variant %s cannot exceed %d", l.VariantID, MaxLineQuantity)
		}
		merged[l.VariantID] += l.Quantity
	}
	out := make([]StockLine, 0, len(merged))
	for id, qty := range merged {
		out = append(out, StockLine{VariantID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].VariantID.String() < out[j].VariantID.String()
	})
	return out, nil
}

// TotalQuantity sums the quantities of all lines
func TotalQuantity(lines []StockLine) int {
	total := 0
	for _, l := range lines {
		total += l.Quantity
	}
	return total
}

// LineAvailability is the read-only answer for one line
type LineAvailability struct {
	VariantID   uuid.UUID `json:"variant_id"`
	Requested   int       `json:"requested"`
	Available   int       `json:"available"`
	IsAvailable bool      `json:"is_available"`
}

// LineShortfall names a line that could not be deducted
type LineShortfall struct {
	VariantID uuid.UUID `json:"variant_id"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

// DeductionReport describes the outcome of a deduct call. Deduction is
// all-or-nothing: when Failed is non-empty no line was applied.
type DeductionReport struct {
	Lines  []StockLine     `json:"lines"`
	Failed []LineShortfall `json:"failed,omitempty"`
}

// Succeeded reports whether every line was deducted
func (r *DeductionReport) Succeeded() bool {
	return r != nil && len(r.Failed) == 0
}

// StockUnavailableError is returned when one or more lines lack stock.
// It unwraps to an INSUFFICIENT_STOCK DomainError.
type StockUnavailableError struct {
	Failed []LineShortfall
}

// NewStockUnavailableError creates the error for the given shortfalls
func NewStockUnavailableError(failed []LineShortfall) *StockUnavailableError {
	return &StockUnavailableError{Failed: failed}
}

func (e *StockUnavailableError) Error() string {
	parts := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		parts = append(parts, fmt.Sprintf("variant %s: requested %d, available %d", f.VariantID, f.Requested, f.Available))
	}
	return "Insufficient stock: " + strings.Join(parts, "; ")
}

// Unwrap exposes the domain error so errors.Is and errors.As work
func (e *StockUnavailableError) Unwrap() error {
	return shared.NewDomainError(shared.CodeInsufficientStock, e.Error())
}
