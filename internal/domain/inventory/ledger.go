package inventory

import "context"

// StockLedger holds per-variant available quantity.
//
// Deduct is all-or-nothing across the line set and must be enforced by the
// storage layer as a conditional decrement, so two concurrent deductions
// can never both succeed against insufficient combined stock. On shortfall
// it returns the report together with a *StockUnavailableError.
//
// Restore is not idempotent; callers must restore at most once per
// deduction.
type StockLedger interface {
	CheckAvailability(ctx context.Context, lines []StockLine) ([]LineAvailability, error)
	Deduct(ctx context.Context, lines []StockLine) (*DeductionReport, error)
	Restore(ctx context.Context, lines []StockLine) error
}
