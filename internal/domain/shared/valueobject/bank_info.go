package valueobject

import (
	"fmt"
	"strings"
)

// BankInfo is the account a refund is paid to. It is captured when a paid
// order is cancelled or when a COD order item is returned for a refund.
type BankInfo struct {
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountHolder string `json:"account_holder"`
}

// NewBankInfo creates a validated BankInfo
func NewBankInfo(bankName, accountNumber, accountHolder string) (BankInfo, error) {
	b := BankInfo{
		BankName:      strings.TrimSpace(bankName),
		AccountNumber: strings.ReplaceAll(strings.TrimSpace(accountNumber), " ", ""),
		AccountHolder: strings.TrimSpace(accountHolder),
	}
	if err := b.Validate(); err != nil {
		return BankInfo{}, err
	}
	return b, nil
}

// Validate checks that every field is present and the account number is numeric
func (b BankInfo) Validate() error {
	if b.BankName == "" {
		return fmt.Errorf("bank name cannot be empty")
	}
	if b.AccountHolder == "" {
		return fmt.Errorf("account holder cannot be empty")
	}
	if len(b.AccountNumber) < 6 || len(b.AccountNumber) > 30 {
		return fmt.Errorf("account number must be 6 to 30 digits")
	}
	for _, r := range b.AccountNumber {
		if r < '0' || r > '9' {
			return fmt.Errorf("account number must be numeric")
		}
	}
	return nil
}

// IsZero reports whether no bank info was provided
func (b BankInfo) IsZero() bool {
	return b == BankInfo{}
}

// Masked returns the account number with all but the last four digits hidden
func (b BankInfo) Masked() string {
	n := len(b.AccountNumber)
	if n <= 4 {
		return b.AccountNumber
	}
	return strings.Repeat("*", n-4) + b.AccountNumber[n-4:]
}
