package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShippingContact(t *testing.T) {
	t.Run("creates contact with required fields", func(t *testing.T) {
		c, err := NewShippingContact(" Lan Nguyen ", "0901 234 567", "12 Hang Bac", "Hoan Kiem", "Ha Noi", WithWard("Hang Bac"), WithEmail("lan@example.com"))
		require.NoError(t, err)
		assert.Equal(t, "Lan Nguyen", c.Recipient())
		assert.Equal(t, "lan@example.com", c.Email())
		assert.Equal(t, "12 Hang Bac, Hang Bac, Hoan Kiem, Ha Noi", c.FullAddress())
		assert.False(t, c.IsEmpty())
	})

	tests := []struct {
		name      string
		recipient string
		phone     string
		line1     string
		city      string
		errMsg    string
	}{
		{"empty recipient", "", "0901234567", "1 Main St", "Hue", "recipient name"},
		{"empty phone", "An", "", "1 Main St", "Hue", "phone cannot be empty"},
		{"letters in phone", "An", "09012abc67", "1 Main St", "Hue", "invalid phone"},
		{"short phone", "An", "12345", "1 Main St", "Hue", "invalid phone"},
		{"empty line", "An", "0901234567", "", "Hue", "address line"},
		{"empty city", "An", "0901234567", "1 Main St", "", "city"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewShippingContact(tt.recipient, tt.phone, tt.line1, "", tt.city)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	t.Run("rejects malformed email", func(t *testing.T) {
		_, err := NewShippingContact("An", "0901234567", "1 Main St", "", "Hue", WithEmail("nope"))
		assert.Error(t, err)
	})
}

func TestRestoreShippingContact(t *testing.T) {
	c := RestoreShippingContact("An", "0901234567", "", "1 Main St", "", "", "Hue")
	assert.Equal(t, "1 Main St, Hue", c.FullAddress())
	assert.True(t, ShippingContact{}.IsEmpty())
}

func TestNewBankInfo(t *testing.T) {
	b, err := NewBankInfo("Vietcombank", "0123 4567 89", "NGUYEN VAN A")
	require.NoError(t, err)
	assert.Equal(t, "0123456789", b.AccountNumber)
	assert.Equal(t, "******6789", b.Masked())
	assert.False(t, b.IsZero())

	_, err = NewBankInfo("", "0123456789", "A")
	assert.ErrorContains(t, err, "bank name")

	_, err = NewBankInfo("ACB", "12ab5678", "A")
	assert.ErrorContains(t, err, "numeric")

	_, err = NewBankInfo("ACB", "123", "A")
	assert.ErrorContains(t, err, "6 to 30")

	assert.True(t, BankInfo{}.IsZero())
}
