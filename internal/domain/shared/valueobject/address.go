package valueobject

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ShippingContact is the customer and delivery address snapshot copied onto
// an order at creation time. It is immutable; later address-book edits never
// reach orders that were already placed.
type ShippingContact struct {
	recipient string
	phone     string
	email     string
	line1     string
	ward      string
	district  string
	city      string
}

// ContactOption is a functional option for configuring ShippingContact
type ContactOption func(*ShippingContact)

// WithEmail sets the contact email
func WithEmail(email string) ContactOption {
	return func(c *ShippingContact) {
		c.email = strings.TrimSpace(email)
	}
}

// WithWard sets the ward of the delivery address
func WithWard(ward string) ContactOption {
	return func(c *ShippingContact) {
		c.ward = strings.TrimSpace(ward)
	}
}

// NewShippingContact creates a contact snapshot.
// Recipient, phone, address line and city are required.
func NewShippingContact(recipient, phone, line1, district, city string, opts ...ContactOption) (ShippingContact, error) {
	c := ShippingContact{
		recipient: strings.TrimSpace(recipient),
		phone:     strings.TrimSpace(phone),
		line1:     strings.TrimSpace(line1),
		district:  strings.TrimSpace(district),
		city:      strings.TrimSpace(city),
	}
	for _, opt := range opts {
		opt(&c)
	}

	if c.recipient == "" {
		return ShippingContact{}, fmt.Errorf("recipient name cannot be empty")
	}
	if utf8.RuneCountInString(c.recipient) > 100 {
		return ShippingContact{}, fmt.Errorf("recipient name cannot exceed 100 characters")
	}
	if err := validatePhone(c.phone); err != nil {
		return ShippingContact{}, err
	}
	if c.line1 == "" {
		return ShippingContact{}, fmt.Errorf("address line cannot be empty")
	}
	if utf8.RuneCountInString(c.line1) > 200 {
		return ShippingContact{}, fmt.Errorf("address line cannot exceed 200 characters")
	}
	if c.city == "" {
		return ShippingContact{}, fmt.Errorf("city cannot be empty")
	}
	if c.email != "" && !strings.Contains(c.email, "@") {
		return ShippingContact{}, fmt.Errorf("invalid email: %s", c.email)
	}
	return c, nil
}

// RestoreShippingContact rebuilds a snapshot from persisted columns without
// validation.
func RestoreShippingContact(recipient, phone, email, line1, ward, district, city string) ShippingContact {
	return ShippingContact{
		recipient: recipient,
		phone:     phone,
		email:     email,
		line1:     line1,
		ward:      ward,
		district:  district,
		city:      city,
	}
}

func validatePhone(phone string) error {
	if phone == "" {
		return fmt.Errorf("phone cannot be empty")
	}
	digits := 0
	for _, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' || r == ' ' || r == '-':
		default:
			return fmt.Errorf("invalid phone: %s", phone)
		}
	}
	if digits < 8 || digits > 15 {
		return fmt.Errorf("invalid phone: %s", phone)
	}
	return nil
}

func (c ShippingContact) Recipient() string { return c.recipient }
func (c ShippingContact) Phone() string     { return c.phone }
func (c ShippingContact) Email() string     { return c.email }
func (c ShippingContact) Line1() string     { return c.line1 }
func (c ShippingContact) Ward() string      { return c.ward }
func (c ShippingContact) District() string  { return c.district }
func (c ShippingContact) City() string      { return c.city }

// IsEmpty returns true if no field is set
func (c ShippingContact) IsEmpty() bool {
	return c == ShippingContact{}
}

// FullAddress returns the delivery address on one line
func (c ShippingContact) FullAddress() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{c.line1, c.ward, c.district, c.city} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// String returns a string representation of the contact
func (c ShippingContact) String() string {
	return fmt.Sprintf("%s (%s), %s", c.recipient, c.phone, c.FullAddress())
}
