package store

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"kairos/ent"
)

const (
	MinNameLength     = 2
	MinUsernameLength = 3
	MinPasswordLength = 6
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func validName(name string) error {
	if utf8.RuneCountInString(name) < MinNameLength {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("must have at least %d characters", MinNameLength)}
	}
	return nil
}

// ValidateProduct trims in and rounds its prices to cents.
func ValidateProduct(in *ent.ProductInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Barcode = strings.TrimSpace(in.Barcode)
	in.Price = in.Price.Round(2)
	in.PricePerKg = in.PricePerKg.Round(2)

	if err := validName(in.Name); err != nil {
		return err
	}
	if in.Price.IsNegative() {
		return &ValidationError{Field: "price", Message: "must not be negative"}
	}
	if in.Quantity < 0 {
		return &ValidationError{Field: "quantity", Message: "must not be negative"}
	}
	if in.PricePerKg.IsNegative() {
		return &ValidationError{Field: "price_per_kg", Message: "must not be negative"}
	}
	return nil
}

func ValidateWeighable(in *ent.WeighableInput) error {
	in.CustomCode = strings.TrimSpace(in.CustomCode)
	in.PricePerKg = in.PricePerKg.Round(2)

	if in.ProductID <= 0 {
		return &ValidationError{Field: "product_id", Message: "is required"}
	}
	if in.PricePerKg.IsNegative() {
		return &ValidationError{Field: "price_per_kg", Message: "must not be negative"}
	}
	return nil
}

func ValidateCustomer(in *ent.CustomerInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	in.TaxID = strings.TrimSpace(in.TaxID)
	in.Address = strings.TrimSpace(in.Address)

	if err := validName(in.Name); err != nil {
		return err
	}
	if in.Email != "" && !emailPattern.MatchString(in.Email) {
		return &ValidationError{Field: "email", Message: "is not a valid address"}
	}
	return nil
}

func ValidateCredentials(username, password string) error {
	if utf8.RuneCountInString(strings.TrimSpace(username)) < MinUsernameLength {
		return &ValidationError{Field: "username", Message: fmt.Sprintf("must have at least %d characters", MinUsernameLength)}
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return &ValidationError{Field: "password", Message: fmt.Sprintf("must have at least %d characters", MinPasswordLength)}
	}
	return nil
}

// MaxLineQuantity bounds a single cart line so that per-product sums
// cannot overflow.
const MaxLineQuantity = 1_000_000

// ValidateCheckout checks a cart before registration. With verifyTotal the
// submitted total must equal the sum of quantity x unit price.
func ValidateCheckout(c ent.Checkout, verifyTotal bool) error {
	if len(c.Items) == 0 {
		return &ValidationError{Field: "items", Message: "cart is empty"}
	}
	for i, it := range c.Items {
		if it.ProductID <= 0 {
			return &ValidationError{Field: "items", Message: fmt.Sprintf("line %d: product is required", i+1)}
		}
		if it.Quantity <= 0 {
			return &ValidationError{Field: "items", Message: fmt.Sprintf("line %d: quantity must be positive", i+1)}
		}
		if it.Quantity > MaxLineQuantity {
			return &ValidationError{Field: "items", Message: fmt.Sprintf("line %d: quantity must not exceed %d", i+1, MaxLineQuantity)}
		}
		if it.UnitPrice.IsNegative() {
			return &ValidationError{Field: "items", Message: fmt.Sprintf("line %d: unit price must not be negative", i+1)}
		}
	}
	if !c.PaymentMethod.Valid() {
		return &ValidationError{Field: "payment_method", Message: fmt.Sprintf("unknown method %q", c.PaymentMethod)}
	}
	if c.Total.IsNegative() {
		return &ValidationError{Field: "total", Message: "must not be negative"}
	}
	if c.AmountTendered.IsNegative() {
		return &ValidationError{Field: "amount_tendered", Message: "must not be negative"}
	}
	if c.ChangeDue.IsNegative() {
		return &ValidationError{Field: "change_due", Message: "must not be negative"}
	}
	if verifyTotal && !c.Total.Round(2).Equal(c.ItemsTotal().Round(2)) {
		return &ValidationError{
			Field:   "total",
			Message: fmt.Sprintf("%s does not match items total %s", c.Total.StringFixed(2), c.ItemsTotal().StringFixed(2)),
		}
	}
	return nil
}
