package ent

import (
	"time"

	"github.com/shopspring/decimal"
)

// WalkInCustomer labels sales without a (still existing) customer.
const WalkInCustomer = "Walk-in"

type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "cash"
	PaymentCard  PaymentMethod = "card"
	PaymentOther PaymentMethod = "other"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentOther:
		return true
	}
	return false
}

type Sale struct {
	ID             int64           `json:"id" db:"id"`
	CustomerID     *int64          `json:"customer_id" db:"customer_id"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	Total          decimal.Decimal `json:"total" db:"total"`
	PaymentMethod  PaymentMethod   `json:"payment_method" db:"payment_method"`
	AmountTendered decimal.Decimal `json:"amount_tendered" db:"amount_tendered"`
	ChangeDue      decimal.Decimal `json:"change_due" db:"change_due"`
}

// SaleItem carries the quantity and unit price captured when the sale was
// registered; later product edits never change it.
type SaleItem struct {
	ID        int64           `json:"id" db:"id"`
	SaleID    int64           `json:"sale_id" db:"sale_id"`
	ProductID int64           `json:"product_id" db:"product_id"`
	Quantity  int64           `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`

	ProductName string `json:"product_name" db:"product_name"`
	Barcode     string `json:"barcode" db:"barcode"`
}

func (i SaleItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
}

type CartLine struct {
	ProductID int64           `json:"product_id" db:"product_id"`
	Quantity  int64           `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
}

// Checkout is a completed point-of-sale submission.
type Checkout struct {
	CustomerID     *int64          `json:"customer_id"`
	Items          []CartLine      `json:"items"`
	Total          decimal.Decimal `json:"total"`
	PaymentMethod  PaymentMethod   `json:"payment_method"`
	AmountTendered decimal.Decimal `json:"amount_tendered"`
	ChangeDue      decimal.Decimal `json:"change_due"`
}

// ItemsTotal is the sum of quantity x unit price over the cart.
func (c Checkout) ItemsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range c.Items {
		sum = sum.Add(it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity)))
	}
	return sum
}

type SaleDetail struct {
	Sale
	CustomerName string     `json:"customer_name" db:"customer_name"`
	Items        []SaleItem `json:"items" db:"-"`
}
