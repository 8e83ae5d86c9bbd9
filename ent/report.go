package ent

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleLine is one row of the detailed sales history: a line item joined with
// its sale header, product and customer.
type SaleLine struct {
	SaleID         int64           `json:"sale_id" db:"sale_id"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	Total          decimal.Decimal `json:"total" db:"total"`
	PaymentMethod  PaymentMethod   `json:"payment_method" db:"payment_method"`
	AmountTendered decimal.Decimal `json:"amount_tendered" db:"amount_tendered"`
	ChangeDue      decimal.Decimal `json:"change_due" db:"change_due"`
	CustomerID     *int64          `json:"customer_id" db:"customer_id"`
	CustomerName   string          `json:"customer_name" db:"customer_name"`
	ProductID      int64           `json:"product_id" db:"product_id"`
	ProductName    string          `json:"product_name" db:"product_name"`
	Barcode        string          `json:"barcode" db:"barcode"`
	Quantity       int64           `json:"quantity" db:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price" db:"unit_price"`
}

// SaleSummary is one sale re-aggregated from its lines.
type SaleSummary struct {
	SaleID        int64           `json:"sale_id"`
	CreatedAt     time.Time       `json:"created_at"`
	CustomerName  string          `json:"customer_name"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Total         decimal.Decimal `json:"total"`
	Items         int64           `json:"items"`
}

// ReportFilter bounds are calendar dates; both are inclusive.
type ReportFilter struct {
	From       *time.Time
	To         *time.Time
	CustomerID *int64
}

type Stats struct {
	StockValue   decimal.Decimal `json:"stock_value" db:"stock_value"`
	Products     int64           `json:"products" db:"products"`
	Customers    int64           `json:"customers" db:"customers"`
	SalesTotal   decimal.Decimal `json:"sales_total" db:"sales_total"`
	Transactions int64           `json:"transactions" db:"transactions"`
	LowStock     int64           `json:"low_stock" db:"low_stock"`
	OutOfStock   int64           `json:"out_of_stock" db:"out_of_stock"`
	ItemsSold    int64           `json:"items_sold" db:"items_sold"`
}

// MovementOut marks stock leaving through a registered sale.
const MovementOut = "out"

type StockMovement struct {
	SaleID      int64     `json:"sale_id" db:"sale_id"`
	ProductName string    `json:"product_name" db:"product_name"`
	Quantity    int64     `json:"quantity" db:"quantity"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	Kind        string    `json:"kind" db:"kind"`
}
