package ent

import (
	"github.com/shopspring/decimal"
)

type User struct {
	ID           int64  `json:"id" db:"id"`
	Username     string `json:"username" db:"username"`
	PasswordHash string `json:"-" db:"password_hash"`
}

type Product struct {
	ID       int64           `json:"id" db:"id"`
	Name     string          `json:"name" db:"name"`
	Price    decimal.Decimal `json:"price" db:"price"`
	Quantity int64           `json:"quantity" db:"quantity"`
	Barcode  *string         `json:"barcode" db:"barcode"`
}

// ProductInput is a catalog create/update request. A positive PricePerKg on
// create also registers the product as weighable.
type ProductInput struct {
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int64           `json:"quantity"`
	Barcode    string          `json:"barcode"`
	PricePerKg decimal.Decimal `json:"price_per_kg"`
}

type WeighableProduct struct {
	ID         int64           `json:"id" db:"id"`
	ProductID  int64           `json:"product_id" db:"product_id"`
	PricePerKg decimal.Decimal `json:"price_per_kg" db:"price_per_kg"`
	CustomCode *string         `json:"custom_code" db:"custom_code"`

	ProductName string          `json:"product_name" db:"product_name"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Quantity    int64           `json:"quantity" db:"quantity"`
}

type WeighableInput struct {
	ProductID  int64           `json:"product_id"`
	PricePerKg decimal.Decimal `json:"price_per_kg"`
	CustomCode string          `json:"custom_code"`
}

// Lookup is the result of an exact code search. Weighable is set when the
// code matched a weighable custom code.
type Lookup struct {
	Product   Product           `json:"product"`
	Weighable *WeighableProduct `json:"weighable,omitempty"`
}

func (l Lookup) IsWeighable() bool {
	return l.Weighable != nil
}

type Customer struct {
	ID      int64   `json:"id" db:"id"`
	Name    string  `json:"name" db:"name"`
	Phone   *string `json:"phone" db:"phone"`
	Email   *string `json:"email" db:"email"`
	TaxID   *string `json:"tax_id" db:"tax_id"`
	Address *string `json:"address" db:"address"`
}

type CustomerInput struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	TaxID   string `json:"tax_id"`
	Address string `json:"address"`
}
