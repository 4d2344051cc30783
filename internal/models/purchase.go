package models

import "time"

// PurchaseItem is one order line at purchase-time price.
type PurchaseItem struct {
	ProductID           string  `json:"product_id"`
	SizeID              string  `json:"size_id"`
	Quantity            int     `json:"quantity"`
	UnitPriceAtPurchase float64 `json:"unit_price_at_purchase"`
}

// PurchaseRequest is the payload for /purchase/create.
type PurchaseRequest struct {
	ShippingAddressID string         `json:"shipping_address_id"`
	ShippingCost      float64        `json:"shipping_cost"`
	Taxes             float64        `json:"taxes"`
	Items             []PurchaseItem `json:"items"`
}

// PaymentIntent pairs a created purchase with its one-shot payment secret.
type PaymentIntent struct {
	PurchaseID   string `json:"purchase_id"`
	ClientSecret string `json:"client_secret"`
}

// Transaction is a payment attempt recorded against a purchase.
type Transaction struct {
	ID     string  `json:"id"`
	Amount float64 `json:"amount"`
	Status string  `json:"status"`
}

// Purchase is the backend order record, immutable from this client once
// created; payment status only changes server-side and is read back here.
type Purchase struct {
	ID                string         `json:"id"`
	Status            string         `json:"status"`
	PlacedAt          time.Time      `json:"placed_at"`
	Subtotal          float64        `json:"subtotal"`
	ShippingCost      float64        `json:"shipping_cost"`
	Taxes             float64        `json:"taxes"`
	TotalAmount       float64        `json:"total_amount"`
	ShippingAddressID string         `json:"shipping_address_id"`
	Items             []PurchaseItem `json:"items,omitempty"`
	Transactions      []Transaction  `json:"transactions,omitempty"`
	Address           *Address       `json:"address,omitempty"`
}

// PurchaseInclude selects the optional sections of a purchase read.
type PurchaseInclude struct {
	Items        bool
	Transactions bool
	Address      bool
}
