package models

// LineItem is one product+size+quantity entry in the local cart.
//
// LocalID identifies the item on this client; CartItemID is assigned by the
// backend once the item has been synced and is empty until then.
type LineItem struct {
	LocalID    string  `json:"local_id"`
	CartItemID string  `json:"cart_item_id,omitempty"`
	ProductID  string  `json:"product_id"`
	SizeID     string  `json:"size_id"`
	Name       string  `json:"name"`
	Size       string  `json:"size"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	Image      string  `json:"image"`
}

// LineTotal returns quantity times unit price.
func (li LineItem) LineTotal() float64 {
	return float64(li.Quantity) * li.UnitPrice
}

// CartItemCreate is the payload for creating a cart item on the backend.
type CartItemCreate struct {
	ProductID string `json:"product_id"`
	SizeID    string `json:"size_id"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

// CartItemRecord is the backend's view of a cart item.
type CartItemRecord struct {
	ID        string  `json:"id"`
	ProductID string  `json:"product_id"`
	SizeID    string  `json:"size_id"`
	Name      string  `json:"name"`
	Size      string  `json:"size"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Image     string  `json:"image"`
}
