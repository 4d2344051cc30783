package stub

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/lureclo-storefront/internal/models"
)

var (
	errNotFound      = errors.New("not found")
	errSecretUnknown = errors.New("unknown client secret")
	errSecretUsed    = errors.New("client secret already consumed")
)

// product is a catalog entry the stub prices cart items from.
type product struct {
	Name      string
	UnitPrice float64
	Image     string
}

// catalog seeds a handful of products; unknown ids fall back to a generic
// entry so any client flow works without fixtures.
var catalog = map[string]product{
	"prod-hoodie-black": {Name: "Oversized Hoodie Black", UnitPrice: 59.90, Image: "/images/hoodie-black.jpg"},
	"prod-tee-white":    {Name: "Essential Tee White", UnitPrice: 25.00, Image: "/images/tee-white.jpg"},
	"prod-cargo-sand":   {Name: "Cargo Pants Sand", UnitPrice: 79.90, Image: "/images/cargo-sand.jpg"},
}

func lookupProduct(productID string) product {
	if p, ok := catalog[productID]; ok {
		return p
	}
	return product{Name: "Product " + productID, UnitPrice: 25.00, Image: "/images/placeholder.jpg"}
}

type purchaseRecord struct {
	purchase     models.Purchase
	owner        string
	clientSecret string
	secretUsed   bool
}

// memoryStore keeps all stub state in process, per credential subject.
type memoryStore struct {
	mu        sync.Mutex
	carts     map[string][]models.CartItemRecord
	addresses map[string]models.Address
	purchases map[string]*purchaseRecord
	secrets   map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		carts:     make(map[string][]models.CartItemRecord),
		addresses: make(map[string]models.Address),
		purchases: make(map[string]*purchaseRecord),
		secrets:   make(map[string]string),
	}
}

func (m *memoryStore) listCart(owner string) []models.CartItemRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make([]models.CartItemRecord, len(m.carts[owner]))
	copy(items, m.carts[owner])
	return items
}

// addCartItem merges into an existing (product, size) record or creates a
// new one, mirroring the uniqueness rule the client applies locally.
func (m *memoryStore) addCartItem(owner string, req models.CartItemCreate) models.CartItemRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := m.carts[owner]
	for i, item := range items {
		if item.ProductID == req.ProductID && item.Size == req.Size {
			items[i].Quantity += req.Quantity
			return items[i]
		}
	}

	p := lookupProduct(req.ProductID)
	record := models.CartItemRecord{
		ID:        uuid.NewString(),
		ProductID: req.ProductID,
		SizeID:    req.SizeID,
		Name:      p.Name,
		Size:      req.Size,
		Quantity:  req.Quantity,
		UnitPrice: p.UnitPrice,
		Image:     p.Image,
	}
	m.carts[owner] = append(items, record)
	return record
}

func (m *memoryStore) updateCartItem(owner, id string, quantity int) (models.CartItemRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := m.carts[owner]
	for i, item := range items {
		if item.ID == id {
			items[i].Quantity = quantity
			return items[i], nil
		}
	}
	return models.CartItemRecord{}, errNotFound
}

func (m *memoryStore) deleteCartItem(owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := m.carts[owner]
	for i, item := range items {
		if item.ID == id {
			m.carts[owner] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return errNotFound
}

func (m *memoryStore) createAddress(owner string, input models.AddressInput) models.Address {
	m.mu.Lock()
	defer m.mu.Unlock()

	address := models.Address{ID: uuid.NewString(), AddressInput: input}
	m.addresses[address.ID] = address
	return address
}

func (m *memoryStore) getAddress(id string) (models.Address, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	address, ok := m.addresses[id]
	return address, ok
}

func (m *memoryStore) createPurchase(owner string, req models.PurchaseRequest) (models.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.addresses[req.ShippingAddressID]; !ok {
		return models.PaymentIntent{}, errNotFound
	}

	var subtotal float64
	for _, item := range req.Items {
		subtotal += float64(item.Quantity) * item.UnitPriceAtPurchase
	}

	id := uuid.NewString()
	secret := "pi_" + id + "_secret_" + uuid.NewString()
	m.purchases[id] = &purchaseRecord{
		purchase: models.Purchase{
			ID:                id,
			Status:            "pending",
			PlacedAt:          time.Now(),
			Subtotal:          subtotal,
			ShippingCost:      req.ShippingCost,
			Taxes:             req.Taxes,
			TotalAmount:       subtotal + req.ShippingCost + req.Taxes,
			ShippingAddressID: req.ShippingAddressID,
			Items:             req.Items,
		},
		owner:        owner,
		clientSecret: secret,
	}
	m.secrets[secret] = id

	return models.PaymentIntent{PurchaseID: id, ClientSecret: secret}, nil
}

func (m *memoryStore) getPurchase(owner, id string) (models.Purchase, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.purchases[id]
	if !ok || record.owner != owner {
		return models.Purchase{}, false
	}
	return record.purchase, true
}

// settlePayment consumes a client secret exactly once and marks the
// purchase paid.
func (m *memoryStore) settlePayment(secret string) (models.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.secrets[secret]
	if !ok {
		return models.Purchase{}, errSecretUnknown
	}

	record := m.purchases[id]
	if record.secretUsed {
		return models.Purchase{}, errSecretUsed
	}

	record.secretUsed = true
	record.purchase.Status = "paid"
	record.purchase.Transactions = append(record.purchase.Transactions, models.Transaction{
		ID:     uuid.NewString(),
		Amount: record.purchase.TotalAmount,
		Status: "succeeded",
	})
	return record.purchase, nil
}
