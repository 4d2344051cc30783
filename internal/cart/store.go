// Package cart holds the authoritative line-item list, mirrored to client
// storage and kept in step with the backend. Every mutation applies
// optimistically, then either commits when the backend confirms or applies
// its inverse when the call fails.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/example/lureclo-storefront/internal/models"
	"github.com/example/lureclo-storefront/internal/storage"
)

// mirrorKey is the fixed storage key for the cart snapshot.
const mirrorKey = "cart"

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidProduct  = errors.New("product_id is required")
	ErrItemNotFound    = errors.New("cart item not found")
)

// Backend is the slice of the REST API the cart store drives.
type Backend interface {
	CreateCartItem(ctx context.Context, req models.CartItemCreate) (models.CartItemRecord, error)
	UpdateCartItem(ctx context.Context, cartItemID string, quantity int) error
	DeleteCartItem(ctx context.Context, cartItemID string) error
	FetchCart(ctx context.Context) ([]models.CartItemRecord, error)
}

// AddInput carries a product selection plus the display metadata captured at
// add time.
type AddInput struct {
	ProductID string
	SizeID    string
	Name      string
	Size      string
	Quantity  int
	UnitPrice float64
	Image     string
}

// Store owns the in-memory line-item list. The storage mirror is a cache of
// this list, never a second owner.
//
// Mutations hold the lock across the confirmation round trip, so overlapping
// edits to the same item serialize instead of racing.
type Store struct {
	mu      sync.Mutex
	backend Backend
	mirror  *storage.Store
	items   []models.LineItem
}

// New rehydrates the last persisted cart and returns the store.
func New(backend Backend, mirror *storage.Store) *Store {
	s := &Store{backend: backend, mirror: mirror}

	var items []models.LineItem
	found, err := mirror.Get(mirrorKey, &items)
	if err != nil {
		log.Printf("cart: discarding unreadable mirror: %v", err)
		return s
	}
	if found {
		s.items = items
	}
	return s
}

// Items returns a snapshot of the current line items.
func (s *Store) Items() []models.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make([]models.LineItem, len(s.items))
	copy(snapshot, s.items)
	return snapshot
}

// Subtotal sums quantity times unit price over all line items.
func (s *Store) Subtotal() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total float64
	for _, item := range s.items {
		total += item.LineTotal()
	}
	return total
}

// AddItem merges the selection into an existing (product, size) line or
// appends a new one, then confirms with the backend. On failure the local
// addition is rolled back and the error surfaced.
func (s *Store) AddItem(ctx context.Context, input AddInput) (models.LineItem, error) {
	if input.ProductID == "" {
		return models.LineItem{}, ErrInvalidProduct
	}
	if input.Quantity <= 0 {
		return models.LineItem{}, ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.findByProductSize(input.ProductID, input.Size); idx >= 0 {
		prev := s.items[idx].Quantity
		s.items[idx].Quantity += input.Quantity
		s.persistLocked()

		if err := s.syncQuantityLocked(ctx, idx, input); err != nil {
			s.items[idx].Quantity = prev
			s.persistLocked()
			return models.LineItem{}, fmt.Errorf("add to cart: %w", err)
		}
		// The sync may have assigned a backend id to a previously unsynced
		// item; mirror it.
		s.persistLocked()
		return s.items[idx], nil
	}

	item := models.LineItem{
		LocalID:   uuid.NewString(),
		ProductID: input.ProductID,
		SizeID:    input.SizeID,
		Name:      input.Name,
		Size:      input.Size,
		Quantity:  input.Quantity,
		UnitPrice: input.UnitPrice,
		Image:     input.Image,
	}
	s.items = append(s.items, item)
	idx := len(s.items) - 1
	s.persistLocked()

	record, err := s.backend.CreateCartItem(ctx, models.CartItemCreate{
		ProductID: input.ProductID,
		SizeID:    input.SizeID,
		Size:      input.Size,
		Quantity:  input.Quantity,
	})
	if err != nil {
		s.items = append(s.items[:idx], s.items[idx+1:]...)
		s.persistLocked()
		return models.LineItem{}, fmt.Errorf("add to cart: %w", err)
	}

	s.items[idx].CartItemID = record.ID
	s.persistLocked()
	return s.items[idx], nil
}

// RemoveItem deletes the line item with the given local id. Removing an
// already-absent item is a no-op. On backend failure the item is reinserted
// where it was.
func (s *Store) RemoveItem(ctx context.Context, localID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findByLocalID(localID)
	if idx < 0 {
		return nil
	}

	removed := s.items[idx]
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.persistLocked()

	if removed.CartItemID == "" {
		return nil
	}

	if err := s.backend.DeleteCartItem(ctx, removed.CartItemID); err != nil {
		s.items = append(s.items[:idx], append([]models.LineItem{removed}, s.items[idx:]...)...)
		s.persistLocked()
		return fmt.Errorf("remove from cart: %w", err)
	}
	return nil
}

// UpdateQuantity sets a new quantity for the line item. A quantity of zero
// or less removes the item instead of keeping a zero-quantity record.
func (s *Store) UpdateQuantity(ctx context.Context, localID string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, localID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findByLocalID(localID)
	if idx < 0 {
		return ErrItemNotFound
	}

	prev := s.items[idx].Quantity
	s.items[idx].Quantity = quantity
	s.persistLocked()

	if s.items[idx].CartItemID == "" {
		return nil
	}

	if err := s.backend.UpdateCartItem(ctx, s.items[idx].CartItemID, quantity); err != nil {
		s.items[idx].Quantity = prev
		s.persistLocked()
		return fmt.Errorf("update cart quantity: %w", err)
	}
	return nil
}

// Clear empties the local list and its mirror. Each backend item keeps its
// own lifecycle; no backend call is made.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.persistLocked()
}

// Refresh replaces local state with the backend's cart, correcting any drift
// left behind by overlapping updates.
func (s *Store) Refresh(ctx context.Context) error {
	records, err := s.backend.FetchCart(ctx)
	if err != nil {
		return fmt.Errorf("refresh cart: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]models.LineItem, 0, len(records))
	for _, record := range records {
		localID := uuid.NewString()
		if idx := s.findByCartItemID(record.ID); idx >= 0 {
			localID = s.items[idx].LocalID
		}
		items = append(items, models.LineItem{
			LocalID:    localID,
			CartItemID: record.ID,
			ProductID:  record.ProductID,
			SizeID:     record.SizeID,
			Name:       record.Name,
			Size:       record.Size,
			Quantity:   record.Quantity,
			UnitPrice:  record.UnitPrice,
			Image:      record.Image,
		})
	}
	s.items = items
	s.persistLocked()
	return nil
}

// syncQuantityLocked confirms a merged addition: synced items get a quantity
// update, an item the backend has never seen gets created.
func (s *Store) syncQuantityLocked(ctx context.Context, idx int, input AddInput) error {
	item := s.items[idx]
	if item.CartItemID != "" {
		return s.backend.UpdateCartItem(ctx, item.CartItemID, item.Quantity)
	}

	record, err := s.backend.CreateCartItem(ctx, models.CartItemCreate{
		ProductID: item.ProductID,
		SizeID:    item.SizeID,
		Size:      item.Size,
		Quantity:  item.Quantity,
	})
	if err != nil {
		return err
	}
	s.items[idx].CartItemID = record.ID
	return nil
}

func (s *Store) findByProductSize(productID, size string) int {
	for i, item := range s.items {
		if item.ProductID == productID && item.Size == size {
			return i
		}
	}
	return -1
}

func (s *Store) findByLocalID(localID string) int {
	for i, item := range s.items {
		if item.LocalID == localID {
			return i
		}
	}
	return -1
}

func (s *Store) findByCartItemID(cartItemID string) int {
	for i, item := range s.items {
		if item.CartItemID == cartItemID {
			return i
		}
	}
	return -1
}

// persistLocked mirrors the list synchronously so a reload reconstructs the
// last known cart even before a round trip resolves. Mirror failures are
// logged, not fatal; the in-memory list stays authoritative.
func (s *Store) persistLocked() {
	items := s.items
	if items == nil {
		items = []models.LineItem{}
	}
	if err := s.mirror.Put(mirrorKey, items); err != nil {
		log.Printf("cart: mirror write failed: %v", err)
	}
}
