package stub

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/example/lureclo-storefront/internal/models"
)

// CartHandler manages the per-user cart endpoints.
type CartHandler struct {
	store *memoryStore
}

// NewCartHandler constructs CartHandler.
func NewCartHandler(store *memoryStore) *CartHandler {
	return &CartHandler{store: store}
}

// List returns the owner's cart.
func (h *CartHandler) List(c *fiber.Ctx) error {
	owner, ok := currentSubject(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	return c.JSON(fiber.Map{"data": h.store.listCart(owner)})
}

// Create adds a cart item, merging quantities into an existing
// (product, size) record.
func (h *CartHandler) Create(c *fiber.Ctx) error {
	owner, ok := currentSubject(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req models.CartItemCreate
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.ProductID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "product_id is required")
	}
	if req.Quantity <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "quantity must be positive")
	}

	record := h.store.addCartItem(owner, req)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": record})
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// Update changes a cart item's quantity.
func (h *CartHandler) Update(c *fiber.Ctx) error {
	owner, ok := currentSubject(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Quantity <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "quantity must be positive")
	}

	record, err := h.store.updateCartItem(owner, c.Params("id"), req.Quantity)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "cart item not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"data": record})
}

// Delete removes a cart item.
func (h *CartHandler) Delete(c *fiber.Ctx) error {
	owner, ok := currentSubject(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	if err := h.store.deleteCartItem(owner, c.Params("id")); err != nil {
		if errors.Is(err, errNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "cart item not found")
		}
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
