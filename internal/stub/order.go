package stub

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/lureclo-storefront/internal/models"
)

// OrderHandler manages address and purchase endpoints.
type OrderHandler struct {
	store *memoryStore
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(store *memoryStore) *OrderHandler {
	return &OrderHandler{store: store}
}

// CreateAddress stores a shipping address and returns its id.
func (h *OrderHandler) CreateAddress(c *fiber.Ctx) error {
	owner, ok := currentSubject(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var input models.AddressInput
	if err := c.BodyParser(&input); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	for field, value := range map[string]string{
		"street":   input.Street,
		"number":   input.Number,
		"city":     input.City,
		"state":    input.State,
		"zip_code": input.ZipCode,
	} {
		if strings.TrimSpace(value) == "" {
			return fiber.NewError(fiber.StatusBadRequest, field+" is required")
		}
	}

	address := h.store.createAddress(owner, input)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": address})
}

// CreatePurchase creates an order from a cart snapshot and returns the
// purchase id with a payment client secret.
func (h *OrderHandler) CreatePurchase(c *fiber.Ctx) error {
	owner, ok := currentSubject(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req models.PurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.Items) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Cannot create a purchase without items.")
	}
	for _, item := range req.Items {
		if item.ProductID == "" || item.SizeID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "every item needs product_id and size_id")
		}
		if item.Quantity <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "quantity must be positive")
		}
	}

	intent, err := h.store.createPurchase(owner, req)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return fiber.NewError(fiber.StatusBadRequest, "shipping address not found")
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(intent)
}

// GetPurchase reads an order back, honoring the include flags.
func (h *OrderHandler) GetPurchase(c *fiber.Ctx) error {
	owner, ok := currentSubject(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	purchase, found := h.store.getPurchase(owner, c.Params("id"))
	if !found {
		return fiber.NewError(fiber.StatusNotFound, "purchase not found")
	}

	// Presence of the key is the signal, so the bare ?include_items form
	// works too.
	query := c.Context().QueryArgs()
	if !query.Has("include_items") {
		purchase.Items = nil
	}
	if !query.Has("include_transactions") {
		purchase.Transactions = nil
	}
	if query.Has("include_address") {
		if address, ok := h.store.getAddress(purchase.ShippingAddressID); ok {
			purchase.Address = &address
		}
	}

	return c.JSON(fiber.Map{"data": purchase})
}
