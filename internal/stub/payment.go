package stub

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// declinePostalCode forces a declined confirmation, the way processor
// sandboxes expose magic test values.
const declinePostalCode = "00000"

// PaymentHandler simulates the processor's confirmation endpoint. It is
// unauthenticated like the hosted widget it stands in for.
type PaymentHandler struct {
	store *memoryStore
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(store *memoryStore) *PaymentHandler {
	return &PaymentHandler{store: store}
}

type confirmRequest struct {
	ClientSecret   string `json:"client_secret"`
	BillingDetails struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Address struct {
			PostalCode string `json:"postal_code"`
		} `json:"address"`
	} `json:"billing_details"`
}

// Confirm consumes a client secret exactly once and settles the purchase.
func (h *PaymentHandler) Confirm(c *fiber.Ctx) error {
	var req confirmRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.BillingDetails.Address.PostalCode == declinePostalCode {
		return c.JSON(fiber.Map{"status": "failed", "message": "Your card was declined."})
	}

	if _, err := h.store.settlePayment(req.ClientSecret); err != nil {
		switch {
		case errors.Is(err, errSecretUnknown):
			return c.JSON(fiber.Map{"status": "failed", "message": "Invalid client secret."})
		case errors.Is(err, errSecretUsed):
			return c.JSON(fiber.Map{"status": "failed", "message": "This payment was already confirmed."})
		default:
			return err
		}
	}

	return c.JSON(fiber.Map{"status": "succeeded"})
}
