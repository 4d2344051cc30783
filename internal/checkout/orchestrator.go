// Package checkout sequences address creation, order creation and payment
// confirmation from a cart snapshot. The orchestrator keeps the ids it has
// already obtained, so resubmitting after a partial failure resumes at the
// first incomplete step instead of creating duplicate records.
package checkout

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/example/lureclo-storefront/internal/models"
	"github.com/example/lureclo-storefront/internal/payment"
)

// Backend is the slice of the REST API the orchestrator drives.
type Backend interface {
	CreateAddress(ctx context.Context, input models.AddressInput) (string, error)
	CreatePurchase(ctx context.Context, req models.PurchaseRequest) (models.PaymentIntent, error)
}

// Form is the shipping and contact input collected from the user.
type Form struct {
	Email      string
	FirstName  string
	LastName   string
	Street     string
	Number     string
	City       string
	State      string
	ZipCode    string
	Country    string
	Complement string
}

// Totals carries the charges added on top of the cart subtotal.
type Totals struct {
	ShippingCost float64
	Taxes        float64
}

// Result reports a completed checkout.
type Result struct {
	PurchaseID       string
	ConfirmationPath string
}

// Orchestrator drives one checkout attempt to completion.
type Orchestrator struct {
	mu        sync.Mutex
	backend   Backend
	confirmer payment.Confirmer

	step         Step
	addressID    string
	purchaseID   string
	clientSecret string
	billing      payment.Billing
	lastError    string
}

// NewOrchestrator constructs an Orchestrator ready to collect an address.
func NewOrchestrator(backend Backend, confirmer payment.Confirmer) *Orchestrator {
	return &Orchestrator{
		backend:   backend,
		confirmer: confirmer,
		step:      StepCollectingAddress,
	}
}

// Step reports the current position in the flow.
func (o *Orchestrator) Step() Step {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.step
}

// PurchaseID returns the backend order id once one has been obtained.
func (o *Orchestrator) PurchaseID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.purchaseID
}

// LastError returns the human-readable message of the most recent failure.
func (o *Orchestrator) LastError() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastError
}

// Submit validates the form, creates the address and order records as
// needed, and drives the payment confirmation. Validation and integrity
// failures abort before any network call. Steps already confirmed by an
// earlier attempt are skipped on resubmission.
func (o *Orchestrator) Submit(ctx context.Context, form Form, snapshot []models.LineItem, totals Totals) (Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.step.IsTerminal() {
		return Result{}, ErrAlreadyCompleted
	}

	if fields := validateForm(form); len(fields) > 0 {
		return Result{}, &ValidationError{Fields: fields}
	}

	if len(snapshot) == 0 {
		return Result{}, ErrEmptyCart
	}

	items := make([]models.PurchaseItem, 0, len(snapshot))
	for _, li := range snapshot {
		if li.ProductID == "" {
			return Result{}, &DataIntegrityError{LocalID: li.LocalID, Missing: "product id"}
		}
		if li.SizeID == "" {
			return Result{}, &DataIntegrityError{LocalID: li.LocalID, Missing: "size id"}
		}
		items = append(items, models.PurchaseItem{
			ProductID:           li.ProductID,
			SizeID:              li.SizeID,
			Quantity:            li.Quantity,
			UnitPriceAtPurchase: li.UnitPrice,
		})
	}

	o.billing = payment.Billing{
		Name:       strings.TrimSpace(form.FirstName + " " + form.LastName),
		Email:      form.Email,
		PostalCode: form.ZipCode,
	}

	if o.addressID == "" {
		o.step = StepAddressSubmitting
		addressID, err := o.backend.CreateAddress(ctx, models.AddressInput{
			Street:     form.Street,
			Number:     form.Number,
			City:       form.City,
			State:      form.State,
			ZipCode:    form.ZipCode,
			Complement: form.Complement,
		})
		if err != nil {
			return Result{}, o.failLocked("could not save the shipping address", err)
		}
		o.addressID = addressID
	}

	if o.purchaseID == "" {
		o.step = StepOrderCreating
		intent, err := o.backend.CreatePurchase(ctx, models.PurchaseRequest{
			ShippingAddressID: o.addressID,
			ShippingCost:      totals.ShippingCost,
			Taxes:             totals.Taxes,
			Items:             items,
		})
		if err != nil {
			return Result{}, o.failLocked("could not create the order", err)
		}
		o.purchaseID = intent.PurchaseID
		o.clientSecret = intent.ClientSecret
	}

	o.step = StepAwaitingPayment
	return o.confirmLocked(ctx)
}

// RetryPayment re-runs the confirmation for a purchase that is already
// created and awaiting payment. The existing order and client secret are
// reused.
func (o *Orchestrator) RetryPayment(ctx context.Context) (Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.step != StepAwaitingPayment || o.clientSecret == "" {
		return Result{}, ErrNoPendingPayment
	}
	return o.confirmLocked(ctx)
}

func (o *Orchestrator) confirmLocked(ctx context.Context) (Result, error) {
	o.step = StepPaymentConfirming

	result, err := o.confirmer.Confirm(ctx, o.clientSecret, o.billing)
	if err != nil {
		o.step = StepAwaitingPayment
		o.lastError = "payment could not be processed, please try again"
		return Result{}, fmt.Errorf("confirm payment: %w", err)
	}

	if result.Status == payment.StatusSucceeded {
		o.step = StepCompleted
		o.lastError = ""
		return Result{
			PurchaseID:       o.purchaseID,
			ConfirmationPath: "/order-confirmation/" + o.purchaseID,
		}, nil
	}

	o.step = StepAwaitingPayment
	o.lastError = result.Message
	return Result{}, &PaymentDeclinedError{Message: result.Message}
}

// failLocked records a step failure and keeps any ids already obtained so a
// resubmission does not duplicate backend records.
func (o *Orchestrator) failLocked(message string, err error) error {
	o.step = StepErrored
	o.lastError = message
	return fmt.Errorf("%s: %w", message, err)
}

// validateForm returns one entry per empty required field; an empty map
// means the form is complete.
func validateForm(form Form) map[string]string {
	required := []struct {
		field string
		value string
	}{
		{"email", form.Email},
		{"first_name", form.FirstName},
		{"last_name", form.LastName},
		{"street", form.Street},
		{"number", form.Number},
		{"city", form.City},
		{"state", form.State},
		{"zip_code", form.ZipCode},
		{"country", form.Country},
	}

	fields := make(map[string]string)
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			fields[r.field] = r.field + " is required"
		}
	}
	return fields
}
