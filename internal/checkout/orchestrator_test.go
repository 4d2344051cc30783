package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/lureclo-storefront/internal/models"
	"github.com/example/lureclo-storefront/internal/payment"
)

// mockCheckoutBackend implements Backend, counting calls per operation.
type mockCheckoutBackend struct {
	addressCalls  int
	addressErr    error
	purchaseCalls int
	purchaseErr   error

	lastPurchase models.PurchaseRequest
}

func (m *mockCheckoutBackend) CreateAddress(ctx context.Context, input models.AddressInput) (string, error) {
	m.addressCalls++
	if m.addressErr != nil {
		return "", m.addressErr
	}
	return "addr-1", nil
}

func (m *mockCheckoutBackend) CreatePurchase(ctx context.Context, req models.PurchaseRequest) (models.PaymentIntent, error) {
	m.purchaseCalls++
	if m.purchaseErr != nil {
		return models.PaymentIntent{}, m.purchaseErr
	}
	m.lastPurchase = req
	return models.PaymentIntent{PurchaseID: "pur-1", ClientSecret: "pi_pur-1_secret_x"}, nil
}

// mockConfirmer implements payment.Confirmer with a scripted result queue.
type mockConfirmer struct {
	calls   int
	results []payment.Result
	err     error

	lastSecret  string
	lastBilling payment.Billing
}

func (m *mockConfirmer) Confirm(ctx context.Context, clientSecret string, billing payment.Billing) (payment.Result, error) {
	m.calls++
	m.lastSecret = clientSecret
	m.lastBilling = billing
	if m.err != nil {
		return payment.Result{}, m.err
	}
	result := m.results[0]
	if len(m.results) > 1 {
		m.results = m.results[1:]
	}
	return result, nil
}

func validForm() Form {
	return Form{
		Email:     "jo@example.com",
		FirstName: "Jo",
		LastName:  "Silva",
		Street:    "Rua das Flores",
		Number:    "100",
		City:      "Sao Paulo",
		State:     "SP",
		ZipCode:   "01000-000",
		Country:   "Brazil",
	}
}

func snapshot() []models.LineItem {
	return []models.LineItem{
		{LocalID: "l1", CartItemID: "ci-1", ProductID: "p1", SizeID: "s1", Quantity: 2, UnitPrice: 10.00},
		{LocalID: "l2", CartItemID: "ci-2", ProductID: "p2", SizeID: "s2", Quantity: 1, UnitPrice: 25.00},
	}
}

func succeeding() *mockConfirmer {
	return &mockConfirmer{results: []payment.Result{{Status: payment.StatusSucceeded}}}
}

func TestSubmitHappyPath(t *testing.T) {
	backend := &mockCheckoutBackend{}
	confirmer := succeeding()
	orch := NewOrchestrator(backend, confirmer)

	result, err := orch.Submit(context.Background(), validForm(), snapshot(), Totals{ShippingCost: 5, Taxes: 2})

	require.NoError(t, err)
	assert.Equal(t, "pur-1", result.PurchaseID)
	assert.Equal(t, "/order-confirmation/pur-1", result.ConfirmationPath)
	assert.Equal(t, StepCompleted, orch.Step())

	assert.Equal(t, 1, backend.addressCalls)
	assert.Equal(t, 1, backend.purchaseCalls)
	assert.Equal(t, 1, confirmer.calls)

	assert.Equal(t, "addr-1", backend.lastPurchase.ShippingAddressID)
	assert.Equal(t, 5.0, backend.lastPurchase.ShippingCost)
	require.Len(t, backend.lastPurchase.Items, 2)
	assert.Equal(t, 10.00, backend.lastPurchase.Items[0].UnitPriceAtPurchase)

	assert.Equal(t, "pi_pur-1_secret_x", confirmer.lastSecret)
	assert.Equal(t, "Jo Silva", confirmer.lastBilling.Name)
	assert.Equal(t, "01000-000", confirmer.lastBilling.PostalCode)
}

func TestSubmitValidationCollectsAllMissingFields(t *testing.T) {
	backend := &mockCheckoutBackend{}
	orch := NewOrchestrator(backend, succeeding())

	form := validForm()
	form.Email = ""
	form.Street = ""
	form.ZipCode = "  "

	_, err := orch.Submit(context.Background(), form, snapshot(), Totals{})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "street")
	assert.Contains(t, verr.Fields, "zip_code")

	assert.Equal(t, 0, backend.addressCalls)
	assert.Equal(t, StepCollectingAddress, orch.Step())
}

func TestSubmitEmptyCart(t *testing.T) {
	backend := &mockCheckoutBackend{}
	orch := NewOrchestrator(backend, succeeding())

	_, err := orch.Submit(context.Background(), validForm(), nil, Totals{})

	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, 0, backend.addressCalls)
}

func TestSubmitDataIntegrityAbortsBeforeNetwork(t *testing.T) {
	backend := &mockCheckoutBackend{}
	orch := NewOrchestrator(backend, succeeding())

	items := snapshot()
	items[1].SizeID = ""

	_, err := orch.Submit(context.Background(), validForm(), items, Totals{})

	var derr *DataIntegrityError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "l2", derr.LocalID)
	assert.Equal(t, 0, backend.addressCalls)
	assert.Equal(t, 0, backend.purchaseCalls)
}

func TestSubmitAddressFailureKeepsNothingCreated(t *testing.T) {
	backend := &mockCheckoutBackend{addressErr: errors.New("address service down")}
	orch := NewOrchestrator(backend, succeeding())

	_, err := orch.Submit(context.Background(), validForm(), snapshot(), Totals{})

	require.Error(t, err)
	assert.Equal(t, StepErrored, orch.Step())
	assert.Equal(t, "could not save the shipping address", orch.LastError())
	assert.Equal(t, 0, backend.purchaseCalls)
}

func TestResubmitAfterAddressFailureRetriesAddress(t *testing.T) {
	backend := &mockCheckoutBackend{addressErr: errors.New("address service down")}
	orch := NewOrchestrator(backend, succeeding())

	_, err := orch.Submit(context.Background(), validForm(), snapshot(), Totals{})
	require.Error(t, err)

	backend.addressErr = nil
	result, err := orch.Submit(context.Background(), validForm(), snapshot(), Totals{})

	require.NoError(t, err)
	assert.Equal(t, "pur-1", result.PurchaseID)
	assert.Equal(t, 2, backend.addressCalls)
	assert.Equal(t, 1, backend.purchaseCalls)
}

func TestResubmitAfterOrderFailureReusesAddress(t *testing.T) {
	backend := &mockCheckoutBackend{purchaseErr: errors.New("purchase service down")}
	orch := NewOrchestrator(backend, succeeding())

	_, err := orch.Submit(context.Background(), validForm(), snapshot(), Totals{})
	require.Error(t, err)
	assert.Equal(t, StepErrored, orch.Step())

	backend.purchaseErr = nil
	result, err := orch.Submit(context.Background(), validForm(), snapshot(), Totals{})

	require.NoError(t, err)
	assert.Equal(t, "pur-1", result.PurchaseID)
	assert.Equal(t, 1, backend.addressCalls, "address must not be created twice")
	assert.Equal(t, 2, backend.purchaseCalls)
}

func TestDeclinedPaymentKeepsOrderForRetry(t *testing.T) {
	backend := &mockCheckoutBackend{}
	confirmer := &mockConfirmer{results: []payment.Result{
		{Status: payment.StatusFailed, Message: "Your card was declined."},
		{Status: payment.StatusSucceeded},
	}}
	orch := NewOrchestrator(backend, confirmer)

	_, err := orch.Submit(context.Background(), validForm(), snapshot(), Totals{})

	var derr *PaymentDeclinedError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "Your card was declined.", derr.Message)
	assert.Equal(t, StepAwaitingPayment, orch.Step())
	assert.Equal(t, "pur-1", orch.PurchaseID())

	result, err := orch.RetryPayment(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "pur-1", result.PurchaseID)
	assert.Equal(t, StepCompleted, orch.Step())
	assert.Equal(t, 1, backend.addressCalls)
	assert.Equal(t, 1, backend.purchaseCalls, "retry must not create a second order")
	assert.Equal(t, 2, confirmer.calls)
}

func TestResubmitAfterDeclineReusesOrder(t *testing.T) {
	backend := &mockCheckoutBackend{}
	confirmer := &mockConfirmer{results: []payment.Result{
		{Status: payment.StatusFailed, Message: "Your card was declined."},
		{Status: payment.StatusSucceeded},
	}}
	orch := NewOrchestrator(backend, confirmer)

	_, err := orch.Submit(context.Background(), validForm(), snapshot(), Totals{})
	require.Error(t, err)

	result, err := orch.Submit(context.Background(), validForm(), snapshot(), Totals{})

	require.NoError(t, err)
	assert.Equal(t, "pur-1", result.PurchaseID)
	assert.Equal(t, 1, backend.addressCalls)
	assert.Equal(t, 1, backend.purchaseCalls)
}

func TestConfirmTransportFailureReturnsToAwaitingPayment(t *testing.T) {
	backend := &mockCheckoutBackend{}
	confirmer := &mockConfirmer{err: errors.New("processor unreachable")}
	orch := NewOrchestrator(backend, confirmer)

	_, err := orch.Submit(context.Background(), validForm(), snapshot(), Totals{})

	require.Error(t, err)
	var derr *PaymentDeclinedError
	assert.False(t, errors.As(err, &derr), "transport failure is not a decline")
	assert.Equal(t, StepAwaitingPayment, orch.Step())
	assert.Equal(t, "payment could not be processed, please try again", orch.LastError())
}

func TestRetryPaymentWithoutPendingPayment(t *testing.T) {
	orch := NewOrchestrator(&mockCheckoutBackend{}, succeeding())

	_, err := orch.RetryPayment(context.Background())
	assert.ErrorIs(t, err, ErrNoPendingPayment)
}

func TestSubmitAfterCompletion(t *testing.T) {
	orch := NewOrchestrator(&mockCheckoutBackend{}, succeeding())

	_, err := orch.Submit(context.Background(), validForm(), snapshot(), Totals{})
	require.NoError(t, err)

	_, err = orch.Submit(context.Background(), validForm(), snapshot(), Totals{})
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
}

func TestStepIsTerminal(t *testing.T) {
	assert.True(t, StepCompleted.IsTerminal())
	assert.False(t, StepErrored.IsTerminal())
	assert.False(t, StepAwaitingPayment.IsTerminal())
	assert.False(t, StepCollectingAddress.IsTerminal())
}
