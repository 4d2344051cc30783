package stub

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/lureclo-storefront/internal/api"
	"github.com/example/lureclo-storefront/internal/cart"
	"github.com/example/lureclo-storefront/internal/checkout"
	"github.com/example/lureclo-storefront/internal/config"
	"github.com/example/lureclo-storefront/internal/models"
	"github.com/example/lureclo-storefront/internal/payment"
	"github.com/example/lureclo-storefront/internal/session"
	"github.com/example/lureclo-storefront/internal/storage"
)

// startServer runs the stub on a random local port and returns its base URL.
func startServer(t *testing.T) string {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:    "integration-test-secret",
		TokenExpires: time.Hour,
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	Register(app, cfg)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return "http://" + ln.Addr().String()
}

// storefront bundles the client-side components the way cmd/storefront
// wires them.
type storefront struct {
	api     *api.Client
	session *session.Manager
	cart    *cart.Store
	pay     *payment.Client
}

func newStorefront(t *testing.T, baseURL string) *storefront {
	t.Helper()

	store, err := storage.New(t.TempDir())
	require.NoError(t, err)

	client := api.NewClient(baseURL, 5*time.Second)
	sess := session.NewManager(client, store)
	client.SetCredentials(sess)

	return &storefront{
		api:     client,
		session: sess,
		cart:    cart.New(client, store),
		pay:     payment.NewClient(baseURL, 5*time.Second),
	}
}

func validForm() checkout.Form {
	return checkout.Form{
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

func TestFullPurchaseFlow(t *testing.T) {
	ctx := context.Background()
	sf := newStorefront(t, startServer(t))

	require.NoError(t, sf.session.EnsureCredential(ctx))
	assert.Equal(t, session.StateAnonymous, sf.session.State())

	_, err := sf.cart.AddItem(ctx, cart.AddInput{
		ProductID: "prod-hoodie-black", SizeID: "size-m", Size: "M", Quantity: 2, UnitPrice: 59.90,
	})
	require.NoError(t, err)
	_, err = sf.cart.AddItem(ctx, cart.AddInput{
		ProductID: "prod-tee-white", SizeID: "size-l", Size: "L", Quantity: 1, UnitPrice: 25.00,
	})
	require.NoError(t, err)

	// Refetching adopts the server's catalog metadata.
	require.NoError(t, sf.cart.Refresh(ctx))
	items := sf.cart.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "Oversized Hoodie Black", items[0].Name)
	assert.InDelta(t, 59.90, items[0].UnitPrice, 1e-9)
	assert.InDelta(t, 144.80, sf.cart.Subtotal(), 1e-9)

	orch := checkout.NewOrchestrator(sf.api, sf.pay)
	result, err := orch.Submit(ctx, validForm(), sf.cart.Items(), checkout.Totals{ShippingCost: 10, Taxes: 5})
	require.NoError(t, err)
	assert.Equal(t, checkout.StepCompleted, orch.Step())
	assert.Equal(t, "/order-confirmation/"+result.PurchaseID, result.ConfirmationPath)

	purchase, err := sf.api.GetPurchase(ctx, result.PurchaseID, models.PurchaseInclude{
		Items: true, Transactions: true, Address: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "paid", purchase.Status)
	assert.InDelta(t, 159.80, purchase.TotalAmount, 1e-9)
	require.Len(t, purchase.Items, 2)
	require.Len(t, purchase.Transactions, 1)
	assert.Equal(t, "succeeded", purchase.Transactions[0].Status)
	require.NotNil(t, purchase.Address)
	assert.Equal(t, "Rua das Flores", purchase.Address.Street)
}

func TestCartMergesAndSurvivesRefresh(t *testing.T) {
	ctx := context.Background()
	sf := newStorefront(t, startServer(t))

	_, err := sf.cart.AddItem(ctx, cart.AddInput{
		ProductID: "prod-tee-white", SizeID: "size-m", Size: "M", Quantity: 1, UnitPrice: 25.00,
	})
	require.NoError(t, err)
	merged, err := sf.cart.AddItem(ctx, cart.AddInput{
		ProductID: "prod-tee-white", SizeID: "size-m", Size: "M", Quantity: 2, UnitPrice: 25.00,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, merged.Quantity)

	require.NoError(t, sf.cart.Refresh(ctx))

	items := sf.cart.Items()
	require.Len(t, items, 1, "server merged the same (product, size) too")
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, merged.LocalID, items[0].LocalID)

	require.NoError(t, sf.cart.UpdateQuantity(ctx, items[0].LocalID, 5))
	require.NoError(t, sf.cart.Refresh(ctx))
	assert.Equal(t, 5, sf.cart.Items()[0].Quantity)

	require.NoError(t, sf.cart.RemoveItem(ctx, items[0].LocalID))
	require.NoError(t, sf.cart.Refresh(ctx))
	assert.Empty(t, sf.cart.Items())
}

func TestDeclinedPaymentResubmitReusesOrder(t *testing.T) {
	ctx := context.Background()
	sf := newStorefront(t, startServer(t))

	_, err := sf.cart.AddItem(ctx, cart.AddInput{
		ProductID: "prod-cargo-sand", SizeID: "size-32", Size: "32", Quantity: 1, UnitPrice: 79.90,
	})
	require.NoError(t, err)

	orch := checkout.NewOrchestrator(sf.api, sf.pay)

	form := validForm()
	form.ZipCode = "00000"
	_, err = orch.Submit(ctx, form, sf.cart.Items(), checkout.Totals{})

	var derr *checkout.PaymentDeclinedError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "Your card was declined.", derr.Message)
	assert.Equal(t, checkout.StepAwaitingPayment, orch.Step())

	declinedID := orch.PurchaseID()
	require.NotEmpty(t, declinedID)

	form.ZipCode = "01000-000"
	result, err := orch.Submit(ctx, form, sf.cart.Items(), checkout.Totals{})
	require.NoError(t, err)
	assert.Equal(t, declinedID, result.PurchaseID, "resubmission reuses the existing order")

	purchase, err := sf.api.GetPurchase(ctx, result.PurchaseID, models.PurchaseInclude{})
	require.NoError(t, err)
	assert.Equal(t, "paid", purchase.Status)
}

func TestAuthenticatedRefreshKeepsServerCart(t *testing.T) {
	ctx := context.Background()
	sf := newStorefront(t, startServer(t))

	require.NoError(t, sf.session.Login(ctx, "provider-token"))
	assert.Equal(t, session.StateAuthenticated, sf.session.State())

	_, err := sf.cart.AddItem(ctx, cart.AddInput{
		ProductID: "prod-tee-white", SizeID: "size-s", Size: "S", Quantity: 1, UnitPrice: 25.00,
	})
	require.NoError(t, err)

	before, err := sf.session.Token(ctx)
	require.NoError(t, err)

	after, err := sf.session.Refresh(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
	assert.Equal(t, session.StateAuthenticated, sf.session.State())

	// Same subject, so the server-side cart is still there.
	require.NoError(t, sf.cart.Refresh(ctx))
	assert.Len(t, sf.cart.Items(), 1)
}

func TestLogoutIsolatesServerCarts(t *testing.T) {
	ctx := context.Background()
	sf := newStorefront(t, startServer(t))

	require.NoError(t, sf.session.EnsureCredential(ctx))
	_, err := sf.cart.AddItem(ctx, cart.AddInput{
		ProductID: "prod-hoodie-black", SizeID: "size-m", Size: "M", Quantity: 1, UnitPrice: 59.90,
	})
	require.NoError(t, err)

	require.NoError(t, sf.session.Logout())
	assert.Equal(t, session.StateNoCredential, sf.session.State())

	// The next protected call issues a fresh anonymous credential, whose
	// server-side cart starts empty.
	require.NoError(t, sf.cart.Refresh(ctx))
	assert.Empty(t, sf.cart.Items())
	assert.Equal(t, session.StateAnonymous, sf.session.State())
}

func TestPurchaseIncludeFlagsValuelessForm(t *testing.T) {
	ctx := context.Background()
	baseURL := startServer(t)
	sf := newStorefront(t, baseURL)

	_, err := sf.cart.AddItem(ctx, cart.AddInput{
		ProductID: "prod-tee-white", SizeID: "size-m", Size: "M", Quantity: 1, UnitPrice: 25.00,
	})
	require.NoError(t, err)

	orch := checkout.NewOrchestrator(sf.api, sf.pay)
	result, err := orch.Submit(ctx, validForm(), sf.cart.Items(), checkout.Totals{})
	require.NoError(t, err)

	token, err := sf.session.Token(ctx)
	require.NoError(t, err)

	// The flags also come as bare keys without a value.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		baseURL+"/purchase/"+result.PurchaseID+"?include_items&include_transactions", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Data models.Purchase `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.NotEmpty(t, envelope.Data.Items)
	assert.NotEmpty(t, envelope.Data.Transactions)
	assert.Nil(t, envelope.Data.Address)
}

func TestPurchaseIsOwnerScoped(t *testing.T) {
	ctx := context.Background()
	baseURL := startServer(t)

	buyer := newStorefront(t, baseURL)
	_, err := buyer.cart.AddItem(ctx, cart.AddInput{
		ProductID: "prod-tee-white", SizeID: "size-m", Size: "M", Quantity: 1, UnitPrice: 25.00,
	})
	require.NoError(t, err)

	orch := checkout.NewOrchestrator(buyer.api, buyer.pay)
	result, err := orch.Submit(ctx, validForm(), buyer.cart.Items(), checkout.Totals{})
	require.NoError(t, err)

	stranger := newStorefront(t, baseURL)
	_, err = stranger.api.GetPurchase(ctx, result.PurchaseID, models.PurchaseInclude{})
	require.Error(t, err)
}
