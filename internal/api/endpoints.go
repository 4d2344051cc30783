package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/example/lureclo-storefront/internal/models"
)

type tokenResponse struct {
	Token string `json:"token"`
}

// AnonymousToken requests an auto-issued credential for a fresh visitor.
func (c *Client) AnonymousToken(ctx context.Context) (string, error) {
	var resp tokenResponse
	err := c.do(ctx, http.MethodGet, "/user/anonymous-token", nil, &resp, requestOpts{skipAuth: true})
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

// ExchangeLogin trades an identity-provider token for a backend session
// credential.
func (c *Client) ExchangeLogin(ctx context.Context, providerToken string) (string, error) {
	body := map[string]string{"provider_token": providerToken}
	var resp tokenResponse
	err := c.do(ctx, http.MethodPost, "/user/login", body, &resp, requestOpts{skipAuth: true})
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

// RefreshToken exchanges an expiring credential for a fresh one of the same
// class. The old token authenticates the call itself.
func (c *Client) RefreshToken(ctx context.Context, token string) (string, error) {
	var resp tokenResponse
	err := c.do(ctx, http.MethodPost, "/user/refresh", nil, &resp, requestOpts{token: token})
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

type cartItemEnvelope struct {
	Data models.CartItemRecord `json:"data"`
}

type cartListEnvelope struct {
	Data []models.CartItemRecord `json:"data"`
}

// FetchCart returns the backend's current cart for the credential's owner.
func (c *Client) FetchCart(ctx context.Context) ([]models.CartItemRecord, error) {
	var resp cartListEnvelope
	if err := c.Do(ctx, http.MethodGet, "/cart", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// CreateCartItem adds a cart item on the backend and returns the stored
// record, including its assigned id.
func (c *Client) CreateCartItem(ctx context.Context, req models.CartItemCreate) (models.CartItemRecord, error) {
	var resp cartItemEnvelope
	if err := c.Do(ctx, http.MethodPost, "/cart/create", req, &resp); err != nil {
		return models.CartItemRecord{}, err
	}
	return resp.Data, nil
}

// UpdateCartItem changes the quantity of an existing cart item.
func (c *Client) UpdateCartItem(ctx context.Context, cartItemID string, quantity int) error {
	body := map[string]int{"quantity": quantity}
	return c.Do(ctx, http.MethodPut, "/cart/update/"+url.PathEscape(cartItemID), body, nil)
}

// DeleteCartItem removes a cart item. Deleting an item the backend no longer
// has counts as success.
func (c *Client) DeleteCartItem(ctx context.Context, cartItemID string) error {
	err := c.Do(ctx, http.MethodDelete, "/cart/delete/"+url.PathEscape(cartItemID), nil, nil)
	var srvErr *ServerError
	if errors.As(err, &srvErr) && srvErr.Status == http.StatusNotFound {
		return nil
	}
	return err
}

type addressEnvelope struct {
	Data models.Address `json:"data"`
}

// CreateAddress creates a shipping address record and returns its id.
func (c *Client) CreateAddress(ctx context.Context, input models.AddressInput) (string, error) {
	var resp addressEnvelope
	if err := c.Do(ctx, http.MethodPost, "/address/create", input, &resp); err != nil {
		return "", err
	}
	return resp.Data.ID, nil
}

// CreatePurchase creates an order from a cart snapshot and returns the
// purchase id paired with the processor's client secret.
func (c *Client) CreatePurchase(ctx context.Context, req models.PurchaseRequest) (models.PaymentIntent, error) {
	var resp models.PaymentIntent
	if err := c.Do(ctx, http.MethodPost, "/purchase/create", req, &resp); err != nil {
		return models.PaymentIntent{}, err
	}
	return resp, nil
}

type purchaseEnvelope struct {
	Data models.Purchase `json:"data"`
}

// GetPurchase reads a purchase back, optionally including items,
// transactions and the shipping address.
func (c *Client) GetPurchase(ctx context.Context, id string, include models.PurchaseInclude) (models.Purchase, error) {
	values := url.Values{}
	if include.Items {
		values.Set("include_items", "true")
	}
	if include.Transactions {
		values.Set("include_transactions", "true")
	}
	if include.Address {
		values.Set("include_address", "true")
	}

	path := "/purchase/" + url.PathEscape(id)
	if encoded := values.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var resp purchaseEnvelope
	if err := c.Do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return models.Purchase{}, err
	}
	return resp.Data, nil
}
