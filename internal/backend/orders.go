package backend

import (
	"context"
	"errors"
	"net/http"

	"apparel-storefront/internal/domain"
)

// CreateOrder submits a draft. The collaborator recomputes subtotal and
// shipping; the returned order carries the authoritative totals.
func (c *Client) CreateOrder(ctx context.Context, token string, draft domain.OrderDraft) (*domain.Order, error) {
	req := wireOrderCreate{
		Email:           draft.Email,
		ShippingAddress: toWireAddress(draft.ShippingAddress),
		Items:           make([]wireOrderItem, 0, len(draft.Items)),
	}
	for _, it := range draft.Items {
		req.Items = append(req.Items, toWireItem(it))
	}
	var out wireOrder
	if err := c.do(ctx, http.MethodPost, "/orders", token, nil, req, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, errors.New("order response carried no id")
	}
	order := out.toDomain()
	return &order, nil
}

// ListOrders returns the signed-in user's orders, newest first.
func (c *Client) ListOrders(ctx context.Context, token string) ([]domain.Order, error) {
	var out []wireOrder
	if err := c.do(ctx, http.MethodGet, "/orders", token, nil, nil, &out); err != nil {
		return nil, err
	}
	orders := make([]domain.Order, 0, len(out))
	for _, o := range out {
		orders = append(orders, o.toDomain())
	}
	return orders, nil
}
