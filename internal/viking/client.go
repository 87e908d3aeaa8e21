// internal/viking/client.go
package viking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"meal-sync/internal/config"
	"meal-sync/internal/httpclient"
	"meal-sync/internal/models"
)

var errCookieRequired = errors.New("viking: session cookie is required")

// Client reads orders and delivery menus from the Viking customer panel.
type Client struct {
	api    *httpclient.Client
	logger *zap.Logger
}

// NewClient builds a client authenticated with the configured session cookie.
func NewClient(cfg config.VikingConfig, logger *zap.Logger, opts ...httpclient.Option) (*Client, error) {
	if strings.TrimSpace(cfg.Cookie) == "" {
		return nil, errCookieRequired
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts = append([]httpclient.Option{
		httpclient.WithHeader("Cookie", cfg.Cookie),
		httpclient.WithLogger(logger),
	}, opts...)

	api, err := httpclient.New(cfg.BaseURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("viking: %w", err)
	}
	return &Client{api: api, logger: logger}, nil
}

// Order fetches the order with all its deliveries.
func (c *Client) Order(ctx context.Context, orderID string) (models.Order, error) {
	body, err := c.api.Get(ctx, "company/customer/order/"+url.PathEscape(orderID), nil)
	if err != nil {
		return models.Order{}, fmt.Errorf("viking: fetch order %s: %w", orderID, err)
	}

	var order models.Order
	if err := json.Unmarshal(body, &order); err != nil {
		return models.Order{}, fmt.Errorf("viking: decode order %s: %w", orderID, err)
	}
	c.logger.Debug("order fetched", zap.String("order_id", orderID), zap.Int("deliveries", len(order.Deliveries)))
	return order, nil
}

// DeliveryMenu fetches the meals and nutrition facts of a delivery.
func (c *Client) DeliveryMenu(ctx context.Context, deliveryID models.ID) (models.DeliveryMenu, error) {
	path := fmt.Sprintf("company/general/menus/delivery/%s/new", url.PathEscape(deliveryID.String()))
	body, err := c.api.Get(ctx, path, nil)
	if err != nil {
		return models.DeliveryMenu{}, fmt.Errorf("viking: fetch delivery %s: %w", deliveryID, err)
	}

	var menu models.DeliveryMenu
	if err := json.Unmarshal(body, &menu); err != nil {
		return models.DeliveryMenu{}, fmt.Errorf("viking: decode delivery %s: %w", deliveryID, err)
	}
	return menu, nil
}
