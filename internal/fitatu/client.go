// internal/fitatu/client.go
package fitatu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"meal-sync/internal/config"
	"meal-sync/internal/httpclient"
	"meal-sync/internal/models"
)

const searchLimit = "50"

var (
	errUserIDRequired = errors.New("fitatu: user id is required")
	errMissingID      = errors.New("fitatu: create product response has no id")
)

// Client talks to the Fitatu products and diet plan endpoints on behalf of a
// single user.
type Client struct {
	api    *httpclient.Client
	userID string
	logger *zap.Logger
}

// NewClient builds a client authenticated with the configured credentials.
func NewClient(cfg config.FitatuConfig, logger *zap.Logger, opts ...httpclient.Option) (*Client, error) {
	if strings.TrimSpace(cfg.UserID) == "" {
		return nil, errUserIDRequired
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts = append([]httpclient.Option{
		httpclient.WithHeader("Api-Key", cfg.APIKey),
		httpclient.WithHeader("Api-Secret", cfg.APISecret),
		httpclient.WithHeader("Authorization", cfg.Authorization),
		httpclient.WithHeader("Content-Type", "application/json"),
		httpclient.WithLogger(logger),
	}, opts...)

	api, err := httpclient.New(cfg.BaseURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("fitatu: %w", err)
	}
	return &Client{api: api, userID: cfg.UserID, logger: logger}, nil
}

// SearchProducts runs the user's food search for phrase on date. The search is
// fuzzy; callers filter the results themselves.
func (c *Client) SearchProducts(ctx context.Context, phrase, date string) ([]models.TrackerProduct, error) {
	query := url.Values{}
	query.Set("date", date)
	query.Set("phrase", phrase)
	query.Set("page", "1")
	query.Set("limit", searchLimit)

	body, err := c.api.Get(ctx, "search/food/user/"+url.PathEscape(c.userID), query)
	if err != nil {
		return nil, fmt.Errorf("fitatu: search %q: %w", phrase, err)
	}

	var products []models.TrackerProduct
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("fitatu: decode search %q: %w", phrase, err)
	}
	return products, nil
}

// CreateProduct creates a product and returns its id.
func (c *Client) CreateProduct(ctx context.Context, product models.NewProduct) (models.ID, error) {
	body, err := c.api.Post(ctx, "products", product)
	if err != nil {
		return "", fmt.Errorf("fitatu: create product %q: %w", product.Name, err)
	}

	id := gjson.GetBytes(body, "id")
	if !id.Exists() || strings.TrimSpace(id.String()) == "" {
		return "", errMissingID
	}
	return models.ID(id.String()), nil
}

// DeleteProduct removes a product.
func (c *Client) DeleteProduct(ctx context.Context, id models.ID) error {
	if err := c.api.Delete(ctx, "products/"+url.PathEscape(id.String())); err != nil {
		return fmt.Errorf("fitatu: delete product %s: %w", id, err)
	}
	return nil
}

// DietPlan returns the user's plan for date. Slot keys outside the known set
// are dropped.
func (c *Client) DietPlan(ctx context.Context, date string) (models.DietPlan, error) {
	path := fmt.Sprintf("diet-and-activity-plan/%s/day/%s", url.PathEscape(c.userID), url.PathEscape(date))
	body, err := c.api.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("fitatu: fetch diet plan %s: %w", date, err)
	}

	var payload struct {
		DietPlan models.RawDietPlan `json:"dietPlan"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("fitatu: decode diet plan %s: %w", date, err)
	}

	plan := make(models.DietPlan, len(payload.DietPlan))
	for key, entry := range payload.DietPlan {
		slot, err := models.ParseSlot(key)
		if err != nil {
			c.logger.Debug("ignoring diet plan slot", zap.String("date", date), zap.String("slot", key))
			continue
		}
		plan[slot] = entry.Items
	}
	return plan, nil
}

// SaveDietPlan writes the plan for date.
func (c *Client) SaveDietPlan(ctx context.Context, date string, plan models.DietPlan) error {
	body := map[string]any{
		date: map[string]any{
			"dietPlan": plan,
		},
	}
	if _, err := c.api.Post(ctx, "diet-plan/"+url.PathEscape(c.userID)+"/days", body); err != nil {
		return fmt.Errorf("fitatu: save diet plan %s: %w", date, err)
	}
	return nil
}
