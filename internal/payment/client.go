// Package payment is the HTTP client for the external payment provider. All
// calls are awaited within the handling request; there is no retry, the
// caller re-invokes on failure.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/storebox-portal/internal/model"
)

var ErrProvider = errors.New("payment provider error")

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type paymentResponse struct {
	RedirectURL string `json:"redirect_url"`
	Message     string `json:"message"`
}

// CreatePayment opens a rent payment for the order and returns the redirect
// destination.
func (c *Client) CreatePayment(ctx context.Context, orderID uuid.UUID) (string, error) {
	return c.post(ctx, "/api/payments", map[string]string{
		"order_id": orderID.String(),
	})
}

// CreateManualPayment re-opens a previously issued payment.
func (c *Client) CreateManualPayment(ctx context.Context, orderPaymentID uuid.UUID) (string, error) {
	return c.post(ctx, "/api/payments/manual", map[string]string{
		"order_payment_id": orderPaymentID.String(),
	})
}

// CreateAdditionalServicePayment charges one ancillary service, such as the
// return delivery, and returns the redirect destination.
func (c *Client) CreateAdditionalServicePayment(ctx context.Context, orderID uuid.UUID, serviceType model.ServiceType) (string, error) {
	return c.post(ctx, "/api/payments/services", map[string]string{
		"order_id":     orderID.String(),
		"service_type": string(serviceType),
	})
}

type tariffResponse struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
}

// GetPrices fetches the provider price list.
func (c *Client) GetPrices(ctx context.Context) ([]model.Tariff, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/prices", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get prices: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, providerErr(res)
	}

	var rows []tariffResponse
	if err := json.NewDecoder(res.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode prices: %w", err)
	}

	tariffs := make([]model.Tariff, len(rows))
	for i, row := range rows {
		id, _ := uuid.Parse(row.ID)
		tariffs[i] = model.Tariff{
			ID:          id,
			Type:        model.ParseServiceType(row.Type),
			Price:       row.Price,
			Description: row.Description,
		}
	}
	return tariffs, nil
}

func (c *Client) post(ctx context.Context, path string, payload map[string]string) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call provider: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		return "", providerErr(res)
	}

	var parsed paymentResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return parsed.RedirectURL, nil
}

// providerErr surfaces the provider's own message when it sent one.
func providerErr(res *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	var parsed paymentResponse
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Message != "" {
		return fmt.Errorf("%w: %s", ErrProvider, parsed.Message)
	}
	return fmt.Errorf("%w: status %d", ErrProvider, res.StatusCode)
}
