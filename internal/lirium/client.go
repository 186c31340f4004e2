// Package lirium is the settlement-partner client. The pipeline only
// needs SendDeposit; the rest of the capability set backs the onboarding
// surface that produces the users and wallets this service watches.
package lirium

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Service is the partner capability set. One production adapter exists;
// tests substitute fakes.
type Service interface {
	SendDeposit(ctx context.Context, order *DepositOrder) (*DepositOrderResponse, error)
	CreateOrder(ctx context.Context, customerID string, req *OrderRequest) (*Order, error)
	ConfirmOrder(ctx context.Context, req *OrderConfirmRequest) (*Order, error)
	GetCustomerAccount(ctx context.Context, customerID string) (*CustomerAccounts, error)
	GetWallets(ctx context.Context, customerID string) ([]ReceivingAddress, error)
	CreateCustomer(ctx context.Context, req *CreateCustomerRequest) (*Customer, error)
}

type Config struct {
	BaseURL   string
	SendURL   string
	APIKey    string
	SecretKey string
	CompanyID string
	Timeout   time.Duration
}

type Client struct {
	config Config
	http   *http.Client
}

var _ Service = (*Client)(nil)

func NewClient(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = time.Second * 30
	}
	return &Client{config: config, http: &http.Client{Timeout: config.Timeout}}
}

// SendDeposit posts one settled-deposit payload to the partner send
// endpoint. A non-2xx response comes back as *APIError; the decoded body
// still decides whether the order counts as created.
func (c *Client) SendDeposit(ctx context.Context, order *DepositOrder) (*DepositOrderResponse, error) {
	var resp DepositOrderResponse
	if err := c.doRequest(ctx, http.MethodPost, c.config.SendURL, order, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CreateOrder(ctx context.Context, customerID string, req *OrderRequest) (*Order, error) {
	var order Order
	url := fmt.Sprintf("%s/customers/%s/orders", c.config.BaseURL, customerID)
	if err := c.doRequest(ctx, http.MethodPost, url, req, &order); err != nil {
		return nil, fmt.Errorf("CreateOrder: %w", err)
	}
	return &order, nil
}

func (c *Client) ConfirmOrder(ctx context.Context, req *OrderConfirmRequest) (*Order, error) {
	var order Order
	url := fmt.Sprintf("%s/customers/%s/orders/%s/confirm", c.config.BaseURL, req.CustomerID, req.OrderID)
	if err := c.doRequest(ctx, http.MethodPost, url, req, &order); err != nil {
		return nil, fmt.Errorf("ConfirmOrder: %w", err)
	}
	return &order, nil
}

func (c *Client) GetCustomerAccount(ctx context.Context, customerID string) (*CustomerAccounts, error) {
	var accounts CustomerAccounts
	url := fmt.Sprintf("%s/customers/%s/accounts", c.config.BaseURL, customerID)
	if err := c.doRequest(ctx, http.MethodGet, url, nil, &accounts); err != nil {
		return nil, fmt.Errorf("GetCustomerAccount: %w", err)
	}
	return &accounts, nil
}

func (c *Client) GetWallets(ctx context.Context, customerID string) ([]ReceivingAddress, error) {
	var resp struct {
		ReceivingAddresses []ReceivingAddress `json:"receiving_addresses"`
	}
	url := fmt.Sprintf("%s/customers/%s/receiving_addresses", c.config.BaseURL, customerID)
	if err := c.doRequest(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return nil, fmt.Errorf("GetWallets: %w", err)
	}
	return resp.ReceivingAddresses, nil
}

func (c *Client) CreateCustomer(ctx context.Context, req *CreateCustomerRequest) (*Customer, error) {
	var customer Customer
	url := fmt.Sprintf("%s/customers", c.config.BaseURL)
	if err := c.doRequest(ctx, http.MethodPost, url, req, &customer); err != nil {
		return nil, fmt.Errorf("CreateCustomer: %w", err)
	}
	return &customer, nil
}

func (c *Client) doRequest(ctx context.Context, method, url string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("x-api-key", c.config.APIKey)
	req.Header.Set("x-secret-key", c.config.SecretKey)
	req.Header.Set("x-company-id", c.config.CompanyID)
	req.Header.Set("x-request-id", uuid.NewString())
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Body: string(raw)}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
