// Package client is an HTTP client for the CRM API, used by the seed tool
// and by services that call each other.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/apperr"
	"github.com/prudhivi99/Distributed-Systems/minisys-crm/internal/models"
)

type CRMClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewCRMClient(baseURL string) *CRMClient {
	return &CRMClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *CRMClient) CreateCustomer(ctx context.Context, req models.CreateCustomerRequest) (*models.Customer, error) {
	var resp struct {
		Customer models.Customer `json:"customer"`
	}
	if err := c.do(ctx, http.MethodPost, "/customers", req, http.StatusCreated, &resp); err != nil {
		return nil, err
	}
	return &resp.Customer, nil
}

func (c *CRMClient) BulkCreateCustomers(ctx context.Context, reqs []models.CreateCustomerRequest) (*models.BulkCreateCustomersResult, error) {
	var result models.BulkCreateCustomersResult
	body := models.BulkCreateCustomersRequest{Customers: reqs}
	if err := c.do(ctx, http.MethodPost, "/customers/bulk", body, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *CRMClient) CreateProduct(ctx context.Context, req models.CreateProductRequest) (*models.Product, error) {
	var resp struct {
		Product models.Product `json:"product"`
	}
	if err := c.do(ctx, http.MethodPost, "/products", req, http.StatusCreated, &resp); err != nil {
		return nil, err
	}
	return &resp.Product, nil
}

// GetProduct fetches a product from the product service.
func (c *CRMClient) GetProduct(ctx context.Context, productID int64) (*models.Product, error) {
	var product models.Product
	path := fmt.Sprintf("/products/%d", productID)
	if err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// ListProducts lists all products, or only those in or out of stock when
// inStock is set.
func (c *CRMClient) ListProducts(ctx context.Context, inStock *bool) ([]models.Product, error) {
	path := "/products"
	if inStock != nil {
		path += "?" + url.Values{"in_stock": {strconv.FormatBool(*inStock)}}.Encode()
	}
	var products []models.Product
	if err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *CRMClient) PlaceOrder(ctx context.Context, customerID int64, productIDs []int64) (*models.Order, error) {
	var resp struct {
		Order models.Order `json:"order"`
	}
	req := models.PlaceOrderRequest{CustomerID: customerID, ProductIDs: productIDs}
	if err := c.do(ctx, http.MethodPost, "/orders", req, http.StatusCreated, &resp); err != nil {
		return nil, err
	}
	return &resp.Order, nil
}

// do sends body as JSON and decodes the response into out. API error bodies
// come back as *apperr.Error so callers can switch on the kind.
func (c *CRMClient) do(ctx context.Context, method, path string, body any, want int, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var body struct {
		Error struct {
			Kind    apperr.Kind `json:"kind"`
			Message string      `json:"message"`
		} `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &body); err != nil || body.Error.Kind == "" {
		return fmt.Errorf("%s %s returned status %d", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode)
	}
	return &apperr.Error{Kind: body.Error.Kind, Message: body.Error.Message}
}
