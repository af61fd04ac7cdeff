package crmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/welleazyhts/p360-callcenter/internal/directory"
)

// ListCustomers fetches the full customer database in the UI shape.
func (c *Client) ListCustomers(ctx context.Context) ([]directory.Customer, error) {
	var recs []directory.CustomerRecord
	if err := c.getJSON(ctx, "/customer_database/customers_list/", &recs); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	out := make([]directory.Customer, 0, len(recs))
	for _, r := range recs {
		out = append(out, directory.CustomerFromWire(r))
	}
	return out, nil
}

func (c *Client) CreateCustomer(ctx context.Context, cust directory.Customer) (directory.Customer, error) {
	var rec directory.CustomerRecord
	if err := c.writeJSON(ctx, "POST", "/customer_database/create/", directory.CustomerToWire(cust), &rec); err != nil {
		return directory.Customer{}, fmt.Errorf("create customer: %w", err)
	}
	return directory.CustomerFromWire(rec), nil
}

func (c *Client) UpdateCustomer(ctx context.Context, cust directory.Customer) (directory.Customer, error) {
	if cust.ID == "" {
		return directory.Customer{}, fmt.Errorf("update customer: missing id")
	}
	path := "/customer_database/customers/" + url.PathEscape(cust.ID) + "/update/"
	var rec directory.CustomerRecord
	if err := c.writeJSON(ctx, "PUT", path, directory.CustomerToWire(cust), &rec); err != nil {
		return directory.Customer{}, fmt.Errorf("update customer: %w", err)
	}
	return directory.CustomerFromWire(rec), nil
}

func (c *Client) SearchCustomers(ctx context.Context, query string) ([]directory.Customer, error) {
	var recs []directory.CustomerRecord
	path := "/customer_database/search/" + url.PathEscape(query)
	if err := c.getJSON(ctx, path, &recs); err != nil {
		return nil, fmt.Errorf("search customers: %w", err)
	}
	out := make([]directory.Customer, 0, len(recs))
	for _, r := range recs {
		out = append(out, directory.CustomerFromWire(r))
	}
	return out, nil
}

// FilterCustomers passes UI filter values through the wire enum mapping
// before querying, so "Health Insurance" reaches the backend as "health".
func (c *Client) FilterCustomers(ctx context.Context, productType, policyStatus string) ([]directory.Customer, error) {
	wire := directory.CustomerToWire(directory.Customer{
		ProductType:  productType,
		PolicyStatus: policyStatus,
	})
	v := url.Values{}
	if wire.ProductType != "" {
		v.Set("product_type", wire.ProductType)
	}
	if wire.PolicyStatus != "" {
		v.Set("policy_status", wire.PolicyStatus)
	}

	var recs []directory.CustomerRecord
	if err := c.getJSON(ctx, "/customer_database/filter/?"+v.Encode(), &recs); err != nil {
		return nil, fmt.Errorf("filter customers: %w", err)
	}
	out := make([]directory.Customer, 0, len(recs))
	for _, r := range recs {
		out = append(out, directory.CustomerFromWire(r))
	}
	return out, nil
}

// BulkUpload ships a spreadsheet to the backend as multipart form data.
func (c *Client) BulkUpload(ctx context.Context, filename string, file io.Reader) (int, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return 0, fmt.Errorf("bulk upload: %w", err)
	}
	if _, err := io.Copy(fw, file); err != nil {
		return 0, fmt.Errorf("bulk upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return 0, fmt.Errorf("bulk upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/customer_database/bulkupload/", &buf)
	if err != nil {
		return 0, fmt.Errorf("bulk upload: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("bulk upload: %w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return 0, fmt.Errorf("bulk upload: backend returned %d: %s", resp.StatusCode, snippet(raw))
	}

	var result struct {
		Imported int `json:"imported"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if len(raw) > 0 {
		// Best effort; some deployments answer with a bare 200.
		_ = json.Unmarshal(raw, &result)
	}
	return result.Imported, nil
}

// CustomerHistory returns the backend's interaction history records.
func (c *Client) CustomerHistory(ctx context.Context) ([]directory.HistoryEntry, error) {
	var entries []directory.HistoryEntry
	if err := c.getJSON(ctx, "/customer_database/history/", &entries); err != nil {
		return nil, fmt.Errorf("customer history: %w", err)
	}
	return entries, nil
}

func (c *Client) ClearHistory(ctx context.Context) error {
	if err := c.writeJSON(ctx, "DELETE", "/customer_database/clear-history/", nil, nil); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// Directory adapts the customer list to the lookup repository contract.
// Backend failure propagates so the lookup service can degrade to its seed.
func (c *Client) Directory() *RemoteDirectory { return &RemoteDirectory{c: c} }

type RemoteDirectory struct {
	c *Client
}

// All satisfies directory.Repository.
func (d *RemoteDirectory) All(ctx context.Context) ([]directory.Person, error) {
	custs, err := d.c.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	people := make([]directory.Person, 0, len(custs))
	for _, cu := range custs {
		people = append(people, directory.Person{
			ID:     cu.ID,
			Kind:   directory.KindCustomer,
			Name:   cu.Name,
			Email:  cu.Email,
			Phone:  cu.Phone,
			Status: cu.Status,
		})
	}
	return people, nil
}
