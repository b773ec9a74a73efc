// Package odata reads report data from the purchase reporting OData gateway.
package odata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/odyssey-erp/purchase-insights/internal/purchase"
)

const maxErrorBody = 16 << 10

// Config locates the gateway service root.
type Config struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
}

// Client implements purchase.QueryService over HTTP.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
}

// NewClient constructs a gateway client.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("odata: base url required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("odata: parse base url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    base,
		username:   cfg.Username,
		password:   cfg.Password,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Query reads a filtered entity set.
func (c *Client) Query(ctx context.Context, q purchase.Query) ([]purchase.Record, error) {
	set, err := EntitySet(q.Resource)
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	filter, err := FilterExpr(q.Resource, q.Filters)
	if err != nil {
		return nil, err
	}
	if filter != "" {
		params.Set("$filter", filter)
	}
	if q.PageLimit > 0 {
		params.Set("$top", strconv.Itoa(q.PageLimit))
	}
	var records []purchase.Record
	if err := c.get(ctx, set, params, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// GetByKey reads one outstanding entity by supplier, date and company code.
func (c *Client) GetByKey(ctx context.Context, resource purchase.Resource, key purchase.Key) ([]purchase.Record, error) {
	path, err := KeyPath(resource, key)
	if err != nil {
		return nil, err
	}
	var records []purchase.Record
	if err := c.get(ctx, path, url.Values{}, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Master reads a master data entity set.
func (c *Client) Master(ctx context.Context, resource purchase.Resource, filters purchase.Filters) ([]purchase.MasterItem, error) {
	set, err := EntitySet(resource)
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	filter, err := FilterExpr(resource, filters)
	if err != nil {
		return nil, err
	}
	if filter != "" {
		params.Set("$filter", filter)
	}
	var rows []masterRow
	if err := c.get(ctx, set, params, &rows); err != nil {
		return nil, err
	}
	items := make([]purchase.MasterItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.item(resource))
	}
	return items, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dest any) error {
	params.Set("$format", "json")
	endpoint := c.baseURL + "/" + path + "?" + encodeQuery(params)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &purchase.ServiceError{Status: resp.StatusCode, Body: body}
	}
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return decodeResults(payload, dest)
}

// decodeResults accepts the V2 envelope, with either a results collection or
// a single entity under "d", and the V4 "value" envelope.
func decodeResults(payload []byte, dest any) error {
	var envelope struct {
		D     json.RawMessage `json:"d"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return fmt.Errorf("odata: decode response: %w", err)
	}
	if len(envelope.Value) > 0 {
		return json.Unmarshal(envelope.Value, dest)
	}
	if len(envelope.D) == 0 {
		return fmt.Errorf("odata: response carries no data")
	}
	var collection struct {
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(envelope.D, &collection); err == nil && len(collection.Results) > 0 {
		return json.Unmarshal(collection.Results, dest)
	}
	single := bytes.TrimSpace(envelope.D)
	wrapped := make([]byte, 0, len(single)+2)
	wrapped = append(wrapped, '[')
	wrapped = append(wrapped, single...)
	wrapped = append(wrapped, ']')
	return json.Unmarshal(wrapped, dest)
}

// encodeQuery escapes values with %20 for spaces and keeps the $ of system
// query options readable, which some gateways require.
func encodeQuery(params url.Values) string {
	encoded := strings.ReplaceAll(params.Encode(), "+", "%20")
	return strings.ReplaceAll(encoded, "%24", "$")
}
