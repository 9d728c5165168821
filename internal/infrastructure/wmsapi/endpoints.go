package wmsapi

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/erp/wmsconnector/internal/domain/wms"
)

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

// Health checks the API is reachable with the configured credentials
func (c *Client) Health(ctx context.Context) error {
	_, err := c.Request(ctx, http.MethodGet, "/health", nil, nil)
	return err
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// CreateOrder creates a remote order
func (c *Client) CreateOrder(ctx context.Context, payload OrderPayload) (*wms.RemoteRecord, error) {
	resp, err := c.Request(ctx, http.MethodPost, "/order", payload, nil)
	if err != nil {
		return nil, err
	}
	return toRemoteRecord(resp.Object(), orderIDAliases), nil
}

// GetOrder fetches one order by remote id
func (c *Client) GetOrder(ctx context.Context, id string) (*wms.RemoteOrder, error) {
	resp, err := c.Request(ctx, http.MethodGet, "/order/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, err
	}
	order := toRemoteOrder(resp.Object())
	return &order, nil
}

// FindOrderByReference looks an order up by its ERP reference; nil when none matches
func (c *Client) FindOrderByReference(ctx context.Context, reference string) (*wms.RemoteOrder, error) {
	resp, err := c.Request(ctx, http.MethodGet, "/order", nil, url.Values{"reference": {reference}})
	if err != nil {
		return nil, err
	}
	obj, ok := firstRecord(resp)
	if !ok {
		return nil, nil
	}
	order := toRemoteOrder(obj)
	return &order, nil
}

// OrdersUpdatedSince lists orders modified after since
func (c *Client) OrdersUpdatedSince(ctx context.Context, since time.Time) ([]wms.RemoteOrder, error) {
	query := url.Values{"fromUpdatedDate": {since.UTC().Format(time.RFC3339)}}
	resp, err := c.Request(ctx, http.MethodGet, "/order", nil, query)
	if err != nil {
		return nil, err
	}
	items, _ := resp.Items()
	orders := make([]wms.RemoteOrder, 0, len(items))
	for _, item := range items {
		orders = append(orders, toRemoteOrder(item))
	}
	return orders, nil
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

// CreateProduct creates a remote product
func (c *Client) CreateProduct(ctx context.Context, payload ProductPayload) (*wms.RemoteRecord, error) {
	resp, err := c.Request(ctx, http.MethodPost, "/product", payload, nil)
	if err != nil {
		return nil, err
	}
	return toRemoteRecord(resp.Object(), productIDAliases), nil
}

// GetProductBySKU looks a product up by SKU; nil when none matches
func (c *Client) GetProductBySKU(ctx context.Context, sku string) (*wms.RemoteRecord, error) {
	resp, err := c.Request(ctx, http.MethodGet, "/product", nil, url.Values{"sku": {sku}})
	if err != nil {
		return nil, err
	}
	obj, ok := firstRecord(resp)
	if !ok {
		return nil, nil
	}
	return toRemoteRecord(obj, productIDAliases), nil
}

// UpdateProduct updates a remote product by id.
// The returned record falls back to id when the response carries none.
func (c *Client) UpdateProduct(ctx context.Context, id string, payload ProductPayload) (*wms.RemoteRecord, error) {
	resp, err := c.Request(ctx, http.MethodPatch, "/product/"+url.PathEscape(id), payload, nil)
	if err != nil {
		return nil, err
	}
	rec := toRemoteRecord(resp.Object(), productIDAliases)
	if rec.ID == "" {
		rec.ID = id
	}
	return rec, nil
}

// ---------------------------------------------------------------------------
// Suppliers
// ---------------------------------------------------------------------------

// CreateSupplier creates a remote supplier
func (c *Client) CreateSupplier(ctx context.Context, payload SupplierPayload) (*wms.RemoteRecord, error) {
	resp, err := c.Request(ctx, http.MethodPost, "/supplier", payload, nil)
	if err != nil {
		return nil, err
	}
	return toRemoteRecord(resp.Object(), supplierIDAliases), nil
}

// FindSupplierByReference looks a supplier up by reference; nil when none matches
func (c *Client) FindSupplierByReference(ctx context.Context, reference string) (*wms.RemoteSupplier, error) {
	resp, err := c.Request(ctx, http.MethodGet, "/supplier", nil, url.Values{"reference": {reference}})
	if err != nil {
		return nil, err
	}
	obj, ok := firstRecord(resp)
	if !ok {
		return nil, nil
	}
	return toRemoteSupplier(obj), nil
}

// ---------------------------------------------------------------------------
// Inbounds
// ---------------------------------------------------------------------------

// CreateInbound announces an expected receipt
func (c *Client) CreateInbound(ctx context.Context, payload InboundPayload) (*wms.RemoteRecord, error) {
	resp, err := c.Request(ctx, http.MethodPost, "/inbound", payload, nil)
	if err != nil {
		return nil, err
	}
	return toRemoteRecord(resp.Object(), inboundIDAliases), nil
}

// UpdateInbound updates an announced receipt by id
func (c *Client) UpdateInbound(ctx context.Context, id string, payload InboundPayload) (*wms.RemoteRecord, error) {
	resp, err := c.Request(ctx, http.MethodPatch, "/inbound/"+url.PathEscape(id), payload, nil)
	if err != nil {
		return nil, err
	}
	rec := toRemoteRecord(resp.Object(), inboundIDAliases)
	if rec.ID == "" {
		rec.ID = id
	}
	return rec, nil
}

// ---------------------------------------------------------------------------
// Stock
// ---------------------------------------------------------------------------

// StockLevels lists all remote stock records
func (c *Client) StockLevels(ctx context.Context) ([]wms.StockRecord, error) {
	resp, err := c.Request(ctx, http.MethodGet, "/stock", nil, nil)
	if err != nil {
		return nil, err
	}
	items, _ := resp.Items()
	records := make([]wms.StockRecord, 0, len(items))
	for _, item := range items {
		records = append(records, toStockRecord(item))
	}
	return records, nil
}

// firstRecord returns the first element of a list response, or a non-empty object body
func firstRecord(resp *Response) (Object, bool) {
	if items, isList := resp.Items(); isList {
		if len(items) == 0 {
			return nil, false
		}
		return items[0], true
	}
	obj := resp.Object()
	if len(obj) == 0 {
		return nil, false
	}
	return obj, true
}
