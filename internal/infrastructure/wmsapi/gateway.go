package wmsapi

import (
	"context"
	"time"

	"github.com/erp/wmsconnector/internal/domain/wms"
)

// Gateway adapts the Client to the domain port, building payloads from entities
type Gateway struct {
	client *Client
}

// NewGateway creates a new Gateway
func NewGateway(client *Client) *Gateway {
	return &Gateway{client: client}
}

// Health implements wms.Gateway
func (g *Gateway) Health(ctx context.Context) error {
	return g.client.Health(ctx)
}

// CreateProduct implements wms.Gateway
func (g *Gateway) CreateProduct(ctx context.Context, p *wms.Product) (*wms.RemoteRecord, error) {
	return g.client.CreateProduct(ctx, BuildProductPayload(p))
}

// UpdateProduct implements wms.Gateway
func (g *Gateway) UpdateProduct(ctx context.Context, remoteID string, p *wms.Product) (*wms.RemoteRecord, error) {
	return g.client.UpdateProduct(ctx, remoteID, BuildProductPayload(p))
}

// CreateOrder implements wms.Gateway
func (g *Gateway) CreateOrder(ctx context.Context, o *wms.SalesOrder) (*wms.RemoteRecord, error) {
	return g.client.CreateOrder(ctx, BuildOrderPayload(o))
}

// FindSupplierByReference implements wms.Gateway
func (g *Gateway) FindSupplierByReference(ctx context.Context, reference string) (*wms.RemoteSupplier, error) {
	return g.client.FindSupplierByReference(ctx, reference)
}

// CreateSupplier implements wms.Gateway
func (g *Gateway) CreateSupplier(ctx context.Context, supplier wms.Partner) (*wms.RemoteRecord, error) {
	return g.client.CreateSupplier(ctx, BuildSupplierPayload(supplier))
}

// CreateInbound implements wms.Gateway
func (g *Gateway) CreateInbound(ctx context.Context, po *wms.PurchaseOrder) (*wms.RemoteRecord, error) {
	return g.client.CreateInbound(ctx, BuildInboundPayload(po))
}

// UpdateInbound implements wms.Gateway
func (g *Gateway) UpdateInbound(ctx context.Context, remoteID string, po *wms.PurchaseOrder) (*wms.RemoteRecord, error) {
	return g.client.UpdateInbound(ctx, remoteID, BuildInboundPayload(po))
}

// OrdersUpdatedSince implements wms.Gateway
func (g *Gateway) OrdersUpdatedSince(ctx context.Context, since time.Time) ([]wms.RemoteOrder, error) {
	return g.client.OrdersUpdatedSince(ctx, since)
}

// StockLevels implements wms.Gateway
func (g *Gateway) StockLevels(ctx context.Context) ([]wms.StockRecord, error) {
	return g.client.StockLevels(ctx)
}

// Ensure Gateway implements wms.Gateway
var _ wms.Gateway = (*Gateway)(nil)
