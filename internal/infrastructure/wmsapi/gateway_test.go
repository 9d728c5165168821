package wmsapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/wmsconnector/internal/domain/wms"
)

func newGatewayServer(t *testing.T, handler http.HandlerFunc) *Gateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewGateway(NewClient(basicConfig(server.URL)))
}

func TestGateway_CreateProduct(t *testing.T) {
	gw := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/product", r.URL.Path)
		var body ProductPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "W-1", body.SKU)
		_, _ = w.Write([]byte(`{"productId": 500, "sku": "W-1-NL"}`))
	})

	rec, err := gw.CreateProduct(context.Background(), &wms.Product{ID: 1, Name: "Widget", DefaultCode: "W-1"})

	require.NoError(t, err)
	assert.Equal(t, "500", rec.ID)
	assert.Equal(t, "W-1-NL", rec.SKU)
}

func TestGateway_UpdateProductFallsBackToKnownID(t *testing.T) {
	gw := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/product/500", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	rec, err := gw.UpdateProduct(context.Background(), "500", &wms.Product{ID: 1})

	require.NoError(t, err)
	assert.Equal(t, "500", rec.ID)
}

func TestGateway_CreateOrderWithoutID(t *testing.T) {
	gw := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"Received"}`))
	})

	rec, err := gw.CreateOrder(context.Background(), &wms.SalesOrder{Name: "SO1"})

	require.NoError(t, err)
	assert.Empty(t, rec.ID)
	assert.Equal(t, "Received", rec.Status)
}

func TestGateway_OrdersUpdatedSince(t *testing.T) {
	since := time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600))
	gw := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/order", r.URL.Path)
		assert.Equal(t, "2024-03-01T09:00:00Z", r.URL.Query().Get("fromUpdatedDate"))
		_, _ = w.Write([]byte(`{"items":[{"id":1,"reference":"SO1","status":"Delivered"},{"id":2,"reference":"SO2"}]}`))
	})

	orders, err := gw.OrdersUpdatedSince(context.Background(), since)

	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "Delivered", orders[0].Status)
	assert.Equal(t, "SO2", orders[1].Reference)
}

func TestGateway_FindSupplierByReference(t *testing.T) {
	gw := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("reference") == "KNOWN" {
			_, _ = w.Write([]byte(`[{"supplierId": 8, "reference": "KNOWN", "name": "Acme"}]`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})
	ctx := context.Background()

	found, err := gw.FindSupplierByReference(ctx, "KNOWN")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "8", found.ID)

	missing, err := gw.FindSupplierByReference(ctx, "UNKNOWN")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGateway_StockLevels(t *testing.T) {
	gw := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stock", r.URL.Path)
		_, _ = w.Write([]byte(`[{"sku":"A","quantity":"7","minStockLevel":2}]`))
	})

	records, err := gw.StockLevels(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].StockLevel.Equal(decimal.NewFromInt(7)))
	assert.True(t, records[0].MinStockLevel.Equal(decimal.NewFromInt(2)))
}

func TestGateway_CreateAndUpdateInbound(t *testing.T) {
	var paths []string
	gw := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodPost {
			_, _ = w.Write([]byte(`{"inboundId": "IN-1"}`))
		}
	})
	po := &wms.PurchaseOrder{ID: 1, Name: "PO1", Supplier: wms.Partner{ID: 2, Name: "Acme"}}
	ctx := context.Background()

	created, err := gw.CreateInbound(ctx, po)
	require.NoError(t, err)
	assert.Equal(t, "IN-1", created.ID)

	updated, err := gw.UpdateInbound(ctx, "IN-1", po)
	require.NoError(t, err)
	assert.Equal(t, "IN-1", updated.ID)

	assert.Equal(t, []string{"POST /inbound", "PATCH /inbound/IN-1"}, paths)
}
