package wmssync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/erp/wmsconnector/internal/domain/wms"
)

var reconcileNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestOrderReconciler(t *testing.T, orders *memOrderRepo) (*OrderReconciler, *MockGateway, *MockFulfillment, *recordingNotifier) {
	t.Helper()
	gateway := &MockGateway{}
	fulfillment := &MockFulfillment{}
	notifier := &recordingNotifier{}
	r := NewOrderReconciler(gateway, orders, fulfillment, notifier, 0, nil)
	r.now = func() time.Time { return reconcileNow }
	t.Cleanup(func() {
		gateway.AssertExpectations(t)
		fulfillment.AssertExpectations(t)
	})
	return r, gateway, fulfillment, notifier
}

func openPicking(id int64, ordered int64) wms.Picking {
	return wms.Picking{
		ID:    id,
		Name:  "WH/OUT/" + string(rune('0'+id)),
		State: wms.PickingStateAssigned,
		Lines: []wms.PickingLine{{ID: id * 10, OrderedQty: decimal.NewFromInt(ordered)}},
	}
}

func markDone(args mock.Arguments) {
	args.Get(2).(*wms.Picking).State = wms.PickingStateDone
}

func TestOrderReconciler_TerminalStatus(t *testing.T) {
	order := &wms.SalesOrder{
		ID:    99,
		Name:  "SO0099",
		State: wms.OrderStateSent,
		Pickings: []wms.Picking{
			openPicking(1, 5),
			{ID: 2, Name: "WH/OUT/2", State: wms.PickingStateDone},
		},
	}
	orders := newMemOrderRepo(order)
	r, gateway, fulfillment, notifier := newTestOrderReconciler(t, orders)
	deliveredAt := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	gateway.On("OrdersUpdatedSince", mock.Anything, reconcileNow.Add(-3*time.Hour)).Return([]wms.RemoteOrder{
		{ID: "R99", Reference: "SO0099", Status: "Delivered", DeliveredAt: &deliveredAt, Raw: `{"reference":"SO0099"}`},
	}, nil).Once()
	fulfillment.On("ValidatePicking", mock.Anything, order, &order.Pickings[0]).Run(markDone).Return(nil).Once()
	fulfillment.On("ConfirmOrder", mock.Anything, order).Return(nil).Once()

	summary := r.PullUpdatedOrders(context.Background())

	assert.Equal(t, ReconcileSummary{Fetched: 1, Matched: 1, Updated: 1}, summary)
	assert.Equal(t, "Delivered", order.RemoteStatus)
	assert.Equal(t, "R99", order.Sync.RemoteID())
	require.NotNil(t, order.DeliveredAt)
	assert.True(t, deliveredAt.Equal(*order.DeliveredAt))
	assert.True(t, order.Pickings[0].Lines[0].DoneQty.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, `{"reference":"SO0099"}`, order.LastRemotePayload)
	assert.Equal(t, []string{DeliveredNote}, notifier.messagesFor(order.Ref()))
	assert.Equal(t, 1, orders.statusSaved)
	assert.Zero(t, orders.saved, "the status pull never writes push-owned columns")
}

func TestOrderReconciler_PickingFailureContinues(t *testing.T) {
	order := &wms.SalesOrder{
		ID:       1,
		Name:     "SO1",
		State:    wms.OrderStateSale,
		Pickings: []wms.Picking{openPicking(1, 2), openPicking(2, 3)},
	}
	r, gateway, fulfillment, notifier := newTestOrderReconciler(t, newMemOrderRepo(order))

	gateway.On("OrdersUpdatedSince", mock.Anything, mock.Anything).
		Return([]wms.RemoteOrder{{Reference: "SO1", Status: "shipped"}}, nil).Once()
	fulfillment.On("ValidatePicking", mock.Anything, order, &order.Pickings[0]).Return(errors.New("lot required")).Once()
	fulfillment.On("ValidatePicking", mock.Anything, order, &order.Pickings[1]).Run(markDone).Return(nil).Once()

	summary := r.PullUpdatedOrders(context.Background())

	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, wms.PickingStateAssigned, order.Pickings[0].State)
	assert.Equal(t, wms.PickingStateDone, order.Pickings[1].State)
	fulfillment.AssertNotCalled(t, "ConfirmOrder", mock.Anything, mock.Anything)
	assert.Len(t, notifier.messagesFor(order.Ref()), 1)
}

func TestOrderReconciler_NonTerminalStatus(t *testing.T) {
	order := &wms.SalesOrder{
		ID:           2,
		Name:         "SO2",
		State:        wms.OrderStateSale,
		Sync:         wms.SyncedAs("R2"),
		RemoteStatus: "Received",
		Pickings:     []wms.Picking{openPicking(1, 1)},
	}
	r, gateway, _, notifier := newTestOrderReconciler(t, newMemOrderRepo(order))
	gateway.On("OrdersUpdatedSince", mock.Anything, mock.Anything).Return([]wms.RemoteOrder{
		{Reference: "SO2", Status: "Picking", TrackingURL: "https://track/2"},
	}, nil).Once()

	r.PullUpdatedOrders(context.Background())

	assert.Equal(t, "R2", order.Sync.RemoteID(), "absent remote id keeps the existing one")
	assert.Equal(t, "Picking", order.RemoteStatus)
	assert.Equal(t, "https://track/2", order.TrackingURL)
	assert.True(t, order.Pickings[0].Lines[0].DoneQty.IsZero())
	assert.Zero(t, notifier.count())
}

func TestOrderReconciler_SkipsUnmatched(t *testing.T) {
	r, gateway, _, _ := newTestOrderReconciler(t, newMemOrderRepo(&wms.SalesOrder{ID: 1, Name: "SO1"}))
	gateway.On("OrdersUpdatedSince", mock.Anything, mock.Anything).Return([]wms.RemoteOrder{
		{Reference: "", Status: "Delivered"},
		{Reference: "OTHER-SHOP-1", Status: "Delivered"},
	}, nil).Once()

	summary := r.PullUpdatedOrders(context.Background())

	assert.Equal(t, ReconcileSummary{Fetched: 2, Skipped: 2}, summary)
}

func TestOrderReconciler_RepeatedDeliveredPullIsQuiet(t *testing.T) {
	order := &wms.SalesOrder{ID: 3, Name: "SO3", State: wms.OrderStateDone, RemoteStatus: "Delivered"}
	r, gateway, _, notifier := newTestOrderReconciler(t, newMemOrderRepo(order))
	gateway.On("OrdersUpdatedSince", mock.Anything, mock.Anything).
		Return([]wms.RemoteOrder{{Reference: "SO3", Status: "DELIVERED"}}, nil).Once()

	summary := r.PullUpdatedOrders(context.Background())

	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, "DELIVERED", order.RemoteStatus)
	assert.Zero(t, notifier.count())
}

func TestOrderReconciler_FetchError(t *testing.T) {
	orders := newMemOrderRepo()
	r, gateway, _, _ := newTestOrderReconciler(t, orders)
	gateway.On("OrdersUpdatedSince", mock.Anything, mock.Anything).Return(nil, wms.ErrAuthentication).Once()

	summary := r.PullUpdatedOrders(context.Background())

	assert.ErrorIs(t, summary.Err, wms.ErrAuthentication)
	assert.Zero(t, orders.statusSaved)
}

func TestOrderReconciler_LookupError(t *testing.T) {
	orders := newMemOrderRepo()
	orders.err = errors.New("connection reset")
	r, gateway, _, _ := newTestOrderReconciler(t, orders)
	gateway.On("OrdersUpdatedSince", mock.Anything, mock.Anything).
		Return([]wms.RemoteOrder{{Reference: "SO1"}}, nil).Once()

	summary := r.PullUpdatedOrders(context.Background())

	assert.Equal(t, 1, summary.Failed)
	assert.NoError(t, summary.Err)
}

// ---------------------------------------------------------------------------
// Stock
// ---------------------------------------------------------------------------

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestStockReconciler_PullStockLevels(t *testing.T) {
	x1 := &wms.Product{ID: 1, DefaultCode: "X1", MinStock: decimal.NewFromInt(3)}
	x2 := &wms.Product{ID: 2, RemoteSKU: "X2", StockLevel: decimal.NewFromInt(8)}
	products := newMemProductRepo(x1, x2)
	gateway := &MockGateway{}
	notifier := &recordingNotifier{}
	r := NewStockReconciler(gateway, products, notifier, nil)

	gateway.On("StockLevels", mock.Anything).Return([]wms.StockRecord{
		{SKU: "X1", StockLevel: decPtr(42)},
		{SKU: "X2", StockLevel: decPtr(8)},
		{SKU: " ", StockLevel: decPtr(1)},
		{SKU: "UNKNOWN", StockLevel: decPtr(1)},
	}, nil).Once()

	summary := r.PullStockLevels(context.Background())

	assert.Equal(t, ReconcileSummary{Fetched: 4, Matched: 2, Updated: 1, Skipped: 2}, summary)
	assert.True(t, x1.StockLevel.Equal(decimal.NewFromInt(42)))
	assert.True(t, x1.MinStock.Equal(decimal.NewFromInt(3)), "absent min level is left untouched")
	assert.Equal(t, []string{"WMS stock sync: stock=42, min=3"}, notifier.messagesFor(x1.Ref()))
	assert.Empty(t, notifier.messagesFor(x2.Ref()), "unchanged product gets no note")
	assert.Equal(t, 1, products.stockSaved)
	assert.Zero(t, products.saved, "the stock pull never writes push-owned columns")
	gateway.AssertExpectations(t)
}

func TestStockReconciler_FetchError(t *testing.T) {
	gateway := &MockGateway{}
	r := NewStockReconciler(gateway, newMemProductRepo(), &recordingNotifier{}, nil)
	gateway.On("StockLevels", mock.Anything).Return(nil, wms.ErrTransport).Once()

	summary := r.PullStockLevels(context.Background())

	assert.ErrorIs(t, summary.Err, wms.ErrTransport)
	assert.Zero(t, summary.Fetched)
}
