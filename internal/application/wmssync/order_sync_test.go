package wmssync

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/erp/wmsconnector/internal/domain/wms"
)

func newOrder(id int64, lines ...*wms.Product) *wms.SalesOrder {
	order := &wms.SalesOrder{
		ID:          id,
		Name:        "SO00" + string(rune('0'+id)),
		State:       wms.OrderStateSale,
		Partner:     wms.Partner{ID: 1, Name: "Customer"},
		PendingPush: true,
	}
	for _, p := range lines {
		order.Lines = append(order.Lines, wms.OrderLine{Product: p, Quantity: decimal.NewFromInt(1)})
	}
	return order
}

func TestOrderSyncDriver_PushesMissingProductsFirst(t *testing.T) {
	synced := &wms.Product{ID: 1, Name: "Synced", Sync: wms.SyncedAs("P1")}
	fresh := &wms.Product{ID: 2, Name: "Fresh", DefaultCode: "F-2"}
	order := newOrder(1, synced, fresh)
	h := newHarness(t, harnessSeed{orders: []*wms.SalesOrder{order}})

	var calls []string
	h.gateway.On("CreateProduct", mock.Anything, fresh).
		Run(func(mock.Arguments) { calls = append(calls, "product") }).
		Return(remote("P2"), nil).Once()
	h.gateway.On("CreateOrder", mock.Anything, order).
		Run(func(mock.Arguments) { calls = append(calls, "order") }).
		Return(&wms.RemoteRecord{ID: "77", Status: "Received"}, nil).Once()

	res := h.orderDriver.Push(context.Background(), 1)

	assert.Equal(t, wms.OutcomeSynced, res.Outcome)
	assert.Equal(t, []string{"product", "order"}, calls)
	assert.Equal(t, "77", order.Sync.RemoteID())
	assert.Equal(t, "Received", order.RemoteStatus)
	assert.Equal(t, order.Name, order.RemoteReference)
	assert.False(t, order.PendingPush)
	assert.Equal(t, "P2", fresh.Sync.RemoteID())
	assert.Equal(t, []string{"Pushed order to WMS (ID 77)."}, h.notifier.messagesFor(order.Ref()))
}

func TestOrderSyncDriver_DependencyFailureDegrades(t *testing.T) {
	broken := &wms.Product{ID: 3, Name: "Broken"}
	order := newOrder(2, broken, broken)
	h := newHarness(t, harnessSeed{})
	h.gateway.On("CreateProduct", mock.Anything, broken).
		Return(nil, wms.NewRemoteStatusError("POST", "/product", 400, []byte("invalid"))).Once()
	h.gateway.On("CreateOrder", mock.Anything, order).Return(remote("78"), nil).Once()

	res := h.orderDriver.PushOrder(context.Background(), order)

	assert.Equal(t, wms.OutcomeDegraded, res.Outcome)
	assert.True(t, res.Succeeded())
	assert.Equal(t, []wms.EntityRef{broken.Ref()}, res.DegradedDependencies)
	assert.Equal(t, "created", order.RemoteStatus)

	orderNotes := h.notifier.messagesFor(order.Ref())
	require.Len(t, orderNotes, 1, "one note per call on the order")
	assert.True(t, strings.HasPrefix(orderNotes[0], "Pushed order to WMS (ID 78). "))
	assert.Contains(t, orderNotes[0], "Failed to push product Broken to WMS")
	assert.Len(t, h.notifier.messagesFor(broken.Ref()), 1, "product failure noted once on the product")
}

func TestOrderSyncDriver_RepeatedFailureWithBrokenDependencyIsThrottled(t *testing.T) {
	broken := &wms.Product{ID: 6, Name: "Broken"}
	order := newOrder(6, broken)
	h := newHarness(t, harnessSeed{})
	h.gateway.On("CreateProduct", mock.Anything, broken).
		Return(nil, wms.NewRemoteStatusError("POST", "/product", 400, []byte("bad sku"))).Times(3)
	h.gateway.On("CreateOrder", mock.Anything, order).
		Return(nil, wms.NewRemoteStatusError("POST", "/order", 422, []byte("unknown sku"))).Times(3)

	for i := 0; i < 3; i++ {
		res := h.orderDriver.PushOrder(context.Background(), order)
		require.Equal(t, wms.OutcomeFailed, res.Outcome)
		assert.Equal(t, []wms.EntityRef{broken.Ref()}, res.DegradedDependencies)
	}

	orderNotes := h.notifier.messagesFor(order.Ref())
	require.Len(t, orderNotes, 1)
	assert.True(t, strings.HasPrefix(orderNotes[0], "Failed to push order to WMS: "))
	assert.Contains(t, orderNotes[0], "422")
	assert.Contains(t, orderNotes[0], "Failed to push product Broken to WMS")
	assert.Len(t, h.notifier.messagesFor(broken.Ref()), 1, "product failure is throttled on the product")
}

func TestOrderSyncDriver_AlreadySyncedIsCreateOnly(t *testing.T) {
	order := newOrder(3)
	order.Sync = wms.SyncedAs("79")
	h := newHarness(t, harnessSeed{})

	res := h.orderDriver.PushOrder(context.Background(), order)

	assert.Equal(t, wms.OutcomeSynced, res.Outcome)
	assert.Equal(t, "79", res.RemoteID)
	assert.False(t, order.PendingPush)
	assert.Equal(t, 1, h.orders.saved)
	h.gateway.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
	assert.Zero(t, h.notifier.count())
}

func TestOrderSyncDriver_CreateFailure(t *testing.T) {
	order := newOrder(4)
	h := newHarness(t, harnessSeed{})
	h.gateway.On("CreateOrder", mock.Anything, order).Return(nil, wms.ErrTransport).Twice()

	first := h.orderDriver.PushOrder(context.Background(), order)
	second := h.orderDriver.PushOrder(context.Background(), order)

	for _, res := range []wms.SyncResult{first, second} {
		assert.Equal(t, wms.OutcomeFailed, res.Outcome)
		assert.ErrorIs(t, res.Err, wms.ErrTransport)
	}
	assert.True(t, order.PendingPush)
	assert.False(t, order.Sync.IsSynced())
	assert.Equal(t, []string{"Failed to push order to WMS: " + wms.ErrTransport.Error() + "."}, h.notifier.messagesFor(order.Ref()))
}

func TestOrderSyncDriver_MissingRemoteID(t *testing.T) {
	order := newOrder(5)
	h := newHarness(t, harnessSeed{})
	h.gateway.On("CreateOrder", mock.Anything, order).Return(&wms.RemoteRecord{}, nil).Once()

	res := h.orderDriver.PushOrder(context.Background(), order)

	assert.ErrorIs(t, res.Err, wms.ErrMissingRemoteID)
	assert.False(t, order.Sync.IsSynced())
}
