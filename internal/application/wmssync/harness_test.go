package wmssync

import (
	"testing"

	"github.com/erp/wmsconnector/internal/domain/wms"
)

type harness struct {
	gateway   *MockGateway
	notifier  *recordingNotifier
	guard     *fakeGuard
	products  *memProductRepo
	orders    *memOrderRepo
	purchases *memPurchaseRepo

	productDriver *ProductSyncDriver
	orderDriver   *OrderSyncDriver
	inboundDriver *InboundSyncDriver
}

type harnessSeed struct {
	products       []*wms.Product
	orders         []*wms.SalesOrder
	purchases      []*wms.PurchaseOrder
	inboundEnabled bool
	held           []string
}

func newHarness(t *testing.T, seed harnessSeed) *harness {
	t.Helper()
	h := &harness{
		gateway:   &MockGateway{},
		notifier:  &recordingNotifier{},
		guard:     newFakeGuard(seed.held...),
		products:  newMemProductRepo(seed.products...),
		orders:    newMemOrderRepo(seed.orders...),
		purchases: newMemPurchaseRepo(seed.purchases...),
	}
	deps := Deps{
		Gateway:  h.gateway,
		Notifier: h.notifier,
		Throttle: NewFailureThrottle(h.notifier, DefaultThrottleWindow, nil),
		Guard:    h.guard,
	}
	h.productDriver = NewProductSyncDriver(h.products, deps)
	h.orderDriver = NewOrderSyncDriver(h.orders, h.productDriver, deps)
	h.inboundDriver = NewInboundSyncDriver(h.purchases, h.productDriver, seed.inboundEnabled, deps)
	t.Cleanup(func() { h.gateway.AssertExpectations(t) })
	return h
}
