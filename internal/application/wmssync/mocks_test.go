package wmssync

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/erp/wmsconnector/internal/domain/wms"
)

// ---------------------------------------------------------------------------
// MockGateway
// ---------------------------------------------------------------------------

type MockGateway struct {
	mock.Mock
}

var _ wms.Gateway = (*MockGateway)(nil)

func (m *MockGateway) Health(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockGateway) record(args mock.Arguments) (*wms.RemoteRecord, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wms.RemoteRecord), args.Error(1)
}

func (m *MockGateway) CreateProduct(ctx context.Context, p *wms.Product) (*wms.RemoteRecord, error) {
	return m.record(m.Called(ctx, p))
}

func (m *MockGateway) UpdateProduct(ctx context.Context, remoteID string, p *wms.Product) (*wms.RemoteRecord, error) {
	return m.record(m.Called(ctx, remoteID, p))
}

func (m *MockGateway) CreateOrder(ctx context.Context, o *wms.SalesOrder) (*wms.RemoteRecord, error) {
	return m.record(m.Called(ctx, o))
}

func (m *MockGateway) FindSupplierByReference(ctx context.Context, reference string) (*wms.RemoteSupplier, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wms.RemoteSupplier), args.Error(1)
}

func (m *MockGateway) CreateSupplier(ctx context.Context, supplier wms.Partner) (*wms.RemoteRecord, error) {
	return m.record(m.Called(ctx, supplier))
}

func (m *MockGateway) CreateInbound(ctx context.Context, po *wms.PurchaseOrder) (*wms.RemoteRecord, error) {
	return m.record(m.Called(ctx, po))
}

func (m *MockGateway) UpdateInbound(ctx context.Context, remoteID string, po *wms.PurchaseOrder) (*wms.RemoteRecord, error) {
	return m.record(m.Called(ctx, remoteID, po))
}

func (m *MockGateway) OrdersUpdatedSince(ctx context.Context, since time.Time) ([]wms.RemoteOrder, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]wms.RemoteOrder), args.Error(1)
}

func (m *MockGateway) StockLevels(ctx context.Context) ([]wms.StockRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]wms.StockRecord), args.Error(1)
}

// ---------------------------------------------------------------------------
// MockFulfillment
// ---------------------------------------------------------------------------

type MockFulfillment struct {
	mock.Mock
}

func (m *MockFulfillment) ValidatePicking(ctx context.Context, order *wms.SalesOrder, picking *wms.Picking) error {
	return m.Called(ctx, order, picking).Error(0)
}

func (m *MockFulfillment) ConfirmOrder(ctx context.Context, order *wms.SalesOrder) error {
	return m.Called(ctx, order).Error(0)
}

// ---------------------------------------------------------------------------
// Recording notifier
// ---------------------------------------------------------------------------

type note struct {
	Entity  wms.EntityRef
	Message string
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []note
	err   error
}

func (n *recordingNotifier) Notify(_ context.Context, entity wms.EntityRef, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.notes = append(n.notes, note{Entity: entity, Message: message})
	return nil
}

func (n *recordingNotifier) messagesFor(ref wms.EntityRef) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, nt := range n.notes {
		if nt.Entity == ref {
			out = append(out, nt.Message)
		}
	}
	return out
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notes)
}

// ---------------------------------------------------------------------------
// In-memory repositories
// ---------------------------------------------------------------------------

type memProductRepo struct {
	byID       map[int64]*wms.Product
	saved      int
	stockSaved int
	saveErr    error
}

func newMemProductRepo(products ...*wms.Product) *memProductRepo {
	r := &memProductRepo{byID: map[int64]*wms.Product{}}
	for _, p := range products {
		r.byID[p.ID] = p
	}
	return r
}

func (r *memProductRepo) FindByID(_ context.Context, id int64) (*wms.Product, error) {
	if p, ok := r.byID[id]; ok {
		return p, nil
	}
	return nil, wms.ErrNotFound
}

func (r *memProductRepo) FindBySKU(_ context.Context, sku string) (*wms.Product, error) {
	for _, p := range r.byID {
		if p.RemoteSKU == sku || p.DefaultCode == sku {
			return p, nil
		}
	}
	return nil, wms.ErrNotFound
}

func (r *memProductRepo) FindForSync(_ context.Context, limit int) ([]wms.Product, error) {
	var out []wms.Product
	for _, id := range slices.Sorted(maps.Keys(r.byID)) {
		if p := r.byID[id]; p.NeedsPush() && len(out) < limit {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memProductRepo) Save(_ context.Context, p *wms.Product) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved++
	cp := *p
	r.byID[p.ID] = &cp
	return nil
}

func (r *memProductRepo) SaveStock(_ context.Context, id int64, stockLevel, minStock decimal.Decimal) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	p, ok := r.byID[id]
	if !ok {
		return wms.ErrNotFound
	}
	r.stockSaved++
	p.StockLevel = stockLevel
	p.MinStock = minStock
	return nil
}

type memOrderRepo struct {
	byID        map[int64]*wms.SalesOrder
	saved       int
	statusSaved int
	err         error
}

func newMemOrderRepo(orders ...*wms.SalesOrder) *memOrderRepo {
	r := &memOrderRepo{byID: map[int64]*wms.SalesOrder{}}
	for _, o := range orders {
		r.byID[o.ID] = o
	}
	return r
}

func (r *memOrderRepo) FindByID(_ context.Context, id int64) (*wms.SalesOrder, error) {
	if o, ok := r.byID[id]; ok {
		return o, nil
	}
	return nil, wms.ErrNotFound
}

func (r *memOrderRepo) FindByName(_ context.Context, name string) (*wms.SalesOrder, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, o := range r.byID {
		if o.Name == name {
			return o, nil
		}
	}
	return nil, wms.ErrNotFound
}

func (r *memOrderRepo) FindPendingPush(_ context.Context, limit int) ([]wms.SalesOrder, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []wms.SalesOrder
	for _, id := range slices.Sorted(maps.Keys(r.byID)) {
		if o := r.byID[id]; o.PendingPush && len(out) < limit {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *memOrderRepo) Save(_ context.Context, o *wms.SalesOrder) error {
	r.saved++
	cp := *o
	r.byID[o.ID] = &cp
	return nil
}

func (r *memOrderRepo) SaveRemoteStatus(_ context.Context, o *wms.SalesOrder) error {
	r.statusSaved++
	cp := *o
	r.byID[o.ID] = &cp
	return nil
}

type memPurchaseRepo struct {
	byID  map[int64]*wms.PurchaseOrder
	saved int
}

func newMemPurchaseRepo(pos ...*wms.PurchaseOrder) *memPurchaseRepo {
	r := &memPurchaseRepo{byID: map[int64]*wms.PurchaseOrder{}}
	for _, po := range pos {
		r.byID[po.ID] = po
	}
	return r
}

func (r *memPurchaseRepo) FindByID(_ context.Context, id int64) (*wms.PurchaseOrder, error) {
	if po, ok := r.byID[id]; ok {
		return po, nil
	}
	return nil, wms.ErrNotFound
}

func (r *memPurchaseRepo) FindForInbound(_ context.Context, limit int) ([]wms.PurchaseOrder, error) {
	var out []wms.PurchaseOrder
	for _, id := range slices.Sorted(maps.Keys(r.byID)) {
		if po := r.byID[id]; po.IsConfirmed() && len(out) < limit {
			out = append(out, *po)
		}
	}
	return out, nil
}

func (r *memPurchaseRepo) Save(_ context.Context, po *wms.PurchaseOrder) error {
	r.saved++
	cp := *po
	r.byID[po.ID] = &cp
	return nil
}

// ---------------------------------------------------------------------------
// Push guard
// ---------------------------------------------------------------------------

type fakeGuard struct {
	held     map[string]bool
	acquired []string
	released []string
}

func newFakeGuard(held ...string) *fakeGuard {
	g := &fakeGuard{held: map[string]bool{}}
	for _, k := range held {
		g.held[k] = true
	}
	return g
}

func (g *fakeGuard) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	if g.held[key] {
		return false, nil
	}
	g.held[key] = true
	g.acquired = append(g.acquired, key)
	return true, nil
}

func (g *fakeGuard) Release(_ context.Context, key string) error {
	delete(g.held, key)
	g.released = append(g.released, key)
	return nil
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func remote(id string) *wms.RemoteRecord {
	return &wms.RemoteRecord{ID: id}
}
