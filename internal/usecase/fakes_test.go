package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// =====================
// テスト用の時計・ID
// =====================

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

var testNow = time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

// =====================
// インメモリ実装
// =====================

type memProducts struct {
	mu    sync.Mutex
	items map[string]model.Product
}

func newMemProducts(ps ...model.Product) *memProducts {
	m := &memProducts{items: map[string]model.Product{}}
	for _, p := range ps {
		m.items[p.ID] = p
	}
	return m
}

func (m *memProducts) ListPublic(_ context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Product{}
	for _, p := range m.items {
		if p.IsAvailable() && (q.Category == "" || string(p.Category) == q.Category) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (m *memProducts) FindByID(_ context.Context, id string) (model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok || p.DeletedAt != nil {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (m *memProducts) FindBySKU(_ context.Context, sku string) (model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.items {
		if p.SKU == sku && p.DeletedAt == nil {
			return p, nil
		}
	}
	return model.Product{}, repo.ErrNotFound
}

func (m *memProducts) FindByIDs(_ context.Context, ids []string) (map[string]model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]model.Product{}
	for _, id := range ids {
		if p, ok := m.items[id]; ok && p.DeletedAt == nil {
			out[id] = p
		}
	}
	return out, nil
}

func (m *memProducts) Create(_ context.Context, p model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.items {
		if other.SKU == p.SKU {
			return repo.ErrDuplicate
		}
	}
	m.items[p.ID] = p
	return nil
}

func (m *memProducts) Update(_ context.Context, p model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.items[p.ID]
	if !ok || cur.DeletedAt != nil {
		return repo.ErrNotFound
	}
	for id, other := range m.items {
		if id != p.ID && other.SKU == p.SKU {
			return repo.ErrDuplicate
		}
	}
	p.AverageRating = cur.AverageRating
	p.ReviewCount = cur.ReviewCount
	m.items[p.ID] = p
	return nil
}

func (m *memProducts) SoftDelete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok || p.DeletedAt != nil {
		return repo.ErrNotFound
	}
	now := testNow
	p.DeletedAt = &now
	p.IsActive = false
	m.items[id] = p
	return nil
}

func (m *memProducts) UpdateRating(_ context.Context, id string, average float64, count int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return repo.ErrNotFound
	}
	p.AverageRating = average
	p.ReviewCount = count
	m.items[id] = p
	return nil
}

func (m *memProducts) get(id string) model.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id]
}

func (m *memProducts) setPrice(id string, price int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.items[id]
	p.Price = price
	m.items[id] = p
}

func (m *memProducts) snapshot() map[string]model.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]model.Product, len(m.items))
	for k, v := range m.items {
		out[k] = v
	}
	return out
}

func (m *memProducts) restore(s map[string]model.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = s
}

func copyCart(c model.Cart) model.Cart {
	items := make([]model.CartItem, len(c.Items))
	copy(items, c.Items)
	c.Items = items
	return c
}

// versionで条件付き保存するカート
type memCarts struct {
	mu     sync.Mutex
	byUser map[string]model.Cart

	// 0より大きい間、Saveの直前に別リクエストが書き込んだことにする
	interleave int
	saves      int
}

func newMemCarts() *memCarts {
	return &memCarts{byUser: map[string]model.Cart{}}
}

func (m *memCarts) FindByUserID(_ context.Context, userID string) (model.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byUser[userID]
	if !ok {
		return model.Cart{}, repo.ErrNotFound
	}
	return copyCart(c), nil
}

func (m *memCarts) Create(_ context.Context, cart model.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byUser[cart.UserID]; ok {
		return repo.ErrDuplicate
	}
	m.byUser[cart.UserID] = copyCart(cart)
	return nil
}

func (m *memCarts) Save(_ context.Context, cart model.Cart) (model.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byUser[cart.UserID]
	if !ok {
		return model.Cart{}, repo.ErrNotFound
	}
	if m.interleave > 0 {
		m.interleave--
		cur.Version++
		m.byUser[cart.UserID] = cur
	}
	if cur.Version != cart.Version {
		return model.Cart{}, repo.ErrVersionConflict
	}
	cart.Version++
	m.byUser[cart.UserID] = copyCart(cart)
	m.saves++
	return copyCart(cart), nil
}

func (m *memCarts) snapshot() map[string]model.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]model.Cart, len(m.byUser))
	for k, v := range m.byUser {
		out[k] = copyCart(v)
	}
	return out
}

func (m *memCarts) restore(s map[string]model.Cart) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byUser = s
}

type memOrders struct {
	mu        sync.Mutex
	items     map[string]model.Order
	createErr error

	//UpdateStatus の直前に割り込ませる処理
	beforeUpdate func()
}

func newMemOrders() *memOrders {
	return &memOrders{items: map[string]model.Order{}}
}

func (m *memOrders) FindByID(_ context.Context, id string) (model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.items[id]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (m *memOrders) ListByUserID(_ context.Context, userID string) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Order{}
	for _, o := range m.items {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memOrders) Create(_ context.Context, o model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.items[o.ID] = o
	return nil
}

func (m *memOrders) UpdateStatus(_ context.Context, o model.Order, prev model.OrderStatus) error {
	if hook := m.beforeUpdate; hook != nil {
		m.beforeUpdate = nil
		hook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.items[o.ID]
	if !ok {
		return repo.ErrNotFound
	}
	if cur.OrderStatus != prev {
		return repo.ErrVersionConflict
	}
	cur.OrderStatus = o.OrderStatus
	cur.PaymentStatus = o.PaymentStatus
	cur.IsPaid = o.IsPaid
	cur.AdminNotes = o.AdminNotes
	cur.UpdatedAt = o.UpdatedAt
	m.items[o.ID] = cur
	return nil
}

func (m *memOrders) ListAdmin(_ context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Order{}
	for _, o := range m.items {
		if f.Status != "" && string(o.OrderStatus) != f.Status {
			continue
		}
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		out = append(out, o)
	}
	return out, int64(len(out)), nil
}

func (m *memOrders) snapshot() map[string]model.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]model.Order, len(m.items))
	for k, v := range m.items {
		out[k] = v
	}
	return out
}

func (m *memOrders) restore(s map[string]model.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = s
}

type memAuditLogs struct {
	mu   sync.Mutex
	logs []model.AuditLog
}

func (m *memAuditLogs) Create(_ context.Context, l model.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, l)
	return nil
}

func (m *memAuditLogs) List(_ context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.AuditLog{}
	for i := len(m.logs) - 1; i >= 0; i-- {
		l := m.logs[i]
		if f.Action != nil && l.Action != *f.Action {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

// memTx はエラー時にスナップショットへ戻してrollbackを真似る。
type memTx struct {
	products *memProducts
	carts    *memCarts
	orders   *memOrders
	audits   *memAuditLogs
}

func (t *memTx) Orders() repo.OrderRepository       { return t.orders }
func (t *memTx) Carts() repo.CartRepository         { return t.carts }
func (t *memTx) Products() repo.ProductRepository   { return t.products }
func (t *memTx) AuditLogs() repo.AuditLogRepository { return t.audits }

func (t *memTx) WithinTx(ctx context.Context, fn func(ctx context.Context, r repo.TxRepos) error) error {
	ps, cs, ords := t.products.snapshot(), t.carts.snapshot(), t.orders.snapshot()
	t.audits.mu.Lock()
	al := len(t.audits.logs)
	t.audits.mu.Unlock()

	if err := fn(ctx, t); err != nil {
		t.products.restore(ps)
		t.carts.restore(cs)
		t.orders.restore(ords)
		t.audits.mu.Lock()
		t.audits.logs = t.audits.logs[:al]
		t.audits.mu.Unlock()
		return err
	}
	return nil
}

type memReviews struct {
	mu    sync.Mutex
	items map[string]model.Review
}

func newMemReviews() *memReviews {
	return &memReviews{items: map[string]model.Review{}}
}

func (m *memReviews) Create(_ context.Context, r model.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.items {
		if o.UserID == r.UserID && o.ProductID == r.ProductID {
			return repo.ErrDuplicate
		}
	}
	m.items[r.ID] = r
	return nil
}

func (m *memReviews) FindByID(_ context.Context, id string) (model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.items[id]
	if !ok {
		return model.Review{}, repo.ErrNotFound
	}
	return r, nil
}

func (m *memReviews) FindByUserAndProduct(_ context.Context, userID, productID string) (model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.items {
		if r.UserID == userID && r.ProductID == productID {
			return r, nil
		}
	}
	return model.Review{}, repo.ErrNotFound
}

func (m *memReviews) ListByProductID(_ context.Context, productID string) ([]model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Review{}
	for _, r := range m.items {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memReviews) Update(_ context.Context, r model.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[r.ID]; !ok {
		return repo.ErrNotFound
	}
	m.items[r.ID] = r
	return nil
}

func (m *memReviews) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memReviews) RatingStats(_ context.Context, productID string) (repo.RatingStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var s repo.RatingStats
	for _, r := range m.items {
		if r.ProductID == productID && !r.UserDeleted {
			s.Sum += int64(r.Rating)
			s.Count++
		}
	}
	return s, nil
}

func (m *memReviews) MarkUserDeleted(_ context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]struct{}{}
	out := []string{}
	for id, r := range m.items {
		if r.UserID != userID {
			continue
		}
		r.UserDeleted = true
		m.items[id] = r
		if _, ok := seen[r.ProductID]; !ok {
			seen[r.ProductID] = struct{}{}
			out = append(out, r.ProductID)
		}
	}
	return out, nil
}

// =====================
// Mock
// =====================

type MockOrderNotifier struct {
	mock.Mock
}

func (m *MockOrderNotifier) NotifyOrderPlaced(ctx context.Context, n OrderNotice) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

type MockAnalyticsRepository struct {
	mock.Mock
}

func (m *MockAnalyticsRepository) SalesOverview(ctx context.Context, r repo.DateRange) (model.SalesOverview, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(model.SalesOverview), args.Error(1)
}

func (m *MockAnalyticsRepository) ProductSales(ctx context.Context, productID string, r repo.DateRange) (model.ProductSales, error) {
	args := m.Called(ctx, productID, r)
	return args.Get(0).(model.ProductSales), args.Error(1)
}

func (m *MockAnalyticsRepository) TopProducts(ctx context.Context, r repo.DateRange, limit int) ([]model.TopProduct, error) {
	args := m.Called(ctx, r, limit)
	top, _ := args.Get(0).([]model.TopProduct)
	return top, args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) IncrementTokenVersion(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// mapに書き込むだけのキャッシュ
type memCache struct {
	mu   sync.Mutex
	data map[string]any
	sets int
}

func newMemCache() *memCache {
	return &memCache{data: map[string]any{}}
}

func (c *memCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return false, nil
	}
	switch d := dest.(type) {
	case *OverviewOutput:
		*d = v.(OverviewOutput)
	case *TopProductsOutput:
		*d = v.(TopProductsOutput)
	case *ProductSalesOutput:
		*d = v.(ProductSalesOutput)
	default:
		return false, fmt.Errorf("unexpected type %T", dest)
	}
	return true, nil
}

func (c *memCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.sets++
	return nil
}

// =====================
// 商品データ
// =====================

func tshirt() model.Product {
	return model.Product{
		ID:        "p-tee",
		SKU:       "TEE-001",
		Name:      "Basic Tee",
		Price:     1500,
		Discount:  500,
		Category:  model.CategoryUnisex,
		Type:      "T-Shirt",
		Sizes:     []model.Size{model.SizeS, model.SizeM, model.SizeL},
		Stock:     10,
		IsActive:  true,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
}

func baseballCap() model.Product {
	return model.Product{
		ID:        "p-cap",
		SKU:       "CAP-001",
		Name:      "Cap",
		Price:     2000,
		Category:  model.CategoryUnisex,
		Type:      "Hat",
		Stock:     5,
		IsActive:  true,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
}
