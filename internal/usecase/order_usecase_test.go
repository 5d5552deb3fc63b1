package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type orderFixture struct {
	cart     *CartUsecase
	order    *OrderUsecase
	admin    *AdminOrderUsecase
	products *memProducts
	carts    *memCarts
	orders   *memOrders
	audits   *memAuditLogs
	users    *MockUserRepository
	notifier *MockOrderNotifier
}

func newOrderFixture(t *testing.T, ps ...model.Product) *orderFixture {
	t.Helper()
	f := &orderFixture{
		products: newMemProducts(ps...),
		carts:    newMemCarts(),
		orders:   newMemOrders(),
		audits:   &memAuditLogs{},
		users:    new(MockUserRepository),
		notifier: new(MockOrderNotifier),
	}
	ids := &seqIDs{}
	clock := &fixedClock{t: testNow}
	tx := &memTx{products: f.products, carts: f.carts, orders: f.orders, audits: f.audits}

	f.cart = NewCartUsecase(f.carts, f.products, ids, clock)
	f.order = NewOrderUsecase(tx, f.orders, f.users, f.notifier, ids, clock, time.Second)
	f.admin = NewAdminOrderUsecase(tx, f.orders, ids, clock)

	f.users.On("FindByID", mock.Anything, "u1").
		Return(&model.User{ID: "u1", Name: "Hanako", Email: "hanako@example.com"}, nil).Maybe()
	return f
}

// 2→3→2 の後に注文する
func (f *orderFixture) fillCart(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := f.cart.AddItem(ctx, "u1", AddCartItemInput{ProductID: "p-tee", Quantity: 2, Size: "M"})
	require.NoError(t, err)
	_, err = f.cart.AddItem(ctx, "u1", AddCartItemInput{ProductID: "p-tee", Quantity: 1, Size: "M"})
	require.NoError(t, err)
	_, err = f.cart.RemoveItem(ctx, "u1", RemoveCartItemInput{ProductID: "p-tee", Size: "M"})
	require.NoError(t, err)
}

func TestOrderUsecase_CreateOrderClearsCart(t *testing.T) {
	f := newOrderFixture(t, tshirt())
	f.fillCart(t)
	f.notifier.On("NotifyOrderPlaced", mock.Anything, mock.MatchedBy(func(n OrderNotice) bool {
		return n.CustomerEmail == "hanako@example.com" && n.TotalPrice == 2000 && len(n.Items) == 1
	})).Return(nil).Once()

	ctx := context.Background()
	out, err := f.order.CreateOrder(ctx, "u1")
	require.NoError(t, err)

	require.Len(t, out.Items, 1)
	assert.Equal(t, int64(2), out.Items[0].Quantity)
	assert.Equal(t, int64(1000), out.Items[0].Price)
	assert.Equal(t, "TEE-001", out.Items[0].SKU)
	assert.Equal(t, out.Subtotal, out.TotalPrice)
	assert.Equal(t, int64(2000), out.TotalPrice)
	assert.Equal(t, model.OrderStatusPending, out.OrderStatus)
	assert.Equal(t, model.PaymentMethodCash, out.PaymentMethod)
	assert.False(t, out.IsPaid)

	cart, err := f.cart.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Equal(t, int64(0), cart.TotalPrice)

	f.notifier.AssertExpectations(t)
}

// 注文時の価格で取り直した合計が溢れるなら注文しない
func TestOrderUsecase_RepricedTotalOverflowIsRejected(t *testing.T) {
	f := newOrderFixture(t, tshirt())
	ctx := context.Background()
	_, err := f.cart.AddItem(ctx, "u1", AddCartItemInput{ProductID: "p-tee", Quantity: 3, Size: "M"})
	require.NoError(t, err)

	f.products.setPrice("p-tee", math.MaxInt64/2)
	_, err = f.order.CreateOrder(ctx, "u1")
	assert.True(t, IsKind(err, KindValidation), "got %v", err)

	orders, err := f.orders.ListByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, orders)
	cart, err := f.cart.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
}

func TestOrderUsecase_EmptyCartIsRejected(t *testing.T) {
	f := newOrderFixture(t, tshirt())
	ctx := context.Background()

	_, err := f.order.CreateOrder(ctx, "u1")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindValidation))
	ae, _ := AsAppError(err)
	assert.Equal(t, "Cart is empty", ae.Message)

	// 空になったカートでも同じ
	_, err = f.cart.AddItem(ctx, "u1", AddCartItemInput{ProductID: "p-tee", Quantity: 1, Size: "M"})
	require.NoError(t, err)
	_, err = f.cart.RemoveItem(ctx, "u1", RemoveCartItemInput{ProductID: "p-tee", Size: "M"})
	require.NoError(t, err)
	_, err = f.order.CreateOrder(ctx, "u1")
	assert.True(t, IsKind(err, KindValidation))

	f.notifier.AssertNotCalled(t, "NotifyOrderPlaced", mock.Anything, mock.Anything)
}

func TestOrderUsecase_PricesAreFrozen(t *testing.T) {
	f := newOrderFixture(t, tshirt())
	f.fillCart(t)
	f.notifier.On("NotifyOrderPlaced", mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()

	// カート投入後の値上げは注文に反映される（注文時点の価格が正）
	f.products.setPrice("p-tee", 1700)
	out, err := f.order.CreateOrder(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1200), out.Items[0].Price)
	assert.Equal(t, int64(2400), out.TotalPrice)

	// 注文後の値上げは反映されない
	f.products.setPrice("p-tee", 9999)
	got, err := f.order.GetOrderByID(ctx, "u1", out.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), got.Items[0].Price)
	assert.Equal(t, int64(2400), got.TotalPrice)
}

func TestOrderUsecase_UnavailableProductFailsWholeOrder(t *testing.T) {
	f := newOrderFixture(t, tshirt(), baseballCap())
	ctx := context.Background()
	f.fillCart(t)
	_, err := f.cart.AddItem(ctx, "u1", AddCartItemInput{ProductID: "p-cap", Quantity: 1, Size: "FREE"})
	require.NoError(t, err)

	require.NoError(t, f.products.SoftDelete(ctx, "p-cap"))

	_, err = f.order.CreateOrder(ctx, "u1")
	assert.True(t, IsKind(err, KindValidation))

	// ロールバックされてカートは残る
	cart, err := f.carts.FindByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
	orders, _ := f.orders.ListByUserID(ctx, "u1")
	assert.Empty(t, orders)
}

func TestOrderUsecase_PersistenceFailureIsInternal(t *testing.T) {
	f := newOrderFixture(t, tshirt())
	f.fillCart(t)
	f.orders.createErr = errors.New("disk full")

	_, err := f.order.CreateOrder(context.Background(), "u1")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInternal))
	ae, _ := AsAppError(err)
	assert.Equal(t, "internal server error", ae.Message)
	assert.ErrorContains(t, err, "disk full")
}

func TestOrderUsecase_NotificationFailureDoesNotFailOrder(t *testing.T) {
	f := newOrderFixture(t, tshirt())
	f.fillCart(t)
	f.notifier.On("NotifyOrderPlaced", mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()

	out, err := f.order.CreateOrder(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotEmpty(t, out.ID)

	_, err = f.orders.FindByID(context.Background(), out.ID)
	assert.NoError(t, err)
	f.notifier.AssertExpectations(t)
}

func TestOrderUsecase_NotificationUsesDetachedContext(t *testing.T) {
	f := newOrderFixture(t, tshirt())
	f.fillCart(t)
	f.notifier.On("NotifyOrderPlaced", mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Err() == nil
	}), mock.Anything).Return(nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.users.ExpectedCalls = nil
	f.users.On("FindByID", mock.Anything, "u1").Run(func(mock.Arguments) { cancel() }).
		Return(&model.User{ID: "u1", Email: "hanako@example.com"}, nil)

	_, err := f.order.CreateOrder(ctx, "u1")
	require.NoError(t, err)
	f.notifier.AssertExpectations(t)
}

func TestOrderUsecase_GetUserOrdersNewestFirst(t *testing.T) {
	f := newOrderFixture(t, tshirt())
	ctx := context.Background()
	older := model.NewOrder("o-1", "u1", []model.OrderItem{{ProductID: "p-tee", Quantity: 1, Price: 100}}, testNow.Add(-time.Hour))
	newer := model.NewOrder("o-2", "u1", []model.OrderItem{{ProductID: "p-tee", Quantity: 1, Price: 100}}, testNow)
	other := model.NewOrder("o-3", "u2", nil, testNow)
	for _, o := range []model.Order{older, newer, other} {
		require.NoError(t, f.orders.Create(ctx, o))
	}

	outs, err := f.order.GetUserOrders(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, outs, 2)
	assert.Equal(t, "o-2", outs[0].ID)
	assert.Equal(t, "o-1", outs[1].ID)
}

func TestOrderUsecase_OtherUsersOrderIsNotFound(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	require.NoError(t, f.orders.Create(ctx, model.NewOrder("o-1", "u2", nil, testNow)))

	_, err := f.order.GetOrderByID(ctx, "u1", "o-1")
	assert.True(t, IsKind(err, KindNotFound))
	_, err = f.order.CancelOrder(ctx, "u1", "o-1")
	assert.True(t, IsKind(err, KindNotFound))
}

func TestOrderUsecase_CancelOnlyFromPending(t *testing.T) {
	ctx := context.Background()
	for _, start := range []model.OrderStatus{
		model.OrderStatusReadyForPickup, model.OrderStatusCompleted, model.OrderStatusCancelled,
	} {
		t.Run(string(start), func(t *testing.T) {
			f := newOrderFixture(t)
			o := model.NewOrder("o-1", "u1", nil, testNow)
			o.OrderStatus = start
			require.NoError(t, f.orders.Create(ctx, o))

			_, err := f.order.CancelOrder(ctx, "u1", "o-1")
			assert.True(t, IsKind(err, KindValidation))

			stored, _ := f.orders.FindByID(ctx, "o-1")
			assert.Equal(t, start, stored.OrderStatus)
		})
	}

	f := newOrderFixture(t)
	require.NoError(t, f.orders.Create(ctx, model.NewOrder("o-1", "u1", nil, testNow)))
	out, err := f.order.CancelOrder(ctx, "u1", "o-1")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, out.OrderStatus)
	stored, _ := f.orders.FindByID(ctx, "o-1")
	assert.Equal(t, model.OrderStatusCancelled, stored.OrderStatus)
}

// 読んだ後に管理者が完了まで進めた場合、取消で上書きしない
func TestOrderUsecase_CancelLosesToConcurrentAdminUpdate(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	require.NoError(t, f.orders.Create(ctx, model.NewOrder("o-1", "u1", nil, testNow)))

	f.orders.beforeUpdate = func() {
		_, err := f.admin.UpdateStatus(ctx, "admin-1", "o-1", AdminUpdateOrderStatusInput{Status: "Ready for Pickup"})
		require.NoError(t, err)
		_, err = f.admin.UpdateStatus(ctx, "admin-1", "o-1", AdminUpdateOrderStatusInput{Status: "Completed"})
		require.NoError(t, err)
	}

	_, err := f.order.CancelOrder(ctx, "u1", "o-1")
	assert.True(t, IsKind(err, KindConflict), "got %v", err)

	stored, _ := f.orders.FindByID(ctx, "o-1")
	assert.Equal(t, model.OrderStatusCompleted, stored.OrderStatus)
	assert.True(t, stored.IsPaid)
}

func TestAdminOrderUsecase_UpdateStatusConflictWritesNoAudit(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	require.NoError(t, f.orders.Create(ctx, model.NewOrder("o-1", "u1", nil, testNow)))

	f.orders.beforeUpdate = func() {
		_, err := f.order.CancelOrder(ctx, "u1", "o-1")
		require.NoError(t, err)
	}

	_, err := f.admin.UpdateStatus(ctx, "admin-1", "o-1", AdminUpdateOrderStatusInput{Status: "Ready for Pickup"})
	assert.True(t, IsKind(err, KindConflict), "got %v", err)
	assert.Empty(t, f.audits.logs)
}

func TestAdminOrderUsecase_UpdateStatusDerivesPaymentAndAudits(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	require.NoError(t, f.orders.Create(ctx, model.NewOrder("o-1", "u1", nil, testNow)))

	out, err := f.admin.UpdateStatus(ctx, "admin-1", "o-1", AdminUpdateOrderStatusInput{Status: "ready for pickup"})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusReadyForPickup, out.OrderStatus)
	assert.False(t, out.IsPaid)
	assert.Equal(t, model.PaymentStatusPending, out.PaymentStatus)

	notes := "picked up at counter"
	out, err = f.admin.UpdateStatus(ctx, "admin-1", "o-1", AdminUpdateOrderStatusInput{Status: "Completed", AdminNotes: &notes})
	require.NoError(t, err)
	assert.True(t, out.IsPaid)
	assert.Equal(t, model.PaymentStatusPaid, out.PaymentStatus)
	assert.Equal(t, notes, out.AdminNotes)

	require.Len(t, f.audits.logs, 2)
	last := f.audits.logs[1]
	assert.Equal(t, model.AuditActionUpdateOrderStatus, last.Action)
	assert.Equal(t, "admin-1", last.ActorUserID)
	assert.Equal(t, "o-1", last.ResourceID)
	assert.Contains(t, last.BeforeJSON, `"orderStatus":"Ready for Pickup"`)
	assert.Contains(t, last.AfterJSON, `"isPaid":true`)
}

func TestAdminOrderUsecase_UpdateStatusErrors(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	require.NoError(t, f.orders.Create(ctx, model.NewOrder("o-1", "u1", nil, testNow)))

	_, err := f.admin.UpdateStatus(ctx, "admin-1", "o-1", AdminUpdateOrderStatusInput{Status: "Shipped"})
	assert.True(t, IsKind(err, KindValidation))

	_, err = f.admin.UpdateStatus(ctx, "admin-1", "missing", AdminUpdateOrderStatusInput{Status: "Cancelled"})
	assert.True(t, IsKind(err, KindNotFound))

	// Pending -> Completed は飛ばせない
	_, err = f.admin.UpdateStatus(ctx, "admin-1", "o-1", AdminUpdateOrderStatusInput{Status: "Completed"})
	assert.True(t, IsKind(err, KindValidation))
	stored, _ := f.orders.FindByID(ctx, "o-1")
	assert.Equal(t, model.OrderStatusPending, stored.OrderStatus)
	assert.Empty(t, f.audits.logs)
}

func TestAdminOrderUsecase_ListValidation(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	require.NoError(t, f.orders.Create(ctx, model.NewOrder("o-1", "u1", nil, testNow)))

	_, err := f.admin.List(ctx, repo.AdminOrderListFilter{Page: 0, Limit: 10})
	assert.True(t, IsKind(err, KindValidation))
	_, err = f.admin.List(ctx, repo.AdminOrderListFilter{Page: 1, Limit: 101})
	assert.True(t, IsKind(err, KindValidation))
	_, err = f.admin.List(ctx, repo.AdminOrderListFilter{Page: 1, Limit: 10, Status: "Lost"})
	assert.True(t, IsKind(err, KindValidation))

	out, err := f.admin.List(ctx, repo.AdminOrderListFilter{Page: 1, Limit: 10, Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "o-1", out.Items[0].ID)
}
