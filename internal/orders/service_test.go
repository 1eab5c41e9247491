package orders

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/grocerdash/grocerdash-backend/internal/coupons"
	"github.com/grocerdash/grocerdash-backend/internal/dispatch"
	"github.com/grocerdash/grocerdash-backend/internal/drivers"
	"github.com/grocerdash/grocerdash-backend/internal/inventory"
	"github.com/grocerdash/grocerdash-backend/internal/loyalty"
	"github.com/grocerdash/grocerdash-backend/pkg/db/models"
	"github.com/grocerdash/grocerdash-backend/pkg/enums"
	pkgerrors "github.com/grocerdash/grocerdash-backend/pkg/errors"
	"github.com/grocerdash/grocerdash-backend/pkg/logger"
	"github.com/grocerdash/grocerdash-backend/pkg/pagination"
	"github.com/grocerdash/grocerdash-backend/pkg/types"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (g gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

type recordedEmission struct {
	target string
	event  string
}

type fakeHub struct {
	mu        sync.Mutex
	emissions []recordedEmission
}

func (h *fakeHub) record(target, event string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.emissions = append(h.emissions, recordedEmission{target: target, event: event})
}

func (h *fakeHub) EmitToOrder(_ context.Context, orderID uuid.UUID, event string, _ any) {
	h.record("order:"+orderID.String(), event)
}

func (h *fakeHub) EmitToUser(_ context.Context, userID uuid.UUID, event string, _ any) {
	h.record("user:"+userID.String(), event)
}

func (h *fakeHub) EmitGlobal(_ context.Context, event string, _ any) {
	h.record("global", event)
}

func (h *fakeHub) events() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.emissions))
	for _, e := range h.emissions {
		out = append(out, e.event)
	}
	return out
}

type fakePusher struct {
	mu     sync.Mutex
	titles []string
}

func (p *fakePusher) Push(_ context.Context, _ uuid.UUID, title, _ string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.titles = append(p.titles, title)
}

func (p *fakePusher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.titles)
}

type fixture struct {
	db      *gorm.DB
	svc     Service
	hub     *fakeHub
	pusher  *fakePusher
	drivers *drivers.Repo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Customer{}, &models.DeliveryPartner{}, &models.Branch{},
		&models.Product{}, &models.Coupon{}, &models.Referral{},
		&models.LoyaltyConfig{}, &models.FeeConfig{},
		&models.Order{}, &models.OrderItem{}, &models.Counter{},
	))
	require.NoError(t, db.Create(&models.Counter{Name: models.CounterOrderNumber}).Error)

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	hub := &fakeHub{}
	pusher := &fakePusher{}
	driverRepo := drivers.NewRepo(db)

	svc, err := NewService(Deps{
		Repo:       NewRepository(db),
		Tx:         gormTxRunner{db: db},
		Ledger:     inventory.NewLedger(),
		Coupons:    coupons.NewValidator(),
		Dispatcher: dispatch.NewCoordinator(driverRepo, hub, logg),
		Loyalty:    loyalty.NewService(logg),
		Drivers:    driverRepo,
		Pusher:     pusher,
		Logger:     logg,
		DB:         db,
		StaleAfter: 5 * time.Minute,
	})
	require.NoError(t, err)

	return &fixture{db: db, svc: svc, hub: hub, pusher: pusher, drivers: driverRepo}
}

func (f *fixture) seedCustomer(t *testing.T) uuid.UUID {
	t.Helper()
	customer := models.Customer{ID: uuid.New(), Name: "customer", Phone: uuid.NewString()}
	require.NoError(t, f.db.Create(&customer).Error)
	return customer.ID
}

func (f *fixture) seedBranch(t *testing.T) uuid.UUID {
	t.Helper()
	branch := models.Branch{ID: uuid.New(), Name: "branch"}
	require.NoError(t, f.db.Create(&branch).Error)
	return branch.ID
}

func (f *fixture) seedProduct(t *testing.T, price string, stock int) uuid.UUID {
	t.Helper()
	amount, err := decimal.NewFromString(price)
	require.NoError(t, err)
	product := models.Product{ID: uuid.New(), Name: "item", Price: amount, Stock: stock, IsAvailable: true}
	require.NoError(t, f.db.Create(&product).Error)
	return product.ID
}

func (f *fixture) seedDriver(t *testing.T, activated bool) uuid.UUID {
	t.Helper()
	driver := models.DeliveryPartner{
		ID:          uuid.New(),
		Name:        "driver",
		Phone:       uuid.NewString(),
		IsOnline:    true,
		IsActivated: activated,
	}
	require.NoError(t, f.db.Create(&driver).Error)
	return driver.ID
}

func (f *fixture) stockOf(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	var product models.Product
	require.NoError(t, f.db.First(&product, "id = ?", productID).Error)
	return product.Stock
}

func (f *fixture) storedOrder(t *testing.T, orderID uuid.UUID) *models.Order {
	t.Helper()
	var order models.Order
	require.NoError(t, f.db.Preload("Items").First(&order, "id = ?", orderID).Error)
	return &order
}

func (f *fixture) createOrder(t *testing.T, items []CartItem) *models.Order {
	t.Helper()
	order, err := f.svc.Create(context.Background(), CreateInput{
		CustomerID:      f.seedCustomer(t),
		BranchID:        f.seedBranch(t),
		Items:           items,
		DeliveryAddress: types.GeoPoint{Latitude: 12.9, Longitude: 77.6, Address: "home"},
		PaymentMethod:   enums.PaymentMethodCOD,
	})
	require.NoError(t, err)
	return order
}

func TestCreateReservesStockAndNumbersOrders(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	productA := f.seedProduct(t, "50", 5)
	productB := f.seedProduct(t, "30", 5)

	order := f.createOrder(t, []CartItem{
		{ProductID: productA, Qty: 1},
		{ProductID: productB, Qty: 2},
	})

	assert.Equal(t, "ORDR00001", order.OrderNumber)
	assert.Equal(t, enums.OrderStatusAvailable, order.Status)
	assert.Equal(t, 4, f.stockOf(t, productA))
	assert.Equal(t, 3, f.stockOf(t, productB))
	// 50 + 60, no fee config seeded
	assert.True(t, order.TotalPrice.Equal(decimal.NewFromInt(110)))
	require.Len(t, order.Items, 2)

	second := f.createOrder(t, []CartItem{{ProductID: productA, Qty: 1}})
	assert.Equal(t, "ORDR00002", second.OrderNumber)

	events := f.hub.events()
	assert.Contains(t, events, "admin:new-order")
	assert.Contains(t, events, "driver:new-order")
}

func TestCreateRollsBackStockWhenCouponFails(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	productID := f.seedProduct(t, "50", 5)
	code := "GONE"

	_, err := f.svc.Create(context.Background(), CreateInput{
		CustomerID:      f.seedCustomer(t),
		BranchID:        f.seedBranch(t),
		Items:           []CartItem{{ProductID: productID, Qty: 2}},
		DeliveryAddress: types.GeoPoint{Address: "home"},
		CouponCode:      &code,
		PaymentMethod:   enums.PaymentMethodCOD,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
	assert.Equal(t, 5, f.stockOf(t, productID))
}

func TestCreateAppliesCouponAndConsumesUsage(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	productID := f.seedProduct(t, "100", 5)
	coupon := models.Coupon{
		ID:           uuid.New(),
		Code:         "FLAT30",
		DiscountType: enums.DiscountTypeFlat,
		Value:        decimal.NewFromInt(30),
		UsageLimit:   1,
		IsActive:     true,
	}
	require.NoError(t, f.db.Create(&coupon).Error)
	code := coupon.Code

	order, err := f.svc.Create(context.Background(), CreateInput{
		CustomerID:      f.seedCustomer(t),
		BranchID:        f.seedBranch(t),
		Items:           []CartItem{{ProductID: productID, Qty: 2}},
		DeliveryAddress: types.GeoPoint{Address: "home"},
		CouponCode:      &code,
		PaymentMethod:   enums.PaymentMethodCOD,
	})
	require.NoError(t, err)
	assert.True(t, order.DiscountAmount.Equal(decimal.NewFromInt(30)))
	assert.True(t, order.TotalPrice.Equal(decimal.NewFromInt(170)))

	var stored models.Coupon
	require.NoError(t, f.db.First(&stored, "id = ?", coupon.ID).Error)
	assert.Equal(t, 1, stored.UsedCount)
}

func TestHappyPathThroughDelivered(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	require.NoError(t, f.db.Create(&models.FeeConfig{
		ID:                    uuid.New(),
		DeliveryFee:           decimal.NewFromInt(20),
		FreeDeliveryEnabled:   true,
		FreeDeliveryThreshold: decimal.NewFromInt(199),
	}).Error)

	productA := f.seedProduct(t, "50", 5)
	productB := f.seedProduct(t, "30", 5)
	driverID := f.seedDriver(t, true)
	ctx := context.Background()

	order := f.createOrder(t, []CartItem{
		{ProductID: productA, Qty: 1},
		{ProductID: productB, Qty: 2},
	})
	assert.Equal(t, 4, f.stockOf(t, productA))
	assert.Equal(t, 3, f.stockOf(t, productB))

	confirmed, err := f.svc.ConfirmAssignment(ctx, order.ID, driverID,
		&types.GeoPoint{Latitude: 12.9, Longitude: 77.6})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.DeliveryPartnerID)
	assert.Equal(t, driverID, *confirmed.DeliveryPartnerID)

	for _, next := range []enums.OrderStatus{
		enums.OrderStatusArriving,
		enums.OrderStatusAtLocation,
		enums.OrderStatusDelivered,
	} {
		_, err = f.svc.UpdateStatus(ctx, StatusUpdateInput{
			OrderID:   order.ID,
			DriverID:  driverID,
			NewStatus: next,
		})
		require.NoError(t, err)
	}

	stored := f.storedOrder(t, order.ID)
	assert.Equal(t, enums.OrderStatusDelivered, stored.Status)
	// subtotal 110 is below the free-delivery threshold
	assert.True(t, stored.DriverEarning.Equal(decimal.NewFromInt(20)), "earning = %s", stored.DriverEarning)
	assert.True(t, stored.CODCollected.Equal(stored.TotalPrice))
	assert.Equal(t, 4, f.stockOf(t, productA))
	assert.Equal(t, 3, f.stockOf(t, productB))

	// arriving + at_location + nearby + delivered; the confirm transition
	// reaches the customer through the orderConfirmed room event, not a push
	assert.Equal(t, 4, f.pusher.count())

	events := f.hub.events()
	assert.Contains(t, events, "orderConfirmed")
	assert.Contains(t, events, "admin:order-status-update")
	assert.Contains(t, events, "driver:order-status-update")
}

func TestCancellationRestoresStock(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	productID := f.seedProduct(t, "40", 10)
	ctx := context.Background()

	order := f.createOrder(t, []CartItem{{ProductID: productID, Qty: 3}})
	assert.Equal(t, 7, f.stockOf(t, productID))

	cancelled, err := f.svc.ManagerUpdateStatus(ctx, order.ID, enums.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, 10, f.stockOf(t, productID))
	assert.Nil(t, cancelled.DeliveryPartnerID)

	// A second cancellation must not release stock again.
	_, err = f.svc.ManagerUpdateStatus(ctx, order.ID, enums.OrderStatusCancelled)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
	assert.Equal(t, 10, f.stockOf(t, productID))
}

func TestManagerCannotAdvanceUnboundOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	productID := f.seedProduct(t, "40", 10)
	ctx := context.Background()

	order := f.createOrder(t, []CartItem{{ProductID: productID, Qty: 1}})

	_, err := f.svc.ManagerUpdateStatus(ctx, order.ID, enums.OrderStatusAssigned)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))

	stored := f.storedOrder(t, order.ID)
	assert.Equal(t, enums.OrderStatusAvailable, stored.Status)
	assert.Nil(t, stored.DeliveryPartnerID)
}

func TestManagerAdvancesBoundOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	productID := f.seedProduct(t, "40", 10)
	driverID := f.seedDriver(t, true)
	ctx := context.Background()

	order := f.createOrder(t, []CartItem{{ProductID: productID, Qty: 1}})
	_, err := f.svc.ConfirmAssignment(ctx, order.ID, driverID, nil)
	require.NoError(t, err)

	updated, err := f.svc.ManagerUpdateStatus(ctx, order.ID, enums.OrderStatusArriving)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusArriving, updated.Status)
}

func TestUnboundDriverCannotAdvanceOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	productID := f.seedProduct(t, "40", 10)
	driverA := f.seedDriver(t, true)
	driverB := f.seedDriver(t, true)
	ctx := context.Background()

	order := f.createOrder(t, []CartItem{{ProductID: productID, Qty: 1}})
	_, err := f.svc.ConfirmAssignment(ctx, order.ID, driverA, nil)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, StatusUpdateInput{
		OrderID:   order.ID,
		DriverID:  driverB,
		NewStatus: enums.OrderStatusArriving,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	stored := f.storedOrder(t, order.ID)
	assert.Equal(t, enums.OrderStatusConfirmed, stored.Status)
	assert.Equal(t, driverA, *stored.DeliveryPartnerID)
}

func TestTerminalOrdersAreImmutable(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	productID := f.seedProduct(t, "40", 10)
	driverID := f.seedDriver(t, true)
	ctx := context.Background()

	order := f.createOrder(t, []CartItem{{ProductID: productID, Qty: 1}})
	_, err := f.svc.ConfirmAssignment(ctx, order.ID, driverID, nil)
	require.NoError(t, err)
	for _, next := range []enums.OrderStatus{
		enums.OrderStatusArriving, enums.OrderStatusAtLocation, enums.OrderStatusDelivered,
	} {
		_, err = f.svc.UpdateStatus(ctx, StatusUpdateInput{OrderID: order.ID, DriverID: driverID, NewStatus: next})
		require.NoError(t, err)
	}

	_, err = f.svc.UpdateStatus(ctx, StatusUpdateInput{
		OrderID:   order.ID,
		DriverID:  driverID,
		NewStatus: enums.OrderStatusCancelled,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
	assert.Equal(t, enums.OrderStatusDelivered, f.storedOrder(t, order.ID).Status)
}

func TestUnboundOrderOnlyAcceptsConfirmed(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	productID := f.seedProduct(t, "40", 10)
	driverID := f.seedDriver(t, true)

	order := f.createOrder(t, []CartItem{{ProductID: productID, Qty: 1}})
	_, err := f.svc.UpdateStatus(context.Background(), StatusUpdateInput{
		OrderID:   order.ID,
		DriverID:  driverID,
		NewStatus: enums.OrderStatusArriving,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
	assert.Equal(t, enums.OrderStatusAvailable, f.storedOrder(t, order.ID).Status)
}

func TestStatusProgressionIsSingleStep(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	productID := f.seedProduct(t, "40", 10)
	driverID := f.seedDriver(t, true)
	ctx := context.Background()

	order := f.createOrder(t, []CartItem{{ProductID: productID, Qty: 1}})
	_, err := f.svc.ConfirmAssignment(ctx, order.ID, driverID, nil)
	require.NoError(t, err)

	// confirmed -> at_location skips arriving
	_, err = f.svc.UpdateStatus(ctx, StatusUpdateInput{
		OrderID:   order.ID,
		DriverID:  driverID,
		NewStatus: enums.OrderStatusAtLocation,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
}

func TestManagerAssignBindsDriver(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	productID := f.seedProduct(t, "40", 10)
	driverID := f.seedDriver(t, true)
	ctx := context.Background()

	order := f.createOrder(t, []CartItem{{ProductID: productID, Qty: 1}})
	assigned, err := f.svc.ManagerAssign(ctx, order.ID, driverID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusAssigned, assigned.Status)
	require.NotNil(t, assigned.DeliveryPartnerID)
	assert.Equal(t, driverID, *assigned.DeliveryPartnerID)

	stored, err := f.drivers.FindByID(ctx, driverID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastAssignedAt)
	assert.Contains(t, f.hub.events(), "driver:order-assigned")
}

func TestManagerAssignRejectsInactiveDriverWithoutMutation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	productID := f.seedProduct(t, "40", 10)
	inactive := f.seedDriver(t, false)

	order := f.createOrder(t, []CartItem{{ProductID: productID, Qty: 1}})
	_, err := f.svc.ManagerAssign(context.Background(), order.ID, inactive)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))

	stored := f.storedOrder(t, order.ID)
	assert.Equal(t, enums.OrderStatusAvailable, stored.Status)
	assert.Nil(t, stored.DeliveryPartnerID)
}

func TestManagerAssignPicksLongestIdleDriver(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	productID := f.seedProduct(t, "40", 10)
	recently := time.Now().Add(-time.Hour)
	busy := models.DeliveryPartner{
		ID: uuid.New(), Name: "busy", Phone: uuid.NewString(),
		IsOnline: true, IsActivated: true, LastAssignedAt: &recently,
	}
	require.NoError(t, f.db.Create(&busy).Error)
	idle := f.seedDriver(t, true)

	order := f.createOrder(t, []CartItem{{ProductID: productID, Qty: 1}})
	assigned, err := f.svc.ManagerAssign(context.Background(), order.ID, uuid.Nil)
	require.NoError(t, err)
	require.NotNil(t, assigned.DeliveryPartnerID)
	assert.Equal(t, idle, *assigned.DeliveryPartnerID)
}

func TestReleaseAssignmentReturnsOrderToPool(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	productID := f.seedProduct(t, "40", 10)
	driverID := f.seedDriver(t, true)
	ctx := context.Background()

	order := f.createOrder(t, []CartItem{{ProductID: productID, Qty: 1}})
	_, err := f.svc.ConfirmAssignment(ctx, order.ID, driverID, nil)
	require.NoError(t, err)

	released, err := f.svc.ReleaseAssignment(ctx, order.ID, driverID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusAvailable, released.Status)
	assert.Nil(t, released.DeliveryPartnerID)

	// Another driver can take it again.
	other := f.seedDriver(t, true)
	taken, err := f.svc.ConfirmAssignment(ctx, order.ID, other, nil)
	require.NoError(t, err)
	assert.Equal(t, other, *taken.DeliveryPartnerID)
}

func TestReleaseRequiresBinding(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	productID := f.seedProduct(t, "40", 10)
	driverA := f.seedDriver(t, true)
	driverB := f.seedDriver(t, true)
	ctx := context.Background()

	order := f.createOrder(t, []CartItem{{ProductID: productID, Qty: 1}})
	_, err := f.svc.ConfirmAssignment(ctx, order.ID, driverA, nil)
	require.NoError(t, err)

	_, err = f.svc.ReleaseAssignment(ctx, order.ID, driverB)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
}

func TestRejectOnlyAppliesToAssignedOrders(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	productID := f.seedProduct(t, "40", 10)
	driverID := f.seedDriver(t, true)
	ctx := context.Background()

	order := f.createOrder(t, []CartItem{{ProductID: productID, Qty: 1}})
	_, err := f.svc.ManagerAssign(ctx, order.ID, driverID)
	require.NoError(t, err)

	rejected, err := f.svc.RejectOrder(ctx, order.ID, driverID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusAvailable, rejected.Status)

	// Confirmed orders cannot be rejected, only released.
	_, err = f.svc.ConfirmAssignment(ctx, order.ID, driverID, nil)
	require.NoError(t, err)
	_, err = f.svc.RejectOrder(ctx, order.ID, driverID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
}

func TestReferralBonusFiresExactlyOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	require.NoError(t, f.db.Create(&models.LoyaltyConfig{
		ID:                  uuid.New(),
		ReferrerBonusPoints: 50,
		RefereeBonusPoints:  25,
		AwardReferrer:       true,
		AwardReferee:        true,
	}).Error)

	referrer := models.Customer{ID: uuid.New(), Name: "referrer", Phone: uuid.NewString()}
	require.NoError(t, f.db.Create(&referrer).Error)
	referee := models.Customer{ID: uuid.New(), Name: "referee", Phone: uuid.NewString()}
	require.NoError(t, f.db.Create(&referee).Error)
	require.NoError(t, f.db.Create(&models.Referral{
		ID: uuid.New(), ReferrerID: referrer.ID, RefereeID: referee.ID,
	}).Error)

	productID := f.seedProduct(t, "40", 10)
	branchID := f.seedBranch(t)
	driverID := f.seedDriver(t, true)
	ctx := context.Background()

	deliver := func() {
		order, err := f.svc.Create(ctx, CreateInput{
			CustomerID:      referee.ID,
			BranchID:        branchID,
			Items:           []CartItem{{ProductID: productID, Qty: 1}},
			DeliveryAddress: types.GeoPoint{Address: "home"},
			PaymentMethod:   enums.PaymentMethodCOD,
		})
		require.NoError(t, err)
		_, err = f.svc.ConfirmAssignment(ctx, order.ID, driverID, nil)
		require.NoError(t, err)
		for _, next := range []enums.OrderStatus{
			enums.OrderStatusArriving, enums.OrderStatusAtLocation, enums.OrderStatusDelivered,
		} {
			_, err = f.svc.UpdateStatus(ctx, StatusUpdateInput{OrderID: order.ID, DriverID: driverID, NewStatus: next})
			require.NoError(t, err)
		}
	}

	deliver()
	var afterFirst models.Customer
	require.NoError(t, f.db.First(&afterFirst, "id = ?", referrer.ID).Error)
	assert.Equal(t, 50, afterFirst.GreenPoints)

	deliver()
	var afterSecond models.Customer
	require.NoError(t, f.db.First(&afterSecond, "id = ?", referrer.ID).Error)
	assert.Equal(t, 50, afterSecond.GreenPoints)
}

func TestExpireStaleAssignedOrders(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	productID := f.seedProduct(t, "40", 10)
	driverID := f.seedDriver(t, true)
	ctx := context.Background()

	stale := f.createOrder(t, []CartItem{{ProductID: productID, Qty: 1}})
	_, err := f.svc.ManagerAssign(ctx, stale.ID, driverID)
	require.NoError(t, err)
	old := time.Now().Add(-time.Hour)
	require.NoError(t, f.db.Model(&models.Order{}).Where("id = ?", stale.ID).
		Update("assigned_at", old).Error)

	fresh := f.createOrder(t, []CartItem{{ProductID: productID, Qty: 1}})
	_, err = f.svc.ManagerAssign(ctx, fresh.ID, driverID)
	require.NoError(t, err)

	swept, err := f.svc.ExpireStaleAssignedOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), swept)

	assert.Equal(t, enums.OrderStatusAvailable, f.storedOrder(t, stale.ID).Status)
	assert.Nil(t, f.storedOrder(t, stale.ID).DeliveryPartnerID)
	assert.Equal(t, enums.OrderStatusAssigned, f.storedOrder(t, fresh.ID).Status)
}

func TestGetAuthorization(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	productID := f.seedProduct(t, "40", 10)
	driverID := f.seedDriver(t, true)
	ctx := context.Background()

	order := f.createOrder(t, []CartItem{{ProductID: productID, Qty: 1}})

	_, err := f.svc.Get(ctx, Actor{UserID: order.CustomerID, Role: enums.RoleCustomer}, order.ID)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, Actor{UserID: uuid.New(), Role: enums.RoleCustomer}, order.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	_, err = f.svc.Get(ctx, Actor{UserID: uuid.New(), Role: enums.RoleAdmin}, order.ID)
	require.NoError(t, err)

	_, err = f.svc.ConfirmAssignment(ctx, order.ID, driverID, nil)
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, Actor{UserID: driverID, Role: enums.RoleDeliveryPartner}, order.ID)
	require.NoError(t, err)
}

func TestListScopedByRole(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	productID := f.seedProduct(t, "40", 20)
	driverID := f.seedDriver(t, true)
	ctx := context.Background()

	mine := f.createOrder(t, []CartItem{{ProductID: productID, Qty: 1}})
	other := f.createOrder(t, []CartItem{{ProductID: productID, Qty: 1}})
	_, err := f.svc.ConfirmAssignment(ctx, other.ID, driverID, nil)
	require.NoError(t, err)

	customerList, err := f.svc.ListFor(ctx, Actor{UserID: mine.CustomerID, Role: enums.RoleCustomer}, Filter{}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, customerList.Orders, 1)
	assert.Equal(t, mine.ID, customerList.Orders[0].ID)

	// Driver sees the bound order plus the open pool.
	driverList, err := f.svc.ListFor(ctx, Actor{UserID: driverID, Role: enums.RoleDeliveryPartner}, Filter{}, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, driverList.Orders, 2)

	staffList, err := f.svc.ListFor(ctx, Actor{UserID: uuid.New(), Role: enums.RoleManager}, Filter{}, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, staffList.Orders, 2)

	confirmed := enums.OrderStatusConfirmed
	filtered, err := f.svc.ListFor(ctx, Actor{UserID: uuid.New(), Role: enums.RoleManager}, Filter{Status: &confirmed}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, filtered.Orders, 1)
	assert.Equal(t, other.ID, filtered.Orders[0].ID)
}

func TestEstimateQuotesWithoutSideEffects(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	require.NoError(t, f.db.Create(&models.FeeConfig{
		ID:                    uuid.New(),
		DeliveryFee:           decimal.NewFromInt(20),
		FreeDeliveryEnabled:   true,
		FreeDeliveryThreshold: decimal.NewFromInt(199),
	}).Error)
	productID := f.seedProduct(t, "100", 5)

	quote, err := f.svc.Estimate(context.Background(), EstimateInput{
		Items: []CartItem{{ProductID: productID, Qty: 1}},
	})
	require.NoError(t, err)
	assert.True(t, quote.GrandTotal.Equal(decimal.NewFromInt(120)))
	assert.Equal(t, 5, f.stockOf(t, productID))

	over, err := f.svc.Estimate(context.Background(), EstimateInput{
		Items: []CartItem{{ProductID: productID, Qty: 2}},
	})
	require.NoError(t, err)
	assert.True(t, over.GrandTotal.Equal(decimal.NewFromInt(200)))
}
