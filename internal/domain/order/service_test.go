package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Amoghsy/CampoBite/internal/domain/coupon"
	"github.com/Amoghsy/CampoBite/internal/domain/menu"
	"github.com/Amoghsy/CampoBite/internal/notify"
)

// --- Mock implementations ---

type mockCatalog struct {
	byID   map[int64]*menu.Item
	getErr error
}

func (m *mockCatalog) GetByID(_ context.Context, id int64) (*menu.Item, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	mi, ok := m.byID[id]
	if !ok {
		return nil, menu.ErrNotFound
	}
	return mi, nil
}

func (m *mockCatalog) ListAvailable(_ context.Context) ([]menu.Item, error) {
	return nil, nil
}

type mockResolver struct {
	coupon *coupon.Coupon
	err    error
}

func (m *mockResolver) Resolve(_ context.Context, _ string, _ time.Time) (*coupon.Coupon, error) {
	return m.coupon, m.err
}

type mockOrderRepo struct {
	stored    *Order
	createErr error
	getErr    error
	updateErr error
	updates   int
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	o.ID = 1
	m.stored = o
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id int64) (*Order, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.stored == nil || m.stored.ID != id {
		return nil, ErrNotFound
	}
	cp := *m.stored
	return &cp, nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, _ int64) ([]Order, error) { return nil, nil }
func (m *mockOrderRepo) List(_ context.Context) ([]Order, error)               { return nil, nil }

func (m *mockOrderRepo) UpdateStatus(_ context.Context, o *Order) error {
	m.updates++
	if m.updateErr != nil {
		return m.updateErr
	}
	o.Version++
	cp := *o
	m.stored = &cp
	return nil
}

type mockEmitter struct {
	events []notify.Event
}

func (m *mockEmitter) Emit(e notify.Event) {
	m.events = append(m.events, e)
}

// --- Helpers ---

func newCatalog(items ...menu.Item) *mockCatalog {
	byID := make(map[int64]*menu.Item, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}
	return &mockCatalog{byID: byID}
}

func testItem(id int64, name string, price int64) menu.Item {
	return menu.Item{ID: id, Name: name, Price: price, Available: true}
}

func newTestService(catalog menu.Catalog, resolver coupon.Resolver, repo Repository, emitter Emitter) *Service {
	svc := NewService(catalog, resolver, repo, emitter)
	svc.now = func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }
	svc.randInt = func(int) int { return 42 }
	return svc
}

// --- Create ---

func TestCreate_EmptyItems(t *testing.T) {
	svc := newTestService(newCatalog(), &mockResolver{}, &mockOrderRepo{}, nil)

	_, err := svc.Create(context.Background(), CreateRequest{UserID: 7})
	require.ErrorIs(t, err, ErrEmptyItems)
}

func TestCreate_InvalidQuantity(t *testing.T) {
	svc := newTestService(newCatalog(testItem(1, "Dosa", 6000)), &mockResolver{}, &mockOrderRepo{}, nil)

	_, err := svc.Create(context.Background(), CreateRequest{
		UserID: 7,
		Items:  []CreateItem{{MenuItemID: 1, Quantity: 0}},
	})

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, int64(1), iqErr.MenuItemID)
}

func TestCreate_ItemNotFound(t *testing.T) {
	svc := newTestService(newCatalog(), &mockResolver{}, &mockOrderRepo{}, nil)

	_, err := svc.Create(context.Background(), CreateRequest{
		UserID: 7,
		Items:  []CreateItem{{MenuItemID: 99, Quantity: 1}},
	})

	var nfErr *ItemNotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, int64(99), nfErr.MenuItemID)
}

func TestCreate_ItemUnavailable(t *testing.T) {
	soldOut := testItem(1, "Thali", 9000)
	soldOut.Available = false
	svc := newTestService(newCatalog(soldOut), &mockResolver{}, &mockOrderRepo{}, nil)

	_, err := svc.Create(context.Background(), CreateRequest{
		UserID: 7,
		Items:  []CreateItem{{MenuItemID: 1, Quantity: 1}},
	})

	var uaErr *ItemUnavailableError
	require.ErrorAs(t, err, &uaErr)
	assert.Equal(t, "Thali", uaErr.Name)
}

func TestCreate_NoCoupon(t *testing.T) {
	repo := &mockOrderRepo{}
	emitter := &mockEmitter{}
	svc := newTestService(
		newCatalog(testItem(1, "Dosa", 6000), testItem(2, "Chai", 1500)),
		&mockResolver{err: coupon.ErrNotFound},
		repo, emitter,
	)

	o, err := svc.Create(context.Background(), CreateRequest{
		UserID:    7,
		UserEmail: "asha@campobite.local",
		UserName:  "Asha",
		Items: []CreateItem{
			{MenuItemID: 1, Quantity: 2},
			{MenuItemID: 2, Quantity: 1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusOrdered, o.Status)
	assert.Equal(t, int64(2*6000+1500), o.TotalAmount)
	assert.Zero(t, o.DiscountAmount)
	assert.Empty(t, o.CouponCode)
	assert.Equal(t, "Dosa x2, Chai x1", o.ItemNames)
	assert.Equal(t, int32(1), o.Version)
	assert.Empty(t, o.OTP)
	assert.Nil(t, o.OTPExpiry)
	assert.Nil(t, o.CompletedAt)

	// Price snapshot: items carry the catalog price at order time.
	require.Len(t, o.Items, 2)
	assert.Equal(t, int64(6000), o.Items[0].UnitPrice)

	require.Len(t, emitter.events, 1)
	assert.Equal(t, notify.KindStatusChanged, emitter.events[0].Kind)
	assert.Equal(t, "ORDERED", emitter.events[0].Status)
	assert.Empty(t, emitter.events[0].OTP)
}

func TestCreate_CouponDiscountFloors(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := newTestService(
		newCatalog(testItem(1, "Roll", 250)),
		&mockResolver{coupon: &coupon.Coupon{Code: "CAMPUS25", DiscountPercentage: 25, Active: true}},
		repo, nil,
	)

	o, err := svc.Create(context.Background(), CreateRequest{
		UserID:     7,
		CouponCode: "campus25",
		Items:      []CreateItem{{MenuItemID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	// 25% of 250 floors to 62, not 62.5.
	assert.Equal(t, int64(62), o.DiscountAmount)
	assert.Equal(t, int64(188), o.TotalAmount)
	assert.Equal(t, "CAMPUS25", o.CouponCode)
}

func TestCreate_CouponFullDiscount(t *testing.T) {
	svc := newTestService(
		newCatalog(testItem(1, "Chai", 1500)),
		&mockResolver{coupon: &coupon.Coupon{Code: "FREEZAAA", DiscountPercentage: 100, Active: true}},
		&mockOrderRepo{}, nil,
	)

	o, err := svc.Create(context.Background(), CreateRequest{
		UserID:     7,
		CouponCode: "FREEZAAA",
		Items:      []CreateItem{{MenuItemID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1500), o.DiscountAmount)
	assert.Zero(t, o.TotalAmount)
}

func TestCreate_CouponRejected(t *testing.T) {
	svc := newTestService(
		newCatalog(testItem(1, "Chai", 1500)),
		&mockResolver{err: coupon.ErrExpired},
		&mockOrderRepo{}, nil,
	)

	_, err := svc.Create(context.Background(), CreateRequest{
		UserID:     7,
		CouponCode: "OLDCODE",
		Items:      []CreateItem{{MenuItemID: 1, Quantity: 1}},
	})
	require.ErrorIs(t, err, coupon.ErrExpired)
}

func TestCreate_TokenRange(t *testing.T) {
	svc := NewService(newCatalog(testItem(1, "Chai", 1500)), &mockResolver{}, &mockOrderRepo{}, nil)

	for range 50 {
		o, err := svc.Create(context.Background(), CreateRequest{
			UserID: 7,
			Items:  []CreateItem{{MenuItemID: 1, Quantity: 1}},
		})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, o.TokenNumber, 100)
		assert.LessOrEqual(t, o.TokenNumber, 999)
	}
}

// --- Cancel ---

func seededRepo(o Order) *mockOrderRepo {
	o.ID = 1
	return &mockOrderRepo{stored: &o}
}

func TestCancel_FromOrdered(t *testing.T) {
	repo := seededRepo(Order{UserID: 7, Status: StatusOrdered, Version: 1})
	emitter := &mockEmitter{}
	svc := newTestService(newCatalog(), &mockResolver{}, repo, emitter)

	o, err := svc.Cancel(context.Background(), 1, 7)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, o.Status)

	require.Len(t, emitter.events, 1)
	assert.Equal(t, "CANCELLED", emitter.events[0].Status)
}

func TestCancel_WrongUser(t *testing.T) {
	repo := seededRepo(Order{UserID: 7, Status: StatusOrdered, Version: 1})
	svc := newTestService(newCatalog(), &mockResolver{}, repo, nil)

	_, err := svc.Cancel(context.Background(), 1, 8)
	require.ErrorIs(t, err, ErrForbidden)
	assert.Zero(t, repo.updates)
}

func TestCancel_AfterPreparing(t *testing.T) {
	repo := seededRepo(Order{UserID: 7, Status: StatusPreparing, Version: 1})
	svc := newTestService(newCatalog(), &mockResolver{}, repo, nil)

	_, err := svc.Cancel(context.Background(), 1, 7)

	var itErr *InvalidTransitionError
	require.ErrorAs(t, err, &itErr)
	assert.Equal(t, StatusPreparing, itErr.From)
	assert.Equal(t, StatusCancelled, itErr.To)
}

func TestCancel_NotFound(t *testing.T) {
	svc := newTestService(newCatalog(), &mockResolver{}, &mockOrderRepo{}, nil)

	_, err := svc.Cancel(context.Background(), 404, 7)
	require.ErrorIs(t, err, ErrNotFound)
}

// --- AdvanceStatus ---

func TestAdvanceStatus_MintsOTPOnReady(t *testing.T) {
	repo := seededRepo(Order{UserID: 7, Status: StatusPreparing, Version: 2})
	emitter := &mockEmitter{}
	svc := newTestService(newCatalog(), &mockResolver{}, repo, emitter)

	o, err := svc.AdvanceStatus(context.Background(), 1, StatusReady)
	require.NoError(t, err)

	assert.Equal(t, StatusReady, o.Status)
	assert.Equal(t, "0042", o.OTP)
	require.NotNil(t, o.OTPExpiry)
	assert.Equal(t, svc.now().Add(5*time.Minute), *o.OTPExpiry)

	// The OTP travels on the notification path only.
	require.Len(t, emitter.events, 1)
	assert.Equal(t, "0042", emitter.events[0].OTP)
}

func TestAdvanceStatus_SkipStage(t *testing.T) {
	repo := seededRepo(Order{UserID: 7, Status: StatusOrdered, Version: 1})
	svc := newTestService(newCatalog(), &mockResolver{}, repo, nil)

	_, err := svc.AdvanceStatus(context.Background(), 1, StatusReady)

	var itErr *InvalidTransitionError
	require.ErrorAs(t, err, &itErr)
}

func TestAdvanceStatus_DirectCompleteBypassesOTP(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	expiry := now.Add(5 * time.Minute)
	repo := seededRepo(Order{UserID: 7, Status: StatusReady, OTP: "1234", OTPExpiry: &expiry, Version: 3})
	svc := newTestService(newCatalog(), &mockResolver{}, repo, nil)

	o, err := svc.AdvanceStatus(context.Background(), 1, StatusCompleted)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, o.Status)
	assert.Empty(t, o.OTP)
	assert.Nil(t, o.OTPExpiry)
	require.NotNil(t, o.CompletedAt)
	assert.Equal(t, now, *o.CompletedAt)
}

func TestAdvanceStatus_ConflictPropagates(t *testing.T) {
	repo := seededRepo(Order{UserID: 7, Status: StatusOrdered, Version: 1})
	repo.updateErr = ErrConflict
	svc := newTestService(newCatalog(), &mockResolver{}, repo, nil)

	_, err := svc.AdvanceStatus(context.Background(), 1, StatusPreparing)
	require.ErrorIs(t, err, ErrConflict)
}

// --- CompleteWithOTP ---

func readyOrder(otp string, expiry time.Time) Order {
	return Order{UserID: 7, Status: StatusReady, OTP: otp, OTPExpiry: &expiry, Version: 3}
}

func TestCompleteWithOTP_Success(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := seededRepo(readyOrder("1234", now.Add(time.Minute)))
	emitter := &mockEmitter{}
	svc := newTestService(newCatalog(), &mockResolver{}, repo, emitter)

	o, err := svc.CompleteWithOTP(context.Background(), 1, "1234")
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, o.Status)
	assert.Empty(t, o.OTP)
	assert.Nil(t, o.OTPExpiry)
	require.NotNil(t, o.CompletedAt)

	require.Len(t, emitter.events, 1)
	assert.Equal(t, "COMPLETED", emitter.events[0].Status)
	assert.Empty(t, emitter.events[0].OTP)
}

func TestCompleteWithOTP_WrongCode(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := seededRepo(readyOrder("1234", now.Add(time.Minute)))
	svc := newTestService(newCatalog(), &mockResolver{}, repo, nil)

	_, err := svc.CompleteWithOTP(context.Background(), 1, "9999")
	require.ErrorIs(t, err, ErrInvalidOTP)
	assert.Zero(t, repo.updates)
}

func TestCompleteWithOTP_EmptyCode(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := seededRepo(readyOrder("1234", now.Add(time.Minute)))
	svc := newTestService(newCatalog(), &mockResolver{}, repo, nil)

	_, err := svc.CompleteWithOTP(context.Background(), 1, "")
	require.ErrorIs(t, err, ErrInvalidOTP)
}

func TestCompleteWithOTP_Expired(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := seededRepo(readyOrder("1234", now.Add(-time.Second)))
	svc := newTestService(newCatalog(), &mockResolver{}, repo, nil)

	_, err := svc.CompleteWithOTP(context.Background(), 1, "1234")
	require.ErrorIs(t, err, ErrOTPExpired)
}

func TestCompleteWithOTP_NotReady(t *testing.T) {
	repo := seededRepo(Order{UserID: 7, Status: StatusPreparing, Version: 2})
	svc := newTestService(newCatalog(), &mockResolver{}, repo, nil)

	_, err := svc.CompleteWithOTP(context.Background(), 1, "1234")

	var itErr *InvalidTransitionError
	require.ErrorAs(t, err, &itErr)
	assert.Equal(t, StatusPreparing, itErr.From)
}

func TestCompletedAtSetOnce(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	earlier := now.Add(-time.Hour)
	o := &Order{Status: StatusCompleted, CompletedAt: &earlier}

	svc := newTestService(newCatalog(), &mockResolver{}, &mockOrderRepo{}, nil)
	svc.markCompleted(o)

	assert.Equal(t, earlier, *o.CompletedAt)
}

func TestCreate_RepoErrorWrapped(t *testing.T) {
	repo := &mockOrderRepo{createErr: errors.New("db down")}
	svc := newTestService(newCatalog(testItem(1, "Chai", 1500)), &mockResolver{}, repo, nil)

	_, err := svc.Create(context.Background(), CreateRequest{
		UserID: 7,
		Items:  []CreateItem{{MenuItemID: 1, Quantity: 1}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}
