package order

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/go-faster/errors"

	"github.com/Amoghsy/CampoBite/internal/domain/coupon"
	"github.com/Amoghsy/CampoBite/internal/domain/menu"
	"github.com/Amoghsy/CampoBite/internal/notify"
)

// OTP codes are valid for five minutes from the moment the order
// becomes READY; validity is checked against the stored expiry, there
// is no background sweep.
const otpTTL = 5 * time.Minute

// Emitter schedules best-effort delivery of a lifecycle event. It must
// never block or fail the calling transition.
type Emitter interface {
	Emit(e notify.Event)
}

// CreateRequest holds the input for placing an order. The user fields
// come from the authenticated principal.
type CreateRequest struct {
	UserID     int64
	UserEmail  string
	UserName   string
	Items      []CreateItem
	CouponCode string
}

// CreateItem is one cart line in a CreateRequest.
type CreateItem struct {
	MenuItemID int64
	Quantity   int
}

// Service owns every order mutation: creation, cancellation, kitchen
// status advancement, and OTP-gated completion.
type Service struct {
	catalog menu.Catalog
	coupons coupon.Resolver
	orders  Repository
	events  Emitter

	now     func() time.Time
	randInt func(n int) int
}

// NewService creates an order Service with the required collaborators.
func NewService(catalog menu.Catalog, coupons coupon.Resolver, orders Repository, events Emitter) *Service {
	return &Service{
		catalog: catalog,
		coupons: coupons,
		orders:  orders,
		events:  events,
		now:     time.Now,
		randInt: rand.IntN,
	}
}

// Create validates the cart, snapshots per-item prices from the
// catalog, applies an optional coupon, and persists the order and its
// items atomically with status ORDERED.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	items := make([]Item, 0, len(req.Items))
	var subtotal int64
	for _, line := range req.Items {
		if line.Quantity <= 0 {
			return nil, &InvalidQuantityError{MenuItemID: line.MenuItemID}
		}

		mi, err := s.catalog.GetByID(ctx, line.MenuItemID)
		if err != nil {
			if errors.Is(err, menu.ErrNotFound) {
				return nil, &ItemNotFoundError{MenuItemID: line.MenuItemID}
			}
			return nil, errors.Wrapf(err, "get menu item %d", line.MenuItemID)
		}
		if !mi.Available {
			return nil, &ItemUnavailableError{MenuItemID: mi.ID, Name: mi.Name}
		}

		items = append(items, Item{
			MenuItemID: mi.ID,
			Name:       mi.Name,
			UnitPrice:  mi.Price,
			Quantity:   line.Quantity,
		})
		subtotal += mi.Price * int64(line.Quantity)
	}

	now := s.now()

	// Coupon discount uses integer floor division; the percentage is
	// bounded to [0,100] so the total cannot go negative, but it is
	// clamped anyway as a guard.
	var (
		discount   int64
		couponCode string
	)
	if req.CouponCode != "" {
		c, err := s.coupons.Resolve(ctx, req.CouponCode, now)
		if err != nil {
			return nil, err
		}
		discount = c.DiscountFor(subtotal)
		couponCode = c.Code
	}
	total := subtotal - discount
	if total < 0 {
		total = 0
	}

	o := &Order{
		TokenNumber:    s.generateToken(),
		UserID:         req.UserID,
		UserEmail:      req.UserEmail,
		UserName:       req.UserName,
		Status:         StatusOrdered,
		TotalAmount:    total,
		CouponCode:     couponCode,
		DiscountAmount: discount,
		ItemNames:      summarizeItems(items),
		Version:        1,
		CreatedAt:      now,
		Items:          items,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	s.emitStatus(o)
	return o, nil
}

// Cancel cancels an order on behalf of its owner. Only orders still in
// ORDERED may be cancelled.
func (s *Service) Cancel(ctx context.Context, orderID, requestingUserID int64) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != requestingUserID {
		return nil, ErrForbidden
	}
	if !o.Status.CanTransitionTo(StatusCancelled) {
		return nil, &InvalidTransitionError{From: o.Status, To: StatusCancelled}
	}

	o.Status = StatusCancelled
	o.clearOTP()
	if err := s.orders.UpdateStatus(ctx, o); err != nil {
		return nil, err
	}

	s.emitStatus(o)
	return o, nil
}

// AdvanceStatus moves an order to the next kitchen stage. Entering
// READY mints a 4-digit OTP valid for five minutes; the code travels to
// the owner on the notification path only. Entering COMPLETED directly
// is an administrative override that bypasses OTP verification; the
// normal completion path is CompleteWithOTP.
func (s *Service) AdvanceStatus(ctx context.Context, orderID int64, target Status) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanTransitionTo(target) {
		return nil, &InvalidTransitionError{From: o.Status, To: target}
	}

	o.Status = target
	switch target {
	case StatusReady:
		expiry := s.now().Add(otpTTL)
		o.OTP = s.generateOTP()
		o.OTPExpiry = &expiry
	case StatusCompleted:
		s.markCompleted(o)
	default:
		o.clearOTP()
	}

	if err := s.orders.UpdateStatus(ctx, o); err != nil {
		return nil, err
	}

	s.emitStatus(o)
	return o, nil
}

// CompleteWithOTP is the fraud-resistant completion path: the order
// must be READY and the submitted code must match the stored OTP before
// its expiry.
func (s *Service) CompleteWithOTP(ctx context.Context, orderID int64, submittedOTP string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusReady {
		return nil, &InvalidTransitionError{From: o.Status, To: StatusCompleted}
	}
	if o.OTP == "" || o.OTPExpiry == nil || o.OTP != submittedOTP {
		return nil, ErrInvalidOTP
	}
	if s.now().After(*o.OTPExpiry) {
		return nil, ErrOTPExpired
	}

	o.Status = StatusCompleted
	s.markCompleted(o)
	if err := s.orders.UpdateStatus(ctx, o); err != nil {
		return nil, err
	}

	s.emitStatus(o)
	return o, nil
}

// markCompleted stamps the completion time once and clears OTP state.
func (s *Service) markCompleted(o *Order) {
	if o.CompletedAt == nil {
		now := s.now()
		o.CompletedAt = &now
	}
	o.clearOTP()
}

func (o *Order) clearOTP() {
	o.OTP = ""
	o.OTPExpiry = nil
}

// generateToken picks a pickup token in the human-friendly 100-999
// range. Tokens are a display aid, not a key; collisions between
// concurrently active orders are tolerated.
func (s *Service) generateToken() int {
	return s.randInt(900) + 100
}

func (s *Service) generateOTP() string {
	return fmt.Sprintf("%04d", s.randInt(10000))
}

func (s *Service) emitStatus(o *Order) {
	if s.events == nil {
		return
	}
	e := notify.Event{
		Kind:        notify.KindStatusChanged,
		OrderID:     o.ID,
		TokenNumber: o.TokenNumber,
		Status:      string(o.Status),
		UserEmail:   o.UserEmail,
		UserName:    o.UserName,
		OccurredAt:  s.now(),
	}
	if o.Status == StatusReady {
		e.OTP = o.OTP
	}
	s.events.Emit(e)
}
